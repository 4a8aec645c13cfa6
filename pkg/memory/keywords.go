package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/recallkit/recall/internal/observability"
)

// SetKeywords replaces the keyword associations of an existing active
// record. Keywords are lower-cased and trimmed; weights must be in [0,1].
func (s *Store) SetKeywords(ctx context.Context, userID int64, memoryKey string, keywords map[string]float64) error {
	if _, err := s.Get(ctx, userID, memoryKey); err != nil {
		return err
	}
	for kw, w := range keywords {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: %q has weight %v", ErrInvalidWeight, kw, w)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorage("begin set keywords", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM memory_keywords WHERE user_id = ? AND memory_key = ?",
		userID, memoryKey,
	); err != nil {
		return wrapStorage("replace keywords", err)
	}
	for kw, w := range keywords {
		normalized := strings.ToLower(strings.TrimSpace(kw))
		if normalized == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO memory_keywords (user_id, memory_key, keyword, weight) VALUES (?, ?, ?, ?)",
			userID, memoryKey, normalized, w,
		); err != nil {
			return wrapStorage("insert keyword", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStorage("commit set keywords", err)
	}
	return nil
}

// Lookup aggregates keyword matches per memory key. A stored association
// matches when its keyword equals, contains, or is contained in any input
// term, case-insensitively. Aggregation is per association: each matching
// association contributes its weight once and bumps the match count once,
// regardless of how many input terms it matched. An empty input yields an
// empty map, never an implicit match-everything.
func (s *Store) Lookup(ctx context.Context, userID int64, keywords []string) (map[string]KeywordHit, error) {
	hits := map[string]KeywordHit{}
	terms := normalizeTerms(keywords)
	if len(terms) == 0 {
		return hits, nil
	}

	start := time.Now()
	defer func() { observability.RecordStoreOp("keyword_lookup", time.Since(start)) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT k.memory_key, k.keyword, k.weight
		FROM memory_keywords k
		JOIN agent_memories m ON m.user_id = k.user_id AND m.memory_key = k.memory_key
		WHERE k.user_id = ? AND m.is_active = 1
	`, userID)
	if err != nil {
		return nil, wrapStorage("lookup keywords", err)
	}
	defer rows.Close()

	matchedTerms := map[string]map[string]struct{}{}
	for rows.Next() {
		var (
			memoryKey string
			keyword   string
			weight    float64
		)
		if err := rows.Scan(&memoryKey, &keyword, &weight); err != nil {
			return nil, wrapStorage("scan keyword", err)
		}

		var matched []string
		for _, term := range terms {
			if keyword == term || strings.Contains(keyword, term) || strings.Contains(term, keyword) {
				matched = append(matched, term)
			}
		}
		if len(matched) == 0 {
			continue
		}

		hit := hits[memoryKey]
		hit.TotalWeight += weight
		hit.MatchCount++
		hits[memoryKey] = hit

		set := matchedTerms[memoryKey]
		if set == nil {
			set = map[string]struct{}{}
			matchedTerms[memoryKey] = set
		}
		for _, t := range matched {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("iterate keywords", err)
	}

	for key, set := range matchedTerms {
		hit := hits[key]
		hit.Matched = make([]string, 0, len(set))
		for t := range set {
			hit.Matched = append(hit.Matched, t)
		}
		sort.Strings(hit.Matched)
		hits[key] = hit
	}

	return hits, nil
}

// KeywordsFor returns the stored associations of a record.
func (s *Store) KeywordsFor(ctx context.Context, userID int64, memoryKey string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT keyword, weight FROM memory_keywords WHERE user_id = ? AND memory_key = ?",
		userID, memoryKey,
	)
	if err != nil {
		return nil, wrapStorage("keywords for record", err)
	}
	defer rows.Close()

	keywords := map[string]float64{}
	for rows.Next() {
		var (
			kw string
			w  float64
		)
		if err := rows.Scan(&kw, &w); err != nil {
			return nil, wrapStorage("scan keyword", err)
		}
		keywords[kw] = w
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("iterate keywords", err)
	}
	return keywords, nil
}

func normalizeTerms(keywords []string) []string {
	seen := map[string]struct{}{}
	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		normalized := strings.ToLower(strings.TrimSpace(kw))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		terms = append(terms, normalized)
	}
	return terms
}
