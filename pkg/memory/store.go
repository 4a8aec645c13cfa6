package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/recallkit/recall/internal/observability"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

// Store is the SQLite-backed persistence layer for memory records, keyword
// associations, and embedding vectors. Concurrent reads are safe; writes
// are serialized by SQLite in WAL mode.
type Store struct {
	db     *sql.DB
	dim    int
	logger zerolog.Logger
}

// Config holds store configuration.
type Config struct {
	DBPath    string
	Dimension int // embedding vector dimension for the vec0 table
	Logger    zerolog.Logger
}

// Open opens (and if necessary initializes) a store at the given path.
func Open(cfg Config) (*Store, error) {
	observability.EnsureRegistered()

	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("embedding dimension must be positive")
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1")
	if err != nil {
		return nil, wrapStorage("open database", err)
	}

	// WAL mode for concurrent readers
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, wrapStorage("enable WAL mode", err)
	}

	s := &Store{db: db, dim: cfg.Dimension, logger: cfg.Logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info().Str("db", cfg.DBPath).Int("dimension", cfg.Dimension).Msg("Memory store opened")
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS agent_memories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			memory_key TEXT NOT NULL,
			memory_type TEXT NOT NULL DEFAULT 'command_output',
			summary TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			content_metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			UNIQUE(user_id, memory_key)
		);
		CREATE INDEX IF NOT EXISTS idx_memories_user ON agent_memories(user_id, is_active);
		CREATE INDEX IF NOT EXISTS idx_memories_type ON agent_memories(user_id, memory_type);

		CREATE TABLE IF NOT EXISTS memory_keywords (
			user_id INTEGER NOT NULL,
			memory_key TEXT NOT NULL,
			keyword TEXT NOT NULL,
			weight REAL NOT NULL,
			UNIQUE(user_id, memory_key, keyword)
		);
		CREATE INDEX IF NOT EXISTS idx_keywords_user ON memory_keywords(user_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return wrapStorage("initialize schema", err)
	}

	vectorSchema := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS memory_vectors USING vec0(
			embedding float[%d] distance_metric=cosine
		);
	`, s.dim)
	if _, err := s.db.Exec(vectorSchema); err != nil {
		return wrapStorage("create vector table", err)
	}

	return nil
}

// Save upserts a record under (user_id, memory_key). created_at is set on
// first insert and never changed by later upserts. A non-nil Embedding
// replaces the stored vector; non-nil Keywords replace the stored
// associations.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.UserID <= 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	if rec.MemoryKey == "" {
		return fmt.Errorf("%w: memory key is required", ErrInvalidRecord)
	}
	if rec.Content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidRecord)
	}
	for kw, w := range rec.Keywords {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: %q has weight %v", ErrInvalidWeight, kw, w)
		}
	}

	memoryType := rec.MemoryType
	if memoryType == "" {
		memoryType = DefaultMemoryType
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	metaJSON, err := json.Marshal(orEmptyMeta(rec.Metadata))
	if err != nil {
		return fmt.Errorf("%w: metadata not serializable: %v", ErrInvalidRecord, err)
	}

	start := time.Now()
	defer func() { observability.RecordStoreOp("save", time.Since(start)) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorage("begin save", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO agent_memories (user_id, memory_key, memory_type, summary, content, content_metadata, created_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(user_id, memory_key) DO UPDATE SET
			memory_type = excluded.memory_type,
			summary = excluded.summary,
			content = excluded.content,
			content_metadata = excluded.content_metadata,
			is_active = 1
	`, rec.UserID, rec.MemoryKey, memoryType, rec.Summary, rec.Content, string(metaJSON), createdAt.Unix())
	if err != nil {
		return wrapStorage("upsert record", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM agent_memories WHERE user_id = ? AND memory_key = ?",
		rec.UserID, rec.MemoryKey,
	).Scan(&id)
	if err != nil {
		return wrapStorage("resolve record id", err)
	}

	if rec.Embedding != nil {
		if err := insertVector(ctx, tx, id, rec.Embedding); err != nil {
			return err
		}
	}

	if rec.Keywords != nil {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM memory_keywords WHERE user_id = ? AND memory_key = ?",
			rec.UserID, rec.MemoryKey,
		); err != nil {
			return wrapStorage("replace keywords", err)
		}
		for kw, w := range rec.Keywords {
			normalized := strings.ToLower(strings.TrimSpace(kw))
			if normalized == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO memory_keywords (user_id, memory_key, keyword, weight) VALUES (?, ?, ?, ?)",
				rec.UserID, rec.MemoryKey, normalized, w,
			); err != nil {
				return wrapStorage("insert keyword", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStorage("commit save", err)
	}
	return nil
}

func insertVector(ctx context.Context, tx *sql.Tx, rowID int64, embedding []float32) error {
	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("%w: embedding not serializable: %v", ErrInvalidRecord, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM memory_vectors WHERE rowid = ?", rowID); err != nil {
		return wrapStorage("replace vector", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO memory_vectors (rowid, embedding) VALUES (?, ?)",
		rowID, string(embeddingJSON),
	); err != nil {
		return wrapStorage("insert vector", err)
	}
	return nil
}

// SaveEmbedding stores or replaces the vector for an existing active record.
func (s *Store) SaveEmbedding(ctx context.Context, userID int64, memoryKey string, embedding []float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorage("begin save embedding", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM agent_memories WHERE user_id = ? AND memory_key = ? AND is_active = 1",
		userID, memoryKey,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, memoryKey)
	}
	if err != nil {
		return wrapStorage("resolve record id", err)
	}

	if err := insertVector(ctx, tx, id, embedding); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapStorage("commit save embedding", err)
	}
	return nil
}

// Get fetches a single active record by key.
func (s *Store) Get(ctx context.Context, userID int64, memoryKey string) (*Record, error) {
	recs, err := s.GetByKeys(ctx, userID, []string{memoryKey})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, memoryKey)
	}
	return &recs[0], nil
}

const recordColumns = "id, user_id, memory_key, memory_type, summary, content, content_metadata, created_at, is_active"

// GetByKeys fetches active records matching the given keys within the user
// scope. Missing keys are skipped; an empty key set yields an empty slice.
func (s *Store) GetByKeys(ctx context.Context, userID int64, memoryKeys []string) ([]Record, error) {
	if len(memoryKeys) == 0 {
		return []Record{}, nil
	}

	start := time.Now()
	defer func() { observability.RecordStoreOp("get_by_keys", time.Since(start)) }()

	placeholders := strings.Repeat("?,", len(memoryKeys))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(memoryKeys)+1)
	args = append(args, userID)
	for _, k := range memoryKeys {
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM agent_memories
		WHERE user_id = ? AND is_active = 1 AND memory_key IN (%s)
	`, recordColumns, placeholders), args...)
	if err != nil {
		return nil, wrapStorage("get by keys", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Filter returns active records of the user, optionally restricted by
// memory type and minimum creation time. A zero createdAfter disables the
// time restriction.
func (s *Store) Filter(ctx context.Context, userID int64, memoryTypes []string, createdAfter time.Time) ([]Record, error) {
	start := time.Now()
	defer func() { observability.RecordStoreOp("filter", time.Since(start)) }()

	where := []string{"user_id = ?", "is_active = 1"}
	args := []any{userID}

	if len(memoryTypes) > 0 {
		placeholders := strings.Repeat("?,", len(memoryTypes))
		where = append(where, fmt.Sprintf("memory_type IN (%s)", placeholders[:len(placeholders)-1]))
		for _, t := range memoryTypes {
			args = append(args, t)
		}
	}
	if !createdAfter.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, createdAfter.Unix())
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM agent_memories WHERE %s ORDER BY created_at DESC",
		recordColumns, strings.Join(where, " AND "),
	), args...)
	if err != nil {
		return nil, wrapStorage("filter records", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SemanticCandidates runs a cosine KNN scan over the user's active vectors.
func (s *Store) SemanticCandidates(ctx context.Context, userID int64, vector []float32, limit int) ([]VectorMatch, error) {
	if limit <= 0 {
		return []VectorMatch{}, nil
	}

	start := time.Now()
	defer func() { observability.RecordStoreOp("semantic_candidates", time.Since(start)) }()

	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return nil, fmt.Errorf("%w: query vector not serializable: %v", ErrInvalidRecord, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.memory_key, vec_distance_cosine(v.embedding, ?) AS distance
		FROM memory_vectors v
		JOIN agent_memories m ON m.id = v.rowid
		WHERE m.user_id = ? AND m.is_active = 1
		ORDER BY distance ASC, m.memory_key ASC
		LIMIT ?
	`, string(vectorJSON), userID, limit)
	if err != nil {
		return nil, wrapStorage("semantic candidates", err)
	}
	defer rows.Close()

	var matches []VectorMatch
	for rows.Next() {
		var m VectorMatch
		if err := rows.Scan(&m.MemoryKey, &m.Distance); err != nil {
			return nil, wrapStorage("scan candidate", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("iterate candidates", err)
	}
	return matches, nil
}

// Deactivate soft-deletes a record. The record and its associations are
// retained for audit but excluded from every read path.
func (s *Store) Deactivate(ctx context.Context, userID int64, memoryKey string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE agent_memories SET is_active = 0 WHERE user_id = ? AND memory_key = ?",
		userID, memoryKey,
	)
	if err != nil {
		return wrapStorage("deactivate record", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, memoryKey)
	}
	return nil
}

// Delete hard-deletes a record, cascading to keyword associations and the
// vector row. Not used by the search path.
func (s *Store) Delete(ctx context.Context, userID int64, memoryKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStorage("begin delete", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM agent_memories WHERE user_id = ? AND memory_key = ?",
		userID, memoryKey,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, memoryKey)
	}
	if err != nil {
		return wrapStorage("resolve record id", err)
	}

	for _, stmt := range []struct {
		sql  string
		args []any
	}{
		{"DELETE FROM memory_vectors WHERE rowid = ?", []any{id}},
		{"DELETE FROM memory_keywords WHERE user_id = ? AND memory_key = ?", []any{userID, memoryKey}},
		{"DELETE FROM agent_memories WHERE id = ?", []any{id}},
	} {
		if _, err := tx.ExecContext(ctx, stmt.sql, stmt.args...); err != nil {
			return wrapStorage("cascade delete", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStorage("commit delete", err)
	}
	return nil
}

// Stats counts store contents.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM agent_memories", &st.TotalRecords},
		{"SELECT COUNT(*) FROM agent_memories WHERE is_active = 1", &st.ActiveRecords},
		{"SELECT COUNT(*) FROM memory_vectors", &st.Embeddings},
		{"SELECT COUNT(*) FROM memory_keywords", &st.Keywords},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return Stats{}, wrapStorage("collect stats", err)
		}
	}
	return st, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	records := []Record{}
	for rows.Next() {
		var (
			rec       Record
			metaJSON  string
			createdAt int64
			active    int
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.MemoryKey, &rec.MemoryType,
			&rec.Summary, &rec.Content, &metaJSON, &createdAt, &active); err != nil {
			return nil, wrapStorage("scan record", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		rec.IsActive = active == 1
		if metaJSON != "" && metaJSON != "{}" {
			if err := json.Unmarshal([]byte(metaJSON), &rec.Metadata); err != nil {
				return nil, wrapStorage("decode metadata", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("iterate records", err)
	}
	return records, nil
}

func orEmptyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
