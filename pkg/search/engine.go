package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/recallkit/recall/internal/observability"
	"github.com/recallkit/recall/internal/tracing"
	"github.com/recallkit/recall/pkg/embedding"
)

// Mode selects which retrieval strategies a search runs. There is no
// fallback guessing: the caller picks, the engine obeys.
type Mode string

const (
	ModeKeyword  Mode = "keyword"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
)

const (
	// DefaultMinScore is the relevance threshold applied by DefaultParams.
	DefaultMinScore = 0.5
	// DefaultLimit is the result cap applied by DefaultParams.
	DefaultLimit = 5
	// MaxLimit caps how many results a single search may request.
	MaxLimit = 10

	// relaxFactor loosens the threshold for hybrid sub-searches so the
	// merger has enough material; the original threshold is re-applied
	// after fusion.
	relaxFactor = 0.8
	// overfetchFactor widens hybrid sub-search candidate sets.
	overfetchFactor = 2
)

// Params parameterizes a single search call. Every call is independently
// parameterized; the engine keeps no session state.
type Params struct {
	UserID        int64
	Query         string
	Keywords      []string // optional; empty means derive from Query in keyword paths
	MemoryTypes   []string // optional type filter
	TimeRangeDays int      // optional; restricts to created_at >= now - N days
	MinScore      float64  // relevance threshold in [0,1]
	Limit         int      // result cap, clamped to MaxLimit
	Mode          Mode     // empty means ModeHybrid
}

// DefaultParams returns Params with the documented call defaults.
func DefaultParams(userID int64, query string) Params {
	return Params{
		UserID:   userID,
		Query:    query,
		MinScore: DefaultMinScore,
		Limit:    DefaultLimit,
		Mode:     ModeHybrid,
	}
}

func (p *Params) normalize() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, p.Limit)
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.MinScore < 0 || p.MinScore > 1 {
		return fmt.Errorf("%w: min score must be within [0,1], got %v", ErrInvalidArgument, p.MinScore)
	}
	if p.Mode == "" {
		p.Mode = ModeHybrid
	}
	switch p.Mode {
	case ModeKeyword, ModeSemantic, ModeHybrid:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, p.Mode)
	}
	return nil
}

// Engine is the single entry point for memory search. It is stateless
// across calls and safe for concurrent use; all state lives in the store
// and index it reads from.
type Engine struct {
	store    RecordStore
	keyword  *KeywordSearcher
	semantic *SemanticSearcher

	semanticWeight float64
	keywordWeight  float64
	timeDecay      bool
	halfLifeDays   float64

	now    func() time.Time
	logger zerolog.Logger
}

// Config holds engine construction parameters. Store and Index are
// required; Vectors and Gateway may be nil, in which case semantic
// retrieval reports the gateway as unavailable.
type Config struct {
	Store   RecordStore
	Index   KeywordIndex
	Vectors VectorIndex
	Gateway embedding.Gateway

	SemanticWeight float64 // default 0.6
	KeywordWeight  float64 // default 0.4
	TimeDecay      bool
	HalfLifeDays   float64 // default 30

	Logger zerolog.Logger
	Now    func() time.Time // test hook, defaults to time.Now
}

// New creates a search engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("record store is required")
	}
	if cfg.Index == nil {
		return nil, errors.New("keyword index is required")
	}

	semanticWeight := cfg.SemanticWeight
	keywordWeight := cfg.KeywordWeight
	if semanticWeight == 0 && keywordWeight == 0 {
		semanticWeight = 0.6
		keywordWeight = 0.4
	}
	halfLife := cfg.HalfLifeDays
	if halfLife <= 0 {
		halfLife = DefaultHalfLifeDays
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		store:          cfg.Store,
		keyword:        NewKeywordSearcher(cfg.Index, cfg.Store),
		semantic:       NewSemanticSearcher(cfg.Vectors, cfg.Store, cfg.Gateway),
		semanticWeight: semanticWeight,
		keywordWeight:  keywordWeight,
		timeDecay:      cfg.TimeDecay,
		halfLifeDays:   halfLife,
		now:            now,
		logger:         cfg.Logger,
	}, nil
}

// Search runs one search call. Parameter validation fails fast before any
// I/O; cancellation of ctx aborts in-flight sub-searches and returns the
// context error, never a silently partial list.
func (e *Engine) Search(ctx context.Context, params Params) (*Response, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	ctx = tracing.WithUserID(ctx, params.UserID)
	ctx, span := tracing.StartSpan(
		ctx,
		"recall.search",
		"search."+string(params.Mode),
		attribute.Int64("user_id", params.UserID),
		attribute.String("mode", string(params.Mode)),
	)
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, e.logger)
	start := time.Now()

	resp, err := e.dispatch(ctx, logger, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RecordSearch(string(params.Mode), time.Since(start), "error", 0)
		return nil, err
	}

	observability.RecordSearch(string(params.Mode), time.Since(start), "success", len(resp.Results))
	logger.Debug().
		Str("mode", string(params.Mode)).
		Int("results", len(resp.Results)).
		Bool("degraded", resp.Degraded).
		Msg("Search completed")
	return resp, nil
}

func (e *Engine) dispatch(ctx context.Context, logger zerolog.Logger, params Params) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch params.Mode {
	case ModeKeyword:
		return e.keywordOnly(ctx, params)
	case ModeSemantic:
		return e.semanticOnly(ctx, params)
	default:
		return e.hybrid(ctx, logger, params)
	}
}

func (e *Engine) keywordOnly(ctx context.Context, params Params) (*Response, error) {
	results, err := e.keyword.Search(ctx, params.UserID, e.keywordSet(params), params.Limit, params.MinScore)
	if err != nil {
		return nil, err
	}
	results, err = e.applyFilters(ctx, params, results)
	if err != nil {
		return nil, err
	}
	return &Response{Results: results}, nil
}

func (e *Engine) semanticOnly(ctx context.Context, params Params) (*Response, error) {
	results, err := e.semantic.Search(ctx, params.UserID, params.Query, params.Limit, params.MinScore)
	if err != nil {
		return nil, err
	}
	results, err = e.applyFilters(ctx, params, results)
	if err != nil {
		return nil, err
	}
	return &Response{Results: results}, nil
}

func (e *Engine) hybrid(ctx context.Context, logger zerolog.Logger, params Params) (*Response, error) {
	fetchLimit := params.Limit * overfetchFactor
	relaxed := params.MinScore * relaxFactor

	var (
		semResults, kwResults []ScoredResult
		semErr, kwErr         error
		wg                    sync.WaitGroup
	)

	// No shared mutable state between the branches; each only reads.
	wg.Add(2)
	go func() {
		defer wg.Done()
		semResults, semErr = e.semantic.Search(ctx, params.UserID, params.Query, fetchLimit, relaxed)
	}()
	go func() {
		defer wg.Done()
		kwResults, kwErr = e.keyword.Search(ctx, params.UserID, e.keywordSet(params), fetchLimit, relaxed)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failed []string
	if semErr != nil {
		logger.Warn().Err(semErr).Msg("Semantic branch failed, degrading to keyword only")
		observability.RecordBranchFailure("semantic")
		failed = append(failed, "semantic")
		semResults = nil
	}
	if kwErr != nil {
		logger.Warn().Err(kwErr).Msg("Keyword branch failed, degrading to semantic only")
		observability.RecordBranchFailure("keyword")
		failed = append(failed, "keyword")
		kwResults = nil
	}
	if len(failed) == 2 {
		return nil, fmt.Errorf("both sub-searches failed: %w", errors.Join(ErrSearchUnavailable, semErr, kwErr))
	}

	semResults, err := e.applyFilters(ctx, params, semResults)
	if err != nil {
		return nil, err
	}
	kwResults, err = e.applyFilters(ctx, params, kwResults)
	if err != nil {
		return nil, err
	}

	merged := Merge(semResults, kwResults, e.semanticWeight, e.keywordWeight)

	if e.timeDecay {
		now := e.now()
		for i := range merged {
			merged[i].Score = TimeDecay(merged[i].Score, merged[i].CreatedAt, now, e.halfLifeDays)
		}
	}

	// Re-apply the caller's original, unrelaxed threshold.
	kept := merged[:0]
	for _, r := range merged {
		if r.Score >= params.MinScore {
			kept = append(kept, r)
		}
	}
	merged = kept

	sortResults(merged)
	if len(merged) > params.Limit {
		merged = merged[:params.Limit]
	}

	if len(failed) > 0 {
		observability.RecordDegraded()
	}
	return &Response{
		Results:        merged,
		Degraded:       len(failed) > 0,
		FailedBranches: failed,
	}, nil
}

// keywordSet prefers caller-supplied keywords and falls back to tokenizing
// the query. Callers doing LLM-driven expansion inject the expanded set;
// the engine assumes no particular expansion strategy.
func (e *Engine) keywordSet(params Params) []string {
	if len(params.Keywords) > 0 {
		return params.Keywords
	}
	return Tokenize(params.Query)
}

// applyFilters re-validates candidates against type/time filters through
// the store. Sub-searches do not apply these filters themselves.
func (e *Engine) applyFilters(ctx context.Context, params Params, results []ScoredResult) ([]ScoredResult, error) {
	if len(results) == 0 || (len(params.MemoryTypes) == 0 && params.TimeRangeDays <= 0) {
		return results, nil
	}

	var createdAfter time.Time
	if params.TimeRangeDays > 0 {
		createdAfter = e.now().AddDate(0, 0, -params.TimeRangeDays)
	}

	allowed, err := e.store.Filter(ctx, params.UserID, params.MemoryTypes, createdAfter)
	if err != nil {
		return nil, fmt.Errorf("apply filters: %w", err)
	}
	allowedKeys := make(map[string]struct{}, len(allowed))
	for _, rec := range allowed {
		allowedKeys[rec.MemoryKey] = struct{}{}
	}

	kept := results[:0]
	for _, r := range results {
		if _, ok := allowedKeys[r.MemoryKey]; ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}
