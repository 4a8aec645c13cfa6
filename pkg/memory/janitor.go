package memory

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/recallkit/recall/internal/observability"
)

// Embedder is the vector-generation collaborator the janitor uses for
// backfill. It matches embedding.Gateway.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Janitor runs scheduled maintenance: it backfills vectors for active
// records stored without embeddings, refreshes the entries gauge, and
// keeps the query planner statistics current. The search path never
// depends on it.
type Janitor struct {
	store    *Store
	embedder Embedder
	schedule string
	batch    int
	cron     *cron.Cron
	logger   zerolog.Logger
}

// JanitorConfig holds janitor configuration.
type JanitorConfig struct {
	Store    *Store
	Embedder Embedder
	Schedule string // cron expression, default "@every 10m"
	Batch    int    // max records embedded per run, default 32
	Logger   zerolog.Logger
}

// NewJanitor creates a janitor. Start must be called to schedule runs.
func NewJanitor(cfg JanitorConfig) (*Janitor, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "@every 10m"
	}
	batch := cfg.Batch
	if batch <= 0 {
		batch = 32
	}
	return &Janitor{
		store:    cfg.Store,
		embedder: cfg.Embedder,
		schedule: schedule,
		batch:    batch,
		cron:     cron.New(),
		logger:   cfg.Logger,
	}, nil
}

// Start schedules maintenance runs.
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.RunOnce(context.Background()); err != nil {
			j.logger.Warn().Err(err).Msg("Maintenance run failed")
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info().Str("schedule", j.schedule).Msg("Janitor started")
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// RunOnce performs a single maintenance pass.
func (j *Janitor) RunOnce(ctx context.Context) error {
	start := time.Now()

	embedded := 0
	if j.embedder != nil {
		pending, err := j.store.missingEmbeddings(ctx, j.batch)
		if err != nil {
			return err
		}
		for _, rec := range pending {
			vector, err := j.embedder.Embed(ctx, rec.Content)
			if err != nil {
				j.logger.Warn().Err(err).Str("memory_key", rec.MemoryKey).Msg("Backfill embedding failed")
				continue
			}
			if err := j.store.SaveEmbedding(ctx, rec.UserID, rec.MemoryKey, vector); err != nil {
				j.logger.Warn().Err(err).Str("memory_key", rec.MemoryKey).Msg("Backfill store failed")
				continue
			}
			embedded++
		}
	}

	if _, err := j.store.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return wrapStorage("analyze", err)
	}

	stats, err := j.store.Stats(ctx)
	if err != nil {
		return err
	}
	observability.SetMemoryEntries(stats.ActiveRecords)

	j.logger.Debug().
		Int("embedded", embedded).
		Int("active_records", stats.ActiveRecords).
		Dur("duration", time.Since(start)).
		Msg("Maintenance run completed")
	return nil
}

// missingEmbeddings lists active records that have no vector row yet.
func (s *Store) missingEmbeddings(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM agent_memories
		WHERE is_active = 1
		  AND id NOT IN (SELECT rowid FROM memory_vectors)
		ORDER BY created_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, wrapStorage("missing embeddings", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}
