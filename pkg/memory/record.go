package memory

import "time"

// Record is a unit of stored knowledge. Content is the source of truth;
// Summary is a caller-supplied abbreviation and may be empty.
type Record struct {
	ID         int64              `json:"-"`
	UserID     int64              `json:"user_id"`
	MemoryKey  string             `json:"memory_key"`
	MemoryType string             `json:"memory_type"`
	Summary    string             `json:"summary,omitempty"`
	Content    string             `json:"content"`
	Metadata   map[string]any     `json:"content_metadata,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	IsActive   bool               `json:"is_active"`
	Embedding  []float32          `json:"-"`
	Keywords   map[string]float64 `json:"-"`
}

// DefaultMemoryType is applied when a record is stored without a type tag.
const DefaultMemoryType = "command_output"

// KeywordHit is the per-memory aggregation produced by a keyword lookup.
type KeywordHit struct {
	TotalWeight float64
	MatchCount  int
	Matched     []string
}

// VectorMatch pairs a memory key with its cosine distance to a query vector.
type VectorMatch struct {
	MemoryKey string
	Distance  float64
}

// Stats summarizes store contents for observability and the CLI.
type Stats struct {
	TotalRecords  int `json:"total_records"`
	ActiveRecords int `json:"active_records"`
	Embeddings    int `json:"embeddings"`
	Keywords      int `json:"keywords"`
}
