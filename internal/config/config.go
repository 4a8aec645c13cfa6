package config

// Config represents the main recall configuration
type Config struct {
	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Store
	Store StoreConfig `json:"store" mapstructure:"store"`

	// Embedding
	Embedding EmbeddingConfig `json:"embedding" mapstructure:"embedding"`

	// Search
	Search SearchConfig `json:"search" mapstructure:"search"`

	// Janitor
	Janitor JanitorConfig `json:"janitor" mapstructure:"janitor"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	DBPath    string `json:"db_path" mapstructure:"db_path"`
	Dimension int    `json:"dimension" mapstructure:"dimension"`
}

// EmbeddingConfig holds embedding gateway configuration
type EmbeddingConfig struct {
	Provider string `json:"provider" mapstructure:"provider"` // openai, mock
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	Model    string `json:"model" mapstructure:"model"`
	Cache    bool   `json:"cache" mapstructure:"cache"`
}

// SearchConfig holds engine defaults
type SearchConfig struct {
	SemanticWeight float64 `json:"semantic_weight" mapstructure:"semantic_weight"`
	KeywordWeight  float64 `json:"keyword_weight" mapstructure:"keyword_weight"`
	MinScore       float64 `json:"min_score" mapstructure:"min_score"`
	Limit          int     `json:"limit" mapstructure:"limit"`
	TimeDecay      bool    `json:"time_decay" mapstructure:"time_decay"`
	HalfLifeDays   float64 `json:"half_life_days" mapstructure:"half_life_days"`
}

// JanitorConfig holds maintenance scheduling configuration
type JanitorConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Schedule string `json:"schedule" mapstructure:"schedule"`
	Batch    int    `json:"batch" mapstructure:"batch"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DataDir: "",
		Store: StoreConfig{
			DBPath:    "", // resolved against DataDir by the loader
			Dimension: 1536,
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
			Cache:    true,
		},
		Search: SearchConfig{
			SemanticWeight: 0.6,
			KeywordWeight:  0.4,
			MinScore:       0.5,
			Limit:          5,
			TimeDecay:      false,
			HalfLifeDays:   30,
		},
		Janitor: JanitorConfig{
			Enabled:  true,
			Schedule: "@every 10m",
			Batch:    32,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}
