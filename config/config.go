package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the documentation engine.
type Config struct {
	General     GeneralConfig     `mapstructure:"general"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Preprocess  PreprocessConfig  `mapstructure:"preprocess"`
	Compression CompressionConfig `mapstructure:"compression"`
	Knowledge   KnowledgeConfig   `mapstructure:"knowledge"`
	Output      OutputConfig      `mapstructure:"output"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Capability  CapabilityConfig  `mapstructure:"capability"`
	Budget      BudgetConfig      `mapstructure:"budget"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	ProjectPath    string        `mapstructure:"project_path"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ProviderConfig describes the primary/fallback LLM provider pair and
// dispatch limits shared by every LLM-invoking component.
type ProviderConfig struct {
	Kind          string        `mapstructure:"kind"` // openai, anthropic, gemini, moonshot, deepseek, mistral, openrouter, ollama
	PrimaryModel  string        `mapstructure:"primary_model"`
	FallbackModel string        `mapstructure:"fallback_model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	APIBaseURL    string        `mapstructure:"api_base_url"`
	Credential    string        `mapstructure:"credential"`
	MaxParallels  int           `mapstructure:"max_parallels"`
	MaxIterations int           `mapstructure:"max_iterations"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Validate checks that the provider configuration is usable.
func (p ProviderConfig) Validate() error {
	if strings.TrimSpace(p.Kind) == "" {
		return fmt.Errorf("provider.kind is required")
	}
	switch p.Kind {
	case "openai", "anthropic", "gemini", "moonshot", "deepseek", "mistral", "openrouter", "ollama":
	default:
		return fmt.Errorf("provider.kind %q is not a recognized provider kind", p.Kind)
	}
	if strings.TrimSpace(p.PrimaryModel) == "" {
		return fmt.Errorf("provider.primary_model is required")
	}
	if p.MaxParallels < 0 {
		return fmt.Errorf("provider.max_parallels cannot be negative")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("provider.max_retries cannot be negative")
	}
	return nil
}

// SameAsFallback reports whether the fallback model would duplicate the
// primary dispatch (see SPEC_FULL.md §4 open-question decision 3).
func (p ProviderConfig) SameAsFallback() bool {
	return strings.TrimSpace(p.FallbackModel) == "" || p.FallbackModel == p.PrimaryModel
}

// NormalizedMaxParallels returns MaxParallels with the zero-means-one
// normalization mandated by spec §5.
func (p ProviderConfig) NormalizedMaxParallels() int {
	if p.MaxParallels <= 0 {
		return 1
	}
	return p.MaxParallels
}

// CacheConfig controls the response cache (C2).
type CacheConfig struct {
	Enabled        bool               `mapstructure:"enabled"`
	Backend        string             `mapstructure:"backend"` // "disk" (default) or "redis"
	RootDir        string             `mapstructure:"root_dir"`
	ExpireHours    int                `mapstructure:"expire_hours"` // 0 = never expires
	ModelPriceTable map[string]ModelPrice `mapstructure:"model_price_table"`
	Redis          RedisConfig        `mapstructure:"redis"`
}

// ModelPrice captures per-1K-token pricing used for cost-saving estimates.
type ModelPrice struct {
	InputPer1K  float64 `mapstructure:"input_per_1k"`
	OutputPer1K float64 `mapstructure:"output_per_1k"`
}

// RedisConfig contains Redis connection settings for the optional cache/knowledge backends.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PreprocessConfig controls the preprocess stage (C6).
type PreprocessConfig struct {
	ExcludedDirs          []string `mapstructure:"excluded_dirs"`
	MaxDepth              int      `mapstructure:"max_depth"`
	ImportanceThreshold   float64  `mapstructure:"importance_threshold"`
	AIConfidenceThreshold float64  `mapstructure:"ai_confidence_threshold"`
	MaxFileReadSize       int64    `mapstructure:"max_file_read_size"`
	MaxParallels          int      `mapstructure:"max_parallels"` // 0 = inherit provider.max_parallels
}

// NormalizedMaxParallels resolves the preprocess-specific override per the
// open-question decision recorded in SPEC_FULL.md §4.1.
func (p PreprocessConfig) NormalizedMaxParallels(providerDefault int) int {
	if p.MaxParallels <= 0 {
		if providerDefault <= 0 {
			return 1
		}
		return providerDefault
	}
	return p.MaxParallels
}

// CompressionConfig controls the prompt compressor.
type CompressionConfig struct {
	ThresholdTokens int      `mapstructure:"threshold_tokens"`
	HardCeiling     int      `mapstructure:"hard_ceiling_tokens"`
	TargetRatio     float64  `mapstructure:"target_compression_ratio"`
	PreservePatterns []string `mapstructure:"preserve_patterns"`
}

// KnowledgeConfig controls the knowledge store (C4).
type KnowledgeConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	CacheDir        string              `mapstructure:"cache_dir"`
	MetadataBackend string              `mapstructure:"metadata_backend"` // "file" (default) or "postgres"
	Categories      []KnowledgeCategory `mapstructure:"categories"`
	Chunking        ChunkingConfig      `mapstructure:"chunking"`
	Postgres        PostgresConfig      `mapstructure:"postgres"`
	WatchForChanges bool                `mapstructure:"watch_for_changes"`
	MaxChunksPerLoad int                `mapstructure:"max_chunks_per_load"` // 0 = inherit default of 50
}

// KnowledgeCategory groups documents under a named retrieval bucket.
type KnowledgeCategory struct {
	Name         string   `mapstructure:"name"`
	Description  string   `mapstructure:"description"`
	Patterns     []string `mapstructure:"patterns"`
	TargetAgents []string `mapstructure:"target_agents"`
}

// ChunkingConfig controls document splitting for the knowledge store.
type ChunkingConfig struct {
	Strategy     string `mapstructure:"strategy"` // "semantic", "paragraph", "fixed"
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
}

// PostgresConfig contains Postgres connection settings for the optional
// knowledge-metadata backend.
type PostgresConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OutputConfig controls the persistence collaborator's target locale/directory.
type OutputConfig struct {
	TargetLanguage string `mapstructure:"target_language"` // e.g. "en", "zh"
	OutputDir      string `mapstructure:"output_dir"`
}

// TelemetryConfig contains telemetry/metrics settings.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	PeriodicLogs bool   `mapstructure:"periodic_logs"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Validate checks the telemetry configuration.
func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// CapabilityConfig controls the tool/provider capability registry.
type CapabilityConfig struct {
	SigningSecret string   `mapstructure:"signing_secret"`
	RequiredTools []string `mapstructure:"required_tools"`
}

// BudgetConfig declares optional cost/token/time guardrails for a
// pipeline run (internal/budget.Config's configuration-file shape).
type BudgetConfig struct {
	MaxEstimatedCostUSD *float64 `mapstructure:"max_estimated_cost_usd"`
	MaxEstimatedTokens  *int64   `mapstructure:"max_estimated_tokens"`
	MaxTimeSeconds      *int64   `mapstructure:"max_time_seconds"`
	ApprovalThreshold   *float64 `mapstructure:"approval_threshold_usd"`
	RequireApproval     bool     `mapstructure:"require_approval"`
}

// Validate reports configuration errors across all sections. Invalid or
// missing configuration is fatal at startup (spec §7, ConfigError).
func (c *Config) Validate() error {
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Preprocess.ImportanceThreshold < 0 || c.Preprocess.ImportanceThreshold > 1 {
		return fmt.Errorf("config: preprocess.importance_threshold must be within [0,1]")
	}
	if c.Preprocess.AIConfidenceThreshold < 0 || c.Preprocess.AIConfidenceThreshold > 1 {
		return fmt.Errorf("config: preprocess.ai_confidence_threshold must be within [0,1]")
	}
	if strings.TrimSpace(c.Output.OutputDir) == "" {
		return fmt.Errorf("config: output.output_dir is required")
	}
	if c.Budget.MaxEstimatedCostUSD != nil && *c.Budget.MaxEstimatedCostUSD < 0 {
		return fmt.Errorf("config: budget.max_estimated_cost_usd cannot be negative")
	}
	if c.Budget.MaxEstimatedTokens != nil && *c.Budget.MaxEstimatedTokens < 0 {
		return fmt.Errorf("config: budget.max_estimated_tokens cannot be negative")
	}
	if c.Budget.MaxTimeSeconds != nil && *c.Budget.MaxTimeSeconds < 0 {
		return fmt.Errorf("config: budget.max_time_seconds cannot be negative")
	}
	return nil
}

// LoadConfig loads configuration from a viper-discovered file, applying
// spec-mandated defaults, and validates the result. path may be empty to
// use the default search locations.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("deepwiki")
	v.SetConfigType("yaml")

	applyDefaults(v)

	if path == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DEEPWIKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("provider.temperature", 0.2)
	v.SetDefault("provider.max_tokens", 4096)
	v.SetDefault("provider.max_parallels", 4)
	v.SetDefault("provider.max_iterations", 10)
	v.SetDefault("provider.max_retries", 2)
	v.SetDefault("provider.request_timeout", "60s")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "disk")
	v.SetDefault("cache.root_dir", ".deepwiki/cache")
	v.SetDefault("cache.expire_hours", 168)

	v.SetDefault("preprocess.max_depth", 12)
	v.SetDefault("preprocess.importance_threshold", 0.5)
	v.SetDefault("preprocess.ai_confidence_threshold", 0.7)
	v.SetDefault("preprocess.max_file_read_size", int64(262144))
	v.SetDefault("preprocess.excluded_dirs", []string{".git", "node_modules", "vendor", "dist", "build"})

	v.SetDefault("compression.threshold_tokens", 64000)
	v.SetDefault("compression.hard_ceiling_tokens", 150000)
	v.SetDefault("compression.target_compression_ratio", 0.5)
	v.SetDefault("compression.preserve_patterns", []string{
		"function_signatures", "type_definitions", "import_statements",
		"interface_definitions", "error_handling", "configuration",
	})

	v.SetDefault("knowledge.enabled", false)
	v.SetDefault("knowledge.cache_dir", ".deepwiki/knowledge")
	v.SetDefault("knowledge.metadata_backend", "file")
	v.SetDefault("knowledge.watch_for_changes", true)
	v.SetDefault("knowledge.max_chunks_per_load", 50)
	v.SetDefault("knowledge.chunking.strategy", "paragraph")
	v.SetDefault("knowledge.chunking.chunk_size", 2000)
	v.SetDefault("knowledge.chunking.chunk_overlap", 200)

	v.SetDefault("output.target_language", "en")
	v.SetDefault("output.output_dir", "./docs")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.metrics_port", 9108)
	v.SetDefault("telemetry.periodic_logs", false)

	v.SetDefault("capability.required_tools", []string{"list_directory", "read_file", "now"})
}
