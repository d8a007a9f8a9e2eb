package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the server and the CLI. Values come from
// built-in defaults, then an optional YAML file named by CLAUSEGEST_CONFIG,
// then environment variables.
type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Data layout. Empty directories are derived from DataDir.
	DataDir       string `yaml:"data_dir"`
	InputPDFDir   string `yaml:"input_pdf_dir"`
	CompletedDir  string `yaml:"completed_dir"`
	RejectedDir   string `yaml:"rejected_dir"`
	OutputDir     string `yaml:"output_dir"`
	MarkerJSONDir string `yaml:"marker_json_dir"`
	InputJSONDir  string `yaml:"input_json_dir"`
	SchemaDir     string `yaml:"schema_dir"`
	ChunkDir      string `yaml:"chunk_dir"`
	ScopeDir      string `yaml:"scope_dir"`
	IndexDir      string `yaml:"index_dir"`
	CatalogPath   string `yaml:"catalog_path"`

	// External extractor
	MarkerBinary  string `yaml:"marker_binary"`
	MarkerWorkers int    `yaml:"marker_workers"`

	// Worker pool
	WorkerCount          int `yaml:"worker_count"`
	MaxQueueSize         int `yaml:"max_queue_size"`
	MaxConcurrentConvert int `yaml:"max_concurrent_convert"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL   time.Duration `yaml:"job_ttl"`
	StatsAge time.Duration `yaml:"stats_age"`

	ValidateSchema bool `yaml:"validate_schema"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		Port:                 "8090",
		DataDir:              "data",
		MarkerBinary:         "marker",
		MarkerWorkers:        1,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxConcurrentConvert: 4,
		MaxUploadBytes:       104857600, // 100MB
		JobTTL:               1 * time.Hour,
		StatsAge:             1 * time.Hour,
		ValidateSchema:       true,
		LogLevel:             "info",
	}
}

// Load builds the configuration. It fails only when a named config file
// cannot be read or parsed.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CLAUSEGEST_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("CLAUSEGEST_API_KEY", cfg.APIKey)

	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)
	cfg.InputPDFDir = envOr("INPUT_PDF_DIR", cfg.InputPDFDir)
	cfg.OutputDir = envOr("OUTPUT_DIR", cfg.OutputDir)
	cfg.IndexDir = envOr("INDEX_DIR", cfg.IndexDir)
	cfg.CatalogPath = envOr("CATALOG_PATH", cfg.CatalogPath)

	cfg.MarkerBinary = envOr("MARKER_BINARY", cfg.MarkerBinary)
	cfg.MarkerWorkers = envInt("MARKER_WORKERS", cfg.MarkerWorkers)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentConvert = envInt("MAX_CONCURRENT_CONVERT", cfg.MaxConcurrentConvert)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.StatsAge = envDuration("STATS_AGE", cfg.StatsAge)
	cfg.ValidateSchema = envBool("VALIDATE_SCHEMA", cfg.ValidateSchema)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	d := defaults()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.MarkerWorkers <= 0 {
		c.MarkerWorkers = d.MarkerWorkers
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxConcurrentConvert <= 0 {
		c.MaxConcurrentConvert = d.MaxConcurrentConvert
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.StatsAge <= 0 {
		c.StatsAge = d.StatsAge
	}

	derive := func(field *string, elem ...string) {
		if *field == "" {
			*field = filepath.Join(elem...)
		}
	}
	derive(&c.InputPDFDir, c.DataDir, "input_pdfs")
	derive(&c.CompletedDir, c.DataDir, "completed")
	derive(&c.RejectedDir, c.DataDir, "rejected")
	derive(&c.OutputDir, c.DataDir, "output")
	derive(&c.MarkerJSONDir, c.OutputDir, "marker_json")
	derive(&c.InputJSONDir, c.OutputDir, "output_json")
	derive(&c.SchemaDir, c.OutputDir, "output_schema")
	derive(&c.ChunkDir, c.OutputDir, "output_json_chunk")
	derive(&c.ScopeDir, c.OutputDir, "scope")
	derive(&c.IndexDir, c.OutputDir, "search_index")
	derive(&c.CatalogPath, c.OutputDir, "catalog.db")
}

// Level maps LogLevel to a slog level. Unknown names fall back to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("CLAUSEGEST_API_KEY is required")
	}
	if c.MarkerBinary == "" {
		return fmt.Errorf("MARKER_BINARY must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
