package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLAUSEGEST_CONFIG", "")
	t.Setenv("DATA_DIR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"port", cfg.Port, "8090"},
		{"input pdfs", cfg.InputPDFDir, filepath.Join("data", "input_pdfs")},
		{"completed", cfg.CompletedDir, filepath.Join("data", "completed")},
		{"marker json", cfg.MarkerJSONDir, filepath.Join("data", "output", "marker_json")},
		{"input json", cfg.InputJSONDir, filepath.Join("data", "output", "output_json")},
		{"schema", cfg.SchemaDir, filepath.Join("data", "output", "output_schema")},
		{"chunks", cfg.ChunkDir, filepath.Join("data", "output", "output_json_chunk")},
		{"scope", cfg.ScopeDir, filepath.Join("data", "output", "scope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.got)
			}
		})
	}
	if cfg.MarkerWorkers != 1 {
		t.Errorf("expected 1 marker worker, got %d", cfg.MarkerWorkers)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clausegest.yaml")
	yaml := "data_dir: /srv/standards\nworker_count: 8\njob_ttl: 30m\nschema_dir: /srv/schemas\nvalidate_schema: false\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CLAUSEGEST_CONFIG", path)
	t.Setenv("WORKER_COUNT", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected env to override file, got %d workers", cfg.WorkerCount)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("expected 30m ttl, got %v", cfg.JobTTL)
	}
	if cfg.SchemaDir != "/srv/schemas" {
		t.Errorf("expected explicit schema dir, got %q", cfg.SchemaDir)
	}
	if cfg.ChunkDir != filepath.Join("/srv/standards", "output", "output_json_chunk") {
		t.Errorf("expected chunk dir derived from data dir, got %q", cfg.ChunkDir)
	}
	if cfg.ValidateSchema {
		t.Error("expected schema validation disabled by file")
	}
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("worker_count: [not, a, number]"), 0o644)
	t.Setenv("CLAUSEGEST_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestNonPositiveValuesFallBack(t *testing.T) {
	t.Setenv("CLAUSEGEST_CONFIG", "")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("JOB_TTL", "-1s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected default worker count, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected default ttl, got %v", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing api key error")
	}
	cfg.APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := (Config{LogLevel: tt.in}).Level(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
