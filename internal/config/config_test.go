package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreComplete(t *testing.T) {
	cfg := Default()
	if cfg.DebounceWindow().Milliseconds() != 2000 {
		t.Fatalf("unexpected debounce window: %v", cfg.DebounceWindow())
	}
	if cfg.PatternConfig().MinTurns != 10 {
		t.Fatalf("unexpected min turns: %d", cfg.PatternConfig().MinTurns)
	}
	if cfg.AnalyzerConfig().LookbackDays != 90 {
		t.Fatalf("unexpected lookback: %d", cfg.AnalyzerConfig().LookbackDays)
	}
	if cfg.InterveneConfig().Trust.LowBandCeiling != 40 {
		t.Fatalf("trust config not threaded into interventions")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	body := []byte(`
db_path: /tmp/other.db
debounce_ms: 500
classifier:
  min_turns: 4
evolution:
  lookback_days: 30
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Fatalf("db_path not applied: %s", cfg.DBPath)
	}
	if cfg.DebounceMs != 500 {
		t.Fatalf("debounce not applied: %d", cfg.DebounceMs)
	}
	if cfg.Classifier.MinTurns != 4 {
		t.Fatalf("nested override not applied: %d", cfg.Classifier.MinTurns)
	}
	if cfg.Evolution.LookbackDays != 30 {
		t.Fatalf("evolution override not applied: %d", cfg.Evolution.LookbackDays)
	}
	// Untouched keys keep defaults.
	if cfg.ClassifierAddr != "http://localhost:5002" {
		t.Fatalf("default classifier addr lost: %s", cfg.ClassifierAddr)
	}
}

func TestEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	if err := os.WriteFile(path, []byte("db_path: from-file.db\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SENTINEL_DB", "from-env.db")
	t.Setenv("SENTINEL_CLASSIFIER_ADDR", "http://classifier:9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "from-env.db" {
		t.Fatalf("env override lost: %s", cfg.DBPath)
	}
	if cfg.ClassifierAddr != "http://classifier:9999" {
		t.Fatalf("env addr lost: %s", cfg.ClassifierAddr)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("nonexistent.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
