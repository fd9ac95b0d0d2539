package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadWindows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MACDFast = 30
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for macd fast >= slow")
	}

	cfg = DefaultConfig()
	cfg.RSIOversold = 80
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for crossed rsi cutoffs")
	}

	cfg = DefaultConfig()
	cfg.SMAWindows = []int{20, 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero sma window")
	}
}

func TestMaxLookback(t *testing.T) {
	cfg := DefaultConfig()
	// SMA 60 beats bollinger 20, rsi 15 and macd 35
	if got := cfg.MaxLookback(); got != 60 {
		t.Errorf("MaxLookback = %d, want 60", got)
	}

	cfg.SMAWindows = []int{5}
	if got := cfg.MaxLookback(); got != cfg.MACDSlow+cfg.MACDSignal {
		t.Errorf("MaxLookback = %d, want %d", got, cfg.MACDSlow+cfg.MACDSignal)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("STOCKLENS_BACKEND", "deepseek")
	t.Setenv("STOCKLENS_BACKEND_TIMEOUT", "5s")
	t.Setenv("STOCKLENS_RESULTS_DIR", "/tmp/lens-results")

	cfg := LoadFromEnv()
	if cfg.ScoringBackend != "deepseek" {
		t.Errorf("ScoringBackend = %q, want deepseek", cfg.ScoringBackend)
	}
	if cfg.BackendTimeout != 5*time.Second {
		t.Errorf("BackendTimeout = %v, want 5s", cfg.BackendTimeout)
	}
	if cfg.ResultsDir != "/tmp/lens-results" {
		t.Errorf("ResultsDir = %q", cfg.ResultsDir)
	}
}

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	cfg := mgr.Get()
	cfg.ScoringBackend = "openai"
	cfg.RSIOverbought = 75

	data, _ := json.Marshal(cfg)
	if err := mgr.UpdateFromJSON(string(data)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}

	updated := mgr.Get()
	if updated.ScoringBackend != "openai" || updated.RSIOverbought != 75 {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.MACDFast = cfg.MACDSlow
	if err := mgr.Update(cfg); err == nil {
		t.Error("expected invalid config to be rejected")
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.ScoringBackend = "deepseek"
	data, _ := json.MarshalIndent(cfg, "", "  ")
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	select {
	case got := <-reloaded:
		if got.ScoringBackend != "deepseek" {
			t.Errorf("reloaded backend = %q, want deepseek", got.ScoringBackend)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not reload the external edit")
	}
}
