package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Producer.Interval != 5*time.Second {
		t.Errorf("producer interval = %v, want 5s", cfg.Producer.Interval)
	}
	if len(cfg.Producer.Assets) != 1 || cfg.Producer.Assets[0] != "BTC" {
		t.Errorf("assets = %v, want [BTC]", cfg.Producer.Assets)
	}
	if cfg.Producer.PriceMin != 40000 || cfg.Producer.PriceMax != 45000 {
		t.Errorf("price range = %v..%v, want 40000..45000", cfg.Producer.PriceMin, cfg.Producer.PriceMax)
	}
	if cfg.Stream.Interval != 5*time.Second {
		t.Errorf("stream interval = %v, want 5s", cfg.Stream.Interval)
	}
	if cfg.Analytics.Window != 10 {
		t.Errorf("window = %d, want 10", cfg.Analytics.Window)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadMissingEnvironment(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9999\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing environment")
	}
}

func TestLoadInvalidPriceRange(t *testing.T) {
	path := writeConfig(t, `
environment: test
producer:
  enabled: true
  price_min: 100
  price_max: 50
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for inverted price range")
	}
}

func TestLoadKafkaRequiresBrokers(t *testing.T) {
	path := writeConfig(t, `
environment: test
kafka:
  enabled: true
  topic: ticks
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	t.Setenv("ASSETS", "ETH,SOL")
	t.Setenv("SUMMARIZER_URL", "http://summarizer:9000")

	cfg, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(cfg.Producer.Assets) != 2 || cfg.Producer.Assets[0] != "ETH" {
		t.Errorf("assets = %v, want [ETH SOL]", cfg.Producer.Assets)
	}
	if cfg.Analytics.Summarizer.URL != "http://summarizer:9000" {
		t.Errorf("summarizer url = %q", cfg.Analytics.Summarizer.URL)
	}
}
