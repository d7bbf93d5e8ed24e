package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(EnvMap{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected http addr %q", cfg.HTTPAddr)
	}
	if cfg.FetchTimeout != 15*time.Second || cfg.ResolveTimeout != 90*time.Second {
		t.Errorf("unexpected timeouts %v %v", cfg.FetchTimeout, cfg.ResolveTimeout)
	}
	if cfg.FetchRetries != 2 || cfg.RetryBackoff != 250*time.Millisecond {
		t.Errorf("unexpected retry settings %d %v", cfg.FetchRetries, cfg.RetryBackoff)
	}
	if cfg.ResolveMode != "sequential" || cfg.HistorySize != 50 {
		t.Errorf("unexpected mode/history %q %d", cfg.ResolveMode, cfg.HistorySize)
	}
	if cfg.RedisAddr != "" || cfg.KafkaBrokers != nil || cfg.HistoryDB != "" {
		t.Errorf("optional stores should be disabled by default")
	}
	if cfg.KafkaTopic != "aavetx-lookups" || cfg.KafkaGroupID != "aavetx-events" {
		t.Errorf("unexpected kafka topic/group %q %q", cfg.KafkaTopic, cfg.KafkaGroupID)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(EnvMap{
		"HTTP_ADDR":            "127.0.0.1:9000",
		"FETCH_TIMEOUT":        "3s",
		"RESOLVE_MODE":         "Parallel",
		"REDIS_ADDR":           " localhost:6379 ",
		"KAFKA_BROKERS":        "a:9092, b:9092,",
		"CORS_ALLOWED_ORIGINS": "https://example.org",
		"CORS_DEBUG":           "true",
		"HISTORY_DSN":          "user:pw@tcp(db:3306)/aavetx",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.FetchTimeout != 3*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.ResolveMode != "parallel" {
		t.Errorf("expected parallel, got %q", cfg.ResolveMode)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected trimmed redis addr, got %q", cfg.RedisAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if !cfg.CORSDebug || cfg.CORSOrigins[0] != "https://example.org" {
		t.Errorf("unexpected cors config %v %v", cfg.CORSOrigins, cfg.CORSDebug)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []EnvMap{
		{"FETCH_TIMEOUT": "soon"},
		{"RESOLVE_TIMEOUT": "-1s"},
		{"FETCH_RETRIES": "-2"},
		{"RESOLVE_MODE": "random"},
		{"HISTORY_SIZE": "0"},
		{"CORS_DEBUG": "maybe"},
		{"KAFKA_BROKERS": ", ,"},
	}
	for _, env := range cases {
		if _, err := Load(env); err == nil {
			t.Errorf("expected error for %v", env)
		}
	}
	if _, err := Load(nil); err == nil {
		t.Errorf("expected error for nil source")
	}
}
