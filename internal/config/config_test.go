package config

import (
	"testing"
	"time"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		JWTSecret:   "dev-secret-for-testing",
		CORSOrigins: []string{"http://localhost:3000"},
		Monitor: MonitorConfig{
			ProbeInterval:  time.Minute,
			FlushBatchSize: 100,
		},
		Alert: AlertConfig{
			ErrorRateThreshold: 5,
			UptimeThreshold:    90,
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "development",
			JWTSecret:   "dev-secret-for-testing",
			CORSOrigins: []string{"http://localhost:3000"},
			Monitor: MonitorConfig{
				ProbeInterval:  time.Minute,
				FlushBatchSize: 100,
			},
			Alert: AlertConfig{
				ErrorRateThreshold: 5,
				UptimeThreshold:    90,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no cors origins", func(c *Config) { c.CORSOrigins = nil }},
		{"probe interval too small", func(c *Config) { c.Monitor.ProbeInterval = 100 * time.Millisecond }},
		{"zero batch size", func(c *Config) { c.Monitor.FlushBatchSize = 0 }},
		{"error threshold out of range", func(c *Config) { c.Alert.ErrorRateThreshold = 150 }},
		{"uptime threshold negative", func(c *Config) { c.Alert.UptimeThreshold = -1 }},
		{"short secret in production", func(c *Config) { c.Environment = "production"; c.JWTSecret = "short" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Fatalf("want 90s, got %v", got)
	}
	if got := getEnvDuration("TEST_DURATION_MISSING", time.Minute); got != time.Minute {
		t.Fatalf("want fallback 1m, got %v", got)
	}
	t.Setenv("TEST_DURATION", "not-a-duration")
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != time.Minute {
		t.Fatalf("want fallback on parse error, got %v", got)
	}
}
