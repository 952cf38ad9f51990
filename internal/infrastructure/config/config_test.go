package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "SESSION_TTL_MINUTES", "MAX_UPLOAD_MB", "CORS_ORIGINS", "MONGODB_DSN", "DATABASE_URL", "GMAIL_REFRESH_TOKEN"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.MaxUploadBytes != 25<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"*"}) {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.MongoEnabled() || cfg.SQLEnabled() || cfg.GmailEnabled() {
		t.Error("optional backends enabled without configuration")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("EXTRACT_WORKERS", "not-a-number")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "mysql://u:p@localhost:3306/vouchers")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
	if cfg.ExtractWorkers != 4 {
		t.Errorf("ExtractWorkers = %d, want fallback 4", cfg.ExtractWorkers)
	}
	if !cfg.SQLEnabled() {
		t.Error("SQLEnabled = false")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		SessionTTL:     time.Minute,
		ConvertLimit:   time.Second,
		MaxUploadBytes: 1,
		ExtractWorkers: 1,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL_MINUTES"},
		{"negative upload", func(c *Config) { c.MaxUploadBytes = -1 }, "MAX_UPLOAD_MB"},
		{"bad driver", func(c *Config) { c.DatabaseURL = "x"; c.DatabaseDriver = "sqlite" }, "DATABASE_DRIVER"},
		{"driver ignored without url", func(c *Config) { c.DatabaseDriver = "sqlite" }, ""},
		{"gmail zero poll interval", func(c *Config) { enableGmail(c); c.GmailPollInterval = 0 }, "GMAIL_POLL_INTERVAL"},
		{"gmail poll interval", func(c *Config) { enableGmail(c); c.GmailPollInterval = time.Minute }, ""},
		{"poll interval ignored without gmail", func(c *Config) { c.GmailPollInterval = 0 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func enableGmail(c *Config) {
	c.GmailClientID, c.GmailClientSecret, c.GmailRefreshToken = "id", "secret", "refresh"
}

func TestLoadConfigRejectsZeroPollInterval(t *testing.T) {
	t.Setenv("GMAIL_CLIENT_ID", "id")
	t.Setenv("GMAIL_CLIENT_SECRET", "secret")
	t.Setenv("GMAIL_REFRESH_TOKEN", "refresh")
	t.Setenv("GMAIL_POLL_INTERVAL", "0")

	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "GMAIL_POLL_INTERVAL") {
		t.Errorf("LoadConfig err = %v, want GMAIL_POLL_INTERVAL rejection", err)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	err := (&Config{}).Validate()
	if err == nil {
		t.Fatal("empty config validated")
	}
	for _, key := range []string{"SESSION_TTL_MINUTES", "CONVERT_TIMEOUT_SECONDS", "MAX_UPLOAD_MB", "EXTRACT_WORKERS"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q misses %s", err, key)
		}
	}
}
