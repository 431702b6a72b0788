// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://qa:qa@localhost:5432/qa")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENVIRONMENT", "development")
}

func TestLoadLayersDefaultsFileAndEnv(t *testing.T) {
	requiredEnv(t)
	t.Setenv("NEWSLETTER_CONCURRENCY", "8")

	path := writeYAML(t, `
app:
  name: Forum Under Test
newsletter:
  concurrency: 2
rate_limit:
  vote_requests: 15
`)

	c, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.App.Name != "Forum Under Test" {
		t.Errorf("app.name = %q, file value lost", c.App.Name)
	}
	if c.Newsletter.Concurrency != 8 {
		t.Errorf("newsletter.concurrency = %d, env should win over file", c.Newsletter.Concurrency)
	}
	if c.RateLimit.VoteRequests != 15 {
		t.Errorf("rate_limit.vote_requests = %d", c.RateLimit.VoteRequests)
	}
	if c.Auth.TokenCleanupInterval != time.Hour {
		t.Errorf("auth.token_cleanup_interval = %v, want default 1h", c.Auth.TokenCleanupInterval)
	}
	if c.Database.ConnectAttempts != 5 {
		t.Errorf("database.connect_attempts = %d, want default 5", c.Database.ConnectAttempts)
	}
	if c.IsProduction() {
		t.Error("development config reported as production")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing database",
			env:  map[string]string{"DATABASE_URL": ""},
			want: "DATABASE_URL",
		},
		{
			name: "generated keys in production",
			env: map[string]string{
				"ENVIRONMENT":          "production",
				"JWT_GENERATE_MISSING": "true",
			},
			want: "JWT_GENERATE_MISSING",
		},
		{
			name: "zero newsletter workers",
			env:  map[string]string{"NEWSLETTER_CONCURRENCY": "0"},
			want: "newsletter.concurrency",
		},
		{
			name: "smtp without sender",
			env:  map[string]string{"SMTP_HOST": "smtp.example.com", "MAIL_FROM": ""},
			want: "MAIL_FROM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
