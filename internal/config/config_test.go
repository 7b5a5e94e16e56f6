package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaultsFromEnv(t *testing.T) {
	t.Setenv("BASE_URL", "https://cms.example.com")
	t.Setenv("INSTANCE", "staging")
	t.Setenv("AUTH_USER", "editor")
	t.Setenv("AUTH_PASSWORD", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://cms.example.com/" {
		t.Fatalf("base url not normalized: %q", cfg.BaseURL)
	}
	if cfg.SyncInterval != 900*time.Second {
		t.Fatalf("unexpected sync interval %v", cfg.SyncInterval)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected request timeout %v", cfg.RequestTimeout)
	}

	c := cfg.CMS()
	if c.Instance != "staging" || c.AuthUser != "editor" || c.AuthPassword != "s3cret" {
		t.Fatalf("unexpected cms config %+v", c)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without base_url")
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("BASE_URL", "https://cms.example.com/")
	t.Setenv("SYNC_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero sync interval")
	}
}

func TestRedactedMasksPassword(t *testing.T) {
	cfg := Config{AuthUser: "u", AuthPassword: "p"}
	red := cfg.Redacted()
	if red.AuthPassword != redactedValue {
		t.Fatalf("password not masked: %q", red.AuthPassword)
	}
	if cfg.AuthPassword != "p" {
		t.Fatalf("original config mutated")
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("BASE_URL", "https://env.example.com")
	t.Setenv("INSTANCE", "staging")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("base-url", "", "")
	fs.String("instance", "", "")
	fs.String("unrelated", "", "")
	if err := fs.Parse([]string{"--base-url", "https://flag.example.com"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(WithFlags(fs))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://flag.example.com/" {
		t.Fatalf("flag did not override env: %q", cfg.BaseURL)
	}
	if cfg.Instance != "staging" {
		t.Fatalf("unset flag should not mask env, got %q", cfg.Instance)
	}
}
