package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jobminer")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.BodyTruncateLength != 1000 {
		t.Fatalf("BodyTruncateLength = %d, want 1000", cfg.BodyTruncateLength)
	}
	if cfg.FetchWindowHours != 24 || cfg.FetchPageSize != 50 {
		t.Fatalf("fetch defaults = %d/%d, want 24/50", cfg.FetchWindowHours, cfg.FetchPageSize)
	}
	if cfg.MaxConcurrent != 5 {
		t.Fatalf("MaxConcurrent = %d, want 5", cfg.MaxConcurrent)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error without DATABASE_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/jobminer")
	t.Setenv("BODY_TRUNCATE_LENGTH", "500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.BodyTruncateLength != 500 {
		t.Fatalf("BodyTruncateLength = %d, want 500", cfg.BodyTruncateLength)
	}
}
