package config

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		text string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"45", 45 * time.Second}, // missing suffix defaults to seconds
		{" 10m ", 10 * time.Minute},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, err := ParseDuration(tc.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, text := range []string{"", "m", "10d", "ten", "1h30m", "-5s"} {
		t.Run(text, func(t *testing.T) {
			if _, err := ParseDuration(text); err == nil {
				t.Errorf("expected error for %q", text)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncUsersEvery != 15*time.Minute {
		t.Errorf("expected default sync interval 15m, got %v", cfg.SyncUsersEvery)
	}
	if cfg.BatchSize != 20 {
		t.Errorf("expected default batch size 20, got %d", cfg.BatchSize)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.RequestTimeout)
	}
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-positive batch size")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SYNC_USERS_EVERY", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid schedule duration")
	}
}
