package tests

import (
	"testing"
	"time"

	"dispatch/internal/config"
)

func TestConfig_IdempotencyTTL(t *testing.T) {
	cfg := config.Load()
	if cfg.Server.IdempotencyTTL != 24*time.Hour {
		t.Errorf("expected default TTL 24h, got %v", cfg.Server.IdempotencyTTL)
	}

	t.Setenv("IDEMPOTENCY_TTL", "1h")

	cfg = config.Load()
	if cfg.Server.IdempotencyTTL != time.Hour {
		t.Errorf("expected TTL 1h from environment, got %v", cfg.Server.IdempotencyTTL)
	}
}
