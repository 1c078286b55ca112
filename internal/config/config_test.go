package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurOrFallsBackToDefault(t *testing.T) {
	assert.Equal(t, 30*time.Minute, durOr("HOLD_TTL_UNSET_FOR_TEST", 30*time.Minute))

	t.Setenv("HOLD_TTL_SET_FOR_TEST", "45m")
	assert.Equal(t, 45*time.Minute, durOr("HOLD_TTL_SET_FOR_TEST", 30*time.Minute))
}

func TestRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 60, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	// TTL never drops below five refill intervals.
	assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestRateLimitConfigClampsBadValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}
