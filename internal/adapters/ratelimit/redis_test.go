package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_normalized(t *testing.T) {
	c := Config{}.normalized()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, time.Second, c.RefillInterval)
	assert.Equal(t, 5*time.Second, c.TTL)
	assert.Equal(t, "rl", c.Prefix)

	c = Config{Capacity: 30, RefillTokens: 2, RefillInterval: time.Minute, TTL: time.Hour, Prefix: "gate"}.normalized()
	assert.Equal(t, 30, c.Capacity)
	assert.Equal(t, time.Hour, c.TTL)
	assert.Equal(t, "gate", c.Prefix)
}

func TestDecision_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		retry time.Duration
		want  string
	}{
		{0, "0"},
		{time.Millisecond, "1"},
		{time.Second, "1"},
		{1500 * time.Millisecond, "2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decision{RetryAfter: tt.retry}.RetryAfterSeconds())
	}
}

func TestAllowAll(t *testing.T) {
	d, err := NewAllowAll().Allow(context.Background(), "any")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	assert.Nil(t, NewRedisClient(context.Background(), "", "", 0))
}
