package backoffx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Delay(t *testing.T) {
	p := Policy{Base: time.Second, Max: 10 * time.Second}

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 0},
		{-3, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{60, 10 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.attempts), "attempts=%d", tt.attempts)
	}
}

func TestPolicy_ZeroUsesDefault(t *testing.T) {
	var p Policy
	assert.Equal(t, Default.Base, p.Delay(1))
	assert.Equal(t, Default.Max, p.Delay(1000))
}

func TestPolicy_MaxBelowBase(t *testing.T) {
	p := Policy{Base: time.Minute, Max: time.Second}
	assert.Equal(t, time.Minute, p.Delay(3))
}

func TestPolicy_NextAttempt(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Policy{Base: time.Second, Max: time.Minute}
	assert.Equal(t, now.Add(4*time.Second), p.NextAttempt(now, 3))
	assert.Equal(t, now, p.NextAttempt(now, 0))
}
