package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/w-datascientist/arbovirose/internal/config"
)

func TestRetryConfig_RetriesAfterFirstAttempt(t *testing.T) {
	tests := []struct {
		retries  int
		attempts int
	}{
		{3, 4},
		{0, 1},
		{-2, 1},
	}
	for _, tt := range tests {
		rc := retryConfig(config.InfoDengueConfig{MaxRetries: tt.retries})
		assert.Equal(t, tt.attempts, rc.MaxAttempts, "max_retries=%d", tt.retries)
	}
}
