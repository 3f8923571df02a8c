package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDuration(t *testing.T) {
	t.Setenv("TEST_TTL", "30m")
	assert.Equal(t, 30*time.Minute, getDuration("TEST_TTL", time.Hour))

	t.Setenv("TEST_TTL", "bogus")
	assert.Equal(t, time.Hour, getDuration("TEST_TTL", time.Hour))

	assert.Equal(t, time.Hour, getDuration("TEST_TTL_UNSET", time.Hour))
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, time.Hour, cfg.UploadGrantTTL)
	assert.False(t, cfg.IsProduction())
}
