package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NLI_SERVER_URL", "http://nli.test:9000")
	t.Setenv("NLI_PING_TIMEOUT", "250ms")
	t.Setenv("NLI_REFRESH_DELAY", "1500")

	cfg := Load()

	assert.Equal(t, "http://nli.test:9000", cfg.Nli.ServerURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Nli.PingTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Nli.RefreshDelay)
	assert.Equal(t, 30*time.Second, cfg.Nli.RequestTimeout)
	assert.Equal(t, "memory", cfg.Store.HistoryStore)
}

func TestGetEnvAsDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_DELAY", "soon")
	assert.Equal(t, 2*time.Second, getEnvAsDuration("SOME_DELAY", 2*time.Second))
}

func TestLoad_Otel(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")

	cfg := Load()

	assert.True(t, cfg.Otel.Enabled)
	assert.Equal(t, 0.25, cfg.Otel.SampleRatio)
	assert.Equal(t, "uml-nli-be", cfg.Otel.ServiceName)
}
