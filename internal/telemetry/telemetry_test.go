package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marwan116/structured-output-llm/config"
)

func TestInitDisabledReturnsNoop(t *testing.T) {
	providers, err := Init(config.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, providers)

	// Noop providers shut down cleanly.
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestShutdownNilProviders(t *testing.T) {
	var providers *Providers
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestBuildVersion(t *testing.T) {
	assert.NotEmpty(t, buildVersion())
}
