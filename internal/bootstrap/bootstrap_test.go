package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/audit-engine/internal/config"
	"github.com/jonesrussell/audit-engine/internal/logging"
)

func TestBuild_RequiresSynthesisKey(t *testing.T) {
	cfg := &config.Config{}

	_, err := Build(cfg, logging.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYNTHESIS_API_KEY")
}

func TestBuild_RefusesUnprotectedAdminRoutes(t *testing.T) {
	cfg := &config.Config{}
	cfg.Models.Synthesis.APIKey = "key"
	cfg.Service.Debug = false

	_, err := Build(cfg, logging.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}
