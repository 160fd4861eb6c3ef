package gemini

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_GEMINI_KEY"})
	require.Error(t, err)
}

func TestNewClient_BuildsOnceWithDefaultModel(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "fake-key")
	c, err := NewClient(Config{APIKeyEnv: "TEST_GEMINI_KEY"})
	require.NoError(t, err)
	require.NotNil(t, c.client)
	require.Equal(t, "gemini-embedding-001", c.ModelName())

	c, err = NewClient(Config{APIKeyEnv: "TEST_GEMINI_KEY", Model: "custom-embed"})
	require.NoError(t, err)
	require.Equal(t, "custom-embed", c.ModelName())
}
