package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCmd_JoinsArgs(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analyze", "Does", "the", "policy", "cover", "surgery?")

	require.NoError(t, err)
	assert.Equal(t, "Does the policy cover surgery?", ts.retrieval.lastQuestion)
	assert.Contains(t, out, "Complexity: simple")
	assert.Contains(t, out, "Keywords:   coverage, medical")
}

func TestAnalyzeCmd_Domain(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "analyze", "--domain", "legal", "Who is liable?")

	require.NoError(t, err)
	assert.Equal(t, "legal", ts.retrieval.lastStrategy)
}

func TestAnalyzeCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "analyze", "--json", "Is dental covered?")

	require.NoError(t, err)
	var got struct {
		Question   string   `json:"question"`
		Complexity string   `json:"complexity"`
		Keywords   []string `json:"keywords"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Is dental covered?", got.Question)
	assert.Equal(t, "simple", got.Complexity)
	assert.Equal(t, []string{"coverage", "medical"}, got.Keywords)
}

func TestAnalyzeCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.retrieval.err = errBoom

	_, err := execute(t, "analyze", "Anything?")

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "analysis failed")
}
