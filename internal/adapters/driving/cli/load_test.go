package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func TestLoadCmd_PrintsSummaries(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "load", "a.pdf", "b.pdf")

	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, ts.documents.loaded)
	assert.Empty(t, ts.documents.refreshed)
	assert.Contains(t, out, "Health Policy")
	assert.Contains(t, out, "Chunks:      42")
	assert.Contains(t, out, "Model:       hashing-v1 (512 dimensions)")
	assert.Contains(t, out, "Fingerprint: abc123")
}

func TestLoadCmd_Refresh(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "load", "--refresh", "a.pdf")

	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, ts.documents.refreshed)
	assert.Empty(t, ts.documents.loaded)
}

func TestLoadCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.err = domain.ErrUnsupportedType

	_, err := execute(t, "load", "image.png")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "loading image.png")
}

func TestLoadCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	_, err := execute(t, "load", "a.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document service not configured")
}
