package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Handle(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	err := r.Handle("Failed resources", sampleResult().Failed())

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "=== Failed resources (1) ===")
	assert.Contains(t, out, "ManagedCluster")
	assert.Contains(t, out, "CannotBeStopped")
	assert.Equal(t, 3, strings.Count(out, "\n+-"))
}

func TestReporter_Handle_EmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewReporter(&buf).Handle("Exempt", nil))
	assert.Empty(t, buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "ab", truncate("abcdefgh", 2))
}
