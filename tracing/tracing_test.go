package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/fault"
)

func TestStartOperation(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.txt")
	require.NoError(t, Init("guaranty", "0.0.1", fname))
	defer Shutdown(context.Background())

	_, span := StartOperation(context.Background(), "ApprovePolicy", "staff")
	span.SetPolicy("p1", "PENDING_APPROVAL")
	span.End(fault.ErrActorsNotApproved.With("tenant pending"))

	_, span = StartOperation(context.Background(), "Cancel", "staff")
	span.End(errors.New("disk full"))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lifecycle.ApprovePolicy")
	assert.Contains(t, string(data), "policy.id")
	assert.Contains(t, string(data), "ACTORS_NOT_APPROVED")
	assert.Contains(t, string(data), "lifecycle.Cancel")
}

func TestNilSpan(t *testing.T) {
	var span *Span
	assert.NotPanics(t, func() {
		span.SetAttribute("k", "v")
		span.SetPolicy("p1", "DRAFT")
		span.End(nil)
	})
}
