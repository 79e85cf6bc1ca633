package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestIntoContext_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn").With("service", "order")
	ctx := IntoContext(context.Background(), l)

	FromContext(ctx).Info("dropped")
	FromContext(ctx).Warn("cancel_order_error", "status", 409)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "cancel_order_error", rec["msg"])
	assert.Equal(t, "order", rec["service"])
	assert.EqualValues(t, 409, rec["status"])
}
