package objectstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	t.Parallel()

	key, err := ObjectKey("products", "image/PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "products/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	_, err = ObjectKey("products", "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestMemoryUpload(t *testing.T) {
	t.Parallel()

	var m Memory
	url, err := m.Upload(context.Background(), "avatars", "image/jpeg", strings.NewReader("jpg-bytes"), 9)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/images/avatars/"))
	assert.Len(t, m.Objects, 1)
}
