package catalogclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProduct(t *testing.T) {
	t.Parallel()

	known := uuid.MustParse("5f0b0c9a-1a4e-4d7c-9a57-7f1c2b2b0a01")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog/products/" + known.String():
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"` + known.String() + `","name":"Taro","category":"Frappé","price":"65","stock":5,"available":true}`))
		case "/catalog/products/" + uuid.Nil.String():
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL + "/")

	p, err := c.GetProduct(context.Background(), known)
	require.NoError(t, err)
	assert.Equal(t, "Taro", p.Name)
	assert.True(t, decimal.NewFromInt(65).Equal(p.Price))
	assert.Equal(t, 5, p.Stock)

	_, err = c.GetProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetProduct(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
