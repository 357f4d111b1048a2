package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cart-sync-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCartClient_FetchCart verifies the read path and session header
func TestCartClient_FetchCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/cart", r.URL.Path)
		assert.Equal(t, "tok-alice", r.Header.Get("X-Session-Token"))

		json.NewEncoder(w).Encode(models.CartResponse{
			Success: true,
			Cart: &models.CartSnapshot{
				Items:     []models.CartLineItem{{ProductID: "P1", VariantKey: "P1_0_M", Quantity: 2, UnitPrice: 100}},
				Total:     200,
				ItemCount: 2,
			},
		})
	}))
	defer server.Close()

	c := NewCartClient(server.URL, "tok-alice", slog.Default())
	snapshot, err := c.FetchCart(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.ItemCount)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "P1_0_M", snapshot.Items[0].VariantKey)
}

// TestCartClient_FetchCartEmptyResponse verifies a successful response
// without a cart payload degrades to an empty snapshot
func TestCartClient_FetchCartEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.CartResponse{Success: true})
	}))
	defer server.Close()

	c := NewCartClient(server.URL, "tok-alice", slog.Default())
	snapshot, err := c.FetchCart(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snapshot.Items)
	assert.Equal(t, 0, snapshot.ItemCount)
}

// TestCartClient_SaveCart verifies the write path sends the payload and
// returns the server-recomputed snapshot
func TestCartClient_SaveCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.SaveCartRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "periodic_sync", req.Operation)
		assert.Len(t, req.Items, 1)

		json.NewEncoder(w).Encode(models.CartResponse{
			Success: true,
			Cart:    &models.CartSnapshot{Items: req.Items, Total: 270, ItemCount: 3},
		})
	}))
	defer server.Close()

	c := NewCartClient(server.URL, "tok-alice", slog.Default())
	snapshot, err := c.SaveCart(context.Background(),
		[]models.CartLineItem{{ProductID: "P1", VariantKey: "P1_0_M", Quantity: 3, UnitPrice: 100, DiscountPercent: 10}},
		"periodic_sync")

	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.ItemCount)
	assert.InDelta(t, 270.0, snapshot.Total, 0.0001)
}

// TestCartClient_SaveCartServiceUnavailable verifies a retryable server
// failure comes back as an error
func TestCartClient_SaveCartServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(models.CartResponse{
			Success: false,
			Message: "Cart storage temporarily unavailable, please retry",
		})
	}))
	defer server.Close()

	c := NewCartClient(server.URL, "tok-alice", slog.Default())
	_, err := c.SaveCart(context.Background(), nil, "periodic_sync")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

// TestCartClient_SaveCartBestEffort verifies the fire-and-forget push
// eventually reaches the server without blocking the caller
func TestCartClient_SaveCartBestEffort(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		json.NewEncoder(w).Encode(models.CartResponse{Success: true, Cart: models.EmptyCartSnapshot()})
	}))
	defer server.Close()

	c := NewCartClient(server.URL, "tok-alice", slog.Default())
	c.SaveCartBestEffort([]models.CartLineItem{{ProductID: "P1", VariantKey: "P1_0_M", Quantity: 1, UnitPrice: 10}}, "unload_sync")

	assert.Eventually(t, func() bool {
		return received.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

// TestCartClient_NetworkFailure verifies connection errors are wrapped,
// not panics
func TestCartClient_NetworkFailure(t *testing.T) {
	c := NewCartClient("http://127.0.0.1:1", "tok-alice", slog.Default())

	_, err := c.FetchCart(context.Background())
	require.Error(t, err)

	_, err = c.SaveCart(context.Background(), nil, "periodic_sync")
	require.Error(t, err)
}
