package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
)

func TestHTTPClientTransferFrom(t *testing.T) {
	var got transferRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transfer-from", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(transferResponse{OK: true})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, time.Second, logger.Noop())
	result := client.TransferFrom(context.Background(), "alice", "pool", 100)

	assert.Equal(t, outbound.TransferOK, result.Status)
	assert.Equal(t, "alice", got.From)
	assert.Equal(t, "pool", got.To)
	assert.Equal(t, int64(100), got.Amount)
}

func TestHTTPClientTransferRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transfer", r.URL.Path)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(transferResponse{OK: false, Reason: "insufficient allowance"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, time.Second, logger.Noop())
	result := client.Transfer(context.Background(), "alice", 100)

	assert.Equal(t, outbound.TransferRejected, result.Status)
	assert.Equal(t, "insufficient allowance", result.Reason)
}

func TestHTTPClientUnreachableBridge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewHTTPClient(server.URL, time.Second, logger.Noop())
	result := client.TransferFrom(context.Background(), "alice", "pool", 100)

	assert.Equal(t, outbound.TransferUnreachable, result.Status)
}

func TestHTTPClientBalanceOf(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/balance/pool", r.URL.Path)
		json.NewEncoder(w).Encode(balanceResponse{Address: "pool", Amount: 1500})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, time.Second, logger.Noop())
	amount, err := client.BalanceOf(context.Background(), "pool")

	require.NoError(t, err)
	assert.Equal(t, int64(1500), amount)
}

func TestMockClientMovesBalances(t *testing.T) {
	client := NewMockClient()
	client.SetBalance("alice", 100)

	result := client.TransferFrom(context.Background(), "alice", "pool", 60)
	assert.Equal(t, outbound.TransferOK, result.Status)

	held, err := client.BalanceOf(context.Background(), "pool")
	require.NoError(t, err)
	assert.Equal(t, int64(60), held)

	result = client.TransferFrom(context.Background(), "alice", "pool", 60)
	assert.Equal(t, outbound.TransferRejected, result.Status)

	client.Unreachable(true)
	result = client.Transfer(context.Background(), "alice", 10)
	assert.Equal(t, outbound.TransferUnreachable, result.Status)
}
