package token

import (
	"context"
	"sync"

	"github.com/commitpool/commitpool/application/port/outbound"
)

// MockClient is an in-memory token ledger for tests and mock mode. Transfers
// between known addresses move real balances; FailTransfers forces rejected
// results to exercise rollback paths.
type MockClient struct {
	mu            sync.Mutex
	balances      map[string]int64
	failTransfers bool
	unreachable   bool
}

func NewMockClient() *MockClient {
	return &MockClient{balances: make(map[string]int64)}
}

// SetBalance seeds an address with tokens.
func (c *MockClient) SetBalance(address string, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[address] = amount
}

// FailTransfers makes every transfer come back rejected.
func (c *MockClient) FailTransfers(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failTransfers = fail
}

// Unreachable simulates the bridge being down.
func (c *MockClient) Unreachable(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unreachable = down
}

func (c *MockClient) TransferFrom(ctx context.Context, from, to string, amount int64) outbound.TransferResult {
	return c.move(from, to, amount)
}

func (c *MockClient) Transfer(ctx context.Context, to string, amount int64) outbound.TransferResult {
	// The service account is the implicit sender; mock mode does not track it
	// as a spendable balance, mirroring a bridge that signs for the pool.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unreachable {
		return outbound.TransferResult{Status: outbound.TransferUnreachable, Reason: "bridge down"}
	}
	if c.failTransfers {
		return outbound.TransferResult{Status: outbound.TransferRejected, Reason: "transfer rejected"}
	}
	c.balances[to] += amount
	return outbound.TransferResult{Status: outbound.TransferOK}
}

func (c *MockClient) BalanceOf(ctx context.Context, address string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[address], nil
}

func (c *MockClient) move(from, to string, amount int64) outbound.TransferResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unreachable {
		return outbound.TransferResult{Status: outbound.TransferUnreachable, Reason: "bridge down"}
	}
	if c.failTransfers {
		return outbound.TransferResult{Status: outbound.TransferRejected, Reason: "transfer rejected"}
	}
	if c.balances[from] < amount {
		return outbound.TransferResult{Status: outbound.TransferRejected, Reason: "insufficient allowance"}
	}
	c.balances[from] -= amount
	c.balances[to] += amount
	return outbound.TransferResult{Status: outbound.TransferOK}
}
