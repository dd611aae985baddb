package outbound

import "context"

// TransferStatus is the closed result set of a token movement. The engine
// control flow is a match over these values, never an exception unwind.
type TransferStatus int

const (
	// TransferOK means the bridge confirmed the movement.
	TransferOK TransferStatus = iota
	// TransferRejected means the bridge refused it (allowance, funds, policy).
	TransferRejected
	// TransferUnreachable means the bridge could not be consulted at all.
	TransferUnreachable
)

// TransferResult carries the status and an optional bridge-supplied reason.
type TransferResult struct {
	Status TransferStatus
	Reason string
}

// TokenClient is the external token ledger the service settles against. The
// service account pools all deposited funds; per-user accounting lives in the
// balance ledger, not on the token side.
type TokenClient interface {
	// TransferFrom pulls amount from a committer into the service account.
	TransferFrom(ctx context.Context, from, to string, amount int64) TransferResult
	// Transfer pushes amount from the service account to a recipient.
	Transfer(ctx context.Context, to string, amount int64) TransferResult
	// BalanceOf reads the token balance held by an address.
	BalanceOf(ctx context.Context, address string) (int64, error)
}
