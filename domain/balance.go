package domain

// Aggregates are the ledger-wide balances maintained incrementally alongside
// every mutation, never recomputed by scanning user balances.
type Aggregates struct {
	// CommitterBalance is the sum of all user balances.
	CommitterBalance int64 `json:"committer_balance"`
	// SlashedBalance is protocol-owned funds forfeited by unmet commitments.
	SlashedBalance int64 `json:"slashed_balance"`
}

// BalanceView is the per-committer read model: the raw deposited balance,
// the portion locked by an active commitment, and what withdraw would honor.
type BalanceView struct {
	Address      string `json:"address"`
	Balance      int64  `json:"balance"`
	LockedStake  int64  `json:"locked_stake"`
	Withdrawable int64  `json:"withdrawable"`
}
