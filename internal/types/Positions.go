/*

This file contains the types for positions and the transient planning records
produced while rebalancing one of them. Positions are owned by the venue and
read-only here; nothing in this file survives a process restart.

*/

package types

import (
	"encoding/json"

	sdkmath "cosmossdk.io/math"
)

// PositionID is the venue's opaque position identifier.
type PositionID string

// Position is a snapshot of one concentrated-liquidity position together with
// the pool it belongs to.
type Position struct {
	ID        PositionID  `json:"id"`
	Pool      Pool        `json:"pool"`
	TickLower int64       `json:"tick_lower"`
	TickUpper int64       `json:"tick_upper"`
	Liquidity sdkmath.Int `json:"liquidity"` // non-negative liquidity magnitude
}

// SwapPlan records a quoted swap of token A into token B. It exists only
// within a single rebalance cycle.
type SwapPlan struct {
	AmountIn  sdkmath.Int     `json:"amount_in"`  // token A consumed
	AmountOut sdkmath.Int     `json:"amount_out"` // token B expected
	Route     json.RawMessage `json:"route"`      // opaque route descriptor from the quoting service
}

// DepositPlan is the final pair of amounts to submit for a target range.
// Neither amount ever exceeds the working balance it is drawn from.
type DepositPlan struct {
	Swap     *SwapPlan   `json:"swap,omitempty"` // nil when no swap is needed or allowed
	DepositA sdkmath.Int `json:"deposit_a"`
	DepositB sdkmath.Int `json:"deposit_b"`
}

// TxHandle identifies a submitted transaction at the venue gateway.
type TxHandle string

// TransactionResult contains the confirmed execution details of a transaction.
type TransactionResult struct {
	Hash         string `json:"hash"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}
