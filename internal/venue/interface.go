package venue

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"rangekeeper/internal/types"
)

// EstimateDirection selects which side of the pair a ratio estimate is for.
type EstimateDirection string

const (
	EstimateAToB EstimateDirection = "a_to_b" // known amount is token A, estimate token B
	EstimateBToA EstimateDirection = "b_to_a" // known amount is token B, estimate token A
)

// RatioTarget describes the pool and range a ratio estimate or deposit is
// aimed at.
type RatioTarget struct {
	CurrencyA   string
	CurrencyB   string
	FeeTier     int
	Range       types.TickRange
	CurrentTick int64
}

// PositionSource reads position state from the venue.
type PositionSource interface {
	// PositionsByOwner returns all positions of the owner in the given pool,
	// each with an embedded pool snapshot.
	PositionsByOwner(ctx context.Context, owner string, pool types.PoolID) ([]types.Position, error)

	// WithdrawableAmounts returns the amounts of token A and token B currently
	// redeemable from the position.
	WithdrawableAmounts(ctx context.Context, id types.PositionID) (sdkmath.Int, sdkmath.Int, error)
}

// RatioEstimator answers "given this much of one side, how much of the other
// side pairs with it at the target range and current price". Estimates
// reflect the pool's instantaneous price; there is no staleness guarantee
// across calls.
type RatioEstimator interface {
	EstimateCounterpart(ctx context.Context, target RatioTarget, knownAmount sdkmath.Int, direction EstimateDirection) (sdkmath.Int, error)
}

// SwapService quotes and executes swaps between the pool's two tokens.
type SwapService interface {
	// QuoteForOutput quotes a swap producing at least desiredOut of the `to`
	// currency and returns the full plan including the opaque route.
	QuoteForOutput(ctx context.Context, from, to string, desiredOut sdkmath.Int, safeMode bool) (types.SwapPlan, error)

	// SubmitSwap submits the quoted swap for execution on behalf of sender.
	SubmitSwap(ctx context.Context, sender string, plan types.SwapPlan) (types.TxHandle, error)
}

// LiquidityService executes position-level liquidity operations.
type LiquidityService interface {
	// SubmitWithdraw requests full withdrawal of the position's liquidity,
	// paying out to recipient.
	SubmitWithdraw(ctx context.Context, id types.PositionID, recipient string) (types.TxHandle, error)

	// SubmitDeposit opens (or adds to) a position over the target range with
	// the given amounts and slippage tolerance, on behalf of sender.
	SubmitDeposit(ctx context.Context, sender string, pool types.PoolID, rng types.TickRange, amountA, amountB sdkmath.Int, slippagePercent float64) (types.TxHandle, error)
}

// TransactionWaiter blocks until a submitted transaction settles.
type TransactionWaiter interface {
	// WaitForConfirmation waits for the transaction behind the handle to be
	// included and returns its result. A rejected or timed-out transaction is
	// surfaced as an error.
	WaitForConfirmation(ctx context.Context, handle types.TxHandle) (*types.TransactionResult, error)
}

// Venue bundles every external capability the rebalancer depends on, so a
// single fake can stand in for the whole gateway in tests.
type Venue interface {
	PositionSource
	RatioEstimator
	SwapService
	LiquidityService
	TransactionWaiter
}
