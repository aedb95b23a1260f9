package rebalancer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"rangekeeper/internal/planner"
	"rangekeeper/internal/types"
	"rangekeeper/internal/venue"
)

// fakeVenue records every call in order so tests can assert the exact
// withdraw, swap, deposit sequence. Estimates use a fixed 2:1 price.
type fakeVenue struct {
	calls []string

	withdrawableA sdkmath.Int
	withdrawableB sdkmath.Int
	quoteIn       sdkmath.Int

	depositedA      sdkmath.Int
	depositedB      sdkmath.Int
	depositRange    types.TickRange
	depositSlippage float64
	withdrawErr     error
	confirmationErr error
}

func (f *fakeVenue) PositionsByOwner(context.Context, string, types.PoolID) ([]types.Position, error) {
	return nil, errors.New("not used by the orchestrator")
}

func (f *fakeVenue) WithdrawableAmounts(context.Context, types.PositionID) (sdkmath.Int, sdkmath.Int, error) {
	f.calls = append(f.calls, "withdrawable")
	return f.withdrawableA, f.withdrawableB, nil
}

func (f *fakeVenue) EstimateCounterpart(_ context.Context, _ venue.RatioTarget, knownAmount sdkmath.Int, direction venue.EstimateDirection) (sdkmath.Int, error) {
	f.calls = append(f.calls, "estimate")
	if direction == venue.EstimateBToA {
		return knownAmount.MulRaw(2), nil
	}
	return knownAmount.QuoRaw(2), nil
}

func (f *fakeVenue) QuoteForOutput(_ context.Context, _, _ string, desiredOut sdkmath.Int, _ bool) (types.SwapPlan, error) {
	f.calls = append(f.calls, "quote")
	return types.SwapPlan{AmountIn: f.quoteIn, AmountOut: desiredOut, Route: json.RawMessage(`{}`)}, nil
}

func (f *fakeVenue) SubmitSwap(_ context.Context, _ string, _ types.SwapPlan) (types.TxHandle, error) {
	f.calls = append(f.calls, "submit_swap")
	return "tx-swap", nil
}

func (f *fakeVenue) SubmitWithdraw(_ context.Context, _ types.PositionID, _ string) (types.TxHandle, error) {
	f.calls = append(f.calls, "submit_withdraw")
	if f.withdrawErr != nil {
		return "", f.withdrawErr
	}
	return "tx-withdraw", nil
}

func (f *fakeVenue) SubmitDeposit(_ context.Context, _ string, _ types.PoolID, rng types.TickRange, amountA, amountB sdkmath.Int, slippagePercent float64) (types.TxHandle, error) {
	f.calls = append(f.calls, "submit_deposit")
	f.depositedA = amountA
	f.depositedB = amountB
	f.depositRange = rng
	f.depositSlippage = slippagePercent
	return "tx-deposit", nil
}

func (f *fakeVenue) WaitForConfirmation(_ context.Context, handle types.TxHandle) (*types.TransactionResult, error) {
	f.calls = append(f.calls, fmt.Sprintf("wait:%s", handle))
	if f.confirmationErr != nil {
		return nil, f.confirmationErr
	}
	return &types.TransactionResult{Hash: "0xabc", Success: true}, nil
}

func testPosition() types.Position {
	return types.Position{
		ID: "pos-1",
		Pool: types.Pool{
			ID:          "pool-1",
			CurrentTick: 500,
			FeeTier:     500,
			TickSpacing: 10,
			TokenA:      types.Token{Symbol: "APT", Form: types.AssetFormCoin, CoinType: "0x1::aptos_coin::AptosCoin"},
			TokenB:      types.Token{Symbol: "USDC", Form: types.AssetFormFungible, FungibleAddress: "0xusdc"},
		},
		TickLower: 100,
		TickUpper: 200,
		Liquidity: sdkmath.NewInt(12345),
	}
}

func newTestOrchestrator(t *testing.T, v *fakeVenue) *Orchestrator {
	t.Helper()
	p, err := planner.New(v, v, true)
	require.NoError(t, err)
	o, err := New(Config{Owner: "owner-addr", SlippagePercent: 0.5, RangeHalfWidth: 10}, v, p)
	require.NoError(t, err)
	return o
}

func TestRebalanceFullSequence(t *testing.T) {
	v := &fakeVenue{
		withdrawableA: sdkmath.NewInt(1000),
		withdrawableB: sdkmath.ZeroInt(),
		quoteIn:       sdkmath.NewInt(300),
	}
	o := newTestOrchestrator(t, v)

	err := o.Rebalance(context.Background(), testPosition())
	require.NoError(t, err)

	// Withdraw settles before the swap is quoted, and the swap settles
	// before the deposit goes out.
	require.Equal(t, []string{
		"withdrawable",
		"submit_withdraw",
		"wait:tx-withdraw",
		"estimate", // required B for the full A balance
		"quote",
		"estimate", // deposit B from the post-swap A balance
		"submit_swap",
		"wait:tx-swap",
		"estimate", // re-plan with swapping disabled
		"submit_deposit",
		"wait:tx-deposit",
	}, v.calls)

	// Post-swap balances are derived from the quote: 700 A and 500 B,
	// of which 700 A pairs with 350 B at the 2:1 test price.
	require.Equal(t, sdkmath.NewInt(700), v.depositedA)
	require.Equal(t, sdkmath.NewInt(350), v.depositedB)
	require.Equal(t, types.TickRange{Lower: 400, Upper: 600}, v.depositRange)
	require.Equal(t, 0.5, v.depositSlippage)
}

func TestRebalanceNoSwapWhenBalanced(t *testing.T) {
	v := &fakeVenue{
		withdrawableA: sdkmath.NewInt(1000),
		withdrawableB: sdkmath.NewInt(600),
	}
	o := newTestOrchestrator(t, v)

	err := o.Rebalance(context.Background(), testPosition())
	require.NoError(t, err)

	require.NotContains(t, v.calls, "quote")
	require.NotContains(t, v.calls, "submit_swap")
	require.Equal(t, sdkmath.NewInt(1000), v.depositedA)
	require.Equal(t, sdkmath.NewInt(500), v.depositedB)
}

func TestRebalanceEmptyPositionSkipsWithdrawAndDeposit(t *testing.T) {
	v := &fakeVenue{
		withdrawableA: sdkmath.ZeroInt(),
		withdrawableB: sdkmath.ZeroInt(),
	}
	o := newTestOrchestrator(t, v)

	err := o.Rebalance(context.Background(), testPosition())
	require.NoError(t, err)

	require.NotContains(t, v.calls, "submit_withdraw")
	require.NotContains(t, v.calls, "submit_deposit")
}

func TestRebalanceWithdrawFailureAborts(t *testing.T) {
	withdrawErr := errors.New("sequence mismatch")
	v := &fakeVenue{
		withdrawableA: sdkmath.NewInt(1000),
		withdrawableB: sdkmath.ZeroInt(),
		withdrawErr:   withdrawErr,
	}
	o := newTestOrchestrator(t, v)

	err := o.Rebalance(context.Background(), testPosition())
	require.ErrorIs(t, err, withdrawErr)
	require.NotContains(t, v.calls, "submit_deposit")
}

func TestRebalanceConfirmationFailureAborts(t *testing.T) {
	confirmErr := errors.New("transaction rejected")
	v := &fakeVenue{
		withdrawableA:   sdkmath.NewInt(1000),
		withdrawableB:   sdkmath.ZeroInt(),
		confirmationErr: confirmErr,
	}
	o := newTestOrchestrator(t, v)

	err := o.Rebalance(context.Background(), testPosition())
	require.ErrorIs(t, err, confirmErr)
	require.NotContains(t, v.calls, "submit_deposit")
}

func TestNewValidatesInputs(t *testing.T) {
	v := &fakeVenue{}
	p, err := planner.New(v, v, true)
	require.NoError(t, err)

	_, err = New(Config{Owner: "owner"}, nil, p)
	require.Error(t, err)

	_, err = New(Config{Owner: "owner"}, v, nil)
	require.Error(t, err)

	_, err = New(Config{Owner: ""}, v, p)
	require.Error(t, err)

	_, err = New(Config{Owner: "owner", SlippagePercent: -1}, v, p)
	require.Error(t, err)
}
