package planner

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"rangekeeper/internal/logger"
	"rangekeeper/internal/types"
	"rangekeeper/internal/venue"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidBalance      = errors.New("balance is nil or negative")
	ErrInsufficientBalance = errors.New("swap would consume the entire token A balance")
)

// Planner converts two arbitrary token balances into a deposit plan for a
// target range, deciding whether and how much of token A to swap into token B.
type Planner struct {
	estimator venue.RatioEstimator
	swaps     venue.SwapService
	safeMode  bool
	logger    zerolog.Logger
}

// New creates a liquidity planner. safeMode is forwarded to every swap quote.
func New(estimator venue.RatioEstimator, swaps venue.SwapService, safeMode bool) (*Planner, error) {
	if estimator == nil {
		return nil, errors.New("ratio estimator cannot be nil")
	}
	if swaps == nil {
		return nil, errors.New("swap service cannot be nil")
	}
	return &Planner{
		estimator: estimator,
		swaps:     swaps,
		safeMode:  safeMode,
		logger:    logger.GetForComponent("liquidity_planner"),
	}, nil
}

// PlanLiquidity produces the deposit plan for the available balances at the
// target range.
//
// The plan is built in two stages. First the estimator is asked how much
// token B pairs with the whole of availableA; when that requirement exceeds
// availableB and swapping is allowed, the shortfall is covered by quoting a
// swap of A into B and the working balances are adjusted by the quote. The
// caller must execute the recorded swap and call PlanLiquidity again with
// allowSwap=false before depositing. Second, the deposit pair is re-estimated
// from the working A balance and capped so neither side exceeds what is
// actually held: if the estimated B requirement still exceeds the working B
// balance, the estimate is reversed (B to A) and the plan deposits all of B
// against the matching A amount, leaving the A excess in the wallet.
//
// Estimator and quote errors propagate unchanged; retry policy belongs to the
// polling loop.
func (p *Planner) PlanLiquidity(ctx context.Context, availableA, availableB sdkmath.Int, target venue.RatioTarget, allowSwap bool) (types.DepositPlan, error) {
	if err := validateBalance(availableA, "available A"); err != nil {
		return types.DepositPlan{}, err
	}
	if err := validateBalance(availableB, "available B"); err != nil {
		return types.DepositPlan{}, err
	}

	requiredB, err := p.estimator.EstimateCounterpart(ctx, target, availableA, venue.EstimateAToB)
	if err != nil {
		return types.DepositPlan{}, fmt.Errorf("estimating required B for full A deposit: %w", err)
	}

	workingA := availableA
	workingB := availableB
	var swap *types.SwapPlan

	if allowSwap && requiredB.GT(availableB) {
		shortfall := requiredB.Sub(availableB)

		quote, err := p.swaps.QuoteForOutput(ctx, target.CurrencyA, target.CurrencyB, shortfall, p.safeMode)
		if err != nil {
			return types.DepositPlan{}, fmt.Errorf("quoting shortfall swap of %s B units: %w", shortfall, err)
		}

		// A swap that eats the whole A balance defeats the deposit it is
		// supposed to enable.
		if quote.AmountIn.GTE(availableA) {
			return types.DepositPlan{}, fmt.Errorf("%w: quote consumes %s but only %s token A is held",
				ErrInsufficientBalance, quote.AmountIn, availableA)
		}

		swap = &quote
		workingA = workingA.Sub(quote.AmountIn)
		workingB = workingB.Add(quote.AmountOut)

		p.logger.Info().
			Str("shortfall", shortfall.String()).
			Str("amountIn", quote.AmountIn.String()).
			Str("amountOut", quote.AmountOut.String()).
			Msg("Shortfall swap planned")
	}

	depositA := workingA
	depositB, err := p.estimator.EstimateCounterpart(ctx, target, workingA, venue.EstimateAToB)
	if err != nil {
		return types.DepositPlan{}, fmt.Errorf("re-estimating deposit B: %w", err)
	}

	// Estimation drift, or a swap that executed away from its quote, can push
	// the B requirement past what is actually held. Reverse the estimate and
	// deposit all of B instead; the unspent A stays in the wallet.
	if depositB.GT(workingB) {
		depositA, err = p.estimator.EstimateCounterpart(ctx, target, workingB, venue.EstimateBToA)
		if err != nil {
			return types.DepositPlan{}, fmt.Errorf("reverse-estimating deposit A: %w", err)
		}
		// The forward and reverse estimates are separate price reads, so the
		// reverse one can name more A than is held. Never deposit more than
		// the working balance.
		depositA = sdkmath.MinInt(depositA, workingA)
		depositB = workingB

		p.logger.Debug().
			Str("depositA", depositA.String()).
			Str("depositB", depositB.String()).
			Msg("Deposit capped by token B availability")
	}

	p.logger.Info().
		Str("depositA", depositA.String()).
		Str("depositB", depositB.String()).
		Bool("swapPlanned", swap != nil).
		Msg("Deposit plan ready")

	return types.DepositPlan{Swap: swap, DepositA: depositA, DepositB: depositB}, nil
}

func validateBalance(amount sdkmath.Int, label string) error {
	if amount.IsNil() {
		return fmt.Errorf("%w: %s is nil", ErrInvalidBalance, label)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s is %s", ErrInvalidBalance, label, amount)
	}
	return nil
}
