package rebalancer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"rangekeeper/internal/logger"
	"rangekeeper/internal/planner"
	"rangekeeper/internal/ticks"
	"rangekeeper/internal/types"
	"rangekeeper/internal/venue"
)

// Config carries everything the orchestrator needs for one owner account.
// An explicit object rather than package state, so tests can run several
// orchestrators against different fakes side by side.
type Config struct {
	Owner           string
	SlippagePercent float64
	RangeHalfWidth  int64
}

// Orchestrator rebalances a single out-of-range position: withdraw the
// stranded liquidity, swap if the planner says so, then redeploy into a range
// centered on the current price. Every transactional step is confirmed before
// the next begins; the owner account tolerates no overlapping transactions.
type Orchestrator struct {
	cfg     Config
	venue   venue.Venue
	planner *planner.Planner
	logger  zerolog.Logger
}

// New creates a rebalance orchestrator.
func New(cfg Config, v venue.Venue, p *planner.Planner) (*Orchestrator, error) {
	if v == nil {
		return nil, errors.New("venue cannot be nil")
	}
	if p == nil {
		return nil, errors.New("planner cannot be nil")
	}
	if cfg.Owner == "" {
		return nil, errors.New("owner address cannot be empty")
	}
	if cfg.SlippagePercent < 0 {
		return nil, errors.New("slippage percent cannot be negative")
	}
	return &Orchestrator{
		cfg:     cfg,
		venue:   v,
		planner: p,
		logger:  logger.GetForComponent("rebalance_orchestrator"),
	}, nil
}

// Rebalance runs the full withdraw, swap, deposit sequence for one position.
// The caller has already established that the position is out of range and
// holds non-zero liquidity.
func (o *Orchestrator) Rebalance(ctx context.Context, position types.Position) error {
	posLogger := o.logger.With().Str("position", string(position.ID)).Logger()

	pool := position.Pool
	targetRange, err := ticks.ComputeRange(pool.CurrentTick, pool.TickSpacing, o.cfg.RangeHalfWidth)
	if err != nil {
		return fmt.Errorf("computing target range: %w", err)
	}

	posLogger.Info().
		Int64("currentTick", pool.CurrentTick).
		Int64("lower", targetRange.Lower).
		Int64("upper", targetRange.Upper).
		Msg("Target range computed")

	availableA, availableB, err := o.venue.WithdrawableAmounts(ctx, position.ID)
	if err != nil {
		return fmt.Errorf("reading withdrawable amounts: %w", err)
	}

	if availableA.IsPositive() || availableB.IsPositive() {
		handle, err := o.venue.SubmitWithdraw(ctx, position.ID, o.cfg.Owner)
		if err != nil {
			return fmt.Errorf("submitting withdrawal: %w", err)
		}
		result, err := o.venue.WaitForConfirmation(ctx, handle)
		if err != nil {
			return fmt.Errorf("awaiting withdrawal confirmation: %w", err)
		}
		posLogger.Info().
			Str("txHash", result.Hash).
			Str("amountA", availableA.String()).
			Str("amountB", availableB.String()).
			Msg("Liquidity withdrawn")
	}

	target, err := ratioTarget(pool, targetRange)
	if err != nil {
		return err
	}

	plan, err := o.planner.PlanLiquidity(ctx, availableA, availableB, target, true)
	if err != nil {
		return fmt.Errorf("planning liquidity: %w", err)
	}

	if plan.Swap != nil {
		handle, err := o.venue.SubmitSwap(ctx, o.cfg.Owner, *plan.Swap)
		if err != nil {
			return fmt.Errorf("submitting swap: %w", err)
		}
		result, err := o.venue.WaitForConfirmation(ctx, handle)
		if err != nil {
			return fmt.Errorf("awaiting swap confirmation: %w", err)
		}
		posLogger.Info().
			Str("txHash", result.Hash).
			Str("amountIn", plan.Swap.AmountIn.String()).
			Str("amountOut", plan.Swap.AmountOut.String()).
			Msg("Shortfall swap executed")

		// Recompute balances from the quote rather than re-querying the
		// venue; a balance read here would race the swap just submitted.
		availableA = availableA.Sub(plan.Swap.AmountIn)
		availableB = availableB.Add(plan.Swap.AmountOut)

		plan, err = o.planner.PlanLiquidity(ctx, availableA, availableB, target, false)
		if err != nil {
			return fmt.Errorf("re-planning after swap: %w", err)
		}
	}

	// A one-sided or empty position is never opened.
	if plan.DepositA.IsZero() || plan.DepositB.IsZero() {
		posLogger.Warn().
			Str("depositA", plan.DepositA.String()).
			Str("depositB", plan.DepositB.String()).
			Msg("Deposit amount is zero on one side, skipping deposit")
		return nil
	}

	handle, err := o.venue.SubmitDeposit(ctx, o.cfg.Owner, pool.ID, targetRange,
		plan.DepositA, plan.DepositB, o.cfg.SlippagePercent)
	if err != nil {
		return fmt.Errorf("submitting deposit: %w", err)
	}
	result, err := o.venue.WaitForConfirmation(ctx, handle)
	if err != nil {
		return fmt.Errorf("awaiting deposit confirmation: %w", err)
	}

	posLogger.Info().
		Str("txHash", result.Hash).
		Str("depositA", plan.DepositA.String()).
		Str("depositB", plan.DepositB.String()).
		Int64("lower", targetRange.Lower).
		Int64("upper", targetRange.Upper).
		Msg("Position redeployed")

	return nil
}

// ratioTarget builds the estimator target from a pool snapshot and range.
func ratioTarget(pool types.Pool, rng types.TickRange) (venue.RatioTarget, error) {
	currencyA, err := pool.TokenA.CanonicalID()
	if err != nil {
		return venue.RatioTarget{}, fmt.Errorf("resolving token A identifier: %w", err)
	}
	currencyB, err := pool.TokenB.CanonicalID()
	if err != nil {
		return venue.RatioTarget{}, fmt.Errorf("resolving token B identifier: %w", err)
	}
	return venue.RatioTarget{
		CurrencyA:   currencyA,
		CurrencyB:   currencyB,
		FeeTier:     pool.FeeTier,
		Range:       rng,
		CurrentTick: pool.CurrentTick,
	}, nil
}
