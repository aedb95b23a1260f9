package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rangekeeper/internal/logger"
	"rangekeeper/internal/ticks"
	"rangekeeper/internal/types"
	"rangekeeper/internal/venue"
)

// Rebalancer is the per-position action the monitor triggers for every
// out-of-range position it finds.
type Rebalancer interface {
	Rebalance(ctx context.Context, position types.Position) error
}

// Config holds the configuration for creating a new Monitor.
type Config struct {
	Owner    string
	PoolID   types.PoolID
	Interval time.Duration
}

// PositionFailure records one position whose rebalance failed during a cycle.
type PositionFailure struct {
	Position types.PositionID `json:"position"`
	Error    string           `json:"error"`
}

// CycleReport summarizes one completed poll cycle.
type CycleReport struct {
	Cycle      int               `json:"cycle"`
	StartedAt  time.Time         `json:"started_at"`
	DurationMs int64             `json:"duration_ms"`
	Evaluated  int               `json:"evaluated"`
	Skipped    int               `json:"skipped"` // zero-liquidity positions
	InRange    int               `json:"in_range"`
	Rebalanced int               `json:"rebalanced"`
	Failures   []PositionFailure `json:"failures,omitempty"`
}

// Monitor polls the owner's positions on a fixed interval and hands every
// out-of-range one to the rebalancer. The loop has two states, idle and
// cycling; a failed cycle is logged at the cycle boundary and the loop simply
// waits for the next tick.
type Monitor struct {
	cfg        Config
	positions  venue.PositionSource
	rebalancer Rebalancer
	logger     zerolog.Logger

	cycleCount int

	mu         sync.Mutex
	lastReport *CycleReport
}

// New creates a Monitor with dependency injection.
func New(cfg Config, positions venue.PositionSource, r Rebalancer) (*Monitor, error) {
	if positions == nil {
		return nil, errors.New("position source cannot be nil")
	}
	if r == nil {
		return nil, errors.New("rebalancer cannot be nil")
	}
	if cfg.Owner == "" {
		return nil, errors.New("owner address cannot be empty")
	}
	if cfg.PoolID == "" {
		return nil, errors.New("pool id cannot be empty")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	return &Monitor{
		cfg:        cfg,
		positions:  positions,
		rebalancer: r,
		logger:     logger.GetForComponent("position_monitor"),
	}, nil
}

// RunLoop drives poll cycles until the context is cancelled. The first cycle
// runs immediately; failures are contained to their cycle.
func (m *Monitor) RunLoop(ctx context.Context) {
	m.logger.Info().
		Dur("interval", m.cfg.Interval).
		Str("owner", m.cfg.Owner).
		Str("pool", string(m.cfg.PoolID)).
		Msg("Starting poll loop")

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Poll loop stopped due to context cancellation")
			return
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) {
	report, err := m.RunCycle(ctx)
	if err != nil {
		m.logger.Error().Err(err).Int("cycle", report.Cycle).Msg("Cycle aborted")
		return
	}
	m.logger.Info().
		Int("cycle", report.Cycle).
		Int("evaluated", report.Evaluated).
		Int("rebalanced", report.Rebalanced).
		Int("failures", len(report.Failures)).
		Msg("Cycle completed")
}

// RunCycle evaluates every position once and returns what happened. A fetch
// failure aborts the cycle; a single position's rebalance failure is recorded
// and the remaining positions are still evaluated.
func (m *Monitor) RunCycle(ctx context.Context) (CycleReport, error) {
	m.cycleCount++
	report := CycleReport{Cycle: m.cycleCount, StartedAt: time.Now()}

	cycleLogger := m.logger.With().
		Str("cycle_id", uuid.New().String()).
		Int("cycle", report.Cycle).
		Logger()
	cycleLogger.Info().Msg("--- Starting poll cycle ---")

	positions, err := m.positions.PositionsByOwner(ctx, m.cfg.Owner, m.cfg.PoolID)
	if err != nil {
		report.DurationMs = time.Since(report.StartedAt).Milliseconds()
		m.storeReport(report)
		return report, fmt.Errorf("fetching positions: %w", err)
	}

	for _, position := range positions {
		report.Evaluated++

		// Already-empty positions never reach the out-of-range predicate.
		if position.Liquidity.IsZero() {
			report.Skipped++
			cycleLogger.Debug().Str("position", string(position.ID)).Msg("Skipping position with zero liquidity")
			continue
		}

		if !ticks.OutOfRange(position, position.Pool) {
			report.InRange++
			continue
		}

		cycleLogger.Info().
			Str("position", string(position.ID)).
			Int64("tickLower", position.TickLower).
			Int64("tickUpper", position.TickUpper).
			Int64("currentTick", position.Pool.CurrentTick).
			Msg("Position out of range, rebalancing")

		if err := m.rebalancer.Rebalance(ctx, position); err != nil {
			cycleLogger.Error().Err(err).Str("position", string(position.ID)).Msg("Rebalance failed")
			report.Failures = append(report.Failures, PositionFailure{
				Position: position.ID,
				Error:    err.Error(),
			})
			continue
		}
		report.Rebalanced++
	}

	report.DurationMs = time.Since(report.StartedAt).Milliseconds()
	m.storeReport(report)

	cycleLogger.Info().Int64("durationMs", report.DurationMs).Msg("--- Poll cycle completed ---")
	return report, nil
}

func (m *Monitor) storeReport(report CycleReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := report
	m.lastReport = &snapshot
}

// LastReport returns the most recent cycle report, or nil before the first
// cycle finishes.
func (m *Monitor) LastReport() *CycleReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastReport == nil {
		return nil
	}
	snapshot := *m.lastReport
	return &snapshot
}
