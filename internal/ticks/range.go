package ticks

import (
	"errors"
	"fmt"

	"rangekeeper/internal/types"
)

var ErrInvalidSpacing = errors.New("tick spacing must be positive")

// ComputeRange maps the current price tick to a target range of halfWidth
// spacing units on each side. The current tick is snapped down to the nearest
// spacing boundary first, so repeated calls at the same tick always produce
// the same range.
func ComputeRange(currentTick, spacing, halfWidth int64) (types.TickRange, error) {
	if spacing <= 0 {
		return types.TickRange{}, fmt.Errorf("%w: %d", ErrInvalidSpacing, spacing)
	}
	if halfWidth < 0 {
		return types.TickRange{}, fmt.Errorf("half width cannot be negative: %d", halfWidth)
	}

	rounded := floorDiv(currentTick, spacing) * spacing
	lower := rounded - halfWidth*spacing
	upper := rounded + halfWidth*spacing

	// A zero half-width still has to yield an openable position: widen by one
	// spacing unit on each side instead of failing.
	if lower == upper {
		lower = rounded - spacing
		upper = rounded + spacing
	}

	return types.TickRange{Lower: lower, Upper: upper}, nil
}

// OutOfRange reports whether the pool's current tick has reached or passed
// either boundary of the position's range. The boundaries themselves count as
// out of range so rebalancing triggers at the edge, not after the price has
// already moved past it.
func OutOfRange(position types.Position, pool types.Pool) bool {
	return pool.CurrentTick <= position.TickLower || pool.CurrentTick >= position.TickUpper
}

// floorDiv divides rounding toward negative infinity. Go's integer division
// truncates toward zero, which would snap negative ticks upward.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
