/*

Pool snapshot types. A pool snapshot is read once per poll cycle from the
venue and treated as immutable for the rest of the cycle.

*/

package types

// PoolID is the venue's opaque pool identifier.
type PoolID string

type Pool struct {
	ID          PoolID `json:"id"`
	CurrentTick int64  `json:"current_tick"` // price expressed as an integer tick
	FeeTier     int    `json:"fee_tier"`     // fee classifier, determines tick spacing on-chain
	TickSpacing int64  `json:"tick_spacing"` // spacing derived from FeeTier, reported by the venue
	TokenA      Token  `json:"token_a"`
	TokenB      Token  `json:"token_b"`
}

// TickRange is an ordered pair of ticks, lower < upper, both multiples of the
// owning pool's tick spacing.
type TickRange struct {
	Lower int64 `json:"lower"`
	Upper int64 `json:"upper"`
}

// Contains reports whether the tick lies strictly inside the range. A tick
// sitting exactly on either boundary is treated as outside so that
// rebalancing triggers at the edge rather than after the price has left.
func (r TickRange) Contains(tick int64) bool {
	return tick > r.Lower && tick < r.Upper
}
