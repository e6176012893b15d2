package game

import "time"

// Timing windows, in milliseconds of offset from a note's target time.
const (
	PerfectWindow int64 = 50
	GoodWindow    int64 = 100
	MissWindow    int64 = 150

	// A note this far past its target time with no resolution is
	// force-missed by the sweep. Twice the hit window so a late-but-bound
	// input is never raced by the sweep.
	AutoMissThreshold = MissWindow * 2

	// Minimum wall-clock gap between evaluated inputs on one direction.
	// Suppresses key-repeat double counting.
	InputCooldown int64 = 50
)

const (
	SegmentDuration int64 = 60000

	InitialHP float64 = 100
	MaxHP     float64 = 100

	BaseDamage            float64 = 5
	ComboDamageMultiplier float64 = 0.5

	PerfectScore = 100
	GoodScore    = 50

	// Comeback mechanic tuning. Not applied in the damage or timing
	// formulas; wiring it in needs a gameplay decision first.
	ComebackHPThreshold float64 = 30
	ComebackTimingBonus int64   = 20
)

const (
	TicksPerSecond    = 60
	TickInterval      = time.Second / TicksPerSecond
	CountdownDuration = 3 * time.Second
)
