package game

import "math"

// ApplyOutcome applies one timing outcome to a player's scoring state and
// returns the damage dealt to that player (zero unless the outcome is a
// miss). The opponent's combo amplifies miss damage; a miss always zeroes
// the player's own combo. HP never drops below zero.
func ApplyOutcome(p *PlayerState, opponentCombo int, result HitResult) float64 {
	if result == HitMiss {
		p.Combo = 0
		p.MissCount++
		damage := BaseDamage + float64(opponentCombo)*ComboDamageMultiplier
		p.HP = math.Max(0, p.HP-damage)
		return damage
	}

	p.Combo++
	if p.Combo > p.MaxCombo {
		p.MaxCombo = p.Combo
	}
	switch result {
	case HitPerfect:
		p.PerfectCount++
	default:
		p.GoodCount++
	}
	p.Score += HitScore(result, p.Combo)
	return 0
}

// HitScore returns the score awarded for a hit given the combo after the
// hit was counted: base points plus 1% per combo, floored.
func HitScore(result HitResult, combo int) int {
	var base float64
	switch result {
	case HitPerfect:
		base = PerfectScore
	case HitGood:
		base = GoodScore
	default:
		return 0
	}
	return int(math.Floor(base * (1 + float64(combo)*0.01)))
}

// ResolveWinner picks the winner at session end. Slots are in join order.
// A dead player loses; player one is checked first when both are dead.
// At time expiry the higher HP wins, with the first-joined player taking
// an exact tie (deliberate, deterministic tie-break).
func ResolveWinner(p1, p2 PlayerState) string {
	if p1.HP <= 0 {
		return p2.ID
	}
	if p2.HP <= 0 {
		return p1.ID
	}
	if p1.HP >= p2.HP {
		return p1.ID
	}
	return p2.ID
}
