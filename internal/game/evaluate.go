package game

// Evaluate maps a signed millisecond offset between a note's target time
// and the reported input time to a timing quality. Callers gate on
// InHitWindow first; Evaluate of an out-of-window delta is still a miss.
func Evaluate(delta int64) HitResult {
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= PerfectWindow:
		return HitPerfect
	case abs <= GoodWindow:
		return HitGood
	default:
		return HitMiss
	}
}

// InHitWindow reports whether an input at this offset can bind to a note
// at all.
func InHitWindow(delta int64) bool {
	if delta < 0 {
		delta = -delta
	}
	return delta <= MissWindow
}

// ClosestNote selects the unresolved note of the given direction nearest
// to now, restricted to candidates within the hit window. resolved
// reports whether a note already has a terminal outcome. Returns the
// index into notes, the signed delta targetTime-now, and whether a
// candidate qualified.
func ClosestNote(notes []Note, dir Direction, now int64, resolved func(id string) bool) (int, int64, bool) {
	best := -1
	var bestDelta int64
	for i := range notes {
		n := &notes[i]
		if n.Direction != dir || n.IsHit {
			continue
		}
		if resolved != nil && resolved(n.ID) {
			continue
		}
		delta := n.TargetTime - now
		if !InHitWindow(delta) {
			continue
		}
		if best == -1 || abs64(delta) < abs64(bestDelta) {
			best = i
			bestDelta = delta
		}
	}
	if best == -1 {
		return -1, 0, false
	}
	return best, bestDelta, true
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
