package game

// Ledger tracks one player's terminal note outcomes for a session. The
// beatmap itself is shared read-only between both players, so each player
// needs their own record of which notes they have resolved. All access
// happens inside the owning room's loop.
type Ledger struct {
	beatmap  *Beatmap
	resolved map[string]HitResult
	// sweep cursor: notes are sorted by target time, so everything before
	// this index is already terminal or swept.
	sweepFrom int
}

func NewLedger(b *Beatmap) *Ledger {
	return &Ledger{
		beatmap:  b,
		resolved: make(map[string]HitResult, len(b.Notes)),
	}
}

// Resolve records a terminal outcome for a note. It returns false when
// the note id is unknown or already resolved, which makes duplicate
// reports and sweep races idempotent.
func (l *Ledger) Resolve(noteID string, result HitResult) bool {
	if _, done := l.resolved[noteID]; done {
		return false
	}
	found := false
	for i := range l.beatmap.Notes {
		if l.beatmap.Notes[i].ID == noteID {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	l.resolved[noteID] = result
	return true
}

// Resolved reports whether the note already has a terminal outcome.
func (l *Ledger) Resolved(noteID string) bool {
	_, done := l.resolved[noteID]
	return done
}

// Outcome returns the recorded outcome for a note, if any.
func (l *Ledger) Outcome(noteID string) (HitResult, bool) {
	r, ok := l.resolved[noteID]
	return r, ok
}

// Sweep force-misses every unresolved note more than AutoMissThreshold
// past its target time and returns their ids. Each note is swept at most
// once; calling Sweep again at the same time returns nothing.
func (l *Ledger) Sweep(now int64) []string {
	var missed []string
	for ; l.sweepFrom < len(l.beatmap.Notes); l.sweepFrom++ {
		n := &l.beatmap.Notes[l.sweepFrom]
		if now-n.TargetTime <= AutoMissThreshold {
			break
		}
		if _, done := l.resolved[n.ID]; done {
			continue
		}
		l.resolved[n.ID] = HitMiss
		missed = append(missed, n.ID)
	}
	return missed
}
