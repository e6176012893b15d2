package game

// MirrorMode selects how durable a mirror's resolutions are.
type MirrorMode int

const (
	// ModeSolo is the solely-local play path: the mirror's state is the
	// real score, there is no opponent and no authority above it.
	ModeSolo MirrorMode = iota
	// ModeAdvisory is the multiplayer client path: resolutions drive
	// immediate feedback and suppress duplicate reports, but the next
	// authoritative snapshot overwrites everything.
	ModeAdvisory
)

// Resolution is one evaluated input or swept note.
type Resolution struct {
	NoteID string
	Result HitResult
	// Bound is false for an empty miss: an input that matched no note.
	Bound  bool
	Damage float64
}

// Mirror runs the hit evaluator and combo/damage model locally. The same
// evaluation code serves solo play and the advisory multiplayer mirror;
// the mode only changes whether the results are meant to last.
type Mirror struct {
	mode      MirrorMode
	beatmap   Beatmap
	self      PlayerState
	reported  map[string]bool
	lastInput map[Direction]int64
}

// NewMirror copies the beatmap's notes so local hit flags never leak into
// the shared immutable value.
func NewMirror(mode MirrorMode, b *Beatmap, selfID string) *Mirror {
	m := &Mirror{
		mode:      mode,
		beatmap:   *b,
		self:      NewPlayerState(selfID),
		reported:  make(map[string]bool),
		lastInput: make(map[Direction]int64),
	}
	m.beatmap.Notes = make([]Note, len(b.Notes))
	copy(m.beatmap.Notes, b.Notes)
	return m
}

func (m *Mirror) Mode() MirrorMode { return m.mode }

// Self returns the mirror's current view of its own player state.
func (m *Mirror) Self() PlayerState { return m.self }

// Reported reports whether a note outcome was already sent upstream.
func (m *Mirror) Reported(noteID string) bool { return m.reported[noteID] }

// HandleInput evaluates one directional key press at wall time wall
// (milliseconds) against song time now. The second return is false when
// the press was swallowed by the per-direction cooldown. A press that
// binds no note is an empty miss.
func (m *Mirror) HandleInput(dir Direction, now, wall int64) (Resolution, bool) {
	if last, ok := m.lastInput[dir]; ok && wall-last < InputCooldown {
		return Resolution{}, false
	}
	m.lastInput[dir] = wall

	idx, delta, ok := ClosestNote(m.beatmap.Notes, dir, now, func(id string) bool {
		return m.reported[id]
	})
	if !ok {
		res := Resolution{Result: HitMiss}
		res.Damage = ApplyOutcome(&m.self, 0, HitMiss)
		return res, true
	}

	n := &m.beatmap.Notes[idx]
	result := Evaluate(delta)
	n.IsHit = true
	n.HitResult = result
	m.reported[n.ID] = true

	res := Resolution{NoteID: n.ID, Result: result, Bound: true}
	res.Damage = ApplyOutcome(&m.self, 0, result)
	return res, true
}

// SweepMisses force-misses every unresolved note that drifted past the
// auto-miss threshold. Idempotent per note.
func (m *Mirror) SweepMisses(now int64) []Resolution {
	var out []Resolution
	for i := range m.beatmap.Notes {
		n := &m.beatmap.Notes[i]
		if n.IsHit || m.reported[n.ID] {
			continue
		}
		if now-n.TargetTime <= AutoMissThreshold {
			continue
		}
		n.IsHit = true
		n.HitResult = HitMiss
		m.reported[n.ID] = true
		res := Resolution{NoteID: n.ID, Result: HitMiss, Bound: true}
		res.Damage = ApplyOutcome(&m.self, 0, HitMiss)
		out = append(out, res)
	}
	return out
}

// AdoptSnapshot replaces the mirror's player state with the authoritative
// one. Solo mirrors have no authority above them, so this is a no-op
// outside advisory mode.
func (m *Mirror) AdoptSnapshot(players []PlayerState) {
	if m.mode != ModeAdvisory {
		return
	}
	for _, p := range players {
		if p.ID == m.self.ID {
			m.self = p
			return
		}
	}
}
