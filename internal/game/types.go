package game

import (
	"errors"
	"fmt"
)

var ErrEmptyBeatmap = errors.New("beatmap has no notes")
var ErrUnsortedNotes = errors.New("beatmap notes not sorted by target time")
var ErrNoteOutOfRange = errors.New("note target time outside segment window")
var ErrBadDuration = errors.New("beatmap duration must be positive")

type Direction string

const (
	DirLeft  Direction = "left"
	DirDown  Direction = "down"
	DirUp    Direction = "up"
	DirRight Direction = "right"
)

func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirLeft, DirDown, DirUp, DirRight:
		return Direction(s), true
	default:
		return "", false
	}
}

type HitResult string

const (
	HitPerfect HitResult = "perfect"
	HitGood    HitResult = "good"
	HitMiss    HitResult = "miss"
)

func ParseHitResult(s string) (HitResult, bool) {
	switch HitResult(s) {
	case HitPerfect, HitGood, HitMiss:
		return HitResult(s), true
	default:
		return "", false
	}
}

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCountdown Status = "countdown"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
)

// Note is a single timed hit event. TargetTime is milliseconds from the
// start of the active segment.
type Note struct {
	ID         string    `json:"id"`
	Direction  Direction `json:"direction"`
	TargetTime int64     `json:"targetTime"`
	IsHit      bool      `json:"isHit"`
	HitResult  HitResult `json:"hitResult,omitempty"`
}

// Beatmap is immutable once submitted to a session. Notes are sorted
// ascending by TargetTime and all target times lie within [0, Duration].
type Beatmap struct {
	ID        string  `json:"id"`
	SongURL   string  `json:"songUrl,omitempty"`
	BPM       float64 `json:"bpm"`
	StartTime int64   `json:"startTime"`
	Duration  int64   `json:"duration"`
	Notes     []Note  `json:"notes"`
}

// Validate checks the two guarantees the session relies on: ascending
// target times and every note inside the segment window.
func (b *Beatmap) Validate() error {
	if b.Duration <= 0 {
		return ErrBadDuration
	}
	if len(b.Notes) == 0 {
		return ErrEmptyBeatmap
	}
	prev := int64(-1)
	for _, n := range b.Notes {
		if n.TargetTime < prev {
			return ErrUnsortedNotes
		}
		if n.TargetTime < 0 || n.TargetTime > b.Duration {
			return fmt.Errorf("%w: note %s at %dms", ErrNoteOutOfRange, n.ID, n.TargetTime)
		}
		prev = n.TargetTime
	}
	return nil
}

// PlayerState is the scoring state the authoritative session owns for one
// player. HP is clamped to [0, MaxHP]; Score never decreases.
type PlayerState struct {
	ID           string  `json:"id"`
	HP           float64 `json:"hp"`
	Combo        int     `json:"combo"`
	MaxCombo     int     `json:"maxCombo"`
	Score        int     `json:"score"`
	PerfectCount int     `json:"perfectCount"`
	GoodCount    int     `json:"goodCount"`
	MissCount    int     `json:"missCount"`
}

func NewPlayerState(id string) PlayerState {
	return PlayerState{ID: id, HP: InitialHP}
}
