package room

import (
	"github.com/beatbrawl/beatbrawl-backend/internal/game"
	"github.com/beatbrawl/beatbrawl-backend/internal/protocol"
)

// Msg is anything the room loop can process. Everything that mutates a
// room arrives through its inbox, so all mutation is totally ordered.
type Msg interface{ isRoomMsg() }

// Join registers a connection as a player. Reply always receives exactly
// one JoinReply; on rejection the outbox is never adopted.
type Join struct {
	Name   string
	Outbox chan protocol.ServerMessage
	Reply  chan JoinReply
}

func (Join) isRoomMsg() {}

type JoinReply struct {
	PlayerID string
	Err      error
}

type Leave struct{ PlayerID string }

func (Leave) isRoomMsg() {}

type SetReady struct {
	PlayerID string
	Ready    bool
}

func (SetReady) isRoomMsg() {}

// SubmitSong records the song URL for the lobby. Informational only; the
// beatmap arrives separately via SetBeatmap.
type SubmitSong struct {
	PlayerID string
	URL      string
}

func (SubmitSong) isRoomMsg() {}

type SetBeatmap struct {
	PlayerID string
	Beatmap  game.Beatmap
}

func (SetBeatmap) isRoomMsg() {}

// Input is a client-reported note resolution.
type Input struct {
	PlayerID  string
	NoteID    string
	Result    game.HitResult
	Timestamp int64
}

func (Input) isRoomMsg() {}

// EmptyMiss is an explicit key press that bound no note.
type EmptyMiss struct {
	PlayerID  string
	Direction game.Direction
	Timestamp int64
}

func (EmptyMiss) isRoomMsg() {}

// countdownFired is posted back into the inbox by the countdown timer.
// The generation lets the loop discard stale fires.
type countdownFired struct{ gen int }

func (countdownFired) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// GetState reflects internal state without data races.
type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type PlayerView struct {
	ID    string
	Name  string
	Ready bool
	State game.PlayerState
}

type View struct {
	Status      game.Status
	Players     []PlayerView
	CurrentTime int64
	Winner      string
	HasBeatmap  bool
	SongURL     string
}
