package protocol

import "github.com/beatbrawl/beatbrawl-backend/internal/game"

// ErrorCode is the structured error kind carried on every error message,
// so clients can branch without parsing free-form text.
type ErrorCode string

const (
	ErrRoomFull          ErrorCode = "room_full"
	ErrBadMessage        ErrorCode = "bad_message"
	ErrUnknownMsgType    ErrorCode = "unknown_type"
	ErrNotInRoom         ErrorCode = "not_in_room"
	ErrBeatmapAlreadySet ErrorCode = "beatmap_already_set"
	ErrBadBeatmap        ErrorCode = "bad_beatmap"
)

type RoomPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// RoomState is the public projection broadcast on every membership,
// readiness, or beatmap change.
type RoomState struct {
	RoomID        string       `json:"roomId"`
	Players       []RoomPlayer `json:"players"`
	SongSubmitted bool         `json:"songSubmitted"`
	SongURL       string       `json:"songUrl,omitempty"`
}

type JoinedPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerJoinedPayload struct {
	Player game.PlayerState `json:"player"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerReadyPayload struct {
	PlayerID string `json:"playerId"`
	Ready    bool   `json:"ready"`
}

type BeatmapReceivedPayload struct {
	Beatmap game.Beatmap `json:"beatmap"`
}

type CountdownStartPayload struct {
	// StartAt is a unix timestamp in milliseconds.
	StartAt int64 `json:"startAt"`
}

type GameStartPayload struct {
	Beatmap game.Beatmap `json:"beatmap"`
}

// GameUpdatePayload is the periodic snapshot. The beatmap is deliberately
// absent: it never changes after game_start.
type GameUpdatePayload struct {
	Players     []game.PlayerState `json:"players"`
	CurrentTime int64              `json:"currentTime"`
	Status      game.Status        `json:"status"`
}

type HitRegisteredPayload struct {
	PlayerID string         `json:"playerId"`
	NoteID   string         `json:"noteId"`
	Result   game.HitResult `json:"result"`
}

type DamageDealtPayload struct {
	FromID string  `json:"fromId"`
	ToID   string  `json:"toId"`
	Damage float64 `json:"damage"`
}

// FinalState is the terminal session projection sent with game_end.
type FinalState struct {
	RoomID      string             `json:"roomId"`
	Status      game.Status        `json:"status"`
	Players     []game.PlayerState `json:"players"`
	CurrentTime int64              `json:"currentTime"`
	Winner      string             `json:"winner"`
}

type GameEndPayload struct {
	Winner     string     `json:"winner"`
	FinalState FinalState `json:"finalState"`
}

type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func Error(code ErrorCode, message string) ServerMessage {
	return ServerMessage{Type: TypeError, Payload: ErrorPayload{Code: code, Message: message}}
}
