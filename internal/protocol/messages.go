package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/beatbrawl/beatbrawl-backend/internal/game"
)

var ErrUnknownType = errors.New("unknown message type")
var ErrBadPayload = errors.New("bad payload")

// Client -> server message types.
const (
	TypeJoin       = "join"
	TypeReady      = "ready"
	TypeSubmitSong = "submit_song"
	TypeSetBeatmap = "set_beatmap"
	TypeInput      = "input"
	TypeMiss       = "miss"
)

// Server -> client message types.
const (
	TypeRoomState       = "room_state"
	TypeJoined          = "joined"
	TypePlayerJoined    = "player_joined"
	TypePlayerLeft      = "player_left"
	TypePlayerReady     = "player_ready"
	TypeBeatmapReceived = "beatmap_received"
	TypeCountdownStart  = "countdown_start"
	TypeGameStart       = "game_start"
	TypeGameUpdate      = "game_update"
	TypeHitRegistered   = "hit_registered"
	TypeDamageDealt     = "damage_dealt"
	TypeGameEnd         = "game_end"
	TypeError           = "error"
)

// ClientMessage is the inbound envelope: a type discriminator and a raw
// payload decoded per type.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the outbound envelope. Payload is a concrete payload
// struct; marshalling happens at the connection write loop.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type JoinPayload struct {
	PlayerName string `json:"playerName"`
}

type ReadyPayload struct {
	Ready bool `json:"ready"`
}

type SubmitSongPayload struct {
	URL       string `json:"url"`
	StartTime *int64 `json:"startTime,omitempty"`
}

type SetBeatmapPayload struct {
	Beatmap game.Beatmap `json:"beatmap"`
}

type InputPayload struct {
	NoteID    string         `json:"noteId"`
	Result    game.HitResult `json:"result"`
	Timestamp int64          `json:"timestamp"`
}

type MissPayload struct {
	Direction game.Direction `json:"direction"`
	Timestamp int64          `json:"timestamp"`
}

// DecodePayload unmarshals an envelope payload into its typed struct.
func DecodePayload[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("%w: missing payload", ErrBadPayload)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return v, nil
}
