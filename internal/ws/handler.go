package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/beatbrawl/beatbrawl-backend/internal/game"
	"github.com/beatbrawl/beatbrawl-backend/internal/hub"
	"github.com/beatbrawl/beatbrawl-backend/internal/protocol"
	"github.com/beatbrawl/beatbrawl-backend/internal/room"
)

const (
	outboxSize   = 64
	writeTimeout = 3 * time.Second
	readLimit    = 1 << 20 // beatmaps are the largest inbound payload
)

// Handler upgrades a connection and bridges it to its room: a writer
// goroutine drains the outbox, the reader loop decodes envelopes into
// room messages. The first message must be a join.
func Handler(h *hub.Hub, log *zap.SugaredLogger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Warnw("websocket accept failed", "room", code, "err", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(readLimit)

		c := &client{
			conn: conn,
			hub:  h,
			code: code,
			log:  log.With("room", code),
		}
		c.run(r.Context())
	}
}

type client struct {
	conn     *websocket.Conn
	hub      *hub.Hub
	code     string
	room     *room.Room // resolved on join
	log      *zap.SugaredLogger
	playerID string
	outbox   chan protocol.ServerMessage
}

func (c *client) run(ctx context.Context) {
	c.outbox = make(chan protocol.ServerMessage, outboxSize)

	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()
	go c.writeLoop(writeCtx)

	c.sendLobbyState(ctx)

	defer func() {
		if c.playerID != "" {
			// the room closes the outbox when it processes the leave
			c.room.Inbox() <- room.Leave{PlayerID: c.playerID}
			return
		}
		// never joined, so the room never adopted the outbox
		close(c.outbox)
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					c.log.Debugw("read failed", "player", c.playerID, "err", err)
				}
			}
			return
		}

		var env protocol.ClientMessage
		if err := json.Unmarshal(data, &env); err != nil {
			c.reject(ctx, protocol.ErrBadMessage, "bad json")
			continue
		}
		if !c.dispatch(ctx, env) {
			return
		}
	}
}

// dispatch routes one envelope. Returns false when the connection should
// close (join rejected).
func (c *client) dispatch(ctx context.Context, env protocol.ClientMessage) bool {
	if c.playerID == "" {
		if env.Type != protocol.TypeJoin {
			c.reject(ctx, protocol.ErrNotInRoom, "join first")
			return true
		}
		return c.join(ctx, env)
	}

	switch env.Type {
	case protocol.TypeJoin:
		// already joined; benign no-op

	case protocol.TypeReady:
		p, err := protocol.DecodePayload[protocol.ReadyPayload](env.Payload)
		if err != nil {
			c.reject(ctx, protocol.ErrBadMessage, err.Error())
			return true
		}
		c.room.Inbox() <- room.SetReady{PlayerID: c.playerID, Ready: p.Ready}

	case protocol.TypeSubmitSong:
		p, err := protocol.DecodePayload[protocol.SubmitSongPayload](env.Payload)
		if err != nil {
			c.reject(ctx, protocol.ErrBadMessage, err.Error())
			return true
		}
		c.room.Inbox() <- room.SubmitSong{PlayerID: c.playerID, URL: p.URL}

	case protocol.TypeSetBeatmap:
		p, err := protocol.DecodePayload[protocol.SetBeatmapPayload](env.Payload)
		if err != nil {
			c.reject(ctx, protocol.ErrBadMessage, err.Error())
			return true
		}
		c.room.Inbox() <- room.SetBeatmap{PlayerID: c.playerID, Beatmap: p.Beatmap}

	case protocol.TypeInput:
		p, err := protocol.DecodePayload[protocol.InputPayload](env.Payload)
		if err != nil {
			c.reject(ctx, protocol.ErrBadMessage, err.Error())
			return true
		}
		if _, ok := game.ParseHitResult(string(p.Result)); !ok {
			c.reject(ctx, protocol.ErrBadMessage, "bad hit result")
			return true
		}
		c.room.Inbox() <- room.Input{PlayerID: c.playerID, NoteID: p.NoteID, Result: p.Result, Timestamp: p.Timestamp}

	case protocol.TypeMiss:
		p, err := protocol.DecodePayload[protocol.MissPayload](env.Payload)
		if err != nil {
			c.reject(ctx, protocol.ErrBadMessage, err.Error())
			return true
		}
		if _, ok := game.ParseDirection(string(p.Direction)); !ok {
			c.reject(ctx, protocol.ErrBadMessage, "bad direction")
			return true
		}
		c.room.Inbox() <- room.EmptyMiss{PlayerID: c.playerID, Direction: p.Direction, Timestamp: p.Timestamp}

	default:
		c.reject(ctx, protocol.ErrUnknownMsgType, "unknown type "+env.Type)
	}
	return true
}

// sendLobbyState shows a connecting client the current lobby if the
// room already exists. Rooms themselves are created only when a join
// arrives, so a connection that never joins leaves nothing behind.
func (c *client) sendLobbyState(ctx context.Context) {
	reply := make(chan *room.Room, 1)
	select {
	case c.hub.Inbox() <- hub.GetRoom{Code: c.code, Reply: reply}:
	case <-ctx.Done():
		return
	}
	rm := <-reply
	if rm == nil {
		return
	}

	vreply := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: vreply}
	var v room.View
	select {
	case v = <-vreply:
	case <-time.After(writeTimeout):
		return // room is draining
	}

	players := make([]protocol.RoomPlayer, len(v.Players))
	for i, p := range v.Players {
		players[i] = protocol.RoomPlayer{ID: p.ID, Name: p.Name, Ready: p.Ready}
	}
	payload, err := json.Marshal(protocol.ServerMessage{Type: protocol.TypeRoomState, Payload: protocol.RoomState{
		RoomID:        c.code,
		Players:       players,
		SongSubmitted: v.HasBeatmap,
		SongURL:       v.SongURL,
	}})
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = c.conn.Write(wctx, websocket.MessageText, payload)
}

func (c *client) join(ctx context.Context, env protocol.ClientMessage) bool {
	p, err := protocol.DecodePayload[protocol.JoinPayload](env.Payload)
	if err != nil {
		c.reject(ctx, protocol.ErrBadMessage, err.Error())
		return true
	}

	// rooms are created lazily, on the first join that names their code
	rreply := make(chan *room.Room, 1)
	c.hub.Inbox() <- hub.EnsureRoom{Code: c.code, Reply: rreply}
	c.room = <-rreply

	reply := make(chan room.JoinReply, 1)
	c.room.Inbox() <- room.Join{Name: p.PlayerName, Outbox: c.outbox, Reply: reply}
	res := <-reply
	if res.Err != nil {
		// room never adopted the outbox; tell the client directly
		c.reject(ctx, protocol.ErrRoomFull, res.Err.Error())
		return false
	}
	c.playerID = res.PlayerID
	return true
}

// writeLoop drains the outbox until the room closes it or the connection
// dies. Marshalling happens here, off the room loop.
func (c *client) writeLoop(ctx context.Context) {
	for msg := range c.outbox {
		payload, err := json.Marshal(msg)
		if err != nil {
			c.log.Errorw("marshal failed", "type", msg.Type, "err", err)
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err = c.conn.Write(wctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			return
		}
	}
}

// reject writes an error message straight to the connection, bypassing
// the outbox so pre-join failures still reach the client.
func (c *client) reject(ctx context.Context, code protocol.ErrorCode, message string) {
	payload, err := json.Marshal(protocol.Error(code, message))
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = c.conn.Write(wctx, websocket.MessageText, payload)
}
