package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/beatbrawl/beatbrawl-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

// EnsureRoom returns the room for a code, creating it on first use.
// Sessions are created lazily on first join and torn down when empty.
type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub owns the code -> room mapping. Like the rooms themselves it is an
// actor: a single goroutine serializes every lookup and removal, so no
// mutable state is shared between rooms or with the HTTP layer.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	timing room.Timing
	log    *zap.SugaredLogger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, log *zap.SugaredLogger) *Hub {
	return NewHubWithTiming(parent, log, room.DefaultTiming())
}

// NewHubWithTiming exists so tests can shrink the countdown and tick
// intervals of every room the hub creates.
func NewHubWithTiming(parent context.Context, log *zap.SugaredLogger, timing room.Timing) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		timing: timing,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				msg.Reply <- h.ensure(msg.Code)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				h.remove(msg.Code)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) ensure(code string) *room.Room {
	if r := h.rooms[code]; r != nil {
		return r
	}
	r := room.New(h.ctx, code, h.log, h.timing, h.requestRemove)
	h.rooms[code] = r
	h.log.Infow("room created", "room", code)
	return r
}

func (h *Hub) remove(code string) {
	r, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(h.rooms, code)
	h.log.Infow("room removed", "room", code)
	select {
	case r.Inbox() <- room.Shutdown{}:
	default:
		// the room is already draining; context cancellation covers it
	}
}

// requestRemove is invoked from inside a room's loop when its last player
// leaves; the removal itself still happens on the hub loop.
func (h *Hub) requestRemove(code string) {
	select {
	case h.inbox <- RemoveRoom{Code: code}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) shutdown() {
	for code, r := range h.rooms {
		select {
		case r.Inbox() <- room.Shutdown{}:
		default:
		}
		delete(h.rooms, code)
	}
	h.cancel()
}
