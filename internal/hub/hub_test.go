package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beatbrawl/beatbrawl-backend/internal/protocol"
	"github.com/beatbrawl/beatbrawl-backend/internal/room"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	timing := room.Timing{Countdown: 30 * time.Millisecond, TickInterval: 5 * time.Millisecond}
	return NewHubWithTiming(ctx, zap.NewNop().Sugar(), timing)
}

func getRoom(t *testing.T, h *Hub, code string) *room.Room {
	t.Helper()
	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{Code: code, Reply: reply}
	select {
	case r := <-reply:
		return r
	case <-time.After(time.Second):
		t.Fatalf("timed out getting room %s", code)
		return nil
	}
}

func TestHub_EnsureThenGetSamePointer(t *testing.T) {
	h := newTestHub(t)

	reply := make(chan *room.Room, 1)
	h.Inbox() <- EnsureRoom{Code: "AAAA22", Reply: reply}
	r1 := <-reply

	h.Inbox() <- EnsureRoom{Code: "AAAA22", Reply: reply}
	r2 := <-reply

	require.NotNil(t, r1)
	require.Same(t, r1, r2)
	require.Same(t, r1, getRoom(t, h, "AAAA22"))
}

func TestHub_GetUnknownCodeIsNil(t *testing.T) {
	h := newTestHub(t)
	require.Nil(t, getRoom(t, h, "NOPE99"))
}

func TestHub_RoomRemovedWhenEmptied(t *testing.T) {
	h := newTestHub(t)

	reply := make(chan *room.Room, 1)
	h.Inbox() <- EnsureRoom{Code: "BBBB33", Reply: reply}
	r := <-reply

	out := make(chan protocol.ServerMessage, 64)
	joinReply := make(chan room.JoinReply, 1)
	r.Inbox() <- room.Join{Name: "alice", Outbox: out, Reply: joinReply}
	res := <-joinReply
	require.NoError(t, res.Err)

	r.Inbox() <- room.Leave{PlayerID: res.PlayerID}

	// the room reports itself empty; the hub forgets the code
	require.Eventually(t, func() bool {
		return getRoom(t, h, "BBBB33") == nil
	}, time.Second, 10*time.Millisecond)

	// a fresh join on the same code gets a fresh room
	h.Inbox() <- EnsureRoom{Code: "BBBB33", Reply: reply}
	fresh := <-reply
	require.NotNil(t, fresh)
	require.NotSame(t, r, fresh)
}
