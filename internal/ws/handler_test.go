package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beatbrawl/beatbrawl-backend/internal/hub"
	"github.com/beatbrawl/beatbrawl-backend/internal/protocol"
	"github.com/beatbrawl/beatbrawl-backend/internal/room"
)

func newTestServer(t *testing.T) (*hub.Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	timing := room.Timing{Countdown: 30 * time.Millisecond, TickInterval: 5 * time.Millisecond}
	h := hub.NewHubWithTiming(ctx, zap.NewNop().Sugar(), timing)
	srv := httptest.NewServer(Handler(h, zap.NewNop().Sugar(), []string{"*"}))
	t.Cleanup(srv.Close)
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?code=" + code
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readType reads frames until one of the wanted type arrives.
func readType(t *testing.T, conn *websocket.Conn, msgType string) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err, "waiting for %s", msgType)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == msgType {
			return f
		}
	}
}

func lookupRoom(t *testing.T, h *hub.Hub, code string) *room.Room {
	t.Helper()
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	select {
	case r := <-reply:
		return r
	case <-time.After(time.Second):
		t.Fatalf("timed out getting room %s", code)
		return nil
	}
}

func TestHandler_NeverJoinedConnectionCreatesNoRoom(t *testing.T) {
	h, srv := newTestServer(t)

	conn := dial(t, srv, "GHOST1")
	require.Nil(t, lookupRoom(t, h, "GHOST1"))

	// closing without ever joining leaves nothing registered either
	conn.Close(websocket.StatusNormalClosure, "")
	time.Sleep(100 * time.Millisecond)
	require.Nil(t, lookupRoom(t, h, "GHOST1"))
}

func TestHandler_JoinCreatesRoomLeaveRemovesIt(t *testing.T) {
	h, srv := newTestServer(t)

	conn := dial(t, srv, "CCCC44")
	sendJSON(t, conn, protocol.ServerMessage{Type: protocol.TypeJoin, Payload: protocol.JoinPayload{PlayerName: "alice"}})

	f := readType(t, conn, protocol.TypeJoined)
	var joined protocol.JoinedPayload
	require.NoError(t, json.Unmarshal(f.Payload, &joined))
	require.NotEmpty(t, joined.PlayerID)
	require.NotNil(t, lookupRoom(t, h, "CCCC44"))

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool {
		return lookupRoom(t, h, "CCCC44") == nil
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_ConnectToExistingRoomSeesLobby(t *testing.T) {
	_, srv := newTestServer(t)

	alice := dial(t, srv, "DDDD55")
	sendJSON(t, alice, protocol.ServerMessage{Type: protocol.TypeJoin, Payload: protocol.JoinPayload{PlayerName: "alice"}})
	readType(t, alice, protocol.TypeJoined)

	// a second connection sees the lobby before sending anything
	bob := dial(t, srv, "DDDD55")
	f := readType(t, bob, protocol.TypeRoomState)
	var state protocol.RoomState
	require.NoError(t, json.Unmarshal(f.Payload, &state))
	require.Equal(t, "DDDD55", state.RoomID)
	require.Len(t, state.Players, 1)
	require.Equal(t, "alice", state.Players[0].Name)
}

func TestHandler_MustJoinBeforeOtherMessages(t *testing.T) {
	_, srv := newTestServer(t)

	conn := dial(t, srv, "EEEE66")
	sendJSON(t, conn, protocol.ServerMessage{Type: protocol.TypeReady, Payload: protocol.ReadyPayload{Ready: true}})

	f := readType(t, conn, protocol.TypeError)
	var e protocol.ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &e))
	require.Equal(t, protocol.ErrNotInRoom, e.Code)
}
