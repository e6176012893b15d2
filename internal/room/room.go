package room

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beatbrawl/beatbrawl-backend/internal/game"
	"github.com/beatbrawl/beatbrawl-backend/internal/protocol"
)

var ErrRoomFull = errors.New("room is full")

const inboxSize = 256

// Timing groups the durations the tests need to shrink. Zero fields fall
// back to the gameplay defaults.
type Timing struct {
	Countdown    time.Duration
	TickInterval time.Duration
}

func DefaultTiming() Timing {
	return Timing{Countdown: game.CountdownDuration, TickInterval: game.TickInterval}
}

type slot struct {
	id     string
	name   string
	ready  bool
	state  game.PlayerState
	outbox chan protocol.ServerMessage

	// wall-clock ms of the last evaluated empty miss per direction
	lastMiss map[game.Direction]int64
}

// Room is the authoritative session for one room code: player directory,
// state machine, countdown, and tick scheduler, all driven by a single
// goroutine selecting over the inbox and the ticker.
type Room struct {
	code   string
	log    *zap.SugaredLogger
	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	timing Timing

	// called (from the loop) when the last player leaves
	onEmpty func(code string)

	players []*slot // join order, at most two
	songURL string
	beatmap *game.Beatmap

	status       game.Status
	countdownGen int
	countdown    *time.Timer
	startedAt    time.Time
	currentTime  int64
	winner       string
	ticker       *time.Ticker
	ledgers      map[string]*game.Ledger

	// clients whose outboxes overflowed during the handler that is
	// currently running; drained by the loop between handlers
	stalled []string
}

func New(parent context.Context, code string, log *zap.SugaredLogger, timing Timing, onEmpty func(string)) *Room {
	if timing.Countdown <= 0 {
		timing.Countdown = game.CountdownDuration
	}
	if timing.TickInterval <= 0 {
		timing.TickInterval = game.TickInterval
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		code:    code,
		log:     log.With("room", code),
		inbox:   make(chan Msg, inboxSize),
		ctx:     ctx,
		cancel:  cancel,
		timing:  timing,
		onEmpty: onEmpty,
		status:  game.StatusWaiting,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Code() string { return r.code }

func (r *Room) loop() {
	for {
		// ticker exists only while playing; a nil channel never fires
		var tickC <-chan time.Time
		if r.ticker != nil {
			tickC = r.ticker.C
		}

		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case <-tickC:
			r.tick()
			r.dropStalled()

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case Leave:
				r.handleLeave(msg.PlayerID)
			case SetReady:
				r.handleSetReady(msg)
			case SubmitSong:
				r.handleSubmitSong(msg)
			case SetBeatmap:
				r.handleSetBeatmap(msg)
			case Input:
				r.handleInput(msg)
			case EmptyMiss:
				r.handleEmptyMiss(msg)
			case countdownFired:
				r.handleCountdownFired(msg.gen)
			case GetState:
				msg.Reply <- r.view()
			case Shutdown:
				r.shutdown()
				return
			}
			r.dropStalled()
		}
	}
}

// dropStalled removes clients whose outboxes overflowed. Drops never
// run inside a handler: broadcast only records the stall so the player
// slice stays stable while handlers iterate it. The leave broadcasts
// can stall the other client in turn, so drain until quiet.
func (r *Room) dropStalled() {
	for len(r.stalled) > 0 {
		pending := r.stalled
		r.stalled = nil
		for _, id := range pending {
			if r.indexOf(id) == -1 {
				continue
			}
			r.log.Warnw("dropping slow client", "player", id)
			r.handleLeave(id)
		}
	}
}

func (r *Room) shutdown() {
	r.stopTicker()
	r.stopCountdown()
	for _, s := range r.players {
		close(s.outbox)
	}
	r.players = nil
	r.cancel()
}

func (r *Room) handleJoin(msg Join) {
	if len(r.players) >= 2 {
		msg.Reply <- JoinReply{Err: ErrRoomFull}
		return
	}

	id := uuid.NewString()
	s := &slot{
		id:       id,
		name:     msg.Name,
		state:    game.NewPlayerState(id),
		outbox:   msg.Outbox,
		lastMiss: make(map[game.Direction]int64),
	}
	r.players = append(r.players, s)
	msg.Reply <- JoinReply{PlayerID: id}

	r.log.Infow("player joined", "player", id, "name", msg.Name)

	r.send(s, protocol.ServerMessage{Type: protocol.TypeJoined, Payload: protocol.JoinedPayload{PlayerID: id}})
	r.broadcast(protocol.ServerMessage{Type: protocol.TypePlayerJoined, Payload: protocol.PlayerJoinedPayload{Player: s.state}})
	r.broadcastRoomState()
}

func (r *Room) handleLeave(playerID string) {
	idx := r.indexOf(playerID)
	if idx == -1 {
		return
	}
	s := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	close(s.outbox)

	r.log.Infow("player left", "player", playerID, "status", r.status)

	// a leave mid-countdown invalidates the pending start
	if r.status == game.StatusCountdown {
		r.stopCountdown()
		r.countdownGen++
		r.status = game.StatusWaiting
	}

	r.broadcast(protocol.ServerMessage{Type: protocol.TypePlayerLeft, Payload: protocol.PlayerLeftPayload{PlayerID: playerID}})
	r.broadcastRoomState()

	if r.status == game.StatusPlaying && len(r.players) == 1 {
		// forfeit: the remaining player wins unconditionally
		r.endGame(r.players[0].id)
	}

	if len(r.players) == 0 && r.onEmpty != nil {
		r.onEmpty(r.code)
	}
}

func (r *Room) handleSetReady(msg SetReady) {
	s := r.player(msg.PlayerID)
	if s == nil {
		return
	}
	switch r.status {
	case game.StatusWaiting:
	case game.StatusCountdown:
		if msg.Ready {
			return
		}
		// backing out during the countdown cancels it
		r.stopCountdown()
		r.countdownGen++
		r.status = game.StatusWaiting
	default:
		// benign no-op while playing or finished
		return
	}

	s.ready = msg.Ready
	r.broadcast(protocol.ServerMessage{Type: protocol.TypePlayerReady, Payload: protocol.PlayerReadyPayload{PlayerID: s.id, Ready: s.ready}})
	r.broadcastRoomState()
	r.maybeStartCountdown()
}

func (r *Room) handleSubmitSong(msg SubmitSong) {
	if r.player(msg.PlayerID) == nil {
		return
	}
	r.songURL = msg.URL
	r.broadcastRoomState()
}

func (r *Room) handleSetBeatmap(msg SetBeatmap) {
	s := r.player(msg.PlayerID)
	if s == nil {
		return
	}
	if r.beatmap != nil {
		// first submission wins
		r.send(s, protocol.Error(protocol.ErrBeatmapAlreadySet, "beatmap already submitted"))
		return
	}
	bm := msg.Beatmap
	if err := bm.Validate(); err != nil {
		r.send(s, protocol.Error(protocol.ErrBadBeatmap, err.Error()))
		return
	}
	if bm.ID == "" {
		bm.ID = uuid.NewString()
	}
	r.beatmap = &bm

	r.log.Infow("beatmap set", "beatmap", bm.ID, "notes", len(bm.Notes))

	r.broadcast(protocol.ServerMessage{Type: protocol.TypeBeatmapReceived, Payload: protocol.BeatmapReceivedPayload{Beatmap: bm}})
	r.broadcastRoomState()
	r.maybeStartCountdown()
}

func (r *Room) maybeStartCountdown() {
	if r.status != game.StatusWaiting || len(r.players) != 2 || r.beatmap == nil {
		return
	}
	for _, s := range r.players {
		if !s.ready {
			return
		}
	}

	r.status = game.StatusCountdown
	r.countdownGen++
	gen := r.countdownGen
	startAt := time.Now().Add(r.timing.Countdown)

	r.log.Infow("countdown started", "startAt", startAt.UnixMilli())
	r.broadcast(protocol.ServerMessage{Type: protocol.TypeCountdownStart, Payload: protocol.CountdownStartPayload{StartAt: startAt.UnixMilli()}})

	r.countdown = time.AfterFunc(r.timing.Countdown, func() {
		select {
		case r.inbox <- countdownFired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) handleCountdownFired(gen int) {
	if r.status != game.StatusCountdown || gen != r.countdownGen {
		return // stale fire
	}
	r.countdown = nil
	// re-validate: the room may have changed while the timer was armed
	if len(r.players) != 2 || r.beatmap == nil {
		r.status = game.StatusWaiting
		return
	}
	for _, s := range r.players {
		if !s.ready {
			r.status = game.StatusWaiting
			return
		}
	}
	r.startGame()
}

func (r *Room) startGame() {
	r.status = game.StatusPlaying
	r.startedAt = time.Now()
	r.currentTime = 0
	r.ledgers = make(map[string]*game.Ledger, len(r.players))
	for _, s := range r.players {
		r.ledgers[s.id] = game.NewLedger(r.beatmap)
	}
	r.ticker = time.NewTicker(r.timing.TickInterval)

	r.log.Infow("game started", "beatmap", r.beatmap.ID)
	r.broadcast(protocol.ServerMessage{Type: protocol.TypeGameStart, Payload: protocol.GameStartPayload{Beatmap: *r.beatmap}})
}

// tick recomputes the clock from the recorded start (never by summing
// per-tick deltas), checks termination, sweeps auto-misses, and
// broadcasts the snapshot.
func (r *Room) tick() {
	if r.status != game.StatusPlaying {
		return
	}
	r.currentTime = time.Since(r.startedAt).Milliseconds()

	if r.currentTime >= r.beatmap.Duration || r.anyDead() {
		r.endGame("")
		return
	}

	for i, s := range r.players {
		opp := r.players[1-i]
		for _, noteID := range r.ledgers[s.id].Sweep(r.currentTime) {
			damage := game.ApplyOutcome(&s.state, opp.state.Combo, game.HitMiss)
			r.broadcast(protocol.ServerMessage{Type: protocol.TypeHitRegistered, Payload: protocol.HitRegisteredPayload{PlayerID: s.id, NoteID: noteID, Result: game.HitMiss}})
			r.broadcast(protocol.ServerMessage{Type: protocol.TypeDamageDealt, Payload: protocol.DamageDealtPayload{FromID: opp.id, ToID: s.id, Damage: damage}})
		}
	}
	if r.anyDead() {
		r.endGame("")
		return
	}

	r.broadcast(protocol.ServerMessage{Type: protocol.TypeGameUpdate, Payload: protocol.GameUpdatePayload{
		Players:     r.playerStates(),
		CurrentTime: r.currentTime,
		Status:      r.status,
	}})
}

func (r *Room) handleInput(msg Input) {
	if r.status != game.StatusPlaying {
		return
	}
	idx := r.indexOf(msg.PlayerID)
	if idx == -1 {
		return
	}
	s := r.players[idx]
	opp := r.players[1-idx]

	// unknown ids and duplicate reports are no-ops
	if !r.ledgers[s.id].Resolve(msg.NoteID, msg.Result) {
		return
	}

	damage := game.ApplyOutcome(&s.state, opp.state.Combo, msg.Result)
	if msg.Result == game.HitMiss {
		r.broadcast(protocol.ServerMessage{Type: protocol.TypeDamageDealt, Payload: protocol.DamageDealtPayload{FromID: opp.id, ToID: s.id, Damage: damage}})
	}
	r.broadcast(protocol.ServerMessage{Type: protocol.TypeHitRegistered, Payload: protocol.HitRegisteredPayload{PlayerID: s.id, NoteID: msg.NoteID, Result: msg.Result}})
}

func (r *Room) handleEmptyMiss(msg EmptyMiss) {
	if r.status != game.StatusPlaying {
		return
	}
	idx := r.indexOf(msg.PlayerID)
	if idx == -1 {
		return
	}
	s := r.players[idx]
	opp := r.players[1-idx]

	wall := time.Now().UnixMilli()
	if last, ok := s.lastMiss[msg.Direction]; ok && wall-last < game.InputCooldown {
		return // key repeat
	}
	s.lastMiss[msg.Direction] = wall

	damage := game.ApplyOutcome(&s.state, opp.state.Combo, game.HitMiss)
	r.broadcast(protocol.ServerMessage{Type: protocol.TypeDamageDealt, Payload: protocol.DamageDealtPayload{FromID: opp.id, ToID: s.id, Damage: damage}})
	r.broadcast(protocol.ServerMessage{Type: protocol.TypeHitRegistered, Payload: protocol.HitRegisteredPayload{PlayerID: s.id, NoteID: "empty", Result: game.HitMiss}})
}

// endGame runs exactly once per session. forfeitWinner is set when a
// disconnect decided the outcome; otherwise the winner comes from the
// players' hit points.
func (r *Room) endGame(forfeitWinner string) {
	if r.status == game.StatusFinished {
		return
	}
	r.stopTicker()
	r.status = game.StatusFinished

	winner := forfeitWinner
	if winner == "" && len(r.players) == 2 {
		winner = game.ResolveWinner(r.players[0].state, r.players[1].state)
	}
	r.winner = winner

	r.log.Infow("game ended", "winner", winner, "currentTime", r.currentTime)

	r.broadcast(protocol.ServerMessage{Type: protocol.TypeGameEnd, Payload: protocol.GameEndPayload{
		Winner: winner,
		FinalState: protocol.FinalState{
			RoomID:      r.code,
			Status:      r.status,
			Players:     r.playerStates(),
			CurrentTime: r.currentTime,
			Winner:      winner,
		},
	}})
}

func (r *Room) stopTicker() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

// stopCountdown releases a pending countdown timer. The generation
// guard already discards a fire that slips in before the Stop.
func (r *Room) stopCountdown() {
	if r.countdown != nil {
		r.countdown.Stop()
		r.countdown = nil
	}
}

func (r *Room) anyDead() bool {
	for _, s := range r.players {
		if s.state.HP <= 0 {
			return true
		}
	}
	return false
}

func (r *Room) player(id string) *slot {
	if idx := r.indexOf(id); idx != -1 {
		return r.players[idx]
	}
	return nil
}

func (r *Room) indexOf(id string) int {
	for i, s := range r.players {
		if s.id == id {
			return i
		}
	}
	return -1
}

func (r *Room) playerStates() []game.PlayerState {
	out := make([]game.PlayerState, len(r.players))
	for i, s := range r.players {
		out[i] = s.state
	}
	return out
}

func (r *Room) roomState() protocol.RoomState {
	players := make([]protocol.RoomPlayer, len(r.players))
	for i, s := range r.players {
		players[i] = protocol.RoomPlayer{ID: s.id, Name: s.name, Ready: s.ready}
	}
	return protocol.RoomState{
		RoomID:        r.code,
		Players:       players,
		SongSubmitted: r.beatmap != nil,
		SongURL:       r.songURL,
	}
}

func (r *Room) broadcastRoomState() {
	r.broadcast(protocol.ServerMessage{Type: protocol.TypeRoomState, Payload: r.roomState()})
}

// broadcast fans a message out to every connected player. A client whose
// outbox is full is marked stalled; the loop drops them through the
// normal leave path (forfeiting the game if one is running) once the
// current handler finishes.
func (r *Room) broadcast(msg protocol.ServerMessage) {
	for _, s := range r.players {
		select {
		case s.outbox <- msg:
		default:
			r.stalled = append(r.stalled, s.id)
		}
	}
}

func (r *Room) send(s *slot, msg protocol.ServerMessage) {
	select {
	case s.outbox <- msg:
	default:
		// slow client; the next broadcast will drop them
	}
}

func (r *Room) view() View {
	players := make([]PlayerView, len(r.players))
	for i, s := range r.players {
		players[i] = PlayerView{ID: s.id, Name: s.name, Ready: s.ready, State: s.state}
	}
	return View{
		Status:      r.status,
		Players:     players,
		CurrentTime: r.currentTime,
		Winner:      r.winner,
		HasBeatmap:  r.beatmap != nil,
		SongURL:     r.songURL,
	}
}
