// Package syncengine applies authority events to the ViewModel and turns
// player intent into outbound messages.
//
// Every exported method except OnMessage and OnState must run on the loop
// goroutine. OnMessage and OnState are transport callbacks and post to it.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/transport"
	"github.com/park285/lanchess/internal/viewmodel"
)

// LegalMovesQuerier answers the advisory "where can this piece go" question.
type LegalMovesQuerier interface {
	LegalMoves(ctx context.Context, room string, square protocol.Coordinate) (protocol.CoordSet, error)
}

// PostFunc schedules a task on the loop goroutine.
type PostFunc func(task func()) error

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrNoRoom      = errors.New("no room joined")
	ErrEmptyRoom   = errors.New("room code is empty")
)

type Engine struct {
	store   *viewmodel.Store
	emitter transport.Emitter
	query   LegalMovesQuerier
	post    PostFunc
	timeout time.Duration
	logger  *zap.Logger

	// epoch changes on every reset; queries started in an older epoch are stale.
	epoch     uint64
	listeners []func(Change)
}

type Option func(*Engine)

func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New wires an engine. emitter and query are capabilities of the shared
// transport; the engine never opens or closes them.
func New(store *viewmodel.Store, emitter transport.Emitter, query LegalMovesQuerier, post PostFunc, opts ...Option) *Engine {
	if store == nil {
		store = viewmodel.NewStore()
	}
	e := &Engine{
		store:   store,
		emitter: emitter,
		query:   query,
		post:    post,
		timeout: 5 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// View returns the live ViewModel for read-only use on the loop.
func (e *Engine) View() *viewmodel.ViewModel { return e.store.Current() }

// Snapshot returns an independent copy for use off the loop.
func (e *Engine) Snapshot() viewmodel.ViewModel { return e.store.Snapshot() }

// Subscribe registers fn to run on the loop after every applied change.
func (e *Engine) Subscribe(fn func(Change)) {
	if fn != nil {
		e.listeners = append(e.listeners, fn)
	}
}

// OnMessage is a transport message callback.
func (e *Engine) OnMessage(env protocol.Envelope) {
	e.schedule("inbound_"+env.Event, func() { e.HandleEvent(env) })
}

// OnState is a transport state callback.
func (e *Engine) OnState(state transport.State) {
	e.schedule("state_"+state.String(), func() { e.HandleConnection(state) })
}

func (e *Engine) schedule(what string, task func()) {
	if e.post == nil {
		task()
		return
	}
	if err := e.post(task); err != nil {
		e.logger.Debug("sync_post_dropped", zap.String("task", what), zap.Error(err))
	}
}

// HandleEvent applies one inbound event. Invalid payloads are logged and
// leave the ViewModel untouched.
func (e *Engine) HandleEvent(env protocol.Envelope) {
	switch env.Event {
	case protocol.EventPosition:
		p, err := protocol.DecodePosition(env.Data)
		if err != nil {
			e.reject(env, err)
			return
		}
		e.applyPosition(p)
	case protocol.EventColor:
		c, err := protocol.DecodeColor(env.Data)
		if err != nil {
			e.reject(env, err)
			return
		}
		e.apply(ChangeColor, func(vm *viewmodel.ViewModel) { vm.AssignedColor = c })
	case protocol.EventStatus:
		s, err := protocol.DecodeStatus(env.Data)
		if err != nil {
			e.reject(env, err)
			return
		}
		e.apply(ChangeStatus, func(vm *viewmodel.ViewModel) { vm.Status = viewmodel.Status(s) })
	case protocol.EventGameID:
		id, err := protocol.DecodeGameID(env.Data)
		if err != nil {
			e.reject(env, err)
			return
		}
		e.apply(ChangeRoom, func(vm *viewmodel.ViewModel) { vm.RoomID = id })
	case protocol.EventTerminate:
		e.reset("terminate")
	default:
		e.logger.Debug("sync_event_ignored", zap.String("event", env.Event))
	}
}

// HandleConnection reacts to transport state. Losing the connection ends
// the session exactly like terminate.
func (e *Engine) HandleConnection(state transport.State) {
	switch {
	case state == transport.StateConnected:
		if !e.store.Current().Connected {
			e.apply(ChangeConnection, func(vm *viewmodel.ViewModel) { vm.Connected = true })
		}
	case state.Down():
		e.store.Update(func(vm *viewmodel.ViewModel) { vm.Connected = false })
		e.reset("disconnect")
	}
}

// HandleDisconnect is HandleConnection(StateDisconnected).
func (e *Engine) HandleDisconnect() { e.HandleConnection(transport.StateDisconnected) }

func (e *Engine) reject(env protocol.Envelope, err error) {
	e.logger.Warn("sync_payload_rejected", zap.String("event", env.Event), zap.Error(err))
}

func (e *Engine) applyPosition(p protocol.PositionPayload) {
	cur := e.store.Current()
	if p.Seq != 0 && p.Seq <= cur.LastSeq {
		e.logger.Debug("sync_position_stale", zap.Uint64("seq", p.Seq), zap.Uint64("last_seq", cur.LastSeq))
		return
	}
	prevLen := len(cur.History)
	e.store.Update(func(vm *viewmodel.ViewModel) {
		vm.Board = p.Position
		vm.Turn = p.Turn
		vm.IsCheck = p.IsCheck
		vm.GameOver = p.GameOver()
		vm.History = p.History
		if p.Seq != 0 {
			vm.LastSeq = p.Seq
		}
	})
	e.logger.Debug("sync_position_applied",
		zap.String("turn", string(p.Turn)),
		zap.Int("history", len(p.History)),
		zap.Bool("check", p.IsCheck),
		zap.Bool("game_over", p.GameOver().Over),
	)
	e.notify(Change{Kind: ChangePosition, PrevHistoryLen: prevLen, HistoryLen: len(p.History)})
}

func (e *Engine) apply(kind ChangeKind, fn func(vm *viewmodel.ViewModel)) {
	e.store.Update(fn)
	n := len(e.store.Current().History)
	e.notify(Change{Kind: kind, PrevHistoryLen: n, HistoryLen: n})
}

func (e *Engine) reset(reason string) {
	prevLen := len(e.store.Current().History)
	e.epoch++
	e.store.Reset()
	e.logger.Info("sync_session_reset", zap.String("reason", reason), zap.Uint64("epoch", e.epoch))
	e.notify(Change{Kind: ChangeReset, PrevHistoryLen: prevLen})
}

func (e *Engine) notify(ch Change) {
	for _, fn := range e.listeners {
		fn(ch)
	}
}

// RequestLegalTargets queries destinations for origin and hands them to
// done on the loop. Off-turn requests resolve to an empty set at once with
// no network traffic. Failures resolve to an empty set. A result that
// lands after the session, the room or the turn moved on is dropped and
// done is not called.
func (e *Engine) RequestLegalTargets(origin protocol.Coordinate, done func(protocol.CoordSet)) {
	if done == nil {
		done = func(protocol.CoordSet) {}
	}
	vm := e.store.Current()
	if !vm.IsMyTurn() || !origin.Valid() || e.query == nil {
		done(protocol.CoordSet{})
		return
	}

	tk := e.ticket()
	room := vm.RoomID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		set, err := e.query.LegalMoves(ctx, room, origin)
		cancel()
		if err != nil {
			e.logger.Warn("targets_query_failed", zap.String("square", string(origin)), zap.Error(err))
			set = protocol.CoordSet{}
		}
		e.schedule("targets_result", func() {
			if reason := e.staleReason(tk); reason != "" {
				e.logger.Debug("targets_result_stale", zap.String("square", string(origin)), zap.String("reason", reason))
				return
			}
			done(set)
		})
	}()
}

type ticket struct {
	epoch uint64
	room  string
	turn  protocol.Color
}

func (e *Engine) ticket() ticket {
	vm := e.store.Current()
	return ticket{epoch: e.epoch, room: vm.RoomID, turn: vm.Turn}
}

func (e *Engine) staleReason(t ticket) string {
	vm := e.store.Current()
	switch {
	case t.epoch != e.epoch:
		return "session reset"
	case t.room != vm.RoomID:
		return "room changed"
	case t.turn != vm.Turn || !vm.IsMyTurn():
		return "turn changed"
	}
	return ""
}

// SubmitMove emits the move intent. It never touches the ViewModel; the
// outcome arrives as a later position event.
func (e *Engine) SubmitMove(origin, destination protocol.Coordinate) error {
	vm := e.store.Current()
	if !vm.IsMyTurn() {
		return ErrNotYourTurn
	}
	if vm.RoomID == "" {
		return ErrNoRoom
	}
	mv, err := protocol.NewMove(vm.RoomID, origin, destination)
	if err != nil {
		return err
	}
	return e.emit(protocol.EventMove, mv)
}

// Join asks to join or create room.
func (e *Engine) Join(room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return ErrEmptyRoom
	}
	return e.emit(protocol.EventJoin, room)
}

func (e *Engine) Undo() error  { return e.roomIntent(protocol.EventUndo) }
func (e *Engine) Reset() error { return e.roomIntent(protocol.EventReset) }
func (e *Engine) Leave() error { return e.roomIntent(protocol.EventLeave) }

func (e *Engine) roomIntent(event string) error {
	room := e.store.Current().RoomID
	if room == "" {
		return ErrNoRoom
	}
	return e.emit(event, room)
}

func (e *Engine) emit(event string, data any) error {
	if e.emitter == nil {
		return transport.ErrNotConnected
	}
	if err := e.emitter.Emit(event, data); err != nil {
		e.logger.Warn("sync_emit_failed", zap.String("event", event), zap.Error(err))
		return fmt.Errorf("emit %s: %w", event, err)
	}
	e.logger.Debug("sync_emit", zap.String("event", event))
	return nil
}
