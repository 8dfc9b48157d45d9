package tui

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/session"
	"github.com/park285/lanchess/internal/syncengine"
)

// SessionActions posts every intent to the session loop and reports
// failures through notify.
type SessionActions struct {
	Sess   *session.Deps
	Notify func(string)
	Logger *zap.Logger
}

func (a *SessionActions) do(task func()) {
	if err := a.Sess.Do(task); err != nil && a.Logger != nil {
		a.Logger.Warn("tui_post_failed", zap.Error(err))
	}
}

func (a *SessionActions) Click(sq protocol.Coordinate) {
	a.do(func() { a.Sess.Controller.Click(sq) })
}

func (a *SessionActions) DragStart(sq protocol.Coordinate) {
	a.do(func() { a.Sess.Controller.DragStart(sq) })
}

func (a *SessionActions) Drop(sq protocol.Coordinate) {
	a.do(func() { a.Sess.Controller.Drop(sq) })
}

func (a *SessionActions) ClearSelection() {
	a.do(func() { a.Sess.Controller.Clear() })
}

func (a *SessionActions) Join(room string) {
	a.intent("join", func() error { return a.Sess.Engine.Join(room) })
}

func (a *SessionActions) Undo()  { a.intent("undo", a.Sess.Engine.Undo) }
func (a *SessionActions) Reset() { a.intent("reset", a.Sess.Engine.Reset) }
func (a *SessionActions) Leave() { a.intent("leave", a.Sess.Engine.Leave) }

func (a *SessionActions) intent(name string, fn func() error) {
	a.do(func() {
		err := fn()
		if err == nil {
			return
		}
		msg := a.Sess.Catalog.Text("status.action_failed", map[string]any{"Action": name, "Err": err.Error()})
		if errors.Is(err, syncengine.ErrNotYourTurn) {
			msg = a.Sess.Catalog.Text("status.not_your_turn", nil)
		}
		a.notify(msg)
	})
}

// Snapshot renders off both the loop and the tview goroutine.
func (a *SessionActions) Snapshot() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		path, err := a.Sess.SaveSnapshot(ctx)
		if err != nil {
			a.notify(a.Sess.Catalog.Text("status.snapshot_failed", map[string]any{"Err": err.Error()}))
			return
		}
		a.notify(a.Sess.Catalog.Text("status.snapshot_saved", map[string]any{"Path": path}))
	}()
}

func (a *SessionActions) notify(msg string) {
	if a.Notify != nil {
		a.Notify(msg)
	}
}
