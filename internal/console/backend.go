package console

import (
	"context"
	"errors"
	"time"

	"github.com/park285/lanchess/internal/archive"
	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/session"
)

var ErrNoJournal = errors.New("no game journal configured")

// Backend is what the commands drive.
type Backend interface {
	Join(room string) error
	Click(sq protocol.Coordinate) error
	Drag(from, to protocol.Coordinate) error
	Undo() error
	Reset() error
	Leave() error
	Frame() (session.Frame, error)
	Snapshot(ctx context.Context) (string, error)
	History(ctx context.Context, n int) ([]archive.Record, error)
}

// SessionBackend runs commands against a live session.
type SessionBackend struct {
	Sess *session.Deps
	// DragWait bounds how long Drag waits for the origin's targets.
	DragWait time.Duration
}

func (b *SessionBackend) onLoop(fn func() error) error {
	var err error
	if cerr := b.Sess.Call(func() { err = fn() }); cerr != nil {
		return cerr
	}
	return err
}

func (b *SessionBackend) Join(room string) error {
	return b.onLoop(func() error { return b.Sess.Engine.Join(room) })
}

func (b *SessionBackend) Click(sq protocol.Coordinate) error {
	return b.onLoop(func() error {
		b.Sess.Controller.Click(sq)
		return nil
	})
}

// Drag starts a drag on from, waits until its targets resolve and drops
// on to. Off-turn or empty origins resolve at once. A drop on a square
// outside the targets is ignored by the controller.
func (b *SessionBackend) Drag(from, to protocol.Coordinate) error {
	if err := b.onLoop(func() error {
		b.Sess.Controller.DragStart(from)
		return nil
	}); err != nil {
		return err
	}
	wait := b.DragWait
	if wait <= 0 {
		wait = b.Sess.Config.QueryTimeout + 500*time.Millisecond
	}
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		f, err := b.Sess.CurrentFrame()
		if err != nil {
			return err
		}
		if f.Interaction.Selected != from || !f.Interaction.Pending {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	return b.onLoop(func() error {
		b.Sess.Controller.Drop(to)
		return nil
	})
}

func (b *SessionBackend) Undo() error  { return b.onLoop(b.Sess.Engine.Undo) }
func (b *SessionBackend) Reset() error { return b.onLoop(b.Sess.Engine.Reset) }
func (b *SessionBackend) Leave() error { return b.onLoop(b.Sess.Engine.Leave) }

func (b *SessionBackend) Frame() (session.Frame, error) { return b.Sess.CurrentFrame() }

func (b *SessionBackend) Snapshot(ctx context.Context) (string, error) {
	return b.Sess.SaveSnapshot(ctx)
}

func (b *SessionBackend) History(ctx context.Context, n int) ([]archive.Record, error) {
	if b.Sess.Journal == nil {
		return nil, ErrNoJournal
	}
	f, err := b.Sess.CurrentFrame()
	if err != nil {
		return nil, err
	}
	return b.Sess.Journal.Recent(ctx, f.View.RoomID, n)
}
