package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/interaction"
	"github.com/park285/lanchess/internal/render"
	"github.com/park285/lanchess/internal/viewmodel"
)

// Frame is an immutable render input built on the loop.
type Frame struct {
	Seq         uint64
	View        viewmodel.ViewModel
	Interaction interaction.State
	Board       render.BoardView
	Panel       render.PanelView
	Turn        string
	Status      string
}

func (d *Deps) frame() Frame {
	d.frameSeq++
	vm := d.Engine.Snapshot()
	st := d.Controller.State()
	f := Frame{
		Seq:         d.frameSeq,
		View:        vm,
		Interaction: st,
		Board:       render.Board(&vm, st, d.Catalog),
		Panel:       render.Panel(&vm, d.Catalog),
		Turn:        render.TurnLine(&vm, d.Catalog),
	}
	if vm.Connected {
		f.Status = d.Catalog.Text("status.connected", map[string]any{"URL": d.Config.WSURL})
	} else {
		f.Status = d.Catalog.Text("status.disconnected", nil)
	}
	return f
}

// SaveSnapshot writes the current board as a PNG into the configured
// snapshot directory and returns its path.
func (d *Deps) SaveSnapshot(ctx context.Context) (string, error) {
	f, err := d.CurrentFrame()
	if err != nil {
		return "", err
	}
	data, err := render.SnapshotPNG(ctx, f.Board, render.SnapshotOptions{})
	if err != nil {
		return "", fmt.Errorf("render snapshot: %w", err)
	}
	dir := strings.TrimSpace(d.Config.SnapshotDir)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot dir: %w", err)
	}
	path := filepath.Join(dir, snapshotName(f.View.RoomID, time.Now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	d.logger.Info("snapshot_saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}

func snapshotName(room string, now time.Time) string {
	room = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, room)
	if room == "" {
		room = "lobby"
	}
	return fmt.Sprintf("lanchess-%s-%s.png", room, now.Format("20060102-150405.000"))
}
