package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/render"
)

func (r *Registry) registerGameCommands() {
	r.Register(&Command{Name: "join", ShortName: "j", Usage: "join <room>", Handler: r.join})
	r.Register(&Command{Name: "select", ShortName: "s", Usage: "select <square>", Handler: r.selectSquare})
	r.Register(&Command{Name: "move", ShortName: "m", Usage: "move <from> <to>", Handler: r.move})
	r.Register(&Command{Name: "undo", Usage: "undo", Handler: func([]string) error { return r.backend.Undo() }})
	r.Register(&Command{Name: "reset", Usage: "reset", Handler: func([]string) error { return r.backend.Reset() }})
	r.Register(&Command{Name: "leave", Usage: "leave", Handler: r.leave})
	r.Register(&Command{Name: "board", ShortName: "b", Usage: "board", Handler: r.board})
	r.Register(&Command{Name: "snapshot", Usage: "snapshot", Handler: r.snapshot})
	r.Register(&Command{Name: "history", ShortName: "h", Usage: "history [n]", Handler: r.history})
}

func usage(cmd string) error { return fmt.Errorf("usage: %s", cmd) }

func (r *Registry) join(args []string) error {
	if len(args) != 1 {
		return usage("join <room>")
	}
	return r.backend.Join(args[0])
}

func (r *Registry) selectSquare(args []string) error {
	if len(args) != 1 {
		return usage("select <square>")
	}
	sq, err := protocol.ParseCoordinate(args[0])
	if err != nil {
		return err
	}
	return r.backend.Click(sq)
}

// move accepts "e2 e4" or "e2e4".
func (r *Registry) move(args []string) error {
	if len(args) == 1 && len(args[0]) == 4 {
		args = []string{args[0][:2], args[0][2:]}
	}
	if len(args) != 2 {
		return usage("move <from> <to>")
	}
	from, err := protocol.ParseCoordinate(args[0])
	if err != nil {
		return err
	}
	to, err := protocol.ParseCoordinate(args[1])
	if err != nil {
		return err
	}
	return r.backend.Drag(from, to)
}

// leave asks for a "leave yes" when this player hosts the room.
func (r *Registry) leave(args []string) error {
	f, err := r.backend.Frame()
	if err != nil {
		return err
	}
	confirmed := len(args) == 1 && strings.EqualFold(args[0], "yes")
	if f.View.NeedsLeaveConfirmation() && !confirmed {
		msg := r.cat.Text("status.leave_confirm", map[string]any{"Room": f.View.RoomID})
		msg = strings.TrimSpace(strings.TrimSuffix(msg, "(y/n)"))
		r.printf("%s\n", paint(r.color, yellow, msg+" (leave yes)"))
		return nil
	}
	return r.backend.Leave()
}

func (r *Registry) board([]string) error {
	f, err := r.backend.Frame()
	if err != nil {
		return err
	}
	RenderBoard(r.out, f.Board, r.color)
	if moves := render.MoveList(&f.View); len(moves) > 0 {
		r.printf("%s\n", strings.Join(moves, "\n"))
	}
	if f.Turn != "" {
		r.printf("%s\n", f.Turn)
	}
	return nil
}

func (r *Registry) snapshot([]string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	path, err := r.backend.Snapshot(ctx)
	if err != nil {
		return err
	}
	r.printf("%s\n", r.cat.Text("status.snapshot_saved", map[string]any{"Path": path}))
	return nil
}

func (r *Registry) history(args []string) error {
	n := 5
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return usage("history [n]")
		}
		n = v
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	recs, err := r.backend.History(ctx, n)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		r.printf("no archived games\n")
		return nil
	}
	for _, rec := range recs {
		r.printf("%s  %-7s %-9s %3d moves  %s\n",
			rec.EndedAt.Local().Format("2006-01-02 15:04"), rec.Result, rec.Reason, len(rec.MovesUCI), rec.Color)
	}
	return nil
}
