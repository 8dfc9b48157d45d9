package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/park285/lanchess/internal/msgcat"
	"github.com/park285/lanchess/internal/session"
	"github.com/park285/lanchess/internal/viewmodel"
)

// Notifier prints what changed between consecutive frames, so the line
// client hears about the opponent without polling.
type Notifier struct {
	mu   sync.Mutex
	out  io.Writer
	cat  *msgcat.Catalog
	prev session.Frame
	seen bool
}

func NewNotifier(out io.Writer, cat *msgcat.Catalog) *Notifier {
	return &Notifier{out: out, cat: cat}
}

// Observe is a session frame listener.
func (n *Notifier) Observe(f session.Frame) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, line := range n.lines(f) {
		if line == "" {
			continue
		}
		fmt.Fprintln(n.out, line)
	}
}

func (n *Notifier) lines(f session.Frame) []string {
	prev, seen := n.prev.View, n.seen
	n.prev, n.seen = f, true
	cur := f.View
	if !seen {
		return nil
	}
	var out []string
	if cur.Connected != prev.Connected {
		if cur.Connected {
			out = append(out, f.Status)
		} else {
			out = append(out, n.cat.Text("status.disconnected", nil))
		}
	}
	room := map[string]any{"Room": cur.RoomID}
	if cur.Status != prev.Status {
		switch cur.Status {
		case viewmodel.StatusWaiting:
			out = append(out, n.cat.Text("panel.waiting", room))
		case viewmodel.StatusReady:
			out = append(out, n.cat.Text("panel.ready", nil))
		case viewmodel.StatusFail:
			out = append(out, n.cat.Text("panel.join_failed", room))
		}
	}
	if cur.AssignedColor != "" && cur.AssignedColor != prev.AssignedColor {
		out = append(out, n.cat.Text("panel.color", map[string]any{"Color": cur.AssignedColor}))
	}
	switch {
	case len(cur.History) > len(prev.History):
		if last, ok := cur.LastMove(); ok {
			out = append(out, fmt.Sprintf("%d. %s-%s", len(cur.History), last.From, last.To))
		}
	case len(cur.History) < len(prev.History) && cur.InGame():
		out = append(out, fmt.Sprintf("history back to %d moves", len(cur.History)))
	}
	if cur.IsCheck && !prev.IsCheck && !cur.GameOver.Over {
		out = append(out, n.cat.Text("status.check", nil))
	}
	if cur.GameOver.Over && !prev.GameOver.Over {
		out = append(out, f.Board.Banner)
	}
	return out
}
