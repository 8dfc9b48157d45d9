// Package feedback plays one cue per completed move, chosen by the kind of
// the newest history entry.
package feedback

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/syncengine"
	"github.com/park285/lanchess/internal/viewmodel"
)

// Cue identifies a sound (or its stand-in).
type Cue string

const (
	CueMove     Cue = "move"
	CueCapture  Cue = "capture"
	CueCheck    Cue = "check"
	CueCastle   Cue = "castle"
	CueGameOver Cue = "gameOver"
)

var cueTable = map[protocol.MoveKind]Cue{
	protocol.KindMove:     CueMove,
	protocol.KindCapture:  CueCapture,
	protocol.KindCheck:    CueCheck,
	protocol.KindCastle:   CueCastle,
	protocol.KindGameOver: CueGameOver,
}

var ErrNoCue = errors.New("no cue for move kind")

// CueFor maps kind to its cue.
func CueFor(kind protocol.MoveKind) (Cue, error) {
	c, ok := cueTable[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoCue, kind)
	}
	return c, nil
}

// Player renders a cue. Implementations must not block the loop.
type Player interface {
	Play(cue Cue)
}

// HistorySource exposes the ViewModel the dispatcher reads.
type HistorySource interface {
	View() *viewmodel.ViewModel
}

// Dispatcher watches history length. The first position after start or a
// reset only records a baseline; each later growth plays the newest
// entry's cue once.
type Dispatcher struct {
	source   HistorySource
	player   Player
	logger   *zap.Logger
	baseline int
	armed    bool
}

func NewDispatcher(source HistorySource, player Player, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if player == nil {
		player = Off{}
	}
	return &Dispatcher{source: source, player: player, logger: logger}
}

// HandleChange is a sync engine subscriber.
func (d *Dispatcher) HandleChange(ch syncengine.Change) {
	switch ch.Kind {
	case syncengine.ChangeReset:
		d.armed = false
		d.baseline = 0
	case syncengine.ChangePosition:
		n := ch.HistoryLen
		if !d.armed {
			d.armed = true
			d.baseline = n
			return
		}
		grew := n > d.baseline
		d.baseline = n
		if !grew {
			return
		}
		last, ok := d.source.View().LastMove()
		if !ok {
			return
		}
		cue, err := CueFor(last.Kind)
		if err != nil {
			d.logger.Warn("cue_unmapped", zap.Error(err))
			return
		}
		d.logger.Debug("cue_play", zap.String("cue", string(cue)), zap.Int("history", n))
		d.player.Play(cue)
	}
}
