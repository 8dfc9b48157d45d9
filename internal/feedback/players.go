package feedback

import (
	"io"
	"strings"

	"go.uber.org/zap"
)

// Beeper is satisfied by tcell.Screen.
type Beeper interface {
	Beep() error
}

// Bell rings the terminal bell once per cue.
type Bell struct {
	B Beeper
}

func (b Bell) Play(Cue) {
	if b.B != nil {
		_ = b.B.Beep()
	}
}

// WriterBell writes BEL to W, for line-mode terminals.
type WriterBell struct {
	W io.Writer
}

func (w WriterBell) Play(Cue) {
	if w.W != nil {
		_, _ = io.WriteString(w.W, "\a")
	}
}

// Log records cues instead of playing them.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Play(cue Cue) {
	if l.Logger != nil {
		l.Logger.Info("cue", zap.String("cue", string(cue)))
	}
}

type Off struct{}

func (Off) Play(Cue) {}

// NewPlayer picks a player for mode (bell, log, off). A bell without a
// Beeper falls back to writing BEL to w.
func NewPlayer(mode string, beeper Beeper, w io.Writer, logger *zap.Logger) Player {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "off":
		return Off{}
	case "log":
		return Log{Logger: logger}
	default:
		if beeper != nil {
			return Bell{B: beeper}
		}
		return WriterBell{W: w}
	}
}
