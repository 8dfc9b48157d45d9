// Package archive keeps finished games: a short-lived Redis journal per
// room and an optional Postgres table.
package archive

import (
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"

	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/viewmodel"
)

var ErrNotFinished = errors.New("game is not over")

// Record is one finished game as this client saw it.
type Record struct {
	ID       string    `json:"id"`
	Room     string    `json:"room"`
	Color    string    `json:"color"`
	Result   string    `json:"result"`
	Reason   string    `json:"reason"`
	MovesUCI []string  `json:"moves_uci"`
	MovesSAN []string  `json:"moves_san"`
	PGN      string    `json:"pgn"`
	FinalFEN string    `json:"final_fen"`
	EndedAt  time.Time `json:"ended_at"`
}

// NewRecord builds a record from a ViewModel whose game has ended. SAN is
// reconstructed by replaying the history; if the replay fails partway the
// SAN list stops there and the UCI list stays complete.
func NewRecord(vm *viewmodel.ViewModel, now time.Time) (Record, error) {
	if vm == nil || !vm.GameOver.Over {
		return Record{}, ErrNotFinished
	}
	rec := Record{
		ID:       uuid.NewString(),
		Room:     vm.RoomID,
		Color:    vm.AssignedColor,
		Result:   resultToken(vm.GameOver, vm.Turn),
		Reason:   vm.GameOver.Reason.String(),
		FinalFEN: vm.Board.FEN(),
		EndedAt:  now.UTC(),
	}
	rec.MovesUCI, rec.MovesSAN = replay(vm.History)
	rec.PGN = buildPGN(rec)
	return rec, nil
}

// resultToken is the PGN result. On checkmate the side to move is the one
// mated.
func resultToken(g protocol.GameOver, turn protocol.Color) string {
	switch g.Reason {
	case protocol.ReasonCheckmate:
		if turn == protocol.White {
			return "0-1"
		}
		if turn == protocol.Black {
			return "1-0"
		}
		return "*"
	case protocol.ReasonDraw, protocol.ReasonStalemate:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// replay walks the history through a fresh game. The record carries no
// promotion piece, so a pawn reaching the last rank is taken as a queen
// promotion.
func replay(history []protocol.MoveRecord) (uci, san []string) {
	game := nchess.NewGame()
	broken := false
	for _, m := range history {
		raw := m.UCI()
		if broken {
			uci = append(uci, raw)
			continue
		}
		pos := game.Position()
		mv, err := nchess.UCINotation{}.Decode(pos, raw)
		if err == nil && promotes(pos, mv) {
			raw += "q"
			mv, err = nchess.UCINotation{}.Decode(pos, raw)
		}
		if err == nil {
			err = game.Move(mv, nil)
		}
		if err != nil {
			broken = true
			uci = append(uci, raw)
			continue
		}
		san = append(san, nchess.AlgebraicNotation{}.Encode(pos, mv))
		uci = append(uci, raw)
	}
	return uci, san
}

func promotes(pos *nchess.Position, mv *nchess.Move) bool {
	if mv.Promo() != nchess.NoPieceType {
		return false
	}
	if pos.Board().Piece(mv.S1()).Type() != nchess.Pawn {
		return false
	}
	r := mv.S2().Rank()
	return r == nchess.Rank8 || r == nchess.Rank1
}

func buildPGN(rec Record) string {
	var b strings.Builder
	date := rec.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	white, black := "Opponent", "Opponent"
	switch rec.Color {
	case "white":
		white = "You"
	case "black":
		black = "You"
	}
	b.WriteString("[Event \"LAN Chess\"]\n")
	b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", sanitizePGN(rec.Room)))
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", white))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", black))
	if rec.Reason != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(rec.Reason)))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", rec.Result))

	for i := 0; i < len(rec.MovesSAN); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, rec.MovesSAN[i]))
		if i+1 < len(rec.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(rec.MovesSAN[i+1])
		}
		b.WriteString(" ")
	}
	b.WriteString(rec.Result)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
