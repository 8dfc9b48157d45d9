package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Inbound event names.
const (
	EventColor     = "color"
	EventStatus    = "status"
	EventGameID    = "gameId"
	EventPosition  = "position"
	EventTerminate = "terminate"
)

// Outbound event names.
const (
	EventJoin  = "join"
	EventMove  = "move"
	EventUndo  = "undo"
	EventReset = "reset"
	EventLeave = "leave"
)

// Room status values carried by the status event.
const (
	StatusWaiting = "waiting"
	StatusReady   = "ready"
	StatusFail    = "fail"
)

// Envelope frames every message on the event channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds an envelope for event with data marshalled as JSON.
// A nil data omits the field.
func Encode(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// DecodeEnvelope parses one frame.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if strings.TrimSpace(env.Event) == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", ErrInvalidPayload)
	}
	return env, nil
}

// PositionPayload is the full authoritative snapshot.
type PositionPayload struct {
	Position    Board        `json:"position"`
	Turn        Color        `json:"turn" validate:"oneof=w b"`
	IsCheck     bool         `json:"isCheck"`
	IsCheckmate bool         `json:"isCheckmate"`
	IsDraw      bool         `json:"isDraw"`
	IsStalemate bool         `json:"isStalemate"`
	IsGameOver  bool         `json:"isGameOver"`
	History     []MoveRecord `json:"history" validate:"dive"`
	Seq         uint64       `json:"seq,omitempty"`
}

// GameOverReason is at most one of checkmate, draw or stalemate.
type GameOverReason uint8

const (
	ReasonNone GameOverReason = iota
	ReasonCheckmate
	ReasonDraw
	ReasonStalemate
)

func (r GameOverReason) String() string {
	switch r {
	case ReasonCheckmate:
		return "checkmate"
	case ReasonDraw:
		return "draw"
	case ReasonStalemate:
		return "stalemate"
	default:
		return "none"
	}
}

// GameOver is the derived end-of-game state.
type GameOver struct {
	Over   bool
	Reason GameOverReason
}

// GameOver collapses the flag set into one reason. Authorities often report
// a stalemate as a draw too; checkmate wins over draw, draw over stalemate.
func (p PositionPayload) GameOver() GameOver {
	g := GameOver{Over: p.IsGameOver || p.IsCheckmate || p.IsDraw || p.IsStalemate}
	switch {
	case p.IsCheckmate:
		g.Reason = ReasonCheckmate
	case p.IsDraw:
		g.Reason = ReasonDraw
	case p.IsStalemate:
		g.Reason = ReasonStalemate
	}
	return g
}

var ErrEmptyValue = errors.New("empty value")

// DecodePosition parses and validates a position payload.
func DecodePosition(raw json.RawMessage) (PositionPayload, error) {
	var p PositionPayload
	if len(raw) == 0 {
		return p, fmt.Errorf("%w: position", ErrEmptyValue)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return PositionPayload{}, fmt.Errorf("decode position: %w", err)
	}
	if err := check(&p); err != nil {
		return PositionPayload{}, err
	}
	for i, m := range p.History {
		if !m.Kind.Valid() {
			return PositionPayload{}, fmt.Errorf("history[%d]: %w", i, ErrUnknownMoveKind)
		}
	}
	for r := range p.Position {
		for f := range p.Position[r] {
			if pc := p.Position[r][f]; pc != nil {
				if err := check(pc); err != nil {
					return PositionPayload{}, fmt.Errorf("square %s: %w", CoordinateAt(r, f), err)
				}
			}
		}
	}
	return p, nil
}

// DecodeString parses a bare JSON string payload.
func DecodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("decode string: %w", err)
	}
	return s, nil
}

// DecodeColor accepts "white" or "black".
func DecodeColor(raw json.RawMessage) (string, error) {
	s, err := DecodeString(raw)
	if err != nil {
		return "", err
	}
	if ColorOf(s) == NoColor {
		return "", fmt.Errorf("%w: color %q", ErrInvalidPayload, s)
	}
	return s, nil
}

// DecodeStatus accepts waiting, ready or fail.
func DecodeStatus(raw json.RawMessage) (string, error) {
	s, err := DecodeString(raw)
	if err != nil {
		return "", err
	}
	switch s {
	case StatusWaiting, StatusReady, StatusFail:
		return s, nil
	default:
		return "", fmt.Errorf("%w: status %q", ErrInvalidPayload, s)
	}
}

// DecodeGameID accepts any non-empty room code.
func DecodeGameID(raw json.RawMessage) (string, error) {
	s, err := DecodeString(raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: gameId", ErrEmptyValue)
	}
	return s, nil
}

// MovePayload is the outbound move intent.
type MovePayload struct {
	GameID string `json:"gameId" validate:"required"`
	Move   string `json:"move" validate:"required,len=4"`
}

// NewMove builds the intent for from->to in room.
func NewMove(room string, from, to Coordinate) (MovePayload, error) {
	m := MovePayload{GameID: room, Move: string(from) + string(to)}
	if !from.Valid() || !to.Valid() {
		return MovePayload{}, fmt.Errorf("%w: %s%s", ErrBadCoordinate, from, to)
	}
	if err := check(&m); err != nil {
		return MovePayload{}, err
	}
	return m, nil
}

// LegalMove is one entry of the legal-move query response.
type LegalMove struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	SAN  string `json:"san,omitempty"`
}

// LegalMovesResponse is the body of GET /moves.
type LegalMovesResponse struct {
	Moves []LegalMove `json:"moves"`
}

// Targets returns the destination set, skipping malformed squares.
func (r LegalMovesResponse) Targets() CoordSet {
	out := make(CoordSet, len(r.Moves))
	for _, m := range r.Moves {
		out.Add(Coordinate(strings.ToLower(m.To)))
	}
	return out
}
