package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func emptyRows() string {
	row := "[null,null,null,null,null,null,null,null]"
	rows := make([]string, 8)
	for i := range rows {
		rows[i] = row
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func positionJSON(history string) string {
	return `{"position":` + emptyRows() + `,"turn":"b","isCheck":false,"isCheckmate":false,` +
		`"isDraw":false,"isStalemate":false,"isGameOver":false,"history":` + history + `}`
}

func TestDecodePosition(t *testing.T) {
	raw := positionJSON(`[{"from":"e2","to":"e4","type":"move"},{"from":"d7","to":"d5","type":"capture"}]`)
	p, err := DecodePosition(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodePosition: %v", err)
	}
	want := []MoveRecord{
		{From: "e2", To: "e4", Kind: KindMove},
		{From: "d7", To: "d5", Kind: KindCapture},
	}
	if diff := cmp.Diff(want, p.History); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	if p.Turn != Black || !p.Position.Empty() {
		t.Fatalf("unexpected payload: turn=%q", p.Turn)
	}
}

func TestDecodePositionRejectsUnknownKind(t *testing.T) {
	raw := positionJSON(`[{"from":"e2","to":"e4","type":"teleport"}]`)
	if _, err := DecodePosition(json.RawMessage(raw)); !errors.Is(err, ErrUnknownMoveKind) {
		t.Fatalf("want ErrUnknownMoveKind, got %v", err)
	}
	raw = positionJSON(`[{"from":"e2","to":"e4"}]`)
	if _, err := DecodePosition(json.RawMessage(raw)); !errors.Is(err, ErrUnknownMoveKind) {
		t.Fatalf("missing kind: want ErrUnknownMoveKind, got %v", err)
	}
}

func TestDecodePositionRejectsBadShape(t *testing.T) {
	cases := map[string]string{
		"short board": `{"position":[[null]],"turn":"w","history":[]}`,
		"bad turn":    strings.Replace(positionJSON(`[]`), `"turn":"b"`, `"turn":"x"`, 1),
		"bad square":  positionJSON(`[{"from":"z9","to":"e4","type":"move"}]`),
		"bad piece":   strings.Replace(positionJSON(`[]`), "[null,", `[{"type":"x","color":"w"},`, 1),
		"not json":    `{"position":`,
	}
	for name, raw := range cases {
		if _, err := DecodePosition(json.RawMessage(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := DecodePosition(nil); !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("nil payload: %v", err)
	}
}

func TestGameOverPrecedence(t *testing.T) {
	cases := []struct {
		p    PositionPayload
		want GameOver
	}{
		{PositionPayload{}, GameOver{}},
		{PositionPayload{IsGameOver: true, IsCheckmate: true}, GameOver{true, ReasonCheckmate}},
		{PositionPayload{IsGameOver: true, IsDraw: true, IsStalemate: true}, GameOver{true, ReasonDraw}},
		{PositionPayload{IsStalemate: true}, GameOver{true, ReasonStalemate}},
		{PositionPayload{IsGameOver: true}, GameOver{Over: true}},
	}
	for i, tc := range cases {
		if got := tc.p.GameOver(); got != tc.want {
			t.Fatalf("case %d: got %+v want %+v", i, got, tc.want)
		}
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	mv, err := NewMove("room1", "e2", "e4")
	if err != nil {
		t.Fatalf("NewMove: %v", err)
	}
	frame, err := Encode(EventMove, mv)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(frame) != `{"event":"move","data":{"gameId":"room1","move":"e2e4"}}` {
		t.Fatalf("frame = %s", frame)
	}
	env, err := DecodeEnvelope(frame)
	if err != nil || env.Event != EventMove {
		t.Fatalf("DecodeEnvelope: %+v %v", env, err)
	}

	frame, _ = Encode(EventLeave, nil)
	if string(frame) != `{"event":"leave"}` {
		t.Fatalf("leave frame = %s", frame)
	}
	if _, err := DecodeEnvelope([]byte(`{"data":1}`)); err == nil {
		t.Fatalf("expected missing event error")
	}
}

func TestNewMoveRejects(t *testing.T) {
	if _, err := NewMove("", "e2", "e4"); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("empty room: %v", err)
	}
	if _, err := NewMove("r", "e2", "e9"); !errors.Is(err, ErrBadCoordinate) {
		t.Fatalf("bad square: %v", err)
	}
}

func TestDecodeScalars(t *testing.T) {
	if c, err := DecodeColor(json.RawMessage(`"black"`)); err != nil || c != "black" {
		t.Fatalf("color: %q %v", c, err)
	}
	if _, err := DecodeColor(json.RawMessage(`"green"`)); err == nil {
		t.Fatalf("expected bad color error")
	}
	if s, err := DecodeStatus(json.RawMessage(`"ready"`)); err != nil || s != StatusReady {
		t.Fatalf("status: %q %v", s, err)
	}
	if _, err := DecodeStatus(json.RawMessage(`"lobby"`)); err == nil {
		t.Fatalf("lobby is not a wire status")
	}
	if _, err := DecodeGameID(json.RawMessage(`"  "`)); !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("blank game id: %v", err)
	}
}

func TestLegalMovesTargets(t *testing.T) {
	var resp LegalMovesResponse
	if err := json.Unmarshal([]byte(`{"moves":[{"to":"e3"},{"to":"E4"},{"to":"??"}]}`), &resp); err != nil {
		t.Fatal(err)
	}
	got := resp.Targets().Sorted()
	if diff := cmp.Diff([]Coordinate{"e3", "e4"}, got); diff != "" {
		t.Fatalf("targets (-want +got):\n%s", diff)
	}
}
