package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/park285/lanchess/internal/archive"
	"github.com/park285/lanchess/internal/config"
	"github.com/park285/lanchess/internal/msgcat"
	"github.com/park285/lanchess/internal/protocol"
)

type memSink struct {
	mu   sync.Mutex
	recs []archive.Record
}

func (m *memSink) Save(_ context.Context, rec archive.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

type authority struct {
	srv      *httptest.Server
	received chan string
}

func startPosition() protocol.PositionPayload {
	p := protocol.PositionPayload{Turn: protocol.White, History: []protocol.MoveRecord{}}
	p.Position[7][4] = &protocol.Piece{Kind: protocol.King, Color: protocol.White}
	p.Position[0][4] = &protocol.Piece{Kind: protocol.King, Color: protocol.Black}
	p.Position[6][4] = &protocol.Piece{Kind: protocol.Pawn, Color: protocol.White}
	return p
}

func newAuthority(t *testing.T) *authority {
	t.Helper()
	a := &authority{received: make(chan string, 8)}
	mux := http.NewServeMux()
	mux.HandleFunc("/moves", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("square") != "e2" {
			_, _ = w.Write([]byte(`{"moves":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"moves":[{"to":"e4"}]}`))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		ctx := r.Context()
		send := func(event string, data any) bool {
			frame, err := protocol.Encode(event, data)
			if err != nil {
				return false
			}
			return c.Write(ctx, websocket.MessageText, frame) == nil
		}
		recv := func() bool {
			_, data, err := c.Read(ctx)
			if err != nil {
				return false
			}
			a.received <- string(data)
			return true
		}

		if !recv() {
			return
		}
		send(protocol.EventGameID, "ABCD")
		send(protocol.EventColor, "white")
		send(protocol.EventStatus, "ready")
		send(protocol.EventPosition, startPosition())

		if !recv() {
			return
		}
		after := protocol.PositionPayload{
			Turn:        protocol.Black,
			IsCheckmate: true,
			IsGameOver:  true,
			History:     []protocol.MoveRecord{{From: "e2", To: "e4", Kind: protocol.KindGameOver}},
		}
		after.Position[7][4] = &protocol.Piece{Kind: protocol.King, Color: protocol.White}
		after.Position[0][4] = &protocol.Piece{Kind: protocol.King, Color: protocol.Black}
		after.Position[4][4] = &protocol.Piece{Kind: protocol.Pawn, Color: protocol.White}
		send(protocol.EventPosition, after)

		for recv() {
		}
	})
	a.srv = httptest.NewServer(mux)
	t.Cleanup(a.srv.Close)
	return a
}

func (a *authority) config(t *testing.T) *config.AppConfig {
	return &config.AppConfig{
		Host:           "localhost",
		Port:           3001,
		WSURL:          "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/ws",
		HTTPURL:        a.srv.URL,
		ReconnectDelay: 10 * time.Millisecond,
		QueryTimeout:   2 * time.Second,
		CueMode:        "off",
		SnapshotDir:    t.TempDir(),
	}
}

func (a *authority) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-a.received:
		if got != want {
			t.Fatalf("authority got %s want %s", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("authority did not receive %s", want)
	}
}

func waitFrame(t *testing.T, d *Deps, what string, ok func(Frame) bool) Frame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		f, err := d.CurrentFrame()
		if err != nil {
			t.Fatalf("CurrentFrame: %v", err)
		}
		if ok(f) {
			return f
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
	return Frame{}
}

func TestSessionPlaysAndArchives(t *testing.T) {
	a := newAuthority(t)
	sink := &memSink{}
	d, err := New(a.config(t), nil, WithCatalog(msgcat.Default()), WithArchiveSinks(sink))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var mu sync.Mutex
	var lastSeq uint64
	d.OnFrame(func(f Frame) {
		mu.Lock()
		defer mu.Unlock()
		if f.Seq <= lastSeq {
			t.Errorf("frame seq went backwards: %d after %d", f.Seq, lastSeq)
		}
		lastSeq = f.Seq
	})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFrame(t, d, "connected", func(f Frame) bool { return f.View.Connected })

	var joinErr error
	if err := d.Call(func() { joinErr = d.Engine.Join(" ABCD ") }); err != nil || joinErr != nil {
		t.Fatalf("join: %v %v", err, joinErr)
	}
	a.expect(t, `{"event":"join","data":"ABCD"}`)

	f := waitFrame(t, d, "ready position", func(f Frame) bool { return f.View.InGame() && f.View.Turn == protocol.White })
	if f.Panel.Room != "Room: ABCD" || f.Turn != "Your move" {
		t.Fatalf("frame panel=%+v turn=%q", f.Panel, f.Turn)
	}

	if err := d.Do(func() { d.Controller.Click("e2") }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	waitFrame(t, d, "destinations", func(f Frame) bool { return f.Interaction.Destinations.Has("e4") })
	if err := d.Do(func() { d.Controller.Click("e4") }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	a.expect(t, `{"event":"move","data":{"gameId":"ABCD","move":"e2e4"}}`)

	f = waitFrame(t, d, "game over", func(f Frame) bool { return f.View.GameOver.Over })
	if !f.Board.GameOver || f.Board.Overlay != "Checkmate" || f.Interaction.HasSelection() {
		t.Fatalf("final frame board=%v overlay=%q selection=%v", f.Board.GameOver, f.Board.Overlay, f.Interaction)
	}

	path, err := d.SaveSnapshot(context.Background())
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 || !strings.Contains(path, "lanchess-ABCD-") {
		t.Fatalf("snapshot %s: %v", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.recs) != 1 || sink.recs[0].Room != "ABCD" || sink.recs[0].Result != "1-0" {
		t.Fatalf("archived = %+v", sink.recs)
	}
}

func TestSnapshotName(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := snapshotName("a/b c", now); got != "lanchess-abc-20260102-030405.000.png" {
		t.Fatalf("name = %q", got)
	}
	if got := snapshotName("", now); !strings.HasPrefix(got, "lanchess-lobby-") {
		t.Fatalf("name = %q", got)
	}
}
