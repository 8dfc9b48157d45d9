package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/lanchess/internal/protocol"
)

func TestLegalMoves(t *testing.T) {
	var gotQuery, gotClient string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moves" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("gameId") + "|" + r.URL.Query().Get("square")
		gotClient = r.Header.Get(HeaderClientID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"moves":[{"to":"e3"},{"to":"e4"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithHeaderProvider(ClientHeaders("client-1")))
	set, err := c.LegalMoves(context.Background(), "AB CD", "e2")
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	if diff := cmp.Diff([]protocol.Coordinate{"e3", "e4"}, set.Sorted()); diff != "" {
		t.Fatalf("targets (-want +got):\n%s", diff)
	}
	if gotQuery != "AB CD|e2" || gotClient != "client-1" {
		t.Fatalf("request query=%q client=%q", gotQuery, gotClient)
	}
}

func TestLegalMovesRetriesUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"moves":[{"to":"f3"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(3))
	set, err := c.LegalMoves(context.Background(), "r", "g1")
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	if !set.Has("f3") || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("set=%v calls=%d", set.Sorted(), calls)
	}
}

func TestLegalMovesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("square") {
		case "a1":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "a2":
			_, _ = w.Write([]byte(`{"moves":`))
		default:
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"moves":[]}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.LegalMoves(context.Background(), "r", "a1"); !errors.Is(err, ErrStatus) {
		t.Fatalf("500: want ErrStatus, got %v", err)
	}
	if _, err := c.LegalMoves(context.Background(), "r", "a2"); err == nil {
		t.Fatalf("truncated body should fail")
	}
	if _, err := c.LegalMoves(context.Background(), "r", "zz"); !errors.Is(err, protocol.ErrBadCoordinate) {
		t.Fatalf("bad square: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.LegalMoves(ctx, "r", "a3"); err == nil {
		t.Fatalf("expected deadline error")
	}
}
