package viewmodel

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/lanchess/internal/protocol"
)

func TestTurnGate(t *testing.T) {
	cases := []struct {
		color string
		turn  protocol.Color
		want  bool
	}{
		{"white", protocol.White, true},
		{"white", protocol.Black, false},
		{"black", protocol.Black, true},
		{"", protocol.White, false},
		{"", protocol.NoColor, false},
	}
	for _, tc := range cases {
		vm := ViewModel{AssignedColor: tc.color, Turn: tc.turn}
		if got := vm.IsMyTurn(); got != tc.want {
			t.Fatalf("color=%q turn=%q: got %v", tc.color, tc.turn, got)
		}
	}
}

func TestLeaveConfirmation(t *testing.T) {
	cases := []struct {
		color  string
		status Status
		want   bool
	}{
		{"white", StatusWaiting, true},
		{"white", StatusReady, true},
		{"white", StatusLobby, false},
		{"black", StatusReady, false},
		{"white", StatusFail, false},
	}
	for _, tc := range cases {
		vm := ViewModel{AssignedColor: tc.color, Status: tc.status}
		if got := vm.NeedsLeaveConfirmation(); got != tc.want {
			t.Fatalf("%s/%s: got %v", tc.color, tc.status, got)
		}
	}
}

func TestStoreResetKeepsConnection(t *testing.T) {
	s := NewStore()
	s.Update(func(vm *ViewModel) {
		vm.Connected = true
		vm.RoomID = "ABCD"
		vm.AssignedColor = "black"
		vm.Status = StatusReady
		vm.Turn = protocol.White
		vm.History = []protocol.MoveRecord{{From: "e2", To: "e4", Kind: protocol.KindMove}}
		vm.LastSeq = 9
		vm.Board[6][4] = &protocol.Piece{Kind: protocol.Pawn, Color: protocol.White}
	})
	v0 := s.Version()
	s.Reset()

	want := Default()
	want.Connected = true
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Fatalf("reset state (-want +got):\n%s", diff)
	}
	if s.Version() <= v0 {
		t.Fatalf("version did not advance")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewStore()
	s.Update(func(vm *ViewModel) {
		vm.History = []protocol.MoveRecord{{From: "e2", To: "e4", Kind: protocol.KindMove}}
	})
	snap := s.Snapshot()
	snap.History[0].To = "e3"
	if s.Current().History[0].To != "e4" {
		t.Fatalf("snapshot aliases store history")
	}
}
