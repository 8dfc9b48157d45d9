// Package viewmodel holds the client's copy of the authoritative game state.
package viewmodel

import (
	"github.com/park285/lanchess/internal/protocol"
)

// Status drives which panel is shown.
type Status string

const (
	StatusLobby   Status = "lobby"
	StatusWaiting Status = protocol.StatusWaiting
	StatusReady   Status = protocol.StatusReady
	StatusFail    Status = protocol.StatusFail
)

// ViewModel is the locally known snapshot. Only the sync engine writes it;
// everyone else works on copies.
type ViewModel struct {
	Board    protocol.Board
	Turn     protocol.Color
	IsCheck  bool
	GameOver protocol.GameOver
	History  []protocol.MoveRecord

	// AssignedColor is "white", "black" or empty before the room assigns one.
	AssignedColor string
	RoomID        string
	Status        Status

	// Connected mirrors the transport and survives a session reset.
	Connected bool
	// LastSeq is the seq of the last applied position, 0 when none carried one.
	LastSeq uint64
}

// Default is the state at start-up and after every reset.
func Default() ViewModel {
	return ViewModel{Status: StatusLobby}
}

// Side is the assigned colour as a turn letter.
func (v ViewModel) Side() protocol.Color { return protocol.ColorOf(v.AssignedColor) }

// IsMyTurn reports whether the local player may act.
func (v ViewModel) IsMyTurn() bool {
	side := v.Side()
	return side != protocol.NoColor && side == v.Turn
}

// LastMove returns the newest history entry.
func (v ViewModel) LastMove() (protocol.MoveRecord, bool) {
	if len(v.History) == 0 {
		return protocol.MoveRecord{}, false
	}
	return v.History[len(v.History)-1], true
}

// InGame reports whether the room is past the lobby.
func (v ViewModel) InGame() bool {
	return v.Status == StatusWaiting || v.Status == StatusReady
}

// NeedsLeaveConfirmation is true for the room host (white) while a room is
// open; leaving would close it for the guest too.
func (v ViewModel) NeedsLeaveConfirmation() bool {
	return v.AssignedColor == "white" && v.InGame()
}

// Clone returns a copy sharing nothing with v.
func (v ViewModel) Clone() ViewModel {
	out := v
	out.Board = v.Board.Clone()
	if v.History != nil {
		out.History = append([]protocol.MoveRecord(nil), v.History...)
	}
	return out
}

// Store owns the ViewModel. Not safe for concurrent use; callers keep it on
// one goroutine.
type Store struct {
	vm      ViewModel
	version uint64
}

func NewStore() *Store {
	return &Store{vm: Default()}
}

// Snapshot returns an independent copy of the current state.
func (s *Store) Snapshot() ViewModel { return s.vm.Clone() }

// Current exposes the live state for read-only use on the owning goroutine.
func (s *Store) Current() *ViewModel { return &s.vm }

// Update applies fn as one step and bumps the version.
func (s *Store) Update(fn func(vm *ViewModel)) {
	fn(&s.vm)
	s.version++
}

// Reset returns to Default, keeping only the connection flag.
func (s *Store) Reset() {
	connected := s.vm.Connected
	s.vm = Default()
	s.vm.Connected = connected
	s.version++
}

// Version increases with every Update and Reset.
func (s *Store) Version() uint64 { return s.version }
