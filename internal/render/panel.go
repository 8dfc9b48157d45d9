package render

import (
	"fmt"
	"strings"

	"github.com/park285/lanchess/internal/msgcat"
	"github.com/park285/lanchess/internal/viewmodel"
)

type PanelKind uint8

const (
	PanelJoin PanelKind = iota
	PanelControls
)

// Action is an intent the panel offers.
type Action string

const (
	ActionJoin  Action = "join"
	ActionUndo  Action = "undo"
	ActionReset Action = "reset"
	ActionLeave Action = "leave"
)

// PanelView is the side panel for one frame.
type PanelView struct {
	Kind    PanelKind
	Title   string
	Message string
	Error   string
	Room    string
	Actions []Action
	Labels  map[Action]string
	Moves   []string
	Debug   string
}

// Panel derives the side panel: the join form in the lobby or after a
// failed join, otherwise the in-game controls.
func Panel(vm *viewmodel.ViewModel, cat *msgcat.Catalog) PanelView {
	p := PanelView{
		Title:  text(cat, "panel.title", "LAN Chess", nil),
		Labels: map[Action]string{},
		Moves:  MoveList(vm),
		Debug:  DebugLine(vm, cat),
	}
	room := map[string]any{"Room": vm.RoomID}

	switch vm.Status {
	case viewmodel.StatusWaiting, viewmodel.StatusReady:
		p.Kind = PanelControls
		p.Actions = []Action{ActionUndo, ActionReset, ActionLeave}
		p.Labels[ActionUndo] = text(cat, "panel.undo", "Undo", nil)
		p.Labels[ActionReset] = text(cat, "panel.reset", "Reset", nil)
		p.Labels[ActionLeave] = text(cat, "panel.leave", "Leave", nil)
		if vm.Status == viewmodel.StatusWaiting {
			p.Message = text(cat, "panel.waiting", "Waiting for opponent...", room)
		} else {
			p.Message = text(cat, "panel.ready", "Connected", nil)
			p.Room = text(cat, "panel.room", "Room: "+vm.RoomID, room)
		}
	default:
		p.Kind = PanelJoin
		p.Actions = []Action{ActionJoin}
		p.Labels[ActionJoin] = text(cat, "panel.join_button", "Join", nil)
		p.Message = text(cat, "panel.join_prompt", "Room code", nil)
		if vm.Status == viewmodel.StatusFail {
			p.Error = text(cat, "panel.join_failed", "Failed to join room", room)
		}
	}
	return p
}

// MoveList numbers history in white/black pairs.
func MoveList(vm *viewmodel.ViewModel) []string {
	var out []string
	for i := 0; i < len(vm.History); i += 2 {
		w := vm.History[i]
		line := fmt.Sprintf("%d. %s-%s", i/2+1, w.From, w.To)
		if i+1 < len(vm.History) {
			b := vm.History[i+1]
			line += fmt.Sprintf("  %s-%s", b.From, b.To)
		}
		out = append(out, line)
	}
	return out
}

// DebugLine summarises the session state in one line.
func DebugLine(vm *viewmodel.ViewModel, cat *msgcat.Catalog) string {
	data := map[string]any{
		"Room":   orDash(vm.RoomID),
		"Color":  orDash(vm.AssignedColor),
		"Turn":   orDash(string(vm.Turn)),
		"Moves":  len(vm.History),
		"Status": string(vm.Status),
	}
	fallback := fmt.Sprintf("room=%s color=%s turn=%s moves=%d status=%s",
		data["Room"], data["Color"], data["Turn"], data["Moves"], data["Status"])
	return text(cat, "status.debug", fallback, data)
}

// TurnLine tells the player whose move it is.
func TurnLine(vm *viewmodel.ViewModel, cat *msgcat.Catalog) string {
	if !vm.InGame() || vm.Turn == "" || vm.GameOver.Over {
		return ""
	}
	var parts []string
	if vm.IsMyTurn() {
		parts = append(parts, text(cat, "status.turn_mine", "Your move", nil))
	} else {
		parts = append(parts, text(cat, "status.turn_theirs", "Opponent to move", nil))
	}
	if vm.IsCheck {
		parts = append(parts, text(cat, "status.check", "Check!", nil))
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
