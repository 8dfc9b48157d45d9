package syncengine

// ChangeKind says which inbound event produced a Change.
type ChangeKind int

const (
	ChangePosition ChangeKind = iota + 1
	ChangeColor
	ChangeStatus
	ChangeRoom
	ChangeReset
	ChangeConnection
)

func (k ChangeKind) String() string {
	switch k {
	case ChangePosition:
		return "position"
	case ChangeColor:
		return "color"
	case ChangeStatus:
		return "status"
	case ChangeRoom:
		return "room"
	case ChangeReset:
		return "reset"
	case ChangeConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Change is delivered to subscribers after the ViewModel has been updated.
type Change struct {
	Kind           ChangeKind
	PrevHistoryLen int
	HistoryLen     int
}

// HistoryChanged reports a change in history length, the signal that a
// move completed or was undone.
func (c Change) HistoryChanged() bool {
	return c.Kind == ChangePosition && c.PrevHistoryLen != c.HistoryLen
}
