// Package interaction turns board gestures into sync engine calls.
package interaction

import (
	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/syncengine"
	"github.com/park285/lanchess/internal/viewmodel"
)

// Engine is the slice of the sync engine the controller drives.
type Engine interface {
	View() *viewmodel.ViewModel
	RequestLegalTargets(origin protocol.Coordinate, done func(protocol.CoordSet))
	SubmitMove(origin, destination protocol.Coordinate) error
}

// State is the transient selection, separate from the ViewModel.
type State struct {
	Selected     protocol.Coordinate
	Destinations protocol.CoordSet
	// Pending is set while the targets for Selected are still in flight.
	Pending bool
}

// HasSelection reports whether an origin is selected.
func (s State) HasSelection() bool { return s.Selected != protocol.NoCoordinate }

// Controller owns State. Click and drag gestures converge on the same
// select/commit transitions. Runs on the loop goroutine.
type Controller struct {
	engine   Engine
	logger   *zap.Logger
	state    State
	token    uint64
	onChange func()
}

func New(engine Engine, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{engine: engine, logger: logger, state: State{Destinations: protocol.CoordSet{}}}
}

// OnChange registers fn to run after every state transition.
func (c *Controller) OnChange(fn func()) { c.onChange = fn }

// State returns a copy of the current selection.
func (c *Controller) State() State {
	return State{Selected: c.state.Selected, Destinations: c.state.Destinations.Clone(), Pending: c.state.Pending}
}

// Click handles a press-and-release on sq.
func (c *Controller) Click(sq protocol.Coordinate) {
	if !sq.Valid() {
		return
	}
	switch {
	case c.state.HasSelection() && sq == c.state.Selected:
		c.Clear()
	case c.state.Destinations.Has(sq):
		c.commit(sq)
	default:
		c.selectOrigin(sq)
	}
}

// DragStart picks up the piece on sq. Dragging the already selected
// square keeps its destinations.
func (c *Controller) DragStart(sq protocol.Coordinate) {
	if !sq.Valid() || sq == c.state.Selected {
		return
	}
	c.selectOrigin(sq)
}

// Drop releases a drag on sq. Anything but a known destination is ignored.
func (c *Controller) Drop(sq protocol.Coordinate) {
	if !c.state.HasSelection() || !c.state.Destinations.Has(sq) {
		return
	}
	c.commit(sq)
}

// Clear drops the selection. Calling it twice is the same as once.
func (c *Controller) Clear() {
	c.token++
	if !c.state.HasSelection() && c.state.Destinations.Len() == 0 {
		return
	}
	c.state = State{Destinations: protocol.CoordSet{}}
	c.changed()
}

// HandleChange is a sync engine subscriber: a completed or undone move and
// a session reset both end the current selection.
func (c *Controller) HandleChange(ch syncengine.Change) {
	if ch.Kind == syncengine.ChangeReset || ch.HistoryChanged() {
		c.Clear()
	}
}

func (c *Controller) selectOrigin(sq protocol.Coordinate) {
	c.token++
	tk := c.token
	c.state = State{Selected: sq, Destinations: protocol.CoordSet{}, Pending: true}
	c.changed()

	c.engine.RequestLegalTargets(sq, func(set protocol.CoordSet) {
		if tk != c.token || c.state.Selected != sq {
			c.logger.Debug("targets_result_discarded", zap.String("square", string(sq)))
			return
		}
		c.state.Destinations = set.Clone()
		c.state.Pending = false
		c.changed()
	})
}

func (c *Controller) commit(dest protocol.Coordinate) {
	from := c.state.Selected
	if err := c.engine.SubmitMove(from, dest); err != nil {
		c.logger.Debug("move_not_sent", zap.String("from", string(from)), zap.String("to", string(dest)), zap.Error(err))
	}
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
