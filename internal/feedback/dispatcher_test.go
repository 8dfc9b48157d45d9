package feedback

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/lanchess/internal/protocol"
	"github.com/park285/lanchess/internal/syncengine"
	"github.com/park285/lanchess/internal/viewmodel"
)

type fakeSource struct{ vm viewmodel.ViewModel }

func (f *fakeSource) View() *viewmodel.ViewModel { return &f.vm }

type recorder struct{ cues []Cue }

func (r *recorder) Play(c Cue) { r.cues = append(r.cues, c) }

func (f *fakeSource) push(kinds ...protocol.MoveKind) syncengine.Change {
	prev := len(f.vm.History)
	for _, k := range kinds {
		f.vm.History = append(f.vm.History, protocol.MoveRecord{From: "a1", To: "a2", Kind: k})
	}
	return syncengine.Change{Kind: syncengine.ChangePosition, PrevHistoryLen: prev, HistoryLen: len(f.vm.History)}
}

func TestCueTableIsExhaustive(t *testing.T) {
	for _, k := range protocol.AllMoveKinds() {
		c, err := CueFor(k)
		if err != nil || c == "" {
			t.Fatalf("%s has no cue: %v", k, err)
		}
		if string(c) != k.String() {
			t.Fatalf("%s maps to %s", k, c)
		}
	}
	if _, err := CueFor(protocol.KindUnknown); !errors.Is(err, ErrNoCue) {
		t.Fatalf("unknown kind: %v", err)
	}
}

func TestFirstPositionOnlySetsBaseline(t *testing.T) {
	src := &fakeSource{}
	rec := &recorder{}
	d := NewDispatcher(src, rec, nil)

	d.HandleChange(src.push(protocol.KindMove, protocol.KindCapture))
	if len(rec.cues) != 0 {
		t.Fatalf("initial load cued %v", rec.cues)
	}
}

func TestGrowthCuesOnce(t *testing.T) {
	src := &fakeSource{}
	rec := &recorder{}
	d := NewDispatcher(src, rec, nil)
	d.HandleChange(src.push(protocol.KindMove))

	d.HandleChange(src.push(protocol.KindCapture))
	if diff := cmp.Diff([]Cue{CueCapture}, rec.cues); diff != "" {
		t.Fatalf("cues (-want +got):\n%s", diff)
	}

	// same history again: nothing
	n := len(src.vm.History)
	d.HandleChange(syncengine.Change{Kind: syncengine.ChangePosition, PrevHistoryLen: n, HistoryLen: n})
	d.HandleChange(syncengine.Change{Kind: syncengine.ChangeStatus, PrevHistoryLen: n, HistoryLen: n})
	if len(rec.cues) != 1 {
		t.Fatalf("unchanged history cued: %v", rec.cues)
	}
}

func TestUndoThenRedo(t *testing.T) {
	src := &fakeSource{}
	rec := &recorder{}
	d := NewDispatcher(src, rec, nil)
	d.HandleChange(src.push(protocol.KindMove, protocol.KindCheck))

	src.vm.History = src.vm.History[:1]
	d.HandleChange(syncengine.Change{Kind: syncengine.ChangePosition, PrevHistoryLen: 2, HistoryLen: 1})
	if len(rec.cues) != 0 {
		t.Fatalf("undo cued %v", rec.cues)
	}
	d.HandleChange(src.push(protocol.KindCastle))
	if diff := cmp.Diff([]Cue{CueCastle}, rec.cues); diff != "" {
		t.Fatalf("cues (-want +got):\n%s", diff)
	}
}

func TestResetRearmsBaseline(t *testing.T) {
	src := &fakeSource{}
	rec := &recorder{}
	d := NewDispatcher(src, rec, nil)
	d.HandleChange(src.push())
	d.HandleChange(syncengine.Change{Kind: syncengine.ChangeReset})

	src.vm.History = nil
	d.HandleChange(src.push(protocol.KindMove, protocol.KindMove, protocol.KindGameOver))
	if len(rec.cues) != 0 {
		t.Fatalf("first position after reset cued %v", rec.cues)
	}
	d.HandleChange(src.push(protocol.KindGameOver))
	if diff := cmp.Diff([]Cue{CueGameOver}, rec.cues); diff != "" {
		t.Fatalf("cues (-want +got):\n%s", diff)
	}
}

type fakeBeeper struct{ n int }

func (f *fakeBeeper) Beep() error { f.n++; return nil }

func TestNewPlayer(t *testing.T) {
	b := &fakeBeeper{}
	NewPlayer("bell", b, nil, nil).Play(CueMove)
	if b.n != 1 {
		t.Fatalf("beeps = %d", b.n)
	}
	var buf bytes.Buffer
	NewPlayer("bell", nil, &buf, nil).Play(CueCheck)
	if buf.String() != "\a" {
		t.Fatalf("writer bell wrote %q", buf.String())
	}
	if _, ok := NewPlayer("OFF", b, &buf, nil).(Off); !ok {
		t.Fatalf("off mode not honoured")
	}
	NewPlayer("log", b, &buf, nil).Play(CueMove)
	if b.n != 1 || buf.Len() != 1 {
		t.Fatalf("log mode should not ring")
	}
}
