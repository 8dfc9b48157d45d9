package archive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/lanchess/internal/syncengine"
	"github.com/park285/lanchess/internal/viewmodel"
)

// Sink persists a finished game.
type Sink interface {
	Save(ctx context.Context, rec Record) error
}

// Source exposes the current ViewModel.
type Source interface {
	View() *viewmodel.ViewModel
}

// Recorder watches engine changes and archives each game once, when it
// first reports game over. HandleChange runs on the loop; saving happens
// on a separate goroutine.
type Recorder struct {
	source  Source
	sinks   []Sink
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time

	wasOver bool
	wg      sync.WaitGroup
}

func NewRecorder(source Source, logger *zap.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	var kept []Sink
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Recorder{source: source, sinks: kept, logger: logger, timeout: 5 * time.Second, now: time.Now}
}

func (r *Recorder) HandleChange(ch syncengine.Change) {
	if r == nil {
		return
	}
	vm := r.source.View()
	over := vm.GameOver.Over
	if ch.Kind == syncengine.ChangeReset || !over {
		r.wasOver = over
		return
	}
	if r.wasOver {
		return
	}
	r.wasOver = true

	rec, err := NewRecord(vm, r.now())
	if err != nil {
		r.logger.Warn("archive_record_failed", zap.Error(err))
		return
	}
	if len(r.sinks) == 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		saved := 0
		for _, s := range r.sinks {
			if err := s.Save(ctx, rec); err != nil {
				r.logger.Warn("archive_save_failed", zap.String("room", rec.Room), zap.Error(err))
				continue
			}
			saved++
		}
		if saved == 0 {
			r.logger.Warn("archive_unsaved", zap.String("id", rec.ID), zap.String("room", rec.Room))
			return
		}
		r.logger.Info("archive_saved",
			zap.String("id", rec.ID),
			zap.String("room", rec.Room),
			zap.String("result", rec.Result),
			zap.Int("moves", len(rec.MovesUCI)),
			zap.Int("sinks", saved),
		)
	}()
}

// Wait blocks until pending saves finish.
func (r *Recorder) Wait() {
	if r != nil {
		r.wg.Wait()
	}
}
