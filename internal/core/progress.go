package core

import (
	"time"

	"github.com/CireWire/preserv/pkg/models"
)

// ProgressCallback is invoked once per classified file so a front end
// can stay responsive during long runs. The engine never lets the
// callback block its critical path: updates that cannot be delivered
// within progressTimeout are dropped with a logged warning.
type ProgressCallback func(relPath string, outcome models.Outcome)

const (
	progressBuffer  = 256
	progressTimeout = 100 * time.Millisecond
)

type progressEvent struct {
	rel     string
	outcome models.Outcome
}

// SetProgressCallback sets the per-file progress callback. Must be
// called before Generate or Verify.
func (e *Engine) SetProgressCallback(cb ProgressCallback) {
	e.progressCallback = cb
}

// startProgress returns an emit function for the run and a stop
// function that drains the dispatcher. Events flow through a buffered
// channel consumed by a dedicated goroutine, so a slow consumer stalls
// only the buffer, never the workers.
func (e *Engine) startProgress() (emit func(rel string, outcome models.Outcome), stop func()) {
	if e.progressCallback == nil {
		return func(string, models.Outcome) {}, func() {}
	}

	ch := make(chan progressEvent, progressBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			e.progressCallback(ev.rel, ev.outcome)
		}
	}()

	warned := false
	emit = func(rel string, outcome models.Outcome) {
		ev := progressEvent{rel: rel, outcome: outcome}
		select {
		case ch <- ev:
			return
		default:
		}
		timer := time.NewTimer(progressTimeout)
		defer timer.Stop()
		select {
		case ch <- ev:
		case <-timer.C:
			if !warned {
				warned = true
				e.log.Warnf("progress callback too slow, dropping updates for this run")
			}
		}
	}
	stop = func() {
		close(ch)
		<-done
	}
	return emit, stop
}
