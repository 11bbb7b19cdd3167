package floradex

import "context"

// outcome is one of the three competing completions of a load attempt.
type outcome int

const (
	outcomeLoaded outcome = iota
	outcomeFailed
	outcomeTimedOut
)

// attempt is the cancellation token for one Validating→Loading→(Ready|Error)
// pass. It owns the load context and the timeout timer. Exactly one
// completion settles it; settling releases both resources, so the losing
// completions can no longer act on the widget.
//
// attempt is guarded by the owning widget's mutex.
type attempt struct {
	seq     uint64
	target  string
	cancel  context.CancelFunc
	timer   Timer
	settled bool
}

// settle marks the attempt finished and releases its timer and load context.
// It reports false if the attempt was already settled.
func (a *attempt) settle() bool {
	if a == nil || a.settled {
		return false
	}
	a.settled = true
	if a.timer != nil {
		a.timer.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	return true
}
