// Package tracker implements the fingerprint-keyed outstanding-request
// table: one record per in-flight request, each with its own deadline
// timer, delivering exactly one completion (response or timeout) to the
// caller's continuation.
package tracker

import (
	"errors"
	"time"

	"github.com/widgetlords/libwlmio/pkg/eventloop"
)

// ErrAlreadyPending is returned by Track when a record already exists
// for the given fingerprint — the rotating transfer ID and short
// request lifetime should make this unreachable in practice.
var ErrAlreadyPending = errors.New("tracker: fingerprint already has a pending request")

// Continuation receives a request's outcome exactly once: either the
// response payload with timedOut false, or a nil payload with timedOut
// true. ctx is whatever opaque value was passed to Track.
type Continuation func(ctx any, payload []byte, timedOut bool)

type record struct {
	ctx   any
	cont  Continuation
	timer *eventloop.Timer
}

// Tracker owns the pending-request table. Not safe for concurrent use;
// it is driven exclusively from the event loop thread.
type Tracker struct {
	loop    *eventloop.Loop
	records map[uint32]*record
}

// New builds a Tracker whose deadline timers are registered against loop.
func New(loop *eventloop.Loop) *Tracker {
	return &Tracker{loop: loop, records: make(map[uint32]*record)}
}

// Track registers a new pending request under fingerprint, arming a
// deadline timer for timeout. cont fires exactly once, either from
// Complete or from the timer expiring.
func (t *Tracker) Track(fingerprint uint32, timeout time.Duration, ctx any, cont Continuation) error {
	if _, exists := t.records[fingerprint]; exists {
		return ErrAlreadyPending
	}

	rec := &record{ctx: ctx, cont: cont}
	timer, err := eventloop.NewTimer(t.loop, timeout, func() {
		t.fireTimeout(fingerprint)
	})
	if err != nil {
		return err
	}
	rec.timer = timer
	t.records[fingerprint] = rec
	return nil
}

// Complete looks up fingerprint and, if a record exists, invokes its
// continuation with payload, cancels its timer, and removes the
// record. A response with no matching record (late or spurious) is
// silently dropped.
func (t *Tracker) Complete(fingerprint uint32, payload []byte) {
	rec, ok := t.records[fingerprint]
	if !ok {
		return
	}
	delete(t.records, fingerprint)
	rec.timer.Stop()
	rec.cont(rec.ctx, payload, false)
}

func (t *Tracker) fireTimeout(fingerprint uint32) {
	rec, ok := t.records[fingerprint]
	if !ok {
		return
	}
	delete(t.records, fingerprint)
	rec.timer.Stop()
	rec.cont(rec.ctx, nil, true)
}

// Pending reports how many requests are currently outstanding, for
// tests and diagnostics.
func (t *Tracker) Pending() int {
	return len(t.records)
}

// Shutdown releases every outstanding record's timer without invoking
// its continuation, per the engine's shutdown semantics.
func (t *Tracker) Shutdown() {
	for fp, rec := range t.records {
		rec.timer.Stop()
		delete(t.records, fp)
	}
}
