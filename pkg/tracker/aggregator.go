package tracker

// Aggregator coordinates a compound operation made of several
// independent sub-requests dispatched without waiting on each other
// (e.g. a multi-register module configuration write). It fires once,
// when every dispatched sub-request has either completed or failed
// synchronously, carrying the first non-nil error encountered.
type Aggregator struct {
	total     int
	done      int
	firstErr  error
	onDone    func(err error)
	delivered bool
}

// NewAggregator builds an Aggregator for a compound operation of total
// sub-requests. onDone is invoked exactly once, when the last
// outstanding sub-request resolves.
func NewAggregator(total int, onDone func(err error)) *Aggregator {
	a := &Aggregator{total: total, onDone: onDone}
	if total == 0 {
		a.finish()
	}
	return a
}

// DispatchFailed records a sub-request that never made it onto the
// tracker (e.g. the transmit queue rejected it synchronously).
func (a *Aggregator) DispatchFailed(err error) {
	a.resolve(err)
}

// SubscriptionContinuation returns a tracker.Continuation suitable for
// passing to Tracker.Track for one of the compound operation's
// sub-requests. decode is applied to the response payload; any error
// it returns counts as that sub-request's outcome.
func (a *Aggregator) SubscriptionContinuation(decode func(payload []byte, timedOut bool) error) Continuation {
	return func(_ any, payload []byte, timedOut bool) {
		a.resolve(decode(payload, timedOut))
	}
}

func (a *Aggregator) resolve(err error) {
	a.done++
	if err != nil && a.firstErr == nil {
		a.firstErr = err
	}
	if a.done >= a.total {
		a.finish()
	}
}

func (a *Aggregator) finish() {
	if a.delivered {
		return
	}
	a.delivered = true
	if a.onDone != nil {
		a.onDone(a.firstErr)
	}
}
