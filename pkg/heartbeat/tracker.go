package heartbeat

import (
	"log/slog"
	"time"

	"github.com/widgetlords/libwlmio/pkg/eventloop"
)

// LivenessTimeout is the fixed interval after which a node with no
// further heartbeats is declared offline.
const LivenessTimeout = 3 * time.Second

// ChangeNotification is invoked whenever a node's status changes,
// whether from a fresh heartbeat or from its liveness timer expiring.
type ChangeNotification func(node uint8, previous, current Status)

type nodeEntry struct {
	status Status
	timer  *eventloop.Timer
}

// Tracker holds per-node status and liveness timers, keyed dynamically
// by any node ID observed on the bus. Not safe for concurrent use;
// driven exclusively from the event loop thread.
type Tracker struct {
	loop    *eventloop.Loop
	logger  *slog.Logger
	nodes   map[uint8]*nodeEntry
	onEvent ChangeNotification
}

// New builds a Tracker. onEvent may be nil.
func New(loop *eventloop.Loop, logger *slog.Logger, onEvent ChangeNotification) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		loop:    loop,
		logger:  logger.With("service", "heartbeat"),
		nodes:   make(map[uint8]*nodeEntry),
		onEvent: onEvent,
	}
}

// Status returns node's last observed status, or the zeroed offline
// status if no heartbeat has ever been seen from it.
func (t *Tracker) Status(node uint8) Status {
	entry, ok := t.nodes[node]
	if !ok {
		return offlineStatus
	}
	return entry.status
}

// Handle ingests one Heartbeat payload from node, decoding it and
// running the liveness-timer transition: a mode=offline heartbeat tears
// the timer down immediately, otherwise a missing timer is created and
// an existing one is rearmed.
func (t *Tracker) Handle(node uint8, payload []byte, timestampUsec uint64) {
	status, ok := DecodePayload(payload)
	if !ok {
		t.logger.Warn("dropping undersized heartbeat payload", "node", node, "length", len(payload))
		return
	}

	entry, exists := t.nodes[node]
	if !exists {
		entry = &nodeEntry{status: offlineStatus}
		t.nodes[node] = entry
	}
	previous := entry.status
	entry.status = status

	if status.Mode == ModeOffline {
		if entry.timer != nil {
			entry.timer.Stop()
			entry.timer = nil
		}
	} else {
		if entry.timer == nil {
			timer, err := eventloop.NewTimer(t.loop, LivenessTimeout, func() {
				t.expire(node)
			})
			if err != nil {
				t.logger.Error("failed to arm liveness timer", "node", node, "error", err)
			} else {
				entry.timer = timer
			}
		} else {
			_ = entry.timer.Reset(LivenessTimeout)
		}
	}

	if t.onEvent != nil {
		t.onEvent(node, previous, status)
	}
}

func (t *Tracker) expire(node uint8) {
	entry, ok := t.nodes[node]
	if !ok {
		return
	}
	previous := entry.status
	entry.status = offlineStatus
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
	if t.onEvent != nil {
		t.onEvent(node, previous, entry.status)
	}
}

// Shutdown releases every active liveness timer without emitting
// change notifications.
func (t *Tracker) Shutdown() {
	for node, entry := range t.nodes {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(t.nodes, node)
	}
}
