package wlmio

import (
	"context"
	"log/slog"
	"time"

	"github.com/widgetlords/libwlmio/pkg/can"
	"github.com/widgetlords/libwlmio/pkg/eventloop"
	"github.com/widgetlords/libwlmio/pkg/heartbeat"
	"github.com/widgetlords/libwlmio/pkg/nodeid"
	"github.com/widgetlords/libwlmio/pkg/services"
	"github.com/widgetlords/libwlmio/pkg/tracker"
	"github.com/widgetlords/libwlmio/pkg/transfer"
)

// DefaultRequestTimeout is a request timeout for callers with no
// specific one of their own (wlmioctl uses it as its -timeout default).
// The asynchronous Engine methods do not substitute it: each request's
// deadline is armed with exactly the timeout passed in.
const DefaultRequestTimeout = 1 * time.Second

// Engine is the single user-facing handle over the whole stack: the
// CAN bus, transfer manager, request tracker, heartbeat tracker, and
// event loop.
type Engine struct {
	logger *slog.Logger

	bus       can.Bus
	loop      *eventloop.Loop
	transfers *transfer.Manager
	tracker   *tracker.Tracker
	heartbeat *heartbeat.Tracker

	localNodeID uint8
}

// Config selects the CAN interface and node-ID source an Engine binds to.
type Config struct {
	InterfaceType  string // e.g. "socketcan"
	Channel        string // e.g. "can0"
	NodeID         nodeid.Source
	Logger         *slog.Logger
	OnStatusChange heartbeat.ChangeNotification
}

// New opens the configured CAN bus, discovers the local node ID, and
// wires up the transfer manager, request tracker, and heartbeat
// tracker around a fresh event loop.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	localID, err := cfg.NodeID.NodeID()
	if err != nil {
		return nil, NewError(ErrIO, err)
	}
	if !ValidNodeID(localID) {
		return nil, ErrInvalidNodeID
	}

	loop, err := eventloop.New()
	if err != nil {
		return nil, NewError(ErrIO, err)
	}

	bus, err := can.NewBus(cfg.InterfaceType, cfg.Channel)
	if err != nil {
		loop.Close()
		return nil, NewError(ErrIO, err)
	}

	e := &Engine{
		logger:      logger,
		bus:         bus,
		loop:        loop,
		transfers:   transfer.NewManager(bus, localID),
		tracker:     tracker.New(loop),
		localNodeID: localID,
	}
	e.heartbeat = heartbeat.New(loop, logger, cfg.OnStatusChange)

	e.transfers.Subscribe(services.PortHeartbeat, transfer.KindMessage, services.ExtentHeartbeat, e.onHeartbeat)
	e.transfers.Subscribe(services.PortGetInfo, transfer.KindResponse, services.ExtentGetInfo, e.onResponse)
	e.transfers.Subscribe(services.PortRegisterList, transfer.KindResponse, services.ExtentRegisterList, e.onResponse)
	e.transfers.Subscribe(services.PortRegisterAccess, transfer.KindResponse, services.ExtentRegisterAccess, e.onResponse)
	e.transfers.Subscribe(services.PortExecuteCommand, transfer.KindResponse, services.ExtentExecuteCommand, e.onResponse)

	// A bus that exposes a pollable FD is expected to also expose
	// ReadReady, which drains frames into the subscriptions wired above.
	if fd := bus.FD(); fd >= 0 {
		withReady, ok := bus.(interface{ ReadReady() })
		if !ok {
			bus.Disconnect()
			loop.Close()
			return nil, NewError(ErrIO, nil)
		}
		if _, err := loop.Add(fd, withReady.ReadReady); err != nil {
			bus.Disconnect()
			loop.Close()
			return nil, NewError(ErrIO, err)
		}
	}

	return e, nil
}

// LocalNodeID returns the node ID this process identifies itself as.
func (e *Engine) LocalNodeID() uint8 { return e.localNodeID }

// NodeStatus returns the most recently observed heartbeat status for node.
func (e *Engine) NodeStatus(node uint8) heartbeat.Status { return e.heartbeat.Status(node) }

// Tick drains any ready CAN frames and timer expirations without
// blocking, then flushes the transmit queue.
func (e *Engine) Tick() {
	e.loop.Tick()
	if err := e.transfers.Flush(); err != nil {
		e.logger.Warn("flush failed", "error", err)
	}
}

// WaitForEvent blocks until the CAN socket or a timer becomes ready.
func (e *Engine) WaitForEvent() error {
	return e.loop.WaitForEvent()
}

// Run drives the event loop until ctx is cancelled or the loop's epoll
// descriptor is closed by Shutdown, whichever comes first. Useful for
// passive monitoring when nothing else is pumping the loop; must not
// run concurrently with pkg/blocking calls, which drive the loop
// themselves.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := e.WaitForEvent(); err != nil {
			return err
		}
		e.Tick()
	}
}

// Shutdown closes the CAN endpoint and releases pending-request and
// heartbeat timers without invoking their continuations. Idempotent.
func (e *Engine) Shutdown() {
	e.tracker.Shutdown()
	e.heartbeat.Shutdown()
	_ = e.bus.Disconnect()
	_ = e.loop.Close()
}

func (e *Engine) onHeartbeat(t transfer.Transfer) {
	e.heartbeat.Handle(t.RemoteNode, t.Payload, t.TimestampUsec)
}

// onResponse completes the tracker record matching the transfer's
// fingerprint, silently dropping late or spurious responses (no record
// found).
func (e *Engine) onResponse(t transfer.Transfer) {
	e.tracker.Complete(t.Fingerprint(), t.Payload)
}
