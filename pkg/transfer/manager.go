package transfer

import (
	"errors"
	"fmt"

	"github.com/widgetlords/libwlmio/pkg/can"
)

// Handler is invoked once a subscribed port's reassembler completes a
// transfer.
type Handler func(t Transfer)

type counterKey struct {
	remoteNode uint8
	portID     uint16
}

// Manager owns the outgoing transmit queue and every active
// subscription, and is the single can.FrameListener registered against
// the bus.
type Manager struct {
	bus      can.Bus
	localID  uint8
	subs     map[uint16]*Subscription
	handlers map[uint16]Handler
	counters map[counterKey]uint8
	txQueue  [][]byte
}

// NewManager builds a Manager bound to bus, identifying outgoing
// requests as coming from localNodeID.
func NewManager(bus can.Bus, localNodeID uint8) *Manager {
	m := &Manager{
		bus:      bus,
		localID:  localNodeID,
		subs:     make(map[uint16]*Subscription),
		handlers: make(map[uint16]Handler),
		counters: make(map[counterKey]uint8),
	}
	if bus != nil {
		_ = bus.Subscribe(m)
	}
	return m
}

// Subscribe registers interest in portID, reassembling transfers of the
// given kind up to extent bytes, and delivering completed transfers to
// handler.
func (m *Manager) Subscribe(portID uint16, kind Kind, extent int, handler Handler) {
	m.subs[portID] = NewSubscription(portID, kind, extent)
	m.handlers[portID] = handler
}

// NextTransferID returns the transfer ID to use for the next outgoing
// request to remoteNode on portID, advancing the per-pair counter
// modulo 32.
func (m *Manager) NextTransferID(remoteNode uint8, portID uint16) uint8 {
	key := counterKey{remoteNode, portID}
	id := m.counters[key]
	m.counters[key] = (id + 1) & 0x1F
	return id
}

// Request encodes and enqueues an outgoing request transfer. The
// transfer ID used is returned so the caller can register the matching
// response fingerprint before the next Flush.
func (m *Manager) Request(remoteNode uint8, portID uint16, priority Priority, payload []byte) (transferID uint8, err error) {
	transferID = m.NextTransferID(remoteNode, portID)
	id := FrameID{
		Priority:   priority,
		Kind:       KindRequest,
		PortID:     portID,
		SourceNode: m.localID,
		DestNode:   remoteNode,
	}
	rawID, err := Encode(id)
	if err != nil {
		return 0, fmt.Errorf("transfer: encode frame id: %w", err)
	}
	for _, frameData := range Split(payload, transferID) {
		framed := make([]byte, 4+len(frameData))
		framed[0] = byte(rawID)
		framed[1] = byte(rawID >> 8)
		framed[2] = byte(rawID >> 16)
		framed[3] = byte(rawID >> 24)
		copy(framed[4:], frameData)
		m.txQueue = append(m.txQueue, framed)
	}
	return transferID, nil
}

// Flush pushes every queued frame to the bus, stopping and retaining
// the remainder if the bus reports back-pressure.
func (m *Manager) Flush() error {
	for len(m.txQueue) > 0 {
		framed := m.txQueue[0]
		rawID := uint32(framed[0]) | uint32(framed[1])<<8 | uint32(framed[2])<<16 | uint32(framed[3])<<24
		frame := can.NewFrame(rawID, framed[4:])
		err := m.bus.Send(frame)
		if err == nil {
			m.txQueue = m.txQueue[1:]
			continue
		}
		if errors.Is(err, can.ErrWouldBlock) {
			return nil
		}
		// Non-transient send failure: drop the frame and report it;
		// the upper layer's request timeout covers the loss.
		m.txQueue = m.txQueue[1:]
		return err
	}
	return nil
}

// Handle implements can.FrameListener, dispatching a received frame to
// the subscription matching its port, if any.
func (m *Manager) Handle(frame can.Frame) {
	id := Decode(frame.ID)
	if id.Kind == KindRequest {
		return // the core issues requests, never serves them
	}
	if id.Kind == KindResponse && id.DestNode != m.localID {
		return // response addressed to another node on the bus
	}
	sub, ok := m.subs[id.PortID]
	if !ok || sub.Kind != id.Kind {
		return
	}
	payload, transferID, ok := sub.Accept(id.SourceNode, frame.Data)
	if !ok {
		return
	}
	if handler := m.handlers[id.PortID]; handler != nil {
		handler(Transfer{
			Kind:          id.Kind,
			Priority:      id.Priority,
			PortID:        id.PortID,
			RemoteNode:    id.SourceNode,
			TransferID:    transferID,
			Payload:       payload,
			TimestampUsec: frame.TimestampUsec,
		})
	}
}
