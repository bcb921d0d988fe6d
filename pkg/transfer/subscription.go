package transfer

import "github.com/widgetlords/libwlmio/internal/crc"

// Subscription describes one port this node listens on: the extent
// (maximum reassembled payload size the caller is prepared to receive)
// and the transfer kind expected on it. Multi-frame transfers may
// accumulate up to two bytes beyond the extent for the trailing CRC.
type Subscription struct {
	PortID uint16
	Kind   Kind
	Extent int

	sessions map[uint8]*rxSession
}

// NewSubscription builds a Subscription ready to reassemble transfers
// from any source node.
func NewSubscription(portID uint16, kind Kind, extent int) *Subscription {
	return &Subscription{PortID: portID, Kind: kind, Extent: extent, sessions: make(map[uint8]*rxSession)}
}

// rxSession is per-(subscription, source node) reassembly state: the
// expected toggle bit and transfer ID of the next frame, and the bytes
// accumulated so far for an in-progress multi-frame transfer.
type rxSession struct {
	inProgress   bool
	transferID   uint8
	expectToggle bool
	buf          []byte
}

// Accept feeds one received frame's payload (data, including its tail
// byte) into the reassembler for sourceNode. It returns the completed
// transfer payload and true once a transfer finishes; otherwise ok is
// false, either because more frames are needed or because the frame was
// rejected (bad toggle, CRC mismatch, extent overrun).
func (s *Subscription) Accept(sourceNode uint8, data []byte) (payload []byte, transferID uint8, ok bool) {
	if len(data) == 0 {
		return nil, 0, false
	}
	tail := data[len(data)-1]
	body := data[:len(data)-1]
	start, end, toggle, tid := parseTail(tail)

	sess, exists := s.sessions[sourceNode]
	if !exists {
		sess = &rxSession{}
		s.sessions[sourceNode] = sess
	}

	if start && end {
		// Single-frame transfer: no CRC, no session state needed.
		if len(body) > s.Extent {
			return nil, 0, false
		}
		sess.inProgress = false
		return body, tid, true
	}

	if start {
		if len(body) > s.Extent+2 {
			sess.inProgress = false
			return nil, 0, false
		}
		sess.inProgress = true
		sess.transferID = tid
		sess.expectToggle = !toggle // next frame's toggle must differ
		sess.buf = append([]byte(nil), body...)
		return nil, 0, false
	}

	if !sess.inProgress || tid != sess.transferID || toggle != sess.expectToggle {
		// Out-of-sequence continuation: abandon whatever was in
		// progress and wait for the next start-of-transfer.
		sess.inProgress = false
		return nil, 0, false
	}

	if len(sess.buf)+len(body) > s.Extent+2 {
		sess.inProgress = false
		return nil, 0, false
	}
	sess.buf = append(sess.buf, body...)
	sess.expectToggle = !sess.expectToggle

	if !end {
		return nil, 0, false
	}

	sess.inProgress = false
	if len(sess.buf) < 2 {
		return nil, 0, false
	}
	payloadLen := len(sess.buf) - 2
	got := crc.Of(sess.buf[:payloadLen])
	want := [2]byte{sess.buf[payloadLen], sess.buf[payloadLen+1]}
	if got.Bytes() != want {
		return nil, 0, false
	}
	return sess.buf[:payloadLen], sess.transferID, true
}
