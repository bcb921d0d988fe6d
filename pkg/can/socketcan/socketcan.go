// Package socketcan implements the CAN-FD frame transport on top of a
// raw SocketCAN socket, opened directly through golang.org/x/sys/unix
// rather than a cgo binding. CAN_RAW_FD_FRAMES is enabled so frames
// carry up to 64 data bytes, the kernel receive timestamp is read with
// SIOCGSTAMP, and reception is driven by the event loop's epoll
// readiness callback (pkg/eventloop) rather than a dedicated goroutine.
package socketcan

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/widgetlords/libwlmio/pkg/can"
)

// canFDFrameSize is sizeof(struct canfd_frame): 4 (id) + 1 (len) +
// 1 (flags) + 2 (reserved) + 64 (data) = 72 bytes.
const canFDFrameSize = 72

const (
	canfdBRS = 0x01 // Bit Rate Switch
)

// Bus is a raw CAN-FD SocketCAN transport.
type Bus struct {
	fd         int
	rxCallback can.FrameListener
}

func init() {
	can.RegisterInterface("socketcan", New)
}

// New opens a non-blocking raw CAN-FD socket bound to the named
// interface (e.g. "can0"). The interface must already be up and
// configured for FD framing.
func New(channel string) (can.Bus, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("socketcan: socket: %w", err)
	}

	ifi, err := unix.NewIfreq(channel)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: ifreq %q: %w", channel, err)
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFINDEX, ifi); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: SIOCGIFINDEX %q: %w", channel, err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: set nonblocking: %w", err)
	}

	// Enable CAN-FD framing (64-byte payloads).
	if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FD_FRAMES, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: CAN_RAW_FD_FRAMES: %w", err)
	}

	addr := &unix.SockaddrCAN{Ifindex: int(ifi.Uint32())}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: bind %q: %w", channel, err)
	}

	return &Bus{fd: fd}, nil
}

// FD implements can.Bus.
func (b *Bus) FD() int { return b.fd }

// Connect implements can.Bus. SocketCAN sockets are ready to use as
// soon as they are bound; there is nothing further to do here.
func (b *Bus) Connect(...any) error { return nil }

// Disconnect implements can.Bus.
func (b *Bus) Disconnect() error {
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}

// Subscribe implements can.Bus.
func (b *Bus) Subscribe(listener can.FrameListener) error {
	b.rxCallback = listener
	return nil
}

// Send implements can.Bus. Non-blocking: a full kernel transmit buffer
// is reported as can.ErrWouldBlock so the caller can keep the frame
// queued for the next flush, while any other error is reported as-is.
func (b *Bus) Send(frame can.Frame) error {
	if len(frame.Data) > can.MaxDataLength {
		return fmt.Errorf("socketcan: frame payload %d exceeds CAN-FD maximum %d", len(frame.Data), can.MaxDataLength)
	}

	buf := make([]byte, canFDFrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], frame.ID|can.EFFFlag)
	buf[4] = byte(len(frame.Data))
	buf[5] = canfdBRS // transmit at the FD bit rate
	copy(buf[8:], frame.Data)

	_, err := unix.Write(b.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return can.ErrWouldBlock
		}
		return fmt.Errorf("socketcan: write: %w", err)
	}
	return nil
}

// ReadReady is invoked by the event loop when the socket is readable.
// It drains every frame currently queued by the kernel, stopping at the
// first EAGAIN.
func (b *Bus) ReadReady() {
	buf := make([]byte, canFDFrameSize)
	for {
		n, err := unix.Read(b.fd, buf)
		if err != nil {
			return
		}
		if n < 8 {
			continue
		}

		ts, tsErr := unix.IoctlGetTimeval(b.fd, unix.SIOCGSTAMP)
		var usec uint64
		if tsErr == nil {
			usec = uint64(ts.Sec)*1_000_000 + uint64(ts.Usec)
		}

		id := binary.LittleEndian.Uint32(buf[0:4]) & can.IDMask
		length := int(buf[4])
		if length > n-8 {
			length = n - 8
		}
		data := make([]byte, length)
		copy(data, buf[8:8+length])

		if b.rxCallback != nil {
			b.rxCallback.Handle(can.Frame{ID: id, Data: data, TimestampUsec: usec})
		}
	}
}
