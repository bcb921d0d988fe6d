package heartbeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetlords/libwlmio/pkg/eventloop"
)

func newTestLoop(t *testing.T) *eventloop.Loop {
	loop, err := eventloop.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = loop.Close() })
	return loop
}

func encode(status Status) []byte {
	return []byte{
		byte(status.Uptime), byte(status.Uptime >> 8), byte(status.Uptime >> 16), byte(status.Uptime >> 24),
		byte(status.Health),
		byte(status.Mode),
		status.VendorStatus,
	}
}

func TestHandleUnknownNodeStartsOffline(t *testing.T) {
	loop := newTestLoop(t)
	tr := New(loop, nil, nil)
	assert.Equal(t, offlineStatus, tr.Status(9))
}

func TestHeartbeatOperationalCreatesTimer(t *testing.T) {
	loop := newTestLoop(t)
	var events []Status
	tr := New(loop, nil, func(node uint8, previous, current Status) {
		events = append(events, current)
	})

	tr.Handle(5, encode(Status{Uptime: 10, Mode: ModeOperational}), 0)
	assert.Equal(t, ModeOperational, tr.Status(5).Mode)
	require.Len(t, events, 1)
}

func TestHeartbeatOfflineModeTearsDownTimerImmediately(t *testing.T) {
	loop := newTestLoop(t)
	tr := New(loop, nil, nil)

	tr.Handle(5, encode(Status{Mode: ModeOperational}), 0)
	require.NotNil(t, tr.nodes[5].timer)

	tr.Handle(5, encode(Status{Mode: ModeOffline}), 0)
	assert.Nil(t, tr.nodes[5].timer)
	assert.Equal(t, ModeOffline, tr.Status(5).Mode)
}

func TestLivenessTimeoutResetsStatus(t *testing.T) {
	loop := newTestLoop(t)
	done := make(chan uint8, 1)
	tr := New(loop, nil, func(node uint8, previous, current Status) {
		if current.Mode == ModeOffline {
			done <- node
		}
	})

	tr.Handle(7, encode(Status{Uptime: 3, Mode: ModeOperational}), 0)

	deadline := time.Now().Add(LivenessTimeout + 500*time.Millisecond)
	for time.Now().Before(deadline) {
		if err := loop.WaitForEvent(); err == nil {
			loop.Tick()
		}
		select {
		case node := <-done:
			assert.Equal(t, uint8(7), node)
			assert.Equal(t, offlineStatus, tr.Status(7))
			return
		default:
		}
	}
	t.Fatal("liveness timeout never fired")
}
