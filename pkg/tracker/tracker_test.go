package tracker

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

func TestTrackCompleteInvokesContinuationOnce(t *testing.T) {
	loop := newTestLoop(t)
	tr := New(loop)

	var calls int
	var gotPayload []byte
	var gotTimeout bool
	err := tr.Track(1, time.Second, "ctx", func(ctx any, payload []byte, timedOut bool) {
		calls++
		gotPayload = payload
		gotTimeout = timedOut
		assert.Equal(t, "ctx", ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Pending())

	tr.Complete(1, []byte{1, 2, 3})
	assert.Equal(t, 1, calls)
	assert.Equal(t, []byte{1, 2, 3}, gotPayload)
	assert.False(t, gotTimeout)
	assert.Equal(t, 0, tr.Pending())
}

func TestDuplicateFingerprintRejected(t *testing.T) {
	loop := newTestLoop(t)
	tr := New(loop)

	noop := func(ctx any, payload []byte, timedOut bool) {}
	require.NoError(t, tr.Track(5, time.Second, nil, noop))
	assert.ErrorIs(t, tr.Track(5, time.Second, nil, noop), ErrAlreadyPending)
}

func TestSpuriousCompleteIsDropped(t *testing.T) {
	loop := newTestLoop(t)
	tr := New(loop)
	assert.NotPanics(t, func() { tr.Complete(999, nil) })
}

func TestTimeoutFiresContinuation(t *testing.T) {
	loop := newTestLoop(t)
	tr := New(loop)

	done := make(chan bool, 1)
	err := tr.Track(2, 20*time.Millisecond, nil, func(ctx any, payload []byte, timedOut bool) {
		done <- timedOut
	})
	require.NoError(t, err)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if err := loop.WaitForEvent(); err == nil {
			loop.Tick()
		}
		select {
		case timedOut := <-done:
			assert.True(t, timedOut)
			assert.Equal(t, 0, tr.Pending())
			return
		default:
		}
	}
	t.Fatal("timeout never fired")
}

func TestAggregatorFiresWhenAllResolve(t *testing.T) {
	var gotErr error
	var calls int
	agg := NewAggregator(3, func(err error) {
		calls++
		gotErr = err
	})
	agg.DispatchFailed(nil)
	agg.DispatchFailed(nil)
	assert.Equal(t, 0, calls)
	agg.DispatchFailed(assertErr)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, gotErr, assertErr)
}

func TestAggregatorZeroTotalFiresImmediately(t *testing.T) {
	var calls int
	NewAggregator(0, func(err error) {
		calls++
		assert.NoError(t, err)
	})
	assert.Equal(t, 1, calls)
}

var assertErr = assertTestErr("boom")

type assertTestErr string

func (e assertTestErr) Error() string { return string(e) }
