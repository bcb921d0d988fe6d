package eventloop

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Timer is a one-shot deadline backed by a Linux timerfd, registered
// with a Loop so its expiry is observed through the same epoll
// readiness primitive as the CAN socket.
type Timer struct {
	loop   *Loop
	fd     int
	remove func()
}

// NewTimer arms a timer to fire once after d, invoking onExpire when its
// expiry is observed during a Tick. onExpire must not block.
func NewTimer(loop *Loop, d time.Duration, onExpire func()) (*Timer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventloop: timerfd_create: %w", err)
	}
	t := &Timer{loop: loop, fd: fd}
	if err := t.arm(d); err != nil {
		unix.Close(fd)
		return nil, err
	}
	remove, err := loop.Add(fd, func() {
		var buf [8]byte
		// Drain the expiry counter; timerfd reads fail with EAGAIN
		// once drained, which is fine to ignore here.
		_, _ = unix.Read(fd, buf[:])
		onExpire()
	})
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	t.remove = remove
	return t, nil
}

func (t *Timer) arm(d time.Duration) error {
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(d.Nanoseconds()),
	}
	return unix.TimerfdSettime(t.fd, 0, &spec, nil)
}

// Reset re-arms the timer to fire once after d, replacing any pending
// expiry.
func (t *Timer) Reset(d time.Duration) error {
	return t.arm(d)
}

// Stop cancels the timer and releases its file descriptor. Safe to
// call more than once.
func (t *Timer) Stop() {
	if t.fd < 0 {
		return
	}
	if t.remove != nil {
		t.remove()
	}
	unix.Close(t.fd)
	t.fd = -1
}
