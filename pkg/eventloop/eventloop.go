// Package eventloop implements the single epoll-multiplexed readiness
// primitive the engine drives: one file descriptor set covering the CAN
// socket and every active timer, dispatched from a single thread.
//
// Timers are timerfds registered in the same epoll set as the socket,
// not background goroutines: the engine runs on a single thread behind
// a single readiness primitive with no internal mutex, which rules out
// anything waking the loop independently.
package eventloop

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Handler is invoked when its registered file descriptor becomes ready
// for reading. It must not block.
type Handler func()

// handle is one entry per registered descriptor, looked up by identity
// on removal.
type handle struct {
	fd      int32
	handler Handler
}

// Loop owns one epoll instance and the handles registered against it.
// Not safe for concurrent use — the whole point is that it is only
// ever driven from one goroutine.
type Loop struct {
	epollFD int
	handles map[int32]*handle
}

// New creates an epoll instance ready to accept registrations.
func New() (*Loop, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("eventloop: epoll_create1: %w", err)
	}
	return &Loop{epollFD: fd, handles: make(map[int32]*handle)}, nil
}

// Add registers fd for level-triggered readability and associates
// handler with it. The returned function removes the registration; it
// is always safe to call, even from within handler itself.
func (l *Loop) Add(fd int, handler Handler) (remove func(), err error) {
	h := &handle{fd: int32(fd), handler: handler}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epollFD, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return nil, fmt.Errorf("eventloop: epoll_ctl add fd %d: %w", fd, err)
	}
	l.handles[int32(fd)] = h

	remove = func() {
		l.remove(int32(fd))
	}
	return remove, nil
}

func (l *Loop) remove(fd int32) {
	if _, ok := l.handles[fd]; !ok {
		return
	}
	_ = unix.EpollCtl(l.epollFD, unix.EPOLL_CTL_DEL, int(fd), nil)
	delete(l.handles, fd)
}

// Tick drains every currently-ready handle without blocking, dispatching
// each to its handler, then returns. It never blocks: a kernel lacking
// ready descriptors returns immediately.
func (l *Loop) Tick() {
	var events [32]unix.EpollEvent
	for {
		n, err := unix.EpollWait(l.epollFD, events[:], 0)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if n == 0 {
			return
		}
		for i := 0; i < n; i++ {
			h, ok := l.handles[events[i].Fd]
			if !ok {
				continue
			}
			h.handler()
		}
		if n < len(events) {
			return
		}
	}
}

// WaitForEvent blocks until at least one registered handle becomes
// ready, then returns without dispatching it — the caller is expected
// to follow up with Tick.
func (l *Loop) WaitForEvent() error {
	var events [1]unix.EpollEvent
	for {
		_, err := unix.EpollWait(l.epollFD, events[:], -1)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

// Close releases the epoll file descriptor. Registered handles are not
// individually torn down; callers that own timer/socket fds must close
// those themselves.
func (l *Loop) Close() error {
	if l.epollFD < 0 {
		return nil
	}
	err := unix.Close(l.epollFD)
	l.epollFD = -1
	return err
}
