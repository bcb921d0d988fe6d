// Package blocking wraps *wlmio.Engine's continuation-style API with
// synchronous methods for callers that cannot drive an event loop
// themselves. Each call dispatches the asynchronous request and then
// pumps the engine's event loop on the calling goroutine until the
// continuation fires, so the engine stays single-threaded throughout.
//
// A mutex serializes entry: two goroutines may hold a Client, but only
// one drives the engine at a time. Do not run Engine.Run concurrently
// with blocking calls — the Client is the loop's driver for their
// duration.
package blocking

import (
	"context"
	"sync"
	"time"

	wlmio "github.com/widgetlords/libwlmio"
	"github.com/widgetlords/libwlmio/pkg/register"
	"github.com/widgetlords/libwlmio/pkg/services"
)

// DefaultTimeout is used when the caller's context carries no deadline.
const DefaultTimeout = 1 * time.Second

// Client serializes blocking calls into one Engine so the engine's
// single-threaded request tracker never observes concurrent entry.
type Client struct {
	mu     sync.Mutex
	engine *wlmio.Engine
}

// New wraps engine with a blocking façade.
func New(engine *wlmio.Engine) *Client {
	return &Client{engine: engine}
}

// Engine returns the underlying engine, for callers that also need
// direct access (e.g. to read NodeStatus).
func (c *Client) Engine() *wlmio.Engine { return c.engine }

func timeoutFrom(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// pump drives the event loop until *done becomes true. The request's
// deadline timer bounds every wait, so the loop always wakes within
// the call's timeout even on a silent bus.
func (c *Client) pump(ctx context.Context, done *bool) error {
	c.engine.Tick()
	for !*done {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.engine.WaitForEvent(); err != nil {
			return err
		}
		c.engine.Tick()
	}
	return nil
}

// GetInfo blocks until node responds, ctx is cancelled, or the request
// times out.
func (c *Client) GetInfo(ctx context.Context, node uint8) (services.NodeInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		done bool
		info services.NodeInfo
		cerr *wlmio.Error
	)
	if err := c.engine.GetInfo(node, timeoutFrom(ctx), nil, func(_ any, err *wlmio.Error, i services.NodeInfo) {
		info, cerr, done = i, err, true
	}); err != nil {
		return services.NodeInfo{}, err
	}
	if err := c.pump(ctx, &done); err != nil {
		return services.NodeInfo{}, err
	}
	return info, errOrNil(cerr)
}

// RegisterAccess blocks reading or writing the named register on node.
// Pass register.NewEmpty() as value for a pure read.
func (c *Client) RegisterAccess(ctx context.Context, node uint8, name string, value register.Value) (register.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		done bool
		v    register.Value
		cerr *wlmio.Error
	)
	if err := c.engine.RegisterAccess(node, name, value, timeoutFrom(ctx), nil, func(_ any, err *wlmio.Error, rv register.Value) {
		v, cerr, done = rv, err, true
	}); err != nil {
		return register.Value{}, err
	}
	if err := c.pump(ctx, &done); err != nil {
		return register.Value{}, err
	}
	return v, errOrNil(cerr)
}

// RegisterList blocks enumerating node's register namespace entry at index.
func (c *Client) RegisterList(ctx context.Context, node uint8, index uint16) (name string, end bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		done bool
		cerr *wlmio.Error
	)
	if callErr := c.engine.RegisterList(node, index, timeoutFrom(ctx), nil, func(_ any, cbErr *wlmio.Error, n string, e bool) {
		name, end, cerr, done = n, e, cbErr, true
	}); callErr != nil {
		return "", false, callErr
	}
	if pumpErr := c.pump(ctx, &done); pumpErr != nil {
		return "", false, pumpErr
	}
	return name, end, errOrNil(cerr)
}

// RegisterWriteAll blocks dispatching every write concurrently to node
// and waiting for the aggregate outcome: nil if all succeeded, else
// the first failure observed.
func (c *Client) RegisterWriteAll(ctx context.Context, node uint8, writes []wlmio.RegisterWrite) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		done bool
		cerr *wlmio.Error
	)
	if err := c.engine.RegisterWriteAll(node, writes, timeoutFrom(ctx), nil, func(_ any, err *wlmio.Error) {
		cerr, done = err, true
	}); err != nil {
		return err
	}
	if err := c.pump(ctx, &done); err != nil {
		return err
	}
	return errOrNil(cerr)
}

// ExecuteCommand blocks invoking the standard command commandID on node.
func (c *Client) ExecuteCommand(ctx context.Context, node uint8, commandID uint16, parameter []byte) (services.CommandStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		done   bool
		status services.CommandStatus
		cerr   *wlmio.Error
	)
	if err := c.engine.ExecuteCommand(node, commandID, parameter, timeoutFrom(ctx), nil, func(_ any, err *wlmio.Error, s services.CommandStatus) {
		status, cerr, done = s, err, true
	}); err != nil {
		return 0, err
	}
	if err := c.pump(ctx, &done); err != nil {
		return 0, err
	}
	return status, errOrNil(cerr)
}

// errOrNil converts a possibly-nil *wlmio.Error into the nil error
// interface value; returning the pointer directly would wrap a nil
// pointer in a non-nil interface.
func errOrNil(err *wlmio.Error) error {
	if err == nil {
		return nil
	}
	return err
}
