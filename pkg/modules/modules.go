// Package modules holds one typed helper per I/O module family the
// fleet can carry, named after each family's register vocabulary. Each
// helper is a thin wrapper over pkg/blocking.Client.RegisterAccess (or,
// for the multi-register configures, RegisterWriteAll): one method per
// logical operation. A Client is not bound to a single node — the
// fleet has many I/O modules sharing one bus, so every call takes its
// target node explicitly.
package modules

import (
	wlmio "github.com/widgetlords/libwlmio"
	"github.com/widgetlords/libwlmio/pkg/blocking"
	"github.com/widgetlords/libwlmio/pkg/register"
)

// Client issues register-level operations against the typed module
// vocabulary, through an underlying blocking façade over the engine.
type Client struct {
	bc *blocking.Client
}

// New builds a module Client over bc.
func New(bc *blocking.Client) *Client {
	return &Client{bc: bc}
}

// channelRegister builds the "ch{N}.{suffix}" register name convention
// every multi-channel module family uses, for channel indices 0-based
// in Go but 1-based in the register namespace.
func channelRegister(channel uint8, suffix string) string {
	return "ch" + string(rune('1'+channel)) + "." + suffix
}

// expect validates a read-back value against the variant and minimum
// element count the module family documents for the register.
func expect(v register.Value, tag register.Tag, minLength int) error {
	if v.Tag != tag || v.Length < minLength {
		return wlmio.NewError(wlmio.ErrNotSupported, nil)
	}
	return nil
}
