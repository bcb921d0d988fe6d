package modules

import (
	"context"
	"fmt"

	wlmio "github.com/widgetlords/libwlmio"
	"github.com/widgetlords/libwlmio/pkg/register"
)

// SetSampleInterval writes node's "sample_interval" register
// (milliseconds between input samples). The write's response carries
// the value the module actually applied; a readback that disagrees
// with the value written surfaces as wlmio.ErrMismatch.
func (c *Client) SetSampleInterval(ctx context.Context, node uint8, intervalMs uint16) error {
	v, err := c.bc.RegisterAccess(ctx, node, "sample_interval", register.NewUint16(intervalMs))
	if err != nil {
		return err
	}
	if err := expect(v, register.TagUint16, 1); err != nil {
		return err
	}
	if readback := v.Uint16(); readback != intervalMs {
		return wlmio.NewError(wlmio.ErrMismatch, fmt.Errorf("modules: sample_interval: wrote %d, module applied %d", intervalMs, readback))
	}
	return nil
}
