package modules

import (
	"context"
	"fmt"

	"github.com/widgetlords/libwlmio/pkg/register"
)

// Vpe6070Write sets channel's (0-3) output value on a vpe6070 digital
// output module.
func (c *Client) Vpe6070Write(ctx context.Context, node uint8, channel uint8, value uint16) error {
	if channel > 3 {
		return fmt.Errorf("modules: vpe6070 channel %d out of range 0-3", channel)
	}
	_, err := c.bc.RegisterAccess(ctx, node, channelRegister(channel, "output"), register.NewUint16(value))
	return err
}
