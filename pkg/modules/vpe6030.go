package modules

import (
	"context"
	"fmt"

	"github.com/widgetlords/libwlmio/pkg/register"
)

// Vpe6030Write sets channel's (0-3) output value on a vpe6030
// digital-potentiometer-style analog output module.
func (c *Client) Vpe6030Write(ctx context.Context, node uint8, channel uint8, value uint8) error {
	if channel > 3 {
		return fmt.Errorf("modules: vpe6030 channel %d out of range 0-3", channel)
	}
	_, err := c.bc.RegisterAccess(ctx, node, channelRegister(channel, "output"), register.NewUint8(value))
	return err
}
