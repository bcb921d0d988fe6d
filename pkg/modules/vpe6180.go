package modules

import (
	"context"
	"fmt"

	"github.com/widgetlords/libwlmio/pkg/register"
)

// Vpe6180Read reads channel's (0-7) current raw reading from a vpe6180
// analog input module.
func (c *Client) Vpe6180Read(ctx context.Context, node uint8, channel uint8) (uint16, error) {
	if channel > 7 {
		return 0, fmt.Errorf("modules: vpe6180 channel %d out of range 0-7", channel)
	}
	v, err := c.bc.RegisterAccess(ctx, node, channelRegister(channel, "input"), register.NewEmpty())
	if err != nil {
		return 0, err
	}
	if err := expect(v, register.TagUint16, 1); err != nil {
		return 0, err
	}
	return v.Uint16(), nil
}
