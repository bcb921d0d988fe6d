package modules

import (
	"context"
	"fmt"

	"github.com/widgetlords/libwlmio/pkg/register"
)

// Vpe6040Mode selects a vpe6040 analog input channel's signal range.
type Vpe6040Mode uint8

const (
	Vpe6040Mode5V  Vpe6040Mode = 0
	Vpe6040ModeMA  Vpe6040Mode = 1
	Vpe6040Mode10V Vpe6040Mode = 2
)

// Vpe6040Read reads channel's (0-3) current raw value from a vpe6040
// analog input module.
func (c *Client) Vpe6040Read(ctx context.Context, node uint8, channel uint8) (uint16, error) {
	if channel > 3 {
		return 0, fmt.Errorf("modules: vpe6040 channel %d out of range 0-3", channel)
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

// Vpe6040Configure sets channel's (0-3) signal range on a vpe6040
// analog input module.
func (c *Client) Vpe6040Configure(ctx context.Context, node uint8, channel uint8, mode Vpe6040Mode) error {
	if channel > 3 {
		return fmt.Errorf("modules: vpe6040 channel %d out of range 0-3", channel)
	}
	if mode > Vpe6040Mode10V {
		return fmt.Errorf("modules: vpe6040 mode %d out of range", mode)
	}
	_, err := c.bc.RegisterAccess(ctx, node, channelRegister(channel, "mode"), register.NewUint8(uint8(mode)))
	return err
}
