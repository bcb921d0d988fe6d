package modules

import (
	"context"
	"fmt"

	"github.com/widgetlords/libwlmio/pkg/register"
)

// Vpe6050Mode selects a vpe6050 analog output channel's drive direction.
type Vpe6050Mode uint8

const (
	Vpe6050ModeSource Vpe6050Mode = 0
	Vpe6050ModeSink   Vpe6050Mode = 1
)

// Vpe6050Write sets channel's (0-3) output value on a vpe6050 analog
// output module.
func (c *Client) Vpe6050Write(ctx context.Context, node uint8, channel uint8, value uint16) error {
	if channel > 3 {
		return fmt.Errorf("modules: vpe6050 channel %d out of range 0-3", channel)
	}
	_, err := c.bc.RegisterAccess(ctx, node, channelRegister(channel, "output"), register.NewUint16(value))
	return err
}

// Vpe6050Configure sets channel's (0-3) source/sink drive mode on a
// vpe6050 analog output module.
func (c *Client) Vpe6050Configure(ctx context.Context, node uint8, channel uint8, mode Vpe6050Mode) error {
	if channel > 3 {
		return fmt.Errorf("modules: vpe6050 channel %d out of range 0-3", channel)
	}
	if mode > Vpe6050ModeSink {
		return fmt.Errorf("modules: vpe6050 mode %d out of range", mode)
	}
	_, err := c.bc.RegisterAccess(ctx, node, channelRegister(channel, "mode"), register.NewUint8(uint8(mode)))
	return err
}
