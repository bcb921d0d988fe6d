package modules

import (
	"context"
	"fmt"

	wlmio "github.com/widgetlords/libwlmio"
	"github.com/widgetlords/libwlmio/pkg/register"
)

// Vpe6080Read reads channel's (0-7) current raw reading from a vpe6080
// thermocouple/RTD input module.
func (c *Client) Vpe6080Read(ctx context.Context, node uint8, channel uint8) (uint16, error) {
	if channel > 7 {
		return 0, fmt.Errorf("modules: vpe6080 channel %d out of range 0-7", channel)
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

// Vpe6080Configure enables or disables channel (0-7) on a vpe6080
// thermocouple/RTD input module and sets its beta and T0 calibration
// constants. All three register writes are dispatched together; the
// first failure observed is returned once every write has resolved.
func (c *Client) Vpe6080Configure(ctx context.Context, node uint8, channel uint8, enabled bool, beta uint16, t0 uint16) error {
	if channel > 7 {
		return fmt.Errorf("modules: vpe6080 channel %d out of range 0-7", channel)
	}

	enabledByte := uint8(0)
	if enabled {
		enabledByte = 1
	}
	return c.bc.RegisterWriteAll(ctx, node, []wlmio.RegisterWrite{
		{Name: channelRegister(channel, "enabled"), Value: register.NewUint8(enabledByte)},
		{Name: channelRegister(channel, "beta"), Value: register.NewUint16(beta)},
		{Name: channelRegister(channel, "t0"), Value: register.NewUint16(t0)},
	})
}
