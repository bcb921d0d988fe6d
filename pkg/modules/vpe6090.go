package modules

import (
	"context"
	"fmt"

	"github.com/widgetlords/libwlmio/pkg/register"
)

// Vpe6090Type selects a vpe6090 channel's thermocouple type.
type Vpe6090Type uint8

const (
	Vpe6090TypeJ Vpe6090Type = 0
	Vpe6090TypeK Vpe6090Type = 1
	Vpe6090TypeT Vpe6090Type = 2
)

// Vpe6090Read reads channel's (0-5) current reading from a vpe6090
// thermocouple input module.
func (c *Client) Vpe6090Read(ctx context.Context, node uint8, channel uint8) (uint16, error) {
	if channel > 5 {
		return 0, fmt.Errorf("modules: vpe6090 channel %d out of range 0-5", channel)
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

// Vpe6090Configure sets channel's (0-5) thermocouple type on a vpe6090
// thermocouple input module.
func (c *Client) Vpe6090Configure(ctx context.Context, node uint8, channel uint8, thermocoupleType Vpe6090Type) error {
	if channel > 5 {
		return fmt.Errorf("modules: vpe6090 channel %d out of range 0-5", channel)
	}
	if thermocoupleType > Vpe6090TypeT {
		return fmt.Errorf("modules: vpe6090 thermocouple type %d out of range", thermocoupleType)
	}
	_, err := c.bc.RegisterAccess(ctx, node, channelRegister(channel, "type"), register.NewUint8(uint8(thermocoupleType)))
	return err
}
