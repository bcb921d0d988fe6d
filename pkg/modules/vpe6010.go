package modules

import (
	"context"

	"github.com/widgetlords/libwlmio/pkg/register"
)

// Vpe6010Input holds one sample from a vpe6010 6-channel analog input
// monitor: four voltage readings (millivolts) and two current readings
// (milliamps), in the fixed order the module reports them.
type Vpe6010Input struct {
	Ma5V   uint16 // 5V rail current, mA
	Mv5V   uint16 // 5V rail voltage, mV
	Mv24V1 uint16 // 24V rail 1 voltage, mV
	Mv24V2 uint16 // 24V rail 2 voltage, mV
	Mv24V  uint16 // combined 24V voltage, mV
	Ma24V  uint16 // 24V rail current, mA
}

// Vpe6010Read reads the current sample from a vpe6010 module on node.
func (c *Client) Vpe6010Read(ctx context.Context, node uint8) (*Vpe6010Input, error) {
	v, err := c.bc.RegisterAccess(ctx, node, "input", register.NewEmpty())
	if err != nil {
		return nil, err
	}
	if err := expect(v, register.TagUint16, 6); err != nil {
		return nil, err
	}
	elems := v.Uint16s()
	return &Vpe6010Input{
		Ma5V:   elems[0],
		Mv5V:   elems[1],
		Mv24V1: elems[2],
		Mv24V2: elems[3],
		Mv24V:  elems[4],
		Ma24V:  elems[5],
	}, nil
}
