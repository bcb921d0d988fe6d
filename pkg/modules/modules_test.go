package modules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	wlmio "github.com/widgetlords/libwlmio"
	"github.com/widgetlords/libwlmio/pkg/register"
)

func TestChannelRegisterNamesAreOneBased(t *testing.T) {
	assert.Equal(t, "ch1.input", channelRegister(0, "input"))
	assert.Equal(t, "ch4.mode", channelRegister(3, "mode"))
	assert.Equal(t, "ch8.enabled", channelRegister(7, "enabled"))
}

func TestExpectAcceptsMatchingVariant(t *testing.T) {
	assert.NoError(t, expect(register.NewUint16(42), register.TagUint16, 1))
	assert.NoError(t, expect(register.NewUint16s([]uint16{1, 2, 3}), register.TagUint16, 3))
}

func TestExpectRejectsWrongTagOrShortValue(t *testing.T) {
	wrongTag := register.NewUint8(1)
	tooShort := register.NewUint16s([]uint16{1, 2, 3})
	for _, v := range []register.Value{wrongTag, tooShort} {
		err := expect(v, register.TagUint16, 6)
		var werr *wlmio.Error
		assert.True(t, errors.As(err, &werr))
		assert.Equal(t, wlmio.ErrNotSupported, werr.Kind)
	}
}
