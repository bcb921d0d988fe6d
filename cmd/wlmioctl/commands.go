package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/widgetlords/libwlmio/pkg/blocking"
	"github.com/widgetlords/libwlmio/pkg/register"
	"github.com/widgetlords/libwlmio/pkg/services"
)

func cmdInfo(ctx context.Context, c *blocking.Client, node uint8) error {
	info, err := c.GetInfo(ctx, node)
	if err != nil {
		return fmt.Errorf("GetInfo: %w", err)
	}
	fmt.Printf("protocol  %d.%d\n", info.ProtocolVersion.Major, info.ProtocolVersion.Minor)
	fmt.Printf("hardware  %d.%d\n", info.HardwareVersion.Major, info.HardwareVersion.Minor)
	fmt.Printf("software  %d.%d\n", info.SoftwareVersion.Major, info.SoftwareVersion.Minor)
	fmt.Printf("vcs id    0x%016x\n", info.SoftwareVCSRevisionID)
	fmt.Printf("unique id %x\n", info.UniqueID)
	fmt.Printf("name      %s\n", info.Name)
	if info.HasSoftwareImageCRC {
		fmt.Printf("image crc 0x%016x\n", info.SoftwareImageCRC)
	}
	if len(info.CertificateOfAuth) > 0 {
		fmt.Printf("coa       %x\n", info.CertificateOfAuth)
	}
	return nil
}

func cmdList(parent context.Context, timeout time.Duration, c *blocking.Client, node uint8) error {
	for index := uint16(0); ; index++ {
		ctx, cancel := context.WithTimeout(parent, timeout)
		name, end, err := c.RegisterList(ctx, node, index)
		cancel()
		if err != nil {
			return fmt.Errorf("Register.List[%d]: %w", index, err)
		}
		if end {
			return nil
		}
		fmt.Println(name)
	}
}

func cmdGet(ctx context.Context, c *blocking.Client, node uint8, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get requires exactly one argument: <name>")
	}
	v, err := c.RegisterAccess(ctx, node, args[0], register.NewEmpty())
	if err != nil {
		return fmt.Errorf("Register.Access(%s): %w", args[0], err)
	}
	fmt.Println(formatValue(v))
	return nil
}

func cmdSet(ctx context.Context, c *blocking.Client, node uint8, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("set requires exactly three arguments: <name> <type> <value>")
	}
	name, typ, raw := args[0], args[1], args[2]
	v, err := parseValue(typ, raw)
	if err != nil {
		return err
	}
	if _, err := c.RegisterAccess(ctx, node, name, v); err != nil {
		return fmt.Errorf("Register.Access(%s): %w", name, err)
	}
	return nil
}

func cmdCommand(ctx context.Context, c *blocking.Client, node uint8, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("command requires at least one argument: <name|id> [hex-param]")
	}
	id, err := parseCommandID(args[0])
	if err != nil {
		return err
	}
	var param []byte
	if len(args) > 1 {
		param, err = hex.DecodeString(args[1])
		if err != nil {
			return fmt.Errorf("invalid hex parameter %q: %w", args[1], err)
		}
	}
	status, err := c.ExecuteCommand(ctx, node, id, param)
	if err != nil {
		return fmt.Errorf("ExecuteCommand(%d): %w", id, err)
	}
	fmt.Println(commandStatusName(status))
	if status != services.CommandSuccess {
		return fmt.Errorf("command returned status %s", commandStatusName(status))
	}
	return nil
}

func parseCommandID(s string) (uint16, error) {
	switch strings.ToLower(s) {
	case "restart":
		return services.CommandRestart, nil
	case "factory-reset":
		return services.CommandFactoryReset, nil
	case "store":
		return services.CommandStorePersistentStates, nil
	case "software-update":
		return services.CommandBeginSoftwareUpdate, nil
	case "power-off":
		return services.CommandPowerOff, nil
	case "emergency-stop":
		return services.CommandEmergencyStop, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("unknown command %q", s)
	}
	return uint16(v), nil
}

func commandStatusName(s services.CommandStatus) string {
	switch s {
	case services.CommandSuccess:
		return "success"
	case services.CommandFailure:
		return "failure"
	case services.CommandNotAuthorized:
		return "not-authorized"
	case services.CommandBadCommand:
		return "bad-command"
	case services.CommandBadParameter:
		return "bad-parameter"
	case services.CommandBadState:
		return "bad-state"
	case services.CommandInternalError:
		return "internal-error"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

func parseValue(typ, raw string) (register.Value, error) {
	switch typ {
	case "u8":
		v, err := strconv.ParseUint(raw, 0, 8)
		return register.NewUint8(uint8(v)), wrapParse(typ, raw, err)
	case "u16":
		v, err := strconv.ParseUint(raw, 0, 16)
		return register.NewUint16(uint16(v)), wrapParse(typ, raw, err)
	case "u32":
		v, err := strconv.ParseUint(raw, 0, 32)
		return register.NewUint32(uint32(v)), wrapParse(typ, raw, err)
	case "u64":
		v, err := strconv.ParseUint(raw, 0, 64)
		return register.NewUint64(v), wrapParse(typ, raw, err)
	case "i8":
		v, err := strconv.ParseInt(raw, 0, 8)
		return register.NewInt8(int8(v)), wrapParse(typ, raw, err)
	case "i16":
		v, err := strconv.ParseInt(raw, 0, 16)
		return register.NewInt16(int16(v)), wrapParse(typ, raw, err)
	case "i32":
		v, err := strconv.ParseInt(raw, 0, 32)
		return register.NewInt32(int32(v)), wrapParse(typ, raw, err)
	case "i64":
		v, err := strconv.ParseInt(raw, 0, 64)
		return register.NewInt64(v), wrapParse(typ, raw, err)
	case "f32":
		v, err := strconv.ParseFloat(raw, 32)
		return register.NewFloat32(float32(v)), wrapParse(typ, raw, err)
	case "f64":
		v, err := strconv.ParseFloat(raw, 64)
		return register.NewFloat64(v), wrapParse(typ, raw, err)
	case "string":
		return register.NewString(raw), nil
	default:
		return register.Value{}, fmt.Errorf("unknown register type %q (want u8 u16 u32 u64 i8 i16 i32 i64 f32 f64 string)", typ)
	}
}

func wrapParse(typ, raw string, err error) error {
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", typ, raw, err)
	}
	return nil
}

func formatValue(v register.Value) string {
	switch v.Tag {
	case register.TagEmpty:
		return "<empty>"
	case register.TagString, register.TagUnstructured:
		return v.String()
	case register.TagBit:
		return fmt.Sprintf("%v", v.Bits())
	case register.TagInt8:
		return fmt.Sprintf("%v", v.Int8s())
	case register.TagInt16:
		return fmt.Sprintf("%v", v.Int16s())
	case register.TagInt32:
		return fmt.Sprintf("%v", v.Int32s())
	case register.TagInt64:
		return fmt.Sprintf("%v", v.Int64s())
	case register.TagUint8:
		return fmt.Sprintf("%v", v.Uint8s())
	case register.TagUint16:
		return fmt.Sprintf("%v", v.Uint16s())
	case register.TagUint32:
		return fmt.Sprintf("%v", v.Uint32s())
	case register.TagUint64:
		return fmt.Sprintf("%v", v.Uint64s())
	case register.TagFloat16:
		return fmt.Sprintf("%v", v.Float16s())
	case register.TagFloat32:
		return fmt.Sprintf("%v", v.Float32s())
	case register.TagFloat64:
		return fmt.Sprintf("%v", v.Float64s())
	default:
		return fmt.Sprintf("<unknown tag %d>", v.Tag)
	}
}
