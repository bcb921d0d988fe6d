// Command modbusd bridges a Modbus RTU serial master onto the wlmio
// register surface: a single serial port and a register map driven by
// an INI config file, translating holding-register reads and writes
// into Register.Access calls against the fleet.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	serial "github.com/daedaluz/goserial"
	"github.com/pascaldekloe/modbus"
	log "github.com/sirupsen/logrus"

	wlmio "github.com/widgetlords/libwlmio"
	"github.com/widgetlords/libwlmio/pkg/blocking"
	"github.com/widgetlords/libwlmio/pkg/nodeid/static"
	"github.com/widgetlords/libwlmio/pkg/register"
)

// requestTimeout bounds each register translation's underlying
// wlmio call.
const requestTimeout = 500 * time.Millisecond

func main() {
	log.SetLevel(log.InfoLevel)

	configPath := flag.String("config", "modbusd.ini", "path to the INI configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fail(err)
	}

	src, err := static.New(cfg.LocalNodeID)
	if err != nil {
		fail(err)
	}

	log.Infof("modbusd: connecting to %s as local node %d", cfg.CANInterface, cfg.LocalNodeID)
	engine, err := wlmio.New(wlmio.Config{
		InterfaceType: "socketcan",
		Channel:       cfg.CANInterface,
		NodeID:        src,
	})
	if err != nil {
		fail(fmt.Errorf("connect to %s: %w", cfg.CANInterface, err))
	}
	defer engine.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infof("modbusd: opening serial port %s at %d baud", cfg.SerialPort, cfg.BaudRate)
	port, err := serial.Open(cfg.SerialPort, serial.NewOptions().SetReadTimeout(time.Second))
	if err != nil {
		fail(fmt.Errorf("open serial port %s: %w", cfg.SerialPort, err))
	}
	defer port.Close()

	attrs, err := port.GetAttr2()
	if err != nil {
		fail(fmt.Errorf("read serial attributes: %w", err))
	}
	attrs.MakeRaw()
	attrs.SetCustomSpeed(uint32(cfg.BaudRate))
	if err := port.SetAttr2(serial.TCSANOW, attrs); err != nil {
		fail(fmt.Errorf("configure serial line: %w", err))
	}

	client := blocking.New(engine)
	srv := &bridge{cfg: cfg, client: client, port: port}
	if err := srv.serve(ctx); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "modbusd:", err)
	os.Exit(1)
}

// bridge serves one Modbus RTU slave address over a serial port,
// translating register reads/writes into Cyphal Register.Access calls
// against cfg's address table.
type bridge struct {
	cfg    *config
	client *blocking.Client
	port   *serial.Port
}

func (b *bridge) serve(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := b.port.Read(buf)
		if err != nil {
			continue // read timeout: poll ctx again
		}
		if n == 0 {
			continue
		}

		frame, err := decodeRTU(buf[:n])
		if err != nil {
			log.Warnf("modbusd: %v", err)
			continue
		}
		if frame.Address != b.cfg.SlaveAddress {
			continue // not addressed to us
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		resp := b.handle(reqCtx, frame)
		cancel()

		if _, err := b.port.Write(resp); err != nil {
			log.Warnf("modbusd: write response: %v", err)
		}
	}
}

func (b *bridge) handle(ctx context.Context, frame rtuFrame) []byte {
	switch frame.Function {
	case funcReadHoldingRegs:
		return b.handleRead(ctx, frame)
	case funcWriteSingleReg:
		return b.handleWriteSingle(ctx, frame)
	default:
		return b.exception(frame, modbus.ErrFunc)
	}
}

func (b *bridge) handleRead(ctx context.Context, frame rtuFrame) []byte {
	if len(frame.Data) < 4 {
		return b.exception(frame, modbus.ErrValue)
	}
	start := binary.BigEndian.Uint16(frame.Data[0:2])
	count := binary.BigEndian.Uint16(frame.Data[2:4])

	out := make([]byte, 0, 2*int(count))
	for addr := start; addr < start+count; addr++ {
		mapping, ok := b.cfg.lookup(addr)
		if !ok {
			return b.exception(frame, modbus.ErrAddr)
		}
		words, err := b.readWords(ctx, mapping)
		if err != nil {
			log.Warnf("modbusd: read %s on node %d: %v", mapping.Name, mapping.Node, err)
			return b.exception(frame, modbus.ErrDev)
		}
		out = append(out, words...)
		if len(words) == 4 {
			addr++ // a 32-bit value also covers the next address
		}
	}

	payload := append([]byte{byte(len(out))}, out...)
	return encodeRTU(frame.Address, frame.Function, payload)
}

func (b *bridge) handleWriteSingle(ctx context.Context, frame rtuFrame) []byte {
	if len(frame.Data) < 4 {
		return b.exception(frame, modbus.ErrValue)
	}
	addr := binary.BigEndian.Uint16(frame.Data[0:2])
	value := binary.BigEndian.Uint16(frame.Data[2:4])

	mapping, ok := b.cfg.lookup(addr)
	if !ok {
		return b.exception(frame, modbus.ErrAddr)
	}
	if err := b.writeWord(ctx, mapping, value); err != nil {
		log.Warnf("modbusd: write %s on node %d: %v", mapping.Name, mapping.Node, err)
		return b.exception(frame, modbus.ErrDev)
	}

	return encodeRTU(frame.Address, frame.Function, frame.Data[:4])
}

// readWords reads mapping's Cyphal register and renders it as one or
// two big-endian 16-bit Modbus words, depending on its declared type.
func (b *bridge) readWords(ctx context.Context, mapping registerMapping) ([]byte, error) {
	v, err := b.client.RegisterAccess(ctx, mapping.Node, mapping.Name, register.NewEmpty())
	if err != nil {
		return nil, err
	}

	switch mapping.Type {
	case "u32", "i32", "f32":
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, v.Uint32())
		return buf, nil
	case "u8", "i8": // zero-extended to one word
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(v.Uint8()))
		return buf, nil
	default: // u16, i16
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, v.Uint16())
		return buf, nil
	}
}

// writeWord writes a single 16-bit Modbus value to mapping's Cyphal
// register: as a uint8 value for i8/u8 mappings and as a uint16 value
// for every other type. Signed and 32-bit types are not converted to
// their own register variant.
func (b *bridge) writeWord(ctx context.Context, mapping registerMapping, value uint16) error {
	var rv register.Value
	switch mapping.Type {
	case "i8", "u8":
		rv = register.NewUint8(uint8(value))
	case "i16", "u16":
		rv = register.NewUint16(value)
	default:
		rv = register.NewUint16(value)
	}
	_, err := b.client.RegisterAccess(ctx, mapping.Node, mapping.Name, rv)
	return err
}

func (b *bridge) exception(frame rtuFrame, ex modbus.Exception) []byte {
	return encodeRTU(frame.Address, frame.Function|exceptionFlag, []byte{byte(ex)})
}
