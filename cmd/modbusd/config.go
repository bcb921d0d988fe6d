package main

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// registerMapping binds one Modbus holding-register address to a
// Cyphal register on a node.
type registerMapping struct {
	Address uint16
	Node    uint8
	Name    string
	Type    string // one of: u8 u16 u32 i8 i16 i32 f32 (a Modbus holding register is 16 bits; u32/i32/f32 span two consecutive addresses)
}

// config is the flat INI document modbusd loads at startup.
type config struct {
	SerialPort   string
	BaudRate     int
	SlaveAddress byte
	CANInterface string
	LocalNodeID  uint8
	Registers    []registerMapping
}

// loadConfig parses an INI file shaped like:
//
//	[serial]
//	port = /dev/ttyUSB0
//	baud = 9600
//	address = 1
//
//	[can]
//	interface = can0
//	node = 5
//
//	[register.0]
//	address = 100
//	node = 9
//	name = input
//	type = u16
func loadConfig(path string) (*config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("modbusd: load config %s: %w", path, err)
	}

	cfg := &config{}
	serial := f.Section("serial")
	cfg.SerialPort = serial.Key("port").MustString("/dev/ttyUSB0")
	cfg.BaudRate = serial.Key("baud").MustInt(9600)
	cfg.SlaveAddress = byte(serial.Key("address").MustInt(1))

	can := f.Section("can")
	cfg.CANInterface = can.Key("interface").MustString("can0")
	cfg.LocalNodeID = uint8(can.Key("node").MustInt(0))

	for _, name := range f.SectionStrings() {
		if len(name) < 9 || name[:9] != "register." {
			continue
		}
		sec := f.Section(name)
		mapping := registerMapping{
			Address: uint16(sec.Key("address").MustUint(0)),
			Node:    uint8(sec.Key("node").MustUint(0)),
			Name:    sec.Key("name").MustString(""),
			Type:    sec.Key("type").MustString("u16"),
		}
		if mapping.Name == "" {
			return nil, fmt.Errorf("modbusd: section [%s] missing name=", name)
		}
		cfg.Registers = append(cfg.Registers, mapping)
	}
	if len(cfg.Registers) == 0 {
		return nil, fmt.Errorf("modbusd: config has no [register.N] sections")
	}
	return cfg, nil
}

// lookup finds the mapping for a Modbus holding-register address, or
// reports ok=false for an address outside the configured table.
func (c *config) lookup(address uint16) (registerMapping, bool) {
	for _, m := range c.Registers {
		if m.Address == address {
			return m, true
		}
	}
	return registerMapping{}, false
}
