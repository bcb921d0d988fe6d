// Command wlmioctl is a one-shot CLI over the wlmio engine: GetInfo,
// Register.List/Access, ExecuteCommand, and a heartbeat watch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	wlmio "github.com/widgetlords/libwlmio"
	"github.com/widgetlords/libwlmio/pkg/blocking"
	"github.com/widgetlords/libwlmio/pkg/heartbeat"
	"github.com/widgetlords/libwlmio/pkg/nodeid/static"
)

func main() {
	log.SetLevel(log.InfoLevel)

	channel := flag.String("i", "can0", "socketcan interface e.g. can0, vcan0")
	localNode := flag.Uint("node", 0, "local node id (0-127)")
	timeout := flag.Duration("timeout", wlmio.DefaultRequestTimeout, "request timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	target, err := parseNodeID(args[0])
	if err != nil {
		fail(err)
	}
	subcommand := args[1]
	rest := args[2:]

	src, err := static.New(uint8(*localNode))
	if err != nil {
		fail(err)
	}

	cfg := wlmio.Config{
		InterfaceType: "socketcan",
		Channel:       *channel,
		NodeID:        src,
	}
	if subcommand == "watch" {
		cfg.OnStatusChange = printStatusChange
	}

	log.Infof("wlmioctl: connecting to %s as local node %d", *channel, *localNode)
	engine, err := wlmio.New(cfg)
	if err != nil {
		fail(fmt.Errorf("connect: %w", err))
	}
	defer engine.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The blocking client pumps the event loop itself; only the passive
	// watch subcommand needs the loop driven independently.
	if subcommand == "watch" {
		go func() { _ = engine.Run(ctx) }()
	}

	client := blocking.New(engine)

	var runErr error
	switch subcommand {
	case "info":
		callCtx, callCancel := context.WithTimeout(ctx, *timeout)
		runErr = cmdInfo(callCtx, client, target)
		callCancel()
	case "list":
		runErr = cmdList(ctx, *timeout, client, target)
	case "get":
		callCtx, callCancel := context.WithTimeout(ctx, *timeout)
		runErr = cmdGet(callCtx, client, target, rest)
		callCancel()
	case "set":
		callCtx, callCancel := context.WithTimeout(ctx, *timeout)
		runErr = cmdSet(callCtx, client, target, rest)
		callCancel()
	case "command":
		callCtx, callCancel := context.WithTimeout(ctx, *timeout)
		runErr = cmdCommand(callCtx, client, target, rest)
		callCancel()
	case "watch":
		runErr = cmdWatch(ctx)
	default:
		runErr = fmt.Errorf("unknown subcommand %q", subcommand)
	}

	cancel()

	if runErr != nil {
		fail(runErr)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: wlmioctl [-i iface] [-node id] [-timeout d] <node-id> <subcommand> [args...]

subcommands:
  info                         print GetInfo identity fields
  list                         walk the node's register namespace
  get <name>                   read a register and print its value
  set <name> <type> <value>    write a register (type: u8 u16 u32 u64 i8 i16 i32 i64 f32 f64 string)
  command <name|id> [hex-arg]  invoke a standard command (restart, factory-reset, store, software-update, power-off, emergency-stop)
  watch                        print heartbeat status-change notifications until interrupted`)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "wlmioctl:", err)
	os.Exit(1)
}

func parseNodeID(s string) (uint8, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	if !wlmio.ValidNodeID(uint8(v)) {
		return 0, fmt.Errorf("node id %d out of range 0..127", v)
	}
	return uint8(v), nil
}

func printStatusChange(node uint8, previous, current heartbeat.Status) {
	fmt.Printf("node %3d: mode %v -> %v  health %v  uptime %ds  vendor-status 0x%02x\n",
		node, previous.Mode, current.Mode, current.Health, current.Uptime, current.VendorStatus)
}

func cmdWatch(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	fmt.Println("watching heartbeats, press ctrl-c to stop...")
	select {
	case <-sigCh:
		return nil
	case <-ctx.Done():
		return nil
	}
}
