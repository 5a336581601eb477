// nuki-lockctl pairs with and operates a Nuki Smart Lock over BLE.
//
// Usage:
//
//	nuki-lockctl [options] <command>
//
// Commands:
//
//	discover   scan for locks in pairing mode
//	pair       run the pairing handshake and persist credentials
//	unpair     remove persisted credentials
//	state      print the lock state
//	lock       engage the lock
//	unlock     disengage the lock
//	unlatch    disengage and pull the latch
//	battery    print the battery report
//	log        print the most recent log entries
//
// Options:
//
//	-addr       lock MAC address, aa:bb:cc:dd:ee:ff (not needed once paired)
//	-name       name announced during pairing (default: "nuki-lockctl")
//	-device-id  numeric ID announced during pairing (default: 1)
//	-pin        security PIN for PIN-protected commands
//	-app-id     app ID sent with lock actions (default: device ID)
//	-timeout    per-step command timeout (default: 5s)
//	-verbose    debug logging
//
// Example:
//
//	nuki-lockctl -addr 54:d2:72:ac:8e:c2 pair
//	nuki-lockctl unlock
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-ble/ble/linux"
	"github.com/pion/logging"

	"github.com/keyturn/nukible/pkg/client"
	"github.com/keyturn/nukible/pkg/keyturner"
	"github.com/keyturn/nukible/pkg/store"
	"github.com/keyturn/nukible/pkg/transport"
)

type options struct {
	addr     string
	name     string
	deviceID uint
	pin      uint
	appID    uint
	timeout  time.Duration
	verbose  bool
}

func main() {
	var o options
	flag.StringVar(&o.addr, "addr", "", "lock MAC address (aa:bb:cc:dd:ee:ff)")
	flag.StringVar(&o.name, "name", "nuki-lockctl", "name announced during pairing")
	flag.UintVar(&o.deviceID, "device-id", 1, "numeric ID announced during pairing")
	flag.UintVar(&o.pin, "pin", 0, "security PIN for PIN-protected commands")
	flag.UintVar(&o.appID, "app-id", 0, "app ID sent with lock actions (default: device ID)")
	flag.DurationVar(&o.timeout, "timeout", client.DefaultCmdTimeout, "per-step command timeout")
	flag.BoolVar(&o.verbose, "verbose", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	if o.appID == 0 {
		o.appID = o.deviceID
	}

	if err := run(flag.Arg(0), o); err != nil {
		fmt.Fprintf(os.Stderr, "nuki-lockctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  discover | pair | unpair | state | lock | unlock | unlatch | battery | log\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func run(command string, o options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loggerFactory := logging.NewDefaultLoggerFactory()
	if o.verbose {
		loggerFactory.DefaultLogLevel = logging.LogLevelDebug
	}

	dev, err := linux.NewDevice()
	if err != nil {
		return fmt.Errorf("open BLE device: %w", err)
	}

	if command == "discover" {
		return discover(ctx, dev)
	}

	bt, err := transport.NewBLE(transport.BLEConfig{
		Device:        dev,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		return err
	}

	st := &store.Keyring{Service: store.DefaultService}
	c, err := client.New(client.Config{
		Transport:     bt,
		Store:         st,
		DeviceID:      uint32(o.deviceID),
		Name:          o.name,
		CmdTimeout:    o.timeout,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	if command == "unpair" {
		c.Unpair()
		fmt.Println("credentials removed")
		return nil
	}

	if o.pin != 0 {
		c.SetSecurityPIN(uint16(o.pin))
	}

	addr, err := lockAddress(o, c)
	if err != nil {
		return err
	}
	if err := c.Connect(ctx, addr); err != nil {
		return err
	}

	switch command {
	case "pair":
		if err := c.Pair(ctx); err != nil {
			return fmt.Errorf("pairing: %w", err)
		}
		fmt.Println("paired")
		return nil
	case "state":
		return printState(ctx, c)
	case "lock":
		return lockAction(ctx, c, keyturner.ActionLock, uint32(o.appID))
	case "unlock":
		return lockAction(ctx, c, keyturner.ActionUnlock, uint32(o.appID))
	case "unlatch":
		return lockAction(ctx, c, keyturner.ActionUnlatch, uint32(o.appID))
	case "battery":
		return printBattery(ctx, c)
	case "log":
		return printLog(ctx, c)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// lockAddress resolves the target address: the -addr flag when given,
// otherwise the address persisted at pairing time.
func lockAddress(o options, c *client.Client) ([6]byte, error) {
	if o.addr != "" {
		return transport.ParseAddress(o.addr)
	}
	addr := c.Session().PeerAddress()
	if addr == ([6]byte{}) {
		return addr, fmt.Errorf("no lock address: pass -addr or pair first")
	}
	return addr, nil
}

func discover(ctx context.Context, dev *linux.Device) error {
	fmt.Println("scanning for locks in pairing mode...")
	found, err := transport.Discover(ctx, dev)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("no locks found")
		return nil
	}
	for _, addr := range found {
		fmt.Println(transport.FormatAddress(addr))
	}
	return nil
}

func printState(ctx context.Context, c *client.Client) error {
	if r := c.RequestKeyTurnerState(ctx); r != client.ResultSuccess {
		return resultError("state", r, c)
	}
	s := c.KeyTurnerState()
	fmt.Printf("lock state:      %v\n", s.LockState)
	fmt.Printf("nuki state:      %v\n", s.NukiState)
	fmt.Printf("trigger:         %v\n", s.Trigger)
	fmt.Printf("battery critical: %t\n", s.CriticalBatteryState.Critical())
	fmt.Printf("time:            %v\n", s.CurrentTime)
	return nil
}

func lockAction(ctx context.Context, c *client.Client, action keyturner.Action, appID uint32) error {
	if r := c.LockAction(ctx, action, appID, 0, ""); r != client.ResultSuccess {
		return resultError(fmt.Sprintf("%v", action), r, c)
	}
	fmt.Printf("%v: done\n", action)
	return nil
}

func printBattery(ctx context.Context, c *client.Client) error {
	if r := c.RequestBatteryReport(ctx); r != client.ResultSuccess {
		return resultError("battery", r, c)
	}
	b := c.BatteryReport()
	fmt.Printf("voltage:     %d mV\n", b.BatteryVoltage)
	fmt.Printf("charge:      %d%%\n", b.CriticalBatteryState.Percentage())
	fmt.Printf("critical:    %t\n", b.CriticalBatteryState.Critical())
	fmt.Printf("last drain:  %d mWs\n", b.BatteryDrain)
	return nil
}

func printLog(ctx context.Context, c *client.Client) error {
	if r := c.RetrieveLogEntries(ctx, 0, 10, 1, false); r != client.ResultSuccess {
		return resultError("log", r, c)
	}
	// Entries trail the final status over the air.
	deadline := time.Now().Add(time.Second)
	for len(c.LogEntries()) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	entries := c.LogEntries()
	if len(entries) == 0 {
		fmt.Println("no log entries")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%6d  %v  type=%d  auth=%x\n", e.Index, e.Timestamp, e.Type, e.AuthID)
	}
	return nil
}

func resultError(what string, r client.CmdResult, c *client.Client) error {
	if r == client.ResultFailed {
		code, cmd := c.LastError()
		return fmt.Errorf("%s: %v (error %v for %v)", what, r, code, cmd)
	}
	return fmt.Errorf("%s: %v", what, r)
}
