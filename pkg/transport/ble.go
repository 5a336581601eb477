package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/pion/logging"
)

// GATT layout of the lock. The pairing service carries plain frames on
// its GDIO characteristic; the keyturner service carries encrypted
// frames on USDIO.
var (
	PairingServiceUUID   = ble.MustParse("a92ee100-5501-11e4-916c-0800200c9a66")
	PairingGDIOUUID      = ble.MustParse("a92ee101-5501-11e4-916c-0800200c9a66")
	KeyturnerServiceUUID = ble.MustParse("a92ee200-5501-11e4-916c-0800200c9a66")
	KeyturnerUSDIOUUID   = ble.MustParse("a92ee202-5501-11e4-916c-0800200c9a66")
)

// requestMTU is asked of the peer after connecting so a full frame fits
// in a single indication.
const requestMTU = 247

// DefaultScanTimeout bounds Discover when the caller's context carries
// no deadline.
const DefaultScanTimeout = 10 * time.Second

// BLEConfig assembles a BLE transport.
type BLEConfig struct {
	// Device is the HCI handle, e.g. linux.NewDevice(). Required.
	Device ble.Device

	// OnConnect and OnDisconnect observe link state changes. Both may
	// be nil. OnDisconnect fires when the link drops while the
	// transport is open; Close does not invoke it.
	OnConnect    func(addr [6]byte)
	OnDisconnect func(addr [6]byte)

	LoggerFactory logging.LoggerFactory
}

// BLE drives a lock over a GATT connection. Frames written to the
// pairing channel go to the pairing service's GDIO characteristic,
// user frames to the keyturner service's USDIO characteristic, both as
// acknowledged writes. Indications from either characteristic fan into
// the handler set with SetHandler.
type BLE struct {
	device       ble.Device
	onConnect    func(addr [6]byte)
	onDisconnect func(addr [6]byte)
	log          logging.LeveledLogger

	mu      sync.Mutex
	client  ble.Client
	gdio    *ble.Characteristic
	usdio   *ble.Characteristic
	handler Handler
	addr    [6]byte
	closed  bool
}

// NewBLE builds a BLE transport on an open device.
func NewBLE(config BLEConfig) (*BLE, error) {
	if config.Device == nil {
		return nil, fmt.Errorf("transport: BLE device required")
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &BLE{
		device:       config.Device,
		onConnect:    config.OnConnect,
		onDisconnect: config.OnDisconnect,
		log:          loggerFactory.NewLogger("nuki-ble"),
	}, nil
}

// Discover scans for locks advertising the pairing service and returns
// their addresses. Duplicates are collapsed. The scan runs until ctx
// is done, or DefaultScanTimeout when ctx has no deadline.
func Discover(ctx context.Context, device ble.Device) ([][6]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultScanTimeout)
		defer cancel()
	}

	var mu sync.Mutex
	seen := make(map[[6]byte]struct{})
	var found [][6]byte

	err := device.Scan(ctx, false, func(a ble.Advertisement) {
		if !advertisesPairing(a) {
			return
		}
		addr, err := ParseAddress(a.Addr().String())
		if err != nil {
			return
		}
		mu.Lock()
		if _, dup := seen[addr]; !dup {
			seen[addr] = struct{}{}
			found = append(found, addr)
		}
		mu.Unlock()
	})
	if err != nil && ctx.Err() == nil {
		return found, fmt.Errorf("transport: scan: %w", err)
	}
	return found, nil
}

func advertisesPairing(a ble.Advertisement) bool {
	for _, u := range a.Services() {
		if u.Equal(PairingServiceUUID) {
			return true
		}
	}
	return false
}

// Connect dials addr, discovers the two data characteristics, and
// subscribes to their indications.
func (t *BLE) Connect(ctx context.Context, addr [6]byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.client != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	want := FormatAddress(addr)
	client, err := t.device.Dial(ctx, ble.NewAddr(want))
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", want, err)
	}
	if _, err := client.ExchangeMTU(requestMTU); err != nil {
		t.log.Debugf("MTU exchange with %s: %v", want, err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		client.CancelConnection()
		return fmt.Errorf("transport: discover profile on %s: %w", want, err)
	}
	gdio, err := findCharacteristic(profile, PairingServiceUUID, PairingGDIOUUID)
	if err != nil {
		client.CancelConnection()
		return err
	}
	usdio, err := findCharacteristic(profile, KeyturnerServiceUUID, KeyturnerUSDIOUUID)
	if err != nil {
		client.CancelConnection()
		return err
	}

	if err := client.Subscribe(gdio, true, func(b []byte) {
		t.deliver(ChannelPairing, b)
	}); err != nil {
		client.CancelConnection()
		return fmt.Errorf("transport: subscribe pairing: %w", err)
	}
	if err := client.Subscribe(usdio, true, func(b []byte) {
		t.deliver(ChannelUser, b)
	}); err != nil {
		client.CancelConnection()
		return fmt.Errorf("transport: subscribe user: %w", err)
	}

	t.mu.Lock()
	t.client = client
	t.gdio = gdio
	t.usdio = usdio
	t.addr = addr
	t.mu.Unlock()

	go t.watchLink(client, addr)

	t.log.Infof("connected to %s", want)
	if t.onConnect != nil {
		t.onConnect(addr)
	}
	return nil
}

func findCharacteristic(p *ble.Profile, svc, chr ble.UUID) (*ble.Characteristic, error) {
	for _, s := range p.Services {
		if !s.UUID.Equal(svc) {
			continue
		}
		for _, c := range s.Characteristics {
			if c.UUID.Equal(chr) {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("transport: characteristic %s not found", chr)
}

// watchLink clears the connection when the peer drops it.
func (t *BLE) watchLink(client ble.Client, addr [6]byte) {
	<-client.Disconnected()

	t.mu.Lock()
	current := t.client == client
	if current {
		t.client = nil
		t.gdio = nil
		t.usdio = nil
	}
	t.mu.Unlock()

	if current {
		t.log.Infof("disconnected from %s", FormatAddress(addr))
		if t.onDisconnect != nil {
			t.onDisconnect(addr)
		}
	}
}

func (t *BLE) deliver(ch Channel, b []byte) {
	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()
	if handler == nil {
		return
	}
	frame := make([]byte, len(b))
	copy(frame, b)
	handler(ch, frame)
}

// IsConnected reports whether a link is up.
func (t *BLE) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client != nil
}

// WritePairing writes b to the pairing GDIO characteristic.
func (t *BLE) WritePairing(b []byte) error {
	return t.write(ChannelPairing, b)
}

// WriteUser writes b to the keyturner USDIO characteristic.
func (t *BLE) WriteUser(b []byte) error {
	return t.write(ChannelUser, b)
}

func (t *BLE) write(ch Channel, b []byte) error {
	t.mu.Lock()
	client := t.client
	c := t.usdio
	if ch == ChannelPairing {
		c = t.gdio
	}
	closed := t.closed
	t.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if client == nil || c == nil {
		return ErrNotConnected
	}
	if err := client.WriteCharacteristic(c, b, false); err != nil {
		return fmt.Errorf("transport: write %v: %w", ch, err)
	}
	return nil
}

// SetHandler installs the indication sink.
func (t *BLE) SetHandler(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Close drops the link and releases the device.
func (t *BLE) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	client := t.client
	t.client = nil
	t.gdio = nil
	t.usdio = nil
	t.mu.Unlock()

	if client != nil {
		client.CancelConnection()
	}
	return t.device.Stop()
}

// FormatAddress renders a MAC as the colon-separated form BLE stacks
// expect.
func FormatAddress(addr [6]byte) string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		addr[0], addr[1], addr[2], addr[3], addr[4], addr[5])
}

// ParseAddress parses a colon-separated MAC.
func ParseAddress(s string) ([6]byte, error) {
	var addr [6]byte
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 6 {
		return addr, fmt.Errorf("transport: malformed address %q", s)
	}
	for i, p := range parts {
		var b byte
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil {
			return addr, fmt.Errorf("transport: malformed address %q", s)
		}
		addr[i] = b
	}
	return addr, nil
}

var _ Transport = (*BLE)(nil)
