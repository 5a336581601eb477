package keyturner

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeKeyTurnerStateZeros(t *testing.T) {
	state, err := DecodeKeyTurnerState(make([]byte, KeyTurnerStateSize))
	if err != nil {
		t.Fatalf("DecodeKeyTurnerState() error: %v", err)
	}
	if state != (KeyTurnerState{}) {
		t.Fatalf("DecodeKeyTurnerState() = %+v, want zero value", state)
	}
}

func TestDecodeKeyTurnerState(t *testing.T) {
	b := []byte{
		0x02,       // door mode
		0x01,       // locked
		0x02,       // button trigger
		0xE8, 0x07, // year 2024
		0x06, 0x0F, 0x0C, 0x1E, 0x2D, // Jun 15 12:30:45
		0x3C, 0x00, // +60 min
		0x80, // battery critical
		0x05, // config update count
		0x00,
		0x02, // last action: lock
		0x01, // manual trigger
		0x00, // success
		0x02, // door closed
		0x01, 0x00,
	}
	state, err := DecodeKeyTurnerState(b)
	if err != nil {
		t.Fatalf("DecodeKeyTurnerState() error: %v", err)
	}
	if state.LockState != LockStateLocked {
		t.Fatalf("LockState = %v, want Locked", state.LockState)
	}
	if state.CurrentTime.Year != 2024 || state.CurrentTime.Second != 45 {
		t.Fatalf("CurrentTime = %+v", state.CurrentTime)
	}
	if state.TimeZoneOffset != 60 {
		t.Fatalf("TimeZoneOffset = %d, want 60", state.TimeZoneOffset)
	}
	if !state.CriticalBatteryState.Critical() {
		t.Fatal("CriticalBatteryState.Critical() = false, want true")
	}
	if state.DoorSensorState != DoorSensorClosed {
		t.Fatalf("DoorSensorState = %v, want closed", state.DoorSensorState)
	}
	if state.NightModeActive != 1 {
		t.Fatalf("NightModeActive = %d, want 1", state.NightModeActive)
	}
}

func TestDecodeConfigRoundTripThroughNewConfig(t *testing.T) {
	raw := make([]byte, ConfigSize)
	copy(raw[0:], []byte{0x78, 0x56, 0x34, 0x12}) // nuki ID
	copy(raw[4:], "Front Door")
	raw[44] = 1 // auto unlatch
	raw[46] = 1 // button enabled
	raw[48] = 0x32
	raw[72] = 0x25 // time zone ID 37

	cfg, err := DecodeConfig(raw)
	if err != nil {
		t.Fatalf("DecodeConfig() error: %v", err)
	}
	if cfg.NukiID != 0x12345678 {
		t.Fatalf("NukiID = 0x%08X, want 0x12345678", cfg.NukiID)
	}
	if cfg.Name != "Front Door" {
		t.Fatalf("Name = %q, want %q", cfg.Name, "Front Door")
	}
	if !cfg.AutoUnlatch || !cfg.ButtonEnabled || cfg.PairingEnabled {
		t.Fatalf("flag decode wrong: %+v", cfg)
	}
	if cfg.LEDBrightness != 0x32 {
		t.Fatalf("LEDBrightness = %d, want 50", cfg.LEDBrightness)
	}
	if cfg.TimeZoneID != 37 {
		t.Fatalf("TimeZoneID = %d, want 37", cfg.TimeZoneID)
	}

	var nc NewConfig
	nc.FromConfig(cfg)
	encoded, err := nc.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if len(encoded) != 55 {
		t.Fatalf("Encode() length = %d, want 55", len(encoded))
	}
	if !bytes.HasPrefix(encoded, append([]byte("Front Door"), make([]byte, 22)...)) {
		t.Fatalf("Encode() name field = %x", encoded[:32])
	}
}

func TestNewConfigNameTooLong(t *testing.T) {
	nc := NewConfig{Name: string(bytes.Repeat([]byte{'x'}, 33))}
	if _, err := nc.Encode(); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("Encode() error = %v, want ErrNameTooLong", err)
	}
}

func TestAdvancedConfigRoundTripThroughNew(t *testing.T) {
	raw := make([]byte, AdvancedConfigSize)
	raw[0] = 0x10 // total degrees
	raw[2] = 0xFF
	raw[3] = 0xFF  // unlocked offset -1
	raw[14] = 1    // battery type accumulator
	raw[16] = 30   // unlatch duration
	raw[17] = 0x2C // 300 s auto lock timeout
	raw[18] = 0x01
	raw[20] = 1  // night mode enabled
	raw[21] = 22 // start 22:00

	cfg, err := DecodeAdvancedConfig(raw)
	if err != nil {
		t.Fatalf("DecodeAdvancedConfig() error: %v", err)
	}
	if cfg.TotalDegrees != 0x10 {
		t.Fatalf("TotalDegrees = %d", cfg.TotalDegrees)
	}
	if cfg.UnlockedPositionOffsetDegrees != -1 {
		t.Fatalf("UnlockedPositionOffsetDegrees = %d, want -1", cfg.UnlockedPositionOffsetDegrees)
	}
	if cfg.BatteryType != BatteryAccumulator {
		t.Fatalf("BatteryType = %d", cfg.BatteryType)
	}
	if cfg.AutoLockTimeout != 0x012C {
		t.Fatalf("AutoLockTimeout = %d, want 300", cfg.AutoLockTimeout)
	}
	if !cfg.NightModeEnabled || cfg.NightModeStartTime.Hour != 22 {
		t.Fatalf("night mode decode wrong: %+v", cfg)
	}

	var nc NewAdvancedConfig
	nc.FromAdvancedConfig(cfg)
	encoded := nc.Encode()
	if len(encoded) != 26 {
		t.Fatalf("Encode() length = %d, want 26", len(encoded))
	}
	// TotalDegrees is dropped; everything after shifts down two bytes.
	if !bytes.Equal(encoded, raw[2:]) {
		t.Fatalf("Encode() = %x, want %x", encoded, raw[2:])
	}
}

func TestDecodeBatteryReport(t *testing.T) {
	raw := []byte{
		0x64, 0x00, // drain 100
		0x70, 0x17, // voltage 6000 mV
		0x40,       // charging
		0x02,       // lock
		0x70, 0x17, // start voltage
		0x60, 0x17, // lowest voltage
		0x2C, 0x01, // distance
		0x15,       // 21 C
		0xF4, 0x01, // max current
		0x64, 0x00, // resistance
	}
	report, err := DecodeBatteryReport(raw)
	if err != nil {
		t.Fatalf("DecodeBatteryReport() error: %v", err)
	}
	if report.BatteryVoltage != 6000 {
		t.Fatalf("BatteryVoltage = %d, want 6000", report.BatteryVoltage)
	}
	if !report.CriticalBatteryState.Charging() {
		t.Fatal("Charging() = false, want true")
	}
	if report.StartTemperature != 21 {
		t.Fatalf("StartTemperature = %d, want 21", report.StartTemperature)
	}
}

func TestDecodeLogEntry(t *testing.T) {
	raw := make([]byte, LogEntrySize+4)
	raw[0] = 0x2A // index 42
	copy(raw[15:], "admin")
	raw[47] = 0x02                                // lock action type
	copy(raw[48:], []byte{0x02, 0x01, 0x00, 0x00}) // detail

	entry, err := DecodeLogEntry(raw)
	if err != nil {
		t.Fatalf("DecodeLogEntry() error: %v", err)
	}
	if entry.Index != 42 {
		t.Fatalf("Index = %d, want 42", entry.Index)
	}
	if entry.Name != "admin" {
		t.Fatalf("Name = %q, want %q", entry.Name, "admin")
	}
	if entry.Type != 0x02 || len(entry.Data) != 4 {
		t.Fatalf("Type = %d, Data = %x", entry.Type, entry.Data)
	}
}

func TestDecodeShortPayloads(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]byte) error
		size int
	}{
		{"KeyTurnerState", func(b []byte) error { _, err := DecodeKeyTurnerState(b); return err }, KeyTurnerStateSize},
		{"Config", func(b []byte) error { _, err := DecodeConfig(b); return err }, ConfigSize},
		{"AdvancedConfig", func(b []byte) error { _, err := DecodeAdvancedConfig(b); return err }, AdvancedConfigSize},
		{"BatteryReport", func(b []byte) error { _, err := DecodeBatteryReport(b); return err }, BatteryReportSize},
		{"LogEntry", func(b []byte) error { _, err := DecodeLogEntry(b); return err }, LogEntrySize},
		{"AuthorizationEntry", func(b []byte) error { _, err := DecodeAuthorizationEntry(b); return err }, AuthorizationEntrySize},
		{"KeypadEntry", func(b []byte) error { _, err := DecodeKeypadEntry(b); return err }, KeypadEntrySize},
		{"TimeControlEntry", func(b []byte) error { _, err := DecodeTimeControlEntry(b); return err }, TimeControlEntrySize},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.fn(make([]byte, tc.size-1)); !errors.Is(err, ErrShortPayload) {
				t.Fatalf("decode of %d bytes: error = %v, want ErrShortPayload", tc.size-1, err)
			}
			if err := tc.fn(make([]byte, tc.size)); err != nil {
				t.Fatalf("decode of %d bytes: error = %v", tc.size, err)
			}
		})
	}
}

func TestAuthorizationEntryDecode(t *testing.T) {
	raw := make([]byte, AuthorizationEntrySize)
	copy(raw[0:], []byte{0x01, 0x00, 0x00, 0x00})
	raw[4] = uint8(IDTypeBridge)
	copy(raw[5:], "bridge")
	raw[37] = 1 // enabled
	raw[38] = 1 // remote allowed
	raw[53] = 0x07
	raw[54] = 0x00 // lock count 7

	entry, err := DecodeAuthorizationEntry(raw)
	if err != nil {
		t.Fatalf("DecodeAuthorizationEntry() error: %v", err)
	}
	if entry.AuthID != 1 || entry.IDType != IDTypeBridge || entry.Name != "bridge" {
		t.Fatalf("entry = %+v", entry)
	}
	if !entry.Enabled || !entry.RemoteAllowed {
		t.Fatalf("flags wrong: %+v", entry)
	}
	if entry.LockCount != 7 {
		t.Fatalf("LockCount = %d, want 7", entry.LockCount)
	}
}

func TestTimeControlEntryDecode(t *testing.T) {
	entry, err := DecodeTimeControlEntry([]byte{0x03, 0x01, 0x7F, 0x08, 0x1E, 0x02})
	if err != nil {
		t.Fatalf("DecodeTimeControlEntry() error: %v", err)
	}
	want := TimeControlEntry{
		EntryID:    3,
		Enabled:    true,
		Weekdays:   0x7F,
		Time:       TimeOfDay{Hour: 8, Minute: 30},
		LockAction: ActionLock,
	}
	if entry != want {
		t.Fatalf("entry = %+v, want %+v", entry, want)
	}
}

func TestNewTimeControlEntryEncode(t *testing.T) {
	got := NewTimeControlEntry{Weekdays: 0x40, Time: TimeOfDay{Hour: 23, Minute: 0}, LockAction: ActionLock}.Encode()
	if !bytes.Equal(got, []byte{0x40, 23, 0, 0x02}) {
		t.Fatalf("Encode() = %x", got)
	}
}

func TestBatteryPercentage(t *testing.T) {
	tests := []struct {
		state CriticalBatteryState
		want  uint8
	}{
		{0x00, 0},
		// 50% is carried as 25 with the significant bits mirrored.
		{0b10011000, 2 * 0b11001},
		{0b00000100, 2},
	}
	for _, tc := range tests {
		if got := tc.state.Percentage(); got != tc.want {
			t.Fatalf("Percentage(0b%08b) = %d, want %d", uint8(tc.state), got, tc.want)
		}
	}
}
