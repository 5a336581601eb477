package keyturner

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	ErrShortPayload = errors.New("keyturner: payload too short")
	ErrNameTooLong  = errors.New("keyturner: name exceeds field size")
)

// TimeValue is the 7-byte date/time representation used throughout the
// protocol: year (2 LE), month, day, hour, minute, second.
type TimeValue struct {
	Year   uint16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

// TimeValueSize is the encoded size of a TimeValue.
const TimeValueSize = 7

// Encode appends the 7-byte encoding to b.
func (t TimeValue) Encode(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, t.Year)
	return append(b, t.Month, t.Day, t.Hour, t.Minute, t.Second)
}

func decodeTimeValue(b []byte) TimeValue {
	return TimeValue{
		Year:   binary.LittleEndian.Uint16(b),
		Month:  b[2],
		Day:    b[3],
		Hour:   b[4],
		Minute: b[5],
		Second: b[6],
	}
}

// TimeOfDay is the 2-byte hour/minute pair used for time windows.
type TimeOfDay struct {
	Hour   uint8
	Minute uint8
}

// cursor walks a payload during decoding. Bounds are checked up front
// by the decoder, so reads never fault.
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) u8() uint8 {
	v := c.b[c.off]
	c.off++
	return v
}

func (c *cursor) boolean() bool { return c.u8() != 0 }

func (c *cursor) u16() uint16 {
	v := binary.LittleEndian.Uint16(c.b[c.off:])
	c.off += 2
	return v
}

func (c *cursor) i16() int16 { return int16(c.u16()) }

func (c *cursor) u32() uint32 {
	v := binary.LittleEndian.Uint32(c.b[c.off:])
	c.off += 4
	return v
}

func (c *cursor) f32() float32 { return math.Float32frombits(c.u32()) }

func (c *cursor) timeValue() TimeValue {
	v := decodeTimeValue(c.b[c.off:])
	c.off += TimeValueSize
	return v
}

func (c *cursor) timeOfDay() TimeOfDay {
	return TimeOfDay{Hour: c.u8(), Minute: c.u8()}
}

func (c *cursor) name(n int) string {
	raw := c.b[c.off : c.off+n]
	c.off += n
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	return string(raw[:end])
}

// appendName zero-pads name to n bytes. Longer names are rejected by
// the encoder before this is reached.
func appendName(b []byte, name string, n int) []byte {
	padded := make([]byte, n)
	copy(padded, name)
	return append(b, padded...)
}

func b2u8(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// KeyTurnerState is the lock's primary status record. Encoded size:
// 21 bytes.
type KeyTurnerState struct {
	NukiState                      DeviceState
	LockState                      LockState
	Trigger                        Trigger
	CurrentTime                    TimeValue
	TimeZoneOffset                 int16
	CriticalBatteryState           CriticalBatteryState
	ConfigUpdateCount              uint8
	LockNGoTimer                   uint8
	LastLockAction                 Action
	LastLockActionTrigger          Trigger
	LastLockActionCompletionStatus CompletionStatus
	DoorSensorState                DoorSensorState
	NightModeActive                uint16
}

// KeyTurnerStateSize is the encoded size of KeyTurnerState.
const KeyTurnerStateSize = 21

// DecodeKeyTurnerState parses a KeyturnerStates payload.
func DecodeKeyTurnerState(b []byte) (KeyTurnerState, error) {
	if len(b) < KeyTurnerStateSize {
		return KeyTurnerState{}, ErrShortPayload
	}
	c := cursor{b: b}
	return KeyTurnerState{
		NukiState:                      DeviceState(c.u8()),
		LockState:                      LockState(c.u8()),
		Trigger:                        Trigger(c.u8()),
		CurrentTime:                    c.timeValue(),
		TimeZoneOffset:                 c.i16(),
		CriticalBatteryState:           CriticalBatteryState(c.u8()),
		ConfigUpdateCount:              c.u8(),
		LockNGoTimer:                   c.u8(),
		LastLockAction:                 Action(c.u8()),
		LastLockActionTrigger:          Trigger(c.u8()),
		LastLockActionCompletionStatus: CompletionStatus(c.u8()),
		DoorSensorState:                DoorSensorState(c.u8()),
		NightModeActive:                c.u16(),
	}, nil
}

// Config is the lock's configuration record. Encoded size: 74 bytes.
type Config struct {
	NukiID           uint32
	Name             string
	Latitude         float32
	Longitude        float32
	AutoUnlatch      bool
	PairingEnabled   bool
	ButtonEnabled    bool
	LEDEnabled       bool
	LEDBrightness    uint8
	CurrentTime      TimeValue
	TimeZoneOffset   int16
	DSTMode          bool
	HasFob           bool
	FobAction1       uint8
	FobAction2       uint8
	FobAction3       uint8
	SingleLock       bool
	AdvertisingMode  AdvertisingMode
	HasKeypad        bool
	FirmwareVersion  [3]uint8
	HardwareRevision [2]uint8
	HomeKitStatus    uint8
	TimeZoneID       uint16
}

// ConfigSize is the encoded size of Config.
const ConfigSize = 74

// DecodeConfig parses a Config payload.
func DecodeConfig(b []byte) (Config, error) {
	if len(b) < ConfigSize {
		return Config{}, ErrShortPayload
	}
	c := cursor{b: b}
	cfg := Config{
		NukiID:         c.u32(),
		Name:           c.name(32),
		Latitude:       c.f32(),
		Longitude:      c.f32(),
		AutoUnlatch:    c.boolean(),
		PairingEnabled: c.boolean(),
		ButtonEnabled:  c.boolean(),
		LEDEnabled:     c.boolean(),
		LEDBrightness:  c.u8(),
		CurrentTime:    c.timeValue(),
		TimeZoneOffset: c.i16(),
		DSTMode:        c.boolean(),
		HasFob:         c.boolean(),
		FobAction1:     c.u8(),
		FobAction2:     c.u8(),
		FobAction3:     c.u8(),
		SingleLock:     c.boolean(),
	}
	cfg.AdvertisingMode = AdvertisingMode(c.u8())
	cfg.HasKeypad = c.boolean()
	cfg.FirmwareVersion = [3]uint8{c.u8(), c.u8(), c.u8()}
	cfg.HardwareRevision = [2]uint8{c.u8(), c.u8()}
	cfg.HomeKitStatus = c.u8()
	cfg.TimeZoneID = c.u16()
	return cfg, nil
}

// NewConfig is the writable subset of Config carried by SetConfig.
// Encoded size: 55 bytes.
type NewConfig struct {
	Name            string
	Latitude        float32
	Longitude       float32
	AutoUnlatch     bool
	PairingEnabled  bool
	ButtonEnabled   bool
	LEDEnabled      bool
	LEDBrightness   uint8
	TimeZoneOffset  int16
	DSTMode         bool
	FobAction1      uint8
	FobAction2      uint8
	FobAction3      uint8
	SingleLock      bool
	AdvertisingMode AdvertisingMode
	TimeZoneID      uint16
}

// FromConfig seeds a NewConfig with the writable fields of cfg.
func (n *NewConfig) FromConfig(cfg Config) {
	n.Name = cfg.Name
	n.Latitude = cfg.Latitude
	n.Longitude = cfg.Longitude
	n.AutoUnlatch = cfg.AutoUnlatch
	n.PairingEnabled = cfg.PairingEnabled
	n.ButtonEnabled = cfg.ButtonEnabled
	n.LEDEnabled = cfg.LEDEnabled
	n.LEDBrightness = cfg.LEDBrightness
	n.TimeZoneOffset = cfg.TimeZoneOffset
	n.DSTMode = cfg.DSTMode
	n.FobAction1 = cfg.FobAction1
	n.FobAction2 = cfg.FobAction2
	n.FobAction3 = cfg.FobAction3
	n.SingleLock = cfg.SingleLock
	n.AdvertisingMode = cfg.AdvertisingMode
	n.TimeZoneID = cfg.TimeZoneID
}

// Encode serializes the SetConfig payload.
func (n NewConfig) Encode() ([]byte, error) {
	if len(n.Name) > 32 {
		return nil, ErrNameTooLong
	}
	b := make([]byte, 0, 55)
	b = appendName(b, n.Name, 32)
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(n.Latitude))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(n.Longitude))
	b = append(b, b2u8(n.AutoUnlatch), b2u8(n.PairingEnabled), b2u8(n.ButtonEnabled), b2u8(n.LEDEnabled), n.LEDBrightness)
	b = binary.LittleEndian.AppendUint16(b, uint16(n.TimeZoneOffset))
	b = append(b, b2u8(n.DSTMode), n.FobAction1, n.FobAction2, n.FobAction3, b2u8(n.SingleLock), uint8(n.AdvertisingMode))
	b = binary.LittleEndian.AppendUint16(b, n.TimeZoneID)
	return b, nil
}

// AdvancedConfig is the extended configuration record. Encoded size:
// 28 bytes.
type AdvancedConfig struct {
	TotalDegrees                            uint16
	UnlockedPositionOffsetDegrees           int16
	LockedPositionOffsetDegrees             int16
	SingleLockedPositionOffsetDegrees       int16
	UnlockedToLockedTransitionOffsetDegrees int16
	LockNGoTimeout                          uint8
	SingleButtonPressAction                 ButtonPressAction
	DoubleButtonPressAction                 ButtonPressAction
	DetachedCylinder                        bool
	BatteryType                             BatteryType
	AutomaticBatteryTypeDetection           bool
	UnlatchDuration                         uint8
	AutoLockTimeout                         uint16
	AutoUnlockDisabled                      bool
	NightModeEnabled                        bool
	NightModeStartTime                      TimeOfDay
	NightModeEndTime                        TimeOfDay
	NightModeAutoLockEnabled                bool
	NightModeAutoUnlockDisabled             bool
	NightModeImmediateLockOnStart           bool
}

// AdvancedConfigSize is the encoded size of AdvancedConfig.
const AdvancedConfigSize = 28

// DecodeAdvancedConfig parses an AdvancedConfig payload.
func DecodeAdvancedConfig(b []byte) (AdvancedConfig, error) {
	if len(b) < AdvancedConfigSize {
		return AdvancedConfig{}, ErrShortPayload
	}
	c := cursor{b: b}
	return AdvancedConfig{
		TotalDegrees:                            c.u16(),
		UnlockedPositionOffsetDegrees:           c.i16(),
		LockedPositionOffsetDegrees:             c.i16(),
		SingleLockedPositionOffsetDegrees:       c.i16(),
		UnlockedToLockedTransitionOffsetDegrees: c.i16(),
		LockNGoTimeout:                          c.u8(),
		SingleButtonPressAction:                 ButtonPressAction(c.u8()),
		DoubleButtonPressAction:                 ButtonPressAction(c.u8()),
		DetachedCylinder:                        c.boolean(),
		BatteryType:                             BatteryType(c.u8()),
		AutomaticBatteryTypeDetection:           c.boolean(),
		UnlatchDuration:                         c.u8(),
		AutoLockTimeout:                         c.u16(),
		AutoUnlockDisabled:                      c.boolean(),
		NightModeEnabled:                        c.boolean(),
		NightModeStartTime:                      c.timeOfDay(),
		NightModeEndTime:                        c.timeOfDay(),
		NightModeAutoLockEnabled:                c.boolean(),
		NightModeAutoUnlockDisabled:             c.boolean(),
		NightModeImmediateLockOnStart:           c.boolean(),
	}, nil
}

// NewAdvancedConfig is the writable subset of AdvancedConfig carried
// by SetAdvancedConfig. Encoded size: 26 bytes.
type NewAdvancedConfig struct {
	UnlockedPositionOffsetDegrees           int16
	LockedPositionOffsetDegrees             int16
	SingleLockedPositionOffsetDegrees       int16
	UnlockedToLockedTransitionOffsetDegrees int16
	LockNGoTimeout                          uint8
	SingleButtonPressAction                 ButtonPressAction
	DoubleButtonPressAction                 ButtonPressAction
	DetachedCylinder                        bool
	BatteryType                             BatteryType
	AutomaticBatteryTypeDetection           bool
	UnlatchDuration                         uint8
	AutoLockTimeout                         uint16
	AutoUnlockDisabled                      bool
	NightModeEnabled                        bool
	NightModeStartTime                      TimeOfDay
	NightModeEndTime                        TimeOfDay
	NightModeAutoLockEnabled                bool
	NightModeAutoUnlockDisabled             bool
	NightModeImmediateLockOnStart           bool
}

// FromAdvancedConfig seeds a NewAdvancedConfig with the writable
// fields of cfg.
func (n *NewAdvancedConfig) FromAdvancedConfig(cfg AdvancedConfig) {
	n.UnlockedPositionOffsetDegrees = cfg.UnlockedPositionOffsetDegrees
	n.LockedPositionOffsetDegrees = cfg.LockedPositionOffsetDegrees
	n.SingleLockedPositionOffsetDegrees = cfg.SingleLockedPositionOffsetDegrees
	n.UnlockedToLockedTransitionOffsetDegrees = cfg.UnlockedToLockedTransitionOffsetDegrees
	n.LockNGoTimeout = cfg.LockNGoTimeout
	n.SingleButtonPressAction = cfg.SingleButtonPressAction
	n.DoubleButtonPressAction = cfg.DoubleButtonPressAction
	n.DetachedCylinder = cfg.DetachedCylinder
	n.BatteryType = cfg.BatteryType
	n.AutomaticBatteryTypeDetection = cfg.AutomaticBatteryTypeDetection
	n.UnlatchDuration = cfg.UnlatchDuration
	n.AutoLockTimeout = cfg.AutoLockTimeout
	n.AutoUnlockDisabled = cfg.AutoUnlockDisabled
	n.NightModeEnabled = cfg.NightModeEnabled
	n.NightModeStartTime = cfg.NightModeStartTime
	n.NightModeEndTime = cfg.NightModeEndTime
	n.NightModeAutoLockEnabled = cfg.NightModeAutoLockEnabled
	n.NightModeAutoUnlockDisabled = cfg.NightModeAutoUnlockDisabled
	n.NightModeImmediateLockOnStart = cfg.NightModeImmediateLockOnStart
}

// Encode serializes the SetAdvancedConfig payload.
func (n NewAdvancedConfig) Encode() []byte {
	b := make([]byte, 0, 26)
	b = binary.LittleEndian.AppendUint16(b, uint16(n.UnlockedPositionOffsetDegrees))
	b = binary.LittleEndian.AppendUint16(b, uint16(n.LockedPositionOffsetDegrees))
	b = binary.LittleEndian.AppendUint16(b, uint16(n.SingleLockedPositionOffsetDegrees))
	b = binary.LittleEndian.AppendUint16(b, uint16(n.UnlockedToLockedTransitionOffsetDegrees))
	b = append(b, n.LockNGoTimeout, uint8(n.SingleButtonPressAction), uint8(n.DoubleButtonPressAction),
		b2u8(n.DetachedCylinder), uint8(n.BatteryType), b2u8(n.AutomaticBatteryTypeDetection), n.UnlatchDuration)
	b = binary.LittleEndian.AppendUint16(b, n.AutoLockTimeout)
	b = append(b, b2u8(n.AutoUnlockDisabled), b2u8(n.NightModeEnabled),
		n.NightModeStartTime.Hour, n.NightModeStartTime.Minute,
		n.NightModeEndTime.Hour, n.NightModeEndTime.Minute,
		b2u8(n.NightModeAutoLockEnabled), b2u8(n.NightModeAutoUnlockDisabled), b2u8(n.NightModeImmediateLockOnStart))
	return b
}

// BatteryReport is the detailed battery diagnostics record. Encoded
// size: 17 bytes.
type BatteryReport struct {
	BatteryDrain         uint16
	BatteryVoltage       uint16
	CriticalBatteryState CriticalBatteryState
	LockAction           Action
	StartVoltage         uint16
	LowestVoltage        uint16
	LockDistance         uint16
	StartTemperature     int8
	MaxTurnCurrent       uint16
	BatteryResistance    uint16
}

// BatteryReportSize is the encoded size of BatteryReport.
const BatteryReportSize = 17

// DecodeBatteryReport parses a BatteryReport payload.
func DecodeBatteryReport(b []byte) (BatteryReport, error) {
	if len(b) < BatteryReportSize {
		return BatteryReport{}, ErrShortPayload
	}
	c := cursor{b: b}
	return BatteryReport{
		BatteryDrain:         c.u16(),
		BatteryVoltage:       c.u16(),
		CriticalBatteryState: CriticalBatteryState(c.u8()),
		LockAction:           Action(c.u8()),
		StartVoltage:         c.u16(),
		LowestVoltage:        c.u16(),
		LockDistance:         c.u16(),
		StartTemperature:     int8(c.u8()),
		MaxTurnCurrent:       c.u16(),
		BatteryResistance:    c.u16(),
	}, nil
}

// LogEntry is one activity-log record. Encoded size: 48 fixed bytes
// plus type-dependent detail data.
type LogEntry struct {
	Index     uint32
	Timestamp TimeValue
	AuthID    uint32
	Name      string
	Type      uint8
	Data      []byte
}

// LogEntrySize is the fixed part of an encoded LogEntry.
const LogEntrySize = 48

// DecodeLogEntry parses a LogEntry payload. Data keeps whatever
// trailing detail bytes the entry type carries.
func DecodeLogEntry(b []byte) (LogEntry, error) {
	if len(b) < LogEntrySize {
		return LogEntry{}, ErrShortPayload
	}
	c := cursor{b: b}
	e := LogEntry{
		Index:     c.u32(),
		Timestamp: c.timeValue(),
		AuthID:    c.u32(),
		Name:      c.name(32),
		Type:      c.u8(),
	}
	e.Data = append([]byte(nil), b[c.off:]...)
	return e, nil
}

// AuthorizationEntry describes one paired authorization. Encoded
// size: 75 bytes.
type AuthorizationEntry struct {
	AuthID           uint32
	IDType           IDType
	Name             string
	Enabled          bool
	RemoteAllowed    bool
	CreatedDate      TimeValue
	LastActiveDate   TimeValue
	LockCount        uint16
	TimeLimited      bool
	AllowedFromDate  TimeValue
	AllowedUntilDate TimeValue
	AllowedWeekdays  uint8
	AllowedFromTime  TimeOfDay
	AllowedUntilTime TimeOfDay
}

// AuthorizationEntrySize is the encoded size of AuthorizationEntry.
const AuthorizationEntrySize = 75

// DecodeAuthorizationEntry parses an AuthorizationEntry payload.
func DecodeAuthorizationEntry(b []byte) (AuthorizationEntry, error) {
	if len(b) < AuthorizationEntrySize {
		return AuthorizationEntry{}, ErrShortPayload
	}
	c := cursor{b: b}
	return AuthorizationEntry{
		AuthID:           c.u32(),
		IDType:           IDType(c.u8()),
		Name:             c.name(32),
		Enabled:          c.boolean(),
		RemoteAllowed:    c.boolean(),
		CreatedDate:      c.timeValue(),
		LastActiveDate:   c.timeValue(),
		LockCount:        c.u16(),
		TimeLimited:      c.boolean(),
		AllowedFromDate:  c.timeValue(),
		AllowedUntilDate: c.timeValue(),
		AllowedWeekdays:  c.u8(),
		AllowedFromTime:  c.timeOfDay(),
		AllowedUntilTime: c.timeOfDay(),
	}, nil
}

// NewAuthorizationEntry is the payload of an authorization invite.
// Encoded size: 54 bytes.
type NewAuthorizationEntry struct {
	Name             string
	IDType           IDType
	RemoteAllowed    bool
	TimeLimited      bool
	AllowedFromDate  TimeValue
	AllowedUntilDate TimeValue
	AllowedWeekdays  uint8
	AllowedFromTime  TimeOfDay
	AllowedUntilTime TimeOfDay
}

// Encode serializes the invite payload.
func (n NewAuthorizationEntry) Encode() ([]byte, error) {
	if len(n.Name) > 32 {
		return nil, ErrNameTooLong
	}
	b := make([]byte, 0, 54)
	b = appendName(b, n.Name, 32)
	b = append(b, uint8(n.IDType), b2u8(n.RemoteAllowed), b2u8(n.TimeLimited))
	b = n.AllowedFromDate.Encode(b)
	b = n.AllowedUntilDate.Encode(b)
	b = append(b, n.AllowedWeekdays, n.AllowedFromTime.Hour, n.AllowedFromTime.Minute,
		n.AllowedUntilTime.Hour, n.AllowedUntilTime.Minute)
	return b, nil
}

// UpdatedAuthorizationEntry is the payload of UpdateAuthorization.
// Encoded size: 58 bytes.
type UpdatedAuthorizationEntry struct {
	AuthID           uint32
	Name             string
	Enabled          bool
	RemoteAllowed    bool
	TimeLimited      bool
	AllowedFromDate  TimeValue
	AllowedUntilDate TimeValue
	AllowedWeekdays  uint8
	AllowedFromTime  TimeOfDay
	AllowedUntilTime TimeOfDay
}

// Encode serializes the update payload.
func (n UpdatedAuthorizationEntry) Encode() ([]byte, error) {
	if len(n.Name) > 32 {
		return nil, ErrNameTooLong
	}
	b := make([]byte, 0, 58)
	b = binary.LittleEndian.AppendUint32(b, n.AuthID)
	b = appendName(b, n.Name, 32)
	b = append(b, b2u8(n.Enabled), b2u8(n.RemoteAllowed), b2u8(n.TimeLimited))
	b = n.AllowedFromDate.Encode(b)
	b = n.AllowedUntilDate.Encode(b)
	b = append(b, n.AllowedWeekdays, n.AllowedFromTime.Hour, n.AllowedFromTime.Minute,
		n.AllowedUntilTime.Hour, n.AllowedUntilTime.Minute)
	return b, nil
}

// KeypadEntry describes one keypad code. Encoded size: 63 bytes.
type KeypadEntry struct {
	CodeID           uint16
	Code             uint32
	Name             string
	Enabled          bool
	CreatedDate      TimeValue
	LastActiveDate   TimeValue
	LockCount        uint16
	TimeLimited      bool
	AllowedFromDate  TimeValue
	AllowedUntilDate TimeValue
	AllowedWeekdays  uint8
	AllowedFromTime  TimeOfDay
	AllowedUntilTime TimeOfDay
}

// KeypadEntrySize is the encoded size of KeypadEntry.
const KeypadEntrySize = 63

// DecodeKeypadEntry parses a KeypadCode payload.
func DecodeKeypadEntry(b []byte) (KeypadEntry, error) {
	if len(b) < KeypadEntrySize {
		return KeypadEntry{}, ErrShortPayload
	}
	c := cursor{b: b}
	return KeypadEntry{
		CodeID:           c.u16(),
		Code:             c.u32(),
		Name:             c.name(20),
		Enabled:          c.boolean(),
		CreatedDate:      c.timeValue(),
		LastActiveDate:   c.timeValue(),
		LockCount:        c.u16(),
		TimeLimited:      c.boolean(),
		AllowedFromDate:  c.timeValue(),
		AllowedUntilDate: c.timeValue(),
		AllowedWeekdays:  c.u8(),
		AllowedFromTime:  c.timeOfDay(),
		AllowedUntilTime: c.timeOfDay(),
	}, nil
}

// NewKeypadEntry is the payload of AddKeypadCode. Encoded size: 44
// bytes.
type NewKeypadEntry struct {
	Code             uint32
	Name             string
	TimeLimited      bool
	AllowedFromDate  TimeValue
	AllowedUntilDate TimeValue
	AllowedWeekdays  uint8
	AllowedFromTime  TimeOfDay
	AllowedUntilTime TimeOfDay
}

// Encode serializes the AddKeypadCode payload.
func (n NewKeypadEntry) Encode() ([]byte, error) {
	if len(n.Name) > 20 {
		return nil, ErrNameTooLong
	}
	b := make([]byte, 0, 44)
	b = binary.LittleEndian.AppendUint32(b, n.Code)
	b = appendName(b, n.Name, 20)
	b = append(b, b2u8(n.TimeLimited))
	b = n.AllowedFromDate.Encode(b)
	b = n.AllowedUntilDate.Encode(b)
	b = append(b, n.AllowedWeekdays, n.AllowedFromTime.Hour, n.AllowedFromTime.Minute,
		n.AllowedUntilTime.Hour, n.AllowedUntilTime.Minute)
	return b, nil
}

// UpdatedKeypadEntry is the payload of UpdateKeypadCode. Encoded
// size: 47 bytes.
type UpdatedKeypadEntry struct {
	CodeID           uint16
	Code             uint32
	Name             string
	Enabled          bool
	TimeLimited      bool
	AllowedFromDate  TimeValue
	AllowedUntilDate TimeValue
	AllowedWeekdays  uint8
	AllowedFromTime  TimeOfDay
	AllowedUntilTime TimeOfDay
}

// Encode serializes the UpdateKeypadCode payload.
func (n UpdatedKeypadEntry) Encode() ([]byte, error) {
	if len(n.Name) > 20 {
		return nil, ErrNameTooLong
	}
	b := make([]byte, 0, 47)
	b = binary.LittleEndian.AppendUint16(b, n.CodeID)
	b = binary.LittleEndian.AppendUint32(b, n.Code)
	b = appendName(b, n.Name, 20)
	b = append(b, b2u8(n.Enabled), b2u8(n.TimeLimited))
	b = n.AllowedFromDate.Encode(b)
	b = n.AllowedUntilDate.Encode(b)
	b = append(b, n.AllowedWeekdays, n.AllowedFromTime.Hour, n.AllowedFromTime.Minute,
		n.AllowedUntilTime.Hour, n.AllowedUntilTime.Minute)
	return b, nil
}

// TimeControlEntry describes one scheduled action. Encoded size: 6
// bytes.
type TimeControlEntry struct {
	EntryID    uint8
	Enabled    bool
	Weekdays   uint8
	Time       TimeOfDay
	LockAction Action
}

// TimeControlEntrySize is the encoded size of TimeControlEntry.
const TimeControlEntrySize = 6

// DecodeTimeControlEntry parses a TimeControlEntry payload.
func DecodeTimeControlEntry(b []byte) (TimeControlEntry, error) {
	if len(b) < TimeControlEntrySize {
		return TimeControlEntry{}, ErrShortPayload
	}
	c := cursor{b: b}
	return TimeControlEntry{
		EntryID:    c.u8(),
		Enabled:    c.boolean(),
		Weekdays:   c.u8(),
		Time:       c.timeOfDay(),
		LockAction: Action(c.u8()),
	}, nil
}

// NewTimeControlEntry is the payload of AddTimeControlEntry. Encoded
// size: 4 bytes.
type NewTimeControlEntry struct {
	Weekdays   uint8
	Time       TimeOfDay
	LockAction Action
}

// Encode serializes the AddTimeControlEntry payload.
func (n NewTimeControlEntry) Encode() []byte {
	return []byte{n.Weekdays, n.Time.Hour, n.Time.Minute, uint8(n.LockAction)}
}
