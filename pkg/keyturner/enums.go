// Package keyturner defines the typed records the lock reports and
// accepts, with explicit little-endian (de)serializers. Encoded sizes
// are documented per type; decoding never relies on host memory layout.
package keyturner

import "fmt"

// DeviceState is the top-level state of the lock firmware.
type DeviceState uint8

const (
	DeviceUninitialized DeviceState = 0x00
	DevicePairingMode   DeviceState = 0x01
	DeviceDoorMode      DeviceState = 0x02
	DeviceMaintenance   DeviceState = 0x04
)

// LockState is the bolt position reported in KeyTurnerState.
type LockState uint8

const (
	LockStateUncalibrated LockState = 0x00
	LockStateLocked       LockState = 0x01
	LockStateUnlocking    LockState = 0x02
	LockStateUnlocked     LockState = 0x03
	LockStateLocking      LockState = 0x04
	LockStateUnlatched    LockState = 0x05
	LockStateUnlockedLnGo LockState = 0x06
	LockStateUnlatching   LockState = 0x07
	LockStateCalibration  LockState = 0xFC
	LockStateBootRun      LockState = 0xFD
	LockStateMotorBlocked LockState = 0xFE
	LockStateUndefined    LockState = 0xFF
)

func (s LockState) String() string {
	switch s {
	case LockStateUncalibrated:
		return "Uncalibrated"
	case LockStateLocked:
		return "Locked"
	case LockStateUnlocking:
		return "Unlocking"
	case LockStateUnlocked:
		return "Unlocked"
	case LockStateLocking:
		return "Locking"
	case LockStateUnlatched:
		return "Unlatched"
	case LockStateUnlockedLnGo:
		return "UnlockedLockNGo"
	case LockStateUnlatching:
		return "Unlatching"
	case LockStateCalibration:
		return "Calibration"
	case LockStateBootRun:
		return "BootRun"
	case LockStateMotorBlocked:
		return "MotorBlocked"
	default:
		return fmt.Sprintf("LockState(0x%02X)", uint8(s))
	}
}

// Action is a lock operation requested with the LockAction command.
type Action uint8

const (
	ActionUnlock         Action = 0x01
	ActionLock           Action = 0x02
	ActionUnlatch        Action = 0x03
	ActionLockNGo        Action = 0x04
	ActionLockNGoUnlatch Action = 0x05
	ActionFullLock       Action = 0x06
	ActionFobAction1     Action = 0x81
	ActionFobAction2     Action = 0x82
	ActionFobAction3     Action = 0x83
)

func (a Action) String() string {
	switch a {
	case ActionUnlock:
		return "Unlock"
	case ActionLock:
		return "Lock"
	case ActionUnlatch:
		return "Unlatch"
	case ActionLockNGo:
		return "LockNGo"
	case ActionLockNGoUnlatch:
		return "LockNGoUnlatch"
	case ActionFullLock:
		return "FullLock"
	case ActionFobAction1:
		return "FobAction1"
	case ActionFobAction2:
		return "FobAction2"
	case ActionFobAction3:
		return "FobAction3"
	default:
		return fmt.Sprintf("Action(0x%02X)", uint8(a))
	}
}

// Trigger records what initiated the last state change.
type Trigger uint8

const (
	TriggerSystem    Trigger = 0x00
	TriggerManual    Trigger = 0x01
	TriggerButton    Trigger = 0x02
	TriggerAutomatic Trigger = 0x03
	TriggerAutoLock  Trigger = 0x06
)

// DoorSensorState reports the optional door sensor.
type DoorSensorState uint8

const (
	DoorSensorUnavailable     DoorSensorState = 0x00
	DoorSensorDeactivated     DoorSensorState = 0x01
	DoorSensorClosed          DoorSensorState = 0x02
	DoorSensorOpened          DoorSensorState = 0x03
	DoorSensorUnknown         DoorSensorState = 0x04
	DoorSensorCalibrating     DoorSensorState = 0x05
)

// CompletionStatus is the outcome byte of the last lock action.
type CompletionStatus uint8

const (
	CompletionSuccess          CompletionStatus = 0x00
	CompletionMotorBlocked     CompletionStatus = 0x01
	CompletionCanceled         CompletionStatus = 0x02
	CompletionTooRecent        CompletionStatus = 0x03
	CompletionBusy             CompletionStatus = 0x04
	CompletionLowMotorVoltage  CompletionStatus = 0x05
	CompletionClutchFailure    CompletionStatus = 0x06
	CompletionMotorPowerFailure CompletionStatus = 0x07
	CompletionIncompleteFailure CompletionStatus = 0x08
	CompletionOtherError       CompletionStatus = 0xFE
	CompletionUnknown          CompletionStatus = 0xFF
)

// ButtonPressAction configures the lock's physical button.
type ButtonPressAction uint8

const (
	ButtonNoAction        ButtonPressAction = 0x00
	ButtonIntelligent     ButtonPressAction = 0x01
	ButtonUnlock          ButtonPressAction = 0x02
	ButtonLock            ButtonPressAction = 0x03
	ButtonUnlatch         ButtonPressAction = 0x04
	ButtonLockNGo         ButtonPressAction = 0x05
	ButtonShowStatus      ButtonPressAction = 0x06
)

// BatteryType selects the discharge curve used for battery estimation.
type BatteryType uint8

const (
	BatteryAlkali      BatteryType = 0x00
	BatteryAccumulator BatteryType = 0x01
	BatteryLithium     BatteryType = 0x02
)

// AdvertisingMode trades advertising interval against battery life.
type AdvertisingMode uint8

const (
	AdvertisingAutomatic AdvertisingMode = 0x00
	AdvertisingNormal    AdvertisingMode = 0x01
	AdvertisingSlow      AdvertisingMode = 0x02
	AdvertisingSlowest   AdvertisingMode = 0x03
)

// IDType classifies a paired authorization.
type IDType uint8

const (
	IDTypeApp    IDType = 0x00
	IDTypeBridge IDType = 0x01
	IDTypeFob    IDType = 0x02
	IDTypeKeypad IDType = 0x03
)

// StatusComplete and StatusAccepted are the two Status reply values.
const (
	StatusComplete uint8 = 0x00
	StatusAccepted uint8 = 0x01
	// StatusNone marks "no status received yet" in session state; it
	// never appears on the wire.
	StatusNone uint8 = 0xFF
)
