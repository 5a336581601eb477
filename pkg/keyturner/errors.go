package keyturner

import "fmt"

// ErrorCode is the error byte carried by an ErrorReport reply. P_
// codes are pairing-service errors, K_ codes keyturner-service errors,
// and the top range is generic framing errors.
type ErrorCode uint8

const (
	ErrorNone ErrorCode = 0x00

	PErrorNotPairing       ErrorCode = 0x10
	PErrorBadAuthenticator ErrorCode = 0x11
	PErrorBadParameter     ErrorCode = 0x12
	PErrorMaxUser          ErrorCode = 0x13

	KErrorNotAuthorized       ErrorCode = 0x20
	KErrorBadPin              ErrorCode = 0x21
	KErrorBadNonce            ErrorCode = 0x22
	KErrorBadParameter        ErrorCode = 0x23
	KErrorInvalidAuthID       ErrorCode = 0x24
	KErrorDisabled            ErrorCode = 0x25
	KErrorRemoteNotAllowed    ErrorCode = 0x26
	KErrorTimeNotAllowed      ErrorCode = 0x27
	KErrorTooManyPinAttempts  ErrorCode = 0x28
	KErrorTooManyEntries      ErrorCode = 0x29
	KErrorCodeAlreadyExists   ErrorCode = 0x2A
	KErrorCodeInvalid         ErrorCode = 0x2B
	KErrorAutoUnlockTooRecent ErrorCode = 0x40
	KErrorPositionUnknown     ErrorCode = 0x41
	KErrorMotorBlocked        ErrorCode = 0x42
	KErrorClutchFailure       ErrorCode = 0x43
	KErrorMotorTimeout        ErrorCode = 0x44
	KErrorBusy                ErrorCode = 0x45
	KErrorCanceled            ErrorCode = 0x46
	KErrorNotCalibrated       ErrorCode = 0x47
	KErrorMotorLowVoltage     ErrorCode = 0x49
	KErrorMotorPowerFailure   ErrorCode = 0x4A
	KErrorClutchPowerFailure  ErrorCode = 0x4B
	KErrorVoltageTooLow       ErrorCode = 0x4C
	KErrorFirmwareUpdateNeeded ErrorCode = 0x4D

	ErrorBadCRC    ErrorCode = 0xFD
	ErrorBadLength ErrorCode = 0xFE
	ErrorUnknown   ErrorCode = 0xFF
)

func (e ErrorCode) String() string {
	switch e {
	case ErrorNone:
		return "None"
	case PErrorNotPairing:
		return "P_ERROR_NOT_PAIRING"
	case PErrorBadAuthenticator:
		return "P_ERROR_BAD_AUTHENTICATOR"
	case PErrorBadParameter:
		return "P_ERROR_BAD_PARAMETER"
	case PErrorMaxUser:
		return "P_ERROR_MAX_USER"
	case KErrorNotAuthorized:
		return "K_ERROR_NOT_AUTHORIZED"
	case KErrorBadPin:
		return "K_ERROR_BAD_PIN"
	case KErrorBadNonce:
		return "K_ERROR_BAD_NONCE"
	case KErrorBadParameter:
		return "K_ERROR_BAD_PARAMETER"
	case KErrorInvalidAuthID:
		return "K_ERROR_INVALID_AUTH_ID"
	case KErrorDisabled:
		return "K_ERROR_DISABLED"
	case KErrorRemoteNotAllowed:
		return "K_ERROR_REMOTE_NOT_ALLOWED"
	case KErrorTimeNotAllowed:
		return "K_ERROR_TIME_NOT_ALLOWED"
	case KErrorTooManyPinAttempts:
		return "K_ERROR_TOO_MANY_PIN_ATTEMPTS"
	case KErrorTooManyEntries:
		return "K_ERROR_TOO_MANY_ENTRIES"
	case KErrorCodeAlreadyExists:
		return "K_ERROR_CODE_ALREADY_EXISTS"
	case KErrorCodeInvalid:
		return "K_ERROR_CODE_INVALID"
	case KErrorAutoUnlockTooRecent:
		return "K_ERROR_AUTO_UNLOCK_TOO_RECENT"
	case KErrorPositionUnknown:
		return "K_ERROR_POSITION_UNKNOWN"
	case KErrorMotorBlocked:
		return "K_ERROR_MOTOR_BLOCKED"
	case KErrorClutchFailure:
		return "K_ERROR_CLUTCH_FAILURE"
	case KErrorMotorTimeout:
		return "K_ERROR_MOTOR_TIMEOUT"
	case KErrorBusy:
		return "K_ERROR_BUSY"
	case KErrorCanceled:
		return "K_ERROR_CANCELED"
	case KErrorNotCalibrated:
		return "K_ERROR_NOT_CALIBRATED"
	case KErrorMotorLowVoltage:
		return "K_ERROR_MOTOR_LOW_VOLTAGE"
	case KErrorMotorPowerFailure:
		return "K_ERROR_MOTOR_POWER_FAILURE"
	case KErrorClutchPowerFailure:
		return "K_ERROR_CLUTCH_POWER_FAILURE"
	case KErrorVoltageTooLow:
		return "K_ERROR_VOLTAGE_TOO_LOW"
	case KErrorFirmwareUpdateNeeded:
		return "K_ERROR_FIRMWARE_UPDATE_NEEDED"
	case ErrorBadCRC:
		return "ERROR_BAD_CRC"
	case ErrorBadLength:
		return "ERROR_BAD_LENGTH"
	case ErrorUnknown:
		return "ERROR_UNKNOWN"
	default:
		return fmt.Sprintf("ErrorCode(0x%02X)", uint8(e))
	}
}
