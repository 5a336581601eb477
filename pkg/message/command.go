package message

import "fmt"

// Command identifies an application-layer message. Commands are 16-bit
// little-endian on the wire.
type Command uint16

const (
	CmdEmpty                      Command = 0x00
	CmdRequestData                Command = 0x01
	CmdPublicKey                  Command = 0x03
	CmdChallenge                  Command = 0x04
	CmdAuthorizationAuthenticator Command = 0x05
	CmdAuthorizationData          Command = 0x06
	CmdAuthorizationID            Command = 0x07
	CmdRemoveUserAuthorization    Command = 0x08
	CmdKeyturnerStates            Command = 0x0C
	CmdLockAction                 Command = 0x0D
	CmdStatus                     Command = 0x0E
	CmdOpeningsClosingsSummary    Command = 0x10
	CmdBatteryReport              Command = 0x11
	CmdErrorReport                Command = 0x12
	CmdSetConfig                  Command = 0x13
	CmdRequestConfig              Command = 0x14
	CmdConfig                     Command = 0x15
	CmdAdvancedConfig             Command = 0x19
	CmdSetAdvancedConfig          Command = 0x1A
	CmdRequestAdvancedConfig      Command = 0x1B
	CmdAuthorizationIDConfirm     Command = 0x1E
	CmdAuthorizationIDInvite      Command = 0x1F
	CmdVerifySecurityPin          Command = 0x20
	CmdUpdateTime                 Command = 0x21
	CmdAuthorizationEntry         Command = 0x23
	CmdRequestAuthorizationEntries Command = 0x24
	CmdAuthorizationDataInvite    Command = 0x25
	CmdUpdateAuthorization        Command = 0x27
	CmdAuthorizationEntryCount    Command = 0x28
	CmdLogEntry                   Command = 0x31
	CmdRequestLogEntries          Command = 0x32
	CmdLogEntryCount              Command = 0x33
	CmdRequestCalibration         Command = 0x34
	CmdRequestReboot              Command = 0x35
	CmdAddKeypadCode              Command = 0x41
	CmdUpdateKeypadCode           Command = 0x42
	CmdRequestKeypadCodes         Command = 0x43
	CmdKeypadCode                 Command = 0x44
	CmdKeypadCodeCount            Command = 0x45
	CmdKeypadCodeID               Command = 0x46
	CmdKeypadAction               Command = 0x47
	CmdAddTimeControlEntry        Command = 0x51
	CmdTimeControlEntry           Command = 0x52
	CmdUpdateTimeControlEntry     Command = 0x53
	CmdRequestTimeControlEntries  Command = 0x54
	CmdRemoveTimeControlEntry     Command = 0x55
	CmdTimeControlEntryCount      Command = 0x56

	// CmdSetSecurityPin shares the value of CmdAdvancedConfig. The two
	// never collide in practice: 0x19 is only ever written by the client
	// as a set-PIN request and only ever received as an advanced-config
	// reply, so direction disambiguates.
	CmdSetSecurityPin = CmdAdvancedConfig
)

func (c Command) String() string {
	switch c {
	case CmdEmpty:
		return "Empty"
	case CmdRequestData:
		return "RequestData"
	case CmdPublicKey:
		return "PublicKey"
	case CmdChallenge:
		return "Challenge"
	case CmdAuthorizationAuthenticator:
		return "AuthorizationAuthenticator"
	case CmdAuthorizationData:
		return "AuthorizationData"
	case CmdAuthorizationID:
		return "AuthorizationID"
	case CmdRemoveUserAuthorization:
		return "RemoveUserAuthorization"
	case CmdKeyturnerStates:
		return "KeyturnerStates"
	case CmdLockAction:
		return "LockAction"
	case CmdStatus:
		return "Status"
	case CmdOpeningsClosingsSummary:
		return "OpeningsClosingsSummary"
	case CmdBatteryReport:
		return "BatteryReport"
	case CmdErrorReport:
		return "ErrorReport"
	case CmdSetConfig:
		return "SetConfig"
	case CmdRequestConfig:
		return "RequestConfig"
	case CmdConfig:
		return "Config"
	case CmdAdvancedConfig:
		return "AdvancedConfig"
	case CmdSetAdvancedConfig:
		return "SetAdvancedConfig"
	case CmdRequestAdvancedConfig:
		return "RequestAdvancedConfig"
	case CmdAuthorizationIDConfirm:
		return "AuthorizationIDConfirmation"
	case CmdAuthorizationIDInvite:
		return "AuthorizationIDInvite"
	case CmdVerifySecurityPin:
		return "VerifySecurityPin"
	case CmdUpdateTime:
		return "UpdateTime"
	case CmdAuthorizationEntry:
		return "AuthorizationEntry"
	case CmdRequestAuthorizationEntries:
		return "RequestAuthorizationEntries"
	case CmdAuthorizationDataInvite:
		return "AuthorizationDataInvite"
	case CmdUpdateAuthorization:
		return "UpdateAuthorization"
	case CmdAuthorizationEntryCount:
		return "AuthorizationEntryCount"
	case CmdLogEntry:
		return "LogEntry"
	case CmdRequestLogEntries:
		return "RequestLogEntries"
	case CmdLogEntryCount:
		return "LogEntryCount"
	case CmdRequestCalibration:
		return "RequestCalibration"
	case CmdRequestReboot:
		return "RequestReboot"
	case CmdAddKeypadCode:
		return "AddKeypadCode"
	case CmdUpdateKeypadCode:
		return "UpdateKeypadCode"
	case CmdRequestKeypadCodes:
		return "RequestKeypadCodes"
	case CmdKeypadCode:
		return "KeypadCode"
	case CmdKeypadCodeCount:
		return "KeypadCodeCount"
	case CmdKeypadCodeID:
		return "KeypadCodeID"
	case CmdKeypadAction:
		return "KeypadAction"
	case CmdAddTimeControlEntry:
		return "AddTimeControlEntry"
	case CmdTimeControlEntry:
		return "TimeControlEntry"
	case CmdUpdateTimeControlEntry:
		return "UpdateTimeControlEntry"
	case CmdRequestTimeControlEntries:
		return "RequestTimeControlEntries"
	case CmdRemoveTimeControlEntry:
		return "RemoveTimeControlEntry"
	case CmdTimeControlEntryCount:
		return "TimeControlEntryCount"
	default:
		return fmt.Sprintf("Command(0x%02X)", uint16(c))
	}
}
