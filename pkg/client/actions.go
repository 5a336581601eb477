package client

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/keyturn/nukible/pkg/keyturner"
	"github.com/keyturn/nukible/pkg/message"
)

// maxLockActionName bounds the optional name suffix carried by a lock
// action; LockAction rejects longer suffixes with ResultInvalidArgument.
const maxLockActionName = 19

func requestPayload(cmd message.Command) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(cmd))
	return b[:]
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// RequestKeyTurnerState asks the lock for a status snapshot, readable
// via KeyTurnerState afterwards.
func (c *Client) RequestKeyTurnerState(ctx context.Context) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryPlain,
		Command:  message.CmdRequestData,
		Payload:  requestPayload(message.CmdKeyturnerStates),
	})
}

// KeyTurnerState returns the last status snapshot.
func (c *Client) KeyTurnerState() keyturner.KeyTurnerState {
	return c.session.KeyTurnerState()
}

// RequestBatteryReport asks for battery diagnostics.
func (c *Client) RequestBatteryReport(ctx context.Context) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryPlain,
		Command:  message.CmdRequestData,
		Payload:  requestPayload(message.CmdBatteryReport),
	})
}

// BatteryReport returns the last battery diagnostics snapshot.
func (c *Client) BatteryReport() keyturner.BatteryReport {
	return c.session.BatteryReport()
}

// LockAction requests a lock operation. The optional name suffix
// (at most 19 bytes) is recorded in the lock's activity log.
func (c *Client) LockAction(ctx context.Context, action keyturner.Action, appID uint32, flags uint8, nameSuffix string) CmdResult {
	if len(nameSuffix) > maxLockActionName {
		return ResultInvalidArgument
	}
	payload := make([]byte, 0, 6+len(nameSuffix))
	payload = append(payload, uint8(action))
	payload = binary.LittleEndian.AppendUint32(payload, appID)
	payload = append(payload, flags)
	payload = append(payload, nameSuffix...)
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndAccept,
		Command:  message.CmdLockAction,
		Payload:  payload,
	})
}

// RequestConfig fetches the configuration snapshot.
func (c *Client) RequestConfig(ctx context.Context) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryWithChallenge,
		Command:  message.CmdRequestConfig,
	})
}

// Config returns the last configuration snapshot.
func (c *Client) Config() keyturner.Config {
	return c.session.Config()
}

// RequestAdvancedConfig fetches the advanced-configuration snapshot.
func (c *Client) RequestAdvancedConfig(ctx context.Context) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryWithChallenge,
		Command:  message.CmdRequestAdvancedConfig,
	})
}

// AdvancedConfig returns the last advanced-configuration snapshot.
func (c *Client) AdvancedConfig() keyturner.AdvancedConfig {
	return c.session.AdvancedConfig()
}

// SetConfig writes a full configuration.
func (c *Client) SetConfig(ctx context.Context, cfg keyturner.NewConfig) CmdResult {
	payload, err := cfg.Encode()
	if err != nil {
		return ResultInvalidArgument
	}
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdSetConfig,
		Payload:  payload,
	})
}

// SetAdvancedConfig writes a full advanced configuration.
func (c *Client) SetAdvancedConfig(ctx context.Context, cfg keyturner.NewAdvancedConfig) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdSetAdvancedConfig,
		Payload:  cfg.Encode(),
	})
}

// updateConfig fetches the current configuration, applies mutate, and
// writes it back.
func (c *Client) updateConfig(ctx context.Context, mutate func(*keyturner.NewConfig)) CmdResult {
	if r := c.RequestConfig(ctx); r != ResultSuccess {
		return r
	}
	var n keyturner.NewConfig
	n.FromConfig(c.session.Config())
	mutate(&n)
	return c.SetConfig(ctx, n)
}

// updateAdvancedConfig fetches the current advanced configuration,
// applies mutate, and writes it back.
func (c *Client) updateAdvancedConfig(ctx context.Context, mutate func(*keyturner.NewAdvancedConfig)) CmdResult {
	if r := c.RequestAdvancedConfig(ctx); r != ResultSuccess {
		return r
	}
	var n keyturner.NewAdvancedConfig
	n.FromAdvancedConfig(c.session.AdvancedConfig())
	mutate(&n)
	return c.SetAdvancedConfig(ctx, n)
}

// SetName renames the lock (at most 32 bytes).
func (c *Client) SetName(ctx context.Context, name string) CmdResult {
	if len(name) > 32 {
		return ResultInvalidArgument
	}
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.Name = name })
}

// EnablePairing toggles whether the lock accepts new pairings.
func (c *Client) EnablePairing(ctx context.Context, enable bool) CmdResult {
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.PairingEnabled = enable })
}

// EnableButton toggles the hardware button.
func (c *Client) EnableButton(ctx context.Context, enable bool) CmdResult {
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.ButtonEnabled = enable })
}

// EnableLEDFlash toggles the signal LED.
func (c *Client) EnableLEDFlash(ctx context.Context, enable bool) CmdResult {
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.LEDEnabled = enable })
}

// SetLEDBrightness sets the LED brightness level (0 to 5).
func (c *Client) SetLEDBrightness(ctx context.Context, level uint8) CmdResult {
	if level > 5 {
		return ResultInvalidArgument
	}
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.LEDBrightness = level })
}

// EnableSingleLock switches between single and full lock turns.
func (c *Client) EnableSingleLock(ctx context.Context, enable bool) CmdResult {
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.SingleLock = enable })
}

// SetAdvertisingMode sets the BLE advertising cadence.
func (c *Client) SetAdvertisingMode(ctx context.Context, mode keyturner.AdvertisingMode) CmdResult {
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.AdvertisingMode = mode })
}

// EnableDST toggles daylight-saving handling.
func (c *Client) EnableDST(ctx context.Context, enable bool) CmdResult {
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.DSTMode = enable })
}

// SetTimeZoneOffset sets the UTC offset in minutes.
func (c *Client) SetTimeZoneOffset(ctx context.Context, minutes int16) CmdResult {
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.TimeZoneOffset = minutes })
}

// SetTimeZoneID sets the timezone table entry.
func (c *Client) SetTimeZoneID(ctx context.Context, id uint16) CmdResult {
	return c.updateConfig(ctx, func(n *keyturner.NewConfig) { n.TimeZoneID = id })
}

// SetSingleButtonPressAction configures the single-press behavior.
func (c *Client) SetSingleButtonPressAction(ctx context.Context, action keyturner.ButtonPressAction) CmdResult {
	return c.updateAdvancedConfig(ctx, func(n *keyturner.NewAdvancedConfig) { n.SingleButtonPressAction = action })
}

// SetDoubleButtonPressAction configures the double-press behavior.
func (c *Client) SetDoubleButtonPressAction(ctx context.Context, action keyturner.ButtonPressAction) CmdResult {
	return c.updateAdvancedConfig(ctx, func(n *keyturner.NewAdvancedConfig) { n.DoubleButtonPressAction = action })
}

// SetBatteryType tells the lock which battery chemistry is installed.
func (c *Client) SetBatteryType(ctx context.Context, t keyturner.BatteryType) CmdResult {
	return c.updateAdvancedConfig(ctx, func(n *keyturner.NewAdvancedConfig) { n.BatteryType = t })
}

// EnableAutoBatteryTypeDetection toggles battery chemistry detection.
func (c *Client) EnableAutoBatteryTypeDetection(ctx context.Context, enable bool) CmdResult {
	return c.updateAdvancedConfig(ctx, func(n *keyturner.NewAdvancedConfig) { n.AutomaticBatteryTypeDetection = enable })
}

// DisableAutoUnlock toggles the auto-unlock inhibit flag.
func (c *Client) DisableAutoUnlock(ctx context.Context, disable bool) CmdResult {
	return c.updateAdvancedConfig(ctx, func(n *keyturner.NewAdvancedConfig) { n.AutoUnlockDisabled = disable })
}

// SetAutoLockTimeout configures the delay before the lock re-locks
// itself; zero disables auto-lock.
func (c *Client) SetAutoLockTimeout(ctx context.Context, seconds uint16) CmdResult {
	return c.updateAdvancedConfig(ctx, func(n *keyturner.NewAdvancedConfig) { n.AutoLockTimeout = seconds })
}

// RetrieveLogEntries requests a window of the activity log. The
// accumulated entries are read via LogEntries.
func (c *Client) RetrieveLogEntries(ctx context.Context, startIndex uint32, count uint16, sortOrder uint8, totalCount bool) CmdResult {
	c.session.ClearLogEntries()
	payload := make([]byte, 0, 8)
	payload = binary.LittleEndian.AppendUint32(payload, startIndex)
	payload = binary.LittleEndian.AppendUint16(payload, count)
	payload = append(payload, sortOrder, boolByte(totalCount))
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdRequestLogEntries,
		Payload:  payload,
	})
}

// LogEntries returns the log entries accumulated since the last
// retrieval.
func (c *Client) LogEntries() []keyturner.LogEntry {
	return c.session.LogEntries()
}

// RetrieveAuthorizationEntries requests a window of the authorization
// list.
func (c *Client) RetrieveAuthorizationEntries(ctx context.Context, offset, count uint16) CmdResult {
	c.session.ClearAuthorizationEntries()
	payload := make([]byte, 0, 4)
	payload = binary.LittleEndian.AppendUint16(payload, offset)
	payload = binary.LittleEndian.AppendUint16(payload, count)
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdRequestAuthorizationEntries,
		Payload:  payload,
	})
}

// AuthorizationEntries returns the accumulated authorization entries.
func (c *Client) AuthorizationEntries() []keyturner.AuthorizationEntry {
	return c.session.AuthorizationEntries()
}

// AddAuthorizationEntry invites a new authorization.
func (c *Client) AddAuthorizationEntry(ctx context.Context, entry keyturner.NewAuthorizationEntry) CmdResult {
	payload, err := entry.Encode()
	if err != nil {
		return ResultInvalidArgument
	}
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdAuthorizationDataInvite,
		Payload:  payload,
	})
}

// UpdateAuthorizationEntry rewrites an existing authorization.
func (c *Client) UpdateAuthorizationEntry(ctx context.Context, entry keyturner.UpdatedAuthorizationEntry) CmdResult {
	payload, err := entry.Encode()
	if err != nil {
		return ResultInvalidArgument
	}
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdUpdateAuthorization,
		Payload:  payload,
	})
}

// RemoveUserAuthorization revokes an authorization by ID.
func (c *Client) RemoveUserAuthorization(ctx context.Context, authID uint32) CmdResult {
	payload := binary.LittleEndian.AppendUint32(nil, authID)
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdRemoveUserAuthorization,
		Payload:  payload,
	})
}

// RetrieveKeypadEntries requests a window of the keypad code list.
func (c *Client) RetrieveKeypadEntries(ctx context.Context, offset, count uint16) CmdResult {
	c.session.ClearKeypadEntries()
	payload := make([]byte, 0, 4)
	payload = binary.LittleEndian.AppendUint16(payload, offset)
	payload = binary.LittleEndian.AppendUint16(payload, count)
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdRequestKeypadCodes,
		Payload:  payload,
	})
}

// KeypadEntries returns the accumulated keypad codes.
func (c *Client) KeypadEntries() []keyturner.KeypadEntry {
	return c.session.KeypadEntries()
}

// AddKeypadEntry creates a keypad code.
func (c *Client) AddKeypadEntry(ctx context.Context, entry keyturner.NewKeypadEntry) CmdResult {
	payload, err := entry.Encode()
	if err != nil {
		return ResultInvalidArgument
	}
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdAddKeypadCode,
		Payload:  payload,
	})
}

// UpdateKeypadEntry rewrites a keypad code.
func (c *Client) UpdateKeypadEntry(ctx context.Context, entry keyturner.UpdatedKeypadEntry) CmdResult {
	payload, err := entry.Encode()
	if err != nil {
		return ResultInvalidArgument
	}
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdUpdateKeypadCode,
		Payload:  payload,
	})
}

// RetrieveTimeControlEntries requests the full schedule list.
func (c *Client) RetrieveTimeControlEntries(ctx context.Context) CmdResult {
	c.session.ClearTimeControlEntries()
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdRequestTimeControlEntries,
	})
}

// TimeControlEntries returns the accumulated schedule entries.
func (c *Client) TimeControlEntries() []keyturner.TimeControlEntry {
	return c.session.TimeControlEntries()
}

// AddTimeControlEntry creates a scheduled action.
func (c *Client) AddTimeControlEntry(ctx context.Context, entry keyturner.NewTimeControlEntry) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdAddTimeControlEntry,
		Payload:  entry.Encode(),
	})
}

// UpdateTimeControlEntry rewrites a scheduled action.
func (c *Client) UpdateTimeControlEntry(ctx context.Context, entry keyturner.TimeControlEntry) CmdResult {
	payload := []byte{
		entry.EntryID,
		boolByte(entry.Enabled),
		entry.Weekdays,
		entry.Time.Hour,
		entry.Time.Minute,
		uint8(entry.LockAction),
	}
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdUpdateTimeControlEntry,
		Payload:  payload,
	})
}

// RemoveTimeControlEntry deletes a scheduled action by ID.
func (c *Client) RemoveTimeControlEntry(ctx context.Context, entryID uint8) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdRemoveTimeControlEntry,
		Payload:  []byte{entryID},
	})
}

// UpdateTime sets the lock's clock.
func (c *Client) UpdateTime(ctx context.Context, t time.Time) CmdResult {
	tv := keyturner.TimeValue{
		Year:   uint16(t.Year()),
		Month:  uint8(t.Month()),
		Day:    uint8(t.Day()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
	}
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdUpdateTime,
		Payload:  tv.Encode(nil),
	})
}

// VerifySecurityPIN checks the stored PIN against the lock without
// side effects.
func (c *Client) VerifySecurityPIN(ctx context.Context) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdVerifySecurityPin,
	})
}

// ChangeSecurityPIN sets a new PIN on the lock, authenticating with
// the current one. The stored PIN is updated on success.
func (c *Client) ChangeSecurityPIN(ctx context.Context, newPIN uint16) CmdResult {
	payload := binary.LittleEndian.AppendUint16(nil, newPIN)
	result := c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdSetSecurityPin,
		Payload:  payload,
	})
	if result == ResultSuccess {
		c.SetSecurityPIN(newPIN)
	}
	return result
}

// RequestCalibration starts the calibration routine.
func (c *Client) RequestCalibration(ctx context.Context) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdRequestCalibration,
	})
}

// RequestReboot restarts the lock firmware.
func (c *Client) RequestReboot(ctx context.Context) CmdResult {
	return c.Execute(ctx, Action{
		Category: CategoryWithChallengeAndPin,
		Command:  message.CmdRequestReboot,
	})
}
