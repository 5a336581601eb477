// Package session holds the mutable protocol state shared between the
// dispatcher (which applies inbound frames) and the state machines
// (which wait on it), together with the dispatcher itself.
package session

import (
	"sync"
	"time"

	"github.com/keyturn/nukible/pkg/crypto"
	"github.com/keyturn/nukible/pkg/keyturner"
	"github.com/keyturn/nukible/pkg/message"
)

// Session is the single owner of session identity, pairing ephemerals
// and inbound snapshot state. The dispatcher is the only writer of the
// "received" fields; state machines read them through accessors. All
// access is mutex-guarded, and every applied inbound frame wakes
// waiters via Wait.
type Session struct {
	mu     sync.Mutex
	signal chan struct{}

	// identity, populated by pairing or restored from the store
	longTermKey [crypto.KeySize]byte
	hasKey      bool
	authID      [4]byte
	hasAuthID   bool
	peerAddress [6]byte
	securityPIN uint16

	// pairing ephemerals
	remotePublicKey [crypto.KeySize]byte
	hasRemoteKey    bool
	challengeNonce  [crypto.ChallengeSize]byte
	hasChallenge    bool
	lockID          [16]byte
	receivedStatus  uint8

	// inbound snapshots
	state          keyturner.KeyTurnerState
	config         keyturner.Config
	advancedConfig keyturner.AdvancedConfig
	batteryReport  keyturner.BatteryReport
	errorCode      keyturner.ErrorCode
	erroredCommand message.Command

	logEntries         []keyturner.LogEntry
	authEntries        []keyturner.AuthorizationEntry
	keypadEntries      []keyturner.KeypadEntry
	timeControlEntries []keyturner.TimeControlEntry

	loggingEnabled        bool
	logEntryCount         uint32
	authEntryCount        uint16
	keypadCodeCount       uint16
	timeControlEntryCount uint16

	// state-machine signals
	lastMessageCode message.Command
	crcCheckOK      bool
}

// New creates an empty session.
func New() *Session {
	return &Session{
		signal:         make(chan struct{}),
		receivedStatus: keyturner.StatusNone,
	}
}

// broadcast wakes all waiters. Callers hold s.mu.
func (s *Session) broadcast() {
	close(s.signal)
	s.signal = make(chan struct{})
}

func (s *Session) signalChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signal
}

// Wait blocks until pred reports true or the deadline passes. pred is
// evaluated outside the session lock and must use the accessor
// methods. Every applied inbound frame re-evaluates.
func (s *Session) Wait(deadline time.Time, pred func() bool) bool {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	for {
		ch := s.signalChan()
		if pred() {
			return true
		}
		select {
		case <-ch:
		case <-timer.C:
			return pred()
		}
	}
}

// SetCredentials installs the long-term key and authorization ID,
// arming the encrypted channel.
func (s *Session) SetCredentials(key [crypto.KeySize]byte, authID [4]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.longTermKey = key
	s.hasKey = true
	s.authID = authID
	s.hasAuthID = true
	s.broadcast()
}

// SetLongTermKey installs only the key. Pairing derives the key before
// the lock assigns an authorization ID.
func (s *Session) SetLongTermKey(key [crypto.KeySize]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.longTermKey = key
	s.hasKey = true
	s.broadcast()
}

// Credentials returns the long-term key and authorization ID. ok is
// false until both are populated.
func (s *Session) Credentials() (key [crypto.KeySize]byte, authID [4]byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.longTermKey, s.authID, s.hasKey && s.hasAuthID
}

// Codec builds a SecureCodec for the current credentials. ok is false
// when the encrypted channel is not armed.
func (s *Session) Codec() (*message.SecureCodec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasKey || !s.hasAuthID {
		return nil, false
	}
	key := s.longTermKey
	return &message.SecureCodec{Key: &key, AuthID: s.authID}, true
}

// SetPeerAddress records the BLE address of the paired lock.
func (s *Session) SetPeerAddress(addr [6]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerAddress = addr
}

// PeerAddress returns the BLE address of the paired lock.
func (s *Session) PeerAddress() [6]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerAddress
}

// SetSecurityPIN stores the PIN appended to PIN-bearing commands.
func (s *Session) SetSecurityPIN(pin uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.securityPIN = pin
}

// SecurityPIN returns the stored PIN (0 when unset).
func (s *Session) SecurityPIN() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.securityPIN
}

// AuthorizationID returns the lock-assigned authorization ID.
func (s *Session) AuthorizationID() ([4]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authID, s.hasAuthID
}

// LockID returns the lock identifier delivered with the
// authorization ID.
func (s *Session) LockID() [16]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockID
}

// RemotePublicKey returns the lock's public key once received.
func (s *Session) RemotePublicKey() ([crypto.KeySize]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remotePublicKey, s.hasRemoteKey
}

// HasChallenge reports whether an unconsumed challenge nonce is held.
func (s *Session) HasChallenge() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasChallenge
}

// ConsumeChallenge returns the pending challenge nonce and zeroes it.
// A nonce is handed out exactly once.
func (s *Session) ConsumeChallenge() ([crypto.ChallengeSize]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasChallenge {
		return [crypto.ChallengeSize]byte{}, false
	}
	nonce := s.challengeNonce
	crypto.Zeroize(s.challengeNonce[:])
	s.hasChallenge = false
	return nonce, true
}

// ReceivedStatus returns the latest Status byte (StatusNone when no
// Status frame arrived since the last reset).
func (s *Session) ReceivedStatus() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receivedStatus
}

// ResetReceivedStatus clears the Status latch.
func (s *Session) ResetReceivedStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivedStatus = keyturner.StatusNone
}

// LastMessageCode returns the command of the most recent applied
// inbound frame, or CmdEmpty.
func (s *Session) LastMessageCode() message.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMessageCode
}

// ResetLastMessageCode clears the inbound-command latch. Terminal
// state-machine transitions call this.
func (s *Session) ResetLastMessageCode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMessageCode = message.CmdEmpty
}

// CRCCheckOK reports whether an inbound frame passed integrity checks
// since the last clear.
func (s *Session) CRCCheckOK() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crcCheckOK
}

// ClearCRCCheckOK rearms the integrity latch before sending a command
// whose acknowledgement is the next valid frame.
func (s *Session) ClearCRCCheckOK() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crcCheckOK = false
}

// KeyTurnerState returns the last lock status snapshot.
func (s *Session) KeyTurnerState() keyturner.KeyTurnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the last configuration snapshot.
func (s *Session) Config() keyturner.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// AdvancedConfig returns the last advanced-configuration snapshot.
func (s *Session) AdvancedConfig() keyturner.AdvancedConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advancedConfig
}

// BatteryReport returns the last battery diagnostics snapshot.
func (s *Session) BatteryReport() keyturner.BatteryReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batteryReport
}

// LastError returns the error byte of the most recent ErrorReport and
// the command it was reported for.
func (s *Session) LastError() (keyturner.ErrorCode, message.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCode, s.erroredCommand
}

// LogEntries returns the accumulated log entries in arrival order.
func (s *Session) LogEntries() []keyturner.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]keyturner.LogEntry(nil), s.logEntries...)
}

// ClearLogEntries empties the log list. The initiating request calls
// this before dispatch.
func (s *Session) ClearLogEntries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logEntries = nil
}

// AuthorizationEntries returns the accumulated authorization entries.
func (s *Session) AuthorizationEntries() []keyturner.AuthorizationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]keyturner.AuthorizationEntry(nil), s.authEntries...)
}

// ClearAuthorizationEntries empties the authorization list.
func (s *Session) ClearAuthorizationEntries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authEntries = nil
}

// KeypadEntries returns the accumulated keypad codes.
func (s *Session) KeypadEntries() []keyturner.KeypadEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]keyturner.KeypadEntry(nil), s.keypadEntries...)
}

// ClearKeypadEntries empties the keypad list.
func (s *Session) ClearKeypadEntries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keypadEntries = nil
}

// TimeControlEntries returns the accumulated schedule entries.
func (s *Session) TimeControlEntries() []keyturner.TimeControlEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]keyturner.TimeControlEntry(nil), s.timeControlEntries...)
}

// ClearTimeControlEntries empties the schedule list.
func (s *Session) ClearTimeControlEntries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeControlEntries = nil
}

// Counts returns the counters reported by the lock: log entry count
// and logging flag, authorization entries, keypad codes, and schedule
// entries.
func (s *Session) Counts() (logCount uint32, loggingEnabled bool, authCount, keypadCount, timeControlCount uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logEntryCount, s.loggingEnabled, s.authEntryCount, s.keypadCodeCount, s.timeControlEntryCount
}

// ClearPairingEphemerals zeroes all handshake scratch state. Called on
// pairing completion, terminal pairing failure, and unpair.
func (s *Session) ClearPairingEphemerals() {
	s.mu.Lock()
	defer s.mu.Unlock()
	crypto.Zeroize(s.remotePublicKey[:], s.challengeNonce[:])
	s.hasRemoteKey = false
	s.hasChallenge = false
	s.receivedStatus = keyturner.StatusNone
}

// ClearIdentity zeroes the long-term key and authorization ID. Called
// on unpair and on terminal pairing failure.
func (s *Session) ClearIdentity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	crypto.Zeroize(s.longTermKey[:])
	s.hasKey = false
	s.authID = [4]byte{}
	s.hasAuthID = false
	s.securityPIN = 0
	s.peerAddress = [6]byte{}
	s.broadcast()
}
