package session

import (
	"encoding/binary"

	"github.com/pion/logging"

	"github.com/keyturn/nukible/pkg/keyturner"
	"github.com/keyturn/nukible/pkg/message"
	"github.com/keyturn/nukible/pkg/transport"
)

// EventHandler is notified after every KeyturnerStates update.
type EventHandler func(keyturner.KeyTurnerState)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Session       *Session
	EventHandler  EventHandler
	LoggerFactory logging.LoggerFactory
}

// Dispatcher decodes inbound frames and applies them to the session.
// Frames that fail CRC, MAC or authorization-ID checks are dropped
// silently; the protocol has no negative acknowledgement, so senders
// observe a drop as a timeout.
type Dispatcher struct {
	session *Session
	handler EventHandler
	log     logging.LeveledLogger
}

// NewDispatcher builds a Dispatcher for the given session.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Dispatcher{
		session: config.Session,
		handler: config.EventHandler,
		log:     loggerFactory.NewLogger("nuki-dispatch"),
	}
}

// HandleIndication is the transport's inbound entry point. It may be
// called from the transport's goroutine; the session lock serializes
// application.
func (d *Dispatcher) HandleIndication(ch transport.Channel, b []byte) {
	var (
		cmd     message.Command
		payload []byte
		err     error
	)
	switch ch {
	case transport.ChannelPairing:
		cmd, payload, err = message.DecodePlain(b)
		if err != nil {
			d.log.Debugf("dropping pairing frame: %v", err)
			return
		}
	case transport.ChannelUser:
		codec, ok := d.session.Codec()
		if !ok {
			d.log.Debugf("dropping user frame: encrypted channel not armed")
			return
		}
		cmd, payload, err = codec.Open(b)
		if err != nil {
			d.log.Debugf("dropping user frame: %v", err)
			return
		}
	default:
		return
	}
	d.apply(cmd, payload)
}

// apply updates typed state for cmd, then latches the state-machine
// signals and wakes waiters.
func (d *Dispatcher) apply(cmd message.Command, payload []byte) {
	s := d.session
	var stateUpdate *keyturner.KeyTurnerState

	s.mu.Lock()
	switch cmd {
	case message.CmdPublicKey:
		if len(payload) < len(s.remotePublicKey) {
			s.mu.Unlock()
			d.log.Warnf("PublicKey payload too short: %d bytes", len(payload))
			return
		}
		copy(s.remotePublicKey[:], payload)
		s.hasRemoteKey = true

	case message.CmdChallenge:
		if len(payload) < len(s.challengeNonce) {
			s.mu.Unlock()
			d.log.Warnf("Challenge payload too short: %d bytes", len(payload))
			return
		}
		copy(s.challengeNonce[:], payload)
		s.hasChallenge = true

	case message.CmdAuthorizationID:
		// | authenticator:32 | authID:4 | lockID:16 | nonce:32 |
		if len(payload) < 84 {
			s.mu.Unlock()
			d.log.Warnf("AuthorizationID payload too short: %d bytes", len(payload))
			return
		}
		copy(s.authID[:], payload[32:36])
		s.hasAuthID = true
		copy(s.lockID[:], payload[36:52])
		copy(s.challengeNonce[:], payload[52:84])
		s.hasChallenge = true

	case message.CmdStatus:
		if len(payload) < 1 {
			s.mu.Unlock()
			d.log.Warnf("Status payload empty")
			return
		}
		s.receivedStatus = payload[0]

	case message.CmdKeyturnerStates:
		state, err := keyturner.DecodeKeyTurnerState(payload)
		if err != nil {
			s.mu.Unlock()
			d.log.Warnf("KeyturnerStates: %v", err)
			return
		}
		s.state = state
		stateUpdate = &state

	case message.CmdConfig:
		config, err := keyturner.DecodeConfig(payload)
		if err != nil {
			s.mu.Unlock()
			d.log.Warnf("Config: %v", err)
			return
		}
		s.config = config

	case message.CmdAdvancedConfig:
		config, err := keyturner.DecodeAdvancedConfig(payload)
		if err != nil {
			s.mu.Unlock()
			d.log.Warnf("AdvancedConfig: %v", err)
			return
		}
		s.advancedConfig = config

	case message.CmdBatteryReport:
		report, err := keyturner.DecodeBatteryReport(payload)
		if err != nil {
			s.mu.Unlock()
			d.log.Warnf("BatteryReport: %v", err)
			return
		}
		s.batteryReport = report

	case message.CmdLogEntry:
		entry, err := keyturner.DecodeLogEntry(payload)
		if err != nil {
			s.mu.Unlock()
			d.log.Warnf("LogEntry: %v", err)
			return
		}
		s.logEntries = append(s.logEntries, entry)

	case message.CmdAuthorizationEntry:
		entry, err := keyturner.DecodeAuthorizationEntry(payload)
		if err != nil {
			s.mu.Unlock()
			d.log.Warnf("AuthorizationEntry: %v", err)
			return
		}
		s.authEntries = append(s.authEntries, entry)

	case message.CmdKeypadCode:
		entry, err := keyturner.DecodeKeypadEntry(payload)
		if err != nil {
			s.mu.Unlock()
			d.log.Warnf("KeypadCode: %v", err)
			return
		}
		s.keypadEntries = append(s.keypadEntries, entry)

	case message.CmdTimeControlEntry:
		entry, err := keyturner.DecodeTimeControlEntry(payload)
		if err != nil {
			s.mu.Unlock()
			d.log.Warnf("TimeControlEntry: %v", err)
			return
		}
		s.timeControlEntries = append(s.timeControlEntries, entry)

	case message.CmdLogEntryCount:
		if len(payload) < 5 {
			s.mu.Unlock()
			d.log.Warnf("LogEntryCount payload too short: %d bytes", len(payload))
			return
		}
		s.loggingEnabled = payload[0] != 0
		s.logEntryCount = binary.LittleEndian.Uint32(payload[1:5])

	case message.CmdAuthorizationEntryCount:
		if len(payload) < 2 {
			s.mu.Unlock()
			d.log.Warnf("AuthorizationEntryCount payload too short")
			return
		}
		s.authEntryCount = binary.LittleEndian.Uint16(payload)

	case message.CmdKeypadCodeCount:
		if len(payload) < 2 {
			s.mu.Unlock()
			d.log.Warnf("KeypadCodeCount payload too short")
			return
		}
		s.keypadCodeCount = binary.LittleEndian.Uint16(payload)

	case message.CmdTimeControlEntryCount:
		if len(payload) < 2 {
			s.mu.Unlock()
			d.log.Warnf("TimeControlEntryCount payload too short")
			return
		}
		s.timeControlEntryCount = binary.LittleEndian.Uint16(payload)

	case message.CmdErrorReport:
		if len(payload) < 3 {
			s.mu.Unlock()
			d.log.Warnf("ErrorReport payload too short: %d bytes", len(payload))
			return
		}
		s.errorCode = keyturner.ErrorCode(payload[0])
		s.erroredCommand = message.Command(binary.LittleEndian.Uint16(payload[1:3]))
		d.log.Infof("lock reported %v for %v", s.errorCode, s.erroredCommand)

	default:
		d.log.Debugf("ignoring %v (%d bytes)", cmd, len(payload))
	}

	s.lastMessageCode = cmd
	s.crcCheckOK = true
	s.broadcast()
	s.mu.Unlock()

	if stateUpdate != nil && d.handler != nil {
		d.handler(*stateUpdate)
	}
}
