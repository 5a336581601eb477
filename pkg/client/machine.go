package client

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/pion/logging"

	"github.com/keyturn/nukible/pkg/crypto"
	"github.com/keyturn/nukible/pkg/keyturner"
	"github.com/keyturn/nukible/pkg/message"
	"github.com/keyturn/nukible/pkg/session"
	"github.com/keyturn/nukible/pkg/transport"
)

// DefaultCmdTimeout bounds each step of a command exchange.
const DefaultCmdTimeout = 5 * time.Second

// cmdState tracks a command exchange. The machine is edge-triggered on
// the session's lastMessageCode and crcCheckOK signals.
type cmdState int

const (
	cmdIdle cmdState = iota
	cmdChallengeSent
	cmdChallengeRespReceived
	cmdSent
	cmdAccepted
)

// machine drives one Action over the encrypted channel.
type machine struct {
	session   *session.Session
	transport transport.Transport
	timeout   time.Duration
	log       logging.LeveledLogger

	state cmdState
}

// execute runs action to a terminal CmdResult. Terminal transitions
// reset the inbound latches so a stale frame cannot satisfy the next
// command.
func (m *machine) execute(ctx context.Context, action Action, pin uint16) CmdResult {
	s := m.session
	m.state = cmdIdle
	s.ResetLastMessageCode()
	s.ResetReceivedStatus()
	defer s.ResetLastMessageCode()

	if action.Category == CategoryPlain {
		return m.executePlain(ctx, action)
	}
	return m.executeChallenge(ctx, action, pin)
}

func (m *machine) executePlain(ctx context.Context, action Action) CmdResult {
	s := m.session
	if !m.sendUser(action.Command, action.Payload) {
		return ResultTransportFailure
	}
	m.state = cmdSent

	if !m.wait(ctx, func() bool { return s.LastMessageCode() != message.CmdEmpty }) {
		return ResultTimedOut
	}
	if s.LastMessageCode() == message.CmdErrorReport {
		return ResultFailed
	}
	return ResultSuccess
}

func (m *machine) executeChallenge(ctx context.Context, action Action, pin uint16) CmdResult {
	s := m.session

	var req [2]byte
	binary.LittleEndian.PutUint16(req[:], uint16(message.CmdChallenge))
	if !m.sendUser(message.CmdRequestData, req[:]) {
		return ResultTransportFailure
	}
	m.state = cmdChallengeSent

	if !m.wait(ctx, func() bool {
		return s.HasChallenge() || s.LastMessageCode() == message.CmdErrorReport
	}) {
		return ResultTimedOut
	}
	if s.LastMessageCode() == message.CmdErrorReport {
		return ResultFailed
	}
	nonce, ok := s.ConsumeChallenge()
	if !ok {
		return ResultTimedOut
	}
	m.state = cmdChallengeRespReceived

	payload := make([]byte, 0, len(action.Payload)+crypto.ChallengeSize+2)
	payload = append(payload, action.Payload...)
	payload = append(payload, nonce[:]...)
	if action.Category == CategoryWithChallengeAndPin {
		payload = binary.LittleEndian.AppendUint16(payload, pin)
	}
	crypto.Zeroize(nonce[:])

	s.ClearCRCCheckOK()
	s.ResetLastMessageCode()
	sent := m.sendUser(action.Command, payload)
	crypto.Zeroize(payload)
	if !sent {
		return ResultTransportFailure
	}
	m.state = cmdSent

	if action.Category == CategoryWithChallengeAndAccept {
		return m.awaitAcceptComplete(ctx)
	}

	if !m.wait(ctx, s.CRCCheckOK) {
		return ResultTimedOut
	}
	if s.LastMessageCode() == message.CmdErrorReport {
		return ResultFailed
	}
	return ResultSuccess
}

// awaitAcceptComplete expects Status(Accepted) then Status(Complete).
// A lock that finishes fast may send Complete alone; both orders end
// in Success.
func (m *machine) awaitAcceptComplete(ctx context.Context) CmdResult {
	s := m.session

	if !m.wait(ctx, func() bool {
		return s.ReceivedStatus() != keyturner.StatusNone ||
			s.LastMessageCode() == message.CmdErrorReport
	}) {
		return ResultTimedOut
	}
	if s.LastMessageCode() == message.CmdErrorReport {
		return ResultFailed
	}
	if s.ReceivedStatus() == keyturner.StatusComplete {
		return ResultSuccess
	}
	m.state = cmdAccepted
	m.log.Debugf("lock accepted, waiting for completion")

	if !m.wait(ctx, func() bool {
		return s.ReceivedStatus() == keyturner.StatusComplete ||
			s.LastMessageCode() == message.CmdErrorReport
	}) {
		return ResultTimedOut
	}
	if s.LastMessageCode() == message.CmdErrorReport {
		return ResultFailed
	}
	return ResultSuccess
}

func (m *machine) sendUser(cmd message.Command, payload []byte) bool {
	codec, ok := m.session.Codec()
	if !ok {
		return false
	}
	frame, err := codec.Seal(cmd, payload)
	if err != nil {
		m.log.Warnf("seal %v: %v", cmd, err)
		return false
	}
	m.log.Debugf("-> %v (%d bytes)", cmd, len(payload))
	if err := m.transport.WriteUser(frame); err != nil {
		m.log.Warnf("write %v: %v", cmd, err)
		return false
	}
	return true
}

func (m *machine) wait(ctx context.Context, pred func() bool) bool {
	if ctx.Err() != nil {
		return false
	}
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return m.session.Wait(deadline, pred)
}
