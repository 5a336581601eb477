// Package pairing implements the handshake that establishes a shared
// long-term key and an authorization ID with a lock.
//
// Protocol Flow:
//
//	Client                                   Lock
//	  |-- RequestData(PublicKey) -------------->|
//	  |<------------------- PublicKey(P_lock) --|
//	  |-- PublicKey(P_client) ----------------->|
//	  |   (both derive k = HSalsa20(DH))        |
//	  |<------------------- Challenge(n1) ------|
//	  |-- AuthorizationAuthenticator(h1) ------>|
//	  |<------------------- Challenge(n2) ------|
//	  |-- AuthorizationData(h2, identity) ----->|
//	  |<-- AuthorizationID(h, authID, n3) ------|
//	  |-- AuthorizationIDConfirmation(h3) ----->|
//	  |<------------------- Status(Complete) ---|
//
// The machine runs on a single goroutine; inbound frames arrive
// through the dispatcher, which updates the session the machine waits
// on.
package pairing

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pion/logging"

	"github.com/keyturn/nukible/pkg/crypto"
	"github.com/keyturn/nukible/pkg/keyturner"
	"github.com/keyturn/nukible/pkg/message"
	"github.com/keyturn/nukible/pkg/session"
	"github.com/keyturn/nukible/pkg/transport"
)

// DefaultTimeout bounds each handshake step.
const DefaultTimeout = 30 * time.Second

var (
	ErrTimeout     = errors.New("pairing: timed out")
	ErrNameTooLong = errors.New("pairing: name exceeds 32 bytes")
	ErrNoKeypair   = errors.New("pairing: keypair required")
)

// State tracks handshake progress.
type State int

const (
	StateInitPairing State = iota
	StateReqRemPubKey
	StateRecRemPubKey
	StateSendPubKey
	StateGenKeyPair
	StateCalculateAuth
	StateSendAuth
	StateSendAuthData
	StateSendAuthIDConf
	StateRecStatus
	StateSuccess
	StateTimeout
)

func (s State) String() string {
	switch s {
	case StateInitPairing:
		return "InitPairing"
	case StateReqRemPubKey:
		return "ReqRemPubKey"
	case StateRecRemPubKey:
		return "RecRemPubKey"
	case StateSendPubKey:
		return "SendPubKey"
	case StateGenKeyPair:
		return "GenKeyPair"
	case StateCalculateAuth:
		return "CalculateAuth"
	case StateSendAuth:
		return "SendAuth"
	case StateSendAuthData:
		return "SendAuthData"
	case StateSendAuthIDConf:
		return "SendAuthIDConf"
	case StateRecStatus:
		return "RecStatus"
	case StateSuccess:
		return "Success"
	case StateTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Config assembles the collaborators and identity for one pairing run.
type Config struct {
	Session   *session.Session
	Transport transport.Transport

	// Keypair is the client's long-term Curve25519 keypair,
	// bootstrapped outside the protocol core.
	Keypair *crypto.Keypair

	// DeviceID and Name identify this client to the lock.
	DeviceID uint32
	Name     string

	// IDType defaults to Bridge.
	IDType keyturner.IDType

	// Timeout bounds each step; DefaultTimeout when zero.
	Timeout time.Duration

	// Rand sources the client nonce; crypto/rand when nil.
	Rand io.Reader

	LoggerFactory logging.LoggerFactory
}

// Machine drives one pairing handshake.
type Machine struct {
	session   *session.Session
	transport transport.Transport
	keypair   *crypto.Keypair
	deviceID  uint32
	name      string
	idType    keyturner.IDType
	timeout   time.Duration
	rand      io.Reader
	log       logging.LeveledLogger

	state State
}

// NewMachine validates config and builds a Machine.
func NewMachine(config Config) (*Machine, error) {
	if config.Keypair == nil {
		return nil, ErrNoKeypair
	}
	if len(config.Name) > 32 {
		return nil, ErrNameTooLong
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	idType := config.IDType
	if idType == keyturner.IDTypeApp {
		idType = keyturner.IDTypeBridge
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Machine{
		session:   config.Session,
		transport: config.Transport,
		keypair:   config.Keypair,
		deviceID:  config.DeviceID,
		name:      config.Name,
		idType:    idType,
		timeout:   timeout,
		rand:      config.Rand,
		log:       loggerFactory.NewLogger("nuki-pairing"),
	}, nil
}

// State returns the machine's current state.
func (m *Machine) State() State {
	return m.state
}

// Run drives the handshake to a terminal state. On success the session
// holds the long-term key and authorization ID; on any failure all key
// material established during the run is zeroized.
func (m *Machine) Run(ctx context.Context) error {
	err := m.run(ctx)
	if err != nil {
		m.session.ClearIdentity()
		if m.state != StateTimeout {
			m.state = StateTimeout
		}
	}
	m.session.ClearPairingEphemerals()
	return err
}

func (m *Machine) run(ctx context.Context) error {
	s := m.session

	// InitPairing
	m.state = StateInitPairing
	s.ClearPairingEphemerals()
	s.ResetLastMessageCode()

	// ReqRemPubKey
	m.state = StateReqRemPubKey
	var req [2]byte
	binary.LittleEndian.PutUint16(req[:], uint16(message.CmdPublicKey))
	if err := m.sendPlain(message.CmdRequestData, req[:]); err != nil {
		return err
	}

	// RecRemPubKey
	m.state = StateRecRemPubKey
	if !m.wait(ctx, func() bool {
		_, ok := s.RemotePublicKey()
		return ok
	}) {
		return fmt.Errorf("waiting for lock public key: %w", ErrTimeout)
	}
	remotePub, _ := s.RemotePublicKey()

	// SendPubKey
	m.state = StateSendPubKey
	if err := m.sendPlain(message.CmdPublicKey, m.keypair.Public[:]); err != nil {
		return err
	}

	// GenKeyPair
	m.state = StateGenKeyPair
	key, err := crypto.SharedKey(&m.keypair.Private, &remotePub)
	if err != nil {
		return fmt.Errorf("derive long-term key: %w", err)
	}
	s.SetLongTermKey(*key)
	crypto.Zeroize(key[:])

	// CalculateAuth
	m.state = StateCalculateAuth
	nonce, ok := m.waitChallenge(ctx)
	if !ok {
		return fmt.Errorf("waiting for first challenge: %w", ErrTimeout)
	}
	longTermKey := m.longTermKey()
	auth := crypto.Authenticator(&longTermKey, m.keypair.Public[:], remotePub[:], nonce[:])
	crypto.Zeroize(nonce[:])

	// SendAuth
	m.state = StateSendAuth
	if err := m.sendPlain(message.CmdAuthorizationAuthenticator, auth[:]); err != nil {
		return err
	}

	// SendAuthData
	m.state = StateSendAuthData
	nonce, ok = m.waitChallenge(ctx)
	if !ok {
		return fmt.Errorf("waiting for second challenge: %w", ErrTimeout)
	}
	clientNonce, err := crypto.GenerateNonce32(m.rand)
	if err != nil {
		return err
	}

	// Authenticated payload:
	// | idType:1 | deviceID:4 LE | name:32 | clientNonce:32 | challenge:32 |
	identity := make([]byte, 0, 69)
	identity = append(identity, uint8(m.idType))
	identity = binary.LittleEndian.AppendUint32(identity, m.deviceID)
	padded := make([]byte, 32)
	copy(padded, m.name)
	identity = append(identity, padded...)
	identity = append(identity, clientNonce[:]...)

	authed := make([]byte, 0, 101)
	authed = append(authed, identity...)
	authed = append(authed, nonce[:]...)
	auth = crypto.Authenticator(&longTermKey, authed)
	crypto.Zeroize(nonce[:])

	// Wire message: | auth:32 | idType:1 | deviceID:4 | name:32 | clientNonce:32 |
	data := make([]byte, 0, 101)
	data = append(data, auth[:]...)
	data = append(data, identity...)
	if err := m.sendPlain(message.CmdAuthorizationData, data); err != nil {
		return err
	}

	// SendAuthIDConf
	m.state = StateSendAuthIDConf
	if !m.wait(ctx, func() bool {
		_, ok := s.AuthorizationID()
		return ok && s.HasChallenge()
	}) {
		return fmt.Errorf("waiting for authorization ID: %w", ErrTimeout)
	}
	authID, _ := s.AuthorizationID()
	nonce, _ = s.ConsumeChallenge()
	auth = crypto.Authenticator(&longTermKey, authID[:], nonce[:])
	crypto.Zeroize(nonce[:])

	s.SetCredentials(longTermKey, authID)

	conf := make([]byte, 0, 36)
	conf = append(conf, auth[:]...)
	conf = append(conf, authID[:]...)
	if err := m.sendPlain(message.CmdAuthorizationIDConfirm, conf); err != nil {
		return err
	}

	// RecStatus
	m.state = StateRecStatus
	if !m.wait(ctx, func() bool {
		return s.ReceivedStatus() == keyturner.StatusComplete
	}) {
		return fmt.Errorf("waiting for completion status: %w", ErrTimeout)
	}

	crypto.Zeroize(longTermKey[:])
	m.state = StateSuccess
	m.log.Infof("paired, authorization ID %x", authID)
	return nil
}

func (m *Machine) longTermKey() [crypto.KeySize]byte {
	key, _, _ := m.session.Credentials()
	return key
}

func (m *Machine) sendPlain(cmd message.Command, payload []byte) error {
	frame, err := message.EncodePlain(cmd, payload)
	if err != nil {
		return err
	}
	m.log.Debugf("-> %v (%d bytes)", cmd, len(payload))
	if err := m.transport.WritePairing(frame); err != nil {
		return fmt.Errorf("write %v: %w", cmd, err)
	}
	return nil
}

func (m *Machine) wait(ctx context.Context, pred func() bool) bool {
	if ctx.Err() != nil {
		return false
	}
	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return m.session.Wait(deadline, pred)
}

func (m *Machine) waitChallenge(ctx context.Context) ([crypto.ChallengeSize]byte, bool) {
	if !m.wait(ctx, m.session.HasChallenge) {
		return [crypto.ChallengeSize]byte{}, false
	}
	return m.session.ConsumeChallenge()
}
