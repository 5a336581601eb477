package pairing

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keyturn/nukible/pkg/crypto"
	"github.com/keyturn/nukible/pkg/keyturner"
	"github.com/keyturn/nukible/pkg/message"
	"github.com/keyturn/nukible/pkg/session"
	"github.com/keyturn/nukible/pkg/transport"
)

// fakeLock scripts the lock side of a pairing run. It implements
// transport.Transport, answering each outbound frame with the reply a
// real lock would send, delivered through the dispatcher.
type fakeLock struct {
	t        *testing.T
	dispatch *session.Dispatcher
	keypair  *crypto.Keypair

	nonce1 [crypto.ChallengeSize]byte
	nonce2 [crypto.ChallengeSize]byte
	nonce3 [crypto.ChallengeSize]byte
	authID [4]byte
	lockID [16]byte

	clientPub [crypto.KeySize]byte
	shared    [crypto.KeySize]byte

	// silent suppresses all replies; corruptChallenge flips a CRC bit
	// in the first challenge.
	silent           bool
	corruptChallenge bool

	writes []message.Command
}

func newFakeLock(t *testing.T, s *session.Session) *fakeLock {
	t.Helper()
	kp, err := crypto.GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	f := &fakeLock{
		t:        t,
		dispatch: session.NewDispatcher(session.DispatcherConfig{Session: s}),
		keypair:  kp,
		authID:   [4]byte{0xDE, 0xAD, 0xBE, 0xEF},
	}
	copy(f.nonce1[:], bytes.Repeat([]byte{0xBB}, 32))
	copy(f.nonce2[:], bytes.Repeat([]byte{0xCC}, 32))
	copy(f.nonce3[:], bytes.Repeat([]byte{0xDD}, 32))
	copy(f.lockID[:], bytes.Repeat([]byte{0x10}, 16))
	return f
}

func (f *fakeLock) Connect(context.Context, [6]byte) error { return nil }
func (f *fakeLock) IsConnected() bool                      { return true }
func (f *fakeLock) WriteUser([]byte) error                 { return nil }
func (f *fakeLock) SetHandler(transport.Handler)           {}
func (f *fakeLock) Close() error                           { return nil }

func (f *fakeLock) send(cmd message.Command, payload []byte) {
	frame, err := message.EncodePlain(cmd, payload)
	if err != nil {
		f.t.Fatalf("EncodePlain(%v) error: %v", cmd, err)
	}
	f.dispatch.HandleIndication(transport.ChannelPairing, frame)
}

func (f *fakeLock) WritePairing(b []byte) error {
	cmd, payload, err := message.DecodePlain(b)
	if err != nil {
		f.t.Fatalf("client sent undecodable frame: %v", err)
	}
	f.writes = append(f.writes, cmd)
	if f.silent {
		return nil
	}

	switch cmd {
	case message.CmdRequestData:
		f.send(message.CmdPublicKey, f.keypair.Public[:])

	case message.CmdPublicKey:
		copy(f.clientPub[:], payload)
		key, err := crypto.SharedKey(&f.keypair.Private, &f.clientPub)
		if err != nil {
			f.t.Fatalf("SharedKey() error: %v", err)
		}
		f.shared = *key
		if f.corruptChallenge {
			frame, err := message.EncodePlain(message.CmdChallenge, f.nonce1[:])
			if err != nil {
				f.t.Fatalf("EncodePlain() error: %v", err)
			}
			frame[len(frame)-1] ^= 0x01
			f.dispatch.HandleIndication(transport.ChannelPairing, frame)
			return nil
		}
		f.send(message.CmdChallenge, f.nonce1[:])

	case message.CmdAuthorizationAuthenticator:
		if !crypto.VerifyAuthenticator(&f.shared, payload,
			f.clientPub[:], f.keypair.Public[:], f.nonce1[:]) {
			f.t.Fatal("first authenticator did not verify")
		}
		f.send(message.CmdChallenge, f.nonce2[:])

	case message.CmdAuthorizationData:
		if len(payload) != 101 {
			f.t.Fatalf("AuthorizationData payload length = %d, want 101", len(payload))
		}
		if !crypto.VerifyAuthenticator(&f.shared, payload[:32],
			payload[32:], f.nonce2[:]) {
			f.t.Fatal("authorization data authenticator did not verify")
		}
		auth := crypto.Authenticator(&f.shared, f.authID[:], f.lockID[:], f.nonce3[:])
		reply := make([]byte, 0, 84)
		reply = append(reply, auth[:]...)
		reply = append(reply, f.authID[:]...)
		reply = append(reply, f.lockID[:]...)
		reply = append(reply, f.nonce3[:]...)
		f.send(message.CmdAuthorizationID, reply)

	case message.CmdAuthorizationIDConfirm:
		if len(payload) != 36 {
			f.t.Fatalf("confirmation payload length = %d, want 36", len(payload))
		}
		if !crypto.VerifyAuthenticator(&f.shared, payload[:32],
			payload[32:36], f.nonce3[:]) {
			f.t.Fatal("confirmation authenticator did not verify")
		}
		if [4]byte(payload[32:36]) != f.authID {
			f.t.Fatalf("confirmed authorization ID = %x, want %x", payload[32:36], f.authID)
		}
		f.send(message.CmdStatus, []byte{uint8(keyturner.StatusComplete)})

	default:
		f.t.Fatalf("unexpected pairing write %v", cmd)
	}
	return nil
}

func newTestMachine(t *testing.T, s *session.Session, lock *fakeLock, timeout time.Duration) *Machine {
	t.Helper()
	kp, err := crypto.GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	m, err := NewMachine(Config{
		Session:   s,
		Transport: lock,
		Keypair:   kp,
		DeviceID:  42,
		Name:      "Test Bridge",
		Timeout:   timeout,
	})
	if err != nil {
		t.Fatalf("NewMachine() error: %v", err)
	}
	return m
}

func TestPairingHappyPath(t *testing.T) {
	s := session.New()
	lock := newFakeLock(t, s)
	m := newTestMachine(t, s, lock, 2*time.Second)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if m.State() != StateSuccess {
		t.Fatalf("State() = %v, want Success", m.State())
	}

	key, authID, ok := s.Credentials()
	if !ok {
		t.Fatal("Credentials() not populated after pairing")
	}
	if authID != lock.authID {
		t.Fatalf("authorization ID = %x, want %x", authID, lock.authID)
	}
	if key != lock.shared {
		t.Fatal("long-term key differs between client and lock")
	}
	if s.LockID() != lock.lockID {
		t.Fatalf("LockID() = %x, want %x", s.LockID(), lock.lockID)
	}

	want := []message.Command{
		message.CmdRequestData,
		message.CmdPublicKey,
		message.CmdAuthorizationAuthenticator,
		message.CmdAuthorizationData,
		message.CmdAuthorizationIDConfirm,
	}
	if len(lock.writes) != len(want) {
		t.Fatalf("client sent %d frames, want %d: %v", len(lock.writes), len(want), lock.writes)
	}
	for i, cmd := range want {
		if lock.writes[i] != cmd {
			t.Fatalf("frame %d = %v, want %v", i, lock.writes[i], cmd)
		}
	}

	if _, ok := s.ConsumeChallenge(); ok {
		t.Fatal("challenge nonce survived the handshake")
	}
}

func TestPairingTimeout(t *testing.T) {
	s := session.New()
	lock := newFakeLock(t, s)
	lock.silent = true
	m := newTestMachine(t, s, lock, 50*time.Millisecond)

	err := m.Run(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if m.State() != StateTimeout {
		t.Fatalf("State() = %v, want Timeout", m.State())
	}
	if _, _, ok := s.Credentials(); ok {
		t.Fatal("Credentials() populated after failed pairing")
	}
}

func TestPairingDropsCorruptChallenge(t *testing.T) {
	s := session.New()
	lock := newFakeLock(t, s)
	lock.corruptChallenge = true
	m := newTestMachine(t, s, lock, 50*time.Millisecond)

	err := m.Run(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if _, _, ok := s.Credentials(); ok {
		t.Fatal("Credentials() populated despite corrupted challenge")
	}
	// The lock's PublicKey reply is the last frame applied; the
	// corrupted challenge after it must not have been.
	if s.LastMessageCode() != message.CmdPublicKey {
		t.Fatalf("LastMessageCode() = %v after corrupted frame, want PublicKey", s.LastMessageCode())
	}
}

func TestPairingContextCancel(t *testing.T) {
	s := session.New()
	lock := newFakeLock(t, s)
	lock.silent = true
	m := newTestMachine(t, s, lock, 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.Run(ctx)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("Run() ignored the context deadline")
	}
}

func TestNewMachineValidation(t *testing.T) {
	kp, err := crypto.GenerateKeypair(nil)
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}

	if _, err := NewMachine(Config{}); !errors.Is(err, ErrNoKeypair) {
		t.Fatalf("NewMachine() without keypair: error = %v, want ErrNoKeypair", err)
	}
	if _, err := NewMachine(Config{
		Keypair: kp,
		Name:    "this name is far too long to fit the frame",
	}); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("NewMachine() with long name: error = %v, want ErrNameTooLong", err)
	}
}
