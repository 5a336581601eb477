// Package client ties the protocol together: it owns the session and
// dispatcher, restores persisted credentials, runs the pairing
// handshake, and executes commands over the encrypted channel.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pion/logging"

	"github.com/keyturn/nukible/pkg/crypto"
	"github.com/keyturn/nukible/pkg/keyturner"
	"github.com/keyturn/nukible/pkg/message"
	"github.com/keyturn/nukible/pkg/pairing"
	"github.com/keyturn/nukible/pkg/session"
	"github.com/keyturn/nukible/pkg/store"
	"github.com/keyturn/nukible/pkg/transport"
)

// Connect retry policy.
const (
	connectAttempts = 5
	connectInterval = 200 * time.Millisecond
)

var (
	ErrNoTransport = errors.New("client: transport required")
	ErrNotPaired   = errors.New("client: not paired")
	ErrPersist     = errors.New("client: persisting credentials failed")
)

// Config assembles a Client.
type Config struct {
	Transport transport.Transport

	// Store persists credentials across runs; an in-memory store is
	// used when nil.
	Store store.CredentialStore

	// DeviceID and Name identify this client during pairing.
	DeviceID uint32
	Name     string

	// IDType defaults to Bridge.
	IDType keyturner.IDType

	// CmdTimeout bounds each command step; DefaultCmdTimeout when zero.
	CmdTimeout time.Duration

	// PairingTimeout bounds each pairing step; pairing.DefaultTimeout
	// when zero.
	PairingTimeout time.Duration

	// Rand sources keypairs and nonces; crypto/rand when nil.
	Rand io.Reader

	// EventHandler is notified on every lock status update.
	EventHandler session.EventHandler

	LoggerFactory logging.LoggerFactory
}

// Client is the public face of the library. All methods are safe for
// concurrent use; commands execute serially, one Action in flight.
type Client struct {
	session   *session.Session
	transport transport.Transport
	store     store.CredentialStore
	machine   *machine

	deviceID       uint32
	name           string
	idType         keyturner.IDType
	rand           io.Reader
	pairingTimeout time.Duration
	loggerFactory  logging.LoggerFactory
	log            logging.LeveledLogger

	execMu sync.Mutex
}

// New builds a Client, wires the dispatcher into the transport, and
// restores persisted credentials if present.
func New(config Config) (*Client, error) {
	if config.Transport == nil {
		return nil, ErrNoTransport
	}
	st := config.Store
	if st == nil {
		st = store.NewMemory()
	}
	cmdTimeout := config.CmdTimeout
	if cmdTimeout == 0 {
		cmdTimeout = DefaultCmdTimeout
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	s := session.New()
	dispatch := session.NewDispatcher(session.DispatcherConfig{
		Session:       s,
		EventHandler:  config.EventHandler,
		LoggerFactory: loggerFactory,
	})
	config.Transport.SetHandler(dispatch.HandleIndication)

	c := &Client{
		session:   s,
		transport: config.Transport,
		store:     st,
		machine: &machine{
			session:   s,
			transport: config.Transport,
			timeout:   cmdTimeout,
			log:       loggerFactory.NewLogger("nuki-cmd"),
		},
		deviceID:       config.DeviceID,
		name:           config.Name,
		idType:         config.IDType,
		rand:           config.Rand,
		pairingTimeout: config.PairingTimeout,
		loggerFactory:  loggerFactory,
		log:            loggerFactory.NewLogger("nuki-client"),
	}

	if cred, ok := store.Load(st); ok {
		s.SetCredentials(cred.Key, cred.AuthID)
		s.SetPeerAddress(cred.Address)
		s.SetSecurityPIN(cred.PIN)
		crypto.Zeroize(cred.Key[:])
		c.log.Debugf("restored credentials, authorization ID %x", cred.AuthID)
	}
	return c, nil
}

// Session exposes the protocol state for snapshot reads.
func (c *Client) Session() *session.Session {
	return c.session
}

// IsPaired reports whether credentials are loaded.
func (c *Client) IsPaired() bool {
	_, _, ok := c.session.Credentials()
	return ok
}

// Connect establishes the link, retrying a fixed number of times with
// a constant back-off.
func (c *Client) Connect(ctx context.Context, addr [6]byte) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(connectInterval), connectAttempts-1),
		ctx)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := c.transport.Connect(ctx, addr); err != nil {
			c.log.Debugf("connect attempt %d: %v", attempt, err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return fmt.Errorf("connect %x: %w", addr, err)
	}
	c.session.SetPeerAddress(addr)
	return nil
}

// Pair runs the pairing handshake and persists the resulting
// credentials. When credentials are already loaded, Pair is a no-op.
func (c *Client) Pair(ctx context.Context) error {
	if c.IsPaired() {
		c.log.Debugf("already paired")
		return nil
	}

	keypair, err := crypto.GenerateKeypair(c.rand)
	if err != nil {
		return err
	}
	defer crypto.Zeroize(keypair.Private[:])

	m, err := pairing.NewMachine(pairing.Config{
		Session:       c.session,
		Transport:     c.transport,
		Keypair:       keypair,
		DeviceID:      c.deviceID,
		Name:          c.name,
		IDType:        c.idType,
		Timeout:       c.pairingTimeout,
		Rand:          c.rand,
		LoggerFactory: c.loggerFactory,
	})
	if err != nil {
		return err
	}
	if err := m.Run(ctx); err != nil {
		return err
	}

	key, authID, _ := c.session.Credentials()
	cred := store.Credentials{
		Key:     key,
		AuthID:  authID,
		Address: c.session.PeerAddress(),
		PIN:     c.session.SecurityPIN(),
	}
	saved := store.Save(c.store, cred)
	crypto.Zeroize(key[:], cred.Key[:])
	if !saved {
		c.session.ClearIdentity()
		return ErrPersist
	}
	return nil
}

// Unpair removes the persisted credentials and zeroizes the session
// identity.
func (c *Client) Unpair() {
	store.Wipe(c.store)
	c.session.ClearIdentity()
	c.session.ClearPairingEphemerals()
	c.log.Infof("unpaired")
}

// SetSecurityPIN stores the PIN used for PIN-bearing commands,
// updating the persisted copy when paired.
func (c *Client) SetSecurityPIN(pin uint16) {
	c.session.SetSecurityPIN(pin)
	if c.IsPaired() {
		var b [2]byte
		b[0] = byte(pin)
		b[1] = byte(pin >> 8)
		c.store.PutBytes(store.KeySecurityPIN, b[:])
	}
}

// Execute runs one Action to a terminal result. Actions are serial:
// a second caller blocks until the first completes.
func (c *Client) Execute(ctx context.Context, action Action) CmdResult {
	c.execMu.Lock()
	defer c.execMu.Unlock()
	if !c.IsPaired() {
		return ResultNotPaired
	}
	result := c.machine.execute(ctx, action, c.session.SecurityPIN())
	if result != ResultSuccess {
		c.log.Infof("%v %v: %v", action.Category, action.Command, result)
	}
	return result
}

// LastError returns the most recent ErrorReport byte and the command
// it was reported for.
func (c *Client) LastError() (keyturner.ErrorCode, message.Command) {
	return c.session.LastError()
}

// Close tears down the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}
