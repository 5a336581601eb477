// Package crypto provides the cryptographic primitives for the lock
// protocol: Curve25519 key agreement with an HSalsa20 key-derivation
// step, HMAC-SHA256 authenticators, and the XSalsa20-Poly1305
// authenticated encryption used on the command channel.
package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/salsa20/salsa"
)

// Sizes of the protocol's cryptographic values, in bytes.
const (
	KeySize       = 32 // Curve25519 keys and the derived long-term key
	AuthSize      = 32 // HMAC-SHA256 authenticator
	NonceSize     = 24 // secretbox nonce
	ChallengeSize = 32 // challenge nonces exchanged during pairing
	TagSize       = secretbox.Overhead
)

var (
	// ErrSharedKey is returned when the peer public key is rejected by
	// the scalar multiplication (e.g. a low-order point).
	ErrSharedKey = errors.New("crypto: shared key derivation failed")

	// ErrOpen is returned when an authenticated decryption fails.
	ErrOpen = errors.New("crypto: message authentication failed")
)

// Keypair holds a Curve25519 key pair.
type Keypair struct {
	Public  [KeySize]byte
	Private [KeySize]byte
}

// GenerateKeypair creates a new Curve25519 key pair. The random source
// defaults to crypto/rand when rng is nil.
func GenerateKeypair(rng io.Reader) (*Keypair, error) {
	if rng == nil {
		rng = rand.Reader
	}
	kp := &Keypair{}
	if _, err := io.ReadFull(rng, kp.Private[:]); err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// SharedKey derives the 32-byte long-term symmetric key from our
// private key and the peer's public key: Curve25519 scalar
// multiplication followed by HSalsa20 with a zero nonce and the
// "expand 32-byte k" constant. This matches the NaCl crypto_box
// precomputation, so the result can key secretbox directly.
func SharedKey(private, remotePublic *[KeySize]byte) (*[KeySize]byte, error) {
	dh, err := curve25519.X25519(private[:], remotePublic[:])
	if err != nil {
		return nil, ErrSharedKey
	}
	var shared, key [KeySize]byte
	var zero [16]byte
	copy(shared[:], dh)
	salsa.HSalsa20(&key, &zero, &shared, &salsa.Sigma)
	Zeroize(shared[:], dh)
	return &key, nil
}

// Authenticator computes the HMAC-SHA256 tag over the concatenation of
// parts, keyed with the long-term key.
func Authenticator(key *[KeySize]byte, parts ...[]byte) [AuthSize]byte {
	mac := hmac.New(sha256.New, key[:])
	for _, p := range parts {
		mac.Write(p)
	}
	var out [AuthSize]byte
	mac.Sum(out[:0])
	return out
}

// VerifyAuthenticator checks an authenticator in constant time.
func VerifyAuthenticator(key *[KeySize]byte, tag []byte, parts ...[]byte) bool {
	want := Authenticator(key, parts...)
	return hmac.Equal(tag, want[:])
}

// Seal encrypts and authenticates plaintext with XSalsa20-Poly1305.
// The ciphertext is len(plaintext)+TagSize bytes.
func Seal(key *[KeySize]byte, nonce *[NonceSize]byte, plaintext []byte) []byte {
	return secretbox.Seal(nil, plaintext, nonce, key)
}

// Open authenticates and decrypts a ciphertext produced by Seal.
func Open(key *[KeySize]byte, nonce *[NonceSize]byte, ciphertext []byte) ([]byte, error) {
	plain, ok := secretbox.Open(nil, ciphertext, nonce, key)
	if !ok {
		return nil, ErrOpen
	}
	return plain, nil
}

// GenerateNonce24 draws a fresh 24-byte secretbox nonce. The random
// source defaults to crypto/rand when rng is nil; nonces are never
// derived from counters or clocks.
func GenerateNonce24(rng io.Reader) (*[NonceSize]byte, error) {
	if rng == nil {
		rng = rand.Reader
	}
	var n [NonceSize]byte
	if _, err := io.ReadFull(rng, n[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return &n, nil
}

// GenerateNonce32 draws a fresh 32-byte challenge nonce.
func GenerateNonce32(rng io.Reader) ([ChallengeSize]byte, error) {
	if rng == nil {
		rng = rand.Reader
	}
	var n [ChallengeSize]byte
	if _, err := io.ReadFull(rng, n[:]); err != nil {
		return n, fmt.Errorf("generate nonce: %w", err)
	}
	return n, nil
}

// Zeroize overwrites the given buffers with zeros. Call it on key
// material that leaves scope: ephemeral private keys, derived shared
// keys, consumed challenge nonces.
func Zeroize(buffers ...[]byte) {
	for _, b := range buffers {
		for i := range b {
			b[i] = 0
		}
	}
}
