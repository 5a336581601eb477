// Package store persists pairing credentials between runs. The
// interface mirrors a simple byte-oriented preference store; the two
// implementations back it with process memory (tests) and the
// operating system keyring.
package store

import (
	"encoding/binary"

	"github.com/keyturn/nukible/pkg/crypto"
)

// Keys under which the four credential items are stored.
const (
	KeySecretKey       = "secretKeyK"
	KeyBLEAddress      = "bleAddress"
	KeyAuthorizationID = "authorizationId"
	KeySecurityPIN     = "securityPinCode"
)

// CredentialStore is the persistence contract. PutBytes returns the
// number of bytes written; zero signals a failed write.
type CredentialStore interface {
	GetBytes(key string) ([]byte, bool)
	PutBytes(key string, val []byte) int
	Remove(key string)
}

// Credentials is the persisted identity of one pairing.
type Credentials struct {
	Key     [crypto.KeySize]byte
	AuthID  [4]byte
	Address [6]byte
	PIN     uint16
}

// Save writes all four items. On any short write the store is wiped so
// a later Load does not see a partial identity.
func Save(s CredentialStore, c Credentials) bool {
	var pin [2]byte
	binary.LittleEndian.PutUint16(pin[:], c.PIN)
	addr := reverse6(c.Address)
	ok := s.PutBytes(KeySecretKey, c.Key[:]) == len(c.Key) &&
		s.PutBytes(KeyBLEAddress, addr[:]) == len(c.Address) &&
		s.PutBytes(KeyAuthorizationID, c.AuthID[:]) == len(c.AuthID) &&
		s.PutBytes(KeySecurityPIN, pin[:]) == len(pin)
	if !ok {
		Wipe(s)
	}
	return ok
}

// Load reads the persisted identity. Any missing or short item is
// treated as unpaired and the remaining items are wiped.
func Load(s CredentialStore) (Credentials, bool) {
	var c Credentials
	key, ok1 := s.GetBytes(KeySecretKey)
	addr, ok2 := s.GetBytes(KeyBLEAddress)
	authID, ok3 := s.GetBytes(KeyAuthorizationID)
	pin, ok4 := s.GetBytes(KeySecurityPIN)
	if !ok1 || !ok2 || !ok3 || !ok4 ||
		len(key) != len(c.Key) || len(addr) != len(c.Address) ||
		len(authID) != len(c.AuthID) || len(pin) != 2 {
		Wipe(s)
		crypto.Zeroize(key)
		return Credentials{}, false
	}
	copy(c.Key[:], key)
	c.Address = reverse6([6]byte(addr))
	copy(c.AuthID[:], authID)
	c.PIN = binary.LittleEndian.Uint16(pin)
	crypto.Zeroize(key)
	return c, true
}

// Wipe removes all four items.
func Wipe(s CredentialStore) {
	s.Remove(KeySecretKey)
	s.Remove(KeyBLEAddress)
	s.Remove(KeyAuthorizationID)
	s.Remove(KeySecurityPIN)
}

// reverse6 flips byte order. BLE addresses are stored in the reversed
// over-the-air order.
func reverse6(a [6]byte) [6]byte {
	var out [6]byte
	for i := range a {
		out[i] = a[5-i]
	}
	return out
}
