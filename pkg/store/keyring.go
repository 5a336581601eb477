package store

import (
	"encoding/hex"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name credentials are filed
// under.
const DefaultService = "nukible"

// Keyring stores credentials in the operating system keyring. Values
// are hex-encoded since keyring backends expect printable strings.
type Keyring struct {
	// Service overrides DefaultService when non-empty.
	Service string
}

func (k *Keyring) service() string {
	if k.Service != "" {
		return k.Service
	}
	return DefaultService
}

func (k *Keyring) GetBytes(key string) ([]byte, bool) {
	v, err := keyring.Get(k.service(), key)
	if err != nil {
		return nil, false
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (k *Keyring) PutBytes(key string, val []byte) int {
	if err := keyring.Set(k.service(), key, hex.EncodeToString(val)); err != nil {
		return 0
	}
	return len(val)
}

func (k *Keyring) Remove(key string) {
	_ = keyring.Delete(k.service(), key)
}
