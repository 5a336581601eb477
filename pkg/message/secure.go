package message

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/keyturn/nukible/pkg/crc"
	"github.com/keyturn/nukible/pkg/crypto"
)

const secureHeaderSize = crypto.NonceSize + 4 + 2 // nonce + authID + msgLen

// SecureCodec seals and opens encrypted frames for one authorized
// session. Key and AuthID come from the credential set established
// during pairing; Rand may be overridden in tests and defaults to
// crypto/rand.
type SecureCodec struct {
	Key    *[crypto.KeySize]byte
	AuthID [4]byte
	Rand   io.Reader
}

// Seal builds an encrypted frame around cmd and payload with a fresh
// random nonce. It fails only if payload is oversized or the RNG fails.
func (c *SecureCodec) Seal(cmd Command, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	nonce, err := crypto.GenerateNonce24(c.Rand)
	if err != nil {
		return nil, fmt.Errorf("seal frame: %w", err)
	}

	plain := make([]byte, 0, 4+2+len(payload)+2)
	plain = append(plain, c.AuthID[:]...)
	plain = binary.LittleEndian.AppendUint16(plain, uint16(cmd))
	plain = append(plain, payload...)
	plain = crc.Append(plain)

	sealed := crypto.Seal(c.Key, nonce, plain)

	frame := make([]byte, 0, secureHeaderSize+len(sealed))
	frame = append(frame, nonce[:]...)
	frame = append(frame, c.AuthID[:]...)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(sealed)))
	frame = append(frame, sealed...)
	return frame, nil
}

// Open authenticates and parses an encrypted frame. Errors distinguish
// truncation, MAC failure, inner CRC failure and an envelope
// authorization ID that is not ours.
func (c *SecureCodec) Open(b []byte) (Command, []byte, error) {
	if len(b) < secureHeaderSize+crypto.TagSize {
		return CmdEmpty, nil, ErrTooShort
	}
	var nonce [crypto.NonceSize]byte
	copy(nonce[:], b)
	envelopeID := b[crypto.NonceSize : crypto.NonceSize+4]
	msgLen := int(binary.LittleEndian.Uint16(b[crypto.NonceSize+4:]))
	body := b[secureHeaderSize:]
	if len(body) < msgLen || msgLen < crypto.TagSize {
		return CmdEmpty, nil, ErrTooShort
	}

	plain, err := crypto.Open(c.Key, &nonce, body[:msgLen])
	if err != nil {
		return CmdEmpty, nil, ErrBadMAC
	}
	if len(plain) < 4+2+2 {
		return CmdEmpty, nil, ErrTooShort
	}
	if !crc.Verify(plain) {
		return CmdEmpty, nil, ErrBadCRC
	}
	innerID := plain[:4]
	if string(innerID) != string(c.AuthID[:]) || string(envelopeID) != string(c.AuthID[:]) {
		return CmdEmpty, nil, ErrAuthIDMismatch
	}
	cmd := Command(binary.LittleEndian.Uint16(plain[4:]))
	return cmd, plain[6 : len(plain)-2], nil
}
