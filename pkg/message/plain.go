// Package message implements the two wire frame shapes of the lock
// protocol and the command identifier space they carry.
//
// Plain frames travel on the pairing characteristic:
//
//	| command : 2 LE | payload : n | crc : 2 LE |
//
// Encrypted frames travel on the user characteristic:
//
//	| nonce : 24 | authID : 4 | msgLen : 2 LE | ciphertext : msgLen |
//
// where the ciphertext is a secretbox over
//
//	| authID : 4 | command : 2 LE | payload : n | crc : 2 LE |
//
// All integers are little-endian. The CRC is CRC-16/CCITT-FALSE over
// everything preceding it inside its frame shape.
package message

import (
	"encoding/binary"
	"errors"

	"github.com/keyturn/nukible/pkg/crc"
)

// MaxPayloadSize bounds the payload of a single frame. The largest
// protocol message is AuthorizationData at 101 bytes.
const MaxPayloadSize = 128

var (
	ErrTooShort        = errors.New("message: frame too short")
	ErrBadCRC          = errors.New("message: CRC mismatch")
	ErrBadMAC          = errors.New("message: secretbox authentication failed")
	ErrAuthIDMismatch  = errors.New("message: authorization ID mismatch")
	ErrPayloadTooLarge = errors.New("message: payload exceeds maximum size")
)

const plainOverhead = 4 // command + crc

// EncodePlain builds a plain frame around cmd and payload.
func EncodePlain(cmd Command, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, 0, len(payload)+plainOverhead)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(cmd))
	buf = append(buf, payload...)
	return crc.Append(buf), nil
}

// DecodePlain parses a plain frame, verifying the trailing CRC. The
// returned payload aliases b.
func DecodePlain(b []byte) (Command, []byte, error) {
	if len(b) < plainOverhead {
		return CmdEmpty, nil, ErrTooShort
	}
	if !crc.Verify(b) {
		return CmdEmpty, nil, ErrBadCRC
	}
	cmd := Command(binary.LittleEndian.Uint16(b))
	return cmd, b[2 : len(b)-2], nil
}
