package message

import (
	"bytes"
	"errors"
	"testing"

	"github.com/keyturn/nukible/pkg/crypto"
)

func TestPlainRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		payload []byte
	}{
		{"empty payload", CmdRequestData, nil},
		{"request public key", CmdRequestData, []byte{0x03, 0x00}},
		{"public key", CmdPublicKey, bytes.Repeat([]byte{0xAA}, 32)},
		{"status", CmdStatus, []byte{0x00}},
		{"max payload", CmdAuthorizationData, bytes.Repeat([]byte{0x5A}, MaxPayloadSize)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := EncodePlain(tc.cmd, tc.payload)
			if err != nil {
				t.Fatalf("EncodePlain() error: %v", err)
			}
			cmd, payload, err := DecodePlain(frame)
			if err != nil {
				t.Fatalf("DecodePlain() error: %v", err)
			}
			if cmd != tc.cmd {
				t.Fatalf("DecodePlain() cmd = %v, want %v", cmd, tc.cmd)
			}
			if !bytes.Equal(payload, tc.payload) {
				t.Fatalf("DecodePlain() payload = %x, want %x", payload, tc.payload)
			}
		})
	}
}

func TestPlainRejectsCorruption(t *testing.T) {
	frame, err := EncodePlain(CmdKeyturnerStates, []byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("EncodePlain() error: %v", err)
	}
	for i := 0; i < len(frame)*8; i++ {
		corrupt := append([]byte(nil), frame...)
		corrupt[i/8] ^= 1 << (i % 8)
		if _, _, err := DecodePlain(corrupt); !errors.Is(err, ErrBadCRC) {
			t.Fatalf("DecodePlain() with bit %d flipped: error = %v, want ErrBadCRC", i, err)
		}
	}
}

func TestPlainTooShort(t *testing.T) {
	for _, b := range [][]byte{nil, {}, {0x01}, {0x01, 0x00, 0x12}} {
		if _, _, err := DecodePlain(b); !errors.Is(err, ErrTooShort) {
			t.Fatalf("DecodePlain(%x) error = %v, want ErrTooShort", b, err)
		}
	}
}

func TestPlainPayloadTooLarge(t *testing.T) {
	if _, err := EncodePlain(CmdSetConfig, make([]byte, MaxPayloadSize+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("EncodePlain() error = %v, want ErrPayloadTooLarge", err)
	}
}

func testCodec() *SecureCodec {
	var key [crypto.KeySize]byte
	copy(key[:], bytes.Repeat([]byte{0x11}, crypto.KeySize))
	return &SecureCodec{
		Key:    &key,
		AuthID: [4]byte{0xDE, 0xAD, 0xBE, 0xEF},
	}
}

func TestSecureRoundTrip(t *testing.T) {
	codec := testCodec()
	tests := []struct {
		name    string
		cmd     Command
		payload []byte
	}{
		{"empty payload", CmdRequestData, nil},
		{"keyturner state request", CmdRequestData, []byte{0x0C, 0x00}},
		{"lock action", CmdLockAction, []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"max payload", CmdSetConfig, bytes.Repeat([]byte{0x77}, MaxPayloadSize)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := codec.Seal(tc.cmd, tc.payload)
			if err != nil {
				t.Fatalf("Seal() error: %v", err)
			}
			wantLen := 24 + 4 + 2 + 4 + 2 + len(tc.payload) + 2 + crypto.TagSize
			if len(frame) != wantLen {
				t.Fatalf("Seal() frame length = %d, want %d", len(frame), wantLen)
			}
			cmd, payload, err := codec.Open(frame)
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			if cmd != tc.cmd {
				t.Fatalf("Open() cmd = %v, want %v", cmd, tc.cmd)
			}
			if !bytes.Equal(payload, tc.payload) {
				t.Fatalf("Open() payload = %x, want %x", payload, tc.payload)
			}
		})
	}
}

func TestSecureFreshNoncePerSeal(t *testing.T) {
	codec := testCodec()
	a, err := codec.Seal(CmdRequestData, []byte{0x0C, 0x00})
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	b, err := codec.Seal(CmdRequestData, []byte{0x0C, 0x00})
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if bytes.Equal(a[:24], b[:24]) {
		t.Fatal("Seal() reused a nonce")
	}
}

func TestSecureOpenErrorClassification(t *testing.T) {
	codec := testCodec()
	frame, err := codec.Seal(CmdLockAction, []byte{0x01})
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}

	t.Run("too short", func(t *testing.T) {
		if _, _, err := codec.Open(frame[:20]); !errors.Is(err, ErrTooShort) {
			t.Fatalf("Open() error = %v, want ErrTooShort", err)
		}
	})

	t.Run("bad MAC", func(t *testing.T) {
		corrupt := append([]byte(nil), frame...)
		corrupt[len(corrupt)-1] ^= 0x01
		if _, _, err := codec.Open(corrupt); !errors.Is(err, ErrBadMAC) {
			t.Fatalf("Open() error = %v, want ErrBadMAC", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other := testCodec()
		other.Key[0] ^= 0xFF
		if _, _, err := other.Open(frame); !errors.Is(err, ErrBadMAC) {
			t.Fatalf("Open() error = %v, want ErrBadMAC", err)
		}
	})

	t.Run("auth ID mismatch", func(t *testing.T) {
		other := testCodec()
		other.AuthID = [4]byte{0x01, 0x02, 0x03, 0x04}
		sealed, err := other.Seal(CmdLockAction, []byte{0x01})
		if err != nil {
			t.Fatalf("Seal() error: %v", err)
		}
		// Same key, different identity: the MAC passes but the
		// identity check must not.
		if _, _, err := codec.Open(sealed); !errors.Is(err, ErrAuthIDMismatch) {
			t.Fatalf("Open() error = %v, want ErrAuthIDMismatch", err)
		}
	})

	t.Run("bad inner CRC", func(t *testing.T) {
		// A frame whose secretbox is valid but whose inner CRC is
		// wrong: seal a hand-assembled plaintext.
		plain := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x0D, 0x00, 0x01, 0x00, 0x00}
		nonce, err := crypto.GenerateNonce24(nil)
		if err != nil {
			t.Fatalf("GenerateNonce24() error: %v", err)
		}
		sealed := crypto.Seal(codec.Key, nonce, plain)
		bad := append([]byte(nil), nonce[:]...)
		bad = append(bad, codec.AuthID[:]...)
		bad = append(bad, byte(len(sealed)), byte(len(sealed)>>8))
		bad = append(bad, sealed...)
		if _, _, err := codec.Open(bad); !errors.Is(err, ErrBadCRC) {
			t.Fatalf("Open() error = %v, want ErrBadCRC", err)
		}
	})
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CmdRequestData, "RequestData"},
		{CmdKeyturnerStates, "KeyturnerStates"},
		{CmdAdvancedConfig, "AdvancedConfig"},
		{Command(0xFF), "Command(0xFF)"},
	}
	for _, tc := range tests {
		if got := tc.cmd.String(); got != tc.want {
			t.Fatalf("Command(0x%02X).String() = %q, want %q", uint16(tc.cmd), got, tc.want)
		}
	}
}
