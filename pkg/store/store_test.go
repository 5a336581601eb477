package store

import (
	"bytes"
	"testing"
)

func testCredentials() Credentials {
	var c Credentials
	copy(c.Key[:], bytes.Repeat([]byte{0x42}, 32))
	c.AuthID = [4]byte{1, 2, 3, 4}
	c.Address = [6]byte{0x54, 0xD2, 0x72, 0xAC, 0x8E, 0xC2}
	c.PIN = 1234
	return c
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := NewMemory()
	want := testCredentials()
	if !Save(m, want) {
		t.Fatal("Save() failed against memory store")
	}
	got, ok := Load(m)
	if !ok {
		t.Fatal("Load() did not find saved credentials")
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestAddressStoredReversed(t *testing.T) {
	m := NewMemory()
	c := testCredentials()
	if !Save(m, c) {
		t.Fatal("Save() failed")
	}
	raw, ok := m.GetBytes(KeyBLEAddress)
	if !ok {
		t.Fatal("bleAddress missing")
	}
	want := []byte{0xC2, 0x8E, 0xAC, 0x72, 0xD2, 0x54}
	if !bytes.Equal(raw, want) {
		t.Fatalf("stored address = %x, want %x", raw, want)
	}
}

func TestLoadPartialWipes(t *testing.T) {
	m := NewMemory()
	if !Save(m, testCredentials()) {
		t.Fatal("Save() failed")
	}
	m.Remove(KeyAuthorizationID)

	if _, ok := Load(m); ok {
		t.Fatal("Load() succeeded with a missing item")
	}
	for _, key := range []string{KeySecretKey, KeyBLEAddress, KeySecurityPIN} {
		if _, ok := m.GetBytes(key); ok {
			t.Fatalf("Load() left %q behind after partial read", key)
		}
	}
}

func TestLoadShortValueWipes(t *testing.T) {
	m := NewMemory()
	if !Save(m, testCredentials()) {
		t.Fatal("Save() failed")
	}
	m.PutBytes(KeySecretKey, []byte{0x01, 0x02})

	if _, ok := Load(m); ok {
		t.Fatal("Load() succeeded with a truncated key")
	}
	if _, ok := m.GetBytes(KeyAuthorizationID); ok {
		t.Fatal("Load() left authorizationId behind after short read")
	}
}

func TestWipe(t *testing.T) {
	m := NewMemory()
	if !Save(m, testCredentials()) {
		t.Fatal("Save() failed")
	}
	Wipe(m)
	if _, ok := Load(m); ok {
		t.Fatal("Load() found credentials after Wipe()")
	}
}
