package transport

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

type delivery struct {
	ch    Channel
	frame []byte
}

func collect(t *testing.T, p *PipeEnd) <-chan delivery {
	t.Helper()
	out := make(chan delivery, 8)
	p.SetHandler(func(ch Channel, b []byte) {
		out <- delivery{ch: ch, frame: b}
	})
	return out
}

func recv(t *testing.T, ch <-chan delivery) delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery within deadline")
		return delivery{}
	}
}

func TestPipeDelivery(t *testing.T) {
	a, b := NewPipe()
	defer a.Close()
	inbound := collect(t, b)

	if err := a.Connect(context.Background(), [6]byte{}); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03}
	if err := a.WritePairing(want); err != nil {
		t.Fatalf("WritePairing() error: %v", err)
	}

	d := recv(t, inbound)
	if d.ch != ChannelPairing {
		t.Fatalf("delivered on %v, want pairing", d.ch)
	}
	if !bytes.Equal(d.frame, want) {
		t.Fatalf("delivered %x, want %x", d.frame, want)
	}
}

func TestPipeChannelSeparation(t *testing.T) {
	a, b := NewPipe()
	defer a.Close()
	inbound := collect(t, b)

	if err := a.Connect(context.Background(), [6]byte{}); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := a.WriteUser([]byte{0xAA}); err != nil {
		t.Fatalf("WriteUser() error: %v", err)
	}
	if err := a.WritePairing([]byte{0xBB}); err != nil {
		t.Fatalf("WritePairing() error: %v", err)
	}

	first := recv(t, inbound)
	second := recv(t, inbound)
	if first.ch != ChannelUser || first.frame[0] != 0xAA {
		t.Fatalf("first delivery = %v %x", first.ch, first.frame)
	}
	if second.ch != ChannelPairing || second.frame[0] != 0xBB {
		t.Fatalf("second delivery = %v %x", second.ch, second.frame)
	}
}

func TestPipeWriteRequiresConnect(t *testing.T) {
	a, _ := NewPipe()
	defer a.Close()
	if err := a.WritePairing([]byte{0x01}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("WritePairing() error = %v, want ErrNotConnected", err)
	}
}

func TestPipeClosedWrite(t *testing.T) {
	a, _ := NewPipe()
	if err := a.Connect(context.Background(), [6]byte{}); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := a.WritePairing([]byte{0x01}); !errors.Is(err, ErrClosed) {
		t.Fatalf("WritePairing() error = %v, want ErrClosed", err)
	}
	if a.IsConnected() {
		t.Fatal("IsConnected() = true after Close()")
	}
}
