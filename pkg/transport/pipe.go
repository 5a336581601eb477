package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// pipeCore is the shared half of a pipe pair: the bridge plus the
// goroutine that pumps queued packets across it.
type pipeCore struct {
	bridge *test.Bridge
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func (c *pipeCore) run(interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.bridge.Tick()
			}
		}
	}()
}

func (c *pipeCore) close() {
	c.once.Do(func() { close(c.stop) })
	c.wg.Wait()
}

// PipeEnd is one side of an in-memory Transport pair. Frames written
// on one end arrive at the other end's handler, prefixed internally
// with a channel byte so both characteristics share the bridge.
type PipeEnd struct {
	core *pipeCore
	conn net.Conn

	mu        sync.Mutex
	handler   Handler
	connected bool
	closed    bool
	readWG    sync.WaitGroup
}

// NewPipe creates two connected in-memory transports. Delivery runs on
// a background goroutine, so tests need no manual pumping.
func NewPipe() (*PipeEnd, *PipeEnd) {
	core := &pipeCore{
		bridge: test.NewBridge(),
		stop:   make(chan struct{}),
	}
	core.run(time.Millisecond)
	a := newPipeEnd(core, core.bridge.GetConn0())
	b := newPipeEnd(core, core.bridge.GetConn1())
	return a, b
}

func newPipeEnd(core *pipeCore, conn net.Conn) *PipeEnd {
	p := &PipeEnd{core: core, conn: conn}
	p.readWG.Add(1)
	go p.readLoop()
	return p
}

func (p *PipeEnd) readLoop() {
	defer p.readWG.Done()
	buf := make([]byte, 512)
	for {
		n, err := p.conn.Read(buf)
		if err != nil {
			return
		}
		if n < 1 {
			continue
		}
		ch := Channel(buf[0])
		frame := append([]byte(nil), buf[1:n]...)

		p.mu.Lock()
		handler := p.handler
		p.mu.Unlock()
		if handler != nil {
			handler(ch, frame)
		}
	}
}

// Connect marks the end connected. The address is ignored; pipes have
// exactly one peer.
func (p *PipeEnd) Connect(_ context.Context, _ [6]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.connected = true
	return nil
}

func (p *PipeEnd) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected && !p.closed
}

func (p *PipeEnd) WritePairing(b []byte) error {
	return p.write(ChannelPairing, b)
}

func (p *PipeEnd) WriteUser(b []byte) error {
	return p.write(ChannelUser, b)
}

func (p *PipeEnd) write(ch Channel, b []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if !p.connected {
		p.mu.Unlock()
		return ErrNotConnected
	}
	p.mu.Unlock()

	packet := make([]byte, 0, len(b)+1)
	packet = append(packet, byte(ch))
	packet = append(packet, b...)
	_, err := p.conn.Write(packet)
	return err
}

func (p *PipeEnd) SetHandler(h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Close tears down this end and stops the shared pump. The peer's
// reads fail afterwards, so close order does not matter in tests.
func (p *PipeEnd) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.connected = false
	p.mu.Unlock()

	p.core.close()
	err := p.conn.Close()
	p.readWG.Wait()
	return err
}

var _ Transport = (*PipeEnd)(nil)
