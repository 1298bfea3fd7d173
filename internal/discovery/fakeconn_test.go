package discovery

import (
	"context"
	"net"
	"sync"
	"time"
)

type sentDatagram struct {
	data []byte
	dst  string
}

// fakeConn is an in-memory net.PacketConn. Reads come from deliver, writes
// are recorded.
type fakeConn struct {
	local *net.UDPAddr

	in      chan datagram
	readErr chan error
	closed  chan struct{}
	once    sync.Once

	mu      sync.Mutex
	sent    []sentDatagram
	sendErr map[string]error // keyed by destination IP
}

func newFakeConn(port int) *fakeConn {
	return &fakeConn{
		local:   &net.UDPAddr{IP: net.IPv4zero, Port: port},
		in:      make(chan datagram),
		readErr: make(chan error, 1),
		closed:  make(chan struct{}),
		sendErr: make(map[string]error),
	}
}

func (f *fakeConn) ReadFrom(b []byte) (int, net.Addr, error) {
	select {
	case dg := <-f.in:
		return copy(b, dg.data), dg.addr, nil
	case err := <-f.readErr:
		return 0, nil, err
	case <-f.closed:
		return 0, nil, net.ErrClosed
	}
}

func (f *fakeConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	udp := addr.(*net.UDPAddr)
	if err := f.sendErr[udp.IP.String()]; err != nil {
		return 0, err
	}
	f.sent = append(f.sent, sentDatagram{data: append([]byte(nil), b...), dst: addr.String()})
	return len(b), nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) LocalAddr() net.Addr                { return f.local }
func (f *fakeConn) SetDeadline(time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

// deliver hands a datagram to the engine's read loop, failing after a second.
func (f *fakeConn) deliver(data []byte, from string) bool {
	addr, err := net.ResolveUDPAddr("udp4", from)
	if err != nil {
		panic(err)
	}
	select {
	case f.in <- datagram{data: data, addr: addr}:
		return true
	case <-time.After(time.Second):
		return false
	}
}

func (f *fakeConn) failSend(ip string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr[ip] = err
}

func (f *fakeConn) sentDatagrams() []sentDatagram {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentDatagram(nil), f.sent...)
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// fakeListener hands out a fresh fakeConn per Start and counts binds.
type fakeListener struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (l *fakeListener) listen(_ context.Context, port int) (net.PacketConn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	conn := newFakeConn(port)
	l.conns = append(l.conns, conn)
	return conn, nil
}

func (l *fakeListener) binds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

func (l *fakeListener) last() *fakeConn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conns[len(l.conns)-1]
}
