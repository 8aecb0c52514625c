package tlsutil

import (
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"
)

const (
	// First byte of a TLS record carrying a handshake
	recordTypeHandshake = 0x16

	sniffTimeout = 5 * time.Second
)

// MuxListener accepts on one port and routes each connection to the HTTP or
// HTTPS side depending on its first byte
type MuxListener struct {
	inner     net.Listener
	tlsConfig *tls.Config

	httpConns  chan net.Conn
	httpsConns chan net.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMuxListener starts routing connections accepted by inner
func NewMuxListener(inner net.Listener, tlsConfig *tls.Config) *MuxListener {
	ml := &MuxListener{
		inner:      inner,
		tlsConfig:  tlsConfig,
		httpConns:  make(chan net.Conn, 128),
		httpsConns: make(chan net.Conn, 128),
		closed:     make(chan struct{}),
	}

	go ml.acceptLoop()

	return ml
}

func (ml *MuxListener) acceptLoop() {
	for {
		conn, err := ml.inner.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// Listener is gone; unblock both sides
			ml.Close()
			return
		}

		go ml.route(conn)
	}
}

func (ml *MuxListener) route(conn net.Conn) {
	first, err := sniff(conn)
	if err != nil {
		conn.Close()
		return
	}

	var routed net.Conn = &peekedConn{Conn: conn, peeked: []byte{first}}
	target := ml.httpConns
	if first == recordTypeHandshake {
		routed = tls.Server(routed, ml.tlsConfig)
		target = ml.httpsConns
	}

	select {
	case target <- routed:
	case <-ml.closed:
		routed.Close()
	}
}

// sniff reads the first byte of conn within sniffTimeout
func sniff(conn net.Conn) (byte, error) {
	conn.SetReadDeadline(time.Now().Add(sniffTimeout))
	defer conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 1)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// HTTPListener returns the listener for plain HTTP connections
func (ml *MuxListener) HTTPListener() net.Listener {
	return &chanListener{conns: ml.httpConns, closed: ml.closed, addr: ml.inner.Addr()}
}

// HTTPSListener returns the listener for TLS connections
func (ml *MuxListener) HTTPSListener() net.Listener {
	return &chanListener{conns: ml.httpsConns, closed: ml.closed, addr: ml.inner.Addr()}
}

// Close stops both sides and the inner listener
func (ml *MuxListener) Close() error {
	ml.closeOnce.Do(func() {
		close(ml.closed)
	})
	return ml.inner.Close()
}

// Addr returns the listener's network address
func (ml *MuxListener) Addr() net.Addr {
	return ml.inner.Addr()
}

// peekedConn replays bytes consumed while sniffing
type peekedConn struct {
	net.Conn
	peeked []byte
}

func (c *peekedConn) Read(b []byte) (int, error) {
	if len(c.peeked) > 0 {
		n := copy(b, c.peeked)
		c.peeked = c.peeked[n:]
		return n, nil
	}
	return c.Conn.Read(b)
}

// chanListener is one side of a MuxListener
type chanListener struct {
	conns  chan net.Conn
	closed chan struct{}
	addr   net.Addr
}

func (cl *chanListener) Accept() (net.Conn, error) {
	select {
	case conn := <-cl.conns:
		return conn, nil
	case <-cl.closed:
		return nil, net.ErrClosed
	}
}

// Close is a no-op; the MuxListener owns the socket
func (cl *chanListener) Close() error {
	return nil
}

func (cl *chanListener) Addr() net.Addr {
	return cl.addr
}
