package tlsutil

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
)

// DualServer serves one handler over HTTP and HTTPS on a shared listener
type DualServer struct {
	mux    *MuxListener
	secure *http.Server
	plain  *http.Server
	errs   chan error
}

// Serve starts srv on the TLS side of ln and a copy of it on the plain side
func Serve(srv *http.Server, ln net.Listener, tlsConfig *tls.Config) *DualServer {
	plain := &http.Server{
		Handler:           srv.Handler,
		ReadTimeout:       srv.ReadTimeout,
		ReadHeaderTimeout: srv.ReadHeaderTimeout,
		WriteTimeout:      srv.WriteTimeout,
		IdleTimeout:       srv.IdleTimeout,
	}

	d := &DualServer{
		mux:    NewMuxListener(ln, tlsConfig),
		secure: srv,
		plain:  plain,
		errs:   make(chan error, 2),
	}

	go d.run(d.secure, d.mux.HTTPSListener())
	go d.run(d.plain, d.mux.HTTPListener())

	return d
}

func (d *DualServer) run(s *http.Server, ln net.Listener) {
	if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		d.errs <- err
	}
}

// Errors reports serve failures other than a requested shutdown
func (d *DualServer) Errors() <-chan error {
	return d.errs
}

// Addr returns the shared listen address
func (d *DualServer) Addr() net.Addr {
	return d.mux.Addr()
}

// Shutdown stops both servers gracefully, then closes the listener
func (d *DualServer) Shutdown(ctx context.Context) error {
	err := errors.Join(d.secure.Shutdown(ctx), d.plain.Shutdown(ctx))
	if cerr := d.mux.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		err = errors.Join(err, cerr)
	}
	return err
}
