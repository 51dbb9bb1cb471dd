package testutil

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewIPv4Server starts an httptest server bound to 127.0.0.1 so tests do not
// depend on IPv6 loopback being available.
func NewIPv4Server(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := newUnstartedIPv4Server(t, handler)
	server.Start()
	return server
}

// NewIPv4TLSServer is NewIPv4Server with TLS. Use server.Client() to talk to it.
func NewIPv4TLSServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := newUnstartedIPv4Server(t, handler)
	server.StartTLS()
	return server
}

func newUnstartedIPv4Server(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen on IPv4 loopback: %v", err)
	}

	server := httptest.NewUnstartedServer(handler)
	_ = server.Listener.Close()
	server.Listener = listener
	t.Cleanup(server.Close)
	return server
}
