package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"wrapped explicit", fmt.Errorf("lookup: %w", NewTransientError(errors.New("slow down"), 429)), true},
		{"eris wrapped status 503", eris.Wrap(&StatusError{URL: "https://x", StatusCode: 503}, "enrich: wikipedia"), true},
		{"status 404", &StatusError{URL: "https://x", StatusCode: 404}, false},
		{"plain", errors.New("invalid input"), false},
		{"reset", fmt.Errorf("write tcp: %w", syscall.ECONNRESET), true},
		{"refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"dns timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"tls pattern", errors.New("net/http: TLS handshake timeout"), true},
		{"eof pattern", errors.New("read: unexpected EOF"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 501} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 404, StatusCode(eris.Wrap(&StatusError{URL: "u", StatusCode: 404}, "get")))
	assert.Equal(t, 429, StatusCode(NewTransientError(errors.New("x"), 429)))
	assert.Equal(t, 0, StatusCode(errors.New("x")))
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{URL: "https://example.com/a", StatusCode: 404}
	assert.Equal(t, "unexpected status 404 from https://example.com/a", err.Error())
}
