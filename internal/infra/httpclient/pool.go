package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused across all pooled clients so the LLM and
// embedding APIs keep warm connections instead of paying a TLS handshake
// per call.
var sharedTransport = &http.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
	DisableKeepAlives:   false,
}

// NewPooledClient creates an http.Client that shares the common connection
// pool.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
