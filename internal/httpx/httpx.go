// Package httpx builds http.Clients with sane transport defaults for
// talking to public JSON APIs.
package httpx

import (
	"net"
	"net/http"
	"time"
)

// New returns an *http.Client with a tuned transport, an absolute
// request timeout, and userAgent applied to every request that does not
// set its own.
func New(timeout time.Duration, userAgent string) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{base: transport, userAgent: userAgent},
	}
}

// headerTransport injects a default User-Agent without mutating the
// caller's request.
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
