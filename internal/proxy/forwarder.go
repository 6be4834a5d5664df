// Package proxy adapts the dispatcher's forwarding need onto the
// standard library's reverse-proxy transport. It is a thin contract:
// one operation, forward this request to this target, returning an
// error instead of ever writing an error status itself.
package proxy

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"

	gwerrors "github.com/owings1/auth-proxy/internal/errors"
)

// Forwarder streams a request to an upstream target and copies the
// response back to the client, reusing one transport across requests.
type Forwarder struct {
	transport *http.Transport

	mu      sync.Mutex
	proxies map[string]*httputil.ReverseProxy
}

// New builds a Forwarder with a shared, connection-pooling transport.
func New() *Forwarder {
	return &Forwarder{
		transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
		},
		proxies: make(map[string]*httputil.ReverseProxy),
	}
}

// Forward streams r to target and writes the upstream response to w. An
// error is returned, never written to w, on any upstream failure —
// the caller decides how to translate that into a client-facing status.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, target string) error {
	rp, err := f.proxyFor(target)
	if err != nil {
		return err
	}

	// The cached proxy is shared by concurrent requests, so the per-request
	// ErrorHandler goes on a shallow copy rather than on the cached value.
	reqProxy := *rp
	var forwardErr error
	reqProxy.ErrorHandler = func(_ http.ResponseWriter, _ *http.Request, err error) {
		forwardErr = gwerrors.Forwarder(err, "forwarding to %s", target)
	}

	reqProxy.ServeHTTP(w, r)
	return forwardErr
}

func (f *Forwarder) proxyFor(target string) (*httputil.ReverseProxy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rp, ok := f.proxies[target]; ok {
		return rp, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, gwerrors.Forwarder(err, "invalid proxy target %q", target)
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	rp.Transport = f.transport

	baseDirector := rp.Director
	rp.Director = func(req *http.Request) {
		baseDirector(req)
		addForwardedHeaders(req)
	}

	f.proxies[target] = rp
	return rp, nil
}

// addForwardedHeaders annotates the outbound request with the client's
// original address, host, and scheme before it reaches the upstream.
func addForwardedHeaders(req *http.Request) {
	if ip, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		req.Header.Set("X-Forwarded-For", ip)
	}
	if host := req.Header.Get("X-Forwarded-Host"); host == "" {
		req.Header.Set("X-Forwarded-Host", req.Host)
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto == "" {
		if req.TLS != nil {
			req.Header.Set("X-Forwarded-Proto", "https")
		} else {
			req.Header.Set("X-Forwarded-Proto", "http")
		}
	}
}
