// Package gateway wires the request dispatch pipeline — route matching,
// authentication, authorization, forwarding, and metrics — and owns the
// proxy and metrics HTTP servers.
package gateway

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/owings1/auth-proxy/internal/authn"
	"github.com/owings1/auth-proxy/internal/config"
	gwerrors "github.com/owings1/auth-proxy/internal/errors"
	"github.com/owings1/auth-proxy/internal/logging"
	"github.com/owings1/auth-proxy/internal/metrics"
	"github.com/owings1/auth-proxy/internal/proxy"
	"github.com/owings1/auth-proxy/internal/router"
)

// proxiedCode is the fixed metrics label used for any request that was
// successfully handed off to the forwarder, regardless of the upstream's
// real status — the dispatcher does not observe that status itself.
const proxiedCode = "302"

// anonymousUser is the effective user attached to an anonymous route for
// logging purposes; it is never forwarded upstream.
const anonymousUser = "anonymous"

// statusRecorder wraps a ResponseWriter to remember whether headers have
// already been flushed, so an error path never tries to write a second
// status line once the forwarder has started streaming a response.
type statusRecorder struct {
	http.ResponseWriter
	wroteHeader bool
	status      int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.wroteHeader {
		return
	}
	sr.wroteHeader = true
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.WriteHeader(http.StatusOK)
	}
	return sr.ResponseWriter.Write(b)
}

// Dispatcher handles every proxied request: match, authenticate,
// authorize, forward, record.
type Dispatcher struct {
	reloader    *config.Reloader
	forwarder   *proxy.Forwarder
	sink        *metrics.Sink
	authHeaders []string
}

// NewDispatcher builds a Dispatcher over a running Reloader.
func NewDispatcher(reloader *config.Reloader, forwarder *proxy.Forwarder, sink *metrics.Sink, authHeaders []string) *Dispatcher {
	return &Dispatcher{
		reloader:    reloader,
		forwarder:   forwarder,
		sink:        sink,
		authHeaders: authHeaders,
	}
}

// ServeHTTP implements the full dispatch pipeline described in the
// request dispatcher's design: recover from panics, match a route, gate
// on authentication and authorization unless the route is anonymous,
// forward on success, and record a metric for every outcome.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	log := logging.WithRequestID(requestID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic in dispatcher", zap.Any("recover", rec))
			d.failErr(w, gwerrors.Internal(nil, "panic: %v", rec), "")
		}
	}()

	snap := d.reloader.Snapshot()
	if snap == nil {
		log.Error("no configuration snapshot available")
		d.failErr(w, gwerrors.Internal(nil, "no configuration snapshot available"), "")
		return
	}

	route, ok := router.Match(snap, r)
	if !ok {
		d.fail(w, http.StatusNotFound, "")
		return
	}

	user := anonymousUser
	if !route.Anonymous {
		var ok bool
		user, ok = authn.Authenticate(r, d.authHeaders, snap)
		if !ok {
			d.fail(w, http.StatusUnauthorized, route.Resource)
			return
		}
		if !snap.Allow(user, route.Resource, r.Method) {
			d.fail(w, http.StatusForbidden, route.Resource)
			return
		}
	}
	log = log.With(zap.String("user", user), zap.String("resource", route.Resource))
	r.Header.Set("X-Request-Id", requestID)

	rec := &statusRecorder{ResponseWriter: w}
	if err := d.forwarder.Forward(rec, r, route.Target); err != nil {
		log.Error("forward failed", zap.String("target", route.Target), zap.Error(err))
		if !rec.wroteHeader {
			d.failErr(w, err, route.Resource)
		}
		return
	}

	d.sink.RecordRequest(proxiedCode, route.Resource)
}

// fail writes a status-only response and records the matching metric.
// A 500 with a resource of "" records against internal_errors_total
// instead of proxy_requests_total, since a panic or missing-snapshot
// fault may occur before any route was matched. Every other outcome,
// including a 404 (whose resource is ""), records against
// proxy_requests_total.
func (d *Dispatcher) fail(w http.ResponseWriter, status int, resource string) {
	code := strconv.Itoa(status)
	w.WriteHeader(status)

	if resource == "" && status == http.StatusInternalServerError {
		d.sink.RecordInternalError(code)
		return
	}
	d.sink.RecordRequest(code, resource)
}

// failErr maps err's ProxyError.Kind to its status code — KindForwarder
// to 502, everything else (including the KindInternal error built for a
// recovered panic, or a non-ProxyError) to 500 — and writes it through
// fail.
func (d *Dispatcher) failErr(w http.ResponseWriter, err error, resource string) {
	status := http.StatusInternalServerError
	if gwerrors.As(err, gwerrors.KindForwarder) {
		status = gwerrors.KindForwarder.StatusCode()
	}
	d.fail(w, status, resource)
}
