// Package router matches an incoming request against the ordered route
// table in a configuration snapshot.
package router

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/owings1/auth-proxy/internal/config"
)

// Match scans the snapshot's routes in declared order and returns the
// first one whose method, host, and path all match. The path match is
// against the request's full URL (path plus any query string), and the
// host match falls back to the empty string when the request carries no
// Host header. First match wins; there is no specificity ranking.
func Match(snap *config.Snapshot, r *http.Request) (*config.CompiledRoute, bool) {
	method := strings.ToUpper(r.Method)
	host := r.Host
	url := r.URL.RequestURI()

	for i := range snap.Routes() {
		route := &snap.Routes()[i]

		if route.Methods != nil && !route.Methods[method] {
			continue
		}
		if len(route.HostRes) > 0 && !anyHostMatches(route.HostRes, host) {
			continue
		}
		if !route.PathRe.MatchString(url) {
			continue
		}
		return route, true
	}
	return nil, false
}

func anyHostMatches(hostRes []*regexp.Regexp, host string) bool {
	for _, re := range hostRes {
		if re.MatchString(host) {
			return true
		}
	}
	return false
}
