// Package authn resolves a request's bearer token to a user name using
// an ordered list of candidate headers.
package authn

import (
	"net/http"

	"github.com/owings1/auth-proxy/internal/config"
)

// Authenticate walks headers in order looking for the first one present
// on the request. A present-but-empty header short-circuits the search
// as a failed authentication — it does not fall through to the next
// header in the list. The first present header's value is looked up as
// an opaque bearer token against the snapshot's token index.
func Authenticate(r *http.Request, headers []string, snap *config.Snapshot) (string, bool) {
	for _, h := range headers {
		values, present := r.Header[http.CanonicalHeaderKey(h)]
		if !present {
			continue
		}
		if len(values) == 0 || values[0] == "" {
			return "", false
		}
		return snap.UserByToken(values[0])
	}
	return "", false
}
