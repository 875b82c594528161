package server

import (
	"crypto/subtle"
	"net/http"
)

// authorized compares both credentials in constant time; both comparisons
// always run.
func (s *Server) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}

	u := subtle.ConstantTimeCompare([]byte(user), []byte(s.opts.User))
	p := subtle.ConstantTimeCompare([]byte(pass), []byte(s.opts.Pass))

	return u&p == 1
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Basic")
	renderJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
}
