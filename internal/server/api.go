package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
	"github.com/rusenback/webtopd/internal/fault"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// httpError pins a response status on an error
type httpError struct {
	code int
	err  error
}

func (e *httpError) Error() string { return e.err.Error() }

func (e *httpError) Cause() error { return e.err }

func (e *httpError) Unwrap() error { return e.err }

func withStatus(code int, err error) error {
	return &httpError{code: code, err: err}
}

// badRequest reports malformed input as 422
func badRequest(format string, args ...interface{}) error {
	return withStatus(http.StatusUnprocessableEntity, fault.Errorf(fault.KindRequest, format, args...))
}

func (s *Server) api(at string, fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.At(at)

		defer func() {
			if p := recover(); p != nil {
				log.Logf("state=panic error=%q", fmt.Sprint(p))
				log.Logf("stack=%q", string(debug.Stack()))
				renderError(w, http.StatusInternalServerError, errors.New("internal error"))
			}
		}()

		if !s.authorized(r) {
			log.Logf("state=denied")
			unauthorized(w)
			return
		}

		err := fn(w, r)
		if err == nil {
			return
		}

		code := http.StatusInternalServerError
		if he, ok := err.(*httpError); ok {
			code = he.code
		}

		if code >= 500 {
			log.Error(err)
		} else {
			log.Logf("state=error type=user message=%q", err.Error())
		}

		renderError(w, code, err)
	}
}

func renderJSON(w http.ResponseWriter, code int, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_, err = w.Write(append(data, '\n'))
	return err
}

// errorBody is the JSON shape of a failure. error_kind is left out for
// untagged errors.
func errorBody(err error) map[string]interface{} {
	body := map[string]interface{}{"error": err.Error()}
	if kind := fault.KindOf(err); kind != fault.KindNone {
		body["error_kind"] = kind
	}
	return body
}

func renderError(w http.ResponseWriter, code int, err error) {
	renderJSON(w, code, errorBody(err))
}

// statusWriter records the response status for the request log. It stays
// hijackable so /ws can upgrade through it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not support hijacking")
	}
	if w.status == 0 {
		w.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		next.ServeHTTP(sw, r)

		s.log.Logf("method=%s path=%q status=%d elapsed=%0.3fms", r.Method, r.URL.Path, sw.status, float64(time.Since(start).Nanoseconds())/1000000)
	})
}
