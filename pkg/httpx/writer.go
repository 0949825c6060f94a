package httpx

import "net/http"

// ResponseWriter wraps http.ResponseWriter and records whether the header
// has been written, so late cookie writes can be skipped instead of
// triggering superfluous-WriteHeader warnings.
type ResponseWriter struct {
	http.ResponseWriter

	status  int
	written bool
}

// Wrap returns w as a *ResponseWriter, reusing it if already wrapped.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	if ww, ok := w.(*ResponseWriter); ok {
		return ww
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *ResponseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Status returns the written status code, or 200 if nothing was written.
func (w *ResponseWriter) Status() int { return w.status }

// Written reports whether the response header has gone out.
func (w *ResponseWriter) Written() bool { return w.written }

// WrapMiddleware ensures downstream handlers see a *ResponseWriter.
func WrapMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(Wrap(w), r)
		})
	}
}
