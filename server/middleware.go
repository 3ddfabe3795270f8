package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
)

const requestIDHeader = "X-Request-ID"

// gzipETagSuffix marks the ETag of a compressed representation so it never
// equals the identity one.
const gzipETagSuffix = "-gzip"

var gzipWrapper func(http.Handler) http.HandlerFunc

func init() {
	var err error
	gzipWrapper, err = gzhttp.NewWrapper(gzhttp.SuffixETag(gzipETagSuffix))
	if err != nil {
		panic("server: gzip wrapper initialization failed: " + err.Error())
	}
}

// responseRecorder captures the status and size of a response for the access log.
type responseRecorder struct {
	w      http.ResponseWriter
	status int
	bytes  int64
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{w: w, status: http.StatusOK}
}

func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.w
}

func (w *responseRecorder) Header() http.Header {
	return w.w.Header()
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	n, err := w.w.Write(b)
	w.bytes += int64(n)
	return n, err
}

func (w *responseRecorder) WriteHeader(code int) {
	w.w.WriteHeader(code)
	if code >= http.StatusContinue && code < http.StatusOK {
		return
	}
	w.status = code
}

// withRequestID keeps a client supplied request ID or assigns a new one, and
// echoes it on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Str("request_id", r.Header.Get(requestIDHeader)).
			Str("user", s.user(r)).
			Msg("Request")
	})
}

// Handler returns the request handler wrapped in the configured middleware.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s
	h = s.withAccessLog(h)
	if s.cfg.Compress {
		h = gzipWrapper(h)
	}
	return withRequestID(h)
}
