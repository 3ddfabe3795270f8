package server

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/brettbedarf/jsontree"
	"github.com/ohler55/ojg/jp"
	"github.com/zeebo/blake3"
)

const (
	userHeader  = "X-User"
	queryParam  = "query"
	allowHeader = "GET, PUT"
)

// ServeHTTP routes GET to a tree read and PUT to a tree write of the value at
// the request path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPut:
		s.handlePut(w, r)
	default:
		w.Header().Set("Allow", allowHeader)
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// requestPath splits the URL path into tree segments, dropping empty ones.
func requestPath(r *http.Request) (jsontree.Path, error) {
	path := jsontree.ParsePath(r.URL.Path)
	if err := path.Validate(); err != nil {
		return nil, fmt.Errorf("request path %q: %w", r.URL.Path, err)
	}
	return path, nil
}

func (s *Server) user(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(userHeader)); u != "" {
		return u
	}
	return s.cfg.DefaultUser
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	path, err := requestPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.tree.Get(path, s.user(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if q := r.URL.Query().Get(queryParam); q != "" {
		x, err := jp.ParseString(q)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w %q: %v", errBadQuery, q, err))
			return
		}
		matches := x.Get(v)
		if matches == nil {
			matches = []any{}
		}
		v = matches
	}

	body, contentType, err := encodeValue(v, r.Header.Get("Accept"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sum := blake3.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Vary", "Accept")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to write response")
	}
}

// etagMatches implements the weak comparison If-None-Match asks for. The
// tag of the gzip representation matches too.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.Replace(strings.TrimPrefix(candidate, "W/"), gzipETagSuffix, "", 1)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	path, err := requestPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)
	v, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tree.Put(path, v, s.user(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
