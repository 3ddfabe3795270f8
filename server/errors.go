package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/brettbedarf/jsontree"
)

var errBadQuery = errors.New("invalid query")

// errorBody is the JSON document sent with every error status.
type errorBody struct {
	Error    string   `json:"error"`
	Failures []string `json:"failures,omitempty"`
}

// statusFor maps a request failure onto an HTTP status.
func statusFor(err error) int {
	var (
		de       *jsontree.DeserializeError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, jsontree.ErrEmptyRequest),
		errors.As(err, &de),
		errors.Is(err, errBadQuery):
		return http.StatusBadRequest
	}

	agg, isAgg := err.(*jsontree.AggregateError)
	if !isAgg {
		if isClientError(err) {
			return http.StatusBadRequest
		}
		// only a missing top-level path is a 404; a member missing mid-read is not
		if errors.Is(err, fs.ErrNotExist) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
	for _, leaf := range agg.Leaves() {
		if !isClientError(leaf) {
			return http.StatusInternalServerError
		}
	}
	return http.StatusBadRequest
}

// isClientError reports failures caused by the submitted document itself.
func isClientError(err error) bool {
	var unsupported *jsontree.UnsupportedValueError
	return errors.Is(err, jsontree.ErrInvalidPath) || errors.As(err, &unsupported)
}

func newErrorBody(err error) errorBody {
	body := errorBody{Error: err.Error()}
	if agg, ok := err.(*jsontree.AggregateError); ok {
		leaves := agg.Leaves()
		body.Failures = make([]string, len(leaves))
		for i, leaf := range leaves {
			body.Failures[i] = leaf.Error()
		}
	}
	return body
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := s.logger.With().Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Logger()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Msg("Request rejected")
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(newErrorBody(err)); err != nil {
		logger.Debug().Err(err).Msg("Failed to write error body")
	}
}
