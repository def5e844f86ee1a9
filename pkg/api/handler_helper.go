package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-synonyms/pkg/api/middleware"
	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	"github.com/dd0wney/cluso-synonyms/pkg/validation"
)

const msgNotReady = "Cluster is not defined"

// requestDecoder decodes and validates request bodies.
// It provides a fluent interface for common request handling patterns.
type requestDecoder struct {
	r          *http.Request
	w          http.ResponseWriter
	server     *Server
	err        error
	statusCode int
}

func (s *Server) newRequestDecoder(w http.ResponseWriter, r *http.Request) *requestDecoder {
	return &requestDecoder{r: r, w: w, server: s}
}

// DecodeJSON decodes the request body into v. An empty body leaves v
// untouched so that validation reports the missing content. Bodies sent
// with Content-Encoding: snappy are decompressed first.
func (rd *requestDecoder) DecodeJSON(v any) *requestDecoder {
	if rd.err != nil {
		return rd
	}

	var body io.Reader = rd.r.Body
	if strings.EqualFold(rd.r.Header.Get("Content-Encoding"), "snappy") {
		data, err := rd.server.readSnappy(rd.r.Body)
		if err != nil {
			return rd.fail(http.StatusBadRequest, err)
		}
		body = bytes.NewReader(data)
	}

	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return rd.fail(http.StatusRequestEntityTooLarge, errors.New("Request body too large"))
		}
		return rd.fail(http.StatusBadRequest, fmt.Errorf("Invalid request body: %w", err))
	}
	return rd
}

// Validate runs the request checks of the validation package.
func (rd *requestDecoder) Validate(req any) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	if err := validation.Struct(req); err != nil {
		return rd.fail(http.StatusBadRequest, err)
	}
	return rd
}

// Then records err, if any, as a client error.
func (rd *requestDecoder) Then(err error) *requestDecoder {
	if rd.err != nil || err == nil {
		return rd
	}
	return rd.fail(http.StatusBadRequest, err)
}

func (rd *requestDecoder) fail(status int, err error) *requestDecoder {
	rd.err = err
	rd.statusCode = status
	return rd
}

// RespondError sends the error response and returns true if there was an error.
func (rd *requestDecoder) RespondError() bool {
	if rd.err == nil {
		return false
	}
	rd.server.respondError(rd.w, rd.statusCode, rd.err.Error())
	return true
}

func (s *Server) readSnappy(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("Invalid request body: %w", err)
	}
	n, err := snappy.DecodedLen(raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid snappy body: %w", err)
	}
	if int64(n) > s.maxBodyBytes*maxDecodedFactor {
		return nil, errors.New("Request body too large")
	}
	data, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid snappy body: %w", err)
	}
	return data, nil
}

// parseLimit reads the limit query parameter. A missing value is 0, which
// validation then rejects with the usual message.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &validation.RequestError{
			Field:   "limit",
			Message: fmt.Sprintf("The 'limit' must be an integer but was '%s'", raw),
		}
	}
	return n, nil
}

// parseDistribute reads the distribute flag, which defaults to true.
func parseDistribute(raw string) (bool, error) {
	switch {
	case raw == "", strings.EqualFold(raw, "true"):
		return true, nil
	case strings.EqualFold(raw, "false"):
		return false, nil
	}
	return false, &validation.RequestError{
		Field:   "distribute",
		Message: fmt.Sprintf("The 'distribute' flag must be true or false but was '%s'", raw),
	}
}

// requireReady answers 503 and returns false until the cluster is defined.
func (s *Server) requireReady(w http.ResponseWriter) bool {
	if s.registry.IsReady() {
		return true
	}
	s.respondError(w, http.StatusServiceUnavailable, msgNotReady)
	return false
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("error encoding JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	s.respondJSON(w, status, response)
}

// internalError logs the request line and the cause, and answers a generic 500.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		logging.String("method", r.Method),
		logging.Path(r.URL.Path),
		logging.String("query", r.URL.RawQuery),
		logging.RequestID(middleware.GetRequestID(r)),
		logging.Error(err))
	s.respondError(w, http.StatusInternalServerError, "Internal server error")
}
