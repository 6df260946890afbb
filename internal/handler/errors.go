package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkordes/fleet-scheduler/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error":{...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// statusOf maps an error kind to its HTTP status and wire code.
func statusOf(err error) (int, string) {
	switch domain.KindOf(err) {
	case domain.ErrUnauthenticated:
		return http.StatusUnauthorized, "unauthenticated"
	case domain.ErrInvalidArgument:
		return http.StatusBadRequest, "invalid-argument"
	case domain.ErrPermissionDenied:
		return http.StatusForbidden, "permission-denied"
	case domain.ErrNotFound:
		return http.StatusNotFound, "not-found"
	case domain.ErrFailedPrecondition:
		return http.StatusConflict, "failed-precondition"
	default:
		return http.StatusInternalServerError, "unknown"
	}
}

// writeError renders err as an ErrorResponse. Unknown errors are logged with
// the full chain; the caller sees only the root cause text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorBody(code, domain.MessageOf(err)))
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into dst, rejecting unknown fields,
// trailing data and values of the wrong JSON type. Every failure is an
// InvalidArgument error naming the offending field where possible.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return domain.Errorf(domain.ErrInvalidArgument, "request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var (
			syntaxErr *json.SyntaxError
			typeErr   *json.UnmarshalTypeError
			tooLarge  *http.MaxBytesError
		)
		switch {
		case errors.Is(err, io.EOF):
			return domain.Errorf(domain.ErrInvalidArgument, "request body is required")
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: %w", domain.Errorf(domain.ErrInvalidArgument, "request body too large"), err)
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return domain.Errorf(domain.ErrInvalidArgument, "malformed JSON body")
		case errors.As(err, &typeErr):
			return domain.Errorf(domain.ErrInvalidArgument, "field %s must be a %s", typeErr.Field, typeErr.Type)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return domain.Errorf(domain.ErrInvalidArgument, "unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return domain.Errorf(domain.ErrInvalidArgument, "invalid request body: %s", err.Error())
		}
	}
	if dec.More() {
		return domain.Errorf(domain.ErrInvalidArgument, "request body must contain a single JSON object")
	}
	return nil
}
