package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

// DecodeJSON decodes a single JSON value. Unknown fields are allowed since
// feed orders carry far more than the connector reads.
func DecodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	return dec.Decode(v)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func HttpError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// StatusFor maps connector errors to the HTTP status the admin api answers
// with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformedOrder), errors.Is(err, domain.ErrUnsupportedValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRunLocked):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCancelNotConfirmed):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrFulfillmentUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrFulfillmentAuth),
		errors.Is(err, domain.ErrFulfillmentRequest),
		errors.Is(err, domain.ErrFeedUnavailable),
		errors.Is(err, domain.ErrFeedFormat):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
