package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-erp-client/auth"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/oauthmodel"
)

// APIError is a non-2xx response. The caller always receives it, including
// after the response invalidated the session.
type APIError struct {
	StatusCode         int
	Message            string
	Code               string
	Body               []byte
	SessionInvalidated bool
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

// Unwrap lets callers match a session-invalidating response with
// errors.Is(err, ErrSessionInvalidated).
func (e *APIError) Unwrap() error {
	if e.SessionInvalidated {
		return errors.ErrSessionInvalidated
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload oauthmodel.ErrorPayload
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.ErrorDescription
	}
	code := payload.Code
	if code == "" {
		code = payload.Error
	}
	return &APIError{
		StatusCode:         status,
		Message:            msg,
		Code:               code,
		Body:               body,
		SessionInvalidated: auth.IsSessionInvalidating(&auth.Response{Status: status, Payload: payload}),
	}
}
