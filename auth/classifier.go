package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-erp-client/oauthmodel"
)

// invalidatingMessages are matched case-insensitively as substrings of the
// error payload message.
var invalidatingMessages = []string{
	"invalid or expired token",
	"authentication failed",
	"unauthorized",
	"token may be expired",
	"token expired",
	"expired token",
	"invalid token",
	"please log in again",
	"please login again",
}

const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenMissing = "TOKEN_MISSING"
)

// Response is the part of a failed response the classifier looks at.
type Response struct {
	Status  int
	Payload oauthmodel.ErrorPayload
}

// NewResponse builds a Response from a status code and a raw body. Bodies
// that are not a JSON error payload leave Payload empty.
func NewResponse(status int, body []byte) *Response {
	r := &Response{Status: status}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &r.Payload)
	}
	return r
}

// IsSessionInvalidating reports whether the response proves the credential
// pair is no longer usable. A nil response (no response received) is a
// transient failure and never invalidates the session.
func IsSessionInvalidating(resp *Response) bool {
	if resp == nil {
		return false
	}
	if resp.Status == http.StatusUnauthorized {
		return true
	}

	if msg := strings.ToLower(resp.Payload.Message); msg != "" {
		for _, m := range invalidatingMessages {
			if strings.Contains(msg, m) {
				return true
			}
		}
	}

	switch resp.Payload.Code {
	case CodeTokenExpired, CodeTokenInvalid:
		return true
	}
	return resp.Payload.Error == CodeTokenMissing
}
