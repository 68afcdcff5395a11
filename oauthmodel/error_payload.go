package oauthmodel

// ErrorPayload is the error body shape returned by the ERP backend. Every
// field is optional.
type ErrorPayload struct {
	// Message is a human readable description, e.g. "Token expired, please login again".
	Message string `json:"message,omitempty"`

	// Code is a machine readable code, e.g. "TOKEN_EXPIRED" or "TOKEN_INVALID".
	Code string `json:"code,omitempty"`

	// Error is a short machine readable error, e.g. "TOKEN_MISSING".
	Error string `json:"error,omitempty"`

	// ErrorDescription is the OAuth2 style description some endpoints use.
	ErrorDescription string `json:"error_description,omitempty"`
}
