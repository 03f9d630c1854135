package servicenow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when a table call is attempted without a
	// live access token.
	ErrNotConnected = errors.New("not connected to servicenow")

	// ErrStateMismatch is returned when the state returned on the OAuth
	// callback does not match the pending nonce, or no nonce is pending.
	ErrStateMismatch = errors.New("oauth state mismatch, possible csrf")
)

// TokenExchangeError is a non-2xx response from the token exchange relay.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed (%d): %s", e.Status, e.Body)
}

// NoAccessTokenError means the relay answered 2xx but the response carried
// no access_token field.
type NoAccessTokenError struct {
	Code        string
	Description string
}

func (e *NoAccessTokenError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Code != "" {
		return e.Code
	}
	return "no access_token returned"
}

// APIError is a non-2xx response from an authenticated table call.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("servicenow api error (%d): %s", e.Status, e.Body)
}
