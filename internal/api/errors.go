package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

// Error categories. Callers match them with errors.Is; the wrapped message
// carries the detail.
var (
	// ErrConfiguration means the identity-provider settings are missing or
	// still placeholders. Login cannot proceed.
	ErrConfiguration = errors.New("sign-in is not configured")
	// ErrAuthentication means the provider rejected the sign-in.
	ErrAuthentication = errors.New("authentication failed")
	// ErrSessionExpired means there is no usable session; the stored one has
	// been cleared and the user must sign in again.
	ErrSessionExpired = errors.New("session expired")
	// ErrNetwork means the request never got a response.
	ErrNetwork = errors.New("network error")
	// ErrTimeout means a call with an explicit deadline ran out of time.
	ErrTimeout = errors.New("timed out")
	// ErrDataShape means the server answered but the content is unusable.
	ErrDataShape = errors.New("unexpected response format")
	// ErrRateLimited means the client-side request budget was exhausted.
	ErrRateLimited = errors.New("too many requests")
)

// APIError is a non-2xx answer from the timesheet API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// ServerSide reports whether the failure is the server's (5xx).
func (e *APIError) ServerSide() bool {
	return e.Status >= 500
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// newAPIError extracts {message} or {error} from body, falling back to the
// status text.
func newAPIError(status int, body []byte) *APIError {
	var eb errorBody
	if err := sonic.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return &APIError{Status: status, Message: eb.Message}
		}
		if eb.Error != "" {
			return &APIError{Status: status, Message: eb.Error}
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" || len(msg) > 200 {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}
