package cmd

import (
	"errors"
	"fmt"

	"github.com/Tiliavir/punch/internal/api"
)

// Exit codes.
const (
	exitUser    = 1
	exitSystem  = 2
	exitSession = 3
)

// errStorage marks failures reading or writing local files.
var errStorage = errors.New("local storage error")

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", errStorage, err)
}

// exitCode maps an error to the process exit status: 3 when the user must
// sign in again, 2 for transport and storage failures, 1 for everything the
// user can fix by changing the command.
func exitCode(err error) int {
	var apiErr *api.APIError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, api.ErrSessionExpired):
		return exitSession
	case errors.Is(err, api.ErrNetwork),
		errors.Is(err, api.ErrTimeout),
		errors.Is(err, api.ErrDataShape),
		errors.Is(err, api.ErrRateLimited),
		errors.Is(err, errStorage):
		return exitSystem
	case errors.As(err, &apiErr) && apiErr.ServerSide():
		return exitSystem
	}
	return exitUser
}

// describe adds what the user can do next to an error message.
func describe(err error) string {
	msg := "Error: " + err.Error()
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return msg + "\nRun `punch login` to sign in."
	case errors.Is(err, api.ErrNetwork), errors.Is(err, api.ErrTimeout):
		return msg + "\nCheck your connection and try again."
	case errors.Is(err, api.ErrDataShape):
		return msg + "\nThe server responded, but its answer could not be used."
	case errors.Is(err, api.ErrConfiguration):
		return msg + "\nSign-in is not set up on the server; contact your administrator."
	}
	return msg
}
