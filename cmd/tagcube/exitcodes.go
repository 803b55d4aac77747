package main

import (
	"errors"

	"github.com/hakim/tagcube/internal/batch"
	"github.com/hakim/tagcube/internal/client"
	"github.com/hakim/tagcube/internal/config"
	"github.com/hakim/tagcube/internal/scope"
)

// Process exit codes. These are stable and safe to script against.
const (
	exitOK             = 0
	exitUsage          = 1
	exitCredentials    = 2
	exitTransport      = 3
	exitAPI            = 4
	exitAmbiguous      = 5
	exitCreation       = 6
	exitUnknownProfile = 7
	exitNotPermitted   = 8
	exitMalformedBatch = 9
	exitOutOfScope     = 10
)

// usageError marks bad flags, arguments or configuration.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitCode maps err to a process exit code. Errors joined by a batch run are
// classified by the first recognised member.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var (
		usageErr     *usageError
		transportErr *client.TransportError
		apiErr       *client.APIError
		ambiguousErr *client.AmbiguousResultError
		creationErr  *client.ResourceCreationError
		profileErr   *client.UnknownProfileError
		permitErr    *client.ScanNotPermittedError
	)

	switch {
	case errors.As(err, &usageErr):
		return exitUsage
	case errors.Is(err, client.ErrInvalidCredentials), errors.Is(err, config.ErrNoCredentials):
		return exitCredentials
	case errors.Is(err, scope.ErrOutOfScope):
		return exitOutOfScope
	case errors.Is(err, batch.ErrNoScans):
		return exitMalformedBatch
	case errors.As(err, &profileErr):
		return exitUnknownProfile
	case errors.As(err, &permitErr):
		return exitNotPermitted
	case errors.As(err, &creationErr):
		return exitCreation
	case errors.As(err, &ambiguousErr):
		return exitAmbiguous
	case errors.As(err, &apiErr):
		return exitAPI
	case errors.As(err, &transportErr):
		return exitTransport
	default:
		return exitUsage
	}
}
