package promptbuilder

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential matches any *MissingCredentialError via errors.Is.
	ErrMissingCredential = errors.New("missing API credential")
	// ErrInvalidTemperature is returned when Temperature is outside [0, 1].
	ErrInvalidTemperature = errors.New("temperature must be between 0.0 and 1.0")
)

// MissingCredentialError reports that neither the explicit key nor the
// environment variable produced a credential.
type MissingCredentialError struct {
	EnvVar string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not found. Provide api_key input or set env var %s.", e.EnvVar, e.EnvVar)
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// RemoteCallError carries a failure raised by the chat client. Err is the
// client's error as returned, so errors.As can reach SDK error types.
type RemoteCallError struct {
	Provider string
	Model    string
	Err      error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s chat completion (model %s) failed: %v", e.Provider, e.Model, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }
