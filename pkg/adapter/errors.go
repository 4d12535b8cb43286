package adapter

import (
	"errors"
	"fmt"
)

// Configuration errors. Every *ConfigError wraps one of these.
var (
	ErrMissingIdentity     = errors.New("connection is missing an identity")
	ErrDuplicateConnection = errors.New("connection is already registered")
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrUnknownCollection   = errors.New("unknown collection")
	ErrUnknownAction       = errors.New("unknown action")
	ErrInvalidOperation    = errors.New("invalid SOAP operation")
)

// ConfigError reports a registry lookup or registration failure. The
// transport is never invoked when one is returned.
type ConfigError struct {
	Err     error
	Message string
}

func (e *ConfigError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(sentinel error, format string, args ...any) *ConfigError {
	return &ConfigError{Err: sentinel, Message: fmt.Sprintf("%s: %s", sentinel, fmt.Sprintf(format, args...))}
}

// invalidOperation reports an action whose operation the service does not
// offer. Callers match the message verbatim.
func invalidOperation(name string) *ConfigError {
	return &ConfigError{
		Err:     ErrInvalidOperation,
		Message: fmt.Sprintf("The requested SOAP operation '%s' is not valid", name),
	}
}
