package app

import (
	"errors"
	"fmt"
)

// ErrSyntax is returned where there was a syntax error
var ErrSyntax = errors.New("syntax error")

// ErrWrongNumArgs is returned when the arg count is wrong
var ErrWrongNumArgs = errors.New("wrong number of arguments")

// ErrUnauthorized is returned when a client connection has not been authorized
var ErrUnauthorized = errors.New("unauthorized")

// ErrUnknownCommand is returned when a command is not known
var ErrUnknownCommand = errors.New("unknown command")

// ErrInvalid is returned when an operation has invalid arguments or options
var ErrInvalid = errors.New("invalid")

// ErrCorrupt is returned when a data is invalid or corrupt
var ErrCorrupt = errors.New("corrupt")

// ErrPersistenceDisabled is returned by SAVE when the server runs with
// --nosync.
var ErrPersistenceDisabled = errors.New("persistence disabled")

var errZeroBound = fmt.Errorf("%w bound, must be greater than zero", ErrInvalid)

func errInvalidArg(name, value string) error {
	return fmt.Errorf("%w %s '%s'", ErrInvalid, name, value)
}

func errOutOfRange(name string, max int) error {
	return fmt.Errorf("%w %s, must be between 1 and %d", ErrInvalid, name, max)
}
