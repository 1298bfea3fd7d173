package addrinfo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when the address part cannot be parsed as
	// a 32-bit value.
	ErrInvalidAddress = errors.New("invalid IPv4 address")

	// ErrInvalidNetmask is returned when the mask part is neither a prefix
	// length in 0..32 nor a contiguous dotted netmask.
	ErrInvalidNetmask = errors.New("invalid IPv4 netmask")
)

// Error describes which part of an input failed to parse.
type Error struct {
	Kind  error  // ErrInvalidAddress or ErrInvalidNetmask
	Input string // the offending component
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Input)
}

// Unwrap lets errors.Is match the sentinel kind
func (e *Error) Unwrap() error {
	return e.Kind
}

func invalidAddress(input string) error {
	return &Error{Kind: ErrInvalidAddress, Input: input}
}

func invalidNetmask(input string) error {
	return &Error{Kind: ErrInvalidNetmask, Input: input}
}
