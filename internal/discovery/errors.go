package discovery

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeUnknownOption indicates a configuration key the engine does not recognize
	ErrTypeUnknownOption ErrorType = iota
	// ErrTypeInvalidOption indicates a recognized key with an unusable value
	ErrTypeInvalidOption
	// ErrTypeBind indicates the UDP socket could not be bound
	ErrTypeBind
	// ErrTypeSocket indicates a send or receive fault on the open socket
	ErrTypeSocket
	// ErrTypeMalformedPayload indicates an inbound datagram that is not a valid announcement
	ErrTypeMalformedPayload
	// ErrTypeAddress indicates an interface address the subnet calculator rejected
	ErrTypeAddress
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeUnknownOption:
		return "Unknown Option"
	case ErrTypeInvalidOption:
		return "Invalid Option"
	case ErrTypeBind:
		return "Bind Error"
	case ErrTypeSocket:
		return "Socket Error"
	case ErrTypeMalformedPayload:
		return "Malformed Payload"
	case ErrTypeAddress:
		return "Address Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is the error type reported by the engine, either returned from
// Start or delivered to Config.OnError.
type Error struct {
	Type    ErrorType // Category of error
	Op      string    // Operation or option key involved
	Message string    // Human-readable error message
	Remote  string    // Peer or destination address, if any
	Err     error     // Underlying error, if any
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Remote != "" {
		msg += fmt.Sprintf(" (%s)", e.Remote)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func newUnknownOptionError(key string) *Error {
	return &Error{
		Type:    ErrTypeUnknownOption,
		Op:      key,
		Message: fmt.Sprintf("unknown option %q", key),
	}
}

func newInvalidOptionError(key string, message string) *Error {
	return &Error{
		Type:    ErrTypeInvalidOption,
		Op:      key,
		Message: fmt.Sprintf("option %q: %s", key, message),
	}
}

func newBindError(port int, err error) *Error {
	return &Error{
		Type:    ErrTypeBind,
		Op:      "bind",
		Message: fmt.Sprintf("cannot bind UDP port %d", port),
		Err:     err,
	}
}

func newSocketError(op string, remote string, err error) *Error {
	return &Error{
		Type:    ErrTypeSocket,
		Op:      op,
		Message: op + " failed",
		Remote:  remote,
		Err:     err,
	}
}

func newMalformedPayloadError(remote string, err error) *Error {
	return &Error{
		Type:    ErrTypeMalformedPayload,
		Op:      "receive",
		Message: "dropped datagram",
		Remote:  remote,
		Err:     err,
	}
}

func newAddressError(iface string, err error) *Error {
	return &Error{
		Type:    ErrTypeAddress,
		Op:      "advertise",
		Message: fmt.Sprintf("skipped interface %s", iface),
		Err:     err,
	}
}

func isType(err error, et ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == et
}

// IsUnknownOptionError checks if an error is an unknown option error
func IsUnknownOptionError(err error) bool {
	return isType(err, ErrTypeUnknownOption)
}

// IsInvalidOptionError checks if an error is an invalid option error
func IsInvalidOptionError(err error) bool {
	return isType(err, ErrTypeInvalidOption)
}

// IsBindError checks if an error is a bind error
func IsBindError(err error) bool {
	return isType(err, ErrTypeBind)
}

// IsSocketError checks if an error is a runtime socket error
func IsSocketError(err error) bool {
	return isType(err, ErrTypeSocket)
}

// IsMalformedPayloadError checks if an error is a malformed payload error
func IsMalformedPayloadError(err error) bool {
	return isType(err, ErrTypeMalformedPayload)
}

// IsAddressError checks if an error is an interface address error
func IsAddressError(err error) bool {
	return isType(err, ErrTypeAddress)
}
