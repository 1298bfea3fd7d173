package discovery

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		et   ErrorType
		want string
	}{
		{ErrTypeUnknownOption, "Unknown Option"},
		{ErrTypeInvalidOption, "Invalid Option"},
		{ErrTypeBind, "Bind Error"},
		{ErrTypeSocket, "Socket Error"},
		{ErrTypeMalformedPayload, "Malformed Payload"},
		{ErrTypeAddress, "Address Error"},
		{ErrorType(99), "ErrorType(99)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.et.String())
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("permission denied")

	assert.Equal(t, `Unknown Option: unknown option "bogus"`, newUnknownOptionError("bogus").Error())
	assert.Equal(t, "Bind Error: cannot bind UDP port 1993: permission denied", newBindError(1993, cause).Error())
	assert.Equal(t, "Socket Error: send failed (10.0.0.255:1993): permission denied",
		newSocketError("send", "10.0.0.255:1993", cause).Error())
}

func TestErrorPredicates(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err   error
		check func(error) bool
	}{
		{newUnknownOptionError("x"), IsUnknownOptionError},
		{newInvalidOptionError("port", "bad"), IsInvalidOptionError},
		{newBindError(1, cause), IsBindError},
		{newSocketError("send", "", cause), IsSocketError},
		{newMalformedPayloadError("10.0.0.1:1993", cause), IsMalformedPayloadError},
		{newAddressError("eth0", cause), IsAddressError},
	}

	for _, tt := range tests {
		assert.True(t, tt.check(tt.err), "%v", tt.err)
		assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)), "wrapped %v", tt.err)
	}

	assert.False(t, IsBindError(cause))
	assert.False(t, IsSocketError(newBindError(1, cause)))
	assert.ErrorIs(t, newBindError(1, cause), cause)
}
