package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := Validation("booking.submit", "name is required")
	wrapped := fmt.Errorf("submit: %w", base)

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindValidation))
	assert.False(t, Is(wrapped, KindTransport))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindUnknown))
}

func TestMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "service unreachable", Message(Transport("doctors.list", "service unreachable", cause)))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "doctors.list: service unreachable: dial tcp: connection refused",
		Transport("doctors.list", "service unreachable", cause).Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("missing credential")
	err := AuthPrecondition("booking.open", "log in first", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "auth_precondition", err.Kind.String())
}
