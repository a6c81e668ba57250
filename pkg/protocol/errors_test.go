package protocol_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calderaid/caldera-go/pkg/protocol"
)

func TestErrorFormatting(t *testing.T) {
	err := protocol.NewError(protocol.ErrCodeNotAuthorized, "Not authorized")
	assert.Equal(t, "NOT_AUTHORIZED: Not authorized", err.Error())

	err = protocol.NewErrorWithDetails(protocol.ErrCodeInvalidEncoding, "Malformed protocol value", "hex: odd length")
	assert.Equal(t, "INVALID_ENCODING: Malformed protocol value (hex: odd length)", err.Error())
}

func TestCodeOfUnwraps(t *testing.T) {
	inner := protocol.NewCodeMismatchError("wrong code")
	wrapped := fmt.Errorf("flow abc123: %w", inner)

	assert.Equal(t, protocol.ErrCodeCodeMismatch, protocol.CodeOf(wrapped))
	assert.True(t, protocol.IsCode(wrapped, protocol.ErrCodeCodeMismatch))
	assert.False(t, protocol.IsCode(wrapped, protocol.ErrCodeProtocolViolation))
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, protocol.ErrorCode(""), protocol.CodeOf(fmt.Errorf("plain error")))
	assert.Equal(t, protocol.ErrorCode(""), protocol.CodeOf(nil))
}

func TestIsRetryable(t *testing.T) {
	// Only a rejected MFA code is retryable.
	assert.True(t, protocol.IsRetryable(protocol.NewCodeMismatchError("wrong code")))

	assert.False(t, protocol.IsRetryable(protocol.NewNotAuthorizedError("bad claim")))
	assert.False(t, protocol.IsRetryable(protocol.NewProtocolViolationError("tokens out of order")))
	assert.False(t, protocol.IsRetryable(protocol.NewInvalidEncodingError("odd length")))
	assert.False(t, protocol.IsRetryable(protocol.NewDegenerateExchangeError("u == 0")))
	assert.False(t, protocol.IsRetryable(protocol.NewMFAAttemptsExceededError(3)))
	assert.False(t, protocol.IsRetryable(nil))
}

func TestChallengeNameIsMFA(t *testing.T) {
	assert.True(t, protocol.ChallengeSMSMFA.IsMFA())
	assert.True(t, protocol.ChallengeSoftwareTokenMFA.IsMFA())
	assert.False(t, protocol.ChallengePasswordVerifier.IsMFA())
	assert.False(t, protocol.ChallengeName("").IsMFA())
}
