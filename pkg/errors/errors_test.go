package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Unwrap(t *testing.T) {
	err := WrapLoanNotFound("abc")

	assert.True(t, errors.Is(err, ErrLoanNotFound))
	assert.Contains(t, err.Error(), "LOAN_NOT_FOUND")
	assert.Contains(t, err.Error(), "abc")
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("reconcile: %w", WrapDatabaseError(errors.New("conn reset")))

	assert.Equal(t, ErrCodeDatabaseError, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestWrapNotifyError(t *testing.T) {
	err := WrapNotifyError(errors.New("timeout"))

	assert.True(t, errors.Is(err, ErrNotificationFailed))
	assert.Contains(t, err.Error(), "timeout")
}
