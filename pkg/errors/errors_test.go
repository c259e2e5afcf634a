package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		code   string
		status int
	}{
		{ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest},
		{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
		{ErrForbidden, "FORBIDDEN", http.StatusForbidden},
		{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{ErrPreconditionFailed, "PRECONDITION_FAILED", http.StatusPreconditionFailed},
		{ErrStaleStatus, "STALE_STATUS", http.StatusConflict},
		{ErrInvalidTransition, "INVALID_TRANSITION", http.StatusConflict},
		{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.code, tc.err.Code)
		require.Equal(t, tc.status, tc.err.Status)
	}
}

func TestCloneKeepsCodeAndStatus(t *testing.T) {
	err := Clone(ErrPreconditionFailed, "request has no line items")
	require.Equal(t, ErrPreconditionFailed.Code, err.Code)
	require.Equal(t, http.StatusPreconditionFailed, err.Status)
	require.Equal(t, "request has no line items", err.Message)
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestFromErrorNormalisesUnknownCauses(t *testing.T) {
	cause := stderrors.New("boom")
	err := FromError(cause)
	require.Equal(t, ErrInternal.Code, err.Code)
	require.Equal(t, http.StatusInternalServerError, err.Status)

	wrapped := Wrap(cause, ErrValidation.Code, http.StatusBadRequest, "bad payload")
	require.Equal(t, "VALIDATION_ERROR", FromError(wrapped).Code)
	require.ErrorIs(t, wrapped, cause)
}
