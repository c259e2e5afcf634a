package storage

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// signToken builds a token with an arbitrary expiry so tests can exercise
// the timestamp check without waiting.
func signToken(s *SignedURLSigner, jobID, relPath string, expiresAt time.Time) string {
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	return strings.Join([]string{jobID, exp, encodedPath, s.sign(jobID, exp, encodedPath)}, ".")
}

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	token, expiresAt, err := signer.Generate("job-1", "2026/01/job-1.pdf")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	jobID, relPath, parsedExp, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, "2026/01/job-1.pdf", relPath)
	require.Equal(t, expiresAt.Unix(), parsedExp.Unix())
}

func TestSignedURLExpired(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)
	token := signToken(signer, "job-1", "job-1.pdf", time.Now().Add(-time.Minute))

	_, _, _, err := signer.Parse(token, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	// Cleanup paths still need to resolve expired tokens.
	jobID, relPath, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, "job-1.pdf", relPath)
}

func TestSignedURLTamperedSignature(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	token, _, err := signer.Generate("job-1", "job-1.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"0", false)
	require.ErrorIs(t, err, ErrTokenInvalid)

	other := NewSignedURLSigner("different-secret", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSignedURLMalformedToken(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	_, _, _, err := signer.Parse("not-a-token", false)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, _, err = signer.Generate("", "path")
	require.Error(t, err)
}
