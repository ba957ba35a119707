package credential

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/apperr"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/util"
)

const testPassword = "open-sesame"

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New("signing-key", util.SHA256Hex(testPassword), 12*time.Hour)
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Issue(testPassword)
	require.NoError(t, err)
	assert.Contains(t, token, ".")

	payload, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, payload.Role)
	assert.Equal(t, payload.IssuedAt+int64(12*3600), payload.ExpiresAt)
}

func TestIssue_WrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Issue("not-the-password")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestIssue_NoReferenceDigest_FailsClosed(t *testing.T) {
	svc := New("signing-key", "", 12*time.Hour)

	_, err := svc.Issue(testPassword)
	assert.ErrorIs(t, err, apperr.ErrSystemUnconfigured)
}

func TestVerify_Expired(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Issue(testPassword)
	require.NoError(t, err)

	// jump past expiry; the signature is still valid
	svc.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)
}

func TestVerify_TamperedPayload(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Issue(testPassword)
	require.NoError(t, err)

	sig, encoded, ok := strings.Cut(token, ".")
	require.True(t, ok)
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err)

	// flip one bit per byte position; signature segment untouched
	for i := range raw {
		mutated := append([]byte(nil), raw...)
		mutated[i] ^= 0x01
		forged := sig + "." + base64.RawURLEncoding.EncodeToString(mutated)
		_, err := svc.Verify(forged)
		assert.ErrorIs(t, err, apperr.ErrInvalidCredential, "byte %d", i)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Issue(testPassword)
	require.NoError(t, err)

	other := New("different-key", util.SHA256Hex(testPassword), 12*time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)
}

func TestVerify_Garbage(t *testing.T) {
	svc := newTestService(t)

	for _, bad := range []string{"", ".", "onlysig.", ".onlypayload", "no-dot-at-all", "a.b.c"} {
		_, err := svc.Verify(bad)
		assert.ErrorIs(t, err, apperr.ErrInvalidCredential, "token %q", bad)
	}
}
