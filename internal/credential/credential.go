// Package credential issues and verifies the signed, expiring bearer
// token that gates every privileged mutation. There is exactly one
// operator identity (ADMIN); the token is opaque to the client, which
// stores and replays it verbatim.
package credential

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/apperr"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/util"
)

type Service struct {
	signingKey     string
	passwordSHA256 string
	ttl            time.Duration
	now            func() time.Time
}

func New(signingKey, passwordSHA256 string, ttl time.Duration) *Service {
	return &Service{
		signingKey:     signingKey,
		passwordSHA256: passwordSHA256,
		ttl:            ttl,
		now:            time.Now,
	}
}

// Issue exchanges the shared admin password for a bearer token of the
// form <hex-signature>.<base64-json-payload>. The plaintext password is
// digested and compared against the provisioned reference digest; it is
// never stored or transmitted further.
func (s *Service) Issue(password string) (string, error) {
	if s.passwordSHA256 == "" || s.signingKey == "" {
		// missing reference digest or key is a deployment fault; never
		// fall through to an open gate
		return "", apperr.ErrSystemUnconfigured
	}
	if !util.HMACValid(util.SHA256Hex(password), s.passwordSHA256) {
		return "", apperr.ErrUnauthorized
	}

	issued := s.now()
	payload := models.CredentialPayload{
		Role:      models.RoleAdmin,
		IssuedAt:  issued.Unix(),
		ExpiresAt: issued.Add(s.ttl).Unix(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	sig := util.HMACSHA256Hex(s.signingKey, encoded)
	return sig + "." + encoded, nil
}

// Verify checks the signature over the payload segment, then expiry.
// Tampering and expiry are both terminal ErrInvalidCredential; the
// caller re-authenticates, never retries.
func (s *Service) Verify(token string) (models.CredentialPayload, error) {
	var payload models.CredentialPayload
	if s.signingKey == "" {
		return payload, apperr.ErrSystemUnconfigured
	}

	sig, encoded, ok := strings.Cut(token, ".")
	if !ok || sig == "" || encoded == "" {
		return payload, apperr.ErrInvalidCredential
	}
	if !util.HMACValid(sig, util.HMACSHA256Hex(s.signingKey, encoded)) {
		return payload, apperr.ErrInvalidCredential
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return payload, apperr.ErrInvalidCredential
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, apperr.ErrInvalidCredential
	}
	if payload.ExpiresAt < s.now().Unix() {
		return models.CredentialPayload{}, apperr.ErrInvalidCredential
	}
	return payload, nil
}
