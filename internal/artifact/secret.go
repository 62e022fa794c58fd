package artifact

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	secretPrefix  = "hmac-sha256:"
	secretKeySize = 32
)

// SecretKey keys the digests that stand in for secret values. Digests made
// with different keys never match, so baselines and artifacts compared for
// drift must share one key.
type SecretKey []byte

// NewSecretKey returns a random key.
func NewSecretKey() (SecretKey, error) {
	k := make(SecretKey, secretKeySize)
	if _, err := rand.Read(k); err != nil {
		return nil, fmt.Errorf("generate secret key: %w", err)
	}
	return k, nil
}

// ParseSecretKey decodes a hex-encoded key.
func ParseSecretKey(s string) (SecretKey, error) {
	k, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(k) < secretKeySize {
		return nil, fmt.Errorf("secret key is %d bytes, want %d", len(k), secretKeySize)
	}
	return k, nil
}

// String hex-encodes the key.
func (k SecretKey) String() string { return hex.EncodeToString(k) }

// Digest hides a secret while still letting changes show as drift.
func (k SecretKey) Digest(secret string) string {
	mac := hmac.New(sha256.New, k)
	mac.Write([]byte(secret))
	return secretPrefix + hex.EncodeToString(mac.Sum(nil))
}

// IsSecretDigest reports whether a flattened value is a secret digest.
// Canonical JSON values never start with a bare letter, so the two cannot
// collide.
func IsSecretDigest(v string) bool {
	return strings.HasPrefix(v, secretPrefix)
}
