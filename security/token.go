package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrMalformedToken = errors.New("malformed invitation token")

// NewOpaqueToken returns "<id>.<secret>" together with the bcrypt hash of the secret.
// Only the hash is stored; the id part lets the row be found without scanning hashes.
func NewOpaqueToken(id string) (token string, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return id + "." + secret, string(hashed), nil
}

func SplitOpaqueToken(token string) (id string, secret string, err error) {
	id, secret, found := strings.Cut(token, ".")
	if !found || id == "" || secret == "" {
		return "", "", ErrMalformedToken
	}
	return id, secret, nil
}

func CompareOpaqueSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
