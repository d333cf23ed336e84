package auth

import (
	"crypto/rand"
	"encoding/base64"

	"storefront/internal/domain/service"
	"storefront/internal/errors"
)

// tokenBytes gives 256 bits of entropy per token.
const tokenBytes = 32

type randomTokenGenerator struct{}

// NewTokenGenerator returns a generator of base64url tokens read from crypto/rand.
func NewTokenGenerator() service.TokenGenerator {
	return &randomTokenGenerator{}
}

func (g *randomTokenGenerator) Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
