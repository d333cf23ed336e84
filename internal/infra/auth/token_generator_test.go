package auth

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenerator_Generate(t *testing.T) {
	generator := NewTokenGenerator()

	seen := make(map[string]struct{}, 100)
	for range 100 {
		token, err := generator.Generate()
		require.NoError(t, err)

		decoded, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, decoded, tokenBytes)
		assert.Equal(t, token, url.PathEscape(token), "token must be URL-safe")

		_, dup := seen[token]
		assert.False(t, dup)
		seen[token] = struct{}{}
	}
}
