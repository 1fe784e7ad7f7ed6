package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordAndVerify(t *testing.T) {
	hash, err := HashPassword("Passw0rd")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	assert.True(t, VerifyPassword("Passw0rd", hash))
	assert.False(t, VerifyPassword("passw0rd", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestHashPasswordUsesRandomSalt(t *testing.T) {
	first, err := HashPassword("Passw0rd")
	require.NoError(t, err)
	second, err := HashPassword("Passw0rd")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword("Passw0rd", first))
	assert.True(t, VerifyPassword("Passw0rd", second))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "plaintext"},
		{"wrong part count", "$argon2id$v=19$m=65536,t=3,p=4$saltonly"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA"},
		{"bad hash encoding", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdHNhbHQ$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyPassword("Passw0rd", tt.hash))
		})
	}
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := generateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9')
		}
		seen[code] = true
	}
	// 20 draws from a million-value space colliding down to one value
	// would indicate a broken generator
	assert.Greater(t, len(seen), 1)
}
