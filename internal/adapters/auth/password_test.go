package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_GenerateSalt(t *testing.T) {
	h := NewBcryptHasher(10)
	hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)

	for i := 0; i < 5; i++ {
		salt, err := h.GenerateSalt()
		require.NoError(t, err)
		assert.Regexp(t, hexRe, salt, "salt should be 64 hex characters")
	}
}

func TestBcryptHasher_Hash_and_Compare(t *testing.T) {
	h := NewBcryptHasher(10)
	salt, err := h.GenerateSalt()
	require.NoError(t, err)
	password := "my-secret-password"

	hash, err := h.Hash(salt, password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	err = h.Compare(hash, salt, password)
	require.NoError(t, err)
}

func TestBcryptHasher_Compare_wrong_password(t *testing.T) {
	h := NewBcryptHasher(10)
	salt, err := h.GenerateSalt()
	require.NoError(t, err)
	hash, err := h.Hash(salt, "correct")
	require.NoError(t, err)

	err = h.Compare(hash, salt, "wrong")
	assert.Error(t, err)
}

func TestBcryptHasher_Compare_wrong_salt(t *testing.T) {
	h := NewBcryptHasher(10)
	salt1, _ := h.GenerateSalt()
	salt2, _ := h.GenerateSalt()
	hash, err := h.Hash(salt1, "password")
	require.NoError(t, err)

	err = h.Compare(hash, salt2, "password")
	assert.Error(t, err)
}

func TestNewBcryptHasher_invalid_cost_falls_back(t *testing.T) {
	h := NewBcryptHasher(99).(*bcryptHasher)
	assert.Equal(t, 10, h.cost)
}

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		username string
		email    string
		wantErrs int
		contains string
	}{
		{name: "strong", password: "correct-horse-9", username: "alice", email: "alice@example.com"},
		{name: "too short", password: "ab1", wantErrs: 1, contains: "at least 8"},
		{name: "numeric", password: "1234567890", wantErrs: 1, contains: "entirely numeric"},
		{name: "same as username", password: "AliceAlice", username: "alicealice", wantErrs: 1, contains: "username"},
		{name: "same as email local part", password: "bobby-tables", email: "Bobby-Tables@example.com", wantErrs: 1, contains: "email"},
		{name: "short and numeric", password: "123", wantErrs: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckPasswordStrength(tt.password, tt.username, tt.email)
			require.Len(t, errs, tt.wantErrs)
			if tt.contains != "" {
				assert.Contains(t, errs[0], tt.contains)
			}
		})
	}
}
