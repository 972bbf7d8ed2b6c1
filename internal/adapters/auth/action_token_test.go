package auth

import (
	"testing"
	"time"

	"eventbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "6f1c1f5e-2b7a-4a7e-9d35-0f3b1c2d4e5f"

func newInactiveUser() *domain.User {
	return &domain.User{ID: testUserID, Username: "alice", PasswordHash: "$2a$10$hash"}
}

func TestActionTokens_IssueAndCheck(t *testing.T) {
	signer := NewActionTokens("action-secret")
	user := newInactiveUser()

	tok := signer.Issue(user, domain.PurposeEmailVerify, 24*time.Hour)
	require.NotEmpty(t, tok.Token)
	assert.InDelta(t, time.Now().Add(24*time.Hour).Unix(), tok.Expires, 2)

	id, err := signer.DecodeUID(tok.UID)
	require.NoError(t, err)
	assert.Equal(t, testUserID, id)

	assert.True(t, signer.Check(user, domain.PurposeEmailVerify, tok.Token, tok.Expires))
}

func TestActionTokens_Check_rejects(t *testing.T) {
	signer := NewActionTokens("action-secret")
	user := newInactiveUser()
	tok := signer.Issue(user, domain.PurposeEmailVerify, time.Hour)

	tests := []struct {
		name    string
		user    func() *domain.User
		purpose domain.ActionPurpose
		token   string
		expires int64
	}{
		{
			name:    "other purpose",
			user:    newInactiveUser,
			purpose: domain.PurposePasswordReset,
			token:   tok.Token,
			expires: tok.Expires,
		},
		{
			name:    "tampered expiry",
			user:    newInactiveUser,
			purpose: domain.PurposeEmailVerify,
			token:   tok.Token,
			expires: tok.Expires + 3600,
		},
		{
			name:    "expiry moved earlier",
			user:    newInactiveUser,
			purpose: domain.PurposeEmailVerify,
			token:   tok.Token,
			expires: tok.Expires - 60,
		},
		{
			name: "already verified",
			user: func() *domain.User {
				u := newInactiveUser()
				now := time.Now()
				u.IsActive, u.EmailVerified, u.EmailVerifiedAt = true, true, &now
				return u
			},
			purpose: domain.PurposeEmailVerify,
			token:   tok.Token,
			expires: tok.Expires,
		},
		{
			name: "password changed",
			user: func() *domain.User {
				u := newInactiveUser()
				u.PasswordHash = "$2a$10$other"
				return u
			},
			purpose: domain.PurposeEmailVerify,
			token:   tok.Token,
			expires: tok.Expires,
		},
		{
			name:    "not hex",
			user:    newInactiveUser,
			purpose: domain.PurposeEmailVerify,
			token:   "zz-not-hex",
			expires: tok.Expires,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, signer.Check(tt.user(), tt.purpose, tt.token, tt.expires))
		})
	}
}

func TestActionTokens_OtherSecret(t *testing.T) {
	user := newInactiveUser()
	tok := NewActionTokens("a").Issue(user, domain.PurposePasswordReset, time.Hour)
	assert.False(t, NewActionTokens("b").Check(user, domain.PurposePasswordReset, tok.Token, tok.Expires))
}

func TestActionTokens_DecodeUID_invalid(t *testing.T) {
	signer := NewActionTokens("s")
	_, err := signer.DecodeUID("!!!")
	assert.Error(t, err)
	_, err = signer.DecodeUID(EncodeUID("not-a-uuid"))
	assert.Error(t, err)
}
