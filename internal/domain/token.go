package domain

import "time"

// ActionPurpose scopes an action token to one flow.
type ActionPurpose string

const (
	PurposeEmailVerify   ActionPurpose = "email-verify"
	PurposePasswordReset ActionPurpose = "password-reset"
)

var (
	ErrTokenExpired = Invalid("link has expired, please request a new one")
	ErrTokenInvalid = Invalid("invalid or expired link")
)

// ActionToken is the triple embedded in emailed links.
type ActionToken struct {
	UID     string `json:"uid"`
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

// ActionTokenSigner issues and checks tokens bound to a user's current state and a purpose.
// Check only compares signatures; callers check expiry and resolve the user first.
type ActionTokenSigner interface {
	Issue(user *User, purpose ActionPurpose, ttl time.Duration) ActionToken
	Check(user *User, purpose ActionPurpose, token string, expires int64) bool
	DecodeUID(uid string) (userID string, err error)
}
