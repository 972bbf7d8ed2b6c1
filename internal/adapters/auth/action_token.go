package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"eventbooking/internal/domain"
)

// ActionTokens signs single-purpose links (email verification, password reset).
// The MAC covers the user id, the purpose, the expiry and a fingerprint of the user
// fields each flow changes, so consuming a token invalidates it.
// The expiry also travels in the link as unix seconds; callers check it before Check,
// and because it is bound into the MAC an edited expiry never verifies.
type ActionTokens struct {
	secret []byte
	now    func() time.Time
}

var _ domain.ActionTokenSigner = (*ActionTokens)(nil)

// NewActionTokens returns an ActionTokens keyed by secret.
func NewActionTokens(secret string) *ActionTokens {
	return &ActionTokens{secret: []byte(secret), now: time.Now}
}

// Issue returns a token for user valid for ttl.
func (a *ActionTokens) Issue(user *domain.User, purpose domain.ActionPurpose, ttl time.Duration) domain.ActionToken {
	expires := a.now().Add(ttl).Unix()
	return domain.ActionToken{
		UID:     EncodeUID(user.ID),
		Token:   hex.EncodeToString(a.mac(user, purpose, expires)),
		Expires: expires,
	}
}

// Check compares token against the MAC for the user's current state in constant time.
func (a *ActionTokens) Check(user *domain.User, purpose domain.ActionPurpose, token string, expires int64) bool {
	got, err := hex.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(got, a.mac(user, purpose, expires))
}

// DecodeUID reverses EncodeUID and validates the result as a UUID.
func (a *ActionTokens) DecodeUID(uid string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", fmt.Errorf("decode uid: %w", err)
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("decode uid: %w", err)
	}
	return id.String(), nil
}

// EncodeUID renders a user id for use in a link.
func EncodeUID(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

func (a *ActionTokens) mac(user *domain.User, purpose domain.ActionPurpose, expires int64) []byte {
	m := hmac.New(sha256.New, a.secret)
	m.Write([]byte(purpose))
	m.Write([]byte{0})
	m.Write([]byte(user.ID))
	m.Write([]byte{0})
	m.Write(stateFingerprint(user))
	m.Write([]byte{0})
	m.Write([]byte(strconv.FormatInt(expires, 10)))
	return m.Sum(nil)
}

func stateFingerprint(user *domain.User) []byte {
	verifiedAt := ""
	if user.EmailVerifiedAt != nil {
		verifiedAt = strconv.FormatInt(user.EmailVerifiedAt.UnixNano(), 10)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%t|%t|%s",
		user.PasswordHash, user.IsActive, user.EmailVerified, verifiedAt)))
	return sum[:]
}
