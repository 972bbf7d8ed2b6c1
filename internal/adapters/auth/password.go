package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"eventbooking/internal/domain"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a PasswordHasher running bcrypt over sha256(salt+password).
// The pre-hash keeps inputs under bcrypt's 72 byte limit.
func NewBcryptHasher(cost int) domain.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) GenerateSalt() (string, error) {
	saltBytes := make([]byte, 32)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(saltBytes), nil
}

func (h *bcryptHasher) Hash(salt, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(salt, password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h *bcryptHasher) Compare(hash, salt, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(salt, password))
}

func prehash(salt, password string) []byte {
	sum := sha256.Sum256([]byte(salt + password))
	return []byte(hex.EncodeToString(sum[:]))
}

// CheckPasswordStrength returns the rules password breaks. username and email are
// used to reject passwords that merely repeat the account name.
func CheckPasswordStrength(password, username, email string) []string {
	var errs []string
	if len([]rune(password)) < MinPasswordLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		errs = append(errs, "password cannot be entirely numeric")
	}
	lower := strings.ToLower(password)
	if username != "" && lower == strings.ToLower(username) {
		errs = append(errs, "password is too similar to the username")
	}
	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && local != "" && lower == local {
		errs = append(errs, "password is too similar to the email")
	}
	return errs
}
