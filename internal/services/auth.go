package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"eventbooking/internal/domain"
)

const maxUsernameLength = 150

var (
	emailRegexp    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegexp = regexp.MustCompile(`^[\p{L}\p{N}.@+_-]+$`)

	errInvalidEmail    = domain.Invalid("enter a valid email address")
	errInvalidUsername = domain.Invalid("username may contain only letters, digits and @/./+/-/_")
	errInvalidRefresh  = &domain.Error{Kind: domain.ErrUnauthenticated, Message: "invalid or expired refresh token"}
)

// AuthConfig holds token lifetimes and the base URL used in emailed links.
type AuthConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	VerifyTTL     time.Duration
	ResetTTL      time.Duration
	PublicBaseURL string
}

type authService struct {
	users          domain.UserRepository
	hasher         domain.PasswordHasher
	issuer         domain.TokenIssuer
	verifier       domain.TokenVerifier
	actions        domain.ActionTokenSigner
	emails         domain.EmailService
	cfg            AuthConfig
	contextTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewAuthService wires registration, login and the emailed-link flows.
func NewAuthService(
	users domain.UserRepository,
	hasher domain.PasswordHasher,
	issuer domain.TokenIssuer,
	verifier domain.TokenVerifier,
	actions domain.ActionTokenSigner,
	emails domain.EmailService,
	cfg AuthConfig,
	timeout time.Duration,
	logger *slog.Logger,
) domain.AuthService {
	return &authService{
		users:          users,
		hasher:         hasher,
		issuer:         issuer,
		verifier:       verifier,
		actions:        actions,
		emails:         emails,
		cfg:            cfg,
		contextTimeout: timeout,
		logger:         logger,
		now:            time.Now,
	}
}

// normalizeUsername applies NFKC so visually identical names collide.
func normalizeUsername(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *authService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	username := normalizeUsername(in.Username)
	email := normalizeEmail(in.Email)
	switch {
	case username == "":
		return nil, domain.Invalid("username is required")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return nil, domain.Invalid(fmt.Sprintf("username must be at most %d characters", maxUsernameLength))
	case !usernameRegexp.MatchString(username):
		return nil, errInvalidUsername
	case !emailRegexp.MatchString(email):
		return nil, errInvalidEmail
	case in.Password == "":
		return nil, domain.Invalid("password is required")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrDuplicateUsername
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := domain.NewUser(username, email, in.IsOrganizer, now, now)
	user.PasswordHash = hash
	user.PasswordSalt = salt
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Bio = sanitize(in.Bio)
	user.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendActivation(ctx, user)
	return user, nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*domain.LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.findByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.PasswordSalt, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	access, err := s.issuer.Issue(user.ID, user.Email, user.Roles(), s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	refresh, err := s.issuer.IssueRefresh(user.ID, s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	now := s.now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to stamp last login: %w", err)
	}
	return &domain.LoginResult{
		Tokens: domain.TokenPair{Access: access, Refresh: refresh},
		User:   user,
	}, nil
}

// findByIdentifier resolves a username, falling back to email when it looks like one.
func (s *authService) findByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if identifier == "" {
		return nil, domain.ErrNotFound
	}
	user, err := s.users.GetByUsername(ctx, normalizeUsername(identifier))
	if err == nil || !errors.Is(err, domain.ErrNotFound) || !strings.Contains(identifier, "@") {
		return user, err
	}
	return s.users.GetByEmail(ctx, normalizeEmail(identifier))
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	userID, err := s.verifier.VerifyRefresh(refreshToken)
	if err != nil {
		return "", errInvalidRefresh
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", errInvalidRefresh
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return "", domain.ErrAccountInactive
	}
	access, err := s.issuer.Issue(user.ID, user.Email, user.Roles(), s.cfg.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return access, nil
}

func (s *authService) VerifyEmail(ctx context.Context, uid, token, expires string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.resolveActionToken(ctx, uid, token, expires, domain.PurposeEmailVerify)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user.EmailVerified = true
	user.EmailVerifiedAt = &now
	user.IsActive = true
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	return user, nil
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}
	s.sendActivation(ctx, user)
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	tok := s.actions.Issue(user, domain.PurposePasswordReset, s.cfg.ResetTTL)
	data := &domain.PasswordResetEmailData{
		Email:            user.Email,
		Username:         user.Username,
		Link:             s.link("/accounts/reset-password/verify", tok),
		ExpiresInMinutes: int(s.cfg.ResetTTL.Minutes()),
	}
	if err := s.emails.SendPasswordReset(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "password reset email not queued", "user_id", user.ID, "err", err)
	}
	return nil
}

func (s *authService) CheckPasswordReset(ctx context.Context, uid, token, expires string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.resolveActionToken(ctx, uid, token, expires, domain.PurposePasswordReset)
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, uid, token, expires, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if newPassword == "" {
		return domain.Invalid("new_password is required")
	}
	user, err := s.resolveActionToken(ctx, uid, token, expires, domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	user.PasswordSalt = salt
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

func (s *authService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = normalizeEmail(email)
	if !emailRegexp.MatchString(email) {
		return false, errInvalidEmail
	}
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		return true, nil
	}
	return false, fmt.Errorf("failed to look up email: %w", err)
}

// resolveActionToken checks an emailed link. Expiry is checked before the user is
// loaded so that an expired link gets its own message.
func (s *authService) resolveActionToken(ctx context.Context, uid, token, expires string, purpose domain.ActionPurpose) (*domain.User, error) {
	if uid == "" || token == "" || expires == "" {
		return nil, domain.Invalid("uid, token and expires are required")
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if s.now().Unix() > exp {
		return nil, domain.ErrTokenExpired
	}
	userID, err := s.actions.DecodeUID(uid)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !s.actions.Check(user, purpose, token, exp) {
		return nil, domain.ErrTokenInvalid
	}
	return user, nil
}

func (s *authService) sendActivation(ctx context.Context, user *domain.User) {
	tok := s.actions.Issue(user, domain.PurposeEmailVerify, s.cfg.VerifyTTL)
	data := &domain.ActivationEmailData{
		Email:          user.Email,
		Username:       user.Username,
		Link:           s.link("/accounts/verify-email", tok),
		ExpiresInHours: int(s.cfg.VerifyTTL.Hours()),
	}
	if err := s.emails.SendActivation(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "activation email not queued", "user_id", user.ID, "err", err)
	}
}

func (s *authService) link(path string, tok domain.ActionToken) string {
	q := url.Values{}
	q.Set("uid", tok.UID)
	q.Set("token", tok.Token)
	q.Set("expires", strconv.FormatInt(tok.Expires, 10))
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + path + "?" + q.Encode()
}
