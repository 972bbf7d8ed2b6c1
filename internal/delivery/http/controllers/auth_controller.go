package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventbooking/internal/adapters/auth"
	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"
)

const (
	msgVerificationSent = "If an account exists with this email and is not yet verified, a verification email has been sent."
	msgResetSent        = "If an account exists with this email, a password reset link has been sent."
	msgVerifyExpired    = "Verification link has expired. Please request a new one."
	msgResetExpired     = "Password reset link has expired. Please request a new one."
)

// RegisterRequest is the request body for POST /accounts/register.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Bio             string `json:"bio"`
	PhoneNumber     string `json:"phone_number"`
	IsOrganizer     bool   `json:"is_organizer"`
}

// Validate implements Validator.
func (req RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Username) == "" {
		errs = append(errs, "username is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, "email is required")
	}
	if req.Password == "" {
		errs = append(errs, "password is required")
	} else {
		errs = append(errs, auth.CheckPasswordStrength(req.Password, req.Username, req.Email)...)
		if req.Password != req.ConfirmPassword {
			errs = append(errs, "password fields didn't match")
		}
	}
	return errs
}

// LoginRequest is the request body for POST /accounts/login. Either username or email identifies the account.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (req LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Username) == "" && strings.TrimSpace(req.Email) == "" {
		errs = append(errs, "username or email is required")
	}
	if req.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// RefreshRequest is the request body for POST /accounts/token/refresh.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// Validate implements Validator.
func (req RefreshRequest) Validate() []string {
	if req.Refresh == "" {
		return []string{"refresh is required"}
	}
	return nil
}

// EmailRequest is the body of the endpoints that only take an email address.
type EmailRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (req EmailRequest) Validate() []string {
	if strings.TrimSpace(req.Email) == "" {
		return []string{"email is required"}
	}
	return nil
}

// ResetConfirmRequest is the request body for POST /accounts/reset-password/confirm.
type ResetConfirmRequest struct {
	UID             string `json:"uid"`
	Token           string `json:"token"`
	Expires         string `json:"expires"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate implements Validator. Strength rules are checked without user attributes here;
// the username and email are only known once the token resolves.
func (req ResetConfirmRequest) Validate() []string {
	var errs []string
	if req.UID == "" || req.Token == "" || req.Expires == "" {
		errs = append(errs, "uid, token and expires are required")
	}
	if req.NewPassword == "" {
		errs = append(errs, "new_password is required")
	} else {
		errs = append(errs, auth.CheckPasswordStrength(req.NewPassword, "", "")...)
		if req.NewPassword != req.ConfirmPassword {
			errs = append(errs, "password fields didn't match")
		}
	}
	return errs
}

// RegisterResponse is the data payload of a successful registration.
type RegisterResponse struct {
	User    *domain.User `json:"user"`
	Message string       `json:"message"`
}

// RegisterSuccessResponse is the success response envelope for POST /accounts/register (201).
type RegisterSuccessResponse struct {
	Data  RegisterResponse  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// LoginSuccessResponse is the success response envelope for POST /accounts/login (200).
type LoginSuccessResponse struct {
	Data  *domain.LoginResult `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// RefreshResponse carries a newly issued access token.
type RefreshResponse struct {
	Access string `json:"access"`
}

// RefreshSuccessResponse is the success response envelope for POST /accounts/token/refresh (200).
type RefreshSuccessResponse struct {
	Data  RefreshResponse   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// VerifyEmailResponse is returned when an account is activated.
type VerifyEmailResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// VerifyEmailSuccessResponse is the success response envelope for GET /accounts/verify-email (200).
type VerifyEmailSuccessResponse struct {
	Data  VerifyEmailResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ResetVerifyResponse echoes a valid reset link so the client can show the confirm form.
type ResetVerifyResponse struct {
	UID      string `json:"uid"`
	Token    string `json:"token"`
	Expires  string `json:"expires"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// ResetVerifySuccessResponse is the success response envelope for GET /accounts/reset-password/verify (200).
type ResetVerifySuccessResponse struct {
	Data  ResetVerifyResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// EmailAvailabilityResponse reports whether an email can be used to register.
type EmailAvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// EmailAvailabilitySuccessResponse is the success response envelope for POST /accounts/validate-email (200).
type EmailAvailabilitySuccessResponse struct {
	Data  EmailAvailabilityResponse `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// MessageSuccessResponse is the success envelope of endpoints that only confirm an action.
type MessageSuccessResponse struct {
	Data  helpers.MessageResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register a new account
// @Description Creates an inactive account and emails an activation link valid for 24 hours. Rate limited per client IP.
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Account details"
// @Success 201 {object} controllers.RegisterSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 429 {object} helpers.APIResponse "error.code: rate_limited"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /accounts/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.Register(r.Context(), domain.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		PhoneNumber: req.PhoneNumber,
		IsOrganizer: req.IsOrganizer,
	})
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, RegisterResponse{
		User:    user,
		Message: "Registration successful. Please check your email to activate your account.",
	})
}

// Login godoc
// @Summary Log in
// @Description Exchanges a username or email and password for an access and refresh token pair. Rate limited per client IP.
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} controllers.LoginSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (account not verified)"
// @Failure 429 {object} helpers.APIResponse "error.code: rate_limited"
// @Router /accounts/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identifier := req.Username
	if strings.TrimSpace(identifier) == "" {
		identifier = req.Email
	}
	result, err := c.Service.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// Refresh godoc
// @Summary Refresh an access token
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "Refresh token"
// @Success 200 {object} controllers.RefreshSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /accounts/token/refresh [post]
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	access, err := c.Service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RefreshResponse{Access: access})
}

// VerifyEmail godoc
// @Summary Verify an email address
// @Description Activates the account named by an emailed link. A link works once.
// @Tags accounts
// @Produce json
// @Param uid query string true "Encoded user id"
// @Param token query string true "Verification token"
// @Param expires query string true "Expiry (unix seconds)"
// @Success 200 {object} controllers.VerifyEmailSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /accounts/verify-email [get]
func (c *AuthController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user, err := c.Service.VerifyEmail(r.Context(), q.Get("uid"), q.Get("token"), q.Get("expires"))
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, msgVerifyExpired)
			return
		}
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, VerifyEmailResponse{
		Message: "Email verified successfully. Your account is now active.",
		User:    user,
	})
}

// ResendVerification godoc
// @Summary Resend the verification email
// @Description Always answers with the same message so account existence is not disclosed. Rate limited per client IP.
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} controllers.MessageSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 429 {object} helpers.APIResponse "error.code: rate_limited"
// @Router /accounts/resend-verification [post]
func (c *AuthController) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONMessage(w, http.StatusOK, msgVerificationSent)
}

// RequestPasswordReset godoc
// @Summary Request a password reset link
// @Description Always answers with the same message so account existence is not disclosed. Rate limited per client IP.
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} controllers.MessageSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 429 {object} helpers.APIResponse "error.code: rate_limited"
// @Router /accounts/reset-password [post]
func (c *AuthController) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONMessage(w, http.StatusOK, msgResetSent)
}

// VerifyPasswordReset godoc
// @Summary Check a password reset link
// @Tags accounts
// @Produce json
// @Param uid query string true "Encoded user id"
// @Param token query string true "Reset token"
// @Param expires query string true "Expiry (unix seconds)"
// @Success 200 {object} controllers.ResetVerifySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /accounts/reset-password/verify [get]
func (c *AuthController) VerifyPasswordReset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uid, token, expires := q.Get("uid"), q.Get("token"), q.Get("expires")
	user, err := c.Service.CheckPasswordReset(r.Context(), uid, token, expires)
	if err != nil {
		c.writeResetError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ResetVerifyResponse{
		UID:      uid,
		Token:    token,
		Expires:  expires,
		Email:    user.Email,
		Username: user.Username,
	})
}

// ConfirmPasswordReset godoc
// @Summary Set a new password
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body ResetConfirmRequest true "Link values and new password"
// @Success 200 {object} controllers.MessageSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /accounts/reset-password/confirm [post]
func (c *AuthController) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetConfirmRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ConfirmPasswordReset(r.Context(), req.UID, req.Token, req.Expires, req.NewPassword); err != nil {
		c.writeResetError(w, r, err)
		return
	}
	helpers.WriteJSONMessage(w, http.StatusOK, "Password has been reset successfully. You can now log in.")
}

func (c *AuthController) writeResetError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrTokenExpired) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, msgResetExpired)
		return
	}
	writeError(w, r, c.Logger, err)
}

// ValidateEmail godoc
// @Summary Check whether an email is free
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Email"
// @Success 200 {object} controllers.EmailAvailabilitySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /accounts/validate-email [post]
func (c *AuthController) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	available, err := c.Service.EmailAvailable(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, c.Logger, err)
		return
	}
	msg := "Email is available"
	if !available {
		msg = "Email is already registered"
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EmailAvailabilityResponse{Available: available, Message: msg})
}
