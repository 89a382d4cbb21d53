package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/ratelimit"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/validation"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// ResetLimiter throttles password-reset requests per email.
type ResetLimiter interface {
	Allow(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string          `json:"token"`
	UserID    string          `json:"userId"`
	RoleID    domain.Role     `json:"roleId"`
	AuthType  domain.AuthType `json:"type"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// ForgotPasswordInput starts a reset.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ValidateForgotKeyInput checks a reset key without consuming it.
type ValidateForgotKeyInput struct {
	Email     string `json:"email" validate:"required,email"`
	ForgotKey string `json:"forgotKey" validate:"required,max=256"`
}

// ResetPasswordInput consumes a reset key.
type ResetPasswordInput struct {
	Email     string `json:"email" validate:"required,email"`
	ForgotKey string `json:"forgotKey" validate:"required,max=256"`
	Password  string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// UpdatePasswordInput changes the caller's password.
type UpdatePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required,maxbytes=72"`
	NewPassword string `json:"newPassword" validate:"required,min=8,maxbytes=72"`
}

// AuthService implements the authentication use cases.
type AuthService struct {
	auths    repository.AuthRepository
	users    repository.UserRepository
	accounts *AccountGate
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	events   events.Dispatcher
	limiter  ResetLimiter
	validate *validation.Validator
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
	newToken func() (string, error)
	resetTTL int64
}

// AuthDependencies encapsulates collaborators for the auth service.
// Tokens, Hasher, Validator, Logger and Clock default from cfg when nil.
type AuthDependencies struct {
	AuthRepo     repository.AuthRepository
	UserRepo     repository.UserRepository
	Accounts     *AccountGate
	Tokens       *auth.TokenManager
	Hasher       *auth.Hasher
	Events       events.Dispatcher
	ResetLimiter ResetLimiter
	Validator    *validation.Validator
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	Clock        func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	s := &AuthService{
		auths:    deps.AuthRepo,
		users:    deps.UserRepo,
		accounts: deps.Accounts,
		tokens:   deps.Tokens,
		hasher:   deps.Hasher,
		events:   deps.Events,
		limiter:  deps.ResetLimiter,
		validate: deps.Validator,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		now:      deps.Clock,
		newToken: auth.GenerateResetToken,
		resetTTL: cfg.Auth.ResetTokenTTLSeconds,
	}
	if s.tokens == nil {
		s.tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, auth.WithIssuer(cfg.Auth.JWTIssuer))
	}
	if s.hasher == nil {
		s.hasher = auth.NewHasher(cfg.Auth.BcryptCost)
	}
	if s.validate == nil {
		s.validate = validation.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("component", "auth"))
	if s.now == nil {
		s.now = time.Now
	}
	if s.resetTTL <= 0 {
		s.resetTTL = 3 * 24 * 60 * 60
	}
	return s
}

// NormalizeEmail lower-cases and trims an email so lookups match stored usernames.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies credentials and issues an access token. Unknown usernames,
// wrong passwords and dangling credentials all yield ErrIncorrectCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (result *LoginResult, err error) {
	defer func() { s.record("login", err) }()

	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	cred, err := s.auths.GetByUsername(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.VerifyDummy(in.Password)
		return nil, domain.ErrIncorrectCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if !s.hasher.Verify(in.Password, cred.PasswordHash) {
		return nil, domain.ErrIncorrectCredentials
	}

	user, err := s.users.GetByID(ctx, cred.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrIncorrectCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if _, err := s.accounts.CheckActive(ctx, user.ID, user.RoleID); err != nil {
		return nil, err
	}

	token, exp, err := s.tokens.Sign(user.ID, user.RoleID, cred.AuthType)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{
		Token:     token,
		UserID:    user.ID,
		RoleID:    user.RoleID,
		AuthType:  cred.AuthType,
		ExpiresAt: exp,
	}, nil
}

// ForgotPassword issues a new reset key, replacing any pending one, and
// queues the reset mail.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) (ok bool, err error) {
	defer func() { s.record("forgot_password", err) }()

	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return false, err
	}
	if err := s.checkResetQuota(ctx, in.Email); err != nil {
		return false, err
	}

	cred, account, err := s.resolveActive(ctx, in.Email)
	if err != nil {
		return false, err
	}

	token, err := s.newToken()
	if err != nil {
		return false, fmt.Errorf("generate reset token: %w", err)
	}
	cred.IssueResetToken(token, auth.ExpiryFrom(s.now(), s.resetTTL))
	if err := s.auths.Update(ctx, cred); err != nil {
		return false, fmt.Errorf("store reset token: %w", err)
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordResetRequested, cred.UserID, events.PasswordResetRequestedPayload{
		Name:  account.Name,
		Email: cred.Username,
		Token: token,
	}))
	return true, nil
}

// ValidateForgotKey reports whether key would currently be accepted by
// ResetPassword. Logical failures yield false; only infrastructure failures
// are returned as errors.
func (s *AuthService) ValidateForgotKey(ctx context.Context, in ValidateForgotKeyInput) (valid bool, err error) {
	defer func() { s.record("validate_forgot_key", err) }()

	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return false, err
	}

	cred, _, err := s.resolveActive(ctx, in.Email)
	if errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrAccountNotActivated) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return cred.CheckResetToken(in.ForgotKey, s.now()) == nil, nil
}

// ResetPassword sets a new password and clears the reset key in one update.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) (ok bool, err error) {
	defer func() { s.record("reset_password", err) }()

	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return false, err
	}

	cred, _, err := s.resolveActive(ctx, in.Email)
	if err != nil {
		return false, err
	}
	if err := cred.CheckResetToken(in.ForgotKey, s.now()); err != nil {
		return false, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	cred.PasswordHash = hash
	cred.ClearResetToken()
	if err := s.auths.Update(ctx, cred); err != nil {
		return false, fmt.Errorf("store password: %w", err)
	}
	s.clearResetQuota(ctx, in.Email)

	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, cred.UserID, events.PasswordChangedPayload{
		Email:  cred.Username,
		Reason: "reset",
	}))
	return true, nil
}

// UpdateMyPassword changes the password of the authenticated caller. A
// pending reset key is left untouched.
func (s *AuthService) UpdateMyPassword(ctx context.Context, userID string, in UpdatePasswordInput) (ok bool, err error) {
	defer func() { s.record("update_password", err) }()

	if err := s.validate.Struct(in); err != nil {
		return false, err
	}

	cred, err := s.auths.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, domain.ErrAccountNotFound
	}
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}
	if !s.hasher.Verify(in.OldPassword, cred.PasswordHash) {
		return false, domain.ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	cred.PasswordHash = hash
	if err := s.auths.Update(ctx, cred); err != nil {
		return false, fmt.Errorf("store password: %w", err)
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, cred.UserID, events.PasswordChangedPayload{
		Email:  cred.Username,
		Reason: "update",
	}))
	return true, nil
}

// GetUserAuthByToken returns the identity carried by a valid access token.
// Account status is not re-checked; a token stays usable until it expires.
func (s *AuthService) GetUserAuthByToken(_ context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := s.tokens.Verify(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, apperrors.NewDomainError(domain.ErrUnauthorized.Code, "token expired", http.StatusUnauthorized, nil)
	}
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	return claims.Identity(), nil
}

// resolveActive maps an email to its credential and active account.
// Missing credential or user rows surface as ErrAccountNotFound.
func (s *AuthService) resolveActive(ctx context.Context, email string) (*domain.AuthCredential, *domain.Account, error) {
	cred, err := s.auths.GetByUsername(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load credential: %w", err)
	}

	user, err := s.users.GetByID(ctx, cred.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	account, err := s.accounts.CheckActive(ctx, user.ID, user.RoleID)
	if err != nil {
		return nil, nil, err
	}
	return cred, account, nil
}

// checkResetQuota fails open when the limiter itself is unavailable.
func (s *AuthService) checkResetQuota(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Allow(ctx, email)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrLimited):
		return domain.ErrResetRateLimited
	default:
		s.logger.Warn("reset limiter unavailable, allowing request", zap.Error(err))
		return nil
	}
}

// clearResetQuota gives the email a fresh window once a reset completes.
func (s *AuthService) clearResetQuota(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.Warn("reset limiter not cleared", zap.Error(err))
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event not published",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

func (s *AuthService) record(operation string, err error) {
	if err == nil {
		s.metrics.RecordAuth(operation, "ok")
		return
	}
	s.metrics.RecordAuth(operation, apperrors.ToDomainError(err).Code)
}
