package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthService registers accounts, confirms their email addresses and issues
// session tokens.
type AuthService struct {
	accounts  store.AccountStore
	users     store.UserStore
	tokens    *utils.TokenMaker
	gate      *AdminGate
	mailer    utils.Mailer
	verifyURL string
	hashCost  int
}

// NewAuthService mails verification links pointing at verifyURL, the public
// address of GET /auth/verify. A nil mailer sends nothing.
func NewAuthService(accounts store.AccountStore, users store.UserStore, tokens *utils.TokenMaker, gate *AdminGate, mailer utils.Mailer, verifyURL string) *AuthService {
	if mailer == nil {
		mailer = utils.NopMailer{}
	}
	return &AuthService{
		accounts:  accounts,
		users:     users,
		tokens:    tokens,
		gate:      gate,
		mailer:    mailer,
		verifyURL: verifyURL,
		hashCost:  bcrypt.DefaultCost,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.Account, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, utils.Validation("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, utils.Validation("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, utils.Internal(err, "Failed to register")
	}
	account := &models.Account{
		UID:          uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, utils.Conflict("email already registered")
		}
		return nil, utils.Internal(err, "Failed to register")
	}

	// Profiles are also created lazily on first read.
	profile := &models.User{UID: account.UID, Email: email, Name: account.Name, Provider: "password"}
	if err := s.users.CreateUser(ctx, profile); err != nil && !errors.Is(err, store.ErrDuplicate) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("uid", account.UID).Msg("profile not created at registration")
	}

	if err := s.sendVerification(ctx, account); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("uid", account.UID).Msg("verification email not sent")
	}
	return account, nil
}

func (s *AuthService) sendVerification(ctx context.Context, account *models.Account) error {
	token, err := s.tokens.GenerateVerificationToken(account.UID, account.Email)
	if err != nil {
		return err
	}
	link := s.verifyURL + "?token=" + url.QueryEscape(token)
	return s.mailer.SendEmail(ctx, utils.EmailMessage{
		To:      account.Email,
		Subject: "Verify your email address",
		Text:    fmt.Sprintf("Confirm your email address by opening this link:\n%s\n", link),
		HTML:    fmt.Sprintf(`<p>Confirm your email address by opening <a href="%s">this link</a>.</p>`, html.EscapeString(link)),
	})
}

// VerifyEmail marks the account named by a mailed verification token as
// verified. Verifying twice is not an error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, utils.Validation("Verification token missing")
	}
	claims, err := s.tokens.VerifyEmailToken(token)
	if err != nil {
		return nil, utils.Validation("invalid or expired verification token")
	}

	account, err := s.accounts.GetAccount(ctx, claims.UID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.Validation("invalid or expired verification token")
	}
	if err != nil {
		return nil, utils.Internal(err, "Failed to verify email")
	}
	if account.Email != NormalizeEmail(claims.Email) {
		return nil, utils.Validation("invalid or expired verification token")
	}

	if err := s.accounts.VerifyAccountEmail(ctx, account.UID); err != nil {
		return nil, storeError(err, "account")
	}
	if err := s.users.SetEmailVerified(ctx, account.UID); err != nil && !errors.Is(err, store.ErrNotFound) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("uid", account.UID).Msg("profile not marked verified")
	}
	account.EmailVerified = true
	return account, nil
}

// GrantAdmin gives the account registered under email the admin role.
func (s *AuthService) GrantAdmin(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.accounts.FindAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, storeError(err, "account")
	}
	if err := s.accounts.SetAccountRole(ctx, account.UID, models.RoleAdmin); err != nil {
		return nil, storeError(err, "account")
	}
	account.Role = models.RoleAdmin
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, utils.Validation("email and password are required")
	}

	account, err := s.accounts.FindAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.Unauthenticated("invalid email or password")
	}
	if err != nil {
		return nil, utils.Internal(err, "Failed to log in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, utils.Unauthenticated("invalid email or password")
	}

	role := account.Role
	if s.gate.IsAdmin(account.Email, role, account.EmailVerified) {
		role = models.RoleAdmin
	}
	token, expiresAt, err := s.tokens.GenerateJWT(account.UID, account.Email, role, account.EmailVerified)
	if err != nil {
		return nil, utils.Internal(err, "Failed to log in")
	}
	return &models.Session{
		Token:     token,
		ExpiresAt: models.NewTimestamp(expiresAt),
		User: models.SessionUser{
			UID:           account.UID,
			Email:         account.Email,
			Role:          role,
			EmailVerified: account.EmailVerified,
		},
	}, nil
}
