package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/app/repositories"
	"github.com/artisansally/ally/pkg/auth"
	"github.com/artisansally/ally/pkg/logger"
)

// TokenTTL is the lifetime of verification and password-reset links.
const TokenTTL = time.Hour

// UserView is the public shape of an account.
type UserView struct {
	Email          string `json:"email"`
	Currency       string `json:"currency"`
	HasEbayToken   bool   `json:"has_ebay_token"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

func ViewOf(u *models.User) UserView {
	return UserView{
		Email:          u.Email,
		Currency:       u.Currency,
		HasEbayToken:   u.HasEbayToken(),
		EmailConfirmed: u.EmailConfirmed,
	}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Currency string `json:"currency" validate:"nullable,size=3,alpha"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService struct {
	users  *repositories.UserRepository
	mailer *Mailer
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, mailer *Mailer) *AuthService {
	return &AuthService{
		users:  repositories.NewUserRepository(db),
		mailer: mailer,
		now:    time.Now,
	}
}

func normaliseEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Register creates an unverified account and mails a verification link. A
// failed send is logged; the user can ask for a new link later.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = models.DefaultCurrency
	}

	u := &models.User{Email: normaliseEmail(in.Email), Password: hash, Currency: currency}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.sendVerification(ctx, u); err != nil {
		logger.WithCtx(ctx).Warn("verification email not sent", "user_id", u.ID, "error", err)
	}
	return u, nil
}

func (s *AuthService) sendVerification(ctx context.Context, u *models.User) error {
	token, err := auth.IssueToken(auth.PurposeEmailVerification, u.ID, TokenTTL)
	if err != nil {
		return err
	}
	return s.mailer.SendVerification(ctx, u.Email, token)
}

// Login checks credentials. The password is checked before verification
// state so an unverified account never reveals itself to a wrong password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, normaliseEmail(in.Email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.Password, in.Password) {
		return nil, ErrInvalidCredentials
	}
	if !u.EmailConfirmed {
		return nil, ErrEmailNotVerified
	}
	return u, nil
}

func (s *AuthService) User(ctx context.Context, id uint) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func tokenErr(err error) error {
	if errors.Is(err, auth.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}

// VerifyEmail confirms the account named by a verification token. Verifying
// twice is not an error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	id, err := auth.ParseToken(token, auth.PurposeEmailVerification)
	if err != nil {
		return nil, tokenErr(err)
	}
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !u.EmailConfirmed {
		if err := s.users.Update(ctx, u.ID, map[string]interface{}{"email_confirmed": true}); err != nil {
			return nil, err
		}
		u.EmailConfirmed = true
	}
	return u, nil
}

// ResendVerification mails a fresh link to an unverified account. Unknown
// and already verified addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, normaliseEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.EmailConfirmed {
		return nil
	}
	return s.sendVerification(ctx, u)
}

// ForgotPassword stores a reset token with its expiry and mails the link.
// Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, normaliseEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := auth.IssueToken(auth.PurposePasswordReset, u.ID, TokenTTL)
	if err != nil {
		return err
	}
	expiry := s.now().Add(TokenTTL).Unix()
	if err := s.users.Update(ctx, u.ID, map[string]interface{}{
		"reset_token":        token,
		"reset_token_expiry": expiry,
	}); err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, u.Email, token)
}

// ResetPassword consumes a reset token. The token must verify and match the
// stored token whose stored expiry has not passed.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	id, err := auth.ParseToken(token, auth.PurposePasswordReset)
	if err != nil {
		return tokenErr(err)
	}

	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTokenMismatch
	}
	if err != nil {
		return err
	}
	if u.ResetToken == nil || *u.ResetToken != token ||
		u.ResetTokenExpiry == nil || *u.ResetTokenExpiry < s.now().Unix() {
		return ErrTokenMismatch
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, u.ID, map[string]interface{}{
		"password":           hash,
		"reset_token":        nil,
		"reset_token_expiry": nil,
	})
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.Password, current) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password": hash})
}

// UpdateSettings stores the preferred currency and returns the fresh user.
func (s *AuthService) UpdateSettings(ctx context.Context, userID uint, currency string) (*models.User, error) {
	if err := s.users.Update(ctx, userID, map[string]interface{}{
		"currency": strings.ToUpper(currency),
	}); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

// DeleteAccount removes the user and everything they own after the password
// is confirmed.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.Password, password) {
		return ErrWrongPassword
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("account deleted", "user_id", userID)
	return nil
}
