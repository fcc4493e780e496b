package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/artisansally/ally/app/integrations/ebay"
	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/app/repositories"
	"github.com/artisansally/ally/pkg/auth"
	"github.com/artisansally/ally/pkg/crypt"
	"github.com/artisansally/ally/pkg/logger"
)

// StateTTL bounds how long a seller may sit on the eBay consent page.
const StateTTL = 10 * time.Minute

type DraftInput struct {
	Title       string   `json:"title"       validate:"required,max=80"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price"       validate:"required,gt=0"`
	ImageURLs   []string `json:"image_urls"  validate:"max=12"`
}

type PublisherService struct {
	client    *ebay.Client
	publisher *ebay.Publisher
	tokens    *repositories.EbayTokenRepository
	now       func() time.Time
}

func NewPublisherService(db *gorm.DB, client *ebay.Client, publisher *ebay.Publisher) *PublisherService {
	return &PublisherService{
		client:    client,
		publisher: publisher,
		tokens:    repositories.NewEbayTokenRepository(db),
		now:       time.Now,
	}
}

// AuthURL builds the consent URL. The state is a short-lived signed token
// naming the user, so a callback cannot attach tokens to another account.
func (s *PublisherService) AuthURL(userID uint) (string, error) {
	state, err := auth.IssueToken(auth.PurposeEbayOAuth, userID, StateTTL)
	if err != nil {
		return "", err
	}
	return s.client.AuthURL(state), nil
}

// HandleCallback exchanges the authorization code and stores the refresh
// token sealed, replacing any earlier one.
func (s *PublisherService) HandleCallback(ctx context.Context, code, state string) error {
	if code == "" || state == "" {
		return ErrInvalidToken
	}
	userID, err := auth.ParseToken(state, auth.PurposeEbayOAuth)
	if err != nil {
		return tokenErr(err)
	}

	grant, err := s.client.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}
	sealed, err := crypt.Encrypt(grant.RefreshToken)
	if err != nil {
		return err
	}
	if err := s.tokens.Save(ctx, &models.EbayToken{
		UserID:             userID,
		RefreshToken:       sealed,
		RefreshTokenExpiry: grant.RefreshExpiry,
	}); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("ebay account connected", "user_id", userID)
	return nil
}

// accessToken turns the user's stored refresh token into an access token.
func (s *PublisherService) accessToken(ctx context.Context, userID uint) (string, error) {
	t, err := s.tokens.FindByUser(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrEbayNotConnected
	}
	if err != nil {
		return "", err
	}
	if t.Expired(s.now()) {
		return "", ErrEbayNotConnected
	}
	refresh, err := crypt.Decrypt(t.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEbayAuth, err)
	}
	token, err := s.client.UserAccessToken(ctx, refresh)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEbayAuth, err)
	}
	return token, nil
}

// CreateDraft publishes an unlisted offer on the user's eBay account.
func (s *PublisherService) CreateDraft(ctx context.Context, userID uint, in DraftInput) (ebay.DraftResult, error) {
	token, err := s.accessToken(ctx, userID)
	if err != nil {
		logger.WithCtx(ctx).Warn("ebay user token unavailable", "user_id", userID, "error", err)
		return ebay.DraftResult{}, err
	}
	return s.publisher.CreateDraft(ctx, token, ebay.Draft{
		Title:       in.Title,
		Description: in.Description,
		Price:       or(in.Price, 0),
		ImageURLs:   in.ImageURLs,
	})
}
