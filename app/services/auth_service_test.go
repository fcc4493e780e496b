package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artisansally/ally/app/models"
	"github.com/artisansally/ally/app/services"
	"github.com/artisansally/ally/pkg/auth"
	"github.com/artisansally/ally/pkg/database"
	"github.com/artisansally/ally/pkg/testkit"
)

func newAuth(t *testing.T) (*services.AuthService, *testkit.Mailbox) {
	t.Helper()
	db := testkit.NewDB(t)
	mb := testkit.CaptureMail(t)
	return services.NewAuthService(db, services.NewMailer()), mb
}

func register(t *testing.T, s *services.AuthService, email string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), services.RegisterInput{Email: email, Password: "s3cret-pass"})
	require.NoError(t, err)
	return u
}

func TestRegister_CreatesUnverifiedUserAndMailsLink(t *testing.T) {
	s, mb := newAuth(t)

	u := register(t, s, "  Maker@Example.com ")
	assert.Equal(t, "maker@example.com", u.Email)
	assert.Equal(t, "GBP", u.Currency)
	assert.False(t, u.EmailConfirmed)

	msg, ok := mb.Last()
	require.True(t, ok)
	assert.Equal(t, "maker@example.com", msg.To[0].Email)
	assert.Contains(t, msg.HTML, "/verify-email/")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s, _ := newAuth(t)
	register(t, s, "dup@example.com")

	_, err := s.Register(context.Background(), services.RegisterInput{Email: "DUP@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestRegister_MailFailureIsNotFatal(t *testing.T) {
	s, mb := newAuth(t)
	mb.Err = assert.AnError

	_, err := s.Register(context.Background(), services.RegisterInput{Email: "a@example.com", Password: "s3cret-pass"})
	assert.NoError(t, err)
}

func TestLogin_RequiresVerification(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()
	u := register(t, s, "v@example.com")

	_, err := s.Login(ctx, services.LoginInput{Email: "v@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, services.ErrEmailNotVerified)

	_, err = s.Login(ctx, services.LoginInput{Email: "v@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	token, err := auth.IssueToken(auth.PurposeEmailVerification, u.ID, time.Hour)
	require.NoError(t, err)
	verified, err := s.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, verified.EmailConfirmed)

	got, err := s.Login(ctx, services.LoginInput{Email: "V@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Login(ctx, services.LoginInput{Email: "v@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = s.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestVerifyEmail_RejectsOtherPurposes(t *testing.T) {
	s, _ := newAuth(t)
	u := register(t, s, "p@example.com")

	token, err := auth.IssueToken(auth.PurposePasswordReset, u.ID, time.Hour)
	require.NoError(t, err)

	_, err = s.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = s.VerifyEmail(context.Background(), "garbage")
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestResendVerification(t *testing.T) {
	s, mb := newAuth(t)
	ctx := context.Background()
	register(t, s, "r@example.com")

	require.NoError(t, s.ResendVerification(ctx, "r@example.com"))
	assert.Len(t, mb.Sent(), 2)

	require.NoError(t, s.ResendVerification(ctx, "unknown@example.com"))
	assert.Len(t, mb.Sent(), 2)
}

func resetTokenFromMail(t *testing.T, mb *testkit.Mailbox) string {
	t.Helper()
	msg, ok := mb.Last()
	require.True(t, ok)
	assert.Equal(t, "Password Reset Request for Artisan's Ally", msg.Subject)
	_, rest, found := strings.Cut(msg.HTML, "/reset-password/")
	require.True(t, found)
	token, _, _ := strings.Cut(rest, `"`)
	return token
}

func TestPasswordReset_Flow(t *testing.T) {
	s, mb := newAuth(t)
	ctx := context.Background()
	u := register(t, s, "reset@example.com")

	require.NoError(t, s.ForgotPassword(ctx, "reset@example.com"))
	token := resetTokenFromMail(t, mb)

	require.NoError(t, s.ResetPassword(ctx, token, "brand-new-pass"))

	fresh, err := s.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.ResetToken)
	assert.Nil(t, fresh.ResetTokenExpiry)
	assert.True(t, auth.CheckPassword(fresh.Password, "brand-new-pass"))

	// consumed
	assert.ErrorIs(t, s.ResetPassword(ctx, token, "again-pass"), services.ErrTokenMismatch)
}

func TestPasswordReset_OnlyLatestTokenCounts(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()
	u := register(t, s, "latest@example.com")

	stale, err := auth.IssueToken(auth.PurposePasswordReset, u.ID, 2*time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.ForgotPassword(ctx, "latest@example.com"))

	assert.ErrorIs(t, s.ResetPassword(ctx, stale, "brand-new-pass"), services.ErrTokenMismatch)
	assert.ErrorIs(t, s.ResetPassword(ctx, "not-a-token", "brand-new-pass"), services.ErrInvalidToken)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	s, mb := newAuth(t)
	require.NoError(t, s.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, mb.Sent())
}

func TestForgotPassword_MailFailure(t *testing.T) {
	s, mb := newAuth(t)
	register(t, s, "fail@example.com")
	mb.Err = assert.AnError

	err := s.ForgotPassword(context.Background(), "fail@example.com")
	assert.ErrorIs(t, err, services.ErrMailDelivery)
}

func TestChangePassword(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()
	u := register(t, s, "change@example.com")

	assert.ErrorIs(t, s.ChangePassword(ctx, u.ID, "nope-nope", "next-pass-1"), services.ErrWrongPassword)
	require.NoError(t, s.ChangePassword(ctx, u.ID, "s3cret-pass", "next-pass-1"))

	fresh, err := s.User(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(fresh.Password, "next-pass-1"))
}

func TestUpdateSettings_UppercasesCurrency(t *testing.T) {
	s, _ := newAuth(t)
	u := register(t, s, "cur@example.com")

	fresh, err := s.UpdateSettings(context.Background(), u.ID, "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", fresh.Currency)
	assert.Equal(t, services.UserView{Email: "cur@example.com", Currency: "EUR"}, services.ViewOf(fresh))
}

func TestDeleteAccount(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()
	u := register(t, s, "bye@example.com")

	assert.ErrorIs(t, s.DeleteAccount(ctx, u.ID, "wrong-pass"), services.ErrWrongPassword)
	require.NoError(t, s.DeleteAccount(ctx, u.ID, "s3cret-pass"))

	_, err := s.User(ctx, u.ID)
	assert.Error(t, err)
}

// seedWorkshop gives u one material, one product using it and an eBay token.
func seedWorkshop(t *testing.T, u *models.User) {
	t.Helper()
	db := database.DB
	m := &models.Material{UserID: u.ID, Name: "Resin", Cost: 10, Quantity: 100, Unit: "g"}
	require.NoError(t, db.Create(m).Error)
	p := &models.Product{
		UserID:       u.ID,
		Name:         "Tray",
		ProfitMargin: models.DefaultProfitMargin,
		Recipe:       []models.RecipeItem{{MaterialID: m.ID, Quantity: 25}},
	}
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Create(&models.EbayToken{UserID: u.ID, RefreshToken: "sealed", RefreshTokenExpiry: time.Now().Add(time.Hour).Unix()}).Error)
}

func countRows(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.DB.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestDeleteAccount_RemovesOwnedRowsOnly(t *testing.T) {
	s, _ := newAuth(t)
	ctx := context.Background()
	alice := register(t, s, "alice@example.com")
	bob := register(t, s, "bob@example.com")
	seedWorkshop(t, alice)
	seedWorkshop(t, bob)

	require.NoError(t, s.DeleteAccount(ctx, alice.ID, "s3cret-pass"))

	for _, id := range []uint{alice.ID, bob.ID} {
		want := int64(1)
		if id == alice.ID {
			want = 0
		}
		assert.Equal(t, want, countRows(t, &models.User{}, "id = ?", id))
		assert.Equal(t, want, countRows(t, &models.Material{}, "user_id = ?", id))
		assert.Equal(t, want, countRows(t, &models.Product{}, "user_id = ?", id))
		assert.Equal(t, want, countRows(t, &models.EbayToken{}, "user_id = ?", id))
		assert.Equal(t, want, countRows(t, &models.RecipeItem{},
			"product_id IN (?)", database.DB.Model(&models.Product{}).Select("id").Where("user_id = ?", id)))
	}
	assert.Equal(t, int64(1), countRows(t, &models.RecipeItem{}, "1 = 1"))
}
