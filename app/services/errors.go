// Package services holds the application's use cases. Controllers translate
// the sentinel errors below into HTTP statuses.
package services

import "errors"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	// ErrTokenMismatch means the token verifies but is not the one on file,
	// or the stored expiry has passed.
	ErrTokenMismatch    = errors.New("token does not match")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrMailDelivery     = errors.New("mail delivery failed")
	ErrMailUnconfigured = errors.New("mail is not configured")
	ErrEbayNotConnected = errors.New("ebay account not connected")
	ErrEbayAuth         = errors.New("ebay authentication failed")
	ErrInvalidRecipe    = errors.New("recipe references unknown materials")
	ErrNoKeywords       = errors.New("no keywords provided")
)

// RecipeError lists the recipe lines whose material is missing or owned by
// someone else, keyed like validation errors ("recipe.2.material_id").
type RecipeError struct {
	Fields map[string]string
}

func (e *RecipeError) Error() string { return ErrInvalidRecipe.Error() }

func (e *RecipeError) Unwrap() error { return ErrInvalidRecipe }
