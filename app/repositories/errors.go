// Package repositories persists users, materials, products and eBay tokens
// with GORM. Every method takes the request context.
package repositories

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means no row matched. Handlers answer 404.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the row belongs to another user. Handlers answer 403.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a uniqueness or dependency rule blocked the write.
	// Handlers answer 409.
	ErrConflict = errors.New("conflict")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}
	return err
}
