// Package orm holds reusable GORM scopes.
package orm

import "gorm.io/gorm"

// OwnedBy restricts a query to rows whose user_id is userID.
//
//	db.Scopes(orm.OwnedBy(uid)).Find(&materials)
func OwnedBy(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}
