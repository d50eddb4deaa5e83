package models

import "gorm.io/gorm"

// User is an account that can upload and manage documents.
//
// The first registered user becomes the administrator; afterwards public
// registration closes and only the administrator may create accounts.
type User struct {
	gorm.Model

	Email    string `gorm:"size:120;uniqueIndex;not null"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialized
	IsAdmin  bool   `gorm:"not null;default:false"`
}

func (User) TableName() string {
	return "users"
}
