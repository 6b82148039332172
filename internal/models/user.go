package models

import (
	"github.com/jinzhu/gorm"
)

// User represents a customer account. Guest sessions get a synthetic
// user whose email is derived from the guest cookie.
type User struct {
	gorm.Model
	Name         string
	Email        string `gorm:"unique_index;not null"`
	Phone        string
	PasswordHash string `gorm:"not null"`
}

// IsGuest reports whether the account was auto-created for a cookie
// identity rather than registered through signup.
func (u *User) IsGuest() bool {
	return u.Name == "Guest"
}
