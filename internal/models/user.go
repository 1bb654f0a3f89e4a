package models

import (
	"time"
)

type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string     `gorm:"size:254" json:"email"`
	FirstName string     `gorm:"size:150" json:"first_name"`
	LastName  string     `gorm:"size:150" json:"last_name"`
	Password  string     `gorm:"not null" json:"-"` // bcrypt hash
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	IsStaff   bool       `gorm:"not null;default:false" json:"is_staff"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	// No DeletedAt for hard delete
}

// Profile 用户资料，与 User 一对一
type Profile struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	UserID uint    `gorm:"not null;uniqueIndex" json:"user_id"`
	User   User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Bio    string  `gorm:"type:text;not null;default:''" json:"bio"`
	Avatar *string `gorm:"size:255" json:"avatar"` // storage reference, nil when unset
}
