package models

import "time"

type UserRole string

const (
	RoleSeeker   UserRole = "seeker"
	RoleEmployer UserRole = "employer"
	RoleAdmin    UserRole = "admin"
)

// User is the stored profile of an authenticated account. ID is the uid
// issued by the identity service.
type User struct {
	ID             string    `gorm:"type:text;primary_key" json:"id"`
	Email          string    `gorm:"type:text;uniqueIndex" json:"email"`
	DisplayName    string    `gorm:"type:text" json:"display_name"`
	Role           UserRole  `gorm:"type:text;not null" json:"role"`
	ReferralPoints int64     `gorm:"not null" json:"referral_points"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
