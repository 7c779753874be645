package entity

import "time"

// User is the acting identity behind every mutation. Authentication happens
// in the JWT middleware; this record only carries what listings need to show.
type User struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Username    string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name        string     `json:"name" gorm:"size:64;not null"`
	Email       string     `json:"email" gorm:"size:128;uniqueIndex"`
	Role        string     `json:"role" gorm:"size:32;not null;default:designer"`
	Status      string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// User status
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User roles
const (
	UserRoleAdmin    = "admin"
	UserRoleDesigner = "designer"
	UserRoleDrafter  = "drafter"
	UserRoleViewer   = "viewer"
)
