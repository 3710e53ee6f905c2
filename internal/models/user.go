package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole is the back-office access level
type UserRole string

const (
	RoleAdmin   UserRole = "admin"   // full access
	RoleManager UserRole = "manager" // day-to-day operations, imports, recosting
	RoleViewer  UserRole = "viewer"  // read-only dashboards
)

// UserStatus controls whether the account may log in
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// User is a back-office account
type User struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string         `json:"username" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string         `json:"name" gorm:"type:varchar(255)"`
	Email        *string        `json:"email" gorm:"type:varchar(255);uniqueIndex:idx_users_email,where:email IS NOT NULL"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"` // never serialized
	Role         UserRole       `json:"role" gorm:"type:varchar(50);not null;default:'viewer';index:idx_users_role_status"`
	Status       UserStatus     `json:"status" gorm:"type:varchar(20);not null;default:'active';index:idx_users_role_status"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// CanWrite reports whether the role may mutate data
func (u *User) CanWrite() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
