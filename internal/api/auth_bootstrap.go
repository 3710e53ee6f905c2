package api

import (
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

// validateBootstrapCredentials checks the env-provided initial admin
// credentials before any database work happens.
func validateBootstrapCredentials(username, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if len(username) < 4 || strings.ContainsAny(username, " \t\r\n") {
		return fmt.Errorf("ADMIN_USERNAME must be at least 4 characters with no spaces")
	}
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is not set")
	}
	if len(password) < 6 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 6 characters")
	}
	return nil
}

// EnsureInitialAdmin creates the first admin account when the users table is
// empty, so a fresh deploy can log in. Existing accounts always win: the env
// credentials are ignored once any user exists.
func EnsureInitialAdmin(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if err := validateBootstrapCredentials(username, password); err != nil {
		log.Printf("⚠️ No users exist and the initial admin cannot be created: %v", err)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     strings.ToLower(strings.TrimSpace(username)),
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Initial admin account '%s' created", admin.Username)
	return nil
}
