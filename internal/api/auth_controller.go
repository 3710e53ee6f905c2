package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bistrotrack/server/internal/models"
)

const userContextKey = "current_user"

// AuthController manages API endpoints for authentication and accounts
type AuthController struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthController creates a new auth controller
func NewAuthController(db *gorm.DB, jwtSecret string) *AuthController {
	if jwtSecret == "" {
		jwtSecret = "dev-change-me"
	}
	return &AuthController{
		db:       db,
		secret:   []byte(jwtSecret),
		tokenTTL: 8 * time.Hour,
	}
}

type accessClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed token back to the client
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login handles password login
// POST /api/v1/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	var user models.User
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if err := ac.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid username or password",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to verify credentials",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid username or password",
		})
		return
	}

	if user.Status != models.UserStatusActive {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Account is inactive",
		})
		return
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	ac.db.Save(&user)

	expiresAt := now.Add(ac.tokenTTL)
	token, err := ac.sign(&user, expiresAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to issue token",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		ExpiresAt: expiresAt.Unix(),
	})
}

// Me returns the authenticated account
// GET /api/v1/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated",
		})
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUserRequest is the payload for creating a back-office account
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
}

// CreateUser creates a new back-office account (admin only)
// POST /api/v1/auth/users
func (ac *AuthController) CreateUser(c *gin.Context) {
	actor := CurrentUser(c)
	if actor == nil || actor.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Only administrators may create accounts",
		})
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 4 || strings.ContainsAny(username, " \t\r\n") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Username must be at least 4 characters with no spaces",
		})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Password must be at least 6 characters",
		})
		return
	}

	role := models.UserRole(req.Role)
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleViewer:
	case "":
		role = models.RoleViewer
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown role",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to hash password",
		})
		return
	}

	user := models.User{
		Username:     username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserStatusActive,
	}
	if err := ac.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to create account",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers returns all back-office accounts (admin only)
// GET /api/v1/auth/users
func (ac *AuthController) ListUsers(c *gin.Context) {
	actor := CurrentUser(c)
	if actor == nil || actor.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Only administrators may list accounts",
		})
		return
	}

	var users []models.User
	if err := ac.db.Order("username ASC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load accounts",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// ChangePasswordRequest is the payload for changing the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword lets the authenticated user rotate their own password
// POST /api/v1/auth/change-password
func (ac *AuthController) ChangePassword(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated",
		})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request parameters",
			"details": err.Error(),
		})
		return
	}
	if len(req.NewPassword) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Password must be at least 6 characters",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Current password is incorrect",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to hash password",
		})
		return
	}

	if err := ac.db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update password",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated",
	})
}

func (ac *AuthController) sign(user *models.User, expiresAt time.Time) (string, error) {
	claims := accessClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "bistrotrack",
		},
		Role: string(user.Role),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(ac.secret)
}

func (ac *AuthController) parseToken(tokenStr string) (*accessClaims, error) {
	claims := &accessClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ac.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

// RequireAuth validates the Bearer token and loads the account into the
// request context.
func (ac *AuthController) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing bearer token",
			})
			return
		}

		claims, err := ac.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		var user models.User
		if err := ac.db.Where("id = ?", claims.Subject).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Account not found",
			})
			return
		}
		if user.Status != models.UserStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Account is inactive",
			})
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// RequireWrite blocks viewer accounts from mutating endpoints
func RequireWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not authenticated",
			})
			return
		}
		if !user.CanWrite() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Read-only account",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the account loaded by RequireAuth, or nil
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
