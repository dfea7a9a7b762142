package auth

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/charleshuang3/errgate/internal/models"
	"github.com/charleshuang3/errgate/internal/storage"
)

type handleRegisterParams struct {
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9-_]{4,12}$`)
)

const (
	allowedSpecialChars = `!@#$%^&*()_+\-=[]{};':"\|,.<>/?`
)

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters long.")
	}

	hasNumber := false
	hasLower := false
	hasUpper := false
	hasSpecial := false

	for _, char := range password {
		if char >= '0' && char <= '9' {
			hasNumber = true
		} else if char >= 'a' && char <= 'z' {
			hasLower = true
		} else if char >= 'A' && char <= 'Z' {
			hasUpper = true
		} else if strings.ContainsRune(allowedSpecialChars, char) {
			hasSpecial = true
		} else {
			// Character is not in any of the allowed groups
			return errors.New("Password contains disallowed characters.")
		}
	}

	if !hasNumber {
		return errors.New("Password must contain at least one number.")
	}
	if !hasLower {
		return errors.New("Password must contain at least one lowercase letter.")
	}
	if !hasUpper {
		return errors.New("Password must contain at least one uppercase letter.")
	}
	if !hasSpecial {
		return errors.New("Password must contain at least one special character.")
	}

	return nil
}

func (p *Provider) handleRegister(c *gin.Context) {
	if !p.config.OpenRegistration {
		responseErrorAndLog(c, http.StatusForbidden, "Registration is closed")
		return
	}

	params := &handleRegisterParams{}

	if err := c.ShouldBind(params); err != nil {
		responseErrorAndLog(c, http.StatusBadRequest, "Missing required parameters: "+err.Error())
		return
	}

	// Validate Username
	if !usernameRegex.MatchString(params.Username) {
		responseErrorAndLog(c, http.StatusBadRequest, "Invalid username format. Must be 4-12 characters and contain only letters, numbers, hyphens, and underscores.")
		return
	}

	// Validate Email
	if err := checkmail.ValidateFormat(params.Email); err != nil {
		responseErrorAndLog(c, http.StatusBadRequest, "Invalid email format.")
		return
	}

	// Validate Password
	if err := validatePassword(params.Password); err != nil {
		responseErrorAndLog(c, http.StatusBadRequest, err.Error())
		return
	}

	// Check if user already exists (username or email)
	_, err := storage.GetUserByUsernameOrEmail(p.db, params.Username)
	if err == nil { // User found with this username
		c.String(http.StatusConflict, "Username already exists.")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) { // Some other DB error
		logger.Error().Err(err).Str("username", params.Username).Msg("Error checking username existence")
		c.String(http.StatusInternalServerError, "Database error.")
		return
	}

	_, err = storage.GetUserByUsernameOrEmail(p.db, params.Email)
	if err == nil { // User found with this email
		c.String(http.StatusConflict, "Email already registered.")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) { // Some other DB error
		logger.Error().Err(err).Str("email", params.Email).Msg("Error checking email existence")
		c.String(http.StatusInternalServerError, "Database error.")
		return
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.String(http.StatusInternalServerError, "Error processing registration.")
		return
	}

	user := &models.User{
		Username:       params.Username,
		Email:          params.Email,
		HashedPassword: string(hashedPassword),
	}

	if err := storage.CreateUser(p.db, user); err != nil {
		logger.Error().Err(err).Msg("Failed to create user")
		c.String(http.StatusInternalServerError, "Error processing registration.")
		return
	}

	c.String(http.StatusCreated, "Registration successful.")
}
