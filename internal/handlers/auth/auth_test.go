package auth

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	gormlog "gorm.io/gorm/logger"

	"github.com/charleshuang3/errgate/internal/gormw"
	"github.com/charleshuang3/errgate/internal/models"
	"github.com/charleshuang3/errgate/internal/session"
	"github.com/charleshuang3/errgate/internal/storage"
	"github.com/charleshuang3/errgate/testdata"
)

func setupTestProvider(t *testing.T) (*Provider, *gormw.DB, *gin.Engine) {
	t.Helper()

	database, err := gormw.Open(&gormw.Config{
		LogLevel: gormlog.Silent,
	})
	require.NoError(t, err)

	err = database.Migrate()
	require.NoError(t, err)

	// Create a test configuration
	config := &Config{
		Title:                 "Test Gateway",
		PrivateKeyPEM:         testdata.PrivateKeyPEM,
		Issuer:                "http://localhost:8080",
		CookieName:            "errgate_session",
		SessionTTLMinutes:     60,
		AccessTokenTTLMinutes: 5,
		OpenRegistration:      true,
	}

	sessions := storage.NewSessionCache()
	provider := NewProvider(config, database, sessions)

	resolver := session.NewResolver(database, sessions, provider.PublicKey(),
		config.Issuer, config.CookieName)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(resolver.Middleware())
	provider.RegisterHandlers(router.Group("/"))

	return provider, database, router
}

func createTestUser(t *testing.T, db *gormw.DB, username, password string) *models.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: string(hashedPassword),
	}
	err = db.Create(user).Error
	require.NoError(t, err)

	return user
}
