package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlog "gorm.io/gorm/logger"

	"github.com/charleshuang3/errgate/internal/gormw"
	"github.com/charleshuang3/errgate/internal/models"
)

func setupTestDB(t *testing.T) *gormw.DB {
	t.Helper()

	db, err := gormw.Open(&gormw.Config{
		LogLevel: gormlog.Silent,
	})
	require.NoError(t, err)

	err = db.Migrate()
	require.NoError(t, err)

	return db
}

func TestSessionCRUD(t *testing.T) {
	db := setupTestDB(t)

	session := &models.Session{
		Token:     "token-1",
		UserID:    42,
		Username:  "user123",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, CreateSession(db, session))

	got, err := GetSessionByToken(db, "token-1")
	require.NoError(t, err)
	assert.Equal(t, uint(42), got.UserID)
	assert.Equal(t, "user123", got.Username)
	assert.True(t, got.Valid())

	require.NoError(t, RevokeSession(db, "token-1"))

	got, err = GetSessionByToken(db, "token-1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)
	assert.False(t, got.Valid())

	_, err = GetSessionByToken(db, "no-such-token")
	assert.Error(t, err)
}

func TestSessionCache(t *testing.T) {
	cache := NewSessionCache()

	session := &models.Session{
		Token:     "token-1",
		Username:  "user123",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	_, ok := cache.Get("token-1")
	assert.False(t, ok)

	cache.Set("token-1", session)
	got, ok := cache.Get("token-1")
	require.True(t, ok)
	assert.Equal(t, "user123", got.Username)

	cache.Delete("token-1")
	_, ok = cache.Get("token-1")
	assert.False(t, ok)
}

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)

	user := &models.User{
		Username: "user123",
		Email:    "user123@example.com",
	}
	require.NoError(t, CreateUser(db, user))

	byUsername, err := GetUserByUsername(db, "user123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	byEmail, err := GetUserByUsernameOrEmail(db, "user123@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := GetUserByID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "user123", byID.Username)

	_, err = GetUserByUsername(db, "nobody")
	assert.Error(t, err)
}
