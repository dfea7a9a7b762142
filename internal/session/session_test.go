package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlog "gorm.io/gorm/logger"

	"github.com/charleshuang3/errgate/internal/gormw"
	"github.com/charleshuang3/errgate/internal/models"
	"github.com/charleshuang3/errgate/internal/storage"
	"github.com/charleshuang3/errgate/testdata"
)

const (
	testIssuer     = "http://localhost:8080"
	testCookieName = "errgate_session"
)

func setupTestResolver(t *testing.T) (*Resolver, *gormw.DB, jwk.Key) {
	t.Helper()

	db, err := gormw.Open(&gormw.Config{
		LogLevel: gormlog.Silent,
	})
	require.NoError(t, err)

	err = db.Migrate()
	require.NoError(t, err)

	priv, err := jwk.ParseKey([]byte(testdata.PrivateKeyPEM), jwk.WithPEM(true))
	require.NoError(t, err)
	pub, err := priv.PublicKey()
	require.NoError(t, err)

	resolver := NewResolver(db, storage.NewSessionCache(), pub, testIssuer, testCookieName)
	return resolver, db, priv
}

func setupTestRouter(resolver *Resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(resolver.Middleware())
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, Identity(c))
	})
	return router
}

func signTestToken(t *testing.T, priv jwk.Key, issuer, subject string, expiresIn time.Duration) string {
	t.Helper()

	token, err := jwt.NewBuilder().
		Issuer(issuer).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(expiresIn)).
		Subject(subject).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), priv))
	require.NoError(t, err)

	return string(signed)
}

func TestResolver_SessionCookie(t *testing.T) {
	resolver, db, _ := setupTestResolver(t)
	router := setupTestRouter(resolver)

	require.NoError(t, storage.CreateSession(db, &models.Session{
		Token:     "valid-token",
		UserID:    1,
		Username:  "user123",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, storage.CreateSession(db, &models.Session{
		Token:     "expired-token",
		UserID:    2,
		Username:  "gone",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, storage.CreateSession(db, &models.Session{
		Token:     "revoked-token",
		UserID:    3,
		Username:  "banned",
		ExpiresAt: time.Now().Add(time.Hour),
		Revoked:   true,
	}))

	tests := []struct {
		name         string
		cookie       string
		wantIdentity string
	}{
		{name: "valid session", cookie: "valid-token", wantIdentity: "user123"},
		{name: "expired session", cookie: "expired-token", wantIdentity: ""},
		{name: "revoked session", cookie: "revoked-token", wantIdentity: ""},
		{name: "unknown token", cookie: "nope", wantIdentity: ""},
		{name: "no cookie", cookie: "", wantIdentity: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: testCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantIdentity, rec.Body.String())
		})
	}
}

func TestResolver_SessionCookie_CacheHit(t *testing.T) {
	resolver, db, _ := setupTestResolver(t)
	router := setupTestRouter(resolver)

	require.NoError(t, storage.CreateSession(db, &models.Session{
		Token:     "cached-token",
		UserID:    1,
		Username:  "user123",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "cached-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, "user123", rec.Body.String())

	// Second lookup is served from the cache even if the row is gone.
	db.Where("token = ?", "cached-token").Delete(&models.Session{})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "user123", rec.Body.String())
}

func TestResolver_BearerToken(t *testing.T) {
	resolver, _, priv := setupTestResolver(t)
	router := setupTestRouter(resolver)

	tests := []struct {
		name         string
		authHeader   string
		wantIdentity string
	}{
		{
			name:         "valid token",
			authHeader:   "Bearer " + signTestToken(t, priv, testIssuer, "user123", time.Hour),
			wantIdentity: "user123",
		},
		{
			name:         "expired token",
			authHeader:   "Bearer " + signTestToken(t, priv, testIssuer, "user123", -time.Hour),
			wantIdentity: "",
		},
		{
			name:         "wrong issuer",
			authHeader:   "Bearer " + signTestToken(t, priv, "http://evil.example.com", "user123", time.Hour),
			wantIdentity: "",
		},
		{
			name:         "garbage token",
			authHeader:   "Bearer not.a.jwt",
			wantIdentity: "",
		},
		{
			name:         "not a bearer scheme",
			authHeader:   "Basic dXNlcjpwYXNz",
			wantIdentity: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", tt.authHeader)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantIdentity, rec.Body.String())
		})
	}
}
