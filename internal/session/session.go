// Package session resolves the caller's identity marker for each request.
//
// Two credentials are recognized: the session cookie issued at login, looked
// up through the cache and database, and a bearer JWT signed by this server.
// A missing or invalid credential resolves to the empty identity; that is the
// unauthenticated case, not an error.
package session

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/charleshuang3/errgate/internal/gormw"
	"github.com/charleshuang3/errgate/internal/storage"
)

var (
	logger = log.With().Str("component", "session").Logger()
)

const (
	// KeyIdentity is the gin context key the resolved identity is stored
	// under. Handlers and the gate read it through Identity().
	KeyIdentity = "AUTH_IDENTITY"
)

type Resolver struct {
	db       *gormw.DB
	sessions *storage.SessionCache

	publicKey  jwk.Key
	issuer     string
	cookieName string
}

func NewResolver(db *gormw.DB, sessions *storage.SessionCache, publicKey jwk.Key, issuer, cookieName string) *Resolver {
	return &Resolver{
		db:         db,
		sessions:   sessions,
		publicKey:  publicKey,
		issuer:     issuer,
		cookieName: cookieName,
	}
}

// Middleware resolves the identity once per request and hands it to later
// handlers via the context key.
func (r *Resolver) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity := r.resolve(c); identity != "" {
			c.Set(KeyIdentity, identity)
		}
		c.Next()
	}
}

// Identity returns the identity marker resolved by the middleware, or ""
// for an unauthenticated caller.
func Identity(c *gin.Context) string {
	identity, _ := c.Get(KeyIdentity)
	if s, ok := identity.(string); ok {
		return s
	}
	return ""
}

func (r *Resolver) resolve(c *gin.Context) string {
	if identity := r.fromCookie(c); identity != "" {
		return identity
	}
	return r.fromBearer(c)
}

func (r *Resolver) fromCookie(c *gin.Context) string {
	token, err := c.Cookie(r.cookieName)
	if err != nil || token == "" {
		return ""
	}

	s, ok := r.sessions.Get(token)
	if !ok {
		s, err = storage.GetSessionByToken(r.db, token)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error().Err(err).Msg("Database error during session lookup")
			}
			return ""
		}
		r.sessions.Set(token, s)
	}

	if !s.Valid() {
		return ""
	}

	return s.Username
}

func (r *Resolver) fromBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return ""
	}

	// Parse also verifies the signature and expiration.
	verifiedToken, err := jwt.Parse([]byte(tokenString), jwt.WithKey(jwa.RS256(), r.publicKey))
	if err != nil {
		return ""
	}

	iss, ok := verifiedToken.Issuer()
	if !ok || iss != r.issuer {
		return ""
	}

	sub, ok := verifiedToken.Subject()
	if !ok {
		return ""
	}

	return sub
}
