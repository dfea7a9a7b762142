package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/rs/zerolog/log"

	"github.com/charleshuang3/errgate/internal/gormw"
	"github.com/charleshuang3/errgate/internal/storage"
)

var (
	logger = log.With().Str("component", "auth").Logger()
)

const (
	defaultCookieName            = "errgate_session"
	defaultSessionTTLMinutes     = 12 * 60
	defaultAccessTokenTTLMinutes = 60
)

type Config struct {
	// Title shown on the login page.
	Title string `yaml:"title"`

	// PrivateKeyPEM is RSA 256 private key in PEM format, used to sign
	// access tokens.
	PrivateKeyPEM string `yaml:"private_key_pem"`

	// Issuer is the url of this gateway, set as token issuer.
	Issuer string `yaml:"issuer"`

	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`

	SessionTTLMinutes     uint `yaml:"session_ttl_minutes"`
	AccessTokenTTLMinutes uint `yaml:"access_token_ttl_minutes"`

	// OpenRegistration allows self-service registration. Off for staging
	// deployments where operators create accounts by hand.
	OpenRegistration bool `yaml:"open_registration"`
}

func (c *Config) Validate() {
	if c.Title == "" {
		logger.Fatal().Msg("AuthConfig: Title is missing")
	}
	if c.PrivateKeyPEM == "" {
		logger.Fatal().Msg("AuthConfig: PrivateKeyPEM is missing")
	}
	if c.Issuer == "" {
		logger.Fatal().Msg("AuthConfig: Issuer is missing")
	}

	c.applyDefault()
}

func (c *Config) applyDefault() {
	if c.CookieName == "" {
		c.CookieName = defaultCookieName
	}

	if c.SessionTTLMinutes == 0 {
		c.SessionTTLMinutes = defaultSessionTTLMinutes
	}

	if c.AccessTokenTTLMinutes == 0 {
		c.AccessTokenTTLMinutes = defaultAccessTokenTTLMinutes
	}
}

type Provider struct {
	config   *Config
	db       *gormw.DB
	sessions *storage.SessionCache

	privateKey jwk.Key
	publicKey  jwk.Key
}

func NewProvider(config *Config, db *gormw.DB, sessions *storage.SessionCache) *Provider {
	priv, err := jwk.ParseKey([]byte(config.PrivateKeyPEM), jwk.WithPEM(true))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse private key")
	}

	pub, err := priv.PublicKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to generate public key")
	}

	return &Provider{
		config:     config,
		db:         db,
		sessions:   sessions,
		privateKey: priv,
		publicKey:  pub,
	}
}

// PublicKey is the verification key for access tokens minted at login.
func (p *Provider) PublicKey() jwk.Key {
	return p.publicKey
}

func (p *Provider) sessionTTL() time.Duration {
	return time.Duration(p.config.SessionTTLMinutes) * time.Minute
}

func (p *Provider) accessTokenTTL() time.Duration {
	return time.Duration(p.config.AccessTokenTTLMinutes) * time.Minute
}

func (p *Provider) RegisterHandlers(rg *gin.RouterGroup) {
	authRoutes := rg.Group("/auth")
	{
		// Login page
		authRoutes.GET("/login", p.loginPage)

		// Username + password login
		authRoutes.POST("/login", p.handleLogin)

		// Revoke the current session
		authRoutes.POST("/logout", p.handleLogout)

		// Self-service register, only when open_registration is set
		authRoutes.POST("/register", p.handleRegister)

		// Identity of the current caller
		authRoutes.GET("/userinfo", p.handleUserInfo)
	}
}
