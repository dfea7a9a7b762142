package auth

import (
	_ "embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/charleshuang3/errgate/internal/models"
	"github.com/charleshuang3/errgate/internal/storage"
)

//go:embed templates/login_page.html
var loginPageTemplateFile string

// loginPageTemplate is the HTML template for the login page.
var loginPageTemplate = template.Must(template.New("loginPage").Parse(loginPageTemplateFile))

// LoginPageData holds the data to be passed to the login page template.
type LoginPageData struct {
	Title string
}

func (p *Provider) loginPage(c *gin.Context) {
	data := &LoginPageData{
		Title: p.config.Title,
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := loginPageTemplate.Execute(c.Writer, data); err != nil {
		logger.Error().Err(err).Msg("Failed to render login page")
		c.String(http.StatusInternalServerError, "Failed to render login page")
	}
}

type handleLoginParams struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type handleLoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// handleLogin handles user login with username and password.
func (p *Provider) handleLogin(c *gin.Context) {
	params := &handleLoginParams{}

	// 1. Use gin binding; if missing params, response 400 bad request
	if err := c.ShouldBind(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	// 2. Check user in db (username or email)
	user, err := storage.GetUserByUsernameOrEmail(p.db, params.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Generic message for security reasons
			p.render401(c, "Invalid username or password")
			return
		}
		logger.Error().Err(err).Msg("Database error during login")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	// 3. Check password use user.CheckPassword()
	if !user.CheckPassword(params.Password) {
		p.render401(c, "Invalid username or password")
		return
	}

	p.successfulLogin(user, c)
}

func (p *Provider) successfulLogin(user *models.User, c *gin.Context) {
	// 1. Create a session using UUID token
	token := uuid.New().String()
	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: time.Now().Add(p.sessionTTL()),
	}

	if err := storage.CreateSession(p.db, session); err != nil {
		logger.Error().Err(err).Msg("Database error during session creation")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}
	p.sessions.Set(token, session)

	// 2. Set the session cookie for browser callers
	c.SetCookie(p.config.CookieName, token, int(p.sessionTTL().Seconds()), "/",
		"", p.config.CookieSecure, true)

	// 3. Mint an access token for API callers
	accessToken, err := p.genAccessToken(user)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to gen access token")
		c.String(http.StatusInternalServerError, "Failed to gen access token")
		return
	}

	c.JSON(http.StatusOK, &handleLoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(p.accessTokenTTL().Seconds()),
	})
}

// handleLogout revokes the current session and clears the cookie.
func (p *Provider) handleLogout(c *gin.Context) {
	token, err := c.Cookie(p.config.CookieName)
	if err != nil || token == "" {
		c.String(http.StatusBadRequest, "No session")
		return
	}

	if err := storage.RevokeSession(p.db, token); err != nil {
		logger.Error().Err(err).Msg("Database error during logout")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}
	p.sessions.Delete(token)

	c.SetCookie(p.config.CookieName, "", -1, "/", "", p.config.CookieSecure, true)
	c.String(http.StatusOK, "Logged out")
}

var (
	//go:embed templates/401.html
	err401TemplateFile string

	err401Template = template.Must(template.New("401").Parse(err401TemplateFile))
)

type ErrorPageData struct {
	ErrorMessage string
}

func (p *Provider) render401(c *gin.Context, errorMessage string) {
	data := ErrorPageData{ErrorMessage: errorMessage}
	c.Status(http.StatusUnauthorized)
	err := err401Template.Execute(c.Writer, data)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to render 401 template")
		c.String(http.StatusInternalServerError, "Internal Server Error")
	}
}
