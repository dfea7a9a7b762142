package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charleshuang3/errgate/internal/session"
	"github.com/charleshuang3/errgate/internal/storage"
)

type handleUserInfoResponse struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Roles    string `json:"roles,omitempty"`
}

// handleUserInfo returns the profile of the authenticated caller.
func (p *Provider) handleUserInfo(c *gin.Context) {
	identity := session.Identity(c)
	if identity == "" {
		responseErrorAndLog(c, http.StatusUnauthorized, "Unauthenticated userinfo request")
		return
	}

	user, err := storage.GetUserByUsername(p.db, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Session outlived the user row.
			responseErrorAndLog(c, http.StatusUnauthorized, "Session for unknown user "+identity)
			return
		}
		logger.Error().Err(err).Msg("Database error during userinfo")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, &handleUserInfoResponse{
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Roles:    user.Roles,
	})
}
