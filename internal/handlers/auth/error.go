package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	cleanedErrorMessage = true
)

// responseErrorAndLog responds with a scrubbed error body and keeps the real
// reason in the server log only.
func responseErrorAndLog(c *gin.Context, httpCode int, errMsg string) {
	logger.Warn().Str("path", c.FullPath()).Msg(errMsg)
	if cleanedErrorMessage {
		c.String(httpCode, http.StatusText(httpCode))
	} else {
		c.String(httpCode, errMsg)
	}
}
