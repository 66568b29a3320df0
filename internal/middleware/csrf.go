package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CSRFCookie = "csrf_token"
	CSRFHeader = "X-CSRFToken"
)

// CSRFToken issues a double-submit token as both a cookie and a JSON body.
func CSRFToken(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(CSRFCookie, token, 0, "/", "", secure, false)
		c.JSON(http.StatusOK, gin.H{"csrf_token": token})
	}
}

// CSRF rejects mutating requests whose header token does not match the cookie.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		cookie, err := c.Cookie(CSRFCookie)
		header := c.GetHeader(CSRFHeader)
		if err != nil || cookie == "" || header == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "csrf token mismatch"})
			return
		}
		c.Next()
	}
}
