package middleware

import (
	"investbot/internal/telegram" // Webview launch data
	"net/http"                    // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// InitDataHeader carries the raw webview initData on every request
const InitDataHeader = "X-Telegram-Init-Data"

// userKey is the gin context key holding the *telegram.User
const userKey = "webappUser"

// WebAppIdentity extracts the webview user, if any, and stores it in context.
// Requests from a plain web page pass through without a user
func WebAppIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(InitDataHeader) // Get launch data header
		data, err := telegram.ParseInitData(raw)
		if err != nil {
			// Malformed launch data is treated like a plain web page
			logrus.WithFields(logrus.Fields{
				"error": err.Error(), // Parse failure
				"path":  c.FullPath(),
			}).Warn("Ignoring malformed init data")
		}
		if data != nil && data.User != nil {
			c.Set(userKey, data.User) // Store user in context
		}
		c.Next() // Proceed to the next handler
	}
}

// RequireWebAppUser rejects requests made outside the webview
func RequireWebAppUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if a user was extracted
		if _, ok := User(c); !ok {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Open the Mini App in Telegram to continue"})
			return
		}
		c.Next() // Proceed to the next handler
	}
}

// User returns the webview user stored by WebAppIdentity
func User(c *gin.Context) (*telegram.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	u, ok := v.(*telegram.User)
	return u, ok
}
