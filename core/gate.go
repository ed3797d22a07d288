package core

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireLogin lets requests with a live session through unchanged and
// redirects everyone else to /login without running the handler.
func RequireLogin(m *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok, err := m.CurrentUser(c)
		if err != nil {
			log.Printf("[gate] request_id=%s session lookup failed: %v", requestID(c), err)
			renderServerError(c)
			c.Abort()
			return
		}
		if !ok {
			m.metrics.recordGateRedirect()
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		// Protected pages must not be served from cache after logout.
		c.Header("Cache-Control", "no-store")
		c.Set(ctxUser, user)
		c.Next()
	}
}

// currentUser returns the user stored by RequireLogin.
func currentUser(c *gin.Context) User {
	v, _ := c.Get(ctxUser)
	u, _ := v.(User)
	return u
}
