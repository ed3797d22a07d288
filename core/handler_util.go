package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// renderServerError shows the generic error page. Details stay in the log.
func renderServerError(c *gin.Context) {
	c.HTML(http.StatusInternalServerError, "error.tmpl", gin.H{
		"message": "Something went wrong. Please try again later.",
	})
}
