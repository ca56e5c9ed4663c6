package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/sitecheck/models"
)

// abort stops the chain with the response shape every endpoint uses.
func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ValidateResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}
