package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/onboardhub/onboardhub-backend/internal/apierr"
)

// respondError maps service errors to HTTP responses. Unknown errors never
// leak their message to the client.
func respondError(c *gin.Context, err error) {
	var apiError *apierr.Error
	if errors.As(err, &apiError) {
		c.JSON(apiError.Status, gin.H{"error": apiError.Error(), "code": apiError.Code})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": apierr.CodeNotFound})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
