package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Rishi9822/timetable-organizer-api/internal/middleware"
	"github.com/Rishi9822/timetable-organizer-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
