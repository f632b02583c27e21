package middleware

import (
	"log"
	"net/http"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ErrorMiddleware renders the last error recorded on the context
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last()

		statusCode := utils.StatusFor(err.Err)
		if code, ok := err.Meta.(int); ok && code != 0 {
			statusCode = code
		}

		message := apperr.Message(err.Err)
		if statusCode >= http.StatusInternalServerError {
			log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err.Err)
			if apperr.KindOf(err.Err) == "" {
				message = "Internal server error"
			}
		}
		if message == "" {
			message = "Internal server error"
		}

		c.JSON(statusCode, gin.H{"message": message})
	}
}

// RecoveryMiddleware handles panics and prevents server crashes
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"message": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Route not found",
		})
	}
}
