package response

import "github.com/gin-gonic/gin"

// Error writes the generic JSON error body used by every route boundary.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// Success writes the bare confirmation body used by delete endpoints.
func Success(c *gin.Context) {
	c.JSON(200, gin.H{"success": true})
}
