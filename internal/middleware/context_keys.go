package middleware

import "github.com/gin-gonic/gin"

// operatorIDKey is the key used to store the authenticated operator's ID.
const operatorIDKey = contextKey("operatorID")

// GetOperatorIDFromContext retrieves the authenticated operator ID from the
// Gin context. It returns the ID and a boolean indicating if it was found.
func GetOperatorIDFromContext(c *gin.Context) (string, bool) {
	val := c.Request.Context().Value(operatorIDKey)
	if val == nil {
		return "", false
	}
	operatorID, ok := val.(string)
	return operatorID, ok
}
