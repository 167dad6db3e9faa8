// Package middleware contains Gin middleware functions.
// Middleware in Gin is a handler that runs before (or after) your route handler.
// It calls c.Next() to proceed or c.Abort() to stop the chain.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth returns middleware that validates API keys.
// The key can be provided via X-API-Key header or api_key query param
// (the query param is what an EventSource in a browser can send).
//
// With no keys configured the API is open: the server listens on localhost
// by default and a desktop widget should work without setup.
func APIKeyAuth(validKeys []string) gin.HandlerFunc {
	return keyAuth(validKeys, "missing API key", http.StatusUnauthorized, "invalid API key")
}

// AdminKeyAuth returns middleware that validates admin API keys.
// Same rules as APIKeyAuth, but a wrong key is 403 instead of 401.
func AdminKeyAuth(adminKeys []string) gin.HandlerFunc {
	return keyAuth(adminKeys, "missing admin API key", http.StatusForbidden, "invalid admin API key")
}

func keyAuth(keys []string, missingMsg string, invalidStatus int, invalidMsg string) gin.HandlerFunc {
	// Go doesn't have a built-in Set type, so we use map[string]struct{}.
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			keySet[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if len(keySet) == 0 {
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}

		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": missingMsg})
			return
		}

		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(invalidStatus, gin.H{"error": invalidMsg})
			return
		}

		// Store the key in the context for downstream handlers (e.g., rate limiting).
		c.Set("api_key", key)
		c.Next()
	}
}
