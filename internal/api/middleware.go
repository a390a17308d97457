package api

import (
	"github.com/gin-gonic/gin"
)

// Constants for context keys
const (
	ContextDeviceIDKey = "deviceID"
	// DeviceIDHeader is the header anonymous clients tag requests with. It is
	// a client-generated opaque string, not a credential.
	DeviceIDHeader = "device-id"
)

// DeviceIDMiddleware extracts the optional device-id header and stores it in
// the request context for downstream handlers. Requests without the header
// pass through untouched.
func DeviceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if deviceID := c.GetHeader(DeviceIDHeader); deviceID != "" {
			c.Set(ContextDeviceIDKey, deviceID)
		}
		c.Next()
	}
}

// getDeviceIDFromContext returns the device ID set by DeviceIDMiddleware,
// or "" when the request carried none.
func getDeviceIDFromContext(c *gin.Context) string {
	idRaw, exists := c.Get(ContextDeviceIDKey)
	if !exists {
		return ""
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return ""
	}
	return idStr
}

// Helper to return a JSON error response and abort the request.
func abortWithMessage(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

// abortWithError attaches the underlying error text next to the generic
// message, matching the {message, error} shape clients pattern-match on.
func abortWithError(c *gin.Context, code int, message string, err error) {
	if err == nil {
		abortWithMessage(c, code, message)
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"message": message, "error": err.Error()})
}
