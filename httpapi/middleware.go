package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-storesync/core"
	"go.uber.org/zap"
)

const ContextKeyAdminSubject = "admin_subject"

// RequestLogger logs each request using zap.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// AdminAuth rejects requests without a valid HS256 bearer token.
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortWithError(c, core.SignatureInvalid("admin token is required", nil))
			return
		}
		claims, err := ParseAdminToken(secret, token)
		if err != nil {
			abortWithError(c, core.SignatureInvalid("admin token is invalid", map[string]any{"reason": err.Error()}))
			return
		}
		c.Set(ContextKeyAdminSubject, claims.Subject)
		c.Next()
	}
}

type errorBody struct {
	TextCode string `json:"text_code"`
	Message  string `json:"message"`
}

func abortWithError(c *gin.Context, err error) {
	mapped := core.MapError(err)
	status := mapped.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{
		TextCode: mapped.TextCode,
		Message:  mapped.Message,
	}})
}
