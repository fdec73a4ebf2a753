package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bookbnb-backend/internal/platform/apierr"
)

const CtxUserIDKey = "user_id"

// RequireAuth: Authorization: Bearer <token> を検証して context に sub を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearer(c)
		if !ok {
			apierr.Abort(c, apierr.Unauthenticated("No token, authorization denied"))
			return
		}
		sub, err := ParseToken(secret, tokenStr)
		if err != nil {
			apierr.Abort(c, apierr.Unauthenticated("Token is not valid"))
			return
		}
		c.Set(CtxUserIDKey, sub)
		c.Next()
	}
}

// OptionalAuth は公開エンドポイント用。トークンが無い・不正でも通す
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearer(c); ok {
			if sub, err := ParseToken(secret, tokenStr); err == nil {
				c.Set(CtxUserIDKey, sub)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, "" when the request is anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tokenStr := strings.TrimSpace(parts[1])
	return tokenStr, tokenStr != ""
}
