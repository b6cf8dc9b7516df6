package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hackhub/internal/service"
)

// 放在 gin.Context 中的鍵
const (
	PrincipalKey = "principal"
	UserIDKey    = "userID"
	UserRoleKey  = "userRole"
)

// AuthMiddleware 是一個 Gin 中間件，用於驗證請求的 Bearer token
func AuthMiddleware(auth service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 從請求頭中獲取 Authorization 字段
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header is required"})
			return
		}

		// 檢查 Authorization 頭的格式
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header format must be Bearer {token}"})
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if !errors.Is(err, service.ErrUnauthenticated) {
				log.Printf("middleware: authenticate: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		// 將用戶信息設置到上下文中
		c.Set(PrincipalKey, principal)
		c.Set(UserIDKey, principal.UserID)
		c.Set(UserRoleKey, string(principal.Role))
		c.Next()
	}
}

// CurrentPrincipal 取出 AuthMiddleware 設置的 Principal
func CurrentPrincipal(c *gin.Context) (*service.Principal, bool) {
	value, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*service.Principal)
	return principal, ok && principal != nil
}
