package middleware

import (
	"strings"

	"clm-server/internal/pkg/crypto"
	"clm-server/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT 认证中间件
// 密钥通过参数注入，不读取全局配置
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "缺少认证信息")
			c.Abort()
			return
		}

		// Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := crypto.ParseToken(parts[1], secret)
		if err != nil {
			response.Unauthorized(c, "无效的认证信息")
			c.Abort()
			return
		}

		// 将用户信息存入上下文
		c.Set("user_id", claims.UserID)
		c.Set("organization_id", claims.OrganizationID)
		c.Set("email", claims.Email)
		c.Set("is_main_admin", claims.IsMainAdmin)

		c.Next()
	}
}

// OrganizationMiddleware 组织隔离中间件 - 要求用户已归属某个组织
// 主管理员不属于任何组织，放行由具体接口自行判定
func OrganizationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsMainAdmin(c) {
			c.Next()
			return
		}
		if GetOrganizationID(c) == "" {
			response.Forbidden(c, "用户尚未加入任何组织")
			c.Abort()
			return
		}
		c.Next()
	}
}

// MainAdminMiddleware 主管理员权限中间件
func MainAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsMainAdmin(c) {
			response.Forbidden(c, "需要主管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetOrganizationID 从上下文获取组织 ID
func GetOrganizationID(c *gin.Context) string {
	organizationID, _ := c.Get("organization_id")
	if id, ok := organizationID.(string); ok {
		return id
	}
	return ""
}

// GetUserEmail 从上下文获取用户邮箱
func GetUserEmail(c *gin.Context) string {
	email, _ := c.Get("email")
	if e, ok := email.(string); ok {
		return e
	}
	return ""
}

// IsMainAdmin 从上下文获取主管理员标记
func IsMainAdmin(c *gin.Context) bool {
	v, _ := c.Get("is_main_admin")
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
