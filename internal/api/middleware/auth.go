package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/niasikh/2fork-knife-backend/pkg/jwt"
	"github.com/niasikh/2fork-knife-backend/pkg/response"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		claims, msg := parseBearer(jwtMgr, authHeader)
		if claims == nil {
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalJWTAuth 公开接口使用：带合法 Token 时注入身份，否则按匿名放行
// 携带了格式错误或过期的 Token 仍返回 401，避免静默降级为匿名
func OptionalJWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		claims, msg := parseBearer(jwtMgr, authHeader)
		if claims == nil {
			response.Unauthorized(c, 10002, msg)
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

func parseBearer(jwtMgr *jwt.Manager, authHeader string) (*jwt.Claims, string) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "认证头格式无效"
	}

	claims, err := jwtMgr.ParseToken(parts[1])
	if err != nil {
		return nil, "Token 无效或已过期"
	}

	if claims.TokenType != "access" {
		return nil, "Token 类型无效"
	}
	return claims, ""
}

// setIdentity 将用户信息注入上下文
func setIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)
	c.Set("restaurant_id", claims.RestaurantID)
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		if userRole == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
