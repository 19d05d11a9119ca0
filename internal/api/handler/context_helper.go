package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/niasikh/2fork-knife-backend/pkg/jwt"
	"github.com/niasikh/2fork-knife-backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString("user_id")
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// ActorID 可选身份：公开接口未携带 Token 时返回空串
func ActorID(c *gin.Context) string {
	return c.GetString("user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	s := c.GetString("role")
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// scopedRestaurantID 员工 Token 绑定的餐厅；admin 或未绑定时为空
func scopedRestaurantID(c *gin.Context) string {
	if c.GetString("role") != jwt.RoleStaff {
		return ""
	}
	return c.GetString("restaurant_id")
}

// CheckRestaurantScope 员工只能操作本餐厅数据，越权时写入 403
func CheckRestaurantScope(c *gin.Context, restaurantID string) bool {
	scope := scopedRestaurantID(c)
	if scope == "" || scope == restaurantID {
		return true
	}
	response.Forbidden(c, 10003, "无权访问该餐厅数据")
	return false
}
