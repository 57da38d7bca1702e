package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// AdminMiddleware 确保只有管理员可以访问某些路由
// 角色信息来自认证中间件解析的令牌
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		util.Logger.Info("进入管理员中间件",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		role, exists := c.Get("role")
		if !exists {
			util.Logger.Warn("角色信息不存在")
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "需要认证",
				"error":   "Role not found in context",
			})
			c.Abort()
			return
		}

		if role.(string) != "admin" {
			userID, _ := c.Get("user_id")
			util.Logger.Warn("非管理员访问",
				zap.Any("user_id", userID),
				zap.Any("role", role))
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "需要管理员权限",
				"error":   "Admin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
