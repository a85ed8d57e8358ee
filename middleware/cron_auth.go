package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CronAuthMiddleware 校验触发报表运行的请求
// 调度器和运维人员通过共享密钥访问 /cron 和 /test 路由
// 支持两种携带方式:
//  1. X-Cron-Secret 请求头
//  2. Authorization: Bearer <secret>（方便curl和部分调度平台）
//
// 未配置CRON_SECRET环境变量时直接放行，用于本地开发环境
func CronAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := os.Getenv("CRON_SECRET")
		if secret == "" {
			return c.Next()
		}

		provided := c.Get("X-Cron-Secret")
		if provided == "" {
			authHeader := c.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				provided = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if provided != secret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "未提供有效的触发密钥",
			})
		}

		return c.Next()
	}
}
