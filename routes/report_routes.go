package routes

import (
	"github.com/gofiber/fiber/v2"

	"fieldreport/handlers"
	"fieldreport/middleware"
)

// SetupReportRoutes 设置报表触发相关的路由
func SetupReportRoutes(app *fiber.App, h *handlers.ReportHandler) {
	// 存活探针（无需密钥）
	app.Get("/", h.Health)

	// 调度器触发路由（需要共享密钥）
	cronGroup := app.Group("/cron", middleware.CronAuthMiddleware())
	cronGroup.Get("/send-daily-summaries", h.SendDailySummaries) // 执行一轮每日报表发送

	// 人工验证路由（需要共享密钥）
	testGroup := app.Group("/test", middleware.CronAuthMiddleware())
	testGroup.Post("/dry-run", h.DryRun) // 空跑流水线做发布前验证
}
