package routes

import (
	"github.com/gofiber/fiber/v2"

	"fieldreport/handlers"
)

// SetupRoutes 设置所有API路由
// 调用各个模块的路由注册函数
func SetupRoutes(app *fiber.App, reportHandler *handlers.ReportHandler) {
	// 报表触发路由
	SetupReportRoutes(app, reportHandler)
}
