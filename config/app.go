// Package config 提供应用程序配置和初始化功能
// 该包负责处理应用程序的配置加载、初始化和服务器设置等核心功能
package config

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"fieldreport/database"
	"fieldreport/handlers"
	"fieldreport/logger"
	"fieldreport/routes"
	"fieldreport/services"
	"fieldreport/whatsapp"
)

// InitApp 初始化整个应用程序
// 1. 初始化数据库连接
// 2. 执行数据库迁移
func InitApp() {
	// 初始化数据库连接
	// 如果数据库连接失败，程序将终止
	database.Init()

	// 执行数据库迁移
	// 确保所有必要的表和唯一索引都存在
	database.Migrate()

	log.Println("应用程序初始化完成")
}

// SetupApp 创建并配置Fiber应用实例
// 负责创建Fiber实例、配置全局中间件、组装报表流水线的依赖并注册路由
// 所有服务依赖在这里显式构造并注入，不依赖模块级单例
func SetupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		StrictRouting: true,
		ServerHeader:  "Field Report",
		// 自定义错误处理
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": true,
				"msg":   err.Error(),
			})
		},
		// 使用标准JSON编解码器，确保正确处理UTF-8字符（报表消息含emoji和货币符号）
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		AppName:     "Field Report API",
		// 一轮运行要逐条限速发送消息，写超时要给足余量
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// 配置日志中间件，记录所有HTTP请求
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} ${status} - ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}))

	// 配置恢复中间件，防止应用因panic而崩溃
	app.Use(recover.New())

	// 配置CORS中间件
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Cron-Secret",
	}))

	// 组装报表流水线：日志 → 发送客户端 → 门禁 → 编排器 → 处理器
	zapLogger, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "fieldreport")
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}

	db := database.GetDB()
	waClient := whatsapp.NewClient(whatsapp.LoadConfig(), zapLogger)
	gate := services.NewSendGate(db, zapLogger)
	runner := services.NewReportRunner(db, gate, waClient, zapLogger)
	reportHandler := handlers.NewReportHandler(runner, zapLogger)

	// 设置API路由
	routes.SetupRoutes(app, reportHandler)

	log.Println("Fiber应用已创建，路由已设置")

	return app
}
