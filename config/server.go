// Package config 提供应用程序配置和初始化功能
package config

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
)

// GetPort 获取服务器监听端口
// 从环境变量读取SERVER_PORT，未设置时使用默认端口8080
func GetPort() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080" // 默认端口
		log.Println("未设置SERVER_PORT环境变量，使用默认端口:", port)
	}
	return port
}

// StartServer 启动HTTP服务器并处理优雅关闭
// 在单独的goroutine中启动服务器，主goroutine监听系统终止信号；
// 收到信号后等待进行中的报表运行返回响应再退出
func StartServer(app *fiber.App) {
	port := GetPort()

	// 创建系统信号通道，接收操作系统的终止信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(fmt.Sprintf(":%s", port)); err != nil {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	log.Printf("服务器已启动，监听端口 %s", port)

	// 等待系统信号
	<-sigChan
	log.Println("收到终止信号，开始优雅关闭...")

	// 优雅关闭服务器，确保所有活跃的连接都能正常完成
	if err := app.Shutdown(); err != nil {
		log.Printf("服务器关闭时发生错误: %v", err)
	}

	log.Println("服务器已安全关闭")
}
