package main

import (
	"fieldreport/config"
)

// main 应用程序入口
// 初始化数据库和配置，创建Fiber应用并启动HTTP服务器
func main() {
	config.InitApp()
	app := config.SetupApp()
	config.StartServer(app)
}
