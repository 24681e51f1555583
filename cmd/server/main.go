package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"coldwatch/internal/api"
	"coldwatch/internal/api/middleware"
	"coldwatch/internal/config"
	"coldwatch/pkg/database"
	"coldwatch/pkg/utils"
)

// @title           冷库温度监控系统 API
// @version         1.0
// @description     冷库温度遥测监控系统后端API文档
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.example.com/support
// @contact.email  support@example.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description 请在此输入 'Bearer {token}' 格式的 JWT token

func main() {
	// 加载配置文件
	cfg := config.InitConfig()

	// 初始化 JWT 密钥
	utils.InitJWTSecret(cfg.JWT.Secret)

	// 初始化数据库连接
	database.InitDB(cfg.Database.Path)

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)

	// 创建Gin路由器
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	// 设置路由并组装后台组件
	runtime := api.SetupRoutes(router, cfg)

	// 启动后台组件
	go runtime.Hub.Run()
	runtime.Dispatcher.Start()
	runtime.Liveness.Start()

	// 设置静态文件目录
	router.Static("/static", "./static")

	// 展示Swagger文档
	log.Println("Swagger文档地址: http://localhost:" + cfg.Port + "/swagger/index.html")

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// 启动服务器
	go func() {
		log.Printf("启动服务器，监听端口 :%s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("无法启动服务器: %s\n", err)
		}
	}()

	// 等待退出信号，先停HTTP再停后台组件，保证在途通知投递完成
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到退出信号，正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("关闭HTTP服务出错: %v", err)
	}
	runtime.Stop()
	log.Println("服务器已退出")
}
