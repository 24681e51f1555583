package api

import (
	"log"
	"time"

	"coldwatch/internal/api/handlers"
	"coldwatch/internal/api/middleware"
	"coldwatch/internal/config"
	"coldwatch/internal/models"
	"coldwatch/internal/monitoring"
	"coldwatch/internal/notify"
	"coldwatch/internal/realtime"
	"coldwatch/internal/repository"
	"coldwatch/internal/service"
	"coldwatch/pkg/database"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Runtime 持有需要随进程启停的后台组件
type Runtime struct {
	Dispatcher *notify.Dispatcher
	Liveness   *service.LivenessService
	Hub        *realtime.Hub
}

// Stop 按依赖顺序停止后台组件
func (r *Runtime) Stop() {
	r.Liveness.Stop()
	r.Dispatcher.Stop()
}

// SetupRoutes 设置所有路由并组装服务依赖
func SetupRoutes(router *gin.Engine, cfg *config.Config) *Runtime {
	// 获取数据库连接
	db := database.GetDB()

	// 初始化仓储层
	userRepo := repository.NewUserRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	readingRepo := repository.NewReadingRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// 初始化通知网关和调度器
	gateway := notify.NewGateway()
	if cfg.Notification.Email.Enabled {
		gateway.Register(models.NotificationChannelEmail, notify.NewEmailSender(
			cfg.Notification.Email.Host,
			cfg.Notification.Email.Port,
			cfg.Notification.Email.Username,
			cfg.Notification.Email.Password,
			cfg.Notification.Email.From,
		))
	}
	if cfg.Notification.Telegram.Enabled {
		sender, err := notify.NewTelegramSender(cfg.Notification.Telegram.BotToken)
		if err != nil {
			log.Printf("[Routes] Telegram通道初始化失败，已跳过: %v", err)
		} else {
			gateway.Register(models.NotificationChannelTelegram, sender)
		}
	}
	dispatcher := notify.NewDispatcher(gateway, notificationRepo, incidentRepo, operatorRepo, cfg.Notification.Workers)
	dispatcher.SetRetryPolicy(
		cfg.Notification.MaxRetries,
		time.Duration(cfg.Notification.RetryBackoffSec)*time.Second,
		time.Duration(cfg.Notification.DeliveryTimeoutSec)*time.Second,
	)

	// 初始化WebSocket推送
	hub := realtime.NewHub()

	// 初始化服务层
	userService := service.NewUserService(userRepo)
	deviceService := service.NewDeviceService(deviceRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	metricsService := service.NewMetricsService()
	operatorService := service.NewOperatorService(operatorRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	alertService := service.NewAlertService(alertRepo, operatorRepo)
	deviceLocks := monitoring.NewDeviceLocks()
	incidentService := service.NewIncidentService(incidentRepo, operatorRepo, readingRepo, settingsService, deviceLocks)
	escalationService := service.NewEscalationService(operatorRepo, notificationRepo, dispatcher, cfg.Monitoring.NotifyLowerTiers)
	monitoringService := service.NewMonitoringService(
		readingRepo, alertRepo,
		deviceService, incidentService, escalationService, settingsService, metricsService,
		deviceLocks, hub,
	)
	livenessService := service.NewLivenessService(
		deviceService, alertRepo, escalationService, settingsService,
		monitoringService.Deduplicator(), hub,
		time.Duration(cfg.Monitoring.LivenessSweepMinutes)*time.Minute,
	)

	// 初始化处理器
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	deviceHandler := handlers.NewDeviceHandler(deviceService)
	readingHandler := handlers.NewReadingHandler(monitoringService)
	alertHandler := handlers.NewAlertHandler(alertService)
	incidentHandler := handlers.NewIncidentHandler(incidentService)
	operatorHandler := handlers.NewOperatorHandler(operatorService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	healthHandler := handlers.NewHealthHandler(metricsService)
	overviewHandler := handlers.NewOverviewHandler(deviceService, alertService)

	// API文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 公开路由组
	public := router.Group("/api/v1")
	{
		// 健康检查路由
		public.GET("/health", healthHandler.HealthCheck)

		// 传感器上报（设备侧不走用户认证）
		public.POST("/readings", readingHandler.CreateReading)

		// 认证相关路由（登录和刷新令牌无需认证）
		auth := public.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}
	}

	// WebSocket实时推送
	router.GET("/ws", func(c *gin.Context) {
		realtime.ServeWS(hub, c.Writer, c.Request)
	})

	// 需要认证的路由组
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware())
	{
		// 系统概览
		protected.GET("/overview", overviewHandler.GetOverview)
		protected.GET("/metrics", healthHandler.GetSystemMetrics)

		// 认证相关路由
		auth := protected.Group("/auth")
		{
			auth.GET("/me", authHandler.GetCurrentUser)
		}

		// 用户管理路由
		users := protected.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)
		}

		// 设备管理路由
		devices := protected.Group("/devices")
		{
			devices.GET("", deviceHandler.ListDevices)
			devices.POST("", deviceHandler.CreateDevice)
			devices.GET("/:device_id", deviceHandler.GetDevice)
			devices.PUT("/:device_id", deviceHandler.UpdateDevice)
		}

		// 读数查询路由
		readings := protected.Group("/readings")
		{
			readings.GET("", readingHandler.ListReadings)
			readings.GET("/stats", readingHandler.GetStats)
			readings.GET("/latest/:device_id", readingHandler.GetLatestReading)
		}

		// 告警管理路由
		alerts := protected.Group("/alerts")
		{
			alerts.GET("", alertHandler.ListAlerts)
			alerts.GET("/active", alertHandler.GetActiveAlerts)
			alerts.GET("/stats", alertHandler.GetAlertStats)
			alerts.GET("/:id", alertHandler.GetAlert)
			alerts.POST("/:id/resolve", middleware.OperatorMiddleware(), alertHandler.ResolveAlert)
		}

		// 事件管理路由
		incidents := protected.Group("/incidents")
		{
			incidents.GET("", incidentHandler.ListIncidents)
			incidents.GET("/:id", incidentHandler.GetIncident)
			incidents.GET("/:id/timeline", incidentHandler.GetTimeline)
			incidents.GET("/:id/comments", incidentHandler.GetComments)
			incidents.GET("/:id/notifications", notificationHandler.GetIncidentNotifications)

			// 事件流转需要值班人员权限
			incidents.POST("/:id/acknowledge", middleware.OperatorMiddleware(), incidentHandler.AcknowledgeIncident)
			incidents.POST("/:id/resolve", middleware.OperatorMiddleware(), incidentHandler.ResolveIncident)
			incidents.POST("/:id/close", middleware.OperatorMiddleware(), incidentHandler.CloseIncident)
			incidents.POST("/:id/comments", middleware.OperatorMiddleware(), incidentHandler.AddComment)
		}

		// 通知查询路由
		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread", notificationHandler.GetUnreadNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkNotificationRead)
		}

		// 系统设置路由
		settings := protected.Group("/settings")
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", middleware.AdminMiddleware(), settingsHandler.UpdateSettings)
		}

		// 管理员专用路由
		admin := protected.Group("/admin")
		admin.Use(middleware.AdminMiddleware())
		{
			// 管理员用户管理
			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", userHandler.ListUsers)
				adminUsers.POST("", userHandler.CreateUser)
			}

			// 值班人员管理
			adminOperators := admin.Group("/operators")
			{
				adminOperators.GET("", operatorHandler.ListOperators)
				adminOperators.POST("", operatorHandler.CreateOperator)
				adminOperators.GET("/:id", operatorHandler.GetOperator)
				adminOperators.PUT("/:id", operatorHandler.UpdateOperator)
				adminOperators.DELETE("/:id", operatorHandler.DeleteOperator)
			}
		}
	}

	return &Runtime{
		Dispatcher: dispatcher,
		Liveness:   livenessService,
		Hub:        hub,
	}
}
