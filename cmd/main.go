package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/logeshtheni/sevenxt/config"
	"github.com/logeshtheni/sevenxt/internal/api/exchange"
	"github.com/logeshtheni/sevenxt/internal/api/order"
	"github.com/logeshtheni/sevenxt/internal/api/refund"
	"github.com/logeshtheni/sevenxt/internal/api/upload"
	"github.com/logeshtheni/sevenxt/internal/api/webhook"
	"github.com/logeshtheni/sevenxt/internal/carrier"
	"github.com/logeshtheni/sevenxt/internal/middleware"
	"github.com/logeshtheni/sevenxt/internal/repository/mysql"
	"github.com/logeshtheni/sevenxt/internal/service"
	"github.com/logeshtheni/sevenxt/internal/storage"
	"github.com/logeshtheni/sevenxt/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func main() {
	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		config.AppConfig.DBName)

	// 连接数据库
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 测试数据库连接
	if err = db.Ping(); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("future_date", util.ValidateFutureDate)
	}

	// 初始化面单存储后端
	store, err := storage.New(storage.Config{
		Backend:            config.AppConfig.StorageBackend,
		LocalPath:          config.AppConfig.LocalStoragePath,
		S3Region:           config.AppConfig.S3Region,
		S3Bucket:           config.AppConfig.S3Bucket,
		GCSProjectID:       config.AppConfig.GCSProjectID,
		GCSBucketName:      config.AppConfig.GCSBucketName,
		GCSCredentialsFile: config.AppConfig.GCSCredentialsFile,
	})
	if err != nil {
		util.Logger.Fatal("初始化存储后端失败", zap.Error(err))
	}

	// 初始化快递网关
	gateway := carrier.NewClient(
		config.AppConfig.DelhiveryBaseURL,
		config.AppConfig.DelhiveryToken,
		config.AppConfig.PickupLocation,
		carrier.Warehouse{
			Name:    config.AppConfig.WarehouseName,
			Phone:   config.AppConfig.WarehousePhone,
			Address: config.AppConfig.WarehouseAddress,
			City:    config.AppConfig.WarehouseCity,
			Pincode: config.AppConfig.WarehousePincode,
			Country: config.AppConfig.WarehouseCountry,
			Email:   config.AppConfig.SMTPUsername,
		},
	)

	// 初始化存储库、服务和处理器
	orderRepo := mysql.NewOrderRepository(db)
	shipmentRepo := mysql.NewShipmentRepository(db)
	exchangeRepo := mysql.NewExchangeRepository(db)
	refundRepo := mysql.NewRefundRepository(db)

	emailService := service.NewEmailService()
	shipmentService := service.NewShipmentService(shipmentRepo, gateway, store)
	orderService := service.NewOrderService(orderRepo, shipmentRepo, exchangeRepo, refundRepo, shipmentService)
	exchangeService := service.NewExchangeService(exchangeRepo, orderRepo, shipmentRepo, shipmentService, emailService)
	refundService := service.NewRefundService(refundRepo, orderRepo, shipmentRepo, shipmentService, emailService)
	webhookService := service.NewWebhookService(
		db, shipmentRepo, orderRepo, exchangeRepo, refundRepo, emailService,
		config.AppConfig.AlertAttemptThreshold,
		config.AppConfig.AlertRepeatPastThreshold,
	)

	orderHandler := order.NewOrderHandler(orderService)
	exchangeHandler := exchange.NewExchangeHandler(exchangeService)
	refundHandler := refund.NewRefundHandler(refundService)
	webhookHandler := webhook.NewWebhookHandler(webhookService)
	uploadHandler := upload.NewUploadHandler(store)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	// 设置 Gin 路由
	r := gin.Default()

	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	r.Use(cors.New(corsConfig))

	// 本地存储时开放面单静态下载
	if config.AppConfig.StorageBackend == "local" || config.AppConfig.StorageBackend == "" {
		r.Static("/uploads", config.AppConfig.LocalStoragePath)
	}

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 快递商回调，鉴权方式与其它接口不同
		webhooks := api.Group("/webhooks")
		webhooks.Use(middleware.WebhookAuthMiddleware(
			config.AppConfig.WebhookSecret,
			config.AppConfig.WebhookAllowedIPs,
		))
		{
			webhooks.POST("/delhivery", webhookHandler.HandleCarrierEvent)
		}

		// 客户侧路由
		api.POST("/uploads/proof", uploadHandler.UploadProofImage)
		api.POST("/exchanges", exchangeHandler.CreateExchange)
		api.GET("/exchanges/:id", exchangeHandler.GetExchange)
		api.POST("/refunds", refundHandler.CreateRefund)
		api.GET("/refunds/:id", refundHandler.GetRefund)

		// 管理员路由组
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			// 订单管理
			orderAdmin := adminRoutes.Group("/orders")
			{
				orderAdmin.POST("", orderHandler.CreateOrder)
				orderAdmin.GET("", orderHandler.ListOrders)
				orderAdmin.GET("/:id", orderHandler.GetOrder)
				orderAdmin.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
			}

			// 派送管理
			deliveryAdmin := adminRoutes.Group("/deliveries")
			{
				deliveryAdmin.GET("", orderHandler.GetDeliveries)
				deliveryAdmin.PUT("/:id/schedule", orderHandler.ScheduleDelivery)
			}

			// 换货管理
			exchangeAdmin := adminRoutes.Group("/exchanges")
			{
				exchangeAdmin.GET("", exchangeHandler.ListExchanges)
				exchangeAdmin.POST("/:id/approve", exchangeHandler.ApproveExchange)
				exchangeAdmin.POST("/:id/reject", exchangeHandler.RejectExchange)
				exchangeAdmin.POST("/:id/quality-check", exchangeHandler.QualityCheck)
				exchangeAdmin.POST("/:id/refund", exchangeHandler.RefundExchange)
			}

			// 错误监控面板
			adminRoutes.GET("/system/errors", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"code": 200,
					"data": errorMonitor.GetStats(),
				})
			})

			// 退款管理
			refundAdmin := adminRoutes.Group("/refunds")
			{
				refundAdmin.GET("", refundHandler.ListRefunds)
				refundAdmin.POST("/:id/approve", refundHandler.ApproveRefund)
				refundAdmin.POST("/:id/reject", refundHandler.RejectRefund)
				refundAdmin.POST("/:id/complete", refundHandler.CompleteRefund)
			}
		}
	}

	// 创建一个带有超时的 http.Server
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动，监听端口 :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}
