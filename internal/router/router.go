package router

import (
	"fmt"
	"strings"

	"github.com/vanguard-next/internal/cache"
	"github.com/vanguard-next/internal/config"
	adminhandlers "github.com/vanguard-next/internal/http/handlers/admin"
	publichandlers "github.com/vanguard-next/internal/http/handlers/public"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/models"
	"github.com/vanguard-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "vg"
	}
	redisClient := cache.Client()
	registerRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:register", redisPrefix),
		WindowSeconds: 300,
		MaxRequests:   5,
		Message:       "注册请求过于频繁，请稍后重试",
	}
	withdrawalRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:withdrawal", redisPrefix),
		WindowSeconds: 60,
		MaxRequests:   3,
		Message:       "提现申请过于频繁，请稍后重试",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 用户与推荐网络
		apiV1.POST("/users", RateLimitMiddleware(redisClient, registerRule, KeyByIPAndJSONField("email")), publicHandler.RegisterUser)
		apiV1.GET("/users/:id", publicHandler.GetUser)
		apiV1.GET("/users/:id/network", publicHandler.GetNetworkTree)
		apiV1.GET("/users/:id/network/stats", publicHandler.GetNetworkStats)
		apiV1.GET("/users/:id/upline", publicHandler.GetUserUpline)
		apiV1.GET("/users/:id/commissions", publicHandler.GetUserCommissions)
		apiV1.GET("/users/:id/commissions/summary", publicHandler.GetUserCommissionSummary)
		apiV1.GET("/users/:id/wallet", publicHandler.GetWallet)
		apiV1.GET("/users/:id/wallet/transactions", publicHandler.GetWalletTransactions)
		apiV1.POST("/users/:id/withdrawals", RateLimitMiddleware(redisClient, withdrawalRule, KeyByIP), publicHandler.RequestWithdrawal)

		// 订单
		apiV1.POST("/orders", publicHandler.CreateOrder)
		apiV1.GET("/orders", publicHandler.ListOrders)
		apiV1.GET("/orders/:id", publicHandler.GetOrder)

		// 管理端
		admin := apiV1.Group("/admin")
		{
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.PATCH("/orders/:id", adminHandler.AdminUpdateOrderStatus)

			admin.GET("/commissions", adminHandler.AdminListCommissions)
			admin.POST("/jobs/commission-release", adminHandler.TriggerCommissionRelease)
			admin.POST("/jobs/qualification-check", adminHandler.TriggerQualificationCheck)

			admin.GET("/users", adminHandler.AdminListUsers)
			admin.POST("/users/:id/convert", adminHandler.AdminConvertUser)
			admin.PUT("/users/:id/ambassador-rate", adminHandler.AdminUpdateAmbassadorRate)

			admin.GET("/withdrawals", adminHandler.AdminListWithdrawals)
			admin.PATCH("/withdrawals/:id", adminHandler.AdminReviewWithdrawal)

			admin.GET("/settings/mlm", adminHandler.GetMLMSettings)
			admin.PUT("/settings/mlm", adminHandler.UpdateMLMSettings)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		if sqlDB, err := models.DB.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "unavailable"
		}
		c.JSON(200, gin.H{"status": "ok", "database": dbStatus})
	})

	return r
}
