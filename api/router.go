package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"jolaman/pkg/logger"
	"jolaman/pkg/models"
	"jolaman/pkg/security"
	"jolaman/service"
)

type RouterDeps struct {
	Services        service.IServiceManager
	JWT             *security.JWTManager
	Redis           *redis.Client
	RateLimitPerSec int
	Log             logger.ILogger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Log))
	r.Use(RateLimit(deps.Redis, deps.RateLimitPerSec))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(deps.Services.Auth())
	orderHandler := NewOrderHandler(deps.Services.Order())
	ledgerHandler := NewLedgerHandler(deps.Services.Ledger())
	tariffHandler := NewTariffHandler(deps.Services.Tariff())

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/tariffs", tariffHandler.List)
	v1.GET("/tariffs/:id", tariffHandler.Get)

	orders := v1.Group("/orders", Auth(deps.JWT))
	orders.POST("", Auth(deps.JWT, models.RoleClient, models.RoleDispatcher, models.RoleAdmin), orderHandler.Create)
	orders.GET("/my", orderHandler.MyOrders)
	orders.GET("/:id", orderHandler.Get)
	orders.POST("/:id/accept", Auth(deps.JWT, models.RoleDriver, models.RoleDispatcher, models.RoleAdmin), orderHandler.Accept)
	orders.POST("/:id/status", Auth(deps.JWT, models.RoleDriver, models.RoleAdmin), orderHandler.AdvanceStatus)
	orders.POST("/:id/finish", Auth(deps.JWT, models.RoleDriver, models.RoleAdmin), orderHandler.Finish)
	orders.POST("/:id/cancel", orderHandler.Cancel)

	drivers := v1.Group("/drivers", Auth(deps.JWT, models.RoleDriver, models.RoleAdmin))
	drivers.GET("/:id/transactions", ledgerHandler.History)

	admin := v1.Group("/admin", Auth(deps.JWT, models.RoleAdmin))
	admin.POST("/transactions", ledgerHandler.Apply)
	admin.GET("/transactions", ledgerHandler.List)
	admin.GET("/drivers/:id/ledger", ledgerHandler.Verify)
	admin.POST("/tariffs", tariffHandler.Create)
	admin.PUT("/tariffs/:id", tariffHandler.Update)
	admin.PATCH("/tariffs/:id/active", tariffHandler.SetActive)

	return r
}
