package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/audit"
	"github.com/ustatop/ustatop-api/internal/cache"
	"github.com/ustatop/ustatop-api/internal/config"
	"github.com/ustatop/ustatop-api/internal/handlers"
	infraRepo "github.com/ustatop/ustatop-api/internal/infra/repository"
	"github.com/ustatop/ustatop-api/internal/middleware"
	ucOrder "github.com/ustatop/ustatop-api/internal/usecase/order"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	orderRepo := infraRepo.NewOrderGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	categoryCache := cache.NewCategories(rdb)

	// ======================================================
	// USE CASES — ORDERS
	// ======================================================
	createOrderUC := ucOrder.NewCreateOrder(orderRepo, auditDispatcher)
	transitionOrderUC := ucOrder.NewTransitionOrder(orderRepo, auditDispatcher)
	getOrderUC := ucOrder.NewGetOrder(orderRepo)
	listOrdersUC := ucOrder.NewListOrders(orderRepo)
	hardDeleteOrderUC := ucOrder.NewHardDeleteOrder(orderRepo, auditDispatcher)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)
	userHandler := handlers.NewUserHandler(db, auditDispatcher)

	categoryHandler := handlers.NewCategoryHandler(db, categoryCache)
	masterHandler := handlers.NewMasterHandler(db, cfg, auditDispatcher)
	serviceHandler := handlers.NewServiceHandler(db)

	orderHandler := handlers.NewOrderHandler(
		createOrderUC,
		transitionOrderUC,
		getOrderUC,
		listOrdersUC,
		hardDeleteOrderUC,
		db,
	)

	reviewHandler := handlers.NewReviewHandler(db)
	searchHandler := handlers.NewSearchHandler(db)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// PUBLIC CATALOG
		// ------------------------------
		api.GET("/categories", categoryHandler.List)
		api.GET("/categories/:id", categoryHandler.Get)

		api.GET("/masters", masterHandler.List)
		api.GET("/masters/:id", masterHandler.Get)

		api.GET("/services", serviceHandler.List)
		api.GET("/services/:id", serviceHandler.Get)

		api.GET("/reviews", reviewHandler.List)
		api.GET("/reviews/:id", reviewHandler.Get)
		api.GET("/masters/:id/review-stats", reviewHandler.MasterStats)

		api.GET("/search/masters", searchHandler.Masters)
		api.GET("/search/services", searchHandler.Services)

		// ------------------------------
		// PRIVATE API
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.POST("/auth/refresh-token", authHandler.RefreshToken)

			secured.GET("/users", userHandler.List)
			secured.GET("/users/:id", userHandler.Get)
			secured.PUT("/users/:id", userHandler.Update)
			secured.DELETE("/users/:id", userHandler.Delete)

			secured.POST("/categories", categoryHandler.Create)
			secured.PUT("/categories/:id", categoryHandler.Update)
			secured.DELETE("/categories/:id", categoryHandler.Delete)

			secured.POST("/masters", masterHandler.Create)
			secured.PUT("/masters/:id", masterHandler.Update)
			secured.POST("/masters/:id/verify", masterHandler.Verify)

			secured.POST("/services", serviceHandler.Create)
			secured.PUT("/services/:id", serviceHandler.Update)
			secured.DELETE("/services/:id", serviceHandler.Delete)

			// ------------------------------
			// ORDERS
			// ------------------------------
			secured.POST("/orders", orderHandler.Create)
			secured.GET("/orders", orderHandler.List)
			secured.GET("/orders/:id", orderHandler.Get)
			secured.PUT("/orders/:id", orderHandler.UpdateStatus)
			secured.DELETE("/orders/:id", orderHandler.Delete)
			secured.GET("/masters/:id/order-stats", orderHandler.MasterStats)

			secured.POST("/reviews", reviewHandler.Create)
			secured.PUT("/reviews/:id", reviewHandler.Update)
			secured.DELETE("/reviews/:id", reviewHandler.Delete)

			secured.GET("/audit-logs", auditLogsHandler.List)
		}
	}
}
