package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/handler"
	"github.com/drivepool/drivepool-backend-go/internal/middleware"
	"github.com/drivepool/drivepool-backend-go/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	trips *service.TripService,
	profiles *service.ProfileService,
	pool *service.PoolService,
	leaderboard *service.LeaderboardService,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "DrivePool API is running",
		})
	})

	tripHandler := handler.NewTripHandler(trips)
	profileHandler := handler.NewProfileHandler(profiles)
	poolHandler := handler.NewPoolHandler(pool)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboard)
	authHandler := handler.NewAuthHandler(cfg.JWTSecret)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(300, time.Minute))
	{
		api.POST("/auth/token", authHandler.Token)

		authed := api.Group("")
		authed.Use(middleware.Auth(cfg.JWTSecret))
		{
			tripRoutes := authed.Group("/trips")
			{
				tripRoutes.POST("", tripHandler.Start)
				tripRoutes.GET("", tripHandler.List)
				tripRoutes.GET("/:id", tripHandler.GetByID)
				tripRoutes.POST("/:id/points", tripHandler.AppendTelemetry)
				tripRoutes.POST("/:id/finalize", tripHandler.Finalize)
			}

			authed.GET("/drivers/me/profile", profileHandler.GetMine)

			poolRoutes := authed.Group("/pool")
			{
				poolRoutes.GET("/:period", poolHandler.GetPeriod)
				poolRoutes.POST("/:period/contributions", poolHandler.Contribute)
				poolRoutes.GET("/:period/shares/me", poolHandler.GetMyShare)
			}

			authed.GET("/leaderboard", leaderboardHandler.Get)
		}

		admin := api.Group("")
		admin.Use(middleware.AdminOnly(cfg.JWTSecret))
		{
			admin.GET("/pool/:period/preview", poolHandler.Preview)
			admin.POST("/pool/:period/allocate", poolHandler.Allocate)
		}
	}

	return r
}
