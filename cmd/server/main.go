package main

import (
	"context"
	"log"

	"github.com/drivepool/drivepool-backend-go/internal/api"
	"github.com/drivepool/drivepool-backend-go/internal/config"
	"github.com/drivepool/drivepool-backend-go/internal/database"
	"github.com/drivepool/drivepool-backend-go/internal/insight"
	"github.com/drivepool/drivepool-backend-go/internal/notifier"
	"github.com/drivepool/drivepool-backend-go/internal/repository"
	"github.com/drivepool/drivepool-backend-go/internal/scheduler"
	"github.com/drivepool/drivepool-backend-go/internal/service"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// 外部依赖
	insightClient := insight.NewClient(cfg.InsightURL, cfg.InsightTimeout)
	events, err := notifier.Connect(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to event broker:", err)
	}
	defer events.Close()

	tripRepo := repository.NewTripRepository(db)
	telemetryRepo := repository.NewTelemetryRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	poolRepo := repository.NewPoolRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	profileService := service.NewProfileService(profileRepo, poolRepo, cfg.Scoring)
	tripService := service.NewTripService(db, tripRepo, telemetryRepo, profileService, insightClient, events, cfg.Scoring)
	poolService := service.NewPoolService(db, poolRepo, profileRepo, cfg.Pool)
	leaderboardService := service.NewLeaderboardService(profileRepo, leaderboardRepo, cfg.Leaderboard)

	// 定时任务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.New(leaderboardService, poolService, cfg.Leaderboard).Run(ctx)

	// 初始化路由
	router := api.SetupRouter(cfg, tripService, profileService, poolService, leaderboardService)

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
