package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/onboardhub/onboardhub-backend/internal/clients/redis"
	"github.com/onboardhub/onboardhub-backend/internal/db"
	"github.com/onboardhub/onboardhub-backend/internal/handlers"
	"github.com/onboardhub/onboardhub-backend/internal/logger"
	"github.com/onboardhub/onboardhub-backend/internal/middleware"
	"github.com/onboardhub/onboardhub-backend/internal/repos"
	"github.com/onboardhub/onboardhub-backend/internal/server"
	"github.com/onboardhub/onboardhub-backend/internal/services"
	"github.com/onboardhub/onboardhub-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	serverPort := utils.GetEnv("SERVER_PORT", "8080", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	flowRepo := repos.NewFlowRepo(thePG, log)
	stepRepo := repos.NewFlowStepRepo(thePG, log)
	userFlowRepo := repos.NewUserFlowRepo(thePG, log)
	progressRepo := repos.NewUserStepProgressRepo(thePG, log)
	answerRepo := repos.NewUserQuizAnswerRepo(thePG, log)
	buddyRepo := repos.NewFlowBuddyRepo(thePG, log)
	actionRepo := repos.NewFlowActionRepo(thePG, log)
	calendarRepo := repos.NewWorkingCalendarRepo(thePG, log)
	snapshotRepo := repos.NewSnapshotRepo(thePG, log)

	// Flow event bus
	var flowBus redis.FlowEventBus
	if os.Getenv("REDIS_ADDR") != "" {
		flowBus, err = redis.NewFlowEventBus(log)
		if err != nil {
			log.Error("Could not init flow event bus", "error", err)
			os.Exit(1)
		}
		defer flowBus.Close()
	} else {
		log.Warn("REDIS_ADDR not set, flow events will not be published")
		flowBus = redis.NoopFlowEventBus{}
	}

	// Services
	log.Info("Setting up services...")
	deadlineService := services.NewDeadlineService(calendarRepo, log)
	if err := deadlineService.SeedCalendarFromFile(context.Background()); err != nil {
		log.Warn("Working calendar seed failed", "error", err)
	}
	auditService := services.NewAuditService(actionRepo, flowBus, log)
	snapshotService := services.NewSnapshotService(snapshotRepo, log)
	authService := services.NewAuthService(thePG, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, log)
	flowService := services.NewFlowService(thePG, userRepo, flowRepo, stepRepo, userFlowRepo, progressRepo, buddyRepo, deadlineService, auditService, log)
	progressionService := services.NewProgressionService(thePG, userFlowRepo, stepRepo, progressRepo, answerRepo, snapshotService, auditService, log)
	catalogService := services.NewCatalogService(thePG, flowRepo, stepRepo, calendarRepo, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	myHandler := handlers.NewMyHandler(flowService, progressionService)
	buddyHandler := handlers.NewBuddyHandler(flowService, progressionService, auditService)
	adminHandler := handlers.NewAdminHandler(catalogService, flowService, authService)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		MyHandler:      myHandler,
		BuddyHandler:   buddyHandler,
		AdminHandler:   adminHandler,
	})

	log.Info("Starting server", "port", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
