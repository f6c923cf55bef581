package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/onboardhub/onboardhub-backend/internal/handlers"
	"github.com/onboardhub/onboardhub-backend/internal/middleware"
	"github.com/onboardhub/onboardhub-backend/internal/types"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	MyHandler      *handlers.MyHandler
	BuddyHandler   *handlers.BuddyHandler
	AdminHandler   *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	api.POST("/register", cfg.AuthHandler.Register)
	api.POST("/login", cfg.AuthHandler.Login)

	// Learner
	my := api.Group("/my")
	my.Use(cfg.AuthMiddleware.RequireAuth())
	my.GET("/flows", cfg.MyHandler.ListFlows)
	my.GET("/flows/:id/progress", cfg.MyHandler.FlowProgress)
	my.POST("/flows/:id/steps/:stepID/read", cfg.MyHandler.MarkArticleRead)
	my.POST("/flows/:id/steps/:stepID/task", cfg.MyHandler.SubmitTaskAnswer)
	my.POST("/flows/:id/steps/:stepID/quiz", cfg.MyHandler.SubmitQuizAnswer)

	// Buddy
	buddy := api.Group("/buddy")
	buddy.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAnyRole(types.RoleBuddy, types.RoleModerator))
	buddy.GET("/flows", cfg.BuddyHandler.ListFlows)
	buddy.POST("/flows/start", cfg.BuddyHandler.StartFlow)
	buddy.GET("/flows/:id/progress", cfg.BuddyHandler.FlowProgress)
	buddy.GET("/flows/:id/actions", cfg.BuddyHandler.ListActions)
	buddy.POST("/flows/:id/pause", cfg.BuddyHandler.PauseFlow)
	buddy.POST("/flows/:id/resume", cfg.BuddyHandler.ResumeFlow)
	buddy.POST("/flows/:id/extend", cfg.BuddyHandler.ExtendDeadline)
	buddy.DELETE("/flows/:id", cfg.BuddyHandler.DeleteFlow)
	buddy.GET("/flows/:id/buddies", cfg.BuddyHandler.ListBuddies)
	buddy.POST("/flows/:id/buddies", cfg.BuddyHandler.AssignBuddy)
	buddy.DELETE("/flows/:id/buddies/:buddyID", cfg.BuddyHandler.RemoveBuddy)

	// Moderator
	admin := api.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAnyRole(types.RoleModerator))
	admin.POST("/flows", cfg.AdminHandler.CreateFlow)
	admin.GET("/flows", cfg.AdminHandler.ListFlows)
	admin.GET("/flows/:id", cfg.AdminHandler.GetFlow)
	admin.PATCH("/flows/:id", cfg.AdminHandler.UpdateFlow)
	admin.DELETE("/flows/:id", cfg.AdminHandler.DeleteFlow)
	admin.POST("/flows/:id/steps", cfg.AdminHandler.AddStep)
	admin.DELETE("/flows/:id/steps/:stepID", cfg.AdminHandler.DeleteStep)
	admin.POST("/calendar", cfg.AdminHandler.UpsertCalendar)
	admin.POST("/users", cfg.AdminHandler.CreateUser)
	admin.POST("/user-flows/:id/suspend", cfg.AdminHandler.SuspendUserFlow)
	admin.POST("/user-flows/:id/unsuspend", cfg.AdminHandler.UnsuspendUserFlow)

	return router
}
