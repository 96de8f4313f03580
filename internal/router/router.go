package router

import (
	"github.com/gin-gonic/gin"

	"promptstack/internal/admin"
	"promptstack/internal/comments"
	"promptstack/internal/handlers"
	"promptstack/internal/middleware"
	"promptstack/internal/prompts"
	"promptstack/internal/store"
	"promptstack/internal/views"
)

// RegisterRoutes wires services and handlers onto the engine. The store
// client and cache come in explicitly; nothing here reaches for globals.
func RegisterRoutes(r *gin.Engine, st store.Client, cache *views.Cache) {
	promptService := prompts.NewService(st, cache)
	commentService := comments.NewService(st, cache)
	adminService := admin.NewService(st, cache)

	authHandler := handlers.NewAuthHandler(st)
	promptHandler := handlers.NewPromptHandler(promptService, cache)
	commentHandler := handlers.NewCommentHandler(commentService)
	adminHandler := handlers.NewAdminHandler(adminService, cache)

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	api.GET("/prompts", promptHandler.Feed)
	api.GET("/prompts/:id", promptHandler.Detail)
	api.GET("/prompts/:id/comments", commentHandler.List)
	api.GET("/categories", promptHandler.Categories)

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)
		authorized.GET("/dashboard/prompts", promptHandler.Mine)
		authorized.POST("/prompts", promptHandler.Create)
		authorized.PATCH("/prompts/:id", promptHandler.Update)
		authorized.DELETE("/prompts/:id", promptHandler.Delete)
		authorized.POST("/prompts/:id/vote", promptHandler.Vote)
		authorized.POST("/prompts/:id/comments", commentHandler.Create)
		authorized.DELETE("/comments/:cid", commentHandler.Delete)
	}

	// Admin routes (gated inside the admin service as well)
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthRequired())
	{
		adminGroup.GET("/stats", adminHandler.Stats)
		adminGroup.GET("/prompts/:id", adminHandler.SearchPrompt)
		adminGroup.DELETE("/prompts/:id", adminHandler.DeletePrompt)
	}
}
