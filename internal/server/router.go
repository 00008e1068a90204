package server

import (
  "net/http"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/taskpilot-org/taskpilot-backend/internal/handlers"
  "github.com/taskpilot-org/taskpilot-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler         *handlers.AuthHandler
  AuthMiddleware      *middleware.AuthMiddleware
  TaskHandler         *handlers.TaskHandler
  ChatHandler         *handlers.ChatHandler
  ConversationHandler *handlers.ConversationHandler
  WsHandler           gin.HandlerFunc
  CorsOrigins         []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.New()
  router.Use(gin.Logger())
  // Any uncaught panic collapses to a generic 500; nothing internal leaks.
  router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
    c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
  }))

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  router.Use(cors.New(cors.Config{
    AllowOrigins:     cfg.CorsOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/", handlers.Root)
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.POST("/auth/signup", cfg.AuthHandler.Signup)
    api.POST("/auth/login", cfg.AuthHandler.Login)
  }

  //------------------------------------------
  // Protected Routes (token must match path user id)
  //------------------------------------------
  protected := api.Group("/:user_id")
  protected.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireSelf())

  //Tasks
  protected.GET("/tasks", cfg.TaskHandler.ListTasks)
  protected.POST("/tasks", cfg.TaskHandler.CreateTask)
  protected.GET("/tasks/:task_id", cfg.TaskHandler.GetTask)
  protected.PUT("/tasks/:task_id", cfg.TaskHandler.UpdateTask)
  protected.DELETE("/tasks/:task_id", cfg.TaskHandler.DeleteTask)
  protected.PATCH("/tasks/:task_id/complete", cfg.TaskHandler.ToggleTaskCompletion)

  //Chat
  protected.POST("/chat", cfg.ChatHandler.Chat)
  protected.GET("/conversations", cfg.ConversationHandler.ListConversations)
  protected.GET("/conversations/:conversation_id/messages", cfg.ConversationHandler.GetConversationMessages)

  //Events
  protected.GET("/ws", cfg.WsHandler)

  return router
}
