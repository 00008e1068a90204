package main

import (
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/tmc/langchaingo/llms/openai"

  "github.com/taskpilot-org/taskpilot-backend/internal/agent"
  "github.com/taskpilot-org/taskpilot-backend/internal/db"
  "github.com/taskpilot-org/taskpilot-backend/internal/handlers"
  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/middleware"
  "github.com/taskpilot-org/taskpilot-backend/internal/repos"
  "github.com/taskpilot-org/taskpilot-backend/internal/server"
  "github.com/taskpilot-org/taskpilot-backend/internal/services"
  "github.com/taskpilot-org/taskpilot-backend/internal/socket"
  "github.com/taskpilot-org/taskpilot-backend/internal/utils"
)

func main() {
  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Attempting to load environment variables for Main now...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  tokenTTL := utils.GetEnvAsInt("TOKEN_TTL", 604800, log) // 7 days
  redisAddress := utils.GetEnv("REDIS_ADDRESS", "", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  openaiModel := utils.GetEnv("OPENAI_MODEL", "gpt-4o-mini", log)
  openaiBaseURL := utils.GetEnv("OPENAI_BASE_URL", "", log)
  corsOriginsStr := utils.GetEnv("CORS_ORIGINS", "http://localhost:3000", log)
  var corsOrigins []string
  for _, origin := range strings.Split(corsOriginsStr, ",") {
    if trimmed := strings.TrimSpace(origin); trimmed != "" {
      corsOrigins = append(corsOrigins, trimmed)
    }
  }

  // Postgres Setup
  log.Info("Setting Up Postgres from Main now...")
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Fatal error: cannot init Postgres", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  userRepo := repos.NewUserRepo(thePG, log)
  taskRepo := repos.NewTaskRepo(thePG, log)
  conversationRepo := repos.NewConversationRepo(thePG, log)
  messageRepo := repos.NewMessageRepo(thePG, log)

  // Websocket Hub Setup
  log.Info("Setting Up Websocket Hub from Main now...")
  wsHub := socket.NewHub(log)

  // Redis PubSub (optional; single-node works without it)
  if redisAddress != "" {
    redisChanName := "taskpilot_hub_broadcast"
    redisPubSub, rErr := socket.NewRedisPubSub(log, redisAddress, redisPassword, redisChanName)
    if rErr != nil {
      log.Warn("Failed to init redis pubsub", "error", rErr)
    } else if sErr := redisPubSub.StartSubscriber(wsHub); sErr != nil {
      log.Warn("Failed to subscribe to Redis pub/sub", "error", sErr)
    } else {
      wsHub.SetRedisPubSub(redisPubSub)
      defer redisPubSub.Stop()
      log.Info("Redis pubsub is active")
    }
  }

  // LLM Setup
  log.Info("Setting Up LLM client from Main now...")
  llmOpts := []openai.Option{openai.WithModel(openaiModel)}
  if openaiBaseURL != "" {
    llmOpts = append(llmOpts, openai.WithBaseURL(openaiBaseURL))
  }
  llm, err := openai.New(llmOpts...)
  if err != nil {
    log.Error("Fatal error: cannot init LLM client", "error", err)
    os.Exit(1)
  }
  agentRunner := agent.NewRunner(llm, log)

  // Services Setup
  log.Info("Setting up Services from Main now...")
  emailService, err := services.NewEmailService(log)
  if err != nil {
    log.Warn("Could not init EmailService; welcome emails disabled", "error", err)
  }
  authService := services.NewAuthService(thePG, log, userRepo, emailService, jwtSecretKey, time.Duration(tokenTTL)*time.Second)
  taskService := services.NewTaskService(thePG, log, taskRepo, wsHub)
  chatService := services.NewChatService(thePG, log, conversationRepo, messageRepo, taskRepo, agentRunner, wsHub)

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(authService)
  taskHandler := handlers.NewTaskHandler(taskService)
  chatHandler := handlers.NewChatHandler(chatService)
  conversationHandler := handlers.NewConversationHandler(chatService)
  wsHandler := handlers.WsHandler(wsHub, log)

  // Middleware Setup
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:         authHandler,
    AuthMiddleware:      authMiddleware,
    TaskHandler:         taskHandler,
    ChatHandler:         chatHandler,
    ConversationHandler: conversationHandler,
    WsHandler:           wsHandler,
    CorsOrigins:         corsOrigins,
  })

  port := utils.GetEnv("PORT", "8080", log)
  log.Info("Server listening", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
    os.Exit(1)
  }
}
