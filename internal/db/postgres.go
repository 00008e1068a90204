package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/taskpilot-org/taskpilot-backend/internal/types"
  "github.com/taskpilot-org/taskpilot-backend/internal/utils"
  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  //1) Get and Set Environment Variables
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "taskpilot", log)

  //2) Construct DSN From Environment Variables
  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  //3) Attempt DB Connection
  serviceLog.Info("Attempting to connect to Postgres DB now...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres DB", "error", err)
    return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
  }
  serviceLog.Info("Successfully connected to Postgres DB")

  //4) Enable uuid-ossp Extension
  if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
  }

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Starting AutoMigrateAll for all GORM models now...")

  err := s.db.AutoMigrate(
    &types.User{},
    &types.Task{},
    &types.Conversation{},
    &types.Message{},
  )
  if err != nil {
    s.log.Error("AutoMigrateAll failed", "error", err)
    return err
  }
  s.log.Info("AutoMigrateAll completed successfully")

  s.log.Info("Configuring Foreign Key Relationships now...")
  // -- Task.user_id => users.id (ON DELETE CASCADE)
  if err := s.db.Exec(`
      ALTER TABLE "tasks"
      DROP CONSTRAINT IF EXISTS "fk_tasks_user_id",
      ADD CONSTRAINT "fk_tasks_user_id"
      FOREIGN KEY ("user_id")
      REFERENCES "users"("id")
      ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("failed to add fk_tasks_user_id: %w", err)
  }
  // -- Conversation.user_id => users.id (ON DELETE CASCADE)
  if err := s.db.Exec(`
      ALTER TABLE "conversations"
      DROP CONSTRAINT IF EXISTS "fk_conversations_user_id",
      ADD CONSTRAINT "fk_conversations_user_id"
      FOREIGN KEY ("user_id")
      REFERENCES "users"("id")
      ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("failed to add fk_conversations_user_id: %w", err)
  }
  // -- Message.conversation_id => conversations.id (ON DELETE CASCADE)
  if err := s.db.Exec(`
      ALTER TABLE "messages"
      DROP CONSTRAINT IF EXISTS "fk_messages_conversation_id",
      ADD CONSTRAINT "fk_messages_conversation_id"
      FOREIGN KEY ("conversation_id")
      REFERENCES "conversations"("id")
      ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("failed to add fk_messages_conversation_id: %w", err)
  }
  s.log.Info("Successfully added Foreign Key Relationships")

  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
