package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/types"
)

type MessageRepo interface {
  Create(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error)
  // GetByConversationID returns the full history in created_at order, which
  // is the sole ordering key for replay to the agent.
  GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error)
  CountByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error)
}

type messageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
  return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (mr *messageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  if message.ID == uuid.Nil {
    message.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Create(message).Error; err != nil {
    mr.log.Error("failed to create message", "error", err)
    return nil, err
  }
  return message, nil
}

func (mr *messageRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  var msgs []*types.Message
  if err := tx.WithContext(ctx).
    Where("conversation_id = ?", conversationID).
    Order("created_at ASC").
    Find(&msgs).Error; err != nil {
    mr.log.Error("failed to get messages by conversationID", "error", err)
    return nil, err
  }
  return msgs, nil
}

func (mr *messageRepo) CountByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error) {
  if tx == nil {
    tx = mr.db
  }
  var count int64
  if err := tx.WithContext(ctx).
    Model(&types.Message{}).
    Where("conversation_id = ?", conversationID).
    Count(&count).Error; err != nil {
    mr.log.Error("failed to count messages by conversationID", "error", err)
    return 0, err
  }
  return count, nil
}
