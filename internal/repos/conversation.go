package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/types"
)

type ConversationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error)
  GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error)
  TouchUpdatedAt(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type conversationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
  return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  if conversation.ID == uuid.Nil {
    conversation.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Create(conversation).Error; err != nil {
    cr.log.Error("failed to create conversation", "error", err)
    return nil, err
  }
  return conversation, nil
}

func (cr *conversationRepo) GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var c types.Conversation
  if err := tx.WithContext(ctx).
    Where("id = ? AND user_id = ?", id, userID).
    First(&c).Error; err != nil {
    return nil, err
  }
  return &c, nil
}

func (cr *conversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var conversations []*types.Conversation
  if err := tx.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("updated_at DESC").
    Find(&conversations).Error; err != nil {
    cr.log.Error("failed to list conversations by userID", "error", err)
    return nil, err
  }
  return conversations, nil
}

func (cr *conversationRepo) TouchUpdatedAt(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  if tx == nil {
    tx = cr.db
  }
  if err := tx.WithContext(ctx).
    Model(&types.Conversation{}).
    Where("id = ?", id).
    Update("updated_at", time.Now().UTC()).Error; err != nil {
    cr.log.Error("failed to touch conversation updated_at", "error", err, "conversationID", id)
    return err
  }
  return nil
}
