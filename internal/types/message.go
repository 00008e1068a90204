package types

import (
  "time"

  "gorm.io/gorm"
  "gorm.io/datatypes"
  "github.com/google/uuid"
)

const (
  MessageRoleUser      = "user"
  MessageRoleAssistant = "assistant"
  MessageRoleSystem    = "system"
)

type Message struct {
  gorm.Model
  ID                  uuid.UUID                 `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  ConversationID      uuid.UUID                 `gorm:"index;not null" json:"conversation_id"`
  Conversation        *Conversation             `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"-"`

  Role                string                    `gorm:"not null;column:role" json:"role"`
  Content             string                    `gorm:"type:text;not null;column:content" json:"content"`
  ToolCalls           datatypes.JSON            `gorm:"column:tool_calls" json:"tool_calls,omitempty"`

  CreatedAt           time.Time                 `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt           time.Time                 `gorm:"not null;default:now()" json:"updated_at"`
}

func (Message) TableName() string {
  return "messages"
}
