package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

type Conversation struct {
  gorm.Model
  ID                  uuid.UUID                 `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID              uuid.UUID                 `gorm:"index;not null" json:"user_id"`
  User                *User                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  Title               *string                   `gorm:"column:title" json:"title,omitempty"`

  CreatedAt           time.Time                 `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt           time.Time                 `gorm:"not null;default:now()" json:"updated_at"`
}

func (Conversation) TableName() string {
  return "conversations"
}
