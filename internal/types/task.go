package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

type Task struct {
  gorm.Model
  ID                  uuid.UUID                 `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID              uuid.UUID                 `gorm:"index;not null" json:"user_id"`
  User                *User                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  Title               string                    `gorm:"not null;column:title" json:"title"`
  Description         *string                   `gorm:"column:description" json:"description,omitempty"`
  Completed           bool                      `gorm:"not null;default:false;column:completed" json:"completed"`

  CreatedAt           time.Time                 `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt           time.Time                 `gorm:"not null;default:now()" json:"updated_at"`
}

func (Task) TableName() string {
  return "tasks"
}
