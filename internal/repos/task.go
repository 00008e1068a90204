package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/types"
)

// TaskRepo scopes every by-id lookup to the owning user inside the query
// predicate itself, so a task belonging to someone else behaves exactly like
// a task that does not exist.
type TaskRepo interface {
  Create(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Task, error)
  GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Task, error)
  Save(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error)
  DeleteByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (bool, error)
}

type taskRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
  return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (tr *taskRepo) Create(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  if task.ID == uuid.Nil {
    task.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Create(task).Error; err != nil {
    tr.log.Error("failed to create task", "error", err)
    return nil, err
  }
  return task, nil
}

func (tr *taskRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  var tasks []*types.Task
  if err := tx.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at ASC").
    Find(&tasks).Error; err != nil {
    tr.log.Error("failed to list tasks by userID", "error", err)
    return nil, err
  }
  return tasks, nil
}

func (tr *taskRepo) GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  var t types.Task
  if err := tx.WithContext(ctx).
    Where("id = ? AND user_id = ?", id, userID).
    First(&t).Error; err != nil {
    return nil, err
  }
  return &t, nil
}

func (tr *taskRepo) Save(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  if err := tx.WithContext(ctx).Save(task).Error; err != nil {
    tr.log.Error("failed to save task", "error", err, "taskID", task.ID)
    return nil, err
  }
  return task, nil
}

// DeleteByIDAndUserID reports whether a row was actually deleted so callers
// can distinguish "gone" from "never yours".
func (tr *taskRepo) DeleteByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (bool, error) {
  if tx == nil {
    tx = tr.db
  }
  res := tx.WithContext(ctx).
    Where("id = ? AND user_id = ?", id, userID).
    Delete(&types.Task{})
  if res.Error != nil {
    tr.log.Error("failed to delete task", "error", res.Error, "taskID", id)
    return false, res.Error
  }
  return res.RowsAffected > 0, nil
}
