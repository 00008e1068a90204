package services

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/repos"
  "github.com/taskpilot-org/taskpilot-backend/internal/socket"
  "github.com/taskpilot-org/taskpilot-backend/internal/types"
  "github.com/taskpilot-org/taskpilot-backend/internal/utils"
)

// ErrTaskNotFound covers both an unknown id and someone else's task; the two
// are indistinguishable to the caller.
var ErrTaskNotFound = errors.New("task not found")

type TaskCreateInput struct {
  Title       string
  Description *string
}

// TaskUpdateInput is a partial patch: nil fields are left untouched.
type TaskUpdateInput struct {
  Title       *string
  Description *string
  Completed   *bool
}

type TaskService interface {
  ListTasks(ctx context.Context, userID uuid.UUID) ([]*types.Task, error)
  CreateTask(ctx context.Context, userID uuid.UUID, in TaskCreateInput) (*types.Task, error)
  GetTask(ctx context.Context, userID, taskID uuid.UUID) (*types.Task, error)
  UpdateTask(ctx context.Context, userID, taskID uuid.UUID, in TaskUpdateInput) (*types.Task, error)
  DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
  ToggleTaskCompletion(ctx context.Context, userID, taskID uuid.UUID) (*types.Task, error)
}

type taskService struct {
  db       *gorm.DB
  log      *logger.Logger
  taskRepo repos.TaskRepo
  hub      *socket.Hub
}

func NewTaskService(db *gorm.DB, log *logger.Logger, taskRepo repos.TaskRepo, hub *socket.Hub) TaskService {
  return &taskService{
    db:       db,
    log:      log.With("service", "TaskService"),
    taskRepo: taskRepo,
    hub:      hub,
  }
}

func (ts *taskService) ListTasks(ctx context.Context, userID uuid.UUID) ([]*types.Task, error) {
  return ts.taskRepo.GetByUserID(ctx, nil, userID)
}

func (ts *taskService) CreateTask(ctx context.Context, userID uuid.UUID, in TaskCreateInput) (*types.Task, error) {
  title, err := utils.ValidateTaskTitle(in.Title)
  if err != nil {
    return nil, err
  }
  if err := utils.ValidateTaskDescription(in.Description); err != nil {
    return nil, err
  }
  task := &types.Task{
    UserID:      userID,
    Title:       title,
    Description: in.Description,
  }
  task, err = ts.taskRepo.Create(ctx, nil, task)
  if err != nil {
    return nil, err
  }
  ts.broadcast(ctx, userID, socket.EventTaskCreated, task)
  return task, nil
}

func (ts *taskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*types.Task, error) {
  task, err := ts.taskRepo.GetByIDAndUserID(ctx, nil, taskID, userID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrTaskNotFound
    }
    return nil, err
  }
  return task, nil
}

func (ts *taskService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, in TaskUpdateInput) (*types.Task, error) {
  task, err := ts.GetTask(ctx, userID, taskID)
  if err != nil {
    return nil, err
  }
  if in.Title != nil {
    title, vErr := utils.ValidateTaskTitle(*in.Title)
    if vErr != nil {
      return nil, vErr
    }
    task.Title = title
  }
  if in.Description != nil {
    if vErr := utils.ValidateTaskDescription(in.Description); vErr != nil {
      return nil, vErr
    }
    task.Description = in.Description
  }
  if in.Completed != nil {
    task.Completed = *in.Completed
  }
  task.UpdatedAt = time.Now().UTC()
  task, err = ts.taskRepo.Save(ctx, nil, task)
  if err != nil {
    return nil, err
  }
  ts.broadcast(ctx, userID, socket.EventTaskUpdated, task)
  return task, nil
}

func (ts *taskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
  deleted, err := ts.taskRepo.DeleteByIDAndUserID(ctx, nil, taskID, userID)
  if err != nil {
    return err
  }
  if !deleted {
    return ErrTaskNotFound
  }
  ts.broadcast(ctx, userID, socket.EventTaskDeleted, map[string]string{"id": taskID.String()})
  return nil
}

func (ts *taskService) ToggleTaskCompletion(ctx context.Context, userID, taskID uuid.UUID) (*types.Task, error) {
  task, err := ts.GetTask(ctx, userID, taskID)
  if err != nil {
    return nil, err
  }
  task.Completed = !task.Completed
  task.UpdatedAt = time.Now().UTC()
  task, err = ts.taskRepo.Save(ctx, nil, task)
  if err != nil {
    return nil, err
  }
  ts.broadcast(ctx, userID, socket.EventTaskUpdated, task)
  return task, nil
}

func (ts *taskService) broadcast(ctx context.Context, userID uuid.UUID, event string, data interface{}) {
  if ts.hub == nil {
    return
  }
  ts.hub.BroadcastGlobal(ctx, socket.TaskEvent(userID, event, data))
}
