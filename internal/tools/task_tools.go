package tools

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskpilot-org/taskpilot-backend/internal/repos"
  "github.com/taskpilot-org/taskpilot-backend/internal/socket"
  "github.com/taskpilot-org/taskpilot-backend/internal/types"
  "github.com/taskpilot-org/taskpilot-backend/internal/utils"
)

// Context binds a tool invocation to the acting user and a live storage
// handle. It is built fresh per chat turn; tools never read an identity out
// of their arguments.
type Context struct {
  UserID uuid.UUID
  Tasks  repos.TaskRepo
  Hub    *socket.Hub
}

// Tool is one named capability the agent may invoke. Parameters is a JSON
// schema object handed to the model verbatim. Execute returns the tool output
// as a JSON string; logical failures (unknown id, invalid input) are reported
// inside that JSON as {"error": ...} with a nil Go error, so the agent can
// narrate them. A non-nil Go error means infrastructure failure and aborts
// the turn.
type Tool struct {
  Name        string
  Description string
  Parameters  map[string]interface{}
  Execute     func(ctx context.Context, tc *Context, args json.RawMessage) (string, error)
}

// TaskTools returns the six task capabilities exposed to the action agent.
func TaskTools() []Tool {
  return []Tool{
    addTaskTool(),
    listTasksTool(),
    getTaskTool(),
    updateTaskTool(),
    completeTaskTool(),
    deleteTaskTool(),
  }
}

type taskView struct {
  ID          string  `json:"id"`
  Title       string  `json:"title"`
  Description *string `json:"description"`
  Completed   bool    `json:"completed"`
  CreatedAt   string  `json:"created_at"`
  UpdatedAt   string  `json:"updated_at"`
}

func viewOf(t *types.Task) taskView {
  return taskView{
    ID:          t.ID.String(),
    Title:       t.Title,
    Description: t.Description,
    Completed:   t.Completed,
    CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
    UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
  }
}

func marshalResult(v interface{}) (string, error) {
  raw, err := json.Marshal(v)
  if err != nil {
    return "", fmt.Errorf("failed to marshal tool result: %w", err)
  }
  return string(raw), nil
}

func logicalError(format string, args ...interface{}) (string, error) {
  return marshalResult(map[string]string{"error": fmt.Sprintf(format, args...)})
}

func (tc *Context) broadcast(ctx context.Context, event string, data interface{}) {
  if tc.Hub == nil {
    return
  }
  tc.Hub.BroadcastGlobal(ctx, socket.TaskEvent(tc.UserID, event, data))
}

func addTaskTool() Tool {
  return Tool{
    Name:        "add_task",
    Description: "Create a new task for the user. Requires a title, optional description. Returns the created task as JSON.",
    Parameters: map[string]interface{}{
      "type": "object",
      "properties": map[string]interface{}{
        "title": map[string]interface{}{
          "type":        "string",
          "description": "Short title of the task",
        },
        "description": map[string]interface{}{
          "type":        "string",
          "description": "Optional longer description of the task",
        },
      },
      "required": []string{"title"},
    },
    Execute: func(ctx context.Context, tc *Context, args json.RawMessage) (string, error) {
      var in struct {
        Title       string  `json:"title"`
        Description *string `json:"description"`
      }
      if err := json.Unmarshal(args, &in); err != nil {
        return logicalError("invalid arguments: %v", err)
      }
      title, err := utils.ValidateTaskTitle(in.Title)
      if err != nil {
        return logicalError("%v", err)
      }
      if err := utils.ValidateTaskDescription(in.Description); err != nil {
        return logicalError("%v", err)
      }
      task := &types.Task{
        UserID:      tc.UserID,
        Title:       title,
        Description: in.Description,
      }
      task, err = tc.Tasks.Create(ctx, nil, task)
      if err != nil {
        return "", err
      }
      tc.broadcast(ctx, socket.EventTaskCreated, task)
      return marshalResult(viewOf(task))
    },
  }
}

func listTasksTool() Tool {
  return Tool{
    Name:        "list_tasks",
    Description: "List all tasks for the current user. Returns a JSON array of tasks.",
    Parameters: map[string]interface{}{
      "type":       "object",
      "properties": map[string]interface{}{},
    },
    Execute: func(ctx context.Context, tc *Context, args json.RawMessage) (string, error) {
      tasks, err := tc.Tasks.GetByUserID(ctx, nil, tc.UserID)
      if err != nil {
        return "", err
      }
      views := make([]taskView, 0, len(tasks))
      for _, t := range tasks {
        views = append(views, viewOf(t))
      }
      return marshalResult(views)
    },
  }
}

func getTaskTool() Tool {
  return Tool{
    Name:        "get_task",
    Description: "Get a specific task by its ID for the current user. Returns the task as JSON.",
    Parameters: map[string]interface{}{
      "type": "object",
      "properties": map[string]interface{}{
        "task_id": map[string]interface{}{
          "type":        "string",
          "description": "ID of the task to fetch",
        },
      },
      "required": []string{"task_id"},
    },
    Execute: func(ctx context.Context, tc *Context, args json.RawMessage) (string, error) {
      var in struct {
        TaskID string `json:"task_id"`
      }
      if err := json.Unmarshal(args, &in); err != nil {
        return logicalError("invalid arguments: %v", err)
      }
      id, err := uuid.Parse(in.TaskID)
      if err != nil {
        return logicalError("task with id %s not found", in.TaskID)
      }
      task, err := tc.Tasks.GetByIDAndUserID(ctx, nil, id, tc.UserID)
      if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
          return logicalError("task with id %s not found", in.TaskID)
        }
        return "", err
      }
      return marshalResult(viewOf(task))
    },
  }
}

func updateTaskTool() Tool {
  return Tool{
    Name:        "update_task",
    Description: "Update an existing task's title or description. Only the provided fields change. Returns the updated task as JSON.",
    Parameters: map[string]interface{}{
      "type": "object",
      "properties": map[string]interface{}{
        "task_id": map[string]interface{}{
          "type":        "string",
          "description": "ID of the task to update",
        },
        "title": map[string]interface{}{
          "type":        "string",
          "description": "New title for the task",
        },
        "description": map[string]interface{}{
          "type":        "string",
          "description": "New description for the task",
        },
      },
      "required": []string{"task_id"},
    },
    Execute: func(ctx context.Context, tc *Context, args json.RawMessage) (string, error) {
      var in struct {
        TaskID      string  `json:"task_id"`
        Title       *string `json:"title"`
        Description *string `json:"description"`
      }
      if err := json.Unmarshal(args, &in); err != nil {
        return logicalError("invalid arguments: %v", err)
      }
      id, err := uuid.Parse(in.TaskID)
      if err != nil {
        return logicalError("task with id %s not found", in.TaskID)
      }
      task, err := tc.Tasks.GetByIDAndUserID(ctx, nil, id, tc.UserID)
      if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
          return logicalError("task with id %s not found", in.TaskID)
        }
        return "", err
      }
      if in.Title != nil {
        title, vErr := utils.ValidateTaskTitle(*in.Title)
        if vErr != nil {
          return logicalError("%v", vErr)
        }
        task.Title = title
      }
      if in.Description != nil {
        if vErr := utils.ValidateTaskDescription(in.Description); vErr != nil {
          return logicalError("%v", vErr)
        }
        task.Description = in.Description
      }
      task.UpdatedAt = time.Now().UTC()
      task, err = tc.Tasks.Save(ctx, nil, task)
      if err != nil {
        return "", err
      }
      tc.broadcast(ctx, socket.EventTaskUpdated, task)
      return marshalResult(viewOf(task))
    },
  }
}

func completeTaskTool() Tool {
  return Tool{
    Name:        "complete_task",
    Description: "Toggle the completion status of a task. Returns the updated task as JSON.",
    Parameters: map[string]interface{}{
      "type": "object",
      "properties": map[string]interface{}{
        "task_id": map[string]interface{}{
          "type":        "string",
          "description": "ID of the task to toggle",
        },
      },
      "required": []string{"task_id"},
    },
    Execute: func(ctx context.Context, tc *Context, args json.RawMessage) (string, error) {
      var in struct {
        TaskID string `json:"task_id"`
      }
      if err := json.Unmarshal(args, &in); err != nil {
        return logicalError("invalid arguments: %v", err)
      }
      id, err := uuid.Parse(in.TaskID)
      if err != nil {
        return logicalError("task with id %s not found", in.TaskID)
      }
      task, err := tc.Tasks.GetByIDAndUserID(ctx, nil, id, tc.UserID)
      if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
          return logicalError("task with id %s not found", in.TaskID)
        }
        return "", err
      }
      task.Completed = !task.Completed
      task.UpdatedAt = time.Now().UTC()
      task, err = tc.Tasks.Save(ctx, nil, task)
      if err != nil {
        return "", err
      }
      tc.broadcast(ctx, socket.EventTaskUpdated, task)
      return marshalResult(viewOf(task))
    },
  }
}

func deleteTaskTool() Tool {
  return Tool{
    Name:        "delete_task",
    Description: "Delete a task by its ID. Returns a success flag or an error as JSON.",
    Parameters: map[string]interface{}{
      "type": "object",
      "properties": map[string]interface{}{
        "task_id": map[string]interface{}{
          "type":        "string",
          "description": "ID of the task to delete",
        },
      },
      "required": []string{"task_id"},
    },
    Execute: func(ctx context.Context, tc *Context, args json.RawMessage) (string, error) {
      var in struct {
        TaskID string `json:"task_id"`
      }
      if err := json.Unmarshal(args, &in); err != nil {
        return logicalError("invalid arguments: %v", err)
      }
      id, err := uuid.Parse(in.TaskID)
      if err != nil {
        return logicalError("task with id %s not found", in.TaskID)
      }
      deleted, err := tc.Tasks.DeleteByIDAndUserID(ctx, nil, id, tc.UserID)
      if err != nil {
        return "", err
      }
      if !deleted {
        return logicalError("task with id %s not found", in.TaskID)
      }
      tc.broadcast(ctx, socket.EventTaskDeleted, map[string]string{"id": in.TaskID})
      return marshalResult(map[string]interface{}{"success": true, "deleted_task_id": in.TaskID})
    },
  }
}
