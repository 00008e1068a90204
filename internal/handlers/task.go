package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/taskpilot-org/taskpilot-backend/internal/requestdata"
  "github.com/taskpilot-org/taskpilot-backend/internal/services"
  "github.com/taskpilot-org/taskpilot-backend/internal/utils"
)

type TaskHandler struct {
  taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
  return &TaskHandler{taskService: taskService}
}

func (th *TaskHandler) ListTasks(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  tasks, err := th.taskService.ListTasks(c.Request.Context(), rd.UserID)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  c.JSON(http.StatusOK, tasks)
}

func (th *TaskHandler) CreateTask(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    Title       string  `json:"title"`
    Description *string `json:"description,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  task, err := th.taskService.CreateTask(c.Request.Context(), rd.UserID, services.TaskCreateInput{
    Title:       req.Title,
    Description: req.Description,
  })
  if err != nil {
    respondTaskError(c, err)
    return
  }
  c.JSON(http.StatusCreated, task)
}

func (th *TaskHandler) GetTask(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  taskID, ok := parseTaskID(c)
  if !ok {
    return
  }
  task, err := th.taskService.GetTask(c.Request.Context(), rd.UserID, taskID)
  if err != nil {
    respondTaskError(c, err)
    return
  }
  c.JSON(http.StatusOK, task)
}

func (th *TaskHandler) UpdateTask(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  taskID, ok := parseTaskID(c)
  if !ok {
    return
  }
  var req struct {
    Title       *string `json:"title,omitempty"`
    Description *string `json:"description,omitempty"`
    Completed   *bool   `json:"completed,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  task, err := th.taskService.UpdateTask(c.Request.Context(), rd.UserID, taskID, services.TaskUpdateInput{
    Title:       req.Title,
    Description: req.Description,
    Completed:   req.Completed,
  })
  if err != nil {
    respondTaskError(c, err)
    return
  }
  c.JSON(http.StatusOK, task)
}

func (th *TaskHandler) DeleteTask(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  taskID, ok := parseTaskID(c)
  if !ok {
    return
  }
  if err := th.taskService.DeleteTask(c.Request.Context(), rd.UserID, taskID); err != nil {
    respondTaskError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}

func (th *TaskHandler) ToggleTaskCompletion(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  taskID, ok := parseTaskID(c)
  if !ok {
    return
  }
  task, err := th.taskService.ToggleTaskCompletion(c.Request.Context(), rd.UserID, taskID)
  if err != nil {
    respondTaskError(c, err)
    return
  }
  c.JSON(http.StatusOK, task)
}

// parseTaskID answers 404 on a malformed id: an id that cannot exist is
// indistinguishable from one that does not.
func parseTaskID(c *gin.Context) (uuid.UUID, bool) {
  taskID, err := uuid.Parse(c.Param("task_id"))
  if err != nil {
    c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
    return uuid.Nil, false
  }
  return taskID, true
}

func respondTaskError(c *gin.Context, err error) {
  var ve *utils.ValidationError
  switch {
  case errors.Is(err, services.ErrTaskNotFound):
    c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
  case errors.As(err, &ve):
    c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
  default:
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
  }
}
