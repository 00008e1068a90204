package handlers

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/taskpilot-org/taskpilot-backend/internal/requestdata"
  "github.com/taskpilot-org/taskpilot-backend/internal/services"
)

type ChatHandler struct {
  chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

func (ch *ChatHandler) Chat(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    Message        string  `json:"message"`
    ConversationID *string `json:"conversation_id,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  message := strings.TrimSpace(req.Message)
  if message == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "message must not be empty"})
    return
  }
  var conversationID *uuid.UUID
  if req.ConversationID != nil {
    parsed, err := uuid.Parse(*req.ConversationID)
    if err == nil {
      conversationID = &parsed
    }
    // An unparseable id behaves like an unknown one: a new conversation
    // gets created.
  }

  result, err := ch.chatService.SendMessage(c.Request.Context(), rd.UserID, message, conversationID)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  c.JSON(http.StatusOK, result)
}
