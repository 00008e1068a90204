package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/taskpilot-org/taskpilot-backend/internal/requestdata"
  "github.com/taskpilot-org/taskpilot-backend/internal/services"
)

type ConversationHandler struct {
  chatService services.ChatService
}

func NewConversationHandler(chatService services.ChatService) *ConversationHandler {
  return &ConversationHandler{chatService: chatService}
}

func (ch *ConversationHandler) ListConversations(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  conversations, err := ch.chatService.ListConversations(c.Request.Context(), rd.UserID)
  if err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  c.JSON(http.StatusOK, conversations)
}

func (ch *ConversationHandler) GetConversationMessages(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  conversationID, err := uuid.Parse(c.Param("conversation_id"))
  if err != nil {
    c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
    return
  }
  messages, err := ch.chatService.GetConversationMessages(c.Request.Context(), rd.UserID, conversationID)
  if err != nil {
    if errors.Is(err, services.ErrConversationNotFound) {
      c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  c.JSON(http.StatusOK, messages)
}
