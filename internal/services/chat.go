package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "strings"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/taskpilot-org/taskpilot-backend/internal/agent"
  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/repos"
  "github.com/taskpilot-org/taskpilot-backend/internal/socket"
  "github.com/taskpilot-org/taskpilot-backend/internal/tools"
  "github.com/taskpilot-org/taskpilot-backend/internal/types"
)

var ErrConversationNotFound = errors.New("conversation not found")

const (
  conversationTitleLimit = 50

  chatErrorMessage = "I'm sorry, I encountered an error processing your request. Please try again."
)

// AgentRunner is the contract the chat turn exposes to the agent layer:
// ordered history in, final text plus the record of tool invocations out.
type AgentRunner interface {
  Run(ctx context.Context, history []agent.Message, tc *tools.Context) (*agent.RunResult, error)
}

type ChatResponseBody struct {
  Type    string                 `json:"type"`
  Content string                 `json:"content"`
  Meta    map[string]interface{} `json:"meta"`
}

type ChatResult struct {
  Status         string           `json:"status"`
  ConversationID uuid.UUID        `json:"conversation_id"`
  Response       ChatResponseBody `json:"response"`
}

type ChatService interface {
  // SendMessage runs one chat turn. An agent failure is not an error return:
  // the user message stays persisted and the result carries status "error"
  // with a user-safe message.
  SendMessage(ctx context.Context, userID uuid.UUID, message string, conversationID *uuid.UUID) (*ChatResult, error)

  ListConversations(ctx context.Context, userID uuid.UUID) ([]*types.Conversation, error)
  GetConversationMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]*types.Message, error)
}

type chatService struct {
  db               *gorm.DB
  log              *logger.Logger
  conversationRepo repos.ConversationRepo
  messageRepo      repos.MessageRepo
  taskRepo         repos.TaskRepo
  runner           AgentRunner
  hub              *socket.Hub
}

func NewChatService(
  db *gorm.DB,
  log *logger.Logger,
  conversationRepo repos.ConversationRepo,
  messageRepo repos.MessageRepo,
  taskRepo repos.TaskRepo,
  runner AgentRunner,
  hub *socket.Hub,
) ChatService {
  return &chatService{
    db:               db,
    log:              log.With("service", "ChatService"),
    conversationRepo: conversationRepo,
    messageRepo:      messageRepo,
    taskRepo:         taskRepo,
    runner:           runner,
    hub:              hub,
  }
}

func (cs *chatService) SendMessage(ctx context.Context, userID uuid.UUID, message string, conversationID *uuid.UUID) (*ChatResult, error) {
  //1) Resolve or create the conversation
  conversation, err := cs.resolveConversation(ctx, userID, message, conversationID)
  if err != nil {
    return nil, err
  }

  //2) Persist the inbound message before the agent runs, so the replayed
  //   history always includes the current turn and the user's input survives
  //   an agent failure.
  userMessage := &types.Message{
    ConversationID: conversation.ID,
    Role:           types.MessageRoleUser,
    Content:        message,
  }
  if _, err := cs.messageRepo.Create(ctx, nil, userMessage); err != nil {
    return nil, fmt.Errorf("failed to persist user message: %w", err)
  }

  //3) Replay the full ordered history
  history, err := cs.buildHistory(ctx, conversation.ID)
  if err != nil {
    return nil, err
  }

  //4) Run the agent with a freshly bound tool context
  tc := &tools.Context{
    UserID: userID,
    Tasks:  cs.taskRepo,
    Hub:    cs.hub,
  }
  result, err := cs.runner.Run(ctx, history, tc)
  if err != nil {
    cs.log.Error("agent run failed", "error", err, "conversationID", conversation.ID)
    return &ChatResult{
      Status:         "error",
      ConversationID: conversation.ID,
      Response: ChatResponseBody{
        Type:    "text",
        Content: chatErrorMessage,
        Meta:    map[string]interface{}{},
      },
    }, nil
  }

  //5) Persist the outbound message with its tool-call record
  assistantMessage := &types.Message{
    ConversationID: conversation.ID,
    Role:           types.MessageRoleAssistant,
    Content:        result.FinalOutput,
  }
  if len(result.ToolCalls) > 0 {
    raw, mErr := json.Marshal(result.ToolCalls)
    if mErr != nil {
      return nil, fmt.Errorf("failed to marshal tool calls: %w", mErr)
    }
    assistantMessage.ToolCalls = datatypes.JSON(raw)
  }
  if _, err := cs.messageRepo.Create(ctx, nil, assistantMessage); err != nil {
    return nil, fmt.Errorf("failed to persist assistant message: %w", err)
  }
  if err := cs.conversationRepo.TouchUpdatedAt(ctx, nil, conversation.ID); err != nil {
    return nil, err
  }

  meta := map[string]interface{}{}
  if len(result.ToolCalls) > 0 {
    meta["tool_calls"] = result.ToolCalls
  }
  return &ChatResult{
    Status:         "success",
    ConversationID: conversation.ID,
    Response: ChatResponseBody{
      Type:    "text",
      Content: result.FinalOutput,
      Meta:    meta,
    },
  }, nil
}

// resolveConversation reuses the supplied conversation when it belongs to the
// caller and lazily creates one otherwise, titling it with the first 50
// characters of the inbound message.
func (cs *chatService) resolveConversation(ctx context.Context, userID uuid.UUID, message string, conversationID *uuid.UUID) (*types.Conversation, error) {
  if conversationID != nil {
    conversation, err := cs.conversationRepo.GetByIDAndUserID(ctx, nil, *conversationID, userID)
    if err == nil {
      return conversation, nil
    }
    if !errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, err
    }
  }
  title := deriveTitle(message)
  conversation := &types.Conversation{
    UserID: userID,
    Title:  &title,
  }
  return cs.conversationRepo.Create(ctx, nil, conversation)
}

func (cs *chatService) buildHistory(ctx context.Context, conversationID uuid.UUID) ([]agent.Message, error) {
  msgs, err := cs.messageRepo.GetByConversationID(ctx, nil, conversationID)
  if err != nil {
    return nil, err
  }
  history := make([]agent.Message, 0, len(msgs))
  for _, m := range msgs {
    history = append(history, agent.Message{Role: m.Role, Content: m.Content})
  }
  return history, nil
}

func deriveTitle(message string) string {
  runes := []rune(strings.TrimSpace(message))
  if len(runes) > conversationTitleLimit {
    runes = runes[:conversationTitleLimit]
  }
  return strings.TrimSpace(string(runes))
}

func (cs *chatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*types.Conversation, error) {
  return cs.conversationRepo.GetByUserID(ctx, nil, userID)
}

func (cs *chatService) GetConversationMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]*types.Message, error) {
  if _, err := cs.conversationRepo.GetByIDAndUserID(ctx, nil, conversationID, userID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrConversationNotFound
    }
    return nil, err
  }
  return cs.messageRepo.GetByConversationID(ctx, nil, conversationID)
}
