package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"gorm.io/gorm"

	"github.com/taskpilot-org/taskpilot-backend/internal/agent"
	"github.com/taskpilot-org/taskpilot-backend/internal/handlers"
	"github.com/taskpilot-org/taskpilot-backend/internal/logger"
	"github.com/taskpilot-org/taskpilot-backend/internal/middleware"
	"github.com/taskpilot-org/taskpilot-backend/internal/services"
	"github.com/taskpilot-org/taskpilot-backend/internal/types"
)

// ---------------------------------------------------------------------------
// in-memory storage backing the full HTTP stack
// ---------------------------------------------------------------------------

type memStore struct {
	users         map[string]*types.User
	taskOrder     []uuid.UUID
	tasks         map[uuid.UUID]*types.Task
	conversations map[uuid.UUID]*types.Conversation
	messages      []*types.Message
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[string]*types.User),
		tasks:         make(map[uuid.UUID]*types.Task),
		conversations: make(map[uuid.UUID]*types.Conversation),
	}
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	user.ID = uuid.New()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.Email] = user
	return user, nil
}

func (r *memUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	for _, u := range r.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	if u, ok := r.s.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, ok := r.s.users[email]
	return ok, nil
}

type memTaskRepo struct{ s *memStore }

func (r *memTaskRepo) Create(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error) {
	task.ID = uuid.New()
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	cp := *task
	r.s.tasks[task.ID] = &cp
	r.s.taskOrder = append(r.s.taskOrder, task.ID)
	return task, nil
}

func (r *memTaskRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Task, error) {
	var out []*types.Task
	for _, id := range r.s.taskOrder {
		if t, ok := r.s.tasks[id]; ok && t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memTaskRepo) GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Task, error) {
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTaskRepo) Save(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error) {
	cp := *task
	r.s.tasks[task.ID] = &cp
	return task, nil
}

func (r *memTaskRepo) DeleteByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (bool, error) {
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(r.s.tasks, id)
	return true, nil
}

type memConversationRepo struct{ s *memStore }

func (r *memConversationRepo) Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error) {
	conversation.ID = uuid.New()
	now := time.Now().UTC()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	r.s.conversations[conversation.ID] = conversation
	return conversation, nil
}

func (r *memConversationRepo) GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error) {
	c, ok := r.s.conversations[id]
	if !ok || c.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *memConversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
	var out []*types.Conversation
	for _, c := range r.s.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memConversationRepo) TouchUpdatedAt(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if c, ok := r.s.conversations[id]; ok {
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

type memMessageRepo struct{ s *memStore }

func (r *memMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error) {
	message.ID = uuid.New()
	message.CreatedAt = time.Now().UTC()
	r.s.messages = append(r.s.messages, message)
	return message, nil
}

func (r *memMessageRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
	var out []*types.Message
	for _, m := range r.s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessageRepo) CountByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error) {
	msgs, _ := r.GetByConversationID(ctx, tx, conversationID)
	return int64(len(msgs)), nil
}

// queueModel pops one canned response per model call.
type queueModel struct {
	responses []*llms.ContentResponse
}

func (q *queueModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(q.responses) == 0 {
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}, nil
	}
	resp := q.responses[0]
	q.responses = q.responses[1:]
	return resp, nil
}

func (q *queueModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

// ---------------------------------------------------------------------------
// stack assembly
// ---------------------------------------------------------------------------

type testStack struct {
	router *gin.Engine
	store  *memStore
	model  *queueModel
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("development")
	require.NoError(t, err)

	store := newMemStore()
	model := &queueModel{}

	userRepo := &memUserRepo{s: store}
	taskRepo := &memTaskRepo{s: store}
	conversationRepo := &memConversationRepo{s: store}
	messageRepo := &memMessageRepo{s: store}

	authService := services.NewAuthService(nil, log, userRepo, nil, "test-secret", time.Hour)
	taskService := services.NewTaskService(nil, log, taskRepo, nil)
	runner := agent.NewRunner(model, log)
	chatService := services.NewChatService(nil, log, conversationRepo, messageRepo, taskRepo, runner, nil)

	router := NewRouter(RouterConfig{
		AuthHandler:         handlers.NewAuthHandler(authService),
		AuthMiddleware:      middleware.NewAuthMiddleware(log, authService),
		TaskHandler:         handlers.NewTaskHandler(taskService),
		ChatHandler:         handlers.NewChatHandler(chatService),
		ConversationHandler: handlers.NewConversationHandler(chatService),
		WsHandler:           func(c *gin.Context) { c.Status(http.StatusOK) },
		CorsOrigins:         []string{"http://localhost:3000"},
	})
	return &testStack{router: router, store: store, model: model}
}

func (ts *testStack) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testStack) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestHealthEndpoints(t *testing.T) {
	ts := newTestStack(t)

	w := ts.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")

	w = ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestSignupLoginFlow(t *testing.T) {
	ts := newTestStack(t)

	token, userID := ts.signup(t, "alice@example.com")
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, userID)

	w := ts.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":    "alice@example.com",
		"password": "password456",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")

	w = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTaskCRUDOverHTTP(t *testing.T) {
	ts := newTestStack(t)
	token, userID := ts.signup(t, "bob@example.com")
	base := "/api/" + userID

	w := ts.do(t, http.MethodPost, base+"/tasks", token, gin.H{
		"title":       "  Buy milk  ",
		"description": "2 liters",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created types.Task
	decodeJSON(t, w, &created)
	assert.Equal(t, "Buy milk", created.Title)

	w = ts.do(t, http.MethodGet, base+"/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []types.Task
	decodeJSON(t, w, &list)
	require.Len(t, list, 1)

	w = ts.do(t, http.MethodPut, base+"/tasks/"+created.ID.String(), token, gin.H{"title": "Buy oat milk"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated types.Task
	decodeJSON(t, w, &updated)
	assert.Equal(t, "Buy oat milk", updated.Title)

	w = ts.do(t, http.MethodPatch, base+"/tasks/"+created.ID.String()+"/complete", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled types.Task
	decodeJSON(t, w, &toggled)
	assert.True(t, toggled.Completed)

	w = ts.do(t, http.MethodDelete, base+"/tasks/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, base+"/tasks/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskValidationOverHTTP(t *testing.T) {
	ts := newTestStack(t)
	token, userID := ts.signup(t, "carol@example.com")
	base := "/api/" + userID

	w := ts.do(t, http.MethodPost, base+"/tasks", token, gin.H{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, base+"/tasks/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCrossUserAccessForbidden(t *testing.T) {
	ts := newTestStack(t)
	aliceToken, aliceID := ts.signup(t, "alice@example.com")
	bobToken, bobID := ts.signup(t, "bob@example.com")

	w := ts.do(t, http.MethodPost, "/api/"+aliceID+"/tasks", aliceToken, gin.H{"title": "secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task types.Task
	decodeJSON(t, w, &task)

	// Bob under Alice's path is rejected outright.
	w = ts.do(t, http.MethodGet, "/api/"+aliceID+"/tasks", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Bob under his own path cannot see Alice's task either.
	w = ts.do(t, http.MethodGet, "/api/"+bobID+"/tasks/"+task.ID.String(), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatCreatesTaskThroughAgent(t *testing.T) {
	ts := newTestStack(t)
	token, userID := ts.signup(t, "dave@example.com")
	base := "/api/" + userID

	ts.model.responses = []*llms.ContentResponse{
		{Choices: []*llms.ContentChoice{{ToolCalls: []llms.ToolCall{{
			ID: "call_1", Type: "function",
			FunctionCall: &llms.FunctionCall{Name: "transfer_to_action_agent", Arguments: "{}"},
		}}}}},
		{Choices: []*llms.ContentChoice{{ToolCalls: []llms.ToolCall{{
			ID: "call_2", Type: "function",
			FunctionCall: &llms.FunctionCall{Name: "add_task", Arguments: `{"title":"buy milk"}`},
		}}}}},
		{Choices: []*llms.ContentChoice{{Content: "Added \"buy milk\" to your tasks."}}},
	}

	w := ts.do(t, http.MethodPost, base+"/chat", token, gin.H{"message": "add a task to buy milk"})
	require.Equal(t, http.StatusOK, w.Code)
	var result services.ChatResult
	decodeJSON(t, w, &result)
	assert.Equal(t, "success", result.Status)
	assert.Contains(t, result.Response.Content, "buy milk")
	assert.Contains(t, result.Response.Meta, "tool_calls")

	// The task is visible over the plain REST surface afterwards.
	w = ts.do(t, http.MethodGet, base+"/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []types.Task
	decodeJSON(t, w, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, "buy milk", tasks[0].Title)

	// And the turn is recorded in the conversation history.
	w = ts.do(t, http.MethodGet, base+"/conversations/"+result.ConversationID.String()+"/messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var messages []types.Message
	decodeJSON(t, w, &messages)
	require.Len(t, messages, 2)
	assert.Equal(t, types.MessageRoleUser, messages[0].Role)
	assert.Equal(t, types.MessageRoleAssistant, messages[1].Role)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	ts := newTestStack(t)
	token, userID := ts.signup(t, "erin@example.com")

	w := ts.do(t, http.MethodPost, "/api/"+userID+"/chat", token, gin.H{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationsScopedToOwner(t *testing.T) {
	ts := newTestStack(t)
	aliceToken, aliceID := ts.signup(t, "alice@example.com")
	bobToken, bobID := ts.signup(t, "bob@example.com")

	ts.model.responses = []*llms.ContentResponse{
		{Choices: []*llms.ContentChoice{{Content: "Hello Alice!"}}},
	}
	w := ts.do(t, http.MethodPost, "/api/"+aliceID+"/chat", aliceToken, gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	var result services.ChatResult
	decodeJSON(t, w, &result)

	w = ts.do(t, http.MethodGet, "/api/"+aliceID+"/conversations", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conversations []types.Conversation
	decodeJSON(t, w, &conversations)
	assert.Len(t, conversations, 1)

	w = ts.do(t, http.MethodGet, "/api/"+bobID+"/conversations", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	conversations = nil
	decodeJSON(t, w, &conversations)
	assert.Empty(t, conversations)

	w = ts.do(t, http.MethodGet, "/api/"+bobID+"/conversations/"+result.ConversationID.String()+"/messages", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
