package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskpilot-org/taskpilot-backend/internal/agent"
	"github.com/taskpilot-org/taskpilot-backend/internal/logger"
	"github.com/taskpilot-org/taskpilot-backend/internal/tools"
	"github.com/taskpilot-org/taskpilot-backend/internal/types"
)

func testLogger(t interface{ Fatalf(string, ...interface{}) }) *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return log
}

// ---------------------------------------------------------------------------
// in-memory repos
// ---------------------------------------------------------------------------

type fakeUserRepo struct {
	users map[string]*types.User // keyed by email
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*types.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	_, ok := f.users[email]
	return ok, nil
}

type fakeTaskRepo struct {
	order []uuid.UUID
	tasks map[uuid.UUID]*types.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*types.Task)}
}

func (f *fakeTaskRepo) Create(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	cp := *task
	f.tasks[task.ID] = &cp
	f.order = append(f.order, task.ID)
	return task, nil
}

func (f *fakeTaskRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Task, error) {
	var out []*types.Task
	for _, id := range f.order {
		if t, ok := f.tasks[id]; ok && t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTaskRepo) Save(ctx context.Context, tx *gorm.DB, task *types.Task) (*types.Task, error) {
	cp := *task
	f.tasks[task.ID] = &cp
	return task, nil
}

func (f *fakeTaskRepo) DeleteByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (bool, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(f.tasks, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true, nil
}

type fakeConversationRepo struct {
	conversations map[uuid.UUID]*types.Conversation
	touched       map[uuid.UUID]int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[uuid.UUID]*types.Conversation),
		touched:       make(map[uuid.UUID]int),
	}
}

func (f *fakeConversationRepo) Create(ctx context.Context, tx *gorm.DB, conversation *types.Conversation) (*types.Conversation, error) {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	now := time.Now().UTC()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	f.conversations[conversation.ID] = conversation
	return conversation, nil
}

func (f *fakeConversationRepo) GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok || c.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeConversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
	var out []*types.Conversation
	for _, c := range f.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) TouchUpdatedAt(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	f.touched[id]++
	if c, ok := f.conversations[id]; ok {
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

type fakeMessageRepo struct {
	messages []*types.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now().UTC()
	f.messages = append(f.messages, message)
	return message, nil
}

func (f *fakeMessageRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
	var out []*types.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) CountByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error) {
	msgs, _ := f.GetByConversationID(ctx, tx, conversationID)
	return int64(len(msgs)), nil
}

// ---------------------------------------------------------------------------
// scripted agent runner
// ---------------------------------------------------------------------------

type fakeRunner struct {
	result      *agent.RunResult
	err         error
	gotHistory  []agent.Message
	gotToolCtx  *tools.Context
	invocations int
}

func (f *fakeRunner) Run(ctx context.Context, history []agent.Message, tc *tools.Context) (*agent.RunResult, error) {
	f.invocations++
	f.gotHistory = history
	f.gotToolCtx = tc
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
