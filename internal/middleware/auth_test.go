package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot-org/taskpilot-backend/internal/logger"
	"github.com/taskpilot-org/taskpilot-backend/internal/requestdata"
	"github.com/taskpilot-org/taskpilot-backend/internal/services"
	"github.com/taskpilot-org/taskpilot-backend/internal/types"
	"gorm.io/gorm"
)

type singleUserRepo struct {
	user *types.User
}

func (s *singleUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	user.ID = uuid.New()
	s.user = user
	return user, nil
}

func (s *singleUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *singleUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *singleUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	return s.user != nil && s.user.Email == email, nil
}

func newTestRouter(t *testing.T, ttl time.Duration) (*gin.Engine, string, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("development")
	require.NoError(t, err)

	authService := services.NewAuthService(nil, log, &singleUserRepo{}, nil, "test-secret", ttl)
	token, user, err := authService.Signup(context.Background(), "user@example.com", "password123", nil)
	require.NoError(t, err)

	am := NewAuthMiddleware(log, authService)
	router := gin.New()
	router.GET("/api/:user_id/whoami", am.RequireAuth(), am.RequireSelf(), func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID.String()})
	})
	return router, token, user.ID
}

func performRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingToken(t *testing.T) {
	router, _, userID := newTestRouter(t, time.Hour)

	w := performRequest(router, "/api/"+userID.String()+"/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestRequireAuthMalformedToken(t *testing.T) {
	router, _, userID := newTestRouter(t, time.Hour)

	w := performRequest(router, "/api/"+userID.String()+"/whoami", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired token")
}

func TestRequireAuthExpiredToken(t *testing.T) {
	router, token, userID := newTestRouter(t, -time.Hour)

	w := performRequest(router, "/api/"+userID.String()+"/whoami", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired token")
}

func TestRequireSelfMismatchedUser(t *testing.T) {
	router, token, _ := newTestRouter(t, time.Hour)

	w := performRequest(router, "/api/"+uuid.New().String()+"/whoami", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "access forbidden")
}

func TestRequireSelfMalformedPathID(t *testing.T) {
	router, token, _ := newTestRouter(t, time.Hour)

	w := performRequest(router, "/api/not-a-uuid/whoami", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAuthAndSelfPass(t *testing.T) {
	router, token, userID := newTestRouter(t, time.Hour)

	w := performRequest(router, "/api/"+userID.String()+"/whoami", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestTokenViaQueryParameter(t *testing.T) {
	router, token, userID := newTestRouter(t, time.Hour)

	w := performRequest(router, "/api/"+userID.String()+"/whoami?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
