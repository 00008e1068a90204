package middleware

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/requestdata"
  "github.com/taskpilot-org/taskpilot-backend/internal/services"
)

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  return &AuthMiddleware{
    log:         log.With("middleware", "AuthMiddleware"),
    authService: authService,
  }
}

// RequireAuth verifies the bearer token and attaches the caller's identity
// to the request context. Missing, malformed, and expired tokens all come
// back as the same 401.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractToken(c)
    if tokenString == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
      return
    }
    ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
    if err != nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
      return
    }
    rd := requestdata.GetRequestData(ctx)
    if rd == nil || rd.UserID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
      return
    }
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

// RequireSelf compares the token subject against the user id in the URL
// path. Authenticated callers reaching for someone else's resources get a
// 403, never data.
func (am *AuthMiddleware) RequireSelf() gin.HandlerFunc {
  return func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
      return
    }
    pathUserID, err := uuid.Parse(c.Param("user_id"))
    if err != nil || pathUserID != rd.UserID {
      c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access forbidden"})
      return
    }
    c.Next()
  }
}

// extractToken reads the Authorization header, falling back to a query
// parameter for the websocket route where browsers cannot set headers.
func extractToken(c *gin.Context) string {
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  if qToken := c.Query("token"); qToken != "" {
    return qToken
  }
  return ""
}
