package handlers

import (
  "errors"
  "net/http"
  "time"

  "github.com/gin-gonic/gin"

  "github.com/taskpilot-org/taskpilot-backend/internal/services"
  "github.com/taskpilot-org/taskpilot-backend/internal/types"
  "github.com/taskpilot-org/taskpilot-backend/internal/utils"
)

type AuthHandler struct {
  authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
  return &AuthHandler{authService: authService}
}

func userView(user *types.User) gin.H {
  return gin.H{
    "id":        user.ID.String(),
    "email":     user.Email,
    "name":      user.Name,
    "createdAt": user.CreatedAt.UTC().Format(time.RFC3339),
    "updatedAt": user.UpdatedAt.UTC().Format(time.RFC3339),
  }
}

func (ah *AuthHandler) Signup(c *gin.Context) {
  var req struct {
    Email    string  `json:"email"`
    Password string  `json:"password"`
    Name     *string `json:"name,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  token, user, err := ah.authService.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
  if err != nil {
    var ve *utils.ValidationError
    switch {
    case errors.Is(err, services.ErrEmailTaken):
      c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
    case errors.As(err, &ve):
      c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
    default:
      c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    }
    return
  }
  c.JSON(http.StatusOK, gin.H{"token": token, "user": userView(user)})
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Email    string `json:"email"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  token, user, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    if errors.Is(err, services.ErrInvalidCredentials) {
      c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  c.JSON(http.StatusOK, gin.H{"token": token, "user": userView(user)})
}
