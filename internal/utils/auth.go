package utils

import (
  "fmt"
  "strings"

  "golang.org/x/crypto/bcrypt"
)

const (
  MinPasswordLength    = 6
  MaxTitleLength       = 255
  MaxDescriptionLength = 1000
)

// ValidationError is a field-level input failure surfaced to clients as a 400.
type ValidationError struct {
  Field   string
  Message string
}

func (ve *ValidationError) Error() string {
  return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

func NewValidationError(field, message string) *ValidationError {
  return &ValidationError{Field: field, Message: message}
}

func HashPassword(password string) (string, error) {
  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return "", fmt.Errorf("failed to hash password: %w", err)
  }
  return string(hashed), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hashed, password string) bool {
  return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

func ValidatePassword(password string) error {
  if len(password) < MinPasswordLength {
    return NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
  }
  return nil
}

func ValidateEmail(email string) error {
  at := strings.Index(email, "@")
  if at < 1 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
    return NewValidationError("email", "must be a valid email address")
  }
  return nil
}

// ValidateTaskTitle trims the title and enforces the 1-255 char bound. Shared
// by the REST handlers and the agent tools so both entry points hold the same
// invariants.
func ValidateTaskTitle(title string) (string, error) {
  trimmed := strings.TrimSpace(title)
  if trimmed == "" {
    return "", NewValidationError("title", "must not be empty")
  }
  if len(trimmed) > MaxTitleLength {
    return "", NewValidationError("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
  }
  return trimmed, nil
}

func ValidateTaskDescription(description *string) error {
  if description != nil && len(*description) > MaxDescriptionLength {
    return NewValidationError("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
  }
  return nil
}
