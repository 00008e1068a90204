package normalization

import (
  "strings"
)

// ParseInputString trims surrounding whitespace and collapses interior runs
// of whitespace down to single spaces.
func ParseInputString(in string) string {
  return strings.Join(strings.Fields(in), " ")
}

// ParseInputStringPtr is ParseInputString for optional fields. A pointer to
// an all-whitespace string normalizes to nil.
func ParseInputStringPtr(in *string) *string {
  if in == nil {
    return nil
  }
  out := strings.TrimSpace(*in)
  if out == "" {
    return nil
  }
  return &out
}

// ParseEmail lowercases and trims an email address.
func ParseEmail(in string) string {
  return strings.ToLower(strings.TrimSpace(in))
}
