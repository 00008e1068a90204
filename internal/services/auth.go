package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/normalization"
  "github.com/taskpilot-org/taskpilot-backend/internal/repos"
  "github.com/taskpilot-org/taskpilot-backend/internal/requestdata"
  "github.com/taskpilot-org/taskpilot-backend/internal/types"
  "github.com/taskpilot-org/taskpilot-backend/internal/utils"
)

var (
  ErrEmailTaken         = errors.New("email already registered")
  ErrInvalidCredentials = errors.New("invalid email or password")
  ErrInvalidToken       = errors.New("invalid or expired token")
)

type JWTClaims struct {
  jwt.RegisteredClaims
  Email string `json:"email,omitempty"`
}

type AuthService interface {
  Signup(ctx context.Context, email, password string, name *string) (string, *types.User, error)
  Login(ctx context.Context, email, password string) (string, *types.User, error)

  // SetContextFromToken verifies the token and attaches the caller's
  // identity to the context as requestdata. Returns ErrInvalidToken on any
  // verification failure; missing and malformed tokens are not
  // distinguished.
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)

  GetTokenTTL() time.Duration
}

type authService struct {
  db           *gorm.DB
  log          *logger.Logger
  userRepo     repos.UserRepo
  emailService EmailService
  jwtSecretKey string
  tokenTTL     time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  emailService EmailService,
  jwtSecretKey string,
  tokenTTL time.Duration,
) AuthService {
  return &authService{
    db:           db,
    log:          log.With("service", "AuthService"),
    userRepo:     userRepo,
    emailService: emailService,
    jwtSecretKey: jwtSecretKey,
    tokenTTL:     tokenTTL,
  }
}

func (as *authService) Signup(ctx context.Context, email, password string, name *string) (string, *types.User, error) {
  email = normalization.ParseEmail(email)
  if err := utils.ValidateEmail(email); err != nil {
    return "", nil, err
  }
  if err := utils.ValidatePassword(password); err != nil {
    return "", nil, err
  }

  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return "", nil, fmt.Errorf("failed to check email existence: %w", err)
  }
  if exists {
    return "", nil, ErrEmailTaken
  }

  hashed, err := utils.HashPassword(password)
  if err != nil {
    as.log.Error("failed to hash password", "error", err)
    return "", nil, err
  }

  user := &types.User{
    Email:    email,
    Name:     normalization.ParseInputStringPtr(name),
    Password: hashed,
  }
  user, err = as.userRepo.Create(ctx, nil, user)
  if err != nil {
    return "", nil, fmt.Errorf("failed to create user: %w", err)
  }

  token, err := as.generateToken(user)
  if err != nil {
    as.log.Error("failed to sign token", "error", err)
    return "", nil, err
  }

  if as.emailService != nil {
    if emailErr := as.emailService.SendWelcomeEmail(ctx, user.Email, user.Name); emailErr != nil {
      as.log.Warn("welcome email failed", "error", emailErr, "userID", user.ID)
    }
  }

  as.log.Info("user signed up", "userID", user.ID)
  return token, user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
  email = normalization.ParseEmail(email)

  user, err := as.userRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return "", nil, ErrInvalidCredentials
    }
    return "", nil, fmt.Errorf("failed to fetch user by email: %w", err)
  }
  if !utils.CheckPassword(user.Password, password) {
    return "", nil, ErrInvalidCredentials
  }

  token, err := as.generateToken(user)
  if err != nil {
    as.log.Error("failed to sign token", "error", err)
    return "", nil, err
  }

  as.log.Info("user logged in", "userID", user.ID)
  return token, user, nil
}

func (as *authService) generateToken(user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.tokenTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
    Email: user.Email,
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, ErrInvalidToken
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, ErrInvalidToken
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, ErrInvalidToken
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, ErrInvalidToken
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    Email:       claims.Email,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetTokenTTL() time.Duration {
  return as.tokenTTL
}
