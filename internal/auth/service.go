package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"venue-cms/internal/apperr"
	"venue-cms/internal/config"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
	"venue-cms/internal/utils"
)

// Store sentinels returned by the persistence layer.
var (
	ErrEmailExists   = errors.New("email already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenNotFound = errors.New("refresh token not found")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type TokenStore interface {
	StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, hash string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, hash string) error
	DeleteExpiredTokens(ctx context.Context) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLogEntry)
}

type TokenPair struct {
	Access  AccessToken
	Refresh RefreshToken
}

type AuthResult struct {
	User   *models.User
	Tokens TokenPair
}

type Service struct {
	Users  UserStore
	Tokens TokenStore
	Audit  AuditRecorder
	Cfg    config.AuthConfig
	Logger *logger.Logger
}

func NewService(users UserStore, tokens TokenStore, audit AuditRecorder, cfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{Users: users, Tokens: tokens, Audit: audit, Cfg: cfg, Logger: log}
}

// Register creates an account with the default editor role. Admin accounts
// are created by an existing admin or seeded at install time.
func (s *Service) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := HashPassword(password, s.Cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           utils.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleEditor,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive || !VerifyPassword(user.PasswordHash, password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: user.ID,
		ActorEmail:  user.Email,
		Action:      models.AuditActionLogin,
		EntityType:  "session",
	})
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh rotates the refresh token: the presented token is revoked and a
// new pair is issued.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (*AuthResult, error) {
	if strings.TrimSpace(rawRefresh) == "" {
		return nil, apperr.Validation("refresh_token is required")
	}
	hash := HashRefreshToken(strings.TrimSpace(rawRefresh))

	stored, err := s.Tokens.GetRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, apperr.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		_ = s.Tokens.DeleteRefreshToken(ctx, hash)
		return nil, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.Users.GetUserByID(ctx, stored.UserID)
	if err != nil || !user.IsActive {
		return nil, apperr.Unauthorized("account not found or inactive")
	}

	_ = s.Tokens.DeleteRefreshToken(ctx, hash)

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	if strings.TrimSpace(rawRefresh) == "" {
		return apperr.Validation("refresh_token is required")
	}
	hash := HashRefreshToken(strings.TrimSpace(rawRefresh))

	stored, err := s.Tokens.GetRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return apperr.Unauthorized("invalid refresh token")
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}
	if err := s.Tokens.DeleteRefreshToken(ctx, hash); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if user, err := s.Users.GetUserByID(ctx, stored.UserID); err == nil {
		s.Audit.Record(ctx, models.AuditLogEntry{
			ActorUserID: user.ID,
			ActorEmail:  user.Email,
			Action:      models.AuditActionLogout,
			EntityType:  "session",
		})
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user *models.User) (TokenPair, error) {
	access, err := NewAccessToken(s.Cfg.JWTSecret, user.ID, user.Email, user.Role, s.Cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := NewRefreshToken(s.Cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.Tokens.StoreRefreshToken(ctx, &models.RefreshToken{
		ID:        utils.NewID(),
		UserID:    user.ID,
		TokenHash: HashRefreshToken(refresh.Raw),
		ExpiresAt: refresh.Exp,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	// Lazy purge keeps the token table from growing without a TTL index.
	_ = s.Tokens.DeleteExpiredTokens(ctx)

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// ---------------- ADMIN USER MANAGEMENT ----------------

type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
	Phone    string `json:"phone"`
	IDNumber string `json:"id_number"`
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Users.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, actor Identity, in UserInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}
	if in.Role != models.RoleAdmin && in.Role != models.RoleEditor {
		return nil, apperr.Validation("role must be admin or editor")
	}

	hash, err := HashPassword(in.Password, s.Cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		ID:           utils.NewID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		Phone:        in.Phone,
		IDNumber:     in.IDNumber,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionCreate,
		EntityType:  "user",
		EntityID:    user.ID,
		Summary:     fmt.Sprintf("created %s (%s)", user.Email, user.Role),
	})
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, actor Identity, id string, in UserInput) (*models.User, error) {
	user, err := s.Users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	var changes []string
	if in.Name != "" && in.Name != user.Name {
		user.Name = in.Name
		changes = append(changes, "name")
	}
	if in.Role != "" && in.Role != user.Role {
		if in.Role != models.RoleAdmin && in.Role != models.RoleEditor {
			return nil, apperr.Validation("role must be admin or editor")
		}
		user.Role = in.Role
		changes = append(changes, "role")
	}
	if in.IsActive != nil && *in.IsActive != user.IsActive {
		user.IsActive = *in.IsActive
		changes = append(changes, "is_active")
	}
	if in.Password != "" {
		hash, err := HashPassword(in.Password, s.Cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
		changes = append(changes, "password")
	}
	if in.Phone != "" {
		user.Phone = in.Phone
		changes = append(changes, "phone")
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.Users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionUpdate,
		EntityType:  "user",
		EntityID:    user.ID,
		Summary:     "changed: " + strings.Join(changes, ", "),
	})
	return user, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor Identity, id string) error {
	if id == actor.UserID {
		return apperr.Validation("cannot delete your own account")
	}
	user, err := s.Users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := s.Users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionDelete,
		EntityType:  "user",
		EntityID:    user.ID,
		Summary:     "deleted " + user.Email,
	})
	return nil
}
