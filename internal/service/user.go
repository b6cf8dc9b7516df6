package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"hackhub/internal/models"
	"hackhub/internal/repository"
	"hackhub/internal/utils"
)

// Principal 是通過驗證的身分，附加在 HTTP 請求或 WebSocket 連線上
type Principal struct {
	UserID uint            `json:"userId"`
	Role   models.UserRole `json:"role"`
	Name   string          `json:"name"`
}

// Authenticator 驗證 bearer token 並回傳 Principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

type UserService struct {
	userRepo repository.UserRepository
	jwt      *utils.JWTManager
}

func NewUserService(userRepo repository.UserRepository, jwt *utils.JWTManager) *UserService {
	return &UserService{userRepo: userRepo, jwt: jwt}
}

// Register 建立新用戶，密碼以 bcrypt 雜湊保存
func (s *UserService) Register(ctx context.Context, name, email, password string, role models.UserRole) (*models.User, error) {
	if role == "" {
		role = models.RoleParticipant
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(name),
		Email:    normalizeEmail(email),
		Password: string(hashed),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login 驗證帳號密碼並簽發 token
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// Authenticate 解析 token 並重新載入用戶；用戶不存在時視為驗證失敗
func (s *UserService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	return &Principal{UserID: user.ID, Role: user.Role, Name: user.Name}, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
