package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/klog/v2"
)

const (
	ClaimUserID = "sub"
	ClaimName   = "name"
	ClaimRole   = "role"
)

// Claims 令牌中携带的用户信息
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type LoginResponse struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService 登录与令牌校验
type AuthService struct {
	userRepo repository.UserRepository
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{userRepo: userRepo, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// HashPassword 生成密码哈希
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Login 校验用户名和密码，成功时签发 JWT
func (s *AuthService) Login(ctx context.Context, userID, password string) (*LoginResponse, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			klog.V(6).Infof("[AuthService] 登录失败，用户不存在: %s", userID)
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		klog.V(6).Infof("[AuthService] 登录失败，密码错误: %s", userID)
		return nil, ErrUnauthorized
	}

	expiresAt := s.now().Add(s.ttl)
	token, err := s.GenerateToken(user, expiresAt)
	if err != nil {
		return nil, err
	}
	klog.V(6).Infof("[AuthService] 登录成功: %s", userID)
	return &LoginResponse{Token: token, TokenType: "bearer", ExpiresAt: expiresAt, User: user}, nil
}

// GenerateToken 生成 Token
func (s *AuthService) GenerateToken(user *model.User, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		ClaimUserID: user.ID,
		ClaimName:   user.Name,
		ClaimRole:   user.Role,
		"exp":       expiresAt.Unix(),
	})
	return token.SignedString(s.secret)
}

// ParseToken 校验签名与过期时间
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthorized
	}
	claims := &Claims{}
	claims.UserID, _ = mc[ClaimUserID].(string)
	claims.Name, _ = mc[ClaimName].(string)
	claims.Role, _ = mc[ClaimRole].(string)
	if claims.UserID == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// CurrentUser 返回令牌对应的用户
func (s *AuthService) CurrentUser(ctx context.Context, claims *Claims) (*model.User, error) {
	return s.userRepo.Get(ctx, claims.UserID)
}
