package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"PortfolioCMS/internal/model"
)

// ErrInvalidCredentials - неверный email или пароль
var ErrInvalidCredentials = errors.New("invalid credentials")

// Sessions - хранилище сессий, которое использует Authenticator
type Sessions interface {
	Create(ctx context.Context, email string) (*model.Session, error)
	GetSession(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

// Authenticator проверяет учётные данные единственного администратора
type Authenticator struct {
	email        string
	passwordHash []byte
	sessions     Sessions
}

// NewAuthenticator создаёт Authenticator; passwordHash - bcrypt-хеш пароля
func NewAuthenticator(email, passwordHash string, sessions Sessions) *Authenticator {
	return &Authenticator{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
		sessions:     sessions,
	}
}

// Login открывает сессию при совпадении email и пароля
func (a *Authenticator) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.email)) == 1
	// хеш сверяем всегда, чтобы время ответа не выдавало существование email
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !emailOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}
	return a.sessions.Create(ctx, a.email)
}

// Logout закрывает сессию
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	return a.sessions.Delete(ctx, token)
}

// GetSession возвращает сессию по токену или nil, если её нет
func (a *Authenticator) GetSession(ctx context.Context, token string) (*model.Session, error) {
	return a.sessions.GetSession(ctx, token)
}
