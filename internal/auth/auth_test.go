package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"PortfolioCMS/internal/model"
)

// mockSessions - хранилище сессий на функциях
type mockSessions struct {
	CreateFn     func(ctx context.Context, email string) (*model.Session, error)
	GetSessionFn func(ctx context.Context, token string) (*model.Session, error)
	DeleteFn     func(ctx context.Context, token string) error
}

func (m *mockSessions) Create(ctx context.Context, email string) (*model.Session, error) {
	return m.CreateFn(ctx, email)
}
func (m *mockSessions) GetSession(ctx context.Context, token string) (*model.Session, error) {
	return m.GetSessionFn(ctx, token)
}
func (m *mockSessions) Delete(ctx context.Context, token string) error {
	return m.DeleteFn(ctx, token)
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLogin(t *testing.T) {
	var created string
	sessions := &mockSessions{CreateFn: func(ctx context.Context, email string) (*model.Session, error) {
		created = email
		return &model.Session{Token: "t", Email: email}, nil
	}}
	a := NewAuthenticator("Admin@Example.com", hash(t, "s3cret"), sessions)

	sess, err := a.Login(context.Background(), " admin@example.com ", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "t", sess.Token)
	require.Equal(t, "admin@example.com", created)
}

func TestLogin_Invalid(t *testing.T) {
	sessions := &mockSessions{CreateFn: func(ctx context.Context, email string) (*model.Session, error) {
		t.Fatal("session must not be created")
		return nil, nil
	}}
	a := NewAuthenticator("admin@example.com", hash(t, "s3cret"), sessions)

	_, err := a.Login(context.Background(), "admin@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(context.Background(), "other@example.com", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutAndGetSession(t *testing.T) {
	var deleted string
	sessions := &mockSessions{
		DeleteFn: func(ctx context.Context, token string) error { deleted = token; return nil },
		GetSessionFn: func(ctx context.Context, token string) (*model.Session, error) {
			if token == "live" {
				return &model.Session{Token: token}, nil
			}
			return nil, nil
		},
	}
	a := NewAuthenticator("a@b.c", "x", sessions)
	require.NoError(t, a.Logout(context.Background(), "live"))
	require.Equal(t, "live", deleted)

	sess, err := a.GetSession(context.Background(), "live")
	require.NoError(t, err)
	require.NotNil(t, sess)
	sess, err = a.GetSession(context.Background(), "dead")
	require.NoError(t, err)
	require.Nil(t, sess)
}
