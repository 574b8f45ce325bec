package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ultimateTodo/internal/auth"
	repo "ultimateTodo/internal/repository"
)

// fakeCredentials - учётные записи в памяти
type fakeCredentials struct {
	users map[string]struct {
		uid  string
		hash string
	}
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{users: map[string]struct {
		uid  string
		hash string
	}{}}
}

func (f *fakeCredentials) CreateUser(ctx context.Context, uid, email, displayName, passwordHash string) error {
	if _, ok := f.users[email]; ok {
		return repo.ErrAlreadyExists
	}
	f.users[email] = struct {
		uid  string
		hash string
	}{uid, passwordHash}
	return nil
}

func (f *fakeCredentials) GetUserByEmail(ctx context.Context, email string) (string, string, error) {
	u, ok := f.users[email]
	if !ok {
		return "", "", repo.ErrNotFound
	}
	return u.uid, u.hash, nil
}

// TestService_Register тестирует регистрацию и валидацию
func TestService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{"успех", "user@example.com", "secret1", ""},
		{"кривой email", "not-an-email", "secret1", auth.CodeInvalidEmail},
		{"короткий пароль", "user@example.com", "12345", auth.CodeWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := auth.NewService(newFakeCredentials())
			user, err := svc.Register(ctx, "User", tt.email, tt.password)

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.NotEmpty(t, user.UID)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, user, svc.Current(), "регистрация открывает сессию")
				return
			}

			var authErr *auth.AuthError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tt.wantCode, authErr.Code)
			assert.Nil(t, svc.Current())
		})
	}

	t.Run("повторный email", func(t *testing.T) {
		creds := newFakeCredentials()
		svc := auth.NewService(creds)
		_, err := svc.Register(ctx, "User", "user@example.com", "secret1")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "Other", "USER@example.com", "secret2")
		var authErr *auth.AuthError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, auth.CodeEmailInUse, authErr.Code, "email нормализуется к нижнему регистру")
	})
}

// TestService_Login тестирует вход
func TestService_Login(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*auth.Service, *fakeCredentials) {
		t.Helper()
		creds := newFakeCredentials()
		hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
		require.NoError(t, err)
		require.NoError(t, creds.CreateUser(ctx, "uid-1", "user@example.com", "User", string(hash)))
		return auth.NewService(creds), creds
	}

	t.Run("успех", func(t *testing.T) {
		svc, _ := seed(t)
		user, err := svc.Login(ctx, " User@Example.COM ", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "uid-1", user.UID)
		assert.Equal(t, "user@example.com", user.Email)
	})

	t.Run("неизвестный email", func(t *testing.T) {
		svc, _ := seed(t)
		_, err := svc.Login(ctx, "ghost@example.com", "secret1")

		var authErr *auth.AuthError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, auth.CodeUserNotFound, authErr.Code)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		svc, _ := seed(t)
		_, err := svc.Login(ctx, "user@example.com", "wrong")

		var authErr *auth.AuthError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, auth.CodeWrongPassword, authErr.Code)
		assert.Nil(t, svc.Current())
	})
}

// TestService_OnStateChange тестирует наблюдателя сессии
func TestService_OnStateChange(t *testing.T) {
	ctx := context.Background()
	svc := auth.NewService(newFakeCredentials())

	var events []*auth.User
	unsub := svc.OnStateChange(func(u *auth.User) {
		events = append(events, u)
	})

	require.Len(t, events, 1, "наблюдатель сразу получает текущее состояние")
	assert.Nil(t, events[0])

	user, err := svc.Register(ctx, "User", "user@example.com", "secret1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, user.UID, events[1].UID)

	svc.Logout()
	require.Len(t, events, 3)
	assert.Nil(t, events[2])

	unsub()
	_, err = svc.Register(ctx, "User", "other@example.com", "secret1")
	require.NoError(t, err)
	assert.Len(t, events, 3, "после отписки событий нет")
}

// TestUserMessage тестирует таблицу пользовательских сообщений
func TestUserMessage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{auth.CodeInvalidEmail, "Invalid email address."},
		{auth.CodeUserNotFound, "No account found with this email."},
		{auth.CodeWrongPassword, "Incorrect password."},
		{auth.CodeEmailInUse, "Email is already in use."},
		{auth.CodeWeakPassword, "Password should be at least 6 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := auth.NewAuthError(tt.code, nil)
			assert.Equal(t, tt.want, auth.UserMessage(err))
		})
	}

	t.Run("неизвестный код - raw fallback", func(t *testing.T) {
		err := auth.NewAuthError("auth/internal", errors.New("boom"))
		assert.Contains(t, auth.UserMessage(err), "auth/internal")
	})
}
