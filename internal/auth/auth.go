// Шлюз аутентификации: регистрация и вход по email/паролю поверх таблицы
// пользователей, наблюдатель смены сессии - единственный сигнал, от которого
// зависит sync-адаптер. Федеративный вход остаётся внешним участником.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ultimateTodo/internal/logger"
	repo "ultimateTodo/internal/repository"

	"github.com/google/uuid"
)

type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// Credentials - хранилище учётных записей (реализуется удалённым стором)
type Credentials interface {
	CreateUser(ctx context.Context, uid, email, displayName, passwordHash string) error
	GetUserByEmail(ctx context.Context, email string) (uid, passwordHash string, err error)
}

type Service struct {
	creds Credentials

	mu        sync.Mutex
	current   *User
	observers map[int]func(*User)
	nextID    int
}

func NewService(creds Credentials) *Service {
	return &Service{
		creds:     creds,
		observers: map[int]func(*User){},
	}
}

// OnStateChange регистрирует наблюдателя смены сессии. Наблюдатель сразу
// получает текущее состояние, затем каждый вход/выход. Возвращённая функция
// снимает подписку.
func (s *Service) OnStateChange(callback func(*User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = callback
	current := s.current
	s.mu.Unlock()

	callback(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Service) notifyLocked() {
	current := s.current
	for _, cb := range s.observers {
		cb(current)
	}
}

func (s *Service) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Register заводит аккаунт и открывает сессию
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, NewAuthError(CodeInvalidEmail, nil)
	}
	if len(password) < 6 {
		return nil, NewAuthError(CodeWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewAuthError(CodeInvalidCredential, err)
	}

	uid := uuid.New().String()
	if err := s.creds.CreateUser(ctx, uid, email, name, string(hash)); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil, NewAuthError(CodeEmailInUse, err)
		}
		logger.Error("Auth: Ошибка регистрации", err, zap.String("email", email))
		return nil, NewAuthError("auth/internal", err)
	}

	user := &User{UID: uid, Email: email, DisplayName: name}

	s.mu.Lock()
	s.current = user
	s.notifyLocked()
	s.mu.Unlock()

	logger.Info("Auth: Пользователь зарегистрирован", zap.String("uid", uid))
	return user, nil
}

// Login проверяет пароль и открывает сессию
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return nil, NewAuthError(CodeInvalidEmail, nil)
	}

	uid, hash, err := s.creds.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewAuthError(CodeUserNotFound, err)
		}
		logger.Error("Auth: Ошибка входа", err, zap.String("email", email))
		return nil, NewAuthError("auth/internal", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, NewAuthError(CodeWrongPassword, err)
	}

	user := &User{UID: uid, Email: email}

	s.mu.Lock()
	s.current = user
	s.notifyLocked()
	s.mu.Unlock()

	logger.Info("Auth: Вход выполнен", zap.String("uid", uid))
	return user, nil
}

// Logout закрывает сессию; наблюдатели получают nil и отцепляют
// удалённые подписки
func (s *Service) Logout() {
	s.mu.Lock()
	s.current = nil
	s.notifyLocked()
	s.mu.Unlock()

	logger.Info("Auth: Выход выполнен")
}
