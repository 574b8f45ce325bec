// Sync-адаптер: пока пользователь авторизован, задачи живут в удалённой
// пер-пользовательской коллекции. Локальные мутации зеркалируются туда,
// входящие снимки целиком заменяют локальный кэш. Слияния нет.
package sync

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ultimateTodo/internal/auth"
	"ultimateTodo/internal/logger"
	"ultimateTodo/internal/models/todo"
	"ultimateTodo/internal/service"
)

// Remote - контракт удалённого документ-стора
type Remote interface {
	InitUser(ctx context.Context, uid, email, displayName, photoURL string) error
	SetTodo(ctx context.Context, uid string, t *todo.Todo) error
	RemoveTodo(ctx context.Context, uid, id string) error
	ListTodos(ctx context.Context, uid string) ([]*todo.Todo, error)
	SubscribeTodos(ctx context.Context, uid string, callback func([]*todo.Todo)) (func(), error)
	SubscribeUserData(ctx context.Context, uid string, callback func(todo.UserData)) (func(), error)
	UpdateUserData(ctx context.Context, uid string, fields map[string]any) error
}

// Engine - то, что адаптеру нужно от движка приложения
type Engine interface {
	Todos() []*todo.Todo
	ReplaceTodos([]*todo.Todo)
	ReplaceUserData(todo.UserData)
	SetMirror(service.Mirror)
	ClearMirror()
}

type Adapter struct {
	remote Remote
	engine Engine

	mu     sync.Mutex
	uid    string
	unsubs []func()
}

func NewAdapter(remote Remote, engine Engine) *Adapter {
	return &Adapter{remote: remote, engine: engine}
}

// Bind подвешивает адаптер на наблюдателя сессии: пользователь появился -
// подключаем удалённые подписки, пропал - отцепляем и остаёмся на локальном
// хранилище. Возвращает функцию снятия наблюдателя.
func (a *Adapter) Bind(ctx context.Context, sessions *auth.Service) func() {
	return sessions.OnStateChange(func(user *auth.User) {
		if user == nil {
			a.Detach()
			return
		}
		if err := a.Attach(ctx, user); err != nil {
			logger.Error("Sync: Не удалось подключить удалённое хранилище", err,
				zap.String("uid", user.UID))
		}
	})
}

// Attach сидирует пользовательский документ, один раз мигрирует локальные
// задачи в пустую удалённую коллекцию и подписывается на снимки
func (a *Adapter) Attach(ctx context.Context, user *auth.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.uid != "" {
		a.detachLocked()
	}

	if err := a.remote.InitUser(ctx, user.UID, user.Email, user.DisplayName, user.PhotoURL); err != nil {
		return fmt.Errorf("инициализация пользователя: %w", err)
	}

	// одноразовая миграция: локальный набор уезжает в пустую удалённую
	// коллекцию, иначе удалённая считается истиной
	remoteTodos, err := a.remote.ListTodos(ctx, user.UID)
	if err != nil {
		return fmt.Errorf("чтение удалённых задач: %w", err)
	}
	local := a.engine.Todos()
	if len(remoteTodos) == 0 && len(local) > 0 {
		logger.Info("Sync: Миграция локальных задач в удалённое хранилище",
			zap.Int("count", len(local)))
		for _, t := range local {
			if err := a.remote.SetTodo(ctx, user.UID, t); err != nil {
				return fmt.Errorf("миграция задачи %s: %w", t.ID, err)
			}
		}
	}

	unsubTodos, err := a.remote.SubscribeTodos(ctx, user.UID, func(snapshot []*todo.Todo) {
		a.engine.ReplaceTodos(snapshot)
	})
	if err != nil {
		return fmt.Errorf("подписка на задачи: %w", err)
	}

	unsubUser, err := a.remote.SubscribeUserData(ctx, user.UID, func(data todo.UserData) {
		a.engine.ReplaceUserData(data)
	})
	if err != nil {
		unsubTodos()
		return fmt.Errorf("подписка на документ пользователя: %w", err)
	}

	a.uid = user.UID
	a.unsubs = []func(){unsubTodos, unsubUser}
	a.engine.SetMirror(&mirror{remote: a.remote, uid: user.UID})

	logger.Info("Sync: Удалённое хранилище подключено", zap.String("uid", user.UID))
	return nil
}

// Detach - единственный teardown: снимает подписки, дальше колбэки
// не доставляются
func (a *Adapter) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detachLocked()
}

func (a *Adapter) detachLocked() {
	if a.uid == "" {
		return
	}
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
	a.uid = ""
	a.engine.ClearMirror()
	logger.Info("Sync: Удалённое хранилище отключено")
}

// mirror реализует service.Mirror для одного uid
type mirror struct {
	remote Remote
	uid    string
}

func (m *mirror) SetTodo(ctx context.Context, t *todo.Todo) error {
	return m.remote.SetTodo(ctx, m.uid, t)
}

func (m *mirror) RemoveTodo(ctx context.Context, id string) error {
	return m.remote.RemoveTodo(ctx, m.uid, id)
}

func (m *mirror) UpdateUserData(ctx context.Context, fields map[string]any) error {
	return m.remote.UpdateUserData(ctx, m.uid, fields)
}
