// Удалённый пер-пользовательский документ-стор поверх PostgreSQL:
// строка users держит профиль, настройки и справочники одним документом,
// todos - по строке (JSONB-документу) на задачу. Разрешение конфликтов -
// последняя запись побеждает на уровне документа.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ultimateTodo/internal/logger"
	"ultimateTodo/internal/models/todo"
	repo "ultimateTodo/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Storage struct {
	pool         *pgxpool.Pool
	pollInterval time.Duration

	mu       sync.Mutex
	watchers map[string][]chan struct{} // uid -> каналы-пинки подписок
}

type Config struct {
	URL            string
	MaxConnections int
	MinConnections int
	IdleTimeout    time.Duration
	PollInterval   time.Duration
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = int32(cfg.MinConnections)
	}
	if cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	// сервис стартует раньше БД - пингуем с экспоненциальной паузой
	ping := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err = backoff.Retry(func() error {
		return pool.Ping(ctx)
	}, backoff.WithMaxRetries(ping, 5))
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{
		pool:         pool,
		pollInterval: pollInterval,
		watchers:     map[string][]chan struct{}{},
	}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// Migrate накатывает схему из встроенных SQL-файлов
func (s *Storage) Migrate(connString string) error {
	logger.Info("Repository: Применение миграций")

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		logger.Error("Repository: Ошибка чтения встроенных миграций", err)
		return fmt.Errorf("чтение миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, toMigrateURL(connString))
	if err != nil {
		logger.Error("Repository: Ошибка инициализации миграций", err)
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка применения миграций", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logger.Info("Repository: Миграции применены")
	return nil
}

// драйвер golang-migrate для pgx/v5 регистрируется под схемой pgx5
func toMigrateURL(connString string) string {
	if rest, ok := strings.CutPrefix(connString, "postgres://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(connString, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	return connString
}

// ============================================================
//  USERS
// ============================================================

// CreateUser заводит пользователя с паролем и сидирует документ
// настройками/проектами/тегами по умолчанию
func (s *Storage) CreateUser(ctx context.Context, uid, email, displayName, passwordHash string) error {
	start := time.Now()

	settings, _ := json.Marshal(todo.DefaultSettings())
	projects, _ := json.Marshal(todo.DefaultProjects())
	tags, _ := json.Marshal(todo.DefaultTags())

	query := `INSERT INTO users
				(uid, email, display_name, password_hash, settings, projects, tags)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query, uid, email, displayName, passwordHash, settings, projects, tags)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось создать пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание пользователя: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// InitUser сидирует документ для уже аутентифицированного пользователя,
// если его ещё нет (один раз при первом входе)
func (s *Storage) InitUser(ctx context.Context, uid, email, displayName, photoURL string) error {
	settings, _ := json.Marshal(todo.DefaultSettings())
	projects, _ := json.Marshal(todo.DefaultProjects())
	tags, _ := json.Marshal(todo.DefaultTags())

	query := `INSERT INTO users
				(uid, email, display_name, photo_url, settings, projects, tags)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (uid) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, uid, email, displayName, photoURL, settings, projects, tags)
	if err != nil {
		logger.Error("Repository: Не удалось инициализировать пользователя", err)
		return fmt.Errorf("инициализация пользователя: %w", err)
	}
	return nil
}

// GetUserByEmail возвращает uid и хэш пароля для проверки входа
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (uid, passwordHash string, err error) {
	query := `SELECT uid, password_hash FROM users WHERE email = $1`

	err = s.pool.QueryRow(ctx, query, email).Scan(&uid, &passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return "", "", fmt.Errorf("получение пользователя: %w", err)
	}
	return uid, passwordHash, nil
}

func (s *Storage) GetUserData(ctx context.Context, uid string) (todo.UserData, error) {
	start := time.Now()

	query := `SELECT email, display_name, photo_url, created_at, settings, projects, tags
				FROM users
				WHERE uid = $1`

	var data todo.UserData
	var createdAt time.Time
	var settings, projects, tags []byte
	err := s.pool.QueryRow(ctx, query, uid).Scan(
		&data.Email,
		&data.DisplayName,
		&data.PhotoURL,
		&createdAt,
		&settings,
		&projects,
		&tags,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return todo.UserData{}, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить документ пользователя", err, zap.Duration("ms", time.Since(start)))
		return todo.UserData{}, fmt.Errorf("получение документа пользователя: %w", err)
	}

	data.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if err := json.Unmarshal(settings, &data.Settings); err != nil {
		logger.Warn("Repository: Повреждённые настройки пользователя", zap.Error(err))
		data.Settings = todo.DefaultSettings()
	}
	if err := json.Unmarshal(projects, &data.Projects); err != nil {
		logger.Warn("Repository: Повреждённые проекты пользователя", zap.Error(err))
		data.Projects = todo.DefaultProjects()
	}
	if err := json.Unmarshal(tags, &data.Tags); err != nil {
		logger.Warn("Repository: Повреждённые теги пользователя", zap.Error(err))
		data.Tags = todo.DefaultTags()
	}
	return data, nil
}

// UpdateUserData - частичное слияние: обновляются только переданные
// поля верхнего уровня (settings, projects, tags), остальное не трогается
func (s *Storage) UpdateUserData(ctx context.Context, uid string, fields map[string]any) error {
	start := time.Now()

	allowed := map[string]string{
		"settings": "settings",
		"projects": "projects",
		"tags":     "tags",
	}

	set := []string{}
	args := []any{uid}
	for key, column := range allowed {
		value, ok := fields[key]
		if !ok {
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("сериализация поля %s: %w", key, err)
		}
		args = append(args, data)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if len(set) == 0 {
		return nil
	}

	query := `UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE uid = $1`

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось обновить документ пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление документа пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	s.notify(uid)

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// ============================================================
//  TODOS
// ============================================================

// SetTodo - upsert документа задачи (create и update не различаются,
// последняя запись побеждает)
func (s *Storage) SetTodo(ctx context.Context, uid string, t *todo.Todo) error {
	start := time.Now()

	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("сериализация задачи: %w", err)
	}

	query := `INSERT INTO todos (uid, id, doc, updated_at)
				VALUES ($1, $2, $3, NOW())
				ON CONFLICT (uid, id) DO UPDATE
				SET doc = EXCLUDED.doc, updated_at = NOW()`

	_, err = s.pool.Exec(ctx, query, uid, t.ID, doc)
	if err != nil {
		logger.Error("Repository: Не удалось записать задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("запись задачи: %w", err)
	}

	s.notify(uid)

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) RemoveTodo(ctx context.Context, uid, id string) error {
	start := time.Now()

	query := `DELETE FROM todos WHERE uid = $1 AND id = $2`

	_, err := s.pool.Exec(ctx, query, uid, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	s.notify(uid)
	return nil
}

func (s *Storage) ListTodos(ctx context.Context, uid string) ([]*todo.Todo, error) {
	start := time.Now()

	query := `SELECT doc FROM todos WHERE uid = $1 ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, query, uid)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	todos := []*todo.Todo{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		t := &todo.Todo{}
		if err := json.Unmarshal(doc, t); err != nil {
			logger.Warn("Repository: Повреждённый документ задачи", zap.Error(err))
			continue
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return todos, nil
}

// ============================================================
//  SNAPSHOT-ПОДПИСКИ
// ============================================================

// SubscribeTodos доставляет колбэку полный текущий набор задач: сразу при
// подписке и после каждого замеченного изменения (локальные записи будят
// подписку, интервал опроса ловит записи с других устройств). Возвращённая
// функция останавливает доставку - единственная операция teardown.
func (s *Storage) SubscribeTodos(ctx context.Context, uid string, callback func([]*todo.Todo)) (func(), error) {
	snapshot, err := s.ListTodos(ctx, uid)
	if err != nil {
		return nil, err
	}
	callback(snapshot)

	return s.watch(ctx, uid, func(ctx context.Context) {
		snapshot, err := s.ListTodos(ctx, uid)
		if err != nil {
			logger.Warn("Repository: Ошибка обновления снимка задач", zap.Error(err))
			return
		}
		callback(snapshot)
	}), nil
}

// SubscribeUserData - то же для документа пользователя
func (s *Storage) SubscribeUserData(ctx context.Context, uid string, callback func(todo.UserData)) (func(), error) {
	data, err := s.GetUserData(ctx, uid)
	if err != nil {
		return nil, err
	}
	callback(data)

	return s.watch(ctx, uid, func(ctx context.Context) {
		data, err := s.GetUserData(ctx, uid)
		if err != nil {
			logger.Warn("Repository: Ошибка обновления документа пользователя", zap.Error(err))
			return
		}
		callback(data)
	}), nil
}

func (s *Storage) watch(ctx context.Context, uid string, refresh func(context.Context)) func() {
	poke := make(chan struct{}, 1)
	done := make(chan struct{})

	s.mu.Lock()
	s.watchers[uid] = append(s.watchers[uid], poke)
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				refresh(ctx)
			case <-poke:
				refresh(ctx)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			s.mu.Lock()
			list := s.watchers[uid]
			for i, ch := range list {
				if ch == poke {
					s.watchers[uid] = append(list[:i], list[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
		})
	}
}

func (s *Storage) notify(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers[uid] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
