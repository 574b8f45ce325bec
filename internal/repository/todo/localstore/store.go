// Локальное хранилище состояния: по одному JSON-файлу на каждый
// namespaced-ключ. Чтение падает мягко - при отсутствии или порче файла
// возвращается fallback, ошибка наверх не поднимается. Запись атомарная
// (temp+rename) под файловой блокировкой.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"ultimateTodo/internal/logger"
	"ultimateTodo/internal/models/todo"
)

const KeyTodos = "utodo-items"
const KeyProjects = "utodo-projects"
const KeyTags = "utodo-tags"
const KeyCollapsed = "utodo-collapsed"
const KeyTheme = "utodo-theme"
const KeySort = "utodo-sort"
const KeyPomodoro = "utodo-pomodoro-sessions"

type Store struct {
	dir  string
	lock *flock.Flock
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога состояния: %w", err)
	}
	return &Store{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// load читает ключ в out; любая ошибка означает "данных нет" -
// вызывающий остаётся со своим fallback-значением
func (s *Store) load(key string, out any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warn("Repository: Повреждённый файл состояния, используется значение по умолчанию",
			zap.String("key", key),
			zap.Error(err))
		return false
	}
	return true
}

func (s *Store) save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("сериализация %s: %w", key, err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("блокировка хранилища: %w", err)
	}
	defer s.lock.Unlock()

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("запись %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("переименование %s: %w", key, err)
	}
	return nil
}

func (s *Store) LoadTodos() []*todo.Todo {
	list := []*todo.Todo{}
	s.load(KeyTodos, &list)
	return list
}

func (s *Store) SaveTodos(list []*todo.Todo) error {
	return s.save(KeyTodos, list)
}

func (s *Store) LoadProjects() []todo.Project {
	list := []todo.Project{}
	if !s.load(KeyProjects, &list) || len(list) == 0 {
		return todo.DefaultProjects()
	}
	return list
}

func (s *Store) SaveProjects(list []todo.Project) error {
	return s.save(KeyProjects, list)
}

func (s *Store) LoadTags() []todo.Tag {
	list := []todo.Tag{}
	if !s.load(KeyTags, &list) || len(list) == 0 {
		return todo.DefaultTags()
	}
	return list
}

func (s *Store) SaveTags(list []todo.Tag) error {
	return s.save(KeyTags, list)
}

func (s *Store) LoadCollapsed() map[string]bool {
	m := map[string]bool{}
	s.load(KeyCollapsed, &m)
	return m
}

func (s *Store) SaveCollapsed(m map[string]bool) error {
	return s.save(KeyCollapsed, m)
}

func (s *Store) LoadTheme() string {
	theme := ""
	if !s.load(KeyTheme, &theme) || theme == "" {
		return "dark"
	}
	return theme
}

func (s *Store) SaveTheme(theme string) error {
	return s.save(KeyTheme, theme)
}

func (s *Store) LoadSort() string {
	sortMode := ""
	if !s.load(KeySort, &sortMode) || sortMode == "" {
		return "date"
	}
	return sortMode
}

func (s *Store) SaveSort(sortMode string) error {
	return s.save(KeySort, sortMode)
}

func (s *Store) LoadPomodoroSessions() int {
	n := 0
	s.load(KeyPomodoro, &n)
	return n
}

func (s *Store) SavePomodoroSessions(n int) error {
	return s.save(KeyPomodoro, n)
}
