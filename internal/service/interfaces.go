package service

import (
	"context"

	"ultimateTodo/internal/models/todo"
)

// RecordStore - локальное хранилище коллекций. Чтение не возвращает ошибок:
// хранилище само падает мягко на свои значения по умолчанию.
type RecordStore interface {
	LoadTodos() []*todo.Todo
	SaveTodos([]*todo.Todo) error
	LoadProjects() []todo.Project
	SaveProjects([]todo.Project) error
	LoadTags() []todo.Tag
	SaveTags([]todo.Tag) error
	LoadCollapsed() map[string]bool
	SaveCollapsed(map[string]bool) error
	LoadTheme() string
	SaveTheme(string) error
	LoadSort() string
	SaveSort(string) error
}

// Mirror - зеркало мутаций в удалённое хранилище. Подключается sync-адаптером
// только при активной сессии; ошибка записи отдаётся вызывающему как есть,
// повторов нет.
type Mirror interface {
	SetTodo(context.Context, *todo.Todo) error
	RemoveTodo(ctx context.Context, id string) error
	UpdateUserData(ctx context.Context, fields map[string]any) error
}
