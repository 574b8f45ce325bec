package handlers

import (
	"context"

	"ultimateTodo/internal/auth"
	"ultimateTodo/internal/models/todo"
	"ultimateTodo/internal/service"
	"ultimateTodo/internal/stats"
	"ultimateTodo/internal/view"
	"ultimateTodo/internal/worker"
)

type TodoService interface {
	CreateTodo(ctx context.Context, text, date string, priority int, project string, starred bool) (*todo.Todo, error)
	GetTodoByID(id string) (*todo.Todo, error)
	UpdateTodo(ctx context.Context, id string, options ...todo.TodoOption) (*todo.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	ToggleComplete(ctx context.Context, id string) (*todo.Todo, error)
	ToggleStar(ctx context.Context, id string) (*todo.Todo, error)
	Undo(ctx context.Context) (bool, error)
	Reorder(ctx context.Context, draggedID, targetID string) error
	BulkToggle(ctx context.Context, ids []string) error

	AddSubtask(ctx context.Context, id string) (*todo.Todo, error)
	EditSubtask(ctx context.Context, id string, index int, text string) (*todo.Todo, error)
	ToggleSubtask(ctx context.Context, id string, index int) (*todo.Todo, error)
	DeleteSubtask(ctx context.Context, id string, index int) (*todo.Todo, error)

	AddProject(ctx context.Context, name, color string) (todo.Project, error)
	DeleteProject(ctx context.Context, id string) error
	AddTag(ctx context.Context, name, color string) (todo.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	Projects() []todo.Project
	Tags() []todo.Tag

	SetSort(ctx context.Context, s string) error
	SetTheme(ctx context.Context, theme string) error
	ToggleCollapse(ctx context.Context, key string) (bool, error)
	Settings() todo.UserSettings

	RenderView(v view.View, query string) service.ViewModel
	Stats() stats.Summary
	Export() service.ExportData
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*auth.User, error)
	Login(ctx context.Context, email, password string) (*auth.User, error)
	Logout()
	Current() *auth.User
}

type PomodoroService interface {
	State() worker.PomodoroState
	Toggle() worker.PomodoroState
	Reset() worker.PomodoroState
	SetMode(minutes int) (worker.PomodoroState, error)
}
