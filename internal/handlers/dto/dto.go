package dto

import (
	"time"

	"ultimateTodo/internal/auth"
	"ultimateTodo/internal/models/todo"
	"ultimateTodo/internal/service"
	"ultimateTodo/internal/view"
)

type CreateTodoRequest struct {
	Text     string `json:"text"`
	Date     string `json:"date"`
	Priority int    `json:"priority"`
	Project  string `json:"project"`
	Starred  bool   `json:"starred"`
}

type UpdateTodoRequest struct {
	Text      *string   `json:"text,omitempty"`
	Date      *string   `json:"date,omitempty"`
	Priority  *int      `json:"priority,omitempty"`
	Project   *string   `json:"project,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Recurring *string   `json:"recurring,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
	Starred   *bool     `json:"starred,omitempty"`
}

// Options переводит непустые поля запроса в опции обновления
func (r UpdateTodoRequest) Options() []todo.TodoOption {
	var options []todo.TodoOption
	if r.Text != nil {
		options = append(options, todo.WithText(*r.Text))
	}
	if r.Date != nil {
		options = append(options, todo.WithDate(*r.Date))
	}
	if r.Priority != nil {
		options = append(options, todo.WithPriority(*r.Priority))
	}
	if r.Project != nil {
		options = append(options, todo.WithProject(*r.Project))
	}
	if r.Notes != nil {
		options = append(options, todo.WithNotes(*r.Notes))
	}
	if r.Recurring != nil {
		options = append(options, todo.WithRecurring(todo.Recurrence(*r.Recurring)))
	}
	if r.Tags != nil {
		options = append(options, todo.WithTags(*r.Tags))
	}
	if r.Starred != nil {
		options = append(options, todo.WithStarred(*r.Starred))
	}
	return options
}

type ReorderRequest struct {
	DraggedID string `json:"draggedId"`
	TargetID  string `json:"targetId"`
}

type BulkToggleRequest struct {
	IDs []string `json:"ids"`
}

type SubtaskRequest struct {
	Text string `json:"text"`
}

type ProjectRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type TagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ThemeRequest struct {
	Theme string `json:"theme"`
}

type SortRequest struct {
	Sort string `json:"sort"`
}

type CollapseRequest struct {
	Key string `json:"key"`
}

type PomodoroModeRequest struct {
	Minutes int `json:"minutes"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GroupResponse struct {
	Date      string       `json:"date"`
	Key       string       `json:"key"`
	Label     string       `json:"label"`
	Todos     []*todo.Todo `json:"todos"`
	Done      int          `json:"done"`
	Total     int          `json:"total"`
	AllDone   bool         `json:"allDone"`
	NoneDone  bool         `json:"noneDone"`
	Collapsed bool         `json:"collapsed"`
}

type ViewResponse struct {
	View     string          `json:"view"`
	Title    string          `json:"title"`
	Sort     string          `json:"sort"`
	Groups   []GroupResponse `json:"groups,omitempty"`
	Todos    []*todo.Todo    `json:"todos,omitempty"`
	Badges   view.Badges     `json:"badges"`
	Progress int             `json:"progress"`
}

func FromViewModel(vm service.ViewModel, now time.Time) ViewResponse {
	resp := ViewResponse{
		View:     vm.View,
		Title:    vm.Title,
		Sort:     string(vm.Sort),
		Todos:    vm.Flat,
		Badges:   vm.Badges,
		Progress: vm.Progress,
	}
	for _, g := range vm.Groups {
		resp.Groups = append(resp.Groups, GroupResponse{
			Date:      g.Date,
			Key:       g.Key,
			Label:     view.GroupLabel(g.Date, now),
			Todos:     g.Todos,
			Done:      g.Done,
			Total:     g.Total,
			AllDone:   g.AllDone,
			NoneDone:  g.NoneDone,
			Collapsed: g.Collapsed,
		})
	}
	return resp
}

type UserResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
}
