package todo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ultimateTodo/internal/models/todo"
)

// TestNew тестирует значения по умолчанию при создании
func TestNew(t *testing.T) {
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

	t.Run("пустые поля дозаполняются", func(t *testing.T) {
		item := todo.New("задача", "", 0, "", false, now)

		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "2026-06-10", item.Date)
		assert.Equal(t, todo.PriorityLow, item.Priority)
		assert.Equal(t, todo.InboxID, item.Project)
		assert.Equal(t, now.UnixMilli(), item.CreatedAt)
		assert.NotNil(t, item.Tags)
		assert.NotNil(t, item.Subtasks)
		assert.Equal(t, todo.RecurrenceNone, item.Recurring)
	})

	t.Run("заданные значения сохраняются", func(t *testing.T) {
		item := todo.New("задача", "2026-07-01", 2, "work", true, now)

		assert.Equal(t, "2026-07-01", item.Date)
		assert.Equal(t, 2, item.Priority)
		assert.Equal(t, "work", item.Project)
		assert.True(t, item.Starred)
	})

	t.Run("приоритет вне диапазона уходит в low", func(t *testing.T) {
		item := todo.New("задача", "", 9, "", false, now)
		assert.Equal(t, todo.PriorityLow, item.Priority)
	})
}

// TestNormalize тестирует миграционный проход по старым записям
func TestNormalize(t *testing.T) {
	known := func(id string) bool { return id == todo.InboxID || id == "work" }

	tests := []struct {
		name    string
		item    todo.Todo
		changed bool
		check   func(*testing.T, *todo.Todo)
	}{
		{
			name:    "полная запись не меняется",
			item:    *todo.New("ок", "2026-06-01", 2, "work", false, time.Now()),
			changed: false,
		},
		{
			name:    "пустая дата заполняется сегодняшней",
			item:    todo.Todo{ID: "a", Text: "x", Priority: 2, Project: "work", Tags: []string{}, Subtasks: []todo.Subtask{}, CreatedAt: 1},
			changed: true,
			check: func(t *testing.T, item *todo.Todo) {
				assert.Equal(t, "2026-06-10", item.Date)
			},
		},
		{
			name:    "неразрешимый проект уходит в inbox",
			item:    todo.Todo{ID: "a", Text: "x", Date: "2026-06-01", Priority: 2, Project: "proj-deleted", Tags: []string{}, Subtasks: []todo.Subtask{}, CreatedAt: 1},
			changed: true,
			check: func(t *testing.T, item *todo.Todo) {
				assert.Equal(t, todo.InboxID, item.Project)
			},
		},
		{
			name:    "nil-срезы становятся пустыми",
			item:    todo.Todo{ID: "a", Text: "x", Date: "2026-06-01", Priority: 2, Project: "work", CreatedAt: 1},
			changed: true,
			check: func(t *testing.T, item *todo.Todo) {
				assert.NotNil(t, item.Tags)
				assert.NotNil(t, item.Subtasks)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			changed := item.Normalize("2026-06-10", known)
			assert.Equal(t, tt.changed, changed)
			if tt.check != nil {
				tt.check(t, &item)
			}
		})
	}
}

// TestClone тестирует глубину копии
func TestClone(t *testing.T) {
	original := todo.New("задача", "2026-06-01", 2, "work", false, time.Now())
	original.Tags = []string{"tag-urgent"}
	original.Subtasks = []todo.Subtask{{ID: "s1", Text: "шаг"}}

	clone := original.Clone()
	clone.Tags[0] = "tag-bug"
	clone.Subtasks[0].Completed = true

	assert.Equal(t, "tag-urgent", original.Tags[0])
	assert.False(t, original.Subtasks[0].Completed)
}

// TestNextOccurrence тестирует сдвиг даты повторения
func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name string
		date string
		r    todo.Recurrence
		want string
	}{
		{"ежедневно", "2026-06-01", todo.RecurrenceDaily, "2026-06-02"},
		{"еженедельно", "2026-06-01", todo.RecurrenceWeekly, "2026-06-08"},
		{"еженедельно через границу месяца", "2026-06-28", todo.RecurrenceWeekly, "2026-07-05"},
		{"ежемесячно", "2026-06-15", todo.RecurrenceMonthly, "2026-07-15"},
		{"ежедневно через границу года", "2026-12-31", todo.RecurrenceDaily, "2027-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := todo.NextOccurrence(tt.date, tt.r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("ошибка на кривой дате", func(t *testing.T) {
		_, err := todo.NextOccurrence("не дата", todo.RecurrenceDaily)
		assert.Error(t, err)
	})
}

// TestDefaults тестирует встроенные наборы
func TestDefaults(t *testing.T) {
	projects := todo.DefaultProjects()
	require.Len(t, projects, 3)
	assert.Equal(t, todo.InboxID, projects[0].ID)

	tags := todo.DefaultTags()
	require.Len(t, tags, 3)
	assert.Equal(t, "tag-urgent", tags[0].ID)

	assert.Len(t, todo.ColorPalette, 12)
	assert.Equal(t, "Low", todo.PriorityLabels[todo.PriorityLow])
}
