package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ultimateTodo/internal/models/todo"
	"ultimateTodo/internal/service"
	"ultimateTodo/internal/view"
)

// MockRecordStore - мок локального хранилища
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) LoadTodos() []*todo.Todo {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*todo.Todo)
}

func (m *MockRecordStore) SaveTodos(list []*todo.Todo) error {
	args := m.Called(list)
	return args.Error(0)
}

func (m *MockRecordStore) LoadProjects() []todo.Project {
	args := m.Called()
	return args.Get(0).([]todo.Project)
}

func (m *MockRecordStore) SaveProjects(list []todo.Project) error {
	args := m.Called(list)
	return args.Error(0)
}

func (m *MockRecordStore) LoadTags() []todo.Tag {
	args := m.Called()
	return args.Get(0).([]todo.Tag)
}

func (m *MockRecordStore) SaveTags(list []todo.Tag) error {
	args := m.Called(list)
	return args.Error(0)
}

func (m *MockRecordStore) LoadCollapsed() map[string]bool {
	args := m.Called()
	return args.Get(0).(map[string]bool)
}

func (m *MockRecordStore) SaveCollapsed(c map[string]bool) error {
	args := m.Called(c)
	return args.Error(0)
}

func (m *MockRecordStore) LoadTheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRecordStore) SaveTheme(theme string) error {
	args := m.Called(theme)
	return args.Error(0)
}

func (m *MockRecordStore) LoadSort() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRecordStore) SaveSort(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

var _ service.RecordStore = (*MockRecordStore)(nil)

// MockMirror - мок удалённого зеркала
type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) SetTodo(ctx context.Context, t *todo.Todo) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockMirror) RemoveTodo(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMirror) UpdateUserData(ctx context.Context, fields map[string]any) error {
	args := m.Called(ctx, fields)
	return args.Error(0)
}

var _ service.Mirror = (*MockMirror)(nil)

func newEngine(t *testing.T, store *MockRecordStore) *service.Engine {
	t.Helper()
	return service.NewEngine(store, 5*time.Second)
}

// TestEngine_Load тестирует подъём коллекций и миграционный проход
func TestEngine_Load(t *testing.T) {
	t.Run("записи с отсутствующими полями дозаполняются", func(t *testing.T) {
		store := new(MockRecordStore)
		legacy := &todo.Todo{ID: "t1", Text: "старая запись", Project: "proj-gone"}

		store.On("LoadProjects").Return(todo.DefaultProjects())
		store.On("LoadTags").Return(todo.DefaultTags())
		store.On("LoadTodos").Return([]*todo.Todo{legacy})
		store.On("LoadCollapsed").Return(map[string]bool{})
		store.On("LoadTheme").Return("dark")
		store.On("LoadSort").Return("date")
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		engine.Load()

		got, err := engine.GetTodoByID("t1")
		require.NoError(t, err)
		assert.Equal(t, todo.InboxID, got.Project, "неразрешимый проект уходит в inbox")
		assert.Equal(t, todo.PriorityLow, got.Priority)
		assert.NotEmpty(t, got.Date)
		assert.NotNil(t, got.Tags)
		assert.NotNil(t, got.Subtasks)
		store.AssertExpectations(t)
	})

	t.Run("нормальные записи не пересохраняются", func(t *testing.T) {
		store := new(MockRecordStore)
		ok := todo.New("запись", "2026-01-01", 2, todo.InboxID, false, time.Now())

		store.On("LoadProjects").Return(todo.DefaultProjects())
		store.On("LoadTags").Return(todo.DefaultTags())
		store.On("LoadTodos").Return([]*todo.Todo{ok})
		store.On("LoadCollapsed").Return(map[string]bool{})
		store.On("LoadTheme").Return("dark")
		store.On("LoadSort").Return("date")

		engine := newEngine(t, store)
		engine.Load()

		store.AssertNotCalled(t, "SaveTodos", mock.Anything)
	})
}

// TestEngine_CreateTodo тестирует создание задачи
func TestEngine_CreateTodo(t *testing.T) {
	ctx := context.Background()

	t.Run("успех - новая задача встаёт в начало", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		first, err := engine.CreateTodo(ctx, "первая", "", 0, "", false)
		require.NoError(t, err)
		second, err := engine.CreateTodo(ctx, "вторая", "", 0, "", false)
		require.NoError(t, err)

		todos := engine.Todos()
		require.Len(t, todos, 2)
		assert.Equal(t, second.ID, todos[0].ID)
		assert.Equal(t, first.ID, todos[1].ID)
		assert.Equal(t, todo.InboxID, first.Project)
		assert.Equal(t, todo.PriorityLow, first.Priority)
		assert.Equal(t, todo.ISODate(time.Now()), first.Date)
		store.AssertExpectations(t)
	})

	t.Run("ошибка - пустой текст", func(t *testing.T) {
		store := new(MockRecordStore)

		engine := newEngine(t, store)
		_, err := engine.CreateTodo(ctx, "", "", 0, "", false)

		assert.Error(t, err)
		var businessErr *service.BusinessError
		require.True(t, errors.As(err, &businessErr))
		assert.Equal(t, "VALIDATION_ERROR", businessErr.Code)
		store.AssertNotCalled(t, "SaveTodos", mock.Anything)
	})

	t.Run("ошибка записи хранилища отдаётся наверх", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(errors.New("disk full"))

		engine := newEngine(t, store)
		_, err := engine.CreateTodo(ctx, "задача", "", 0, "", false)

		assert.Error(t, err)
		store.AssertExpectations(t)
	})
}

// TestEngine_ToggleComplete тестирует переключение завершённости
// и порождение следующего повторения
func TestEngine_ToggleComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("успех - обычная задача", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		created, err := engine.CreateTodo(ctx, "задача", "", 0, "", false)
		require.NoError(t, err)

		toggled, err := engine.ToggleComplete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, toggled.Completed)

		back, err := engine.ToggleComplete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, back.Completed)
		assert.Len(t, engine.Todos(), 1, "повторение не порождается без recurring")
	})

	t.Run("повторяющаяся задача порождает следующее вхождение", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		created, err := engine.CreateTodo(ctx, "еженедельная", "2026-06-01", 2, "", false)
		require.NoError(t, err)
		_, err = engine.UpdateTodo(ctx, created.ID, todo.WithRecurring(todo.RecurrenceWeekly))
		require.NoError(t, err)
		_, err = engine.AddSubtask(ctx, created.ID)
		require.NoError(t, err)
		_, err = engine.ToggleSubtask(ctx, created.ID, 0)
		require.NoError(t, err)

		toggled, err := engine.ToggleComplete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, toggled.Completed)

		todos := engine.Todos()
		require.Len(t, todos, 2)

		next := todos[0]
		assert.NotEqual(t, created.ID, next.ID)
		assert.False(t, next.Completed)
		assert.Equal(t, "2026-06-08", next.Date)
		require.Len(t, next.Subtasks, 1)
		assert.False(t, next.Subtasks[0].Completed, "подзадачи клона сброшены")
	})

	t.Run("ошибка - задача не найдена", func(t *testing.T) {
		store := new(MockRecordStore)

		engine := newEngine(t, store)
		_, err := engine.ToggleComplete(ctx, "missing")

		var businessErr *service.BusinessError
		require.True(t, errors.As(err, &businessErr))
		assert.Equal(t, "NOT_FOUND", businessErr.Code)
	})
}

// TestEngine_DeleteAndUndo тестирует удаление со слотом отмены
func TestEngine_DeleteAndUndo(t *testing.T) {
	ctx := context.Background()

	t.Run("отмена возвращает задачу на исходную позицию", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := service.NewEngine(store, time.Second)
		a, _ := engine.CreateTodo(ctx, "a", "", 0, "", false)
		b, _ := engine.CreateTodo(ctx, "b", "", 0, "", false)
		c, _ := engine.CreateTodo(ctx, "c", "", 0, "", false)
		// порядок хранения: c, b, a

		require.NoError(t, engine.DeleteTodo(ctx, b.ID))
		require.Len(t, engine.Todos(), 2)

		restored, err := engine.Undo(ctx)
		require.NoError(t, err)
		assert.True(t, restored)

		todos := engine.Todos()
		require.Len(t, todos, 3)
		assert.Equal(t, c.ID, todos[0].ID)
		assert.Equal(t, b.ID, todos[1].ID)
		assert.Equal(t, a.ID, todos[2].ID)
	})

	t.Run("слот истекает по окну", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := service.NewEngine(store, 30*time.Millisecond)
		created, _ := engine.CreateTodo(ctx, "задача", "", 0, "", false)
		require.NoError(t, engine.DeleteTodo(ctx, created.ID))

		time.Sleep(80 * time.Millisecond)

		restored, err := engine.Undo(ctx)
		require.NoError(t, err)
		assert.False(t, restored)
		assert.Empty(t, engine.Todos())
	})

	t.Run("новое удаление вытесняет старый слот", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := service.NewEngine(store, time.Second)
		first, _ := engine.CreateTodo(ctx, "первая", "", 0, "", false)
		second, _ := engine.CreateTodo(ctx, "вторая", "", 0, "", false)

		require.NoError(t, engine.DeleteTodo(ctx, first.ID))
		require.NoError(t, engine.DeleteTodo(ctx, second.ID))

		restored, err := engine.Undo(ctx)
		require.NoError(t, err)
		assert.True(t, restored)

		todos := engine.Todos()
		require.Len(t, todos, 1, "восстановлена только вторая")
		assert.Equal(t, second.ID, todos[0].ID)

		restored, err = engine.Undo(ctx)
		require.NoError(t, err)
		assert.False(t, restored, "слот одноразовый")
	})
}

// TestEngine_Reorder тестирует перенос задачи
func TestEngine_Reorder(t *testing.T) {
	ctx := context.Background()

	t.Run("успех - перетащенная встаёт перед целевой", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		a, _ := engine.CreateTodo(ctx, "a", "", 0, "", false)
		b, _ := engine.CreateTodo(ctx, "b", "", 0, "", false)
		c, _ := engine.CreateTodo(ctx, "c", "", 0, "", false)
		// порядок хранения: c, b, a

		require.NoError(t, engine.Reorder(ctx, a.ID, c.ID))

		todos := engine.Todos()
		assert.Equal(t, a.ID, todos[0].ID)
		assert.Equal(t, c.ID, todos[1].ID)
		assert.Equal(t, b.ID, todos[2].ID)
	})

	t.Run("перенос вниз - тоже перед целевой", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		a, _ := engine.CreateTodo(ctx, "a", "", 0, "", false)
		b, _ := engine.CreateTodo(ctx, "b", "", 0, "", false)
		c, _ := engine.CreateTodo(ctx, "c", "", 0, "", false)
		// порядок хранения: c, b, a

		require.NoError(t, engine.Reorder(ctx, c.ID, a.ID))

		todos := engine.Todos()
		assert.Equal(t, b.ID, todos[0].ID)
		assert.Equal(t, c.ID, todos[1].ID)
		assert.Equal(t, a.ID, todos[2].ID)
	})

	t.Run("неразрешимые id - no-op", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		a, _ := engine.CreateTodo(ctx, "a", "", 0, "", false)

		require.NoError(t, engine.Reorder(ctx, a.ID, "missing"))
		require.NoError(t, engine.Reorder(ctx, "missing", a.ID))

		todos := engine.Todos()
		require.Len(t, todos, 1)
		assert.Equal(t, a.ID, todos[0].ID)
	})
}

// TestEngine_BulkToggle тестирует групповой чекбокс
func TestEngine_BulkToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("если завершены не все - завершить всех", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		a, _ := engine.CreateTodo(ctx, "a", "", 0, "", false)
		b, _ := engine.CreateTodo(ctx, "b", "", 0, "", false)
		_, err := engine.ToggleComplete(ctx, a.ID)
		require.NoError(t, err)

		require.NoError(t, engine.BulkToggle(ctx, []string{a.ID, b.ID}))

		for _, item := range engine.Todos() {
			assert.True(t, item.Completed)
		}

		// все завершены - снять со всех
		require.NoError(t, engine.BulkToggle(ctx, []string{a.ID, b.ID}))
		for _, item := range engine.Todos() {
			assert.False(t, item.Completed)
		}
	})
}

// TestEngine_UpdateTodo тестирует детальное редактирование через опции
func TestEngine_UpdateTodo(t *testing.T) {
	ctx := context.Background()

	t.Run("пустой текст оставляет прежний", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		created, _ := engine.CreateTodo(ctx, "исходный текст", "", 0, "", false)

		updated, err := engine.UpdateTodo(ctx, created.ID,
			todo.WithText(""),
			todo.WithNotes("заметка"),
			todo.WithPriority(1),
		)
		require.NoError(t, err)
		assert.Equal(t, "исходный текст", updated.Text)
		assert.Equal(t, "заметка", updated.Notes)
		assert.Equal(t, todo.PriorityUrgent, updated.Priority)
	})

	t.Run("приоритет вне диапазона игнорируется", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		created, _ := engine.CreateTodo(ctx, "задача", "", 2, "", false)

		updated, err := engine.UpdateTodo(ctx, created.ID, todo.WithPriority(9))
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Priority)
	})
}

// TestEngine_Subtasks тестирует операции над подзадачами
func TestEngine_Subtasks(t *testing.T) {
	ctx := context.Background()

	t.Run("жизненный цикл подзадачи", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		created, _ := engine.CreateTodo(ctx, "задача", "", 0, "", false)

		withSub, err := engine.AddSubtask(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, withSub.Subtasks, 1)
		assert.Empty(t, withSub.Subtasks[0].Text)

		edited, err := engine.EditSubtask(ctx, created.ID, 0, "шаг 1")
		require.NoError(t, err)
		assert.Equal(t, "шаг 1", edited.Subtasks[0].Text)

		// пустой текст не затирает прежний
		kept, err := engine.EditSubtask(ctx, created.ID, 0, "")
		require.NoError(t, err)
		assert.Equal(t, "шаг 1", kept.Subtasks[0].Text)

		toggled, err := engine.ToggleSubtask(ctx, created.ID, 0)
		require.NoError(t, err)
		assert.True(t, toggled.Subtasks[0].Completed)

		removed, err := engine.DeleteSubtask(ctx, created.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, removed.Subtasks)
	})

	t.Run("ошибка - индекс вне диапазона", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		created, _ := engine.CreateTodo(ctx, "задача", "", 0, "", false)

		_, err := engine.ToggleSubtask(ctx, created.ID, 3)
		var businessErr *service.BusinessError
		require.True(t, errors.As(err, &businessErr))
		assert.Equal(t, "NOT_FOUND", businessErr.Code)
	})
}

// TestEngine_Projects тестирует проекты
func TestEngine_Projects(t *testing.T) {
	ctx := context.Background()

	t.Run("inbox удалить нельзя", func(t *testing.T) {
		store := new(MockRecordStore)

		engine := newEngine(t, store)
		err := engine.DeleteProject(ctx, todo.InboxID)

		var businessErr *service.BusinessError
		require.True(t, errors.As(err, &businessErr))
		assert.Equal(t, "RESERVED", businessErr.Code)
	})

	t.Run("удаление проекта не трогает ссылки задач", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)
		store.On("SaveProjects", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		project, err := engine.AddProject(ctx, "Разное", "")
		require.NoError(t, err)
		assert.Contains(t, project.ID, "proj-")

		created, err := engine.CreateTodo(ctx, "задача", "", 0, project.ID, false)
		require.NoError(t, err)

		require.NoError(t, engine.DeleteProject(ctx, project.ID))

		// висячая ссылка остаётся, задача жива
		got, err := engine.GetTodoByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, project.ID, got.Project)
	})
}

// TestEngine_Settings тестирует тему, сортировку и свёрнутость
func TestEngine_Settings(t *testing.T) {
	ctx := context.Background()

	t.Run("тема - только dark и light", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTheme", "light").Return(nil)

		engine := newEngine(t, store)
		require.NoError(t, engine.SetTheme(ctx, "light"))

		err := engine.SetTheme(ctx, "neon")
		assert.Error(t, err)
		store.AssertExpectations(t)
	})

	t.Run("свёрнутость переключается по ключу группы", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveCollapsed", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		collapsed, err := engine.ToggleCollapse(ctx, "date-2026-06-01")
		require.NoError(t, err)
		assert.True(t, collapsed)

		collapsed, err = engine.ToggleCollapse(ctx, "date-2026-06-01")
		require.NoError(t, err)
		assert.False(t, collapsed)
	})
}

// TestEngine_Mirror тестирует зеркалирование мутаций
func TestEngine_Mirror(t *testing.T) {
	ctx := context.Background()

	t.Run("мутации уходят в зеркало при активной сессии", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		mirror := new(MockMirror)
		mirror.On("SetTodo", mock.Anything, mock.Anything).Return(nil)
		mirror.On("RemoveTodo", mock.Anything, mock.Anything).Return(nil)

		engine := newEngine(t, store)
		engine.SetMirror(mirror)

		created, err := engine.CreateTodo(ctx, "задача", "", 0, "", false)
		require.NoError(t, err)
		require.NoError(t, engine.DeleteTodo(ctx, created.ID))

		mirror.AssertCalled(t, "SetTodo", mock.Anything, mock.MatchedBy(func(item *todo.Todo) bool {
			return item.ID == created.ID
		}))
		mirror.AssertCalled(t, "RemoveTodo", mock.Anything, created.ID)
	})

	t.Run("ошибка зеркала отдаётся наверх, локально запись сохранена", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		mirror := new(MockMirror)
		mirror.On("SetTodo", mock.Anything, mock.Anything).Return(errors.New("network down"))

		engine := newEngine(t, store)
		engine.SetMirror(mirror)

		_, err := engine.CreateTodo(ctx, "задача", "", 0, "", false)
		assert.Error(t, err)
		assert.Len(t, engine.Todos(), 1)
	})

	t.Run("после ClearMirror мутации остаются локальными", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		mirror := new(MockMirror)

		engine := newEngine(t, store)
		engine.SetMirror(mirror)
		engine.ClearMirror()

		_, err := engine.CreateTodo(ctx, "задача", "", 0, "", false)
		require.NoError(t, err)
		mirror.AssertNotCalled(t, "SetTodo", mock.Anything, mock.Anything)
	})
}

// TestEngine_RenderView тестирует сборку модели представления
func TestEngine_RenderView(t *testing.T) {
	ctx := context.Background()

	t.Run("date-сортировка отдаёт группы, остальные - плоский список", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)
		store.On("SaveSort", "alpha").Return(nil)

		engine := newEngine(t, store)
		today := todo.ISODate(time.Now())
		_, err := engine.CreateTodo(ctx, "сегодня", today, 0, "", false)
		require.NoError(t, err)

		vm := engine.RenderView(view.ViewToday, "")
		assert.NotEmpty(t, vm.Groups)
		assert.Empty(t, vm.Flat)
		assert.Equal(t, 1, vm.Badges.Today)

		require.NoError(t, engine.SetSort(ctx, "alpha"))
		vm = engine.RenderView(view.ViewToday, "")
		assert.Empty(t, vm.Groups)
		assert.Len(t, vm.Flat, 1)
	})

	t.Run("поиск фильтрует по тексту и заметкам", func(t *testing.T) {
		store := new(MockRecordStore)
		store.On("SaveTodos", mock.Anything).Return(nil)

		engine := newEngine(t, store)
		_, err := engine.CreateTodo(ctx, "купить молоко", "", 0, "", false)
		require.NoError(t, err)
		created, err := engine.CreateTodo(ctx, "позвонить", "", 0, "", false)
		require.NoError(t, err)
		_, err = engine.UpdateTodo(ctx, created.ID, todo.WithNotes("про молоко тоже"))
		require.NoError(t, err)

		vm := engine.RenderView(view.ViewInbox, "МОЛОКО")
		total := 0
		for _, g := range vm.Groups {
			total += len(g.Todos)
		}
		assert.Equal(t, 2, total, "регистронезависимый поиск по text и notes")
	})
}

// TestEngine_Export тестирует байтовую точность среза экспорта
func TestEngine_Export(t *testing.T) {
	ctx := context.Background()

	store := new(MockRecordStore)
	store.On("SaveTodos", mock.Anything).Return(nil)
	store.On("SaveProjects", mock.Anything).Return(nil)
	store.On("SaveTags", mock.Anything).Return(nil)

	engine := newEngine(t, store)
	first, err := engine.CreateTodo(ctx, "задача со звездой", "2026-06-10", 1, "", true)
	require.NoError(t, err)
	_, err = engine.UpdateTodo(ctx, first.ID, todo.WithNotes("заметка"), todo.WithTags([]string{"tag-urgent"}))
	require.NoError(t, err)
	_, err = engine.CreateTodo(ctx, "без даты", "", 3, "", false)
	require.NoError(t, err)
	_, err = engine.AddProject(ctx, "Чтение", "")
	require.NoError(t, err)
	_, err = engine.AddTag(ctx, "Дом", "")
	require.NoError(t, err)

	data := engine.Export()

	// Массивы экспорта байт-в-байт совпадают с состоянием
	gotTodos, err := json.Marshal(data.Todos)
	require.NoError(t, err)
	wantTodos, err := json.Marshal(engine.Todos())
	require.NoError(t, err)
	assert.Equal(t, wantTodos, gotTodos)

	gotProjects, err := json.Marshal(data.Projects)
	require.NoError(t, err)
	wantProjects, err := json.Marshal(engine.Projects())
	require.NoError(t, err)
	assert.Equal(t, wantProjects, gotProjects)

	gotTags, err := json.Marshal(data.Tags)
	require.NoError(t, err)
	wantTags, err := json.Marshal(engine.Tags())
	require.NoError(t, err)
	assert.Equal(t, wantTags, gotTags)

	_, err = time.Parse(time.RFC3339, data.ExportedAt)
	assert.NoError(t, err, "exportedAt в формате RFC3339")

	// Экспорт - копия: правка среза не трогает состояние
	data.Todos[0].Text = "изменено"
	assert.NotEqual(t, "изменено", engine.Todos()[0].Text)
}
