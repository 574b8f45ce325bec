// Здесь живёт всё состояние приложения и операции над ним. Любая мутация
// проходит через Engine: меняет коллекции, сохраняет их в локальное хранилище
// и, если подключено зеркало, отражает изменение в удалённый документ-стор.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ultimateTodo/internal/logger"
	"ultimateTodo/internal/models/todo"
	"ultimateTodo/internal/view"
)

type Engine struct {
	mu sync.Mutex

	store  RecordStore
	mirror Mirror // nil когда пользователь не авторизован

	todos     []*todo.Todo
	projects  []todo.Project
	tags      []todo.Tag
	collapsed map[string]bool
	theme     string
	sortMode  view.Sort

	undo       *undoEntry
	undoWindow time.Duration
}

// undoEntry - единственный слот отмены: снимки удалённых задач и позиция,
// куда их вернуть. Новый слот вытесняет старый, таймер истечения при этом
// взводится заново.
type undoEntry struct {
	items []*todo.Todo
	index int
	timer *time.Timer
}

func NewEngine(store RecordStore, undoWindow time.Duration) *Engine {
	if undoWindow <= 0 {
		undoWindow = 5 * time.Second
	}
	return &Engine{
		store:      store,
		collapsed:  map[string]bool{},
		theme:      "dark",
		sortMode:   view.SortDate,
		undoWindow: undoWindow,
	}
}

// Load поднимает коллекции из хранилища и прогоняет миграционный проход:
// записи с отсутствующими полями дозаполняются значениями по умолчанию,
// при изменениях коллекция немедленно сохраняется.
func (e *Engine) Load() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.projects = e.store.LoadProjects()
	e.tags = e.store.LoadTags()
	e.todos = e.store.LoadTodos()
	e.collapsed = e.store.LoadCollapsed()
	e.theme = e.store.LoadTheme()
	e.sortMode = view.ParseSort(e.store.LoadSort())

	known := make(map[string]bool, len(e.projects))
	for _, p := range e.projects {
		known[p.ID] = true
	}

	today := todo.ISODate(time.Now())
	changed := false
	for _, t := range e.todos {
		if t.Normalize(today, func(id string) bool { return known[id] }) {
			changed = true
		}
	}
	if changed {
		logger.Info("Service: Миграция старых записей", zap.Int("count", len(e.todos)))
		if err := e.store.SaveTodos(e.todos); err != nil {
			logger.Error("Service: Не удалось сохранить мигрированные записи", err)
		}
	}
}

// SetMirror подключает зеркало удалённого хранилища (вход в аккаунт)
func (e *Engine) SetMirror(m Mirror) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mirror = m
}

// ClearMirror отключает зеркало (выход из аккаунта)
func (e *Engine) ClearMirror() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mirror = nil
}

func (e *Engine) findLocked(id string) (int, *todo.Todo) {
	for i, t := range e.todos {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

// persistTodosLocked сохраняет коллекцию локально; ошибка записи
// логируется и отдаётся наверх
func (e *Engine) persistTodosLocked() error {
	if err := e.store.SaveTodos(e.todos); err != nil {
		logger.Error("Service: Не удалось сохранить задачи", err)
		return fmt.Errorf("сохранение задач: %w", err)
	}
	return nil
}

func (e *Engine) mirrorSetLocked(ctx context.Context, t *todo.Todo) error {
	if e.mirror == nil {
		return nil
	}
	if err := e.mirror.SetTodo(ctx, t); err != nil {
		logger.Error("Service: Ошибка зеркалирования задачи", err, zap.String("task_id", t.ID))
		return fmt.Errorf("удалённая запись: %w", err)
	}
	return nil
}

func (e *Engine) mirrorRemoveLocked(ctx context.Context, id string) error {
	if e.mirror == nil {
		return nil
	}
	if err := e.mirror.RemoveTodo(ctx, id); err != nil {
		logger.Error("Service: Ошибка зеркалирования удаления", err, zap.String("task_id", id))
		return fmt.Errorf("удалённое удаление: %w", err)
	}
	return nil
}

func (e *Engine) mirrorUserDataLocked(ctx context.Context, fields map[string]any) error {
	if e.mirror == nil {
		return nil
	}
	if err := e.mirror.UpdateUserData(ctx, fields); err != nil {
		logger.Error("Service: Ошибка зеркалирования настроек", err)
		return fmt.Errorf("удалённое обновление настроек: %w", err)
	}
	return nil
}

// ============================================================
//  CRUD
// ============================================================

// CreateTodo вставляет новую задачу в начало коллекции
// (свежие записи впереди, независимо от сортировки отображения)
func (e *Engine) CreateTodo(ctx context.Context, text, date string, priority int, project string, starred bool) (*todo.Todo, error) {
	if text == "" {
		return nil, NewValidationError("text", "пустой текст задачи")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := todo.New(text, date, priority, project, starred, time.Now())
	e.todos = append([]*todo.Todo{t}, e.todos...)

	logger.Info("Service: Задача создана", zap.String("task_id", t.ID))

	if err := e.persistTodosLocked(); err != nil {
		return nil, err
	}
	return t.Clone(), e.mirrorSetLocked(ctx, t)
}

// ToggleComplete переключает завершённость. Завершение повторяющейся задачи
// порождает следующее вхождение: клон с новым id, сброшенными подзадачами и
// датой, сдвинутой по виду повторения. Оригинал остаётся завершённым.
func (e *Engine) ToggleComplete(ctx context.Context, id string) (*todo.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, t := e.findLocked(id)
	if t == nil {
		return nil, NewNotFound("задача", id)
	}

	t.Completed = !t.Completed

	var next *todo.Todo
	if t.Completed && t.Recurring != todo.RecurrenceNone {
		date, err := todo.NextOccurrence(t.Date, t.Recurring)
		if err != nil {
			logger.Warn("Service: Не удалось вычислить следующее повторение",
				zap.String("task_id", t.ID),
				zap.String("date", t.Date),
				zap.Error(err))
		} else {
			next = t.Clone()
			next.ID = todo.NewID()
			next.Completed = false
			next.CreatedAt = time.Now().UnixMilli()
			next.Date = date
			for i := range next.Subtasks {
				next.Subtasks[i].Completed = false
			}
			e.todos = append([]*todo.Todo{next}, e.todos...)
			logger.Info("Service: Создано следующее повторение",
				zap.String("task_id", next.ID),
				zap.String("date", next.Date))
		}
	}

	if err := e.persistTodosLocked(); err != nil {
		return nil, err
	}
	if err := e.mirrorSetLocked(ctx, t); err != nil {
		return nil, err
	}
	if next != nil {
		if err := e.mirrorSetLocked(ctx, next); err != nil {
			return nil, err
		}
	}
	return t.Clone(), nil
}

func (e *Engine) ToggleStar(ctx context.Context, id string) (*todo.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, t := e.findLocked(id)
	if t == nil {
		return nil, NewNotFound("задача", id)
	}
	t.Starred = !t.Starred

	if err := e.persistTodosLocked(); err != nil {
		return nil, err
	}
	return t.Clone(), e.mirrorSetLocked(ctx, t)
}

// DeleteTodo удаляет задачу и заполняет слот отмены её снимком. Слот живёт
// undoWindow, затем истекает безвозвратно - даже если пользователь уже
// тянется к кнопке: гонка решается настенными часами.
func (e *Engine) DeleteTodo(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, t := e.findLocked(id)
	if t == nil {
		return NewNotFound("задача", id)
	}

	e.todos = append(e.todos[:idx], e.todos[idx+1:]...)
	e.armUndoLocked([]*todo.Todo{t}, idx)

	logger.Info("Service: Задача удалена", zap.String("task_id", id), zap.Int("index", idx))

	if err := e.persistTodosLocked(); err != nil {
		return err
	}
	return e.mirrorRemoveLocked(ctx, id)
}

func (e *Engine) armUndoLocked(items []*todo.Todo, index int) {
	if e.undo != nil && e.undo.timer != nil {
		e.undo.timer.Stop()
	}
	entry := &undoEntry{items: items, index: index}
	entry.timer = time.AfterFunc(e.undoWindow, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.undo == entry {
			e.undo = nil
			logger.Info("Service: Окно отмены истекло")
		}
	})
	e.undo = entry
}

// Undo возвращает задачи из слота отмены на их исходную позицию.
// Возвращает false если отменять нечего (слот пуст или истёк).
func (e *Engine) Undo(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.undo == nil {
		return false, nil
	}
	entry := e.undo
	e.undo = nil
	if entry.timer != nil {
		entry.timer.Stop()
	}

	idx := entry.index
	if idx > len(e.todos) {
		idx = len(e.todos)
	}
	restored := append([]*todo.Todo{}, e.todos[:idx]...)
	restored = append(restored, entry.items...)
	restored = append(restored, e.todos[idx:]...)
	e.todos = restored

	logger.Info("Service: Отмена удаления", zap.Int("restored", len(entry.items)))

	if err := e.persistTodosLocked(); err != nil {
		return true, err
	}
	for _, t := range entry.items {
		if err := e.mirrorSetLocked(ctx, t); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Reorder переносит перетащенную задачу непосредственно перед целевой
// в порядке хранения, независимо от направления переноса.
// Неразрешимые id - no-op.
func (e *Engine) Reorder(ctx context.Context, draggedID, targetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	di, dragged := e.findLocked(draggedID)
	ti, _ := e.findLocked(targetID)
	if dragged == nil || ti == -1 || draggedID == targetID {
		return nil
	}

	e.todos = append(e.todos[:di], e.todos[di+1:]...)
	ti, _ = e.findLocked(targetID)
	rest := append([]*todo.Todo{}, e.todos[ti:]...)
	e.todos = append(append(e.todos[:ti:ti], dragged), rest...)

	return e.persistTodosLocked()
}

// BulkToggle - групповой чекбокс: если завершены не все, завершить всех,
// иначе снять завершённость со всех
func (e *Engine) BulkToggle(ctx context.Context, ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	group := []*todo.Todo{}
	for _, id := range ids {
		if _, t := e.findLocked(id); t != nil {
			group = append(group, t)
		}
	}
	if len(group) == 0 {
		return nil
	}

	shouldComplete := false
	for _, t := range group {
		if !t.Completed {
			shouldComplete = true
			break
		}
	}
	for _, t := range group {
		t.Completed = shouldComplete
	}

	if err := e.persistTodosLocked(); err != nil {
		return err
	}
	for _, t := range group {
		if err := e.mirrorSetLocked(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTodo - атомарное детальное редактирование через опции
func (e *Engine) UpdateTodo(ctx context.Context, id string, options ...todo.TodoOption) (*todo.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, t := e.findLocked(id)
	if t == nil {
		return nil, NewNotFound("задача", id)
	}

	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}

	if err := e.persistTodosLocked(); err != nil {
		return nil, err
	}
	return t.Clone(), e.mirrorSetLocked(ctx, t)
}

// ============================================================
//  SUBTASKS
// ============================================================

// AddSubtask добавляет пустую подзадачу (текст заполняется на месте)
func (e *Engine) AddSubtask(ctx context.Context, id string) (*todo.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, t := e.findLocked(id)
	if t == nil {
		return nil, NewNotFound("задача", id)
	}
	t.Subtasks = append(t.Subtasks, todo.Subtask{ID: todo.NewID()})

	if err := e.persistTodosLocked(); err != nil {
		return nil, err
	}
	return t.Clone(), e.mirrorSetLocked(ctx, t)
}

// EditSubtask фиксирует текст подзадачи; пустой текст оставляет прежний
func (e *Engine) EditSubtask(ctx context.Context, id string, index int, text string) (*todo.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, t := e.findLocked(id)
	if t == nil {
		return nil, NewNotFound("задача", id)
	}
	if index < 0 || index >= len(t.Subtasks) {
		return nil, NewNotFound("подзадача", fmt.Sprintf("%s[%d]", id, index))
	}
	if text != "" {
		t.Subtasks[index].Text = text
	}

	if err := e.persistTodosLocked(); err != nil {
		return nil, err
	}
	return t.Clone(), e.mirrorSetLocked(ctx, t)
}

func (e *Engine) ToggleSubtask(ctx context.Context, id string, index int) (*todo.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, t := e.findLocked(id)
	if t == nil {
		return nil, NewNotFound("задача", id)
	}
	if index < 0 || index >= len(t.Subtasks) {
		return nil, NewNotFound("подзадача", fmt.Sprintf("%s[%d]", id, index))
	}
	t.Subtasks[index].Completed = !t.Subtasks[index].Completed

	if err := e.persistTodosLocked(); err != nil {
		return nil, err
	}
	return t.Clone(), e.mirrorSetLocked(ctx, t)
}

func (e *Engine) DeleteSubtask(ctx context.Context, id string, index int) (*todo.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, t := e.findLocked(id)
	if t == nil {
		return nil, NewNotFound("задача", id)
	}
	if index < 0 || index >= len(t.Subtasks) {
		return nil, NewNotFound("подзадача", fmt.Sprintf("%s[%d]", id, index))
	}
	t.Subtasks = append(t.Subtasks[:index], t.Subtasks[index+1:]...)

	if err := e.persistTodosLocked(); err != nil {
		return nil, err
	}
	return t.Clone(), e.mirrorSetLocked(ctx, t)
}
