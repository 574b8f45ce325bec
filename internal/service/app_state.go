package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ultimateTodo/internal/logger"
	"ultimateTodo/internal/models/todo"
	"ultimateTodo/internal/stats"
	"ultimateTodo/internal/view"
)

// ============================================================
//  PROJECTS & TAGS
// ============================================================

func (e *Engine) AddProject(ctx context.Context, name, color string) (todo.Project, error) {
	if name == "" {
		return todo.Project{}, NewValidationError("name", "пустое имя проекта")
	}
	if color == "" {
		color = todo.ColorPalette[0]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := todo.Project{ID: "proj-" + todo.NewID(), Name: name, Color: color}
	e.projects = append(e.projects, p)

	logger.Info("Service: Проект создан", zap.String("project_id", p.ID))

	if err := e.store.SaveProjects(e.projects); err != nil {
		logger.Error("Service: Не удалось сохранить проекты", err)
		return todo.Project{}, fmt.Errorf("сохранение проектов: %w", err)
	}
	return p, e.mirrorUserDataLocked(ctx, map[string]any{"projects": e.projects})
}

// DeleteProject удаляет проект. Ссылки задач на него не переназначаются -
// висячая ссылка просто пропускается при отображении (зафиксированная
// политика). Inbox удалить нельзя.
func (e *Engine) DeleteProject(ctx context.Context, id string) error {
	if id == todo.InboxID {
		return NewReservedError("проект", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	found := false
	kept := e.projects[:0]
	for _, p := range e.projects {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return NewNotFound("проект", id)
	}
	e.projects = kept

	if err := e.store.SaveProjects(e.projects); err != nil {
		logger.Error("Service: Не удалось сохранить проекты", err)
		return fmt.Errorf("сохранение проектов: %w", err)
	}
	return e.mirrorUserDataLocked(ctx, map[string]any{"projects": e.projects})
}

func (e *Engine) AddTag(ctx context.Context, name, color string) (todo.Tag, error) {
	if name == "" {
		return todo.Tag{}, NewValidationError("name", "пустое имя тега")
	}
	if color == "" {
		color = todo.ColorPalette[0]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t := todo.Tag{ID: "tag-" + todo.NewID(), Name: name, Color: color}
	e.tags = append(e.tags, t)

	logger.Info("Service: Тег создан", zap.String("tag_id", t.ID))

	if err := e.store.SaveTags(e.tags); err != nil {
		logger.Error("Service: Не удалось сохранить теги", err)
		return todo.Tag{}, fmt.Errorf("сохранение тегов: %w", err)
	}
	return t, e.mirrorUserDataLocked(ctx, map[string]any{"tags": e.tags})
}

func (e *Engine) DeleteTag(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	found := false
	kept := e.tags[:0]
	for _, t := range e.tags {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return NewNotFound("тег", id)
	}
	e.tags = kept

	if err := e.store.SaveTags(e.tags); err != nil {
		logger.Error("Service: Не удалось сохранить теги", err)
		return fmt.Errorf("сохранение тегов: %w", err)
	}
	return e.mirrorUserDataLocked(ctx, map[string]any{"tags": e.tags})
}

// ============================================================
//  SETTINGS
// ============================================================

func (e *Engine) SetSort(ctx context.Context, s string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sortMode = view.ParseSort(s)
	if err := e.store.SaveSort(string(e.sortMode)); err != nil {
		logger.Error("Service: Не удалось сохранить сортировку", err)
		return fmt.Errorf("сохранение сортировки: %w", err)
	}
	return e.mirrorSettingsLocked(ctx)
}

func (e *Engine) SetTheme(ctx context.Context, theme string) error {
	if theme != "dark" && theme != "light" {
		return NewValidationError("theme", "ожидается dark или light")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.theme = theme
	if err := e.store.SaveTheme(theme); err != nil {
		logger.Error("Service: Не удалось сохранить тему", err)
		return fmt.Errorf("сохранение темы: %w", err)
	}
	return e.mirrorSettingsLocked(ctx)
}

// ToggleCollapse переключает свёрнутость одной дата-группы
func (e *Engine) ToggleCollapse(ctx context.Context, key string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.collapsed[key] = !e.collapsed[key]
	state := e.collapsed[key]

	if err := e.store.SaveCollapsed(e.collapsed); err != nil {
		logger.Error("Service: Не удалось сохранить collapse-состояние", err)
		return state, fmt.Errorf("сохранение collapse-состояния: %w", err)
	}
	return state, e.mirrorSettingsLocked(ctx)
}

func (e *Engine) mirrorSettingsLocked(ctx context.Context) error {
	return e.mirrorUserDataLocked(ctx, map[string]any{
		"settings": todo.UserSettings{
			Theme:     e.theme,
			Sort:      string(e.sortMode),
			Collapsed: e.collapsed,
		},
	})
}

func (e *Engine) Settings() todo.UserSettings {
	e.mu.Lock()
	defer e.mu.Unlock()

	collapsed := make(map[string]bool, len(e.collapsed))
	for k, v := range e.collapsed {
		collapsed[k] = v
	}
	return todo.UserSettings{
		Theme:     e.theme,
		Sort:      string(e.sortMode),
		Collapsed: collapsed,
	}
}

// ============================================================
//  READ MODELS
// ============================================================

// ViewModel - то, что рисует слой представления: либо дата-группы
// (сортировка date), либо плоский список (остальные режимы)
type ViewModel struct {
	View     string
	Title    string
	Sort     view.Sort
	Groups   []view.Group // заполнено только при сортировке date
	Flat     []*todo.Todo // заполнено в остальных режимах
	Badges   view.Badges
	Progress int
}

// RenderView пересчитывает представление целиком - единственная точка
// синхронизации, без инкрементальных патчей
func (e *Engine) RenderView(v view.View, query string) ViewModel {
	e.mu.Lock()
	defer e.mu.Unlock()

	today := todo.ISODate(time.Now())
	snapshot := make([]*todo.Todo, len(e.todos))
	for i, t := range e.todos {
		snapshot[i] = t.Clone()
	}

	visible := view.Visible(snapshot, v, query, e.sortMode, today)

	vm := ViewModel{
		View:     string(v),
		Title:    view.Title(v, e.projects, e.tags),
		Sort:     e.sortMode,
		Badges:   view.CountBadges(snapshot, today),
		Progress: view.ProgressPercent(snapshot),
	}
	if e.sortMode == view.SortDate {
		vm.Groups = view.GroupByDate(visible, e.collapsed)
	} else {
		vm.Flat = visible
	}
	return vm
}

func (e *Engine) GetTodoByID(id string) (*todo.Todo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, t := e.findLocked(id)
	if t == nil {
		return nil, NewNotFound("задача", id)
	}
	return t.Clone(), nil
}

func (e *Engine) Projects() []todo.Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]todo.Project{}, e.projects...)
}

func (e *Engine) Tags() []todo.Tag {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]todo.Tag{}, e.tags...)
}

func (e *Engine) Todos() []*todo.Todo {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*todo.Todo, len(e.todos))
	for i, t := range e.todos {
		out[i] = t.Clone()
	}
	return out
}

func (e *Engine) Stats() stats.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return stats.Collect(e.todos, time.Now())
}

// ============================================================
//  EXPORT
// ============================================================

// ExportData - полный снимок для выгрузки в JSON-файл. Массивы идут
// байт-в-байт как в хранилище, импорт не предусмотрен.
type ExportData struct {
	Todos      []*todo.Todo   `json:"todos"`
	Projects   []todo.Project `json:"projects"`
	Tags       []todo.Tag     `json:"tags"`
	ExportedAt string         `json:"exportedAt"`
}

func (e *Engine) Export() ExportData {
	e.mu.Lock()
	defer e.mu.Unlock()

	todos := make([]*todo.Todo, len(e.todos))
	for i, t := range e.todos {
		todos[i] = t.Clone()
	}
	return ExportData{
		Todos:      todos,
		Projects:   append([]todo.Project{}, e.projects...),
		Tags:       append([]todo.Tag{}, e.tags...),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// ============================================================
//  ВХОДЯЩИЕ СНИМКИ ОТ SYNC-АДАПТЕРА
// ============================================================

// ReplaceTodos целиком заменяет локальный кэш задач входящим снимком
// удалённой коллекции. Слияния нет: ещё не отражённые локальные правки
// перезаписываются (принятый компромисс last-write-wins).
func (e *Engine) ReplaceTodos(snapshot []*todo.Todo) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.todos = snapshot
	if err := e.store.SaveTodos(e.todos); err != nil {
		logger.Error("Service: Не удалось сохранить входящий снимок", err)
	}
}

// ReplaceUserData заменяет справочники и настройки из входящего
// пользовательского документа
func (e *Engine) ReplaceUserData(data todo.UserData) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if data.Projects != nil {
		e.projects = data.Projects
		if err := e.store.SaveProjects(e.projects); err != nil {
			logger.Error("Service: Не удалось сохранить входящие проекты", err)
		}
	}
	if data.Tags != nil {
		e.tags = data.Tags
		if err := e.store.SaveTags(e.tags); err != nil {
			logger.Error("Service: Не удалось сохранить входящие теги", err)
		}
	}
	if data.Settings.Collapsed != nil {
		e.collapsed = data.Settings.Collapsed
		if err := e.store.SaveCollapsed(e.collapsed); err != nil {
			logger.Error("Service: Не удалось сохранить входящее collapse-состояние", err)
		}
	}
	if data.Settings.Theme != "" {
		e.theme = data.Settings.Theme
		if err := e.store.SaveTheme(e.theme); err != nil {
			logger.Error("Service: Не удалось сохранить входящую тему", err)
		}
	}
	if data.Settings.Sort != "" {
		e.sortMode = view.ParseSort(data.Settings.Sort)
		if err := e.store.SaveSort(string(e.sortMode)); err != nil {
			logger.Error("Service: Не удалось сохранить входящую сортировку", err)
		}
	}
}
