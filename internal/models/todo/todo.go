package todo

import (
	"time"

	"github.com/google/uuid"
)

// Todo хранится в том же JSON-виде, что и в локальных файлах,
// и в удалённом документе — одна форма на все слои.
type Todo struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Date      string     `json:"date"` // ISO YYYY-MM-DD, пустая строка = без даты
	Priority  int        `json:"priority"`
	Project   string     `json:"project"`
	Tags      []string   `json:"tags"`
	Subtasks  []Subtask  `json:"subtasks"`
	Notes     string     `json:"notes"`
	Starred   bool       `json:"starred"`
	Recurring Recurrence `json:"recurring"`
	CreatedAt int64      `json:"createdAt"` // epoch millis
}

type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Recurrence string

const RecurrenceNone Recurrence = ""
const RecurrenceDaily Recurrence = "daily"
const RecurrenceWeekly Recurrence = "weekly"
const RecurrenceMonthly Recurrence = "monthly"

const PriorityUrgent = 1
const PriorityHigh = 2
const PriorityMedium = 3
const PriorityLow = 4

// InboxID - зарезервированный проект по умолчанию, его нельзя удалить
const InboxID = "inbox"

const DateLayout = "2006-01-02"

var PriorityLabels = map[int]string{
	1: "Urgent",
	2: "High",
	3: "Medium",
	4: "Low",
}

var ColorPalette = []string{
	"#7C3AED", "#EC4899", "#F59E0B", "#10B981", "#3B82F6",
	"#EF4444", "#8B5CF6", "#14B8A6", "#F97316", "#6366F1",
	"#84CC16", "#E11D48",
}

func DefaultProjects() []Project {
	return []Project{
		{ID: "inbox", Name: "Inbox", Color: "#7C3AED"},
		{ID: "work", Name: "Work", Color: "#3B82F6"},
		{ID: "personal", Name: "Personal", Color: "#10B981"},
	}
}

func DefaultTags() []Tag {
	return []Tag{
		{ID: "tag-urgent", Name: "Urgent", Color: "#EF4444"},
		{ID: "tag-feature", Name: "Feature", Color: "#3B82F6"},
		{ID: "tag-bug", Name: "Bug", Color: "#F97316"},
	}
}

func NewID() string {
	return uuid.New().String()
}

func ISODate(t time.Time) string {
	return t.Format(DateLayout)
}

// New собирает задачу со всеми значениями по умолчанию
func New(text, date string, priority int, project string, starred bool, now time.Time) *Todo {
	if date == "" {
		date = ISODate(now)
	}
	if priority < PriorityUrgent || priority > PriorityLow {
		priority = PriorityLow
	}
	if project == "" {
		project = InboxID
	}
	return &Todo{
		ID:        NewID(),
		Text:      text,
		Completed: false,
		Date:      date,
		Priority:  priority,
		Project:   project,
		Tags:      []string{},
		Subtasks:  []Subtask{},
		Notes:     "",
		Starred:   starred,
		Recurring: RecurrenceNone,
		CreatedAt: now.UnixMilli(),
	}
}

// Normalize - миграционный проход: дозаполняет отсутствующие поля у старых
// записей. Возвращает true если запись была изменена. После Normalize ни один
// слой выше не обязан перепроверять наличие полей.
func (t *Todo) Normalize(today string, projectExists func(string) bool) bool {
	changed := false
	if t.Date == "" {
		t.Date = today
		changed = true
	}
	if t.Priority < PriorityUrgent || t.Priority > PriorityLow {
		t.Priority = PriorityLow
		changed = true
	}
	if t.Project == "" || (projectExists != nil && !projectExists(t.Project)) {
		t.Project = InboxID
		changed = true
	}
	if t.Tags == nil {
		t.Tags = []string{}
		changed = true
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
		changed = true
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().UnixMilli()
		changed = true
	}
	return changed
}

// Clone - глубокая копия (tags и subtasks копируются, не разделяются)
func (t *Todo) Clone() *Todo {
	c := *t
	c.Tags = append([]string{}, t.Tags...)
	c.Subtasks = append([]Subtask{}, t.Subtasks...)
	return &c
}

// NextOccurrence считает дату следующего повторения. Арифметика месяцев
// отдана time.AddDate: 31 января + месяц нормализуется календарём
// (поведение зафиксировано как implementation-defined).
func NextOccurrence(date string, r Recurrence) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	switch r {
	case RecurrenceDaily:
		d = d.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		d = d.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		d = d.AddDate(0, 1, 0)
	}
	return ISODate(d), nil
}
