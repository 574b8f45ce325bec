// Чистое вычисление видимого набора задач: фильтр представления, поиск,
// сортировка, группировка по датам. Никакого состояния - всё выводится из
// (задачи, представление, поиск, сортировка, сегодняшняя дата).
package view

import (
	"sort"
	"strings"
	"time"

	"ultimateTodo/internal/models/todo"
)

type View string

const (
	ViewInbox     View = "inbox"
	ViewToday     View = "today"
	ViewUpcoming  View = "upcoming"
	ViewCompleted View = "completed"
	ViewOverdue   View = "overdue"
)

// Представления конкретного проекта и тега кодируются префиксами,
// как в ключах навигации: "project-<id>" и "tag-<id>".
const ProjectPrefix = "project-"
const TagPrefix = "tag-"

type Sort string

const (
	SortDate     Sort = "date"
	SortPriority Sort = "priority"
	SortAlpha    Sort = "alpha"
	SortCreated  Sort = "created"
)

func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortPriority, SortAlpha, SortCreated:
		return Sort(s)
	default:
		return SortDate
	}
}

// Group - одна дата-группа в date-сортировке. Key совпадает с ключом
// collapse-состояния ("date-<дата>", пустая дата даёт "date-").
type Group struct {
	Date      string
	Key       string
	Todos     []*todo.Todo
	Done      int
	Total     int
	AllDone   bool
	NoneDone  bool
	Collapsed bool
}

func IsToday(date, today string) bool {
	return date != "" && date == today
}

func IsOverdue(date, today string) bool {
	return date != "" && date != today && date < today
}

// IsUpcoming: дата в пределах [сегодня, сегодня+7] включительно
func IsUpcoming(date, today string) bool {
	if date == "" {
		return false
	}
	limit, err := time.Parse(todo.DateLayout, today)
	if err != nil {
		return false
	}
	end := todo.ISODate(limit.AddDate(0, 0, 7))
	return date >= today && date <= end
}

func matchesView(t *todo.Todo, v View, today string) bool {
	switch v {
	case ViewInbox:
		return t.Project == todo.InboxID
	case ViewToday:
		return IsToday(t.Date, today) && !t.Completed
	case ViewUpcoming:
		return IsUpcoming(t.Date, today) && !t.Completed
	case ViewCompleted:
		return t.Completed
	case ViewOverdue:
		return IsOverdue(t.Date, today) && !t.Completed
	}
	s := string(v)
	if pid, ok := strings.CutPrefix(s, ProjectPrefix); ok {
		return t.Project == pid
	}
	if tid, ok := strings.CutPrefix(s, TagPrefix); ok {
		for _, id := range t.Tags {
			if id == tid {
				return true
			}
		}
		return false
	}
	return false
}

func matchesQuery(t *todo.Todo, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(t.Text), q) ||
		strings.Contains(strings.ToLower(t.Notes), q)
}

// Visible - фильтр представления, затем поиск, затем сортировка.
// Исходный срез не меняется.
func Visible(todos []*todo.Todo, v View, query string, s Sort, today string) []*todo.Todo {
	list := make([]*todo.Todo, 0, len(todos))
	for _, t := range todos {
		if matchesView(t, v, today) && matchesQuery(t, query) {
			list = append(list, t)
		}
	}
	SortTodos(list, s)
	return list
}

// SortTodos сортирует на месте. Режим date: сначала помеченные звездой,
// затем дата по убыванию, приоритет по возрастанию как tie-break.
func SortTodos(list []*todo.Todo, s Sort) {
	switch s {
	case SortPriority:
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Priority != list[j].Priority {
				return list[i].Priority < list[j].Priority
			}
			return list[i].Date < list[j].Date
		})
	case SortAlpha:
		sort.SliceStable(list, func(i, j int) bool {
			return caseAwareLess(list[i].Text, list[j].Text)
		})
	case SortCreated:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt > list[j].CreatedAt
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if a.Starred != b.Starred {
				return a.Starred
			}
			if a.Date != b.Date {
				return a.Date > b.Date
			}
			return a.Priority < b.Priority
		})
	}
}

// caseAwareLess - лексический порядок без учёта регистра (Unicode-нижний
// регистр), при равенстве - порядок кодовых точек, то есть заглавная форма
// идёт первой. Локальных весов сопоставления (ё и т.п.) нет.
func caseAwareLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// GroupKey - ключ collapse-состояния для дата-группы
func GroupKey(date string) string {
	return "date-" + date
}

// GroupByDate режет уже отсортированный список на группы по значению даты.
// Группы идут в убывающем лексическом порядке ключа: отсутствующая дата -
// пустая строка - оказывается последней сама собой, без спец-случая.
func GroupByDate(list []*todo.Todo, collapsed map[string]bool) []Group {
	byDate := make(map[string][]*todo.Todo)
	dates := []string{}
	for _, t := range list {
		if _, ok := byDate[t.Date]; !ok {
			dates = append(dates, t.Date)
		}
		byDate[t.Date] = append(byDate[t.Date], t)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	groups := make([]Group, 0, len(dates))
	for _, d := range dates {
		items := byDate[d]
		done := 0
		for _, t := range items {
			if t.Completed {
				done++
			}
		}
		key := GroupKey(d)
		groups = append(groups, Group{
			Date:      d,
			Key:       key,
			Todos:     items,
			Done:      done,
			Total:     len(items),
			AllDone:   len(items) > 0 && done == len(items),
			NoneDone:  done == 0,
			Collapsed: collapsed[key],
		})
	}
	return groups
}

// Badges - счётчики незавершённых задач по встроенным представлениям
// (для боковой панели)
type Badges struct {
	Inbox     int `json:"inbox"`
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

func CountBadges(todos []*todo.Todo, today string) Badges {
	var b Badges
	for _, t := range todos {
		if t.Project == todo.InboxID && !t.Completed {
			b.Inbox++
		}
		if IsToday(t.Date, today) && !t.Completed {
			b.Today++
		}
		if IsUpcoming(t.Date, today) && !t.Completed {
			b.Upcoming++
		}
		if t.Completed {
			b.Completed++
		}
		if IsOverdue(t.Date, today) && !t.Completed {
			b.Overdue++
		}
	}
	return b
}

// ProgressPercent - доля завершённых задач от всех, 0..100
func ProgressPercent(todos []*todo.Todo) int {
	if len(todos) == 0 {
		return 0
	}
	done := 0
	for _, t := range todos {
		if t.Completed {
			done++
		}
	}
	return int(float64(done)/float64(len(todos))*100 + 0.5)
}

// Title - заголовок представления для шапки
func Title(v View, projects []todo.Project, tags []todo.Tag) string {
	switch v {
	case ViewInbox:
		return "Inbox"
	case ViewToday:
		return "Today"
	case ViewUpcoming:
		return "Upcoming"
	case ViewCompleted:
		return "Completed"
	case ViewOverdue:
		return "Overdue"
	}
	s := string(v)
	if pid, ok := strings.CutPrefix(s, ProjectPrefix); ok {
		for _, p := range projects {
			if p.ID == pid {
				return p.Name
			}
		}
		return "Project"
	}
	if tid, ok := strings.CutPrefix(s, TagPrefix); ok {
		for _, t := range tags {
			if t.ID == tid {
				return "#" + t.Name
			}
		}
		return "Tag"
	}
	return "Inbox"
}
