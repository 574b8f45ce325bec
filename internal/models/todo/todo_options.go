package todo

// TodoOption - функция применения одного поля при детальном редактировании.
// Опция сама решает, принимать ли значение: пустой заголовок и пустая дата
// оставляют прежнее значение, остальные поля принимаются как есть.
type TodoOption func(*Todo)

func WithText(text string) TodoOption {
	if text == "" {
		return nil
	}
	return func(t *Todo) {
		t.Text = text
	}
}

func WithNotes(notes string) TodoOption {
	return func(t *Todo) {
		t.Notes = notes
	}
}

func WithDate(date string) TodoOption {
	if date == "" {
		return nil
	}
	return func(t *Todo) {
		t.Date = date
	}
}

func WithPriority(priority int) TodoOption {
	if priority < PriorityUrgent || priority > PriorityLow {
		return nil
	}
	return func(t *Todo) {
		t.Priority = priority
	}
}

func WithProject(project string) TodoOption {
	if project == "" {
		return nil
	}
	return func(t *Todo) {
		t.Project = project
	}
}

func WithRecurring(r Recurrence) TodoOption {
	return func(t *Todo) {
		t.Recurring = r
	}
}

func WithTags(tags []string) TodoOption {
	return func(t *Todo) {
		if tags == nil {
			tags = []string{}
		}
		t.Tags = tags
	}
}

func WithStarred(starred bool) TodoOption {
	return func(t *Todo) {
		t.Starred = starred
	}
}
