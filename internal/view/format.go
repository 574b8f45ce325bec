package view

import (
	"fmt"
	"time"

	"ultimateTodo/internal/models/todo"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// FormatRelativeDate: Today/Tomorrow/Yesterday, иначе "Jun 1"
func FormatRelativeDate(date string, now time.Time) string {
	if date == "" {
		return ""
	}
	if date == todo.ISODate(now) {
		return "Today"
	}
	if date == todo.ISODate(now.AddDate(0, 0, 1)) {
		return "Tomorrow"
	}
	if date == todo.ISODate(now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	d, err := time.Parse(todo.DateLayout, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s %d", monthNames[d.Month()-1][:3], d.Day())
}

// GroupLabel - заголовок дата-группы: "Today — Sat, Jun 1, 2024",
// для пустой даты "No Date"
func GroupLabel(date string, now time.Time) string {
	if date == "" {
		return "No Date"
	}
	d, err := time.Parse(todo.DateLayout, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s — %s, %s %d, %d",
		FormatRelativeDate(date, now),
		dayNames[int(d.Weekday())],
		monthNames[d.Month()-1][:3],
		d.Day(),
		d.Year(),
	)
}
