// Сводная статистика по коллекции задач - чистые агрегаты без состояния
package stats

import (
	"time"

	"ultimateTodo/internal/models/todo"
	"ultimateTodo/internal/view"
)

type PriorityRow struct {
	Priority int    `json:"priority"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
}

type HeatmapDay struct {
	Date      string `json:"date"`
	Day       string `json:"day"`
	Completed int    `json:"completed"`
}

type Summary struct {
	Total      int           `json:"total"`
	Completed  int           `json:"completed"`
	Active     int           `json:"active"`
	Overdue    int           `json:"overdue"`
	Rate       int           `json:"rate"` // процент завершённых
	Priorities []PriorityRow `json:"priorities"`
	Heatmap    []HeatmapDay  `json:"heatmap"` // последние 7 дней, старые впереди
}

var dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func Collect(todos []*todo.Todo, now time.Time) Summary {
	today := todo.ISODate(now)

	s := Summary{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			s.Completed++
		} else if view.IsOverdue(t.Date, today) {
			s.Overdue++
		}
	}
	s.Active = s.Total - s.Completed
	if s.Total > 0 {
		s.Rate = int(float64(s.Completed)/float64(s.Total)*100 + 0.5)
	}

	for p := todo.PriorityUrgent; p <= todo.PriorityLow; p++ {
		count := 0
		for _, t := range todos {
			if t.Priority == p {
				count++
			}
		}
		s.Priorities = append(s.Priorities, PriorityRow{
			Priority: p,
			Label:    todo.PriorityLabels[p],
			Count:    count,
		})
	}

	for i := 6; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		ds := todo.ISODate(d)
		count := 0
		for _, t := range todos {
			if t.Completed && t.Date == ds {
				count++
			}
		}
		s.Heatmap = append(s.Heatmap, HeatmapDay{
			Date:      ds,
			Day:       dayNames[int(d.Weekday())],
			Completed: count,
		})
	}

	return s
}
