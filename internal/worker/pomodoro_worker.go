package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ultimateTodo/internal/logger"
)

// Режимы таймера в минутах
const (
	ModeFocus      = 25
	ModeShortBreak = 5
	ModeLongBreak  = 15
)

// SessionStore - персистентный счётчик завершённых сессий
type SessionStore interface {
	LoadPomodoroSessions() int
	SavePomodoroSessions(n int) error
}

type PomodoroState struct {
	Minutes  int    `json:"minutes"`
	Seconds  int    `json:"seconds"`
	Running  bool   `json:"running"`
	Mode     int    `json:"mode"`
	Sessions int    `json:"sessions"`
	Display  string `json:"display"`
}

type PomodoroWorker struct {
	store SessionStore

	mu       sync.Mutex
	minutes  int
	seconds  int
	running  bool
	mode     int
	sessions int
}

func NewPomodoroWorker(store SessionStore) *PomodoroWorker {
	return &PomodoroWorker{
		store:    store,
		minutes:  ModeFocus,
		mode:     ModeFocus,
		sessions: store.LoadPomodoroSessions(),
	}
}

// Start крутит секундный тик до остановки контекста
func (w *PomodoroWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	logger.Info("Worker: Таймер помодоро запущен", zap.Int("sessions", w.Sessions()))

	for {
		select {
		case <-ticker.C:
			w.Tick()
		case <-ctx.Done():
			logger.Info("Worker: Таймер помодоро останавливается")
			return
		}
	}
}

// Tick продвигает обратный отсчёт на одну секунду
func (w *PomodoroWorker) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	if w.seconds == 0 {
		if w.minutes == 0 {
			w.completeLocked()
			return
		}
		w.minutes--
		w.seconds = 59
		return
	}
	w.seconds--
}

// completeLocked фиксирует завершённую сессию и возвращает таймер
// к рабочему отрезку
func (w *PomodoroWorker) completeLocked() {
	w.running = false
	w.sessions++
	if err := w.store.SavePomodoroSessions(w.sessions); err != nil {
		logger.Warn("Worker: Ошибка сохранения счётчика сессий", zap.Error(err))
	}
	logger.Info("Worker: Сессия помодоро завершена", zap.Int("sessions", w.sessions))
	w.minutes = ModeFocus
	w.seconds = 0
}

// Toggle переключает запущен/пауза, возвращает состояние после переключения
func (w *PomodoroWorker) Toggle() PomodoroState {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.running = !w.running
	return w.stateLocked()
}

// Reset останавливает таймер и возвращает его к длительности активного режима
func (w *PomodoroWorker) Reset() PomodoroState {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.running = false
	w.minutes = w.mode
	w.seconds = 0
	return w.stateLocked()
}

// SetMode выбирает длительность отрезка; таймер при этом останавливается
func (w *PomodoroWorker) SetMode(minutes int) (PomodoroState, error) {
	if minutes != ModeFocus && minutes != ModeShortBreak && minutes != ModeLongBreak {
		return PomodoroState{}, fmt.Errorf("недопустимый режим: %d", minutes)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.running = false
	w.mode = minutes
	w.minutes = minutes
	w.seconds = 0
	return w.stateLocked(), nil
}

func (w *PomodoroWorker) State() PomodoroState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *PomodoroWorker) Sessions() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessions
}

func (w *PomodoroWorker) stateLocked() PomodoroState {
	return PomodoroState{
		Minutes:  w.minutes,
		Seconds:  w.seconds,
		Running:  w.running,
		Mode:     w.mode,
		Sessions: w.sessions,
		Display:  fmt.Sprintf("%02d:%02d", w.minutes, w.seconds),
	}
}
