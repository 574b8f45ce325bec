package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"ultimateTodo/internal/auth"
	"ultimateTodo/internal/config"
	"ultimateTodo/internal/handlers"
	"ultimateTodo/internal/logger"
	"ultimateTodo/internal/middleware"
	"ultimateTodo/internal/repository/todo/localstore"
	"ultimateTodo/internal/repository/todo/postgres"
	"ultimateTodo/internal/service"
	todosync "ultimateTodo/internal/sync"
	"ultimateTodo/internal/worker"
)

const RepositoryRemote = "remote"

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	engine    *service.Engine
	pomodoro  *worker.PomodoroWorker
	sessions  *auth.Service
	shutdowns []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {

	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	store, err := localstore.New(a.config.Storage.Dir)
	if err != nil {
		return fmt.Errorf("инициализация локального хранилища: %w", err)
	}

	a.engine = service.NewEngine(store, a.config.Undo.Window)
	a.engine.Load()

	a.pomodoro = worker.NewPomodoroWorker(store)
	workerCtx, stopWorker := context.WithCancel(ctx)
	go a.pomodoro.Start(workerCtx)
	a.shutdowns = append(a.shutdowns, stopWorker)

	var authHandler *handlers.AuthHandler
	if a.config.Repository.Type == RepositoryRemote {
		remote, err := postgres.New(ctx, postgres.Config{
			URL:            a.config.Database.URL,
			MaxConnections: a.config.Database.MaxConnections,
			MinConnections: a.config.Database.MinConnections,
			IdleTimeout:    a.config.Database.IdleTimeout,
			PollInterval:   a.config.Database.PollInterval,
		})
		if err != nil {
			return fmt.Errorf("подключение к базе: %w", err)
		}
		a.shutdowns = append(a.shutdowns, remote.Close)

		if err := remote.Migrate(a.config.Database.URL); err != nil {
			return fmt.Errorf("миграция базы: %w", err)
		}

		a.sessions = auth.NewService(remote)
		adapter := todosync.NewAdapter(remote, a.engine)
		unbind := adapter.Bind(ctx, a.sessions)
		a.shutdowns = append(a.shutdowns, func() {
			unbind()
			adapter.Detach()
		})

		h := handlers.NewAuthHandler(a.sessions)
		authHandler = &h
	}

	a.router = a.buildRouter(authHandler)
	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router,
	}

	return nil
}

func (a *App) buildRouter(authHandler *handlers.AuthHandler) *chi.Mux {
	todoHandler := handlers.NewTodoHandler(a.engine)
	pomodoroHandler := handlers.NewPomodoroHandler(a.pomodoro)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(a.config.RateLimit.RPM))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/todos", func(r chi.Router) {
		r.Get("/", todoHandler.GetView) // GET /todos?view=&q=
		r.Post("/", todoHandler.PostTodo)

		r.Post("/undo", todoHandler.Undo)
		r.Post("/reorder", todoHandler.Reorder)
		r.Post("/bulk-toggle", todoHandler.BulkToggle)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", todoHandler.GetTodoByID)
			r.Put("/", todoHandler.UpdateTodoByID)
			r.Delete("/", todoHandler.DeleteTodoByID)

			r.Post("/toggle", todoHandler.ToggleComplete)
			r.Post("/star", todoHandler.ToggleStar)

			r.Route("/subtasks", func(r chi.Router) {
				r.Post("/", todoHandler.AddSubtask)
				r.Put("/{index}", todoHandler.EditSubtask)
				r.Post("/{index}/toggle", todoHandler.ToggleSubtask)
				r.Delete("/{index}", todoHandler.DeleteSubtask)
			})
		})
	})

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", todoHandler.GetProjects)
		r.Post("/", todoHandler.PostProject)
		r.Delete("/{id}", todoHandler.DeleteProject)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", todoHandler.GetTags)
		r.Post("/", todoHandler.PostTag)
		r.Delete("/{id}", todoHandler.DeleteTag)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", todoHandler.GetSettings)
		r.Put("/theme", todoHandler.PutTheme)
		r.Put("/sort", todoHandler.PutSort)
		r.Put("/collapse", todoHandler.PutCollapse)
	})

	r.Route("/pomodoro", func(r chi.Router) {
		r.Get("/", pomodoroHandler.GetState)
		r.Post("/toggle", pomodoroHandler.Toggle)
		r.Post("/reset", pomodoroHandler.Reset)
		r.Put("/mode", pomodoroHandler.SetMode)
	})

	if authHandler != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.Session)
		})
	}

	r.Get("/export", todoHandler.Export)
	r.Get("/stats", todoHandler.GetStats)
	r.Get("/health", todoHandler.HealthCheck)

	return r
}

// Run блокируется до остановки контекста, затем гасит сервер и выполняет
// накопленные shutdown-функции
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("Сервер запущен: " + a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("ошибка сервера: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", err)
	}

	a.Shutdown()
	return nil
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
