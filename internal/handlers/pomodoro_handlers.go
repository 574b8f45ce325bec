package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"ultimateTodo/internal/handlers/dto"
	"ultimateTodo/internal/logger"
)

type PomodoroHandler struct {
	Pomodoro PomodoroService
}

func NewPomodoroHandler(pomodoro PomodoroService) PomodoroHandler {
	return PomodoroHandler{
		Pomodoro: pomodoro,
	}
}

func (s *PomodoroHandler) GetState(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	responseWithBody(w, http.StatusOK, s.Pomodoro.State())
}

func (s *PomodoroHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	state := s.Pomodoro.Toggle()

	logger.Info("HTTP_OUT: Таймер переключен", zap.Bool("running", state.Running))

	responseWithBody(w, http.StatusOK, state)
}

func (s *PomodoroHandler) Reset(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	state := s.Pomodoro.Reset()

	logger.Info("HTTP_OUT: Таймер сброшен", zap.String("display", state.Display))

	responseWithBody(w, http.StatusOK, state)
}

func (s *PomodoroHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.PomodoroModeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса:"+err.Error())
		return
	}

	state, err := s.Pomodoro.SetMode(request.Minutes)
	if err != nil {
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("field", "minutes"),
			zap.Int("received", request.Minutes),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Режим таймера изменён", zap.Int("minutes", request.Minutes))

	responseWithBody(w, http.StatusOK, state)
}
