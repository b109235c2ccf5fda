package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"taskBoard/internal/logger"
	"taskBoard/internal/middleware"
	"taskBoard/internal/models/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeJSON проверяет Content-Type и читает тело; при ошибке сам отвечает клиенту
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return false
	}

	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить id: "+err.Error())
		return uuid.Nil, false
	}

	if id == uuid.Nil {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("error", "nil id"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "id не может быть пустым")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt читает необязательный целый параметр; отсутствие даёт 0
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("параметр " + name + " должен быть числом")
	}
	return v, nil
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.New("параметр " + name + " должен быть uuid")
	}
	return &id, nil
}

func requireActor(w http.ResponseWriter, r *http.Request) (user.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "требуется авторизация")
	}
	return actor, ok
}
