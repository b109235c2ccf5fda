package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskBoard/internal/auditlog"
	"taskBoard/internal/logger"
	"taskBoard/internal/models/user"
	"taskBoard/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenParser проверяет bearer-токен и возвращает его владельца
type TokenParser interface {
	Parse(raw string) (user.Actor, error)
}

// UserLookup отдаёт текущую запись пользователя из хранилища
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type actorKey struct{}

func WithActor(ctx context.Context, actor user.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (user.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(user.Actor)
	return actor, ok
}

// Provenance кладёт в контекст IP и User-Agent для журнала изменений.
// IP - только адрес соединения, X-Forwarded-For не читается.
func Provenance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auditlog.WithProvenance(r.Context(), auditlog.Provenance{
			IP:        getIp(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authenticate проверяет токен и собирает Actor из текущей записи пользователя в хранилище
func Authenticate(tokens TokenParser, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				unauthorized(w, r, "требуется токен авторизации")
				return
			}

			claimed, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				logger.Warn("HTTP: Неверный токен",
					zap.Error(err),
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("client_ip", r.RemoteAddr))
				unauthorized(w, r, "неверный или просроченный токен")
				return
			}

			u, err := users.GetUserByID(r.Context(), claimed.ID)
			if errors.Is(err, repository.ErrNotFound) {
				logger.Warn("HTTP: Токен удалённого пользователя",
					zap.String("user_id", claimed.ID.String()),
					zap.String("request_id", GetRequestID(r.Context())))
				unauthorized(w, r, "пользователь не найден")
				return
			}
			if err != nil {
				logger.Error("HTTP: Не удалось загрузить пользователя", err,
					zap.String("user_id", claimed.ID.String()),
					zap.String("request_id", GetRequestID(r.Context())))
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"error":      "внутренняя ошибка сервера",
					"request_id": GetRequestID(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), u.Actor())))
		})
	}
}

// RequireAdmin пропускает только администраторов; ставится после Authenticate
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			unauthorized(w, r, "требуется токен авторизации")
			return
		}
		if !actor.IsAdmin {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"error":      "ACCESS_DENIED",
				"message":    "требуются права администратора",
				"request_id": GetRequestID(r.Context()),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="taskboard"`)
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"error":      "UNAUTHORIZED",
		"message":    message,
		"request_id": GetRequestID(r.Context()),
	})
}
