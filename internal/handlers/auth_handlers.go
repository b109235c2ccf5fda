package handlers

import (
	"net/http"

	"taskBoard/internal/handlers/dto"
	"taskBoard/internal/logger"
	"taskBoard/internal/models/user"
	"taskBoard/internal/service"

	"go.uber.org/zap"
)

type AuthHandler struct {
	UserService UserService
	Tokens      TokenIssuer
}

func NewAuthHandler(userService UserService, tokens TokenIssuer) AuthHandler {
	return AuthHandler{UserService: userService, Tokens: tokens}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request service.RegisterInput
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := h.UserService.Register(r.Context(), request)
	if err != nil {
		handleServiceError(w, r, err, "register")
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован", zap.String("user_id", u.ID.String()))
	h.respondWithToken(w, r, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request dto.LoginRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := h.UserService.Authenticate(r.Context(), request.Username, request.Password)
	if err != nil {
		handleServiceError(w, r, err, "login")
		return
	}
	h.respondWithToken(w, r, http.StatusOK, u)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, code int, u *user.User) {
	token, expiresAt, err := h.Tokens.Issue(u)
	if err != nil {
		handleServiceError(w, r, err, "issue_token")
		return
	}
	responseWithJSON(w, code, toPayload("auth", dto.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      u,
	}))
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	u, err := h.UserService.GetProfile(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err, "get_profile")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("user", u))
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var request service.ProfileInput
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := h.UserService.UpdateProfile(r.Context(), actor, request)
	if err != nil {
		handleServiceError(w, r, err, "update_profile")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("user", u))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var request service.PasswordChange
	if !decodeJSON(w, r, &request) {
		return
	}

	if err := h.UserService.ChangePassword(r.Context(), actor, request); err != nil {
		handleServiceError(w, r, err, "change_password")
		return
	}
	responseNoContent(w)
}
