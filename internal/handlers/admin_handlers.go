package handlers

import (
	"net/http"

	"taskBoard/internal/service"
)

type AdminHandler struct {
	AdminService AdminService
}

func NewAdminHandler(adminService AdminService) AdminHandler {
	return AdminHandler{AdminService: adminService}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	stats, err := h.AdminService.Stats(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err, "admin_stats")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("stats", stats))
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := h.AdminService.ListUsers(r.Context(), actor, page, limit)
	if err != nil {
		handleServiceError(w, r, err, "admin_list_users")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("users", users))
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var request service.AdminUserInput
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := h.AdminService.CreateUser(r.Context(), actor, request)
	if err != nil {
		handleServiceError(w, r, err, "admin_create_user")
		return
	}
	responseWithJSON(w, http.StatusCreated, toPayload("user", u))
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request service.AdminUserUpdate
	if !decodeJSON(w, r, &request) {
		return
	}

	u, err := h.AdminService.UpdateUser(r.Context(), actor, id, request)
	if err != nil {
		handleServiceError(w, r, err, "admin_update_user")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("user", u))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.AdminService.DeleteUser(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, err, "admin_delete_user")
		return
	}
	responseNoContent(w)
}
