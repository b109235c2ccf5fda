package handlers

import (
	"net/http"

	"taskBoard/internal/handlers/dto"
	"taskBoard/internal/logger"
	"taskBoard/internal/models/board"
	"taskBoard/internal/service"

	"go.uber.org/zap"
)

type BoardHandler struct {
	BoardService BoardService
}

func NewBoardHandler(boardService BoardService) BoardHandler {
	return BoardHandler{BoardService: boardService}
}

// ListBoards: GET /boards?filter=all|owned|shared|active&search=
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	kind := board.ListKind(r.URL.Query().Get("filter"))
	switch kind {
	case "":
		kind = board.ListAll
	case board.ListAll, board.ListOwned, board.ListShared, board.ListActive:
	default:
		responseWithError(w, http.StatusBadRequest, "неизвестный фильтр: "+string(kind))
		return
	}

	boards, err := h.BoardService.ListBoards(r.Context(), actor, kind, r.URL.Query().Get("search"))
	if err != nil {
		handleServiceError(w, r, err, "list_boards")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("boards", boards))
}

func (h *BoardHandler) PostBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var request dto.CreateBoardRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	b, err := h.BoardService.CreateBoard(r.Context(), actor, service.BoardInput{
		Name:        request.Name,
		Description: request.Description,
		OwnerID:     request.OwnerID,
		Members:     request.Members,
	})
	if err != nil {
		handleServiceError(w, r, err, "create_board")
		return
	}

	logger.Info("HTTP_OUT: Доска создана", zap.String("board_id", b.ID.String()))
	responseWithJSON(w, http.StatusCreated, toPayload("board", b))
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	b, err := h.BoardService.GetBoard(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err, "get_board")
		return
	}
	stats, err := h.BoardService.BoardStats(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err, "board_stats")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("board", b), toPayload("stats", stats))
}

func (h *BoardHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateBoardRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	b, err := h.BoardService.UpdateBoard(r.Context(), actor, id, service.BoardUpdate{
		Name:        request.Name,
		Description: request.Description,
	})
	if err != nil {
		handleServiceError(w, r, err, "update_board")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("board", b))
}

func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.BoardService.DeleteBoard(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, err, "delete_board")
		return
	}

	logger.Info("HTTP_OUT: Доска удалена", zap.String("board_id", id.String()))
	responseNoContent(w)
}

func (h *BoardHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *BoardHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *BoardHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	b, err := h.BoardService.SetBoardActive(r.Context(), actor, id, active)
	if err != nil {
		handleServiceError(w, r, err, "set_board_active")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("board", b))
}

func (h *BoardHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	grants, err := h.BoardService.ListAccess(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err, "list_access")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("access", grants))
}

func (h *BoardHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.GrantAccessRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	grant, err := h.BoardService.GrantAccess(r.Context(), actor, id, request.UserID,
		board.Perms{CanEdit: request.CanEdit, CanDelete: request.CanDelete})
	if err != nil {
		handleServiceError(w, r, err, "grant_access")
		return
	}
	responseWithJSON(w, http.StatusCreated, toPayload("access", grant))
}

func (h *BoardHandler) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateAccessRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	grant, err := h.BoardService.UpdateAccess(r.Context(), actor, id,
		board.Perms{CanEdit: request.CanEdit, CanDelete: request.CanDelete})
	if err != nil {
		handleServiceError(w, r, err, "update_access")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("access", grant))
}

func (h *BoardHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.BoardService.RevokeAccess(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, err, "revoke_access")
		return
	}
	responseNoContent(w)
}
