package handlers

import (
	"net/http"
	"time"

	"taskBoard/internal/handlers/dto"
	"taskBoard/internal/logger"
	"taskBoard/internal/models/task"
	"taskBoard/internal/service"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	now         func() time.Time
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
		now:         time.Now,
	}
}

// ListTasks: GET /tasks?board_id=&status=&priority=&search=&sort=&page=&limit=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := service.TaskQuery{
		Status:   task.Status(q.Get("status")),
		Priority: task.Priority(q.Get("priority")),
		Search:   q.Get("search"),
		Sort:     task.SortField(q.Get("sort")),
	}

	var err error
	if query.BoardID, err = queryUUID(r, "board_id"); err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if query.Page, err = queryInt(r, "page"); err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := h.TaskService.ListTasks(r.Context(), actor, query)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(tasks, h.now())),
		toPayload("page", query.Page),
	)
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	t, err := h.TaskService.CreateTask(r.Context(), actor, request.BoardID, service.TaskInput{
		Title:                  request.Title,
		Description:            request.Description,
		DueDate:                request.DueDate,
		Priority:               request.Priority,
		Status:                 request.Status,
		Tags:                   request.Tags,
		AIGeneratedDescription: request.AIGeneratedDescription,
	})
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", t.ID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(t, h.now())))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.TaskService.GetTask(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t, h.now())))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: запрос к сервису обновления задачи", zap.String("task_id", id.String()))

	t, err := h.TaskService.UpdateTask(r.Context(), actor, id, request.Options()...)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t, h.now())))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.TaskService.DeleteTask(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Int("http_status", http.StatusNoContent))
	responseNoContent(w)
}

func (h *TaskHandler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.TaskService.ArchiveTask(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err, "archive_task")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t, h.now())))
}

func (h *TaskHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.TaskService.ToggleComplete(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err, "toggle_complete")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t, h.now())))
}

func (h *TaskHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.TaskService.History(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err, "task_history")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("history", dto.FromHistory(entries)))
}

// Stats: GET /tasks/stats - сводка по задачам всех досок, видимых пользователю
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	stats, err := h.TaskService.Stats(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err, "task_stats")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("stats", stats))
}

// ListTags: GET /tags
func (h *TaskHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	tags, err := h.TaskService.ListTags(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err, "list_tags")
		return
	}
	if tags == nil {
		tags = []*task.Tag{}
	}
	responseWithJSON(w, http.StatusOK, toPayload("tags", tags))
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "unavailable"))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}
