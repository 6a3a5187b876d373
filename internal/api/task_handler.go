package api

import (
	"net/http"

	"github.com/phrazzld/nutrition-api/internal/api/shared"
	"github.com/phrazzld/nutrition-api/internal/domain"
	"github.com/phrazzld/nutrition-api/internal/service"
	"github.com/phrazzld/nutrition-api/internal/store"
)

// TaskHandler handles task and data HTTP requests
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTask handles POST /tasks. Ingestion runs in the background; the
// response only confirms the task was stored.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	// Both values passed the iso8601 tag, so parsing cannot fail here.
	start, _ := domain.ParseTimestamp(req.StartDate)
	end, _ := domain.ParseTimestamp(req.EndDate)

	task, err := h.taskService.CreateTask(r.Context(), start, end)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	task, err := h.taskService.GetTask(r.Context(), id)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListTasks(r.Context())
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetData handles GET /data?task_id=&person=. Both filters are optional.
func (h *TaskHandler) GetData(w http.ResponseWriter, r *http.Request) {
	taskID, err := getOptionalQueryID(r, "task_id")
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	filter := store.DataRowFilter{
		TaskID: taskID,
		Person: r.URL.Query().Get("person"),
	}

	rows, err := h.taskService.GetData(r.Context(), filter)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	resp := make([]DataRowResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, dataRowToResponse(row))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
