package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"starset-backend/middleware"
	"starset-backend/storage"
)

// UserHandler serves per-user submission lookups.
type UserHandler struct {
	store storage.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(store storage.Store) *UserHandler {
	return &UserHandler{store: store}
}

// Submissions handles GET /user/submissions/{userId} and
// GET /user/submissions/{userId}/task/{taskId}.
func (h *UserHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/user/submissions")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.handleUserSubmissions(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "task" && parts[2] != "":
		h.handleUserTaskSubmission(w, r, parts[0], parts[2])
	default:
		middleware.Error(w, http.StatusBadRequest, "expected /user/submissions/{userId} or /user/submissions/{userId}/task/{taskId}")
	}
}

// handleUserSubmissions returns every submission by the user plus the task
// IDs they cover.
func (h *UserHandler) handleUserSubmissions(w http.ResponseWriter, r *http.Request, userID string) {
	submissions, err := h.store.ListUserSubmissions(r.Context(), userID)
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	completedTasks := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		completedTasks = append(completedTasks, sub.TaskID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":        true,
		"completedTasks": completedTasks,
		"submissions":    submissions,
	})
}

// handleUserTaskSubmission reports whether the user already submitted for the
// task.
func (h *UserHandler) handleUserTaskSubmission(w http.ResponseWriter, r *http.Request, userID, taskID string) {
	sub, err := h.store.GetUserTaskSubmission(r.Context(), userID, taskID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"success":    true,
		"completed":  err == nil,
		"submission": nil,
	}
	if err == nil {
		resp["submission"] = sub
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
