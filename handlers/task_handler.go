package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"starset-backend/middleware"
	"starset-backend/models"
	"starset-backend/storage"
)

// TaskHandler handles the task registry endpoints.
type TaskHandler struct {
	store storage.Store
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(store storage.Store) *TaskHandler {
	return &TaskHandler{store: store}
}

// TaskCreateBody captures the POST /admin/tasks payload.
type TaskCreateBody struct {
	Title            string   `json:"title"`
	Type             string   `json:"type"`
	Compensation     int64    `json:"compensation"`
	Currency         string   `json:"currency"`
	EstimatedTimeMin int      `json:"estimated_time_min"`
	Status           string   `json:"status"`
	Language         string   `json:"language"`
	Project          string   `json:"project"`
	Difficulty       string   `json:"difficulty"`
	Prompt           string   `json:"prompt"`
	Instructions     string   `json:"instructions"`
	ImageURL         string   `json:"image_url"`
	Requirements     []string `json:"requirements"`
	AICapability     string   `json:"ai_capability"`
	DataUsage        string   `json:"data_usage"`
	Visibility       string   `json:"visibility"`
	IsActive         *bool    `json:"is_active"`
}

// Validate checks the payload and returns the task to store. Defaults:
// status AVAILABLE, visibility public, active, currency INR.
func (b TaskCreateBody) Validate() (models.Task, error) {
	if b.Title == "" {
		return models.Task{}, fmt.Errorf("title is required")
	}
	taskType := models.TaskType(b.Type)
	if !taskType.Valid() {
		return models.Task{}, fmt.Errorf("invalid task type %q", b.Type)
	}
	if b.Compensation < 0 {
		return models.Task{}, fmt.Errorf("compensation must not be negative")
	}

	status := models.StatusAvailable
	if b.Status != "" {
		status = models.TaskStatus(b.Status)
		if !status.Valid() {
			return models.Task{}, fmt.Errorf("invalid status %q", b.Status)
		}
	}

	visibility := models.VisibilityPublic
	switch models.Visibility(b.Visibility) {
	case "":
	case models.VisibilityPublic, models.VisibilityPrivate:
		visibility = models.Visibility(b.Visibility)
	default:
		return models.Task{}, fmt.Errorf("invalid visibility %q", b.Visibility)
	}

	currency := b.Currency
	if currency == "" {
		currency = "INR"
	}
	isActive := true
	if b.IsActive != nil {
		isActive = *b.IsActive
	}

	return models.Task{
		Title:            b.Title,
		Type:             taskType,
		Compensation:     b.Compensation,
		Currency:         currency,
		EstimatedTimeMin: b.EstimatedTimeMin,
		Status:           status,
		Language:         b.Language,
		Project:          b.Project,
		Difficulty:       b.Difficulty,
		Prompt:           b.Prompt,
		Instructions:     b.Instructions,
		ImageURL:         b.ImageURL,
		Requirements:     b.Requirements,
		AICapability:     b.AICapability,
		DataUsage:        b.DataUsage,
		Visibility:       visibility,
		IsActive:         isActive,
	}, nil
}

// AdminTasks handles GET/POST /admin/tasks
func (h *TaskHandler) AdminTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListTasks(w, r)
	case http.MethodPost:
		h.handleCreateTask(w, r)
	default:
		middleware.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateTask handles POST /admin/tasks
func (h *TaskHandler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var body TaskCreateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := body.Validate()
	if err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := h.store.CreateTask(r.Context(), task)
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(stored)
}

// handleListTasks handles GET /admin/tasks
func (h *TaskHandler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.ListTasks(r.Context())
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

// ContributorTasks handles GET /contributor/tasks
func (h *TaskHandler) ContributorTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tasks, err := h.store.ListContributorTasks(r.Context())
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}
