package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"starset-backend/blob"
	"starset-backend/metrics"
	"starset-backend/middleware"
	"starset-backend/models"
	"starset-backend/storage"
)

// maxUploadBytes caps multipart uploads at 50MB.
const maxUploadBytes = 50 << 20

// Uploader stores a binary payload under a key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// SubmissionHandler handles the three submission endpoints.
type SubmissionHandler struct {
	store    storage.Store
	uploader Uploader
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(store storage.Store, uploader Uploader) *SubmissionHandler {
	return &SubmissionHandler{store: store, uploader: uploader}
}

// submissionResponse is the envelope returned on a stored submission.
type submissionResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Submission map[string]any `json:"submission"`
}

// Audio handles POST /submissions/audio (multipart, file field "audio").
func (h *SubmissionHandler) Audio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	taskID, userID, idemKey, data, mimeType, size, ok := h.readUpload(w, r, "audio")
	if !ok {
		return
	}
	if !strings.HasPrefix(mimeType, "audio/") {
		middleware.Error(w, http.StatusBadRequest, "only audio files are allowed")
		return
	}

	key := blob.ObjectKey("audio", userID, taskID, blob.ExtensionForMime(mimeType, "webm"))
	fileURL, err := h.uploader.Upload(r.Context(), key, mimeType, data)
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	sub, err := h.store.CreateSubmission(r.Context(), models.Submission{
		TaskID:         taskID,
		UserID:         userID,
		AudioURL:       fileURL,
		FileSize:       size,
		MimeType:       mimeType,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.SubmissionsTotal.WithLabelValues("audio").Inc()
	log.Printf("audio submission stored: task=%s user=%s size=%d", taskID, userID, size)

	writeSubmission(w, "Audio submitted successfully", map[string]any{
		"id":       sub.ID,
		"audioUrl": sub.AudioURL,
		"status":   sub.Status,
	})
}

// Image handles POST /submissions/image (multipart, file field "image").
func (h *SubmissionHandler) Image(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	taskID, userID, idemKey, data, mimeType, size, ok := h.readUpload(w, r, "image")
	if !ok {
		return
	}

	key := blob.ObjectKey("images", userID, taskID, blob.ExtensionForMime(mimeType, "jpg"))
	fileURL, err := h.uploader.Upload(r.Context(), key, mimeType, data)
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	sub, err := h.store.CreateSubmission(r.Context(), models.Submission{
		TaskID:         taskID,
		UserID:         userID,
		ImageURL:       fileURL,
		FileSize:       size,
		MimeType:       mimeType,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.SubmissionsTotal.WithLabelValues("image").Inc()
	log.Printf("image submission stored: task=%s user=%s size=%d", taskID, userID, size)

	writeSubmission(w, "Image submitted successfully", map[string]any{
		"id":       sub.ID,
		"imageUrl": sub.ImageURL,
		"status":   sub.Status,
	})
}

// TextSubmissionBody captures the POST /submissions/text payload.
type TextSubmissionBody struct {
	TaskID         string `json:"taskId"`
	UserID         string `json:"userId"`
	TextContent    string `json:"textContent"`
	SelectedOption string `json:"selectedOption"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// Validate enforces the required fields before any side effect.
func (b TextSubmissionBody) Validate() error {
	if b.TaskID == "" || b.UserID == "" {
		return fmt.Errorf("missing required fields: taskId and userId are required")
	}
	if b.TextContent == "" && b.SelectedOption == "" {
		return fmt.Errorf("one of textContent or selectedOption is required")
	}
	return nil
}

// Text handles POST /submissions/text (JSON).
func (h *SubmissionHandler) Text(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body TextSubmissionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := body.Validate(); err != nil {
		middleware.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.store.CreateSubmission(r.Context(), models.Submission{
		TaskID:         body.TaskID,
		UserID:         body.UserID,
		TextContent:    body.TextContent,
		SelectedOption: body.SelectedOption,
		IdempotencyKey: body.IdempotencyKey,
	})
	if err != nil {
		middleware.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.SubmissionsTotal.WithLabelValues("text").Inc()

	writeSubmission(w, "Text submitted successfully", map[string]any{
		"id":     sub.ID,
		"status": sub.Status,
	})
}

// readUpload parses the multipart form, validates the shared fields, and
// returns the file payload. On failure it writes the error response itself.
func (h *SubmissionHandler) readUpload(w http.ResponseWriter, r *http.Request, field string) (taskID, userID, idemKey string, data []byte, mimeType string, size int64, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.Error(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	taskID = r.FormValue("taskId")
	userID = r.FormValue("userId")
	idemKey = r.FormValue("idempotencyKey")
	if taskID == "" || userID == "" {
		middleware.Error(w, http.StatusBadRequest, "missing required fields: taskId and userId are required")
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		middleware.Error(w, http.StatusBadRequest, fmt.Sprintf("no %s file provided", field))
		return
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		middleware.Error(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	return taskID, userID, idemKey, data, header.Header.Get("Content-Type"), header.Size, true
}

func writeSubmission(w http.ResponseWriter, message string, submission map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(submissionResponse{
		Success:    true,
		Message:    message,
		Submission: submission,
	})
}
