package models

import "time"

// TaskType enumerates the kinds of micro-tasks contributors can complete.
type TaskType string

const (
	TaskAudioCollection TaskType = "audio_collection"
	TaskImageCollection TaskType = "image_collection"
	TaskTextAnnotation  TaskType = "text_annotation"
	TaskImageLabeling   TaskType = "image_labeling"
	TaskSurvey          TaskType = "survey"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskAudioCollection, TaskImageCollection, TaskTextAnnotation, TaskImageLabeling, TaskSurvey:
		return true
	}
	return false
}

// TaskStatus is the canonical task lifecycle vocabulary. Creation defaults to
// StatusAvailable; later transitions belong to validation tooling outside this
// service.
type TaskStatus string

const (
	StatusAvailable   TaskStatus = "AVAILABLE"
	StatusInProgress  TaskStatus = "IN_PROGRESS"
	StatusValidating  TaskStatus = "VALIDATING"
	StatusAccepted    TaskStatus = "ACCEPTED"
	StatusNotAccepted TaskStatus = "NOT_ACCEPTED"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusInProgress, StatusValidating, StatusAccepted, StatusNotAccepted:
		return true
	}
	return false
}

// Visibility controls whether contributors can see a task at all, independent
// of its lifecycle status.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// SubmissionPending is the initial status of every stored submission.
// Acceptance/rejection happens in out-of-band validation tooling.
const SubmissionPending = "pending_validation"

// Task is a unit of work definition created by an administrator.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Type             TaskType   `json:"type"`
	Compensation     int64      `json:"compensation"`
	Currency         string     `json:"currency"`
	EstimatedTimeMin int        `json:"estimated_time_min"`
	Status           TaskStatus `json:"status"`
	Language         string     `json:"language,omitempty"`
	Project          string     `json:"project,omitempty"`
	Difficulty       string     `json:"difficulty,omitempty"`
	Prompt           string     `json:"prompt,omitempty"`
	Instructions     string     `json:"instructions,omitempty"`
	ImageURL         string     `json:"image_url,omitempty"`
	Requirements     []string   `json:"requirements,omitempty"`
	AICapability     string     `json:"ai_capability,omitempty"`
	DataUsage        string     `json:"data_usage,omitempty"`
	Visibility       Visibility `json:"visibility"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ContributorVisible reports whether contributors may see and work on the
// task. All list filtering goes through this single predicate.
func (t Task) ContributorVisible() bool {
	return t.Status == StatusAvailable && t.Visibility == VisibilityPublic && t.IsActive
}

// Submission is one contributor's completed artifact for a task, immutable
// once stored. Exactly one of AudioURL/ImageURL/TextContent/SelectedOption is
// expected to be set depending on the task type.
type Submission struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"task_id"`
	UserID         string    `json:"user_id"`
	AudioURL       string    `json:"audio_url,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	TextContent    string    `json:"text_content,omitempty"`
	SelectedOption string    `json:"selected_option,omitempty"`
	FileSize       int64     `json:"file_size,omitempty"`
	MimeType       string    `json:"mime_type,omitempty"`
	Status         string    `json:"status"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
