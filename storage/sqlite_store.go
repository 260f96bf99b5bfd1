package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"starset-backend/models"
)

// SQLiteStore is the single-file store used for local development and tests.
// It mirrors PostgresStore semantics exactly; requirements are stored as a
// JSON array and timestamps as fixed-width RFC3339 text.
type SQLiteStore struct {
	db *sql.DB
}

// Fixed-width RFC3339 so lexicographic ORDER BY matches chronological order.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// NewSQLiteStore opens (or creates) the database at path and initializes the
// schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path for SQLite store")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The modernc driver serializes writes; a single connection avoids
	// table-lock errors under concurrent handlers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  type TEXT NOT NULL,
  compensation INTEGER NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'INR',
  estimated_time_min INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'AVAILABLE',
  language TEXT NOT NULL DEFAULT '',
  project TEXT NOT NULL DEFAULT '',
  difficulty TEXT NOT NULL DEFAULT '',
  prompt TEXT NOT NULL DEFAULT '',
  instructions TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  requirements TEXT NOT NULL DEFAULT '[]',
  ai_capability TEXT NOT NULL DEFAULT '',
  data_usage TEXT NOT NULL DEFAULT '',
  visibility TEXT NOT NULL DEFAULT 'public',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  audio_url TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT '',
  text_content TEXT NOT NULL DEFAULT '',
  selected_option TEXT NOT NULL DEFAULT '',
  file_size INTEGER NOT NULL DEFAULT 0,
  mime_type TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending_validation',
  idempotency_key TEXT NOT NULL DEFAULT '',
  submitted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_contributor ON tasks(status, visibility, is_active);
CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_idem
  ON submissions(user_id, task_id, idempotency_key)
  WHERE idempotency_key <> '';
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const sqliteTaskColumns = `id, title, type, compensation, currency, estimated_time_min,
status, language, project, difficulty, prompt, instructions, image_url, requirements,
ai_capability, data_usage, visibility, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTask(row rowScanner) (models.Task, error) {
	var (
		t            models.Task
		requirements string
		createdAt    string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Type, &t.Compensation, &t.Currency,
		&t.EstimatedTimeMin, &t.Status, &t.Language, &t.Project, &t.Difficulty,
		&t.Prompt, &t.Instructions, &t.ImageURL, &requirements,
		&t.AICapability, &t.DataUsage, &t.Visibility, &t.IsActive, &createdAt)
	if err != nil {
		return models.Task{}, err
	}
	if requirements != "" && requirements != "[]" {
		if err := json.Unmarshal([]byte(requirements), &t.Requirements); err != nil {
			return models.Task{}, fmt.Errorf("decode requirements: %w", err)
		}
	}
	t.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// CreateTask inserts a task and returns the stored row.
func (s *SQLiteStore) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	task.ID = uuid.NewString()
	task.CreatedAt = time.Now().UTC()

	requirements, err := json.Marshal(task.Requirements)
	if err != nil {
		return models.Task{}, fmt.Errorf("encode requirements: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO tasks (id, title, type, compensation, currency, estimated_time_min, status,
  language, project, difficulty, prompt, instructions, image_url, requirements,
  ai_capability, data_usage, visibility, is_active, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`, task.ID, task.Title, task.Type, task.Compensation, task.Currency,
		task.EstimatedTimeMin, task.Status, task.Language, task.Project,
		task.Difficulty, task.Prompt, task.Instructions, task.ImageURL,
		string(requirements), task.AICapability, task.DataUsage,
		task.Visibility, task.IsActive, task.CreatedAt.Format(sqliteTimeFormat))
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// ListTasks returns every task, newest first.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.listTasks(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks ORDER BY created_at DESC`)
}

// ListContributorTasks returns contributor-visible tasks, newest first.
func (s *SQLiteStore) ListContributorTasks(ctx context.Context) ([]models.Task, error) {
	return s.listTasks(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks
WHERE status = 'AVAILABLE' AND visibility = 'public' AND is_active = 1
ORDER BY created_at DESC`)
}

func (s *SQLiteStore) listTasks(ctx context.Context, query string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTask returns a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (models.Task, error) {
	t, err := scanSQLiteTask(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteTaskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

const sqliteSubmissionColumns = `id, task_id, user_id, audio_url, image_url, text_content,
selected_option, file_size, mime_type, status, idempotency_key, submitted_at`

func scanSQLiteSubmission(row rowScanner) (models.Submission, error) {
	var (
		sub         models.Submission
		submittedAt string
	)
	err := row.Scan(&sub.ID, &sub.TaskID, &sub.UserID, &sub.AudioURL, &sub.ImageURL,
		&sub.TextContent, &sub.SelectedOption, &sub.FileSize, &sub.MimeType,
		&sub.Status, &sub.IdempotencyKey, &submittedAt)
	if err != nil {
		return models.Submission{}, err
	}
	sub.SubmittedAt, err = parseTimestamp(submittedAt)
	if err != nil {
		return models.Submission{}, err
	}
	return sub, nil
}

// CreateSubmission inserts a submission, honoring the idempotency key when set.
func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error) {
	if sub.IdempotencyKey != "" {
		existing, err := s.findByIdempotencyKey(ctx, sub.UserID, sub.TaskID, sub.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return models.Submission{}, err
		}
	}

	sub.ID = uuid.NewString()
	sub.Status = models.SubmissionPending
	sub.SubmittedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO submissions (id, task_id, user_id, audio_url, image_url, text_content,
  selected_option, file_size, mime_type, status, idempotency_key, submitted_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
`, sub.ID, sub.TaskID, sub.UserID, sub.AudioURL, sub.ImageURL, sub.TextContent,
		sub.SelectedOption, sub.FileSize, sub.MimeType, sub.Status,
		sub.IdempotencyKey, sub.SubmittedAt.Format(sqliteTimeFormat))
	if err != nil {
		return models.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

func (s *SQLiteStore) findByIdempotencyKey(ctx context.Context, userID, taskID, key string) (models.Submission, error) {
	sub, err := scanSQLiteSubmission(s.db.QueryRowContext(ctx, `SELECT `+sqliteSubmissionColumns+`
FROM submissions WHERE user_id = ? AND task_id = ? AND idempotency_key = ?`, userID, taskID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Submission{}, ErrNotFound
	}
	if err != nil {
		return models.Submission{}, fmt.Errorf("lookup submission by key: %w", err)
	}
	return sub, nil
}

// ListUserSubmissions returns all submissions by a user, newest first.
func (s *SQLiteStore) ListUserSubmissions(ctx context.Context, userID string) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteSubmissionColumns+`
FROM submissions WHERE user_id = ? ORDER BY submitted_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	out := []models.Submission{}
	for rows.Next() {
		sub, err := scanSQLiteSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// GetUserTaskSubmission returns the newest submission a user made for a task.
func (s *SQLiteStore) GetUserTaskSubmission(ctx context.Context, userID, taskID string) (models.Submission, error) {
	sub, err := scanSQLiteSubmission(s.db.QueryRowContext(ctx, `SELECT `+sqliteSubmissionColumns+`
FROM submissions WHERE user_id = ? AND task_id = ? ORDER BY submitted_at DESC LIMIT 1`, userID, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Submission{}, ErrNotFound
	}
	if err != nil {
		return models.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// Ping verifies the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
