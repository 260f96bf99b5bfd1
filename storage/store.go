package storage

import (
	"context"
	"errors"

	"starset-backend/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store persists tasks and submissions. Two implementations exist: Postgres
// for deployments and SQLite for local development and tests.
type Store interface {
	// CreateTask assigns an ID and creation time and inserts the task.
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	// ListTasks returns every task, newest first.
	ListTasks(ctx context.Context) ([]models.Task, error)

	// ListContributorTasks returns tasks matching the contributor visibility
	// predicate (AVAILABLE, public, active), newest first.
	ListContributorTasks(ctx context.Context) ([]models.Task, error)

	// GetTask returns a task by ID or ErrNotFound.
	GetTask(ctx context.Context, id string) (models.Task, error)

	// CreateSubmission inserts a submission. When the submission carries an
	// idempotency key and a row with the same (user, task, key) already
	// exists, the existing row is returned and no new row is created.
	CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error)

	// ListUserSubmissions returns all submissions by a user.
	ListUserSubmissions(ctx context.Context, userID string) ([]models.Submission, error)

	// GetUserTaskSubmission returns the submission a user made for a task,
	// or ErrNotFound when the user has not submitted for it.
	GetUserTaskSubmission(ctx context.Context, userID, taskID string) (models.Submission, error)

	Ping(ctx context.Context) error
	Close()
}
