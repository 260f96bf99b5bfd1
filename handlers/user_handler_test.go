package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"starset-backend/models"
)

func TestUserSubmissionsListsCompletedTasks(t *testing.T) {
	store := newSubmissionTestStore(t)
	handler := NewUserHandler(store)

	for _, taskID := range []string{"task-1", "task-2"} {
		if _, err := store.CreateSubmission(context.Background(), models.Submission{
			TaskID:      taskID,
			UserID:      "user-1",
			TextContent: "answer",
		}); err != nil {
			t.Fatalf("seed submission: %v", err)
		}
	}
	if _, err := store.CreateSubmission(context.Background(), models.Submission{
		TaskID:      "task-3",
		UserID:      "someone-else",
		TextContent: "answer",
	}); err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/user/submissions/user-1", nil)
	rec := httptest.NewRecorder()
	handler.Submissions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success        bool                `json:"success"`
		CompletedTasks []string            `json:"completedTasks"`
		Submissions    []models.Submission `json:"submissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || len(resp.Submissions) != 2 {
		t.Fatalf("expected 2 submissions for user-1, got: %s", rec.Body.String())
	}
	seen := map[string]bool{}
	for _, id := range resp.CompletedTasks {
		seen[id] = true
	}
	if !seen["task-1"] || !seen["task-2"] || seen["task-3"] {
		t.Fatalf("unexpected completedTasks: %v", resp.CompletedTasks)
	}
}

func TestUserSubmissionsEmptyUser(t *testing.T) {
	handler := NewUserHandler(newSubmissionTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/user/submissions/no-such-user", nil)
	rec := httptest.NewRecorder()
	handler.Submissions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown user, got %d", rec.Code)
	}
	var resp struct {
		CompletedTasks []string `json:"completedTasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CompletedTasks == nil || len(resp.CompletedTasks) != 0 {
		t.Fatalf("expected empty array, got %v", resp.CompletedTasks)
	}
}

func TestUserTaskSubmissionCompletionCheck(t *testing.T) {
	store := newSubmissionTestStore(t)
	handler := NewUserHandler(store)

	check := func(wantCompleted bool) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/user/submissions/user-1/task/task-1", nil)
		rec := httptest.NewRecorder()
		handler.Submissions(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Success    bool             `json:"success"`
			Completed  bool             `json:"completed"`
			Submission *json.RawMessage `json:"submission"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Completed != wantCompleted {
			t.Fatalf("expected completed=%v, got: %s", wantCompleted, rec.Body.String())
		}
		hasSubmission := resp.Submission != nil && string(*resp.Submission) != "null"
		if hasSubmission != wantCompleted {
			t.Fatalf("submission presence mismatch: %s", rec.Body.String())
		}
	}

	check(false)

	if _, err := store.CreateSubmission(context.Background(), models.Submission{
		TaskID:      "task-1",
		UserID:      "user-1",
		TextContent: "done",
	}); err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	check(true)
}

func TestUserSubmissionsBadPath(t *testing.T) {
	handler := NewUserHandler(newSubmissionTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/user/submissions/", nil)
	rec := httptest.NewRecorder()
	handler.Submissions(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing user ID, got %d", rec.Code)
	}
}
