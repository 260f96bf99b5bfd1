package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"starset-backend/storage"
)

type fakeUploader struct {
	calls   int
	lastKey string
	err     error
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.calls++
	f.lastKey = key
	if f.err != nil {
		return "", f.err
	}
	return "https://files.example/file/starset-data/" + key, nil
}

func newSubmissionTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

// multipartUpload builds a multipart body with taskId/userId fields and one
// file part carrying an explicit Content-Type.
func multipartUpload(t *testing.T, field, filename, contentType string, payload []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func decodeSubmissionResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Success    bool           `json:"success"`
		Submission map[string]any `json:"submission"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v: %s", err, rec.Body.String())
	}
	if !resp.Success {
		t.Fatalf("expected success response, got: %s", rec.Body.String())
	}
	return resp.Submission
}

func TestAudioSubmissionStoresRow(t *testing.T) {
	store := newSubmissionTestStore(t)
	uploader := &fakeUploader{}
	handler := NewSubmissionHandler(store, uploader)

	body, contentType := multipartUpload(t, "audio", "recording.webm", "audio/webm", []byte("fake-audio"),
		map[string]string{"taskId": "task-1", "userId": "user-1"})
	req := httptest.NewRequest(http.MethodPost, "/submissions/audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Audio(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	submission := decodeSubmissionResponse(t, rec)
	audioURL, _ := submission["audioUrl"].(string)
	if !strings.Contains(audioURL, "audio/user-1/task-1_") {
		t.Fatalf("unexpected audio URL: %q", audioURL)
	}
	if submission["status"] != "pending_validation" {
		t.Fatalf("expected pending_validation, got %v", submission["status"])
	}
	if !strings.HasPrefix(uploader.lastKey, "audio/user-1/task-1_") || !strings.HasSuffix(uploader.lastKey, ".webm") {
		t.Fatalf("unexpected object key: %q", uploader.lastKey)
	}

	subs, err := store.ListUserSubmissions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 stored submission, got %d", len(subs))
	}
	if subs[0].MimeType != "audio/webm" || subs[0].FileSize == 0 {
		t.Fatalf("file metadata not stored: %+v", subs[0])
	}
}

func TestAudioSubmissionRejectsNonAudioMime(t *testing.T) {
	store := newSubmissionTestStore(t)
	uploader := &fakeUploader{}
	handler := NewSubmissionHandler(store, uploader)

	body, contentType := multipartUpload(t, "audio", "sneaky.png", "image/png", []byte("not-audio"),
		map[string]string{"taskId": "task-1", "userId": "user-1"})
	req := httptest.NewRequest(http.MethodPost, "/submissions/audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Audio(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if uploader.calls != 0 {
		t.Fatalf("uploader should not run for rejected MIME, got %d calls", uploader.calls)
	}

	subs, err := store.ListUserSubmissions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected no stored rows, got %d", len(subs))
	}
}

func TestAudioSubmissionRequiresFields(t *testing.T) {
	handler := NewSubmissionHandler(newSubmissionTestStore(t), &fakeUploader{})

	body, contentType := multipartUpload(t, "audio", "r.webm", "audio/webm", []byte("x"),
		map[string]string{"taskId": "task-1"})
	req := httptest.NewRequest(http.MethodPost, "/submissions/audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Audio(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing userId, got %d", rec.Code)
	}
}

func TestAudioSubmissionUploadFailurePropagates(t *testing.T) {
	store := newSubmissionTestStore(t)
	uploader := &fakeUploader{err: errors.New("storage request failed: status 503")}
	handler := NewSubmissionHandler(store, uploader)

	body, contentType := multipartUpload(t, "audio", "r.webm", "audio/webm", []byte("x"),
		map[string]string{"taskId": "task-1", "userId": "user-1"})
	req := httptest.NewRequest(http.MethodPost, "/submissions/audio", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Audio(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "status 503") {
		t.Fatalf("upstream error should pass through, got: %s", rec.Body.String())
	}

	subs, _ := store.ListUserSubmissions(context.Background(), "user-1")
	if len(subs) != 0 {
		t.Fatalf("expected no rows after failed upload, got %d", len(subs))
	}
}

func TestImageSubmissionStoresRow(t *testing.T) {
	store := newSubmissionTestStore(t)
	uploader := &fakeUploader{}
	handler := NewSubmissionHandler(store, uploader)

	body, contentType := multipartUpload(t, "image", "photo.png", "image/png", []byte("fake-image"),
		map[string]string{"taskId": "task-2", "userId": "user-1"})
	req := httptest.NewRequest(http.MethodPost, "/submissions/image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.Image(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	submission := decodeSubmissionResponse(t, rec)
	imageURL, _ := submission["imageUrl"].(string)
	if !strings.Contains(imageURL, "images/user-1/task-2_") || !strings.HasSuffix(imageURL, ".png") {
		t.Fatalf("unexpected image URL: %q", imageURL)
	}
}

func TestTextSubmissionRequiresContentOrOption(t *testing.T) {
	store := newSubmissionTestStore(t)
	handler := NewSubmissionHandler(store, &fakeUploader{})

	payload := `{"taskId":"task-1","userId":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/submissions/text", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Text(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	subs, _ := store.ListUserSubmissions(context.Background(), "user-1")
	if len(subs) != 0 {
		t.Fatalf("expected no rows, got %d", len(subs))
	}
}

func TestTextSubmissionStoresRow(t *testing.T) {
	store := newSubmissionTestStore(t)
	handler := NewSubmissionHandler(store, &fakeUploader{})

	payload := `{"taskId":"task-1","userId":"user-1","selectedOption":"option-b"}`
	req := httptest.NewRequest(http.MethodPost, "/submissions/text", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Text(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	submission := decodeSubmissionResponse(t, rec)
	if submission["id"] == "" || submission["status"] != "pending_validation" {
		t.Fatalf("unexpected submission envelope: %v", submission)
	}
}

func TestTextSubmissionIdempotencyKey(t *testing.T) {
	store := newSubmissionTestStore(t)
	handler := NewSubmissionHandler(store, &fakeUploader{})

	payload := `{"taskId":"task-1","userId":"user-1","textContent":"hello","idempotencyKey":"retry-7"}`
	var ids []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/submissions/text", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.Text(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201, got %d", i, rec.Code)
		}
		submission := decodeSubmissionResponse(t, rec)
		ids = append(ids, submission["id"].(string))
	}

	if ids[0] != ids[1] {
		t.Fatalf("expected retried submission to reuse id, got %s and %s", ids[0], ids[1])
	}
	subs, _ := store.ListUserSubmissions(context.Background(), "user-1")
	if len(subs) != 1 {
		t.Fatalf("expected a single row after retry, got %d", len(subs))
	}
}
