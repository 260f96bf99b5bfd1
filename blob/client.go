package blob

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StatusError is a non-2xx reply from the storage service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storage request failed: status %d", e.Code)
	}
	return fmt.Sprintf("storage request failed: status %d: %s", e.Code, e.Message)
}

// IsAuthFailure reports whether err is an authorization rejection from the
// storage service.
func IsAuthFailure(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized
}

// Session holds the cached upload credentials handed out by the storage
// service. It is owned by a Client rather than living at package level so
// tests and multi-instance deployments can control its lifecycle.
type Session struct {
	mu          sync.Mutex
	uploadURL   string
	uploadToken string
	downloadURL string
}

func (s *Session) get() (uploadURL, uploadToken, downloadURL string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadURL, s.uploadToken, s.downloadURL, s.uploadURL != "" && s.uploadToken != ""
}

func (s *Session) set(uploadURL, uploadToken, downloadURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadURL = uploadURL
	s.uploadToken = uploadToken
	s.downloadURL = downloadURL
}

// Reset clears the cached credentials so the next upload re-authenticates.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadURL = ""
	s.uploadToken = ""
}

// Config carries the account credentials and endpoints for the B2-compatible
// storage service.
type Config struct {
	KeyID      string
	AppKey     string
	BucketID   string
	BucketName string
	// APIBase is the authorization endpoint, e.g. https://api.backblazeb2.com.
	APIBase string
	Timeout time.Duration
}

// Client uploads binary payloads to a B2-compatible object storage service
// and returns publicly resolvable URLs. An expired upload token (401) is
// recovered by re-authenticating and retrying the upload exactly once; any
// further failure propagates to the caller unmodified.
type Client struct {
	cfg     Config
	client  *http.Client
	session *Session
	retry   Policy

	// OnReauth, when set, is called each time an expired upload token forces
	// a re-authentication. Used for metrics.
	OnReauth func()
}

// NewClient builds a Client with its own session.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		session: &Session{},
		retry: Policy{
			MaxAttempts: 2,
			Retryable:   IsAuthFailure,
		},
	}
}

type authorizeResponse struct {
	AuthorizationToken string `json:"authorizationToken"`
	APIURL             string `json:"apiUrl"`
	DownloadURL        string `json:"downloadUrl"`
}

type uploadURLResponse struct {
	UploadURL          string `json:"uploadUrl"`
	AuthorizationToken string `json:"authorizationToken"`
}

// Upload stores data under key with the given content type and returns the
// public URL of the object.
func (c *Client) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	var publicURL string
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		uploadURL, uploadToken, downloadURL, ok := c.session.get()
		if !ok {
			var err error
			uploadURL, uploadToken, downloadURL, err = c.authenticate(ctx)
			if err != nil {
				return err
			}
		}

		if err := c.uploadOnce(ctx, uploadURL, uploadToken, key, contentType, data); err != nil {
			if IsAuthFailure(err) {
				c.session.Reset()
				if c.OnReauth != nil {
					c.OnReauth()
				}
			}
			return err
		}

		publicURL = fmt.Sprintf("%s/file/%s/%s", strings.TrimRight(downloadURL, "/"), c.cfg.BucketName, key)
		return nil
	})
	if err != nil {
		return "", err
	}
	return publicURL, nil
}

// authenticate authorizes the account, fetches a fresh upload URL, and caches
// both in the session.
func (c *Client) authenticate(ctx context.Context) (uploadURL, uploadToken, downloadURL string, err error) {
	authURL := strings.TrimRight(c.cfg.APIBase, "/") + "/b2api/v2/b2_authorize_account"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", "", "", err
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.AppKey)

	var auth authorizeResponse
	if err := c.doJSON(req, &auth); err != nil {
		return "", "", "", fmt.Errorf("authorize account: %w", err)
	}

	body, err := json.Marshal(map[string]string{"bucketId": c.cfg.BucketID})
	if err != nil {
		return "", "", "", err
	}
	getURL := strings.TrimRight(auth.APIURL, "/") + "/b2api/v2/b2_get_upload_url"
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, getURL, bytes.NewReader(body))
	if err != nil {
		return "", "", "", err
	}
	req.Header.Set("Authorization", auth.AuthorizationToken)
	req.Header.Set("Content-Type", "application/json")

	var upload uploadURLResponse
	if err := c.doJSON(req, &upload); err != nil {
		return "", "", "", fmt.Errorf("get upload url: %w", err)
	}

	c.session.set(upload.UploadURL, upload.AuthorizationToken, auth.DownloadURL)
	return upload.UploadURL, upload.AuthorizationToken, auth.DownloadURL, nil
}

func (c *Client) uploadOnce(ctx context.Context, uploadURL, uploadToken, key, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	sum := sha1.Sum(data)
	req.Header.Set("Authorization", uploadToken)
	req.Header.Set("X-Bz-File-Name", url.PathEscape(key))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Bz-Content-Sha1", hex.EncodeToString(sum[:]))

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
