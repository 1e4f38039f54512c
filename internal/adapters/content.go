package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"gitlab.com/arkline/modguard/internal/models"
)

// HTTPContentStore talks to the platform's content service. Deletions are
// enforcement effects that must survive transient hiccups, so the client
// retries with backoff.
type HTTPContentStore struct {
	baseURL string
	client  *retryablehttp.Client
}

func NewHTTPContentStore(baseURL string) *HTTPContentStore {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = nil
	return &HTTPContentStore{
		baseURL: baseURL,
		client:  client,
	}
}

func contentPath(t models.TargetType) (string, bool) {
	switch t {
	case models.TargetPost:
		return "posts", true
	case models.TargetComment:
		return "comments", true
	case models.TargetMessage:
		return "messages", true
	}
	return "", false
}

func (s *HTTPContentStore) GetAuthor(ctx context.Context, target models.TargetRef) (int, error) {
	if target.Type == models.TargetUser {
		return target.ID, nil
	}
	path, ok := contentPath(target.Type)
	if !ok {
		return 0, models.ErrMissingTarget
	}

	url := fmt.Sprintf("%s/v1/%s/%d/author", s.baseURL, path, target.ID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, models.ErrNotFound
	default:
		return 0, fmt.Errorf("content store returned %d", resp.StatusCode)
	}

	var body struct {
		AuthorID int `json:"author_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.AuthorID, nil
}

func (s *HTTPContentStore) DeletePost(ctx context.Context, postID int) error {
	return s.delete(ctx, fmt.Sprintf("%s/v1/posts/%d", s.baseURL, postID))
}

func (s *HTTPContentStore) DeleteComment(ctx context.Context, commentID int) error {
	return s.delete(ctx, fmt.Sprintf("%s/v1/comments/%d", s.baseURL, commentID))
}

func (s *HTTPContentStore) delete(ctx context.Context, url string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Already gone counts as deleted.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("content store returned %d", resp.StatusCode)
	}
	return nil
}
