package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gitlab.com/arkline/modguard/internal/models"
)

// HTTPIdentityProvider resolves bearer tokens against the platform's
// identity service.
type HTTPIdentityProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPIdentityProvider(baseURL string) *HTTPIdentityProvider {
	return &HTTPIdentityProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPIdentityProvider) ResolveIdentity(ctx context.Context, token string) (models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/identity", nil)
	if err != nil {
		return models.Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return models.Identity{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.Identity{}, models.ErrUnauthorized
	default:
		return models.Identity{}, fmt.Errorf("identity provider returned %d", resp.StatusCode)
	}

	var identity models.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}
