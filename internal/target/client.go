package target

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cms-content-migrator/internal/config"
	"github.com/cms-content-migrator/internal/models"
	"github.com/rs/zerolog"
)

// Post type segments of the content API.
const (
	TypePosts = "posts"
	TypePages = "pages"
)

// Taxonomy segments of the content API.
const (
	TaxonomyCategories = "categories"
	TaxonomyTags       = "tags"
	TaxonomyRegions    = "regions"
)

// Client is the write API of the target CMS. Everything here goes over the
// REST surface; the few operations the REST surface lacks live on Meta.
type Client interface {
	CreatePost(ctx context.Context, postType string, post *models.TargetPost) (*models.TargetRecord, error)
	GetPost(ctx context.Context, postType string, id int64) (*models.TargetRecord, error)
	UpdatePostBody(ctx context.Context, postType string, id int64, body string) error
	DeletePost(ctx context.Context, postType string, id int64, force bool) error

	CreateTerm(ctx context.Context, taxonomy string, term *models.TargetTerm) (*models.TargetRecord, error)
	FindTermByName(ctx context.Context, taxonomy, name string) (*models.TargetRecord, error)
	DeleteTerm(ctx context.Context, taxonomy string, id int64) error

	UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*models.TargetRecord, error)
	GetMedia(ctx context.Context, id int64) (*models.TargetRecord, error)
	DeleteMedia(ctx context.Context, id int64) error

	CreateUser(ctx context.Context, user *models.TargetUser) (*models.TargetRecord, error)
	FindUserByLogin(ctx context.Context, login string) (*models.TargetRecord, error)
	DeleteUser(ctx context.Context, id int64, reassignTo int64) error
}

// httpClient talks to a WordPress-style REST API with basic auth
type httpClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	log      zerolog.Logger
}

// NewClient creates a target API client from configuration
func NewClient(cfg *config.TargetConfig, log zerolog.Logger) Client {
	return &httpClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      log.With().Str("component", "target-api").Logger(),
	}
}

func (c *httpClient) CreatePost(ctx context.Context, postType string, post *models.TargetPost) (*models.TargetRecord, error) {
	var record models.TargetRecord
	if err := c.doJSON(ctx, http.MethodPost, "/"+postType, post, &record); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", postType, err)
	}
	return &record, nil
}

func (c *httpClient) GetPost(ctx context.Context, postType string, id int64) (*models.TargetRecord, error) {
	var resp struct {
		ID      int64  `json:"id"`
		Link    string `json:"link"`
		Content struct {
			Raw      string `json:"raw"`
			Rendered string `json:"rendered"`
		} `json:"content"`
	}
	path := fmt.Sprintf("/%s/%d?context=edit", postType, id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", postType, id, err)
	}
	content := resp.Content.Raw
	if content == "" {
		content = resp.Content.Rendered
	}
	return &models.TargetRecord{ID: resp.ID, Link: resp.Link, Content: content}, nil
}

func (c *httpClient) UpdatePostBody(ctx context.Context, postType string, id int64, body string) error {
	payload := map[string]string{"content": body}
	path := fmt.Sprintf("/%s/%d", postType, id)
	if err := c.doJSON(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("failed to update %s %d body: %w", postType, id, err)
	}
	return nil
}

func (c *httpClient) DeletePost(ctx context.Context, postType string, id int64, force bool) error {
	path := fmt.Sprintf("/%s/%d?force=%t", postType, id, force)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", postType, id, err)
	}
	return nil
}

func (c *httpClient) CreateTerm(ctx context.Context, taxonomy string, term *models.TargetTerm) (*models.TargetRecord, error) {
	var record models.TargetRecord
	if err := c.doJSON(ctx, http.MethodPost, "/"+taxonomy, term, &record); err != nil {
		return nil, fmt.Errorf("failed to create %s term: %w", taxonomy, err)
	}
	return &record, nil
}

// FindTermByName searches a taxonomy for a term whose name matches
// case-insensitively. Returns nil when no term matches.
func (c *httpClient) FindTermByName(ctx context.Context, taxonomy, name string) (*models.TargetRecord, error) {
	var terms []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Link string `json:"link"`
	}
	path := fmt.Sprintf("/%s?search=%s&per_page=100", taxonomy, url.QueryEscape(name))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &terms); err != nil {
		return nil, fmt.Errorf("failed to search %s terms: %w", taxonomy, err)
	}
	for _, t := range terms {
		if strings.EqualFold(t.Name, name) {
			return &models.TargetRecord{ID: t.ID, Link: t.Link}, nil
		}
	}
	return nil, nil
}

func (c *httpClient) DeleteTerm(ctx context.Context, taxonomy string, id int64) error {
	path := fmt.Sprintf("/%s/%d?force=true", taxonomy, id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s term %d: %w", taxonomy, id, err)
	}
	return nil
}

// UploadMedia posts the file bytes to the media endpoint.
func (c *httpClient) UploadMedia(ctx context.Context, filename, mimeType string, data []byte) (*models.TargetRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("media upload returned status %d: %s", resp.StatusCode, snippet(body))
	}

	var record models.TargetRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload response: %w", err)
	}
	return &record, nil
}

func (c *httpClient) GetMedia(ctx context.Context, id int64) (*models.TargetRecord, error) {
	var record models.TargetRecord
	path := fmt.Sprintf("/media/%d", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &record); err != nil {
		return nil, fmt.Errorf("failed to get media %d: %w", id, err)
	}
	return &record, nil
}

func (c *httpClient) DeleteMedia(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/media/%d?force=true", id)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete media %d: %w", id, err)
	}
	return nil
}

func (c *httpClient) CreateUser(ctx context.Context, user *models.TargetUser) (*models.TargetRecord, error) {
	var record models.TargetRecord
	if err := c.doJSON(ctx, http.MethodPost, "/users", user, &record); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &record, nil
}

// FindUserByLogin returns the user with the exact login, or nil.
func (c *httpClient) FindUserByLogin(ctx context.Context, login string) (*models.TargetRecord, error) {
	var users []struct {
		ID   int64  `json:"id"`
		Slug string `json:"slug"`
	}
	path := fmt.Sprintf("/users?search=%s&context=edit", url.QueryEscape(login))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &users); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Slug, login) {
			return &models.TargetRecord{ID: u.ID}, nil
		}
	}
	return nil, nil
}

func (c *httpClient) DeleteUser(ctx context.Context, id int64, reassignTo int64) error {
	path := fmt.Sprintf("/users/%d?force=true&reassign=%d", id, reassignTo)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}

// doJSON performs one API call, marshalling payload in and out as JSON.
func (c *httpClient) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, snippet(body))
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// snippet truncates an error body for logging.
func snippet(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
