package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/okian/userstats/internal/domain/insights"
)

// formField is the multipart field every upload endpoint reads.
const formField = "file"

// HTTPClient talks to one userstats instance.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type envelope[T any] struct {
	Response struct {
		Status int `json:"status"`
		Body   T   `json:"body"`
	} `json:"response"`
}

type usersBody struct {
	Message   string `json:"message"`
	UserCount int    `json:"user_count"`
}

type countriesBody struct {
	Countries []insights.CountryTotal `json:"countries"`
}

type teamsBody struct {
	Teams []insights.TeamTotal `json:"teams"`
}

// ServerSettings is the part of GET /stats that changes report results.
type ServerSettings struct {
	TeamInsightsMode  string  `json:"teamInsightsMode"`
	Threshold         float64 `json:"threshold"`
	TopCountriesLimit int     `json:"topCountriesLimit"`
}

// Health checks GET /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// Settings reads the report settings from GET /stats.
func (c *HTTPClient) Settings(ctx context.Context) (ServerSettings, error) {
	var s ServerSettings
	resp, err := c.get(ctx, "/stats")
	if err != nil {
		return s, err
	}
	if err := decode(resp, &s); err != nil {
		return s, fmt.Errorf("stats: %w", err)
	}
	return s, nil
}

// UploadUsers posts one batch to /users and returns the counted users.
func (c *HTTPClient) UploadUsers(ctx context.Context, filename string, data []byte) (int, error) {
	var env envelope[usersBody]
	if err := c.upload(ctx, "/users", filename, data, &env); err != nil {
		return 0, err
	}
	return env.Response.Body.UserCount, nil
}

// TopCountries posts one batch to /top-countries.
func (c *HTTPClient) TopCountries(ctx context.Context, filename string, data []byte) ([]insights.CountryTotal, error) {
	var env envelope[countriesBody]
	if err := c.upload(ctx, "/top-countries", filename, data, &env); err != nil {
		return nil, err
	}
	return env.Response.Body.Countries, nil
}

// TeamInsights posts one batch to /team-insights.
func (c *HTTPClient) TeamInsights(ctx context.Context, filename string, data []byte) ([]insights.TeamTotal, error) {
	var env envelope[teamsBody]
	if err := c.upload(ctx, "/team-insights", filename, data, &env); err != nil {
		return nil, err
	}
	return env.Response.Body.Teams, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service: %w", err)
	}
	return resp, nil
}

func (c *HTTPClient) upload(ctx context.Context, path, filename string, data []byte, out any) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(formField, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := decode(resp, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// decode reads and closes the response body. Non-200 answers are errors.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
