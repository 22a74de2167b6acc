package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the hosted platform's REST root.
const DefaultBaseURL = "https://api.stream-io-api.com/api/v1.0"

// APIError is a non-2xx answer from the platform.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("platform error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("platform error: status %d: %s", e.StatusCode, e.Detail)
}

// CloudClient talks to the platform REST API with a user token.
type CloudClient struct {
	baseURL string
	apiKey  string
	token   string
	userID  string
	http    *http.Client
}

// Option configures a CloudClient.
type Option func(*CloudClient)

// WithBaseURL points the client at another REST root.
func WithBaseURL(u string) Option {
	return func(c *CloudClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *CloudClient) { c.http = h }
}

// NewCloudClient builds a client for userID authenticated by token.
func NewCloudClient(apiKey, token, userID string, opts ...Option) (*CloudClient, error) {
	switch {
	case apiKey == "":
		return nil, fmt.Errorf("stream: api key is required")
	case token == "":
		return nil, fmt.Errorf("stream: token is required")
	case userID == "":
		return nil, fmt.Errorf("stream: user id is required")
	}
	c := &CloudClient{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		token:   token,
		userID:  userID,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UserID implements Client.
func (c *CloudClient) UserID() string { return c.userID }

// FlatFeed implements Client.
func (c *CloudClient) FlatFeed(slug, userID string) Feed {
	if userID == "" {
		userID = c.userID
	}
	return &cloudFeed{client: c, slug: slug, userID: userID}
}

type cloudFeed struct {
	client *CloudClient
	slug   string
	userID string
}

func (f *cloudFeed) ID() string { return FeedID(f.slug, f.userID) }

func (f *cloudFeed) path(suffix string) string {
	return "/feed/" + url.PathEscape(f.slug) + "/" + url.PathEscape(f.userID) + "/" + suffix
}

type activitiesResponse struct {
	Results []Activity `json:"results"`
}

func (f *cloudFeed) GetActivities(ctx context.Context, limit int) ([]Activity, error) {
	var resp activitiesResponse
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := f.client.do(ctx, http.MethodGet, f.path(""), q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (f *cloudFeed) AddActivity(ctx context.Context, a Activity) (Activity, error) {
	var stored Activity
	if err := f.client.do(ctx, http.MethodPost, f.path(""), nil, a, &stored); err != nil {
		return Activity{}, err
	}
	return stored, nil
}

type followRequest struct {
	Target string `json:"target"`
}

func (f *cloudFeed) Follow(ctx context.Context, target Feed) error {
	return f.client.do(ctx, http.MethodPost, f.path("following/"), nil, followRequest{Target: target.ID()}, nil)
}

func (c *CloudClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Stream-Auth-Type", "jwt")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
