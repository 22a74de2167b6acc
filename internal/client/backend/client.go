// Package backend is the client side of the credential backend contract:
// sign-in, feed/chat credential exchange and the people list.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/thestream/internal/client/errs"
	"github.com/atinyakov/thestream/internal/models"
)

const (
	apiUsers           = "/v1/users"
	apiFeedCredentials = "/v1/stream-feed-credentials"
	apiChatCredentials = "/v1/stream-chat-credentials"
)

// Client talks to the credential backend over HTTP. It keeps no state;
// the auth token is passed in by the session that owns it.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the backend rooted at baseURL.
func New(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// NewHTTPClient returns an *http.Client that trusts only the CA in caFile.
// An empty caFile yields a client using the system roots.
func NewHTTPClient(caFile string) (*http.Client, error) {
	if caFile == "" {
		return &http.Client{}, nil
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    caPool,
			MinVersion: tls.VersionTLS12,
		},
	}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}, nil
}

type signInRequest struct {
	User string `json:"user"`
}

type signInResponse struct {
	AuthToken string `json:"authToken"`
}

type usersResponse struct {
	Users *[]string `json:"users"`
}

// SignIn exchanges user for an auth token.
func (c *Client) SignIn(ctx context.Context, user string) (string, error) {
	var resp signInResponse
	if err := c.do(ctx, http.MethodPost, apiUsers, signInRequest{User: user}, "", &resp); err != nil {
		return "", errs.Wrap(errs.ErrAuthFailed, err)
	}
	if resp.AuthToken == "" {
		return "", errs.Wrap(errs.ErrAuthFailed, fmt.Errorf("%w: missing authToken", errs.ErrMalformedResponse))
	}
	return resp.AuthToken, nil
}

// FeedCredentials returns feed-scoped platform credentials for the holder
// of authToken.
func (c *Client) FeedCredentials(ctx context.Context, authToken string) (models.StreamCredentials, error) {
	var creds models.StreamCredentials
	if err := c.do(ctx, http.MethodPost, apiFeedCredentials, struct{}{}, authToken, &creds); err != nil {
		return models.StreamCredentials{}, errs.Wrap(errs.ErrCredentialFetchFailed, err)
	}
	if err := validateCredentials(creds.Token, creds.APIKey); err != nil {
		return models.StreamCredentials{}, errs.Wrap(errs.ErrCredentialFetchFailed, err)
	}
	return creds, nil
}

// ChatCredentials returns chat-scoped platform credentials and the chat
// user registered for the holder of authToken.
func (c *Client) ChatCredentials(ctx context.Context, authToken string) (models.ChatCredentials, error) {
	var creds models.ChatCredentials
	if err := c.do(ctx, http.MethodPost, apiChatCredentials, struct{}{}, authToken, &creds); err != nil {
		return models.ChatCredentials{}, errs.Wrap(errs.ErrCredentialFetchFailed, err)
	}
	if err := validateCredentials(creds.Token, creds.APIKey); err != nil {
		return models.ChatCredentials{}, errs.Wrap(errs.ErrCredentialFetchFailed, err)
	}
	return creds, nil
}

// ListUsers returns the backend's user list as sent. Callers filter out
// their own name.
func (c *Client) ListUsers(ctx context.Context, authToken string) ([]string, error) {
	var resp usersResponse
	if err := c.do(ctx, http.MethodGet, apiUsers, nil, authToken, &resp); err != nil {
		return nil, errs.Wrap(errs.ErrListUsersFailed, err)
	}
	if resp.Users == nil {
		return nil, errs.Wrap(errs.ErrListUsersFailed, fmt.Errorf("%w: missing users", errs.ErrMalformedResponse))
	}
	return *resp.Users, nil
}

func validateCredentials(tok, apiKey string) error {
	switch {
	case tok == "":
		return fmt.Errorf("%w: missing token", errs.ErrMalformedResponse)
	case apiKey == "":
		return fmt.Errorf("%w: missing apiKey", errs.ErrMalformedResponse)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, authToken string, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server error: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMalformedResponse, err)
	}
	return nil
}
