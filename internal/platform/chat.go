// Package platform talks to the hosted chat platform on behalf of the
// backend. Only user registration is needed server-side; every other
// platform call is made by clients with their own user tokens.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/atinyakov/thestream/internal/models"
	"github.com/atinyakov/thestream/internal/token"
)

// ChatClient registers users on the hosted chat platform.
type ChatClient struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
}

// NewChatClient returns a ChatClient for the REST API rooted at baseURL.
func NewChatClient(httpClient *http.Client, baseURL, apiKey, apiSecret string) *ChatClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ChatClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      httpClient,
	}
}

type upsertUsersRequest struct {
	Users map[string]models.ChatUser `json:"users"`
}

// UpsertUser creates or updates user on the chat platform.
func (c *ChatClient) UpsertUser(ctx context.Context, user models.ChatUser) error {
	serverToken, err := token.ServerToken(c.apiSecret)
	if err != nil {
		return err
	}

	body, err := json.Marshal(upsertUsersRequest{Users: map[string]models.ChatUser{user.ID: user}})
	if err != nil {
		return fmt.Errorf("encode chat user: %w", err)
	}

	endpoint := c.baseURL + "/users?" + url.Values{"api_key": {c.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", serverToken)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upsert chat user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upsert chat user: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
