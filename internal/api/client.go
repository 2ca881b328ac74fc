// Package api is the typed client for the church backend's REST API. Every
// persistence operation in the viewer goes through here. Failures are mapped
// to user-facing errors at this boundary and leave local state untouched.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/logger"

	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// Client talks to the backend REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a Client for the given base URL, e.g. "https://church.example/api"
func New(baseURL string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: log,
	}
}

// WithToken returns a derived client whose requests carry the member's
// bearer token. Guests keep using the unauthenticated client.
func (c *Client) WithToken(token string) *Client {
	if token == "" {
		return c
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	authed := oauth2.NewClient(context.Background(), src)
	authed.Timeout = defaultTimeout
	return &Client{
		baseURL:    c.baseURL,
		httpClient: authed,
		logger:     c.logger,
	}
}

// ActiveStreams retrieves the streams administrators currently expose
func (c *Client) ActiveStreams(ctx context.Context) ([]domain.Stream, error) {
	var payloads []streamPayload
	if err := c.get(ctx, "/streams/active", &payloads); err != nil {
		return nil, err
	}
	streams := make([]domain.Stream, 0, len(payloads))
	for _, p := range payloads {
		streams = append(streams, p.toDomain())
	}
	return streams, nil
}

// Stream retrieves a single stream's current state, including its
// like count and reaction tallies
func (c *Client) Stream(ctx context.Context, id string) (domain.Stream, error) {
	var payload streamPayload
	if err := c.get(ctx, "/stream/"+url.PathEscape(id), &payload); err != nil {
		return domain.Stream{}, err
	}
	return payload.toDomain(), nil
}

// LikeStream increments a stream's like count
func (c *Client) LikeStream(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPost, "/stream/"+url.PathEscape(id)+"/like", nil, nil)
}

// Comments retrieves the moderated comment thread for a stream
func (c *Client) Comments(ctx context.Context, streamID string) ([]domain.Message, error) {
	var payloads []messagePayload
	if err := c.get(ctx, "/comments/"+url.PathEscape(streamID), &payloads); err != nil {
		return nil, err
	}
	return toMessages(payloads, domain.KindComment), nil
}

// PostComment submits a new comment
func (c *Client) PostComment(ctx context.Context, req CommentRequest) error {
	return c.send(ctx, http.MethodPost, "/comment", req, nil)
}

// ChatMessages retrieves a stream's live-chat or prayer-request thread
func (c *Client) ChatMessages(ctx context.Context, streamID string, kind domain.MessageKind) ([]domain.Message, error) {
	path := fmt.Sprintf("/chat-messages/%s?messageType=%s", url.PathEscape(streamID), string(kind))
	var payloads []messagePayload
	if err := c.get(ctx, path, &payloads); err != nil {
		return nil, err
	}
	return toMessages(payloads, kind), nil
}

// PostChatMessage submits a live-chat or prayer-request message
func (c *Client) PostChatMessage(ctx context.Context, req ChatMessageRequest) error {
	return c.send(ctx, http.MethodPost, "/chat-message", req, nil)
}

// ReactToMessage adds one reaction of the given category to a message.
// Each call is one more increment; there is no idempotency key.
func (c *Client) ReactToMessage(ctx context.Context, messageID string, category domain.ReactionCategory) error {
	path := "/chat-message/" + url.PathEscape(messageID) + "/reaction"
	return c.send(ctx, http.MethodPut, path, messageReactionRequest{Category: string(category)}, nil)
}

// SubmitStreamReaction adds one stream-level reaction
func (c *Client) SubmitStreamReaction(ctx context.Context, req StreamReactionRequest) error {
	return c.send(ctx, http.MethodPost, "/stream-reaction", req, nil)
}

// RegisterUser registers a member account and returns the stored profile
// with its bearer token
func (c *Client) RegisterUser(ctx context.Context, req RegistrationRequest) (RegisteredUser, error) {
	var user RegisteredUser
	if err := c.send(ctx, http.MethodPost, "/user/register", req, &user); err != nil {
		return RegisteredUser{}, err
	}
	return user, nil
}

// PostGeneralChat sends a direct-chat message to the admins. When the
// request carries no ChatID the backend creates a session and returns its
// id; callers persist it and reuse it for subsequent messages.
func (c *Client) PostGeneralChat(ctx context.Context, req GeneralChatRequest) (string, error) {
	var resp generalChatResponse
	if err := c.send(ctx, http.MethodPost, "/general-chat", req, &resp); err != nil {
		return "", err
	}
	if resp.ChatID != "" {
		return resp.ChatID, nil
	}
	return req.ChatID, nil
}

// GeneralChatMessages retrieves the direct-chat session's messages
func (c *Client) GeneralChatMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	path := "/general-chat/" + url.PathEscape(chatID) + "/messages"
	var payloads []messagePayload
	if err := c.get(ctx, path, &payloads); err != nil {
		return nil, err
	}
	return toMessages(payloads, domain.KindChat), nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

// send performs one request/response round trip. Non-2xx responses become
// UserMessageError values carrying the server-provided message when one is
// present, a generic one otherwise.
func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return domain.NewUserMessageError(
			fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err),
			"Unable to reach the server",
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("failed to decode backend response", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return domain.NewUserMessageError(
			fmt.Errorf("failed to decode response: %w", err),
			"Something went wrong, please try again",
		)
	}
	return nil
}

func (c *Client) errorFromResponse(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var parsed errorResponse
	_ = json.Unmarshal(raw, &parsed)

	c.logger.Warn("backend returned non-OK status", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
	})

	base := fmt.Errorf("backend returned status %d for %s %s", resp.StatusCode, method, path)
	if resp.StatusCode == http.StatusNotFound {
		base = fmt.Errorf("%w: %s %s", domain.ErrNotFound, method, path)
	}

	userMsg := parsed.text()
	if userMsg == "" {
		userMsg = "Something went wrong, please try again"
	}
	return domain.NewUserMessageError(base, userMsg)
}
