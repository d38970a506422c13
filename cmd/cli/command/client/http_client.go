package client

// http_client.go = talks to the jobchat API on behalf of the CLI.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Identity is how the CLI tells the API who is calling: either a bearer
// token or the gateway-style actor headers.
type Identity struct {
	ActorType string // task_owner | crew
	OwnerID   int64
	CrewID    int64
	Token     string
}

// APIError carries the status and the server's error message
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// defines the HTTP client structure and methods
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	identity   Identity
}

type ChatRoom struct {
	ID         int64     `json:"id"`
	JobID      int64     `json:"job_id"`
	IsReadOnly bool      `json:"is_read_only"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID                int64     `json:"id"`
	ChatRoomID        int64     `json:"chat_room_id"`
	SenderType        string    `json:"sender_type"`
	SenderOwnerUserID *int64    `json:"sender_owner_user_id"`
	SenderCrewID      *int64    `json:"sender_crew_id"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"created_at"`
}

type ChatMessagesPage struct {
	Messages   []ChatMessage `json:"messages"`
	NextCursor *string       `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

type UnreadCount struct {
	ChatRoomID  int64 `json:"chat_room_id"`
	UnreadCount int64 `json:"unread_count"`
}

type Job struct {
	ID             int64     `json:"id"`
	OwnerID        int64     `json:"owner_id"`
	AssignedCrewID *int64    `json:"assigned_crew_id"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// constructor for HTTP client
func NewHTTPClient(apiURL string, identity Identity) *HTTPClient {
	return &HTTPClient{
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		identity: identity,
	}
}

func (c *HTTPClient) GetRoom(ctx context.Context, jobID int64) (*ChatRoom, error) {
	var room ChatRoom
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/chat/jobs/%d/room", jobID), nil, &room)
	return &room, err
}

func (c *HTTPClient) ListMessages(ctx context.Context, roomID int64, cursor string, limit int) (*ChatMessagesPage, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := fmt.Sprintf("/api/v1/chat/rooms/%d/messages", roomID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page ChatMessagesPage
	err := c.do(ctx, http.MethodGet, path, nil, &page)
	return &page, err
}

func (c *HTTPClient) SendMessage(ctx context.Context, roomID int64, content string) (*ChatMessage, error) {
	var msg ChatMessage
	body := map[string]string{"content": content}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/chat/rooms/%d/messages", roomID), body, &msg)
	return &msg, err
}

func (c *HTTPClient) MarkRead(ctx context.Context, roomID, messageID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/chat/rooms/%d/messages/%d/read", roomID, messageID), nil, nil)
}

func (c *HTTPClient) UnreadCount(ctx context.Context, roomID int64) (*UnreadCount, error) {
	var count UnreadCount
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/chat/rooms/%d/unread", roomID), nil, &count)
	return &count, err
}

func (c *HTTPClient) GetJob(ctx context.Context, jobID int64) (*Job, error) {
	var job Job
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%d", jobID), nil, &job)
	return &job, err
}

func (c *HTTPClient) UpdateJobStatus(ctx context.Context, jobID int64, status string) (*Job, error) {
	var job Job
	body := map[string]string{"status": status}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/jobs/%d/status", jobID), body, &job)
	return &job, err
}

func (c *HTTPClient) AssignCrew(ctx context.Context, jobID, crewID int64) (*Job, error) {
	var job Job
	body := map[string]int64{"crew_id": crewID}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/jobs/%d/assignment", jobID), body, &job)
	return &job, err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyIdentity(req)

	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close() // Ensure the response body is closed

	if response.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(response.Body).Decode(&payload)
		return &APIError{StatusCode: response.StatusCode, Message: payload.Error}
	}

	if out == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) applyIdentity(req *http.Request) {
	if c.identity.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.identity.Token)
		return
	}
	if c.identity.ActorType == "" {
		return
	}
	req.Header.Set("X-Actor-Type", c.identity.ActorType)
	if c.identity.OwnerID > 0 {
		req.Header.Set("X-Owner-User-Id", strconv.FormatInt(c.identity.OwnerID, 10))
	}
	if c.identity.CrewID > 0 {
		req.Header.Set("X-Crew-Id", strconv.FormatInt(c.identity.CrewID, 10))
	}
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
