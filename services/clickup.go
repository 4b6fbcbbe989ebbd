package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/taskgrid/taskgrid/board"
)

const clickupAPIBase = "https://api.clickup.com/api/v2"

// ecodeMessages maps known ClickUp business error codes to user-facing
// messages. Codes without a mapping fall back to the raw err string.
var ecodeMessages = map[string]string{
	"ITEM_227": "The Sprint Points ClickApp is not enabled.",
}

// RemoteError is a ClickUp business error, already translated to a message
// suitable for showing to the user.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("clickup: %s (code %s)", e.Message, e.Code)
}

// ClickUpTask is the payload for creating a task in a ClickUp list.
type ClickUpTask struct {
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Tags         []string             `json:"tags,omitempty"`
	Points       int                  `json:"points,omitempty"`
	Priority     int                  `json:"priority,omitempty"`
	CustomFields []ClickUpCustomField `json:"custom_fields,omitempty"`
}

type ClickUpCustomField struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// ClickUpTaskSummary is the subset of a remote task the board cares about.
type ClickUpTaskSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// ClickUpClient is a thin client for the ClickUp REST API.
type ClickUpClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClickUpClient(apiKey string) *ClickUpClient {
	return NewClickUpClientAt(apiKey, clickupAPIBase)
}

// NewClickUpClientAt points the client at a non-default API base URL.
func NewClickUpClientAt(apiKey, baseURL string) *ClickUpClient {
	return &ClickUpClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Configured reports whether an API key is present. Sync actions on an
// unconfigured client fail before any request is made.
func (c *ClickUpClient) Configured() bool {
	return c.apiKey != ""
}

// CreateTask creates a task in the given list and returns the remote task id.
func (c *ClickUpClient) CreateTask(ctx context.Context, listID string, task ClickUpTask) (string, error) {
	var created ClickUpTaskSummary
	url := fmt.Sprintf("%s/list/%s/task", c.baseURL, listID)
	if err := c.do(ctx, http.MethodPost, url, task, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// ListTasks returns the tasks in a ClickUp list.
func (c *ClickUpClient) ListTasks(ctx context.Context, listID string) ([]ClickUpTaskSummary, error) {
	var resp struct {
		Tasks []ClickUpTaskSummary `json:"tasks"`
	}
	url := fmt.Sprintf("%s/list/%s/task", c.baseURL, listID)
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// SetCustomField writes a custom field value on a remote task. Used to pair
// the remote task with the board task's serial id.
func (c *ClickUpClient) SetCustomField(ctx context.Context, taskID, fieldID string, value any) error {
	url := fmt.Sprintf("%s/task/%s/field/%s", c.baseURL, taskID, fieldID)
	body := map[string]any{"value": value}
	return c.do(ctx, http.MethodPost, url, body, nil)
}

func (c *ClickUpClient) do(ctx context.Context, method, url string, body, out any) error {
	if !c.Configured() {
		return &board.BackendError{Status: http.StatusInternalServerError, Message: "ClickUp API key not configured"}
	}

	var reqBody *bytes.Buffer
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(buf)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &board.BackendError{Status: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return &board.BackendError{Status: resp.StatusCode, Message: "malformed response from ClickUp"}
	}

	// ClickUp reports business errors in the body as {err, ECODE},
	// sometimes with a 200 status. Translate those before anything else.
	var bizErr struct {
		Err   string `json:"err"`
		Ecode string `json:"ECODE"`
	}
	if err := json.Unmarshal(raw, &bizErr); err == nil && (bizErr.Err != "" || bizErr.Ecode != "") {
		msg := bizErr.Err
		if mapped, ok := ecodeMessages[bizErr.Ecode]; ok {
			msg = mapped
		}
		if msg == "" {
			msg = "Unknown ClickUp error"
		}
		return &RemoteError{Code: bizErr.Ecode, Message: msg}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &board.BackendError{Status: resp.StatusCode, Message: fmt.Sprintf("ClickUp returned status %d", resp.StatusCode)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &board.BackendError{Status: resp.StatusCode, Message: "malformed response from ClickUp"}
		}
	}
	return nil
}
