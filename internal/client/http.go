package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/groblegark/ktasks/internal/model"
)

// HTTPClient implements TasksClient using the ktasks HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- List CRUD ---

func (c *HTTPClient) CreateList(ctx context.Context, req *CreateListRequest) (*model.TaskList, error) {
	var list model.TaskList
	if err := c.doJSON(ctx, http.MethodPost, "/v1/lists", req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *HTTPClient) GetList(ctx context.Context, id string) (*model.TaskList, error) {
	var list model.TaskList
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lists/"+url.PathEscape(id), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *HTTPClient) ListLists(ctx context.Context, req *ListListsRequest) (*ListListsResponse, error) {
	q := url.Values{}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", req.Offset))
	}

	path := "/v1/lists"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListListsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateList(ctx context.Context, id string, req *UpdateListRequest) (*model.TaskList, error) {
	var list model.TaskList
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/lists/"+url.PathEscape(id), req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *HTTPClient) DeleteList(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/lists/"+url.PathEscape(id), nil, nil)
}

// --- Task CRUD ---

func (c *HTTPClient) CreateTask(ctx context.Context, req *CreateTaskRequest) (*CreateTaskResponse, error) {
	var resp CreateTaskResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	q := url.Values{}
	if req.ListID != "" {
		q.Set("list_id", req.ListID)
	}
	if len(req.Status) > 0 {
		q.Set("status", strings.Join(req.Status, ","))
	}
	if req.ParentID != "" {
		q.Set("parent_id", req.ParentID)
	}
	if len(req.Tags) > 0 {
		q.Set("tags", strings.Join(req.Tags, ","))
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Priority != nil {
		q.Set("priority", fmt.Sprintf("%d", *req.Priority))
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", req.Offset))
	}

	path := "/v1/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListTasksResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id string, req *UpdateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/tasks/"+url.PathEscape(id), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) CompleteTask(ctx context.Context, id string, completedBy string) (*CompleteTaskResponse, error) {
	body := map[string]string{}
	if completedBy != "" {
		body["completed_by"] = completedBy
	}
	var resp CompleteTaskResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/complete", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(id), nil, nil)
}

// --- Dependencies ---

func (c *HTTPClient) SetDependencies(ctx context.Context, taskID string, deps []string) (*SetDependenciesResponse, error) {
	if deps == nil {
		deps = []string{}
	}
	body := map[string][]string{"dependencies": deps}
	var resp SetDependenciesResponse
	if err := c.doJSON(ctx, http.MethodPut, "/v1/tasks/"+url.PathEscape(taskID)+"/dependencies", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ValidateDependencies(ctx context.Context, taskID string, deps []string) (*ValidationResult, error) {
	body := map[string][]string{"dependencies": deps}
	var result ValidationResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+"/dependencies/validate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Notes ---

func (c *HTTPClient) AddNote(ctx context.Context, taskID, author, text string) (*model.Note, error) {
	body := map[string]string{"author": author, "text": text}
	var note model.Note
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(taskID)+"/notes", body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *HTTPClient) GetNotes(ctx context.Context, taskID string) ([]*model.Note, error) {
	var resp struct {
		Notes []*model.Note `json:"notes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(taskID)+"/notes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notes, nil
}

// --- Events ---

func (c *HTTPClient) GetEvents(ctx context.Context, taskID string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(taskID)+"/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Analysis ---

func (c *HTTPClient) Analyze(ctx context.Context, listID string) (*model.DependencyAnalysis, error) {
	var analysis model.DependencyAnalysis
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lists/"+url.PathEscape(listID)+"/analysis", nil, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (c *HTTPClient) ReadyTasks(ctx context.Context, listID string) ([]*model.Task, error) {
	var resp struct {
		Tasks []*model.Task `json:"tasks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lists/"+url.PathEscape(listID)+"/ready", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *HTTPClient) BlockedTasks(ctx context.Context, listID string) ([]model.BlockedTaskInfo, error) {
	var resp struct {
		Tasks []model.BlockedTaskInfo `json:"tasks"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lists/"+url.PathEscape(listID)+"/blocked", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *HTTPClient) CriticalPath(ctx context.Context, listID string) (*CriticalPathResponse, error) {
	var resp CriticalPathResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lists/"+url.PathEscape(listID)+"/critical-path", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) RenderGraph(ctx context.Context, listID, format string) (string, error) {
	path := "/v1/lists/" + url.PathEscape(listID) + "/graph"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	body, err := c.doRaw(ctx, http.MethodGet, path)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// --- Stats ---

func (c *HTTPClient) GetStats(ctx context.Context) (*model.GraphStats, error) {
	var stats model.GraphStats
	if err := c.doJSON(ctx, http.MethodGet, "/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content, success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// doRaw performs a GET-style request and returns the raw response body
// (for text formats like tree and dot).
func (c *HTTPClient) doRaw(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, apiError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

func apiError(status int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: status, Message: errResp.Error}
	}
	return &APIError{StatusCode: status, Message: string(body)}
}
