package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lexidb/lexidb/pkg/types"
)

// Client is a thin wrapper around net/http for the wire API in pkg/api.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient overrides the underlying *http.Client, e.g. to set a
// custom Transport or Timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a Client targeting baseURL, e.g. "http://localhost:7700".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is the decoded error body the server sends back on failure.
type APIError struct {
	Status  int
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
	Link    string `json:"link"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Type, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr APIError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		apiErr.Status = resp.StatusCode
		return &apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// TaskStub is the immediate body returned by every async endpoint.
type TaskStub struct {
	TaskUID    uint64           `json:"taskUid"`
	IndexUID   string           `json:"indexUid,omitempty"`
	Status     types.TaskStatus `json:"status"`
	Type       types.TaskKind   `json:"type"`
	EnqueuedAt string           `json:"enqueuedAt"`
}

type listResponse[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}

// IndexInfo mirrors pkg/api's index response shape.
type IndexInfo struct {
	UID               string `json:"uid"`
	PrimaryKey        string `json:"primaryKey,omitempty"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
	NumberOfDocuments uint64 `json:"numberOfDocuments"`
}

// ListIndexes calls GET /indexes.
func (c *Client) ListIndexes(ctx context.Context) ([]IndexInfo, error) {
	var resp listResponse[IndexInfo]
	if err := c.do(ctx, http.MethodGet, "/indexes", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetIndex calls GET /indexes/{uid}.
func (c *Client) GetIndex(ctx context.Context, uid string) (IndexInfo, error) {
	var info IndexInfo
	err := c.do(ctx, http.MethodGet, "/indexes/"+uid, nil, nil, &info)
	return info, err
}

// CreateIndex calls POST /indexes.
func (c *Client) CreateIndex(ctx context.Context, uid, primaryKey string) (TaskStub, error) {
	var task TaskStub
	body := map[string]any{"uid": uid}
	if primaryKey != "" {
		body["primaryKey"] = primaryKey
	}
	err := c.do(ctx, http.MethodPost, "/indexes", nil, body, &task)
	return task, err
}

// UpdateIndex calls PATCH /indexes/{uid}.
func (c *Client) UpdateIndex(ctx context.Context, uid, primaryKey string) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPatch, "/indexes/"+uid, nil, map[string]any{"primaryKey": primaryKey}, &task)
	return task, err
}

// DeleteIndex calls DELETE /indexes/{uid}.
func (c *Client) DeleteIndex(ctx context.Context, uid string) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodDelete, "/indexes/"+uid, nil, nil, &task)
	return task, err
}

// SwapIndexes calls POST /swap-indexes.
func (c *Client) SwapIndexes(ctx context.Context, a, b string) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPost, "/swap-indexes", nil, map[string]any{"indexes": [2]string{a, b}}, &task)
	return task, err
}

// ListDocuments calls GET /indexes/{uid}/documents.
func (c *Client) ListDocuments(ctx context.Context, uid string, offset, limit int) ([]types.Document, error) {
	q := url.Values{"offset": {strconv.Itoa(offset)}, "limit": {strconv.Itoa(limit)}}
	var resp listResponse[types.Document]
	err := c.do(ctx, http.MethodGet, "/indexes/"+uid+"/documents", q, nil, &resp)
	return resp.Results, err
}

// GetDocument calls GET /indexes/{uid}/documents/{id}.
func (c *Client) GetDocument(ctx context.Context, uid, id string) (types.Document, error) {
	var doc types.Document
	err := c.do(ctx, http.MethodGet, "/indexes/"+uid+"/documents/"+id, nil, nil, &doc)
	return doc, err
}

// AddDocuments calls POST /indexes/{uid}/documents.
func (c *Client) AddDocuments(ctx context.Context, uid string, docs []types.Document) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPost, "/indexes/"+uid+"/documents", nil, docs, &task)
	return task, err
}

// ReplaceDocuments calls PUT /indexes/{uid}/documents.
func (c *Client) ReplaceDocuments(ctx context.Context, uid string, docs []types.Document) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPut, "/indexes/"+uid+"/documents", nil, docs, &task)
	return task, err
}

// DeleteDocument calls DELETE /indexes/{uid}/documents/{id}.
func (c *Client) DeleteDocument(ctx context.Context, uid, id string) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodDelete, "/indexes/"+uid+"/documents/"+id, nil, nil, &task)
	return task, err
}

// DeleteAllDocuments calls DELETE /indexes/{uid}/documents.
func (c *Client) DeleteAllDocuments(ctx context.Context, uid string) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodDelete, "/indexes/"+uid+"/documents", nil, nil, &task)
	return task, err
}

// DeleteDocumentsByIDs calls POST /indexes/{uid}/documents/delete-batch
// with an explicit id list.
func (c *Client) DeleteDocumentsByIDs(ctx context.Context, uid string, ids []string) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPost, "/indexes/"+uid+"/documents/delete-batch", nil, map[string]any{"ids": ids}, &task)
	return task, err
}

// DeleteDocumentsByFilter calls the same endpoint with a filter expression.
func (c *Client) DeleteDocumentsByFilter(ctx context.Context, uid, filter string) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPost, "/indexes/"+uid+"/documents/delete-batch", nil, map[string]any{"filter": filter}, &task)
	return task, err
}

// SearchRequest is the wire shape POST /indexes/{uid}/search accepts.
type SearchRequest struct {
	Q      string   `json:"q"`
	Filter string   `json:"filter,omitempty"`
	Sort   []string `json:"sort,omitempty"`
	Facets []string `json:"facets,omitempty"`
	Offset int      `json:"offset,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// SearchHit is one ranked, formatted result document.
type SearchHit struct {
	Document types.Document `json:"document"`
	Score    float64        `json:"score"`
}

// SearchResult is the wire shape of a search response.
type SearchResult struct {
	Hits               []SearchHit                   `json:"hits"`
	EstimatedTotalHits int                            `json:"estimatedTotalHits"`
	FacetDistribution  map[string]map[string]uint64   `json:"facetDistribution,omitempty"`
	ProcessingTimeMs   int64                          `json:"processingTimeMs"`
}

// Search calls POST /indexes/{uid}/search.
func (c *Client) Search(ctx context.Context, uid string, req SearchRequest) (SearchResult, error) {
	var result SearchResult
	err := c.do(ctx, http.MethodPost, "/indexes/"+uid+"/search", nil, req, &result)
	return result, err
}

// FacetHit is one value/count pair in a facet search result.
type FacetHit struct {
	Value string `json:"value"`
	Count uint64 `json:"count"`
}

// FacetSearch calls POST /indexes/{uid}/facet-search.
func (c *Client) FacetSearch(ctx context.Context, uid, facetName, facetQuery, filter string) ([]FacetHit, error) {
	var resp struct {
		FacetHits []FacetHit `json:"facetHits"`
	}
	body := map[string]any{"facetName": facetName}
	if facetQuery != "" {
		body["facetQuery"] = facetQuery
	}
	if filter != "" {
		body["filter"] = filter
	}
	err := c.do(ctx, http.MethodPost, "/indexes/"+uid+"/facet-search", nil, body, &resp)
	return resp.FacetHits, err
}

// GetSettings calls GET /indexes/{uid}/settings.
func (c *Client) GetSettings(ctx context.Context, uid string) (types.Settings, error) {
	var s types.Settings
	err := c.do(ctx, http.MethodGet, "/indexes/"+uid+"/settings", nil, nil, &s)
	return s, err
}

// UpdateSettings calls PATCH /indexes/{uid}/settings.
func (c *Client) UpdateSettings(ctx context.Context, uid string, patch types.Settings) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPatch, "/indexes/"+uid+"/settings", nil, patch, &task)
	return task, err
}

// ResetSettings calls DELETE /indexes/{uid}/settings.
func (c *Client) ResetSettings(ctx context.Context, uid string) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodDelete, "/indexes/"+uid+"/settings", nil, nil, &task)
	return task, err
}

// ListTasks calls GET /tasks.
func (c *Client) ListTasks(ctx context.Context, indexUID string) ([]types.Task, error) {
	q := url.Values{}
	if indexUID != "" {
		q.Set("indexUid", indexUID)
	}
	var resp listResponse[types.Task]
	err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &resp)
	return resp.Results, err
}

// GetTask calls GET /tasks/{uid}.
func (c *Client) GetTask(ctx context.Context, uid uint64) (types.Task, error) {
	var task types.Task
	err := c.do(ctx, http.MethodGet, "/tasks/"+strconv.FormatUint(uid, 10), nil, nil, &task)
	return task, err
}

// WaitForTask polls GetTask until the task reaches a terminal status or
// ctx is canceled.
func (c *Client) WaitForTask(ctx context.Context, uid uint64, pollInterval time.Duration) (types.Task, error) {
	for {
		task, err := c.GetTask(ctx, uid)
		if err != nil {
			return task, err
		}
		if task.Status.IsTerminal() {
			return task, nil
		}
		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// CancelTasks calls POST /tasks/cancel.
func (c *Client) CancelTasks(ctx context.Context, indexUID string, uids []uint64) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPost, "/tasks/cancel", nil, map[string]any{"indexUid": indexUID, "uids": uids}, &task)
	return task, err
}

// DeleteTasks calls POST /tasks/delete.
func (c *Client) DeleteTasks(ctx context.Context, indexUID string, uids []uint64) (TaskStub, error) {
	var task TaskStub
	err := c.do(ctx, http.MethodPost, "/tasks/delete", nil, map[string]any{"indexUid": indexUID, "uids": uids}, &task)
	return task, err
}

// ListKeys calls GET /keys.
func (c *Client) ListKeys(ctx context.Context) ([]types.APIKey, error) {
	var resp listResponse[types.APIKey]
	err := c.do(ctx, http.MethodGet, "/keys", nil, nil, &resp)
	return resp.Results, err
}

// CreateKey calls POST /keys.
func (c *Client) CreateKey(ctx context.Context, name, description string, actions []types.Action, indexes []string) (types.APIKey, error) {
	var key types.APIKey
	body := map[string]any{"name": name, "description": description, "actions": actions, "indexes": indexes}
	err := c.do(ctx, http.MethodPost, "/keys", nil, body, &key)
	return key, err
}

// GetKey calls GET /keys/{uid}.
func (c *Client) GetKey(ctx context.Context, uid string) (types.APIKey, error) {
	var key types.APIKey
	err := c.do(ctx, http.MethodGet, "/keys/"+uid, nil, nil, &key)
	return key, err
}

// RevokeKey calls DELETE /keys/{uid}.
func (c *Client) RevokeKey(ctx context.Context, uid string) error {
	return c.do(ctx, http.MethodDelete, "/keys/"+uid, nil, nil, nil)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var health map[string]any
	err := c.do(ctx, http.MethodGet, "/health", nil, nil, &health)
	return health, err
}

// Stats calls GET /stats.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &stats)
	return stats, err
}

// Version calls GET /version.
func (c *Client) Version(ctx context.Context) (map[string]any, error) {
	var version map[string]any
	err := c.do(ctx, http.MethodGet, "/version", nil, nil, &version)
	return version, err
}
