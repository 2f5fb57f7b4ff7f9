package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// Outcome — результат шага.
type Outcome struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExecuteResponse — результат синхронного выполнения шага.
type ExecuteResponse struct {
	RunID    string         `json:"run_id"`
	TaskType string         `json:"task_type"`
	Outcome  Outcome        `json:"outcome"`
	Context  map[string]any `json:"context"`
	Error    string         `json:"error,omitempty"`
}

// EnqueueResponse — ответ на постановку шага в очередь.
type EnqueueResponse struct {
	RunID     string `json:"run_id"`
	TaskType  string `json:"task_type"`
	MessageID string `json:"message_id"`
}

// InstanceResponse — запись инстанса из API.
type InstanceResponse struct {
	Tenant            string `json:"tenant"`
	AppInstanceID     string `json:"app_instance_id"`
	MecHost           string `json:"mec_host"`
	ApplcmHost        string `json:"applcm_host,omitempty"`
	AppPackageID      string `json:"app_package_id"`
	AppID             string `json:"app_id"`
	AppName           string `json:"app_name"`
	OperationalStatus string `json:"operational_status"`
	OperationInfo     string `json:"operation_info,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// RuleTaskResponse — запись задачи правил из API.
type RuleTaskResponse struct {
	Tenant        string `json:"tenant"`
	AppRuleTaskID string `json:"app_rule_task_id"`
	AppInstanceID string `json:"app_instance_id,omitempty"`
	AppRules      string `json:"app_rules,omitempty"`
	ConfigResult  string `json:"config_result"`
	Detailed      string `json:"detailed,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

// --- Request types ---

// ExecuteRequest — запрос на выполнение шага.
type ExecuteRequest struct {
	RunID   string         `json:"run_id,omitempty"`
	Context map[string]any `json:"context"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Appo API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// TaskTypes возвращает зарегистрированные типы шагов.
func (c *Client) TaskTypes(ctx context.Context) ([]string, error) {
	var resp struct {
		Types []string `json:"types"`
	}
	err := c.doData(ctx, http.MethodGet, "/api/v1/task-types", nil, &resp)
	return resp.Types, err
}

// Execute выполняет шаг синхронно.
func (c *Client) Execute(ctx context.Context, taskType string, req ExecuteRequest) (*ExecuteResponse, error) {
	var resp ExecuteResponse
	err := c.doData(ctx, http.MethodPost, "/api/v1/tasks/"+url.PathEscape(taskType)+"/execute", req, &resp)
	return &resp, err
}

// Enqueue ставит шаг в очередь tasks.ready.
func (c *Client) Enqueue(ctx context.Context, taskType string, req ExecuteRequest) (*EnqueueResponse, error) {
	var resp EnqueueResponse
	err := c.doData(ctx, http.MethodPost, "/api/v1/tasks/"+url.PathEscape(taskType)+"/enqueue", req, &resp)
	return &resp, err
}

// GetInstance возвращает запись инстанса.
func (c *Client) GetInstance(ctx context.Context, tenant, id string) (*InstanceResponse, error) {
	var inst InstanceResponse
	err := c.doData(ctx, http.MethodGet, tenantPath(tenant, "app_instances", id), nil, &inst)
	return &inst, err
}

// GetRuleTask возвращает запись задачи правил.
func (c *Client) GetRuleTask(ctx context.Context, tenant, id string) (*RuleTaskResponse, error) {
	var task RuleTaskResponse
	err := c.doData(ctx, http.MethodGet, tenantPath(tenant, "app_rule_tasks", id), nil, &task)
	return &task, err
}

func tenantPath(tenant, collection, id string) string {
	return "/api/v1/tenants/" + url.PathEscape(tenant) + "/" + collection + "/" + url.PathEscape(id)
}

// --- HTTP helpers ---

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
