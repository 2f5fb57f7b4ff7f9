package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Appo/internal/domain"
	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/mq"
	"github.com/shaiso/Appo/internal/protocol"
	"github.com/shaiso/Appo/internal/repo"
	"github.com/shaiso/Appo/internal/tasks"
)

type echoTask struct{}

func (echoTask) Type() string { return "appo.echo" }

func (echoTask) Execute(_ context.Context, ec *execution.Context) error {
	name, ok := ec.String(execution.KeyAppName)
	if !ok {
		protocol.Failure(ec, protocol.CodeFlowError, "app_name is required")
		return nil
	}
	ec.Set(execution.KeyAppInstanceInfo, map[string]any{"app_name": name})
	protocol.Success(ec, protocol.MsgSuccess)
	return nil
}

type fakeRecords struct {
	instances map[string]*domain.AppInstance
	ruleTasks map[string]*domain.AppRuleTask
	err       error
}

func (f *fakeRecords) GetInstance(_ context.Context, tenant, id string) (*domain.AppInstance, error) {
	if f.err != nil {
		return nil, f.err
	}
	inst, ok := f.instances[tenant+"/"+id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return inst, nil
}

func (f *fakeRecords) GetRuleTask(_ context.Context, tenant, id string) (*domain.AppRuleTask, error) {
	if f.err != nil {
		return nil, f.err
	}
	task, ok := f.ruleTasks[tenant+"/"+id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return task, nil
}

type fakeEnqueuer struct {
	payloads []mq.TaskReadyPayload
}

func (f *fakeEnqueuer) PublishTaskReady(_ context.Context, p mq.TaskReadyPayload) (string, error) {
	f.payloads = append(f.payloads, p)
	return "msg-1", nil
}

func newTestServer(t *testing.T, records RecordReader, enq TaskEnqueuer) *httptest.Server {
	t.Helper()

	h := NewHandler(Config{
		Tasks:     tasks.NewRegistry(echoTask{}),
		Records:   records,
		Publisher: enq,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}

func decodeError(t *testing.T, resp *http.Response) ErrorDetail {
	t.Helper()
	var env ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Error
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestListTaskTypes(t *testing.T) {
	srv := newTestServer(t, &fakeRecords{}, nil)

	resp, err := http.Get(srv.URL + "/api/v1/task-types")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"appo.echo"}, decodeData[TaskTypesResponse](t, resp).Types)
}

func TestExecuteTask_Success(t *testing.T) {
	srv := newTestServer(t, &fakeRecords{}, nil)

	resp := post(t, srv.URL+"/api/v1/tasks/appo.echo/execute",
		`{"run_id":"6f1c3a52-4d8e-4b43-9a51-0f4f9e2f6c11","context":{"app_name":"demo"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeData[ExecuteTaskResponse](t, resp)

	assert.Equal(t, "6f1c3a52-4d8e-4b43-9a51-0f4f9e2f6c11", data.RunID)
	assert.Equal(t, "appo.echo", data.TaskType)
	assert.Equal(t, protocol.Outcome{Code: "200", Message: "success"}, data.Outcome)
	require.NotNil(t, data.Context)
	rec, ok := data.Context.Record(execution.KeyAppInstanceInfo)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"app_name": "demo"}, rec)
}

func TestExecuteTask_FailureOutcomeIsStill200(t *testing.T) {
	srv := newTestServer(t, &fakeRecords{}, nil)

	resp := post(t, srv.URL+"/api/v1/tasks/appo.echo/execute", `{"context":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeData[ExecuteTaskResponse](t, resp)
	assert.Equal(t, "500", data.Outcome.Code)
	assert.Equal(t, "app_name is required", data.Outcome.Message)
	assert.NotEmpty(t, data.RunID, "run id is generated when absent")
}

// ctxAwareTask записывает, был ли ctx отменён к моменту выполнения.
type ctxAwareTask struct{}

func (ctxAwareTask) Type() string { return "appo.ctx" }

func (ctxAwareTask) Execute(ctx context.Context, ec *execution.Context) error {
	if err := ctx.Err(); err != nil {
		protocol.Failure(ec, protocol.CodeFlowError, "interrupted")
		return err
	}
	protocol.Success(ec, protocol.MsgSuccess)
	return nil
}

func TestExecuteTask_ClientDisconnectDoesNotInterruptStep(t *testing.T) {
	h := NewHandler(Config{
		Tasks:  tasks.NewRegistry(ctxAwareTask{}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Клиент ушёл до выполнения шага
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/appo.ctx/execute",
		strings.NewReader(`{"context":{"tenant_id":"t1"}}`)).WithContext(ctx)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data ExecuteTaskResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, protocol.Outcome{Code: "200", Message: "success"}, env.Data.Outcome)
	assert.Empty(t, env.Data.Error)
}

func TestExecuteTask_BadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeRecords{}, nil)

	resp := post(t, srv.URL+"/api/v1/tasks/appo.nope/execute", `{"context":{}}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, srv.URL+"/api/v1/tasks/appo.echo/execute", `{"context":{"bogus":1}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/api/v1/tasks/appo.echo/execute", `{"run_id":"not-a-uuid","context":{}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, ErrCodeValidation, decodeError(t, resp).Code)

	resp = post(t, srv.URL+"/api/v1/tasks/appo.echo/execute", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEnqueueTask(t *testing.T) {
	enq := &fakeEnqueuer{}
	srv := newTestServer(t, &fakeRecords{}, enq)

	resp := post(t, srv.URL+"/api/v1/tasks/appo.echo/enqueue", `{"context":{"app_name":"demo"}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	data := decodeData[EnqueueTaskResponse](t, resp)
	assert.Equal(t, "msg-1", data.MessageID)
	require.Len(t, enq.payloads, 1)
	assert.Equal(t, "appo.echo", enq.payloads[0].TaskType)
	assert.Equal(t, data.RunID, enq.payloads[0].RunID)
}

func TestEnqueueTask_NoPublisher(t *testing.T) {
	srv := newTestServer(t, &fakeRecords{}, nil)

	resp := post(t, srv.URL+"/api/v1/tasks/appo.echo/enqueue", `{"context":{}}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetAppInstance(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := &fakeRecords{instances: map[string]*domain.AppInstance{
		"t1/i1": {
			Tenant:            "t1",
			AppInstanceID:     "i1",
			AppName:           "demo",
			OperationalStatus: domain.StatusCreating,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}}
	srv := newTestServer(t, records, nil)

	resp, err := http.Get(srv.URL + "/api/v1/tenants/t1/app_instances/i1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeData[AppInstanceResponse](t, resp)
	assert.Equal(t, "demo", data.AppName)
	assert.Equal(t, "Creating", data.OperationalStatus)

	resp2, err := http.Get(srv.URL + "/api/v1/tenants/t1/app_instances/missing")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestGetAppRuleTask(t *testing.T) {
	records := &fakeRecords{ruleTasks: map[string]*domain.AppRuleTask{
		"t1/r1": {Tenant: "t1", AppRuleTaskID: "r1", AppRules: `{"dns":[]}`},
	}}
	srv := newTestServer(t, records, nil)

	resp, err := http.Get(srv.URL + "/api/v1/tenants/t1/app_rule_tasks/r1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PENDING", decodeData[AppRuleTaskResponse](t, resp).ConfigResult)
}

func TestGetAppRuleTask_StoreFailure(t *testing.T) {
	srv := newTestServer(t, &fakeRecords{err: errors.New("connection reset")}, nil)

	resp, err := http.Get(srv.URL + "/api/v1/tenants/t1/app_rule_tasks/r1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", decodeError(t, resp).Message)
}
