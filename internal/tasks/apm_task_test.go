package tasks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
)

func downloadContext() *execution.Context {
	return newContext(map[execution.Key]any{
		execution.KeyOperationType: "download",
		execution.KeyTenantID:      "t1",
		execution.KeyAppInstanceID: "i1",
		execution.KeyAppPackageID:  "pkg1",
		execution.KeyAccessToken:   "secret",
	})
}

// packageRoot создаёт <root>/i1 и возвращает root.
func packageRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "i1"), 0o755))
	return root
}

func TestAPMTask_Download(t *testing.T) {
	payload := strings.Repeat("csar-bytes-", 4096)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apm/v1/download", r.URL.Path)
		assert.Equal(t, "t1", r.URL.Query().Get("tenantId"))
		assert.Equal(t, "pkg1", r.URL.Query().Get("appPackageId"))
		assert.Equal(t, "secret", r.Header.Get("access_token"))
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	root := packageRoot(t)
	task := NewAPMTask(APMConfig{Endpoint: server.URL + "/apm/v1", PackagePath: root})
	ec := downloadContext()

	require.NoError(t, task.Execute(context.Background(), ec))
	assert.Equal(t, protocol.Outcome{Code: "200", Message: "OK"}, protocol.Current(ec))

	data, err := os.ReadFile(filepath.Join(root, "i1", "pkg1"))
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	// Временных файлов не осталось
	entries, err := os.ReadDir(filepath.Join(root, "i1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAPMTask_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	root := packageRoot(t)
	task := NewAPMTask(APMConfig{Endpoint: endpoint, PackagePath: root})
	ec := downloadContext()

	err := task.Execute(context.Background(), ec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPackageIO), "got %v", err)
	assert.Equal(t, protocol.Outcome{Code: "500", Message: "io exception"}, protocol.Current(ec))

	entries, err := os.ReadDir(filepath.Join(root, "i1"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial file must remain")
}

func TestAPMTask_TruncatedStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
		w.(http.Flusher).Flush()

		// Обрыв соединения посреди тела
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer server.Close()

	root := packageRoot(t)
	task := NewAPMTask(APMConfig{Endpoint: server.URL, PackagePath: root})
	ec := downloadContext()

	err := task.Execute(context.Background(), ec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPackageIO)
	assert.Equal(t, protocol.Outcome{Code: "500", Message: "io exception"}, protocol.Current(ec))

	// Ни пакета, ни временного файла
	entries, err := os.ReadDir(filepath.Join(root, "i1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAPMTask_RemoteNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	root := packageRoot(t)
	task := NewAPMTask(APMConfig{Endpoint: server.URL, PackagePath: root})
	ec := downloadContext()

	err := task.Execute(context.Background(), ec)
	assert.ErrorIs(t, err, ErrPackageNotFound)
	assert.Equal(t, protocol.Outcome{Code: "500", Message: "File not found or malformed url"}, protocol.Current(ec))

	_, statErr := os.Stat(filepath.Join(root, "i1", "pkg1"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestAPMTask_MalformedEndpoint(t *testing.T) {
	task := NewAPMTask(APMConfig{Endpoint: "not a url", PackagePath: packageRoot(t)})
	ec := downloadContext()

	err := task.Execute(context.Background(), ec)
	assert.ErrorIs(t, err, ErrPackageNotFound)
	assert.Equal(t, "File not found or malformed url", protocol.Current(ec).Message)
}

func TestAPMTask_MissingDirectory(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	task := NewAPMTask(APMConfig{Endpoint: server.URL, PackagePath: t.TempDir()})
	ec := downloadContext()

	err := task.Execute(context.Background(), ec)
	assert.ErrorIs(t, err, ErrPackageNotFound)
	assert.False(t, called, "download must not start without destination directory")
}

func TestAPMTask_PathTraversal(t *testing.T) {
	task := NewAPMTask(APMConfig{Endpoint: "http://127.0.0.1:1", PackagePath: packageRoot(t)})
	ec := downloadContext()
	ec.Set(execution.KeyAppPackageID, "../escape")

	err := task.Execute(context.Background(), ec)
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestAPMTask_InvalidAction(t *testing.T) {
	task := NewAPMTask(APMConfig{Endpoint: "http://127.0.0.1:1", PackagePath: t.TempDir()})
	ec := newContext(map[execution.Key]any{execution.KeyOperationType: "upload"})

	require.NoError(t, task.Execute(context.Background(), ec))
	assert.Equal(t, protocol.Outcome{Code: "500", Message: "Invalid APM action"}, protocol.Current(ec))
}

func TestAPMTask_MissingInput(t *testing.T) {
	task := NewAPMTask(APMConfig{Endpoint: "http://127.0.0.1:1", PackagePath: t.TempDir()})
	ec := newContext(map[execution.Key]any{
		execution.KeyOperationType: "download",
		execution.KeyTenantID:      "t1",
	})

	err := task.Execute(context.Background(), ec)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Equal(t, "app_package_id is required", protocol.Current(ec).Message)
}
