package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
	"github.com/shaiso/Appo/internal/telemetry"
)

// Сообщения шага сервиса пакетов.
const (
	msgInvalidAPMAction = "Invalid APM action"
	msgPackageNotFound  = "File not found or malformed url"
	msgPackageIO        = "io exception"
)

const (
	apmDownloadPath    = "/download"
	headerAccessToken  = "access_token"
	defaultHTTPTimeout = 30 * time.Second
)

// APMConfig — конфигурация APMTask.
type APMConfig struct {
	// Endpoint — базовый URL сервиса пакетов.
	Endpoint string

	// PackagePath — корень для пакетов: <root>/<instance id>/<package id>.
	PackagePath string

	// Client — HTTP клиент; если nil, создаётся с Timeout.
	Client  *http.Client
	Timeout time.Duration
}

// APMTask — шаг скачивания пакета приложения из APM.
//
// Пакет пишется во временный файл в каталоге назначения и переименовывается
// только после полного скачивания. Каталог <root>/<instance id> должен
// существовать заранее.
type APMTask struct {
	endpoint    string
	packagePath string
	client      *http.Client
}

// NewAPMTask создаёт новый APMTask.
func NewAPMTask(cfg APMConfig) *APMTask {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &APMTask{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		packagePath: cfg.PackagePath,
		client:      client,
	}
}

// Type возвращает тип шага.
func (t *APMTask) Type() string {
	return TypeAPM
}

// Execute выполняет операцию из operationType (только download).
func (t *APMTask) Execute(ctx context.Context, ec *execution.Context) error {
	raw, _ := ec.String(execution.KeyOperationType)
	op, ok := ParseAPMOperation(raw)
	if !ok {
		telemetry.FromContext(ctx).Info("invalid APM action", "operation", raw)
		protocol.Failure(ec, protocol.CodeFlowError, msgInvalidAPMAction)
		return nil
	}

	switch op {
	case APMDownload:
		return t.download(ctx, ec)
	default:
		protocol.Failure(ec, protocol.CodeFlowError, msgInvalidAPMAction)
		return nil
	}
}

func (t *APMTask) download(ctx context.Context, ec *execution.Context) error {
	logger := telemetry.FromContext(ctx)

	tenant, err := requireString(ec, execution.KeyTenantID)
	if err != nil {
		return err
	}
	packageID, err := requireString(ec, execution.KeyAppPackageID)
	if err != nil {
		return err
	}
	instanceID, err := requireString(ec, execution.KeyAppInstanceID)
	if err != nil {
		return err
	}

	logger.Info("download package from APM", "app_package_id", packageID, "app_instance_id", instanceID)

	downloadURL, err := t.downloadURL(tenant, packageID)
	if err != nil {
		return t.notFound(ec, err)
	}

	dir, err := t.destinationDir(instanceID, packageID)
	if err != nil {
		return t.notFound(ec, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return t.notFound(ec, err)
	}
	if token, ok := ec.String(execution.KeyAccessToken); ok {
		req.Header.Set(headerAccessToken, token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		logger.Debug("failed to download application package from APM", "error", err)
		return t.ioFailure(ec, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return t.notFound(ec, fmt.Errorf("apm returned %s", resp.Status))
	}

	if err := writeAtomically(dir, packageID, resp.Body); err != nil {
		logger.Debug("failed to store application package", "error", err)
		return t.ioFailure(ec, err)
	}

	protocol.Success(ec, protocol.MsgOK)
	return nil
}

// downloadURL собирает <endpoint>/download?tenantId=..&appPackageId=..
func (t *APMTask) downloadURL(tenant, packageID string) (string, error) {
	u, err := url.Parse(t.endpoint + apmDownloadPath)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("malformed apm endpoint %q", t.endpoint)
	}

	q := u.Query()
	q.Set("tenantId", tenant)
	q.Set("appPackageId", packageID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// destinationDir проверяет идентификаторы и существование каталога инстанса.
func (t *APMTask) destinationDir(instanceID, packageID string) (string, error) {
	for _, name := range []string{instanceID, packageID} {
		if name == "." || name == ".." || filepath.Base(name) != name {
			return "", fmt.Errorf("invalid path element %q", name)
		}
	}

	dir := filepath.Join(t.packagePath, instanceID)
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return dir, nil
}

func (t *APMTask) notFound(ec *execution.Context, cause error) error {
	protocol.Failure(ec, protocol.CodeFlowError, msgPackageNotFound)
	return fmt.Errorf("%w: %v", ErrPackageNotFound, cause)
}

func (t *APMTask) ioFailure(ec *execution.Context, cause error) error {
	protocol.Failure(ec, protocol.CodeFlowError, msgPackageIO)
	return fmt.Errorf("%w: %v", ErrPackageIO, cause)
}

// writeAtomically копирует поток во временный файл в dir и переименовывает его в name.
// При любой ошибке временный файл удаляется, name не появляется.
func writeAtomically(dir, name string, r io.Reader) (err error) {
	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return fmt.Errorf("copy package: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync package: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close package: %w", err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("rename package: %w", err)
	}
	return nil
}

