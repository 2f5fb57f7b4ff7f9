package tasks

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net"
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

// Сообщения шага платформы.
const (
	msgInvalidMEPMAction  = "Invalid MEPM action"
	msgMEPMRequestFailed  = "Failed to connect to MEPM"
	msgMEPMPackageMissing = "Failed to read app package"
)

const (
	mepmBasePath    = "/lcmcontroller/v1"
	maxResponseBody = 10 * 1024 * 1024 // 10 MB
)

// MEPM — операция жизненного цикла на app LCM controller edge-хоста.
//
// Создаётся MEPMAdapter на каждое выполнение: один контекст, одна операция.
// Ответ платформы записывается как есть (protocol.Remote), а следующий
// шаг реестра разбирает его по коду ответа.
type MEPM struct {
	ec          *execution.Context
	sslEnabled  bool
	packagePath string
	client      *http.Client
}

// NewMEPM создаёт операцию платформы.
// trust используется только при sslEnabled.
func NewMEPM(ec *execution.Context, sslEnabled bool, packagePath string, trust *TrustStore, timeout time.Duration) *MEPM {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if sslEnabled && trust != nil {
		transport.TLSClientConfig = trust.TLSConfig()
	}
	return &MEPM{
		ec:          ec,
		sslEnabled:  sslEnabled,
		packagePath: packagePath,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// mepmRequest — подготовленный вызов платформы.
type mepmRequest struct {
	method      string
	segments    []string
	body        io.Reader
	contentType string
}

// Execute выполняет операцию из operationType.
func (m *MEPM) Execute(ctx context.Context) error {
	logger := telemetry.FromContext(ctx)

	raw, _ := m.ec.String(execution.KeyOperationType)
	op, ok := ParseMEPMOperation(raw)
	if !ok {
		logger.Info("invalid MEPM action", "operation", raw)
		protocol.Failure(m.ec, protocol.CodeFlowError, msgInvalidMEPMAction)
		return nil
	}

	base, err := m.baseURL()
	if err != nil {
		return err
	}
	tenant, err := requireString(m.ec, execution.KeyTenantID)
	if err != nil {
		return err
	}

	var req *mepmRequest
	switch op {
	case MEPMInstantiate:
		req, err = m.instantiate(tenant)
	case MEPMQuery:
		req, err = m.instanceCall(http.MethodGet, tenant)
	case MEPMTerminate:
		req, err = m.instanceCall(http.MethodPost, tenant, "terminate")
	case MEPMQueryKPI:
		req, err = m.hostCall(tenant, "kpi")
	case MEPMQueryEdgeCapabilities:
		req, err = m.hostCall(tenant, "mep_capabilities")
	case MEPMCreateAppRule:
		req, err = m.appRuleCall(http.MethodPost, tenant)
	case MEPMUpdateAppRule:
		req, err = m.appRuleCall(http.MethodPut, tenant)
	case MEPMDeleteAppRule:
		req, err = m.appRuleCall(http.MethodDelete, tenant)
	default:
		protocol.Failure(m.ec, protocol.CodeFlowError, msgInvalidMEPMAction)
		return nil
	}
	if err != nil {
		return err
	}
	if closer, ok := req.body.(io.Closer); ok {
		defer closer.Close()
	}

	logger.Info("call MEPM", "operation", op, "method", req.method)
	return m.do(ctx, base, req)
}

// baseURL собирает <scheme>://<applcm_ip>:<applcm_port>/lcmcontroller/v1.
func (m *MEPM) baseURL() (*url.URL, error) {
	host, err := requireString(m.ec, execution.KeyApplcmIP)
	if err != nil {
		return nil, err
	}
	port, ok := m.ec.Text(execution.KeyApplcmPort)
	if !ok || port == "" {
		protocol.Failure(m.ec, protocol.CodeFlowError, fmt.Sprintf("%s is required", execution.KeyApplcmPort))
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, execution.KeyApplcmPort)
	}

	scheme := "http"
	if m.sslEnabled {
		scheme = "https"
	}
	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   mepmBasePath,
	}, nil
}

func (m *MEPM) instanceCall(method, tenant string, suffix ...string) (*mepmRequest, error) {
	instanceID, err := requireString(m.ec, execution.KeyAppInstanceID)
	if err != nil {
		return nil, err
	}
	segments := append([]string{"tenants", tenant, "app_instances", instanceID}, suffix...)
	return &mepmRequest{method: method, segments: segments}, nil
}

func (m *MEPM) hostCall(tenant, resource string) (*mepmRequest, error) {
	host, err := requireString(m.ec, execution.KeyMecHost)
	if err != nil {
		return nil, err
	}
	return &mepmRequest{
		method:   http.MethodGet,
		segments: []string{"tenants", tenant, "hosts", host, resource},
	}, nil
}

func (m *MEPM) appRuleCall(method, tenant string) (*mepmRequest, error) {
	req, err := m.instanceCall(method, tenant, "appd_configuration")
	if err != nil {
		return nil, err
	}
	if method != http.MethodDelete {
		req.body = strings.NewReader(valueText(m.ec, execution.KeyAppRules))
		req.contentType = "application/json"
	}
	return req, nil
}

// instantiate готовит multipart запрос с пакетом <root>/<instance>/<package>.
func (m *MEPM) instantiate(tenant string) (*mepmRequest, error) {
	req, err := m.instanceCall(http.MethodPost, tenant, "instantiate")
	if err != nil {
		return nil, err
	}
	packageID, err := requireString(m.ec, execution.KeyAppPackageID)
	if err != nil {
		return nil, err
	}
	instanceID := optionalString(m.ec, execution.KeyAppInstanceID)

	file, err := os.Open(filepath.Join(m.packagePath, instanceID, packageID))
	if err != nil {
		protocol.Failure(m.ec, protocol.CodeFlowError, msgMEPMPackageMissing)
		return nil, fmt.Errorf("%w: %v", ErrPackageIO, err)
	}

	fields := map[string]string{
		"hostIp":    optionalString(m.ec, execution.KeyMecHost),
		"packageId": packageID,
		"appName":   optionalString(m.ec, execution.KeyAppName),
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer file.Close()
		pw.CloseWithError(writeMultipart(mw, file, packageID, fields))
	}()

	req.body = pr
	req.contentType = mw.FormDataContentType()
	return req, nil
}

// writeMultipart пишет поля формы и файл пакета.
func writeMultipart(mw *multipart.Writer, file io.Reader, fileName string, fields map[string]string) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return mw.Close()
}

// do выполняет запрос и записывает ответ платформы в контекст.
func (m *MEPM) do(ctx context.Context, base *url.URL, r *mepmRequest) error {
	escaped := make([]string, len(r.segments))
	for i, s := range r.segments {
		escaped[i] = url.PathEscape(s)
	}
	target := base.JoinPath(escaped...)

	req, err := http.NewRequestWithContext(ctx, r.method, target.String(), r.body)
	if err != nil {
		protocol.Failure(m.ec, protocol.CodeFlowError, msgMEPMRequestFailed)
		return fmt.Errorf("%w: build request: %v", ErrRemoteCall, err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token, ok := m.ec.String(execution.KeyAccessToken); ok {
		req.Header.Set(headerAccessToken, token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		protocol.Failure(m.ec, protocol.CodeFlowError, msgMEPMRequestFailed)
		return fmt.Errorf("%w: %v", ErrRemoteCall, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		protocol.Failure(m.ec, protocol.CodeFlowError, msgMEPMRequestFailed)
		return fmt.Errorf("%w: read response: %v", ErrRemoteCall, err)
	}

	telemetry.FromContext(ctx).Info("MEPM responded", "status", resp.StatusCode)
	protocol.Remote(m.ec, resp.StatusCode, string(body))
	return nil
}
