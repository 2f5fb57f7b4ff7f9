package tasks

import (
	"context"
	"time"

	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
	"github.com/shaiso/Appo/internal/telemetry"
)

const msgTrustStoreFailed = "Failed to load trust store"

// MEPMConfig — конфигурация MEPMAdapter.
type MEPMConfig struct {
	SSLEnabled  bool
	PackagePath string
	TrustStore  TrustStoreConfig
	Timeout     time.Duration
}

// MEPMAdapter — шаг вызова платформы edge-хоста.
//
// На каждое выполнение собирает trust store и передаёт работу MEPM.
type MEPMAdapter struct {
	cfg MEPMConfig
}

// NewMEPMAdapter создаёт новый MEPMAdapter.
func NewMEPMAdapter(cfg MEPMConfig) *MEPMAdapter {
	return &MEPMAdapter{cfg: cfg}
}

// Type возвращает тип шага.
func (a *MEPMAdapter) Type() string {
	return TypeMEPM
}

// Execute выполняет операцию платформы из operationType.
func (a *MEPMAdapter) Execute(ctx context.Context, ec *execution.Context) error {
	var trust *TrustStore
	if a.cfg.SSLEnabled {
		ts, err := LoadTrustStore(a.cfg.TrustStore)
		if err != nil {
			telemetry.FromContext(ctx).Error("failed to load trust store", "error", err)
			protocol.Failure(ec, protocol.CodeFlowError, msgTrustStoreFailed)
			return err
		}
		trust = ts
	}

	return NewMEPM(ec, a.cfg.SSLEnabled, a.cfg.PackagePath, trust, a.cfg.Timeout).Execute(ctx)
}
