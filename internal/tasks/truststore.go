package tasks

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// TrustStoreConfig — где взять корневые сертификаты для вызовов платформы.
type TrustStoreConfig struct {
	// UseDefault — использовать только системные корни.
	UseDefault bool

	// Path — PKCS#12 (.p12/.pfx) или PEM bundle.
	Path     string
	Password string
}

// TrustStore — набор доверенных корневых сертификатов.
type TrustStore struct {
	pool *x509.CertPool
}

// LoadTrustStore загружает trust store.
//
// Сертификаты из файла добавляются к системным корням.
func LoadTrustStore(cfg TrustStoreConfig) (*TrustStore, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if cfg.UseDefault {
		return &TrustStore{pool: pool}, nil
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: trust store path is empty", ErrTrustStore)
	}

	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrustStore, err)
	}

	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".p12", ".pfx":
		certs, err := decodePKCS12(data, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: decode pkcs12: %v", ErrTrustStore, err)
		}
		if len(certs) == 0 {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrTrustStore, cfg.Path)
		}
		for _, cert := range certs {
			pool.AddCert(cert)
		}
	default:
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrTrustStore, cfg.Path)
		}
	}

	return &TrustStore{pool: pool}, nil
}

// TLSConfig возвращает TLS конфигурацию клиента с этими корнями.
func (s *TrustStore) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    s.pool,
		MinVersion: tls.VersionTLS12,
	}
}

// decodePKCS12 читает сертификаты из PKCS#12.
//
// Trust store без ключа читается как набор доверенных сертификатов,
// bundle с ключом отдаёт свой сертификат и цепочку CA.
func decodePKCS12(data []byte, password string) ([]*x509.Certificate, error) {
	certs, err := pkcs12.DecodeTrustStore(data, password)
	if err == nil {
		return certs, nil
	}

	_, leaf, chain, chainErr := pkcs12.DecodeChain(data, password)
	if chainErr != nil {
		return nil, err
	}
	return append([]*x509.Certificate{leaf}, chain...), nil
}
