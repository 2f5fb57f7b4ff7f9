package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Appo/internal/execution"
	"github.com/shaiso/Appo/internal/protocol"
)

// Типы шагов.
const (
	TypeDB   = "appo.db"
	TypeAPM  = "appo.apm"
	TypeMEPM = "appo.mepm"
)

// Ошибки шагов.
var (
	// ErrTaskNotFound — тип шага не найден в реестре.
	ErrTaskNotFound = errors.New("task type not found")

	// ErrMissingInput — в контексте нет обязательного ключа.
	ErrMissingInput = errors.New("missing context input")

	// ErrPackageNotFound — пакет не найден или URL скачивания невалиден.
	ErrPackageNotFound = errors.New("package not found or malformed url")

	// ErrPackageIO — ошибка чтения или записи пакета.
	ErrPackageIO = errors.New("package io failure")

	// ErrRemoteCall — вызов платформы не удался на уровне транспорта.
	ErrRemoteCall = errors.New("remote call failed")

	// ErrTrustStore — не удалось загрузить trust store.
	ErrTrustStore = errors.New("trust store unavailable")

	// ErrTaskPanic — шаг завершился паникой.
	ErrTaskPanic = errors.New("task panicked")
)

// Task — шаг run.
//
// Каждый тип шага (реестр, скачивание пакета, платформа) реализует этот интерфейс.
type Task interface {
	// Type возвращает тип шага.
	Type() string

	// Execute выполняет шаг над контекстом run.
	//
	// Последним действием шаг пишет результат через пакет protocol.
	// Ненулевая ошибка означает, что шаг прерван, а результат уже записан.
	Execute(ctx context.Context, ec *execution.Context) error
}

// requireString читает обязательный строковый ключ.
// Если ключа нет, пишет общую ошибку и возвращает ErrMissingInput.
func requireString(ec *execution.Context, key execution.Key) (string, error) {
	v, ok := ec.String(key)
	if !ok || v == "" {
		msg := fmt.Sprintf("%s is required", key)
		protocol.Failure(ec, protocol.CodeFlowError, msg)
		return "", fmt.Errorf("%w: %s", ErrMissingInput, key)
	}
	return v, nil
}

// optionalString читает необязательный строковый ключ ("" если нет).
func optionalString(ec *execution.Context, key execution.Key) string {
	v, _ := ec.String(key)
	return v
}
