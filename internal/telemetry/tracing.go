package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName — имя tracer'а для spans выполнения шагов.
const TracerName = "github.com/shaiso/Appo"

// Экспортёры трейсов.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// SetupTracing настраивает глобальный TracerProvider.
//
// exporter "stdout" печатает spans в stdout, "none" создаёт spans без экспорта.
// Возвращает функцию для flush и остановки провайдера.
func SetupTracing(exporter, serviceName string) (func(context.Context) error, error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	switch exporter {
	case ExporterNone, "":
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", exporter)
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// Tracer возвращает tracer из глобального провайдера.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
