package observability

import (
	"context"
	"testing"

	"github.com/midsbie/promptivd/internal/config"
)

func TestInitOTLP_Disabled(t *testing.T) {
	shutdown, err := InitOTLP(context.Background(), config.OTLPConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected a no-op shutdown func even when disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error from no-op shutdown: %v", err)
	}
}

func TestInitOTLP_Basic(t *testing.T) {
	cfg := config.OTLPConfig{
		Endpoint:    "localhost:4317",
		Protocol:    "grpc",
		ServiceName: "promptivd-test",
		Insecure:    true,
	}

	shutdown, err := InitOTLP(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to init OTLP: %v", err)
	}

	if shutdown == nil {
		t.Fatal("Shutdown function is nil")
	}

	// Clean up
	_ = shutdown(context.Background())
}

func TestInitOTLP_HTTP(t *testing.T) {
	cfg := config.OTLPConfig{
		Endpoint:    "localhost:4318",
		Protocol:    "http",
		ServiceName: "promptivd-test",
		Insecure:    true,
	}

	shutdown, err := InitOTLP(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to init OTLP HTTP: %v", err)
	}

	if shutdown == nil {
		t.Fatal("Shutdown function is nil")
	}

	// Clean up
	_ = shutdown(context.Background())
}
