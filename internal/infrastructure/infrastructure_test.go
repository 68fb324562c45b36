package infrastructure_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/noteforge/internal/config"
	"github.com/JaimeStill/noteforge/internal/infrastructure"
	"github.com/JaimeStill/noteforge/internal/transfer"
	"github.com/JaimeStill/noteforge/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig() *config.Config {
	return &config.Config{
		Remote: transfer.Config{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: "30s",
		},
		Storage: storage.Config{ContainerName: "renders"},
		Version: "0.1.0",
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWithoutStorage(t *testing.T) {
	infra, err := infrastructure.NewWithLogger(validConfig(), discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Transfer == nil {
		t.Error("Transfer is nil")
	}
	if infra.Storage != nil {
		t.Error("Storage should be nil without a connection string")
	}
	if err := infra.Start(); err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestNewWithStorage(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = azuriteConnString

	infra, err := infrastructure.NewWithLogger(cfg, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	if _, err := infrastructure.NewWithLogger(cfg, discard()); err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}

func TestResolveAddress(t *testing.T) {
	infra, err := infrastructure.NewWithLogger(validConfig(), discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := infra.Transfer.ResolveRenderAddress("abc123"); got != "http://127.0.0.1:5000/pdf/abc123" {
		t.Errorf("address: got %s", got)
	}
}
