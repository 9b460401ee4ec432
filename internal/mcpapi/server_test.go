package mcpapi_test

import (
	"context"
	"testing"

	"github.com/latticeforge/deepscan/internal/mcpapi"
)

func TestNewServer_ToolsRegistered(t *testing.T) {
	t.Parallel()

	srv := mcpapi.NewServer(mcpapi.ServerDeps{})

	tools := srv.ListToolNames()
	if len(tools) != 1 || tools[0] != mcpapi.ToolNameAnalyzeProject {
		t.Fatalf("ListToolNames() = %v, want exactly [%s]", tools, mcpapi.ToolNameAnalyzeProject)
	}
}

func TestServer_Run_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := mcpapi.NewServer(mcpapi.ServerDeps{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected Run on an already-cancelled context to return an error")
	}
}
