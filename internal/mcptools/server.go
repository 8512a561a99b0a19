// Package mcptools exposes the dashboard's read operations as MCP tools so
// agent clients can browse analysis bundles and resolve avatars over the
// same store and resolver the HTTP API uses.
package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewDashboardMCPServer creates an MCP server with all dashboard tools
// registered.
func NewDashboardMCPServer(svc *DashboardService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "aviary-dashboard",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_users",
		Description: "List every user with a precomputed analysis bundle.",
	}, svc.ListUsers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_user_summary",
		Description: "Return the headline numbers for one user's bundle: summary text, cluster count, and distinct tweet count.",
	}, svc.GetUserSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_user_clusters",
		Description: "Return the normalized cluster view for one user: yearly summaries, ontology items, and related clusters.",
	}, svc.GetUserClusters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_avatars",
		Description: "Resolve account identifiers to avatar URLs in bounded batches. Every requested identifier appears in the result; unresolvable ones map to null.",
	}, svc.ResolveAvatars)

	return server
}

// RunMCPServer starts an HTTP server exposing the dashboard MCP tools.
func RunMCPServer(ctx context.Context, svc *DashboardService, addr string) error {
	server := NewDashboardMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
