package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aviary-app/aviary/internal/avatar"
	"github.com/aviary-app/aviary/internal/bundle"
)

// DashboardService holds the bundle store and avatar resolver used by the
// MCP tool handlers.
type DashboardService struct {
	store    *bundle.Store
	resolver *avatar.Resolver
}

// NewDashboardService creates a DashboardService over the given store and
// resolver.
func NewDashboardService(store *bundle.Store, resolver *avatar.Resolver) *DashboardService {
	return &DashboardService{store: store, resolver: resolver}
}

// ListUsers returns the names of all available analysis bundles.
func (s *DashboardService) ListUsers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListUsersInput,
) (*mcp.CallToolResult, ListUsersOutput, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, ListUsersOutput{}, fmt.Errorf("list users: %w", err)
	}
	return nil, ListUsersOutput{Users: users}, nil
}

// GetUserSummary returns the headline numbers for one user's bundle.
func (s *DashboardService) GetUserSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetUserSummaryInput,
) (*mcp.CallToolResult, GetUserSummaryOutput, error) {
	if input.User == "" {
		return nil, GetUserSummaryOutput{}, fmt.Errorf("user is required")
	}
	sum, err := s.store.Summary(ctx, input.User)
	if errors.Is(err, bundle.ErrNotFound) {
		return nil, GetUserSummaryOutput{}, fmt.Errorf("unknown user: %s", input.User)
	}
	if err != nil {
		return nil, GetUserSummaryOutput{}, fmt.Errorf("load summary: %w", err)
	}
	return nil, GetUserSummaryOutput{Summary: *sum}, nil
}

// GetUserClusters returns the normalized cluster view for one user.
func (s *DashboardService) GetUserClusters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetUserClustersInput,
) (*mcp.CallToolResult, GetUserClustersOutput, error) {
	if input.User == "" {
		return nil, GetUserClustersOutput{}, fmt.Errorf("user is required")
	}
	clusters, err := s.store.Clusters(ctx, input.User)
	if errors.Is(err, bundle.ErrNotFound) {
		return nil, GetUserClustersOutput{}, fmt.Errorf("unknown user: %s", input.User)
	}
	if err != nil {
		return nil, GetUserClustersOutput{}, fmt.Errorf("load clusters: %w", err)
	}
	return nil, GetUserClustersOutput{Clusters: clusters}, nil
}

// ResolveAvatars resolves account identifiers to avatar URLs. The result is
// total over the distinct trimmed input identifiers; unresolvable ones map
// to null.
func (s *DashboardService) ResolveAvatars(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveAvatarsInput,
) (*mcp.CallToolResult, ResolveAvatarsOutput, error) {
	return nil, ResolveAvatarsOutput{Avatars: s.resolver.Resolve(ctx, input.IDs)}, nil
}
