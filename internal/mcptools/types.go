package mcptools

import "github.com/aviary-app/aviary/internal/bundle"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ListUsersInput is the input for the list_users MCP tool.
type ListUsersInput struct{}

// ListUsersOutput is the result of the list_users MCP tool.
type ListUsersOutput struct {
	Users []string `json:"users"`
}

// GetUserSummaryInput is the input for the get_user_summary MCP tool.
type GetUserSummaryInput struct {
	User string `json:"user" jsonschema:"the bundle user name, as returned by list_users"`
}

// GetUserSummaryOutput is the result of the get_user_summary MCP tool.
type GetUserSummaryOutput struct {
	Summary bundle.Summary `json:"summary"`
}

// GetUserClustersInput is the input for the get_user_clusters MCP tool.
type GetUserClustersInput struct {
	User string `json:"user" jsonschema:"the bundle user name, as returned by list_users"`
}

// GetUserClustersOutput is the result of the get_user_clusters MCP tool.
type GetUserClustersOutput struct {
	Clusters []bundle.Cluster `json:"clusters"`
}

// ResolveAvatarsInput is the input for the resolve_avatars MCP tool.
type ResolveAvatarsInput struct {
	IDs []string `json:"ids" jsonschema:"account identifiers to resolve to avatar URLs"`
}

// ResolveAvatarsOutput is the result of the resolve_avatars MCP tool.
type ResolveAvatarsOutput struct {
	Avatars map[string]*string `json:"avatars"`
}
