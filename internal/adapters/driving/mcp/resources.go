package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for resources.
	uriScheme = "sercha-sync://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Connection != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "connections",
			Name:        "connections",
			Description: "Configured connections with secrets masked",
			MIMEType:    "application/json",
		}, s.handleConnectionsResource)
	}

	if s.ports.Category != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "tenants/{tenantId}/categories",
			Name:        "tenant-categories",
			Description: "Categories defined for a tenant",
			MIMEType:    "application/json",
		}, s.handleCategoriesResource)
	}
}

type connectionInfo struct {
	ID       string            `json:"id"`
	TenantID string            `json:"tenant_id"`
	Kind     string            `json:"kind"`
	Name     string            `json:"name,omitempty"`
	Category string            `json:"category"`
	Params   map[string]string `json:"params,omitempty"`
	LastSync string            `json:"last_sync,omitempty"`
}

// handleConnectionsResource returns every configured connection.
func (s *Server) handleConnectionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	conns, err := s.ports.Connection.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}

	infos := make([]connectionInfo, len(conns))
	for i := range conns {
		redacted := conns[i].Redacted()
		info := connectionInfo{
			ID:       redacted.ID,
			TenantID: redacted.TenantID,
			Kind:     string(redacted.Kind),
			Name:     redacted.Name,
			Category: redacted.DocumentCategory(),
			Params:   redacted.Params,
		}
		if !redacted.LastSync.IsZero() {
			info.LastSync = redacted.LastSync.UTC().Format("2006-01-02T15:04:05Z")
		}
		infos[i] = info
	}

	return jsonResult(req.Params.URI, infos)
}

// handleCategoriesResource returns a tenant's categories.
func (s *Server) handleCategoriesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// sercha-sync://tenants/{tenantId}/categories
	tenantID := extractTenantID(req.Params.URI)
	if tenantID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	categories, err := s.ports.Category.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	type categoryInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	infos := make([]categoryInfo, len(categories))
	for i, c := range categories {
		infos[i] = categoryInfo{ID: c.ID, Name: c.Name, Description: c.Description}
	}

	return jsonResult(req.Params.URI, infos)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTenantID extracts the tenant from a URI like sercha-sync://tenants/{tenantId}/categories.
func extractTenantID(uri string) string {
	const prefix = uriScheme + "tenants/"
	const suffix = "/categories"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(uri, suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
