// ABOUTME: MCP tool handler implementations for the copilot engine
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flowbrave/copilot/internal/models"
	"github.com/flowbrave/copilot/internal/search"
)

// Searcher runs hybrid document retrieval.
type Searcher interface {
	Search(ctx context.Context, query, tenantID, userID, role string, limit int) ([]models.SearchResult, error)
}

// ChatEngine answers grounded questions.
type ChatEngine interface {
	Answer(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// GuidedEngine routes guided-mode requests.
type GuidedEngine interface {
	Route(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// Handlers contains the handler functions for all MCP tools.
type Handlers struct {
	search   Searcher
	answerer ChatEngine
	guided   GuidedEngine
}

// SearchDocuments handles the search_documents tool.
func (h *Handlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	tenantID, err := request.RequireString("tenant_id")
	if err != nil {
		return mcp.NewToolResultError("tenant_id argument is required and must be a string"), nil
	}
	limit := request.GetInt("limit", search.DefaultLimit)

	results, err := h.search.Search(ctx, query, tenantID, "", search.RoleAdmin, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if results == nil {
		results = []models.SearchResult{}
	}

	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding results failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// Ask handles the ask tool.
func (h *Handlers) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, result := chatRequestFromTool(request)
	if result != nil {
		return result, nil
	}

	resp, err := h.answerer.Answer(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}

	payload, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding response failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// GuidedChat handles the guided_chat tool.
func (h *Handlers) GuidedChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, result := chatRequestFromTool(request)
	if result != nil {
		return result, nil
	}
	req.UseGuidedMode = true

	resp, err := h.guided.Route(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("guided chat failed: %v", err)), nil
	}

	payload, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding response failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func chatRequestFromTool(request mcp.CallToolRequest) (models.ChatRequest, *mcp.CallToolResult) {
	query, err := request.RequireString("query")
	if err != nil {
		return models.ChatRequest{}, mcp.NewToolResultError("query argument is required and must be a string")
	}
	tenantID, err := request.RequireString("tenant_id")
	if err != nil {
		return models.ChatRequest{}, mcp.NewToolResultError("tenant_id argument is required and must be a string")
	}
	userID, err := request.RequireString("user_id")
	if err != nil {
		return models.ChatRequest{}, mcp.NewToolResultError("user_id argument is required and must be a string")
	}

	return models.ChatRequest{
		Query:    query,
		TenantID: tenantID,
		UserID:   userID,
		Role:     search.RoleAdmin,
	}, nil
}
