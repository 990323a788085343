// ABOUTME: MCP tool definitions and registration for the copilot engine
// ABOUTME: Exposes search, grounded chat, and guided chat over stdio
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server.
func RegisterTools(server *mcpserver.MCPServer, searchEngine Searcher, answerer ChatEngine, guidedEngine GuidedEngine) *Handlers {
	handlers := &Handlers{
		search:   searchEngine,
		answerer: answerer,
		guided:   guidedEngine,
	}

	server.AddTool(mcp.Tool{
		Name:        "search_documents",
		Description: "Search process documents using hybrid retrieval: exact title, tag match, and vector similarity.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"tenant_id": map[string]interface{}{
					"type":        "string",
					"description": "Tenant whose documents to search",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return (default: 5)",
					"default":     5,
				},
			},
			Required: []string{"query", "tenant_id"},
		},
	}, handlers.SearchDocuments)

	server.AddTool(mcp.Tool{
		Name:        "ask",
		Description: "Ask a question answered strictly from the tenant's process documents, with sources.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer",
				},
				"tenant_id": map[string]interface{}{
					"type":        "string",
					"description": "Tenant whose documents ground the answer",
				},
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User asking the question",
				},
			},
			Required: []string{"query", "tenant_id", "user_id"},
		},
	}, handlers.Ask)

	server.AddTool(mcp.Tool{
		Name:        "guided_chat",
		Description: "Chat with guided process execution: detects process requests, decomposes the document into steps, and walks the user through them. Supports next/previous/stop commands.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "User message",
				},
				"tenant_id": map[string]interface{}{
					"type":        "string",
					"description": "Tenant whose documents to use",
				},
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User the guided session belongs to",
				},
			},
			Required: []string{"query", "tenant_id", "user_id"},
		},
	}, handlers.GuidedChat)

	return handlers
}
