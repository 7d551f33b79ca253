package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/pkg/engine"
)

// MCPHandlers exposes the engine as MCP tools.
type MCPHandlers struct {
	engine *engine.Engine
}

// NewMCPServer builds an MCP server with the docspace tools registered.
func NewMCPServer(eng *engine.Engine, version string) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer("docspace", version)
	RegisterTools(srv, eng)
	return srv
}

// RegisterTools registers the document tools with srv.
func RegisterTools(srv *mcpserver.MCPServer, eng *engine.Engine) *MCPHandlers {
	h := &MCPHandlers{engine: eng}

	srv.AddTool(mcp.Tool{
		Name:        "search_documents",
		Description: "Semantic search over stored documents. Returns the best matching chunk of each document, highest similarity first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language search query",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results (default: 10, max: 50)",
					"default":     10,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity (default: 0.25)",
				},
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "Rank chunks or whole documents",
					"enum":        []string{string(models.ScopeChunks), string(models.ScopeDocuments)},
				},
			},
			Required: []string{"query"},
		},
	}, h.SearchDocuments)

	srv.AddTool(mcp.Tool{
		Name:        "keyword_search",
		Description: "Case-insensitive keyword search over file names and document text.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to look for",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results (default: 10, max: 50)",
					"default":     10,
				},
			},
			Required: []string{"query"},
		},
	}, h.KeywordSearch)

	srv.AddTool(mcp.Tool{
		Name:        "add_document",
		Description: "Store a text document. It is split into topical chunks and embedded for search.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Document text",
				},
				"file_name": map[string]interface{}{
					"type":        "string",
					"description": "Optional name (default: pasted.txt)",
				},
			},
			Required: []string{"content"},
		},
	}, h.AddDocument)

	srv.AddTool(mcp.Tool{
		Name:        "list_documents",
		Description: "List stored documents, newest first.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, h.ListDocuments)

	srv.AddTool(mcp.Tool{
		Name:        "get_document",
		Description: "Get the full text of a stored document.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Document id",
				},
			},
			Required: []string{"id"},
		},
	}, h.GetDocument)

	return h
}

func (h *MCPHandlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	req := engine.SearchRequest{
		Query: query,
		Limit: request.GetInt("limit", 0),
		Scope: models.ParseScope(request.GetString("scope", "")),
	}
	if args := request.GetArguments(); args["min_score"] != nil {
		v := request.GetFloat("min_score", 0)
		req.MinScore = &v
	}

	results, err := h.engine.SemanticSearch(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return jsonResult(results)
}

func (h *MCPHandlers) KeywordSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	results, err := h.engine.LexicalSearch(ctx, query, request.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return jsonResult(results)
}

func (h *MCPHandlers) AddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a string"), nil
	}

	doc, err := h.engine.CreateDocument(ctx, request.GetString("file_name", ""), content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add document: %v", err)), nil
	}
	return jsonResult(doc.Summary())
}

func (h *MCPHandlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := h.engine.ListDocuments(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents stored."), nil
	}

	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%d chars\t%d chunks\n",
			d.ID, d.FileName, d.UploadedAt.Format("2006-01-02 15:04"), d.CharCount, d.ChunkCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (h *MCPHandlers) GetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required and must be a string"), nil
	}

	doc, err := h.engine.GetDocument(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get document: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("# %s\n\n%s", doc.FileName, doc.Content)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
