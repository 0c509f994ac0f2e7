// Package mcp exposes the query engine as Model Context Protocol tools so
// LLM agents can explore an embedding space over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hyperjump/wordspace/internal/search"
	"github.com/hyperjump/wordspace/internal/vocab"
)

// ServerName is the name reported to MCP clients.
const ServerName = "wordspace"

// NewServer creates an MCP server with every wordspace tool registered.
func NewServer(engine *search.Engine, vocabulary *vocab.Vocabulary, version string, logger *zap.Logger) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(ServerName, version)
	RegisterTools(s, engine, vocabulary, logger)
	return s
}

func nProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Maximum number of results (default from configuration)",
	}
}

func factorProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Projection factor; 1 reflects through the hyperplane, 0.5 projects onto it",
	}
}

// RegisterTools registers all wordspace tools with server.
func RegisterTools(server *mcpserver.MCPServer, engine *search.Engine, vocabulary *vocab.Vocabulary, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{engine: engine, vocab: vocabulary, logger: logger}

	server.AddTool(mcp.Tool{
		Name:        "neighbors",
		Description: "List the words closest to a word by cosine distance. The word itself is ranked first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"word": map[string]interface{}{
					"type":        "string",
					"description": "Word to look up; unknown words resolve to the closest spelling in the space",
				},
				"n": nProperty(),
			},
			Required: []string{"word"},
		},
	}, h.Neighbors)

	pairSchema := mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"first": map[string]interface{}{
				"type":        "string",
				"description": "Word the results should resemble",
			},
			"second": map[string]interface{}{
				"type":        "string",
				"description": "Word whose direction is reflected away",
			},
			"n":      nProperty(),
			"factor": factorProperty(),
		},
		Required: []string{"first", "second"},
	}

	server.AddTool(mcp.Tool{
		Name:        "like",
		Description: "Rank words that relate to first the way second does not: the space is reflected through the hyperplane bisecting first and second.",
		InputSchema: pairSchema,
	}, h.Like)

	server.AddTool(mcp.Tool{
		Name:        "unlike",
		Description: "Rank words after reflecting the space with first and second swapped, the opposite of like.",
		InputSchema: pairSchema,
	}, h.Unlike)

	server.AddTool(mcp.Tool{
		Name:        "analogy",
		Description: "Answer a composed analogy such as unlike(like(mouse, keyboard), screen). Operators take an optional third factor argument.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "Query expression built from like and unlike",
				},
				"n":      nProperty(),
				"factor": factorProperty(),
			},
			Required: []string{"expression"},
		},
	}, h.Analogy)

	server.AddTool(mcp.Tool{
		Name:        "distance",
		Description: "Cosine distance between two words, from 0 (same direction) to 2 (opposite).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"first":  map[string]interface{}{"type": "string"},
				"second": map[string]interface{}{"type": "string"},
			},
			Required: []string{"first", "second"},
		},
	}, h.Distance)

	server.AddTool(mcp.Tool{
		Name:        "within",
		Description: "List every other word whose cosine distance to word is below threshold.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"word": map[string]interface{}{"type": "string"},
				"threshold": map[string]interface{}{
					"type":        "number",
					"description": "Cosine distance bound between 0 and 2",
				},
			},
			Required: []string{"word", "threshold"},
		},
	}, h.Within)

	server.AddTool(mcp.Tool{
		Name:        "cluster",
		Description: "Group the neighbours of word: each neighbour w gets the list like(word, w), and two lists cluster when more than cutoff of one appears in the other.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"word": map[string]interface{}{"type": "string"},
				"n": map[string]interface{}{
					"type":        "number",
					"description": "Size of each group (default 20)",
				},
				"factor": factorProperty(),
				"cutoff": map[string]interface{}{
					"type":        "number",
					"description": "Share of a group, between 0 and 1, that must appear in another group (default 0.5)",
				},
			},
			Required: []string{"word"},
		},
	}, h.Cluster)

	server.AddTool(mcp.Tool{
		Name:        "graph",
		Description: "Neighbourhood graph around word as JSON nodes and weighted edges. Words closer than distance_limit are joined.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"word": map[string]interface{}{"type": "string"},
				"hops": map[string]interface{}{
					"type":        "number",
					"description": "Return every word within this many edges of word; 0 builds the ego network of word alone",
				},
				"distance_limit": map[string]interface{}{
					"type":        "number",
					"description": "Cosine distance below which words are joined (default 0.4)",
				},
			},
			Required: []string{"word"},
		},
	}, h.Graph)

	return h
}
