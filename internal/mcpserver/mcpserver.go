// Package mcpserver exposes clause search, chunk lookup and standard
// recommendation as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dgallion1/clausegest/internal/catalog"
	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/search"
)

const serverName = "clausegest"

// Tools holds the stores the tool handlers read from.
type Tools struct {
	Catalog *catalog.Store
	Index   *search.Index
	Log     *slog.Logger
}

type SearchClausesInput struct {
	Query      string `json:"query" jsonschema:"Full-text query over clause titles and content"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"Restrict results to one document (optional)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10)"`
}

type SearchClausesOutput struct {
	Query string       `json:"query"`
	Hits  []search.Hit `json:"hits"`
}

type GetChunkInput struct {
	ChunkID string `json:"chunk_id" jsonschema:"Qualified chunk id such as EN50310::6.1"`
}

type GetChunkOutput struct {
	Chunk chunks.Record `json:"chunk"`
}

type RecommendInput struct {
	Query string `json:"query" jsonschema:"Description of the product or test need"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"Number of standards to return (optional, defaults to 5)"`
}

type RecommendOutput struct {
	Query           string                  `json:"query"`
	Recommendations []search.Recommendation `json:"recommendations"`
}

// New creates an MCP server with every tool registered.
func New(t *Tools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_clauses",
			Description: "Search clauses of ingested standards. Returns chunk ids with titles and scores.",
		},
		t.SearchClauses,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_chunk",
			Description: "Fetch one clause record with its content, tables, figures, requirements and references.",
		},
		t.GetChunk,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "recommend_standards",
			Description: "Rank ingested standards by how well their scope matches a query.",
		},
		t.RecommendStandards,
	)
	return server
}

// SearchClauses runs a full-text clause search.
func (t *Tools) SearchClauses(ctx context.Context, req *mcp.CallToolRequest, in SearchClausesInput) (*mcp.CallToolResult, SearchClausesOutput, error) {
	if t.Index == nil {
		return nil, SearchClausesOutput{}, errors.New("search index unavailable")
	}
	size := in.MaxResults
	if size <= 0 || size > 50 {
		size = 10
	}
	hits, err := t.Index.Search(in.Query, in.DocumentID, size)
	if err != nil {
		return nil, SearchClausesOutput{}, fmt.Errorf("search failed: %w", err)
	}
	t.logger().Info("search_clauses", "query", in.Query, "hits", len(hits))
	return nil, SearchClausesOutput{Query: in.Query, Hits: hits}, nil
}

// GetChunk returns a stored clause record.
func (t *Tools) GetChunk(ctx context.Context, req *mcp.CallToolRequest, in GetChunkInput) (*mcp.CallToolResult, GetChunkOutput, error) {
	if t.Catalog == nil {
		return nil, GetChunkOutput{}, errors.New("catalog unavailable")
	}
	rec, err := t.Catalog.GetChunk(ctx, in.ChunkID)
	if err != nil {
		return nil, GetChunkOutput{}, err
	}
	return nil, GetChunkOutput{Chunk: rec}, nil
}

// RecommendStandards ranks documents by scope similarity.
func (t *Tools) RecommendStandards(ctx context.Context, req *mcp.CallToolRequest, in RecommendInput) (*mcp.CallToolResult, RecommendOutput, error) {
	if t.Index == nil {
		return nil, RecommendOutput{}, errors.New("search index unavailable")
	}
	topK := in.TopK
	if topK <= 0 {
		topK = search.DefaultTopK
	}
	recs, err := t.Index.Recommend(in.Query, topK)
	if err != nil {
		return nil, RecommendOutput{}, fmt.Errorf("recommend failed: %w", err)
	}
	return nil, RecommendOutput{Query: in.Query, Recommendations: recs}, nil
}

func (t *Tools) logger() *slog.Logger {
	if t.Log == nil {
		return slog.Default()
	}
	return t.Log
}
