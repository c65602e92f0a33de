package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/domain/search/summary"
	"github.com/fredesa/knowledge-registry/internal/transport/dto"
)

// ListCategoriesInput takes no arguments.
type ListCategoriesInput struct{}

// ListGapsInput bounds the gap listing.
type ListGapsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum gaps to return, default 20"`
}

const (
	toolListKnowledgeGaps   = "list_knowledge_gaps"
	toolResolveKnowledgeGap = "resolve_knowledge_gap"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        dto.ToolQueryKnowledgeBase,
		Description: dto.DescQueryKnowledgeBase,
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        dto.ToolGetSourceDetails,
		Description: dto.DescGetSourceDetails,
	}, s.handleSourceDetails)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        dto.ToolListCategories,
		Description: dto.DescListCategories,
	}, s.handleListCategories)

	if s.ports.Gaps != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        toolListKnowledgeGaps,
			Description: "List recent queries the catalog could not cover well",
		}, s.handleListGaps)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        dto.ToolDetectKnowledgeGap,
			Description: dto.DescDetectKnowledgeGap,
		}, s.handleDetectGap)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        toolResolveKnowledgeGap,
			Description: "Remove a covered topic from the knowledge gap log",
		}, s.handleResolveGap)
	}
}

// handleQuery returns the structured result plus a prompt-ready text rendering.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input dto.QueryRequest,
) (*mcp.CallToolResult, dto.QueryResponse, error) {
	res, err := s.ports.Search.Query(ctx, input.Input())
	if err != nil {
		s.logger.Warn("mcp query failed", zap.Error(err))
		return nil, dto.QueryResponse{}, fmt.Errorf("query knowledge base: %w", err)
	}

	var text strings.Builder
	text.WriteString(res.Summary())
	if res.Count() > 0 {
		text.WriteString("\n\n")
		text.WriteString(summary.AgentContext(res.Sources()))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text.String()}},
	}, dto.FromResult(&res), nil
}

func (s *Server) handleSourceDetails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input dto.SourceIDRequest,
) (*mcp.CallToolResult, dto.SourceDetail, error) {
	src, err := s.ports.Catalog.Source(ctx, input.SourceID)
	if err != nil {
		return nil, dto.SourceDetail{}, fmt.Errorf("get source details: %w", err)
	}
	return nil, dto.FromSource(&src), nil
}

func (s *Server) handleListCategories(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListCategoriesInput,
) (*mcp.CallToolResult, dto.CategoryList, error) {
	cats, err := s.ports.Catalog.Categories(ctx)
	if err != nil {
		return nil, dto.CategoryList{}, fmt.Errorf("list categories: %w", err)
	}
	return nil, dto.FromCategories(cats), nil
}

func (s *Server) handleListGaps(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListGapsInput,
) (*mcp.CallToolResult, dto.GapList, error) {
	entries, err := s.ports.Gaps.Recent(ctx, input.Limit)
	if err != nil {
		return nil, dto.GapList{}, fmt.Errorf("list knowledge gaps: %w", err)
	}
	return nil, dto.FromGaps(entries), nil
}

func (s *Server) handleDetectGap(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input dto.DetectGapRequest,
) (*mcp.CallToolResult, dto.GapDetection, error) {
	d, err := s.ports.Gaps.Detect(ctx, input.Query, input.Keywords)
	if err != nil {
		return nil, dto.GapDetection{}, fmt.Errorf("detect knowledge gap: %w", err)
	}
	return nil, dto.FromDetection(d), nil
}

func (s *Server) handleResolveGap(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input dto.ResolveGapRequest,
) (*mcp.CallToolResult, dto.GapResolution, error) {
	res, err := s.ports.Gaps.Resolve(ctx, input.Topic)
	if err != nil {
		return nil, dto.GapResolution{}, fmt.Errorf("resolve knowledge gap: %w", err)
	}
	return nil, dto.FromResolution(res), nil
}
