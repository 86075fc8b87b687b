// Package mcp exposes budget extraction as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/utils"
)

const (
	ServerName = "budget-extractor"

	ToolExtractBudget = "extract_budget"
	ToolListProjects  = "list_projects"
	ToolGetProject    = "get_project"
)

type BudgetAPI interface {
	Extract(ctx context.Context, filename string, data []byte, backend string) (entity.ExtractionResult, error)
	ListProjects(ctx context.Context) ([]entity.Project, error)
	GetProject(ctx context.Context, id int64) (entity.Project, error)
}

type Server struct {
	svc       BudgetAPI
	maxBytes  int64
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer registers the tools. maxBytes caps the size of a PDF read from disk.
func NewServer(svc BudgetAPI, version string, maxBytes int64, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("budget service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	s := &Server{
		svc:       svc,
		maxBytes:  maxBytes,
		mcpServer: server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
		logger:    logger,
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(ToolExtractBudget,
		mcp.WithDescription("Extract project name, responsible person and budget items from a Thai project proposal PDF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("backend",
			mcp.Description("Extraction backend (regex, openai, gemini); server default when empty"),
		),
	), s.handleExtractBudget)

	s.mcpServer.AddTool(mcp.NewTool(ToolListProjects,
		mcp.WithDescription("List saved projects, newest first, with budget totals"),
	), s.handleListProjects)

	s.mcpServer.AddTool(mcp.NewTool(ToolGetProject,
		mcp.WithDescription("Get one saved project with its budget items"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Project id"),
		),
	), s.handleGetProject)
}

// ServeStdio blocks until stdin is closed.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp.serve.stdio", "server", ServerName)
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

func (s *Server) handleExtractBudget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	backend := strings.TrimSpace(request.GetString("backend", ""))

	info, err := os.Stat(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("%s is a directory", path)), nil
	}
	if info.Size() > s.maxBytes {
		return mcp.NewToolResultError(fmt.Sprintf("%s is %d bytes, limit is %d", path, info.Size(), s.maxBytes)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.Extract(ctx, filepath.Base(path), data, backend)
	if err != nil {
		s.logger.Warn("mcp.extract.failed", "path", path, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.ValidationErrors == nil {
		res.ValidationErrors = []string{}
	}
	return jsonResult(res)
}

type projectSummary struct {
	ID                int64   `json:"id"`
	ProjectName       string  `json:"project_name"`
	ResponsiblePerson string  `json:"responsible_person"`
	CreatedAt         string  `json:"created_at"`
	Items             int     `json:"items"`
	Total             float64 `json:"total"`
	TotalDisplay      string  `json:"total_display"`
}

func (s *Server) handleListProjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ps, err := s.svc.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]projectSummary, 0, len(ps))
	for _, p := range ps {
		out = append(out, projectSummary{
			ID:                p.ID,
			ProjectName:       p.ProjectName,
			ResponsiblePerson: p.ResponsiblePerson,
			CreatedAt:         p.CreatedAt.Format("2006-01-02 15:04:05"),
			Items:             len(p.BudgetItems),
			Total:             p.Total(),
			TotalDisplay:      utils.FormatBaht(p.Total()),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := int64(raw)
	if id <= 0 || float64(id) != raw {
		return mcp.NewToolResultError("id must be a positive integer"), nil
	}

	p, err := s.svc.GetProject(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(struct {
		entity.Project
		Total float64 `json:"total"`
	}{p, p.Total()})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
