// Package mcp exposes compliance scans and spec checks to MCP clients.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/specguard/pkg/application"
	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// Server wires the application services into an MCP server. Tool paths are
// resolved against root.
type Server struct {
	mcpServer  *mcp.Server
	compliance *application.ComplianceService
	specs      *application.SpecService
	root       string
	rulesPath  string
}

// mcpErr returns a user-friendly error for MCP clients. Path and config
// errors are already actionable and pass through.
func mcpErr(friendly string, err error) error {
	if errors.Is(err, compliance.ErrPath) || errors.Is(err, compliance.ErrConfig) {
		return err
	}
	return fmt.Errorf("%s", friendly)
}

// NewServer creates a server for the project at root. rulesPath, when set,
// replaces the embedded rule set for every scan.
func NewServer(root, rulesPath string, logger *slog.Logger) *Server {
	info := mcp.ServerInfo{
		Name:    "specguard",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("specguard MCP Server"),
			mcp.WithDescription("specguard checks repositories against documentation and SDLC spec rules."),
			mcp.WithWebsiteURL("https://github.com/felixgeelhaar/specguard"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Run specguard_scan for a compliance report, specguard_spec_validate and specguard_spec_crossref to check spec documents, specguard_rules to list the active rules."),
		),
		compliance: application.NewComplianceService(nil, logger),
		specs:      application.NewSpecService(logger),
		root:       root,
		rulesPath:  rulesPath,
	}
	s.registerTools()
	s.registerResources()
	return s
}

type ScanArgs struct {
	Path        string `json:"path,omitempty" jsonschema:"description=Directory to scan, relative to the server root (default: the root)"`
	IDs         string `json:"ids,omitempty" jsonschema:"description=Rule id filter such as 1-5,8"`
	ProjectType string `json:"project_type,omitempty" jsonschema:"description=open_source or internal (default: detected)"`
	Scope       string `json:"scope,omitempty" jsonschema:"description=small, medium or large (default: large)"`
}

type SpecArgs struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory holding spec documents, relative to the server root"`
}

type RulesArgs struct {
	IDs string `json:"ids,omitempty" jsonschema:"description=Rule id filter such as 1-5,8"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("specguard_scan").
		Description("Run the compliance rule set against the project and return the scan report").
		Handler(s.handleScan)

	s.mcpServer.Tool("specguard_spec_validate").
		Description("Parse and validate every spec document and return the diagnostics").
		Handler(s.handleSpecValidate)

	s.mcpServer.Tool("specguard_spec_crossref").
		Description("Check dependencies, SDLC chains, inventories and traceability between spec documents").
		Handler(s.handleSpecCrossRef)

	s.mcpServer.Tool("specguard_rules").
		Description("List the active rules").
		Handler(s.handleRules)
}

func (s *Server) resolve(rel string) string {
	if rel == "" {
		return s.root
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.root, rel)
}

func (s *Server) handleScan(ctx context.Context, args ScanArgs) (any, error) {
	report, err := s.compliance.Scan(ctx, application.ScanRequest{
		Root:        s.resolve(args.Path),
		RulesPath:   s.rulesPath,
		IDs:         args.IDs,
		ProjectType: args.ProjectType,
		Scope:       args.Scope,
	})
	if err != nil {
		return nil, mcpErr("Failed to scan the project.", err)
	}
	return report, nil
}

func (s *Server) handleSpecValidate(ctx context.Context, args SpecArgs) (any, error) {
	result, err := s.specs.Validate(s.resolve(args.Path))
	if err != nil {
		return nil, mcpErr("Failed to validate spec documents.", err)
	}
	return result, nil
}

func (s *Server) handleSpecCrossRef(ctx context.Context, args SpecArgs) (any, error) {
	report, err := s.specs.CrossReference(s.resolve(args.Path))
	if err != nil {
		return nil, mcpErr("Failed to cross-reference spec documents.", err)
	}
	return report, nil
}

func (s *Server) handleRules(ctx context.Context, args RulesArgs) (any, error) {
	rules, err := s.compliance.ListRules(s.rulesPath, args.IDs)
	if err != nil {
		return nil, mcpErr("Failed to load rules.", err)
	}
	return rules, nil
}

// ServeStdio serves MCP over stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}
