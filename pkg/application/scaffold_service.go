package application

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/specguard/pkg/domain/scaffold"
	"github.com/felixgeelhaar/specguard/pkg/storage"
)

// ScaffoldRequest names the requirements document and the output root.
type ScaffoldRequest struct {
	SRSPath string
	OutDir  string
	// Force overwrites files that already exist.
	Force bool
}

// ScaffoldService turns a requirements document into spec documents.
type ScaffoldService struct {
	logger *slog.Logger
}

func NewScaffoldService(logger *slog.Logger) *ScaffoldService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScaffoldService{logger: logger}
}

// Scaffold writes the artifacts for every domain of the requirements
// document. Existing files are skipped unless req.Force is set.
func (s *ScaffoldService) Scaffold(req ScaffoldRequest) (*scaffold.Result, error) {
	// #nosec G304 -- path is supplied by the operator
	data, err := os.ReadFile(req.SRSPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements document: %w", err)
	}
	domains := scaffold.ParseSRS(string(data))
	if len(domains) == 0 {
		return nil, fmt.Errorf("%s: no domain sections with requirement blocks found", req.SRSPath)
	}

	artifacts, err := scaffold.Plan(domains)
	if err != nil {
		return nil, fmt.Errorf("failed to render artifacts: %w", err)
	}

	out := req.OutDir
	if out == "" {
		out = "."
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &scaffold.Result{
		DomainCount:      len(domains),
		RequirementCount: scaffold.RequirementCount(domains),
		Created:          []string{},
		Skipped:          []string{},
	}
	for _, a := range artifacts {
		target := filepath.Join(out, filepath.FromSlash(a.Path))
		if !req.Force {
			if _, err := os.Stat(target); err == nil {
				result.Skipped = append(result.Skipped, a.Path)
				continue
			}
		}
		if err := storage.WriteFile(target, a.Content); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, a.Path)
	}

	s.logger.Info("scaffold complete", "out", out, "domains", result.DomainCount,
		"created", len(result.Created), "skipped", len(result.Skipped))
	return result, nil
}
