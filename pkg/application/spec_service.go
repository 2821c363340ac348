package application

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/specguard/pkg/domain/spec"
	"github.com/felixgeelhaar/specguard/pkg/storage"
)

// SpecService discovers, validates and cross-references spec documents.
type SpecService struct {
	logger *slog.Logger
}

func NewSpecService(logger *slog.Logger) *SpecService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpecService{logger: logger}
}

// SpecValidation is the outcome of validating a project's spec corpus.
type SpecValidation struct {
	Root        string            `json:"root"`
	Documents   int               `json:"documents"`
	Diagnostics []spec.Diagnostic `json:"diagnostics"`
}

// Valid reports whether no diagnostics were found.
func (v *SpecValidation) Valid() bool {
	return len(v.Diagnostics) == 0
}

// LoadCorpus scans root and parses every spec document found.
func (s *SpecService) LoadCorpus(root string, exclude ...string) (*spec.Corpus, string, error) {
	abs, err := storage.ValidateRoot(root)
	if err != nil {
		return nil, "", err
	}
	files, err := storage.NewScanner(s.logger, exclude...).Scan(abs)
	if err != nil {
		return nil, "", err
	}
	corpus := spec.Load(files, storage.NewFileStore(abs))
	s.logger.Debug("spec corpus loaded", "root", abs, "documents", len(corpus.Discovered),
		"parsed", len(corpus.Parsed))
	return corpus, abs, nil
}

// Discover lists the spec documents under root.
func (s *SpecService) Discover(root string, exclude ...string) ([]spec.DiscoveredSpec, error) {
	corpus, _, err := s.LoadCorpus(root, exclude...)
	if err != nil {
		return nil, err
	}
	return corpus.Discovered, nil
}

// Validate parses and validates every spec document under root.
func (s *SpecService) Validate(root string, exclude ...string) (*SpecValidation, error) {
	corpus, abs, err := s.LoadCorpus(root, exclude...)
	if err != nil {
		return nil, err
	}
	diags := corpus.Validate()
	if diags == nil {
		diags = []spec.Diagnostic{}
	}
	return &SpecValidation{Root: abs, Documents: len(corpus.Discovered), Diagnostics: diags}, nil
}

// CrossReference checks the references between spec documents under root.
func (s *SpecService) CrossReference(root string, exclude ...string) (*spec.CrossRefReport, error) {
	corpus, _, err := s.LoadCorpus(root, exclude...)
	if err != nil {
		return nil, err
	}
	report := corpus.CrossReference()
	s.logger.Debug("cross reference complete", "skipped", report.Skipped, "failures", report.FailureCount())
	return report, nil
}

// LoadTyped reads and parses a single typed spec document.
func (s *SpecService) LoadTyped(path string) (spec.Document, error) {
	d, ok := spec.Classify(filepath.ToSlash(path))
	if !ok || d.Format != spec.FormatTyped {
		return nil, fmt.Errorf("%s is not a typed spec document (*.spec.yaml, *.arch.yaml, *.test.yaml, *.deploy.yaml)", path)
	}
	// #nosec G304 -- path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	parsed, diags := spec.Parse(d, data)
	if len(diags) > 0 {
		msgs := make([]string, len(diags))
		for i, diag := range diags {
			msgs[i] = diag.Message
		}
		return nil, fmt.Errorf("%s: %s", path, strings.Join(msgs, "; "))
	}
	return parsed.Doc, nil
}

// RenderMarkdown returns the prose rendering of the typed document at path.
func (s *SpecService) RenderMarkdown(path string) (string, error) {
	doc, err := s.LoadTyped(path)
	if err != nil {
		return "", err
	}
	return spec.Render(doc)
}

// WriteMarkdown renders the typed document at path to out, or to its
// default prose sibling when out is empty. It returns the written path.
func (s *SpecService) WriteMarkdown(path, out string) (string, error) {
	doc, err := s.LoadTyped(path)
	if err != nil {
		return "", err
	}
	if out == "" {
		out = spec.DefaultMarkdownPath(path)
	}
	if out == path {
		return "", errors.New("refusing to overwrite the typed source document")
	}
	text, err := spec.Render(doc)
	if err != nil {
		return "", err
	}
	if err := storage.WriteFile(out, []byte(text)); err != nil {
		return "", err
	}
	s.logger.Debug("markdown written", "source", path, "out", out)
	return out, nil
}
