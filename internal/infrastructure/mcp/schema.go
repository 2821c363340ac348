package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const (
	schemaURI = "specguard://schema"
	rulesURI  = "specguard://rules"
)

type schemaResponse struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
}

func toolNames() []string {
	return []string{"specguard_scan", "specguard_spec_validate", "specguard_spec_crossref", "specguard_rules"}
}

func jsonResource(uri string, v any) (*mcplib.ResourceContent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcplib.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("MCP tool schema version").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			return jsonResource(schemaURI, schemaResponse{
				SchemaVersion: SchemaVersion,
				ServerVersion: Version,
				Tools:         toolNames(),
			})
		})

	s.mcpServer.Resource(rulesURI).
		Name(rulesURI).
		Description("The effective rule set used by specguard_scan").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			rules, err := s.compliance.ListRules(s.rulesPath, "")
			if err != nil {
				return nil, err
			}
			return jsonResource(rulesURI, rules)
		})
}
