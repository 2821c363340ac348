// Package ruleset loads rule documents and turns them into executable checks.
package ruleset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/felixgeelhaar/specguard/pkg/domain/checks"
	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
	"github.com/felixgeelhaar/specguard/pkg/domain/handlers"
)

// DefaultSource names the embedded rule set in errors and reports.
const DefaultSource = "<default>"

//go:embed default_rules.toml
var defaultRulesTOML []byte

type document struct {
	Rules []record `toml:"rules"`
}

type record struct {
	ID          int    `toml:"id"`
	Category    string `toml:"category"`
	Description string `toml:"description"`
	Severity    string `toml:"severity"`
	Type        string `toml:"type"`
	Handler     string `toml:"handler"`
	Path        string `toml:"path"`
	Glob        string `toml:"glob"`
	Pattern     string `toml:"pattern"`
	ProjectType string `toml:"project_type"`
	Scope       string `toml:"scope"`
	Message     string `toml:"message"`
}

// Loader parses rule documents against a handler registry.
type Loader struct {
	registry *handlers.Registry
}

// NewLoader returns a loader resolving builtin rules through registry.
// A nil registry means handlers.Default().
func NewLoader(registry *handlers.Registry) *Loader {
	if registry == nil {
		registry = handlers.Default()
	}
	return &Loader{registry: registry}
}

var (
	defaultOnce  sync.Once
	defaultRules []compliance.RuleDef
	defaultErr   error
)

// Defaults returns the embedded rule set. It is parsed once per process and
// callers receive their own copy.
func (l *Loader) Defaults() ([]compliance.RuleDef, error) {
	defaultOnce.Do(func() {
		defaultRules, defaultErr = NewLoader(nil).Parse(DefaultSource, defaultRulesTOML)
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	out := make([]compliance.RuleDef, len(defaultRules))
	copy(out, defaultRules)
	return out, nil
}

// Load reads the rule document at path, or the embedded defaults when path
// is empty. An external document replaces the defaults entirely.
func (l *Loader) Load(path string) ([]compliance.RuleDef, error) {
	if path == "" {
		return l.Defaults()
	}
	// #nosec G304 -- path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &compliance.ConfigError{Source: path, Message: "cannot read rule document", Err: err}
	}
	return l.Parse(path, data)
}

// Parse decodes and validates a TOML rule document. Rules are returned in
// ascending id order.
func (l *Loader) Parse(source string, data []byte) ([]compliance.RuleDef, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, &compliance.ConfigError{Source: source, Line: perr.Position.Line, Message: perr.Message}
		}
		return nil, &compliance.ConfigError{Source: source, Message: "invalid rule document", Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &compliance.ConfigError{Source: source, Message: "unknown fields: " + strings.Join(keys, ", ")}
	}
	if len(doc.Rules) == 0 {
		return nil, &compliance.ConfigError{Source: source, Message: "no [[rules]] defined"}
	}

	seen := make(map[int]bool, len(doc.Rules))
	rules := make([]compliance.RuleDef, 0, len(doc.Rules))
	for i, rec := range doc.Rules {
		rule, err := l.convert(rec)
		if err != nil {
			cerr := &compliance.ConfigError{Source: source, RuleID: rec.ID, Message: err.Error()}
			if rec.ID <= 0 {
				cerr.Message = fmt.Sprintf("rules[%d]: %s", i, err.Error())
			}
			if rec.Type == string(compliance.KindBuiltin) {
				cerr.Handler = rec.Handler
			}
			return nil, cerr
		}
		if seen[rule.ID] {
			return nil, &compliance.ConfigError{Source: source, RuleID: rule.ID, Message: fmt.Sprintf("duplicate rule id %d", rule.ID)}
		}
		seen[rule.ID] = true
		rules = append(rules, rule)
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (l *Loader) convert(rec record) (compliance.RuleDef, error) {
	if rec.ID <= 0 {
		return compliance.RuleDef{}, fmt.Errorf("id must be a positive integer, got %d", rec.ID)
	}
	severity, err := compliance.ParseSeverity(rec.Severity)
	if err != nil {
		return compliance.RuleDef{}, err
	}
	kind := compliance.CheckKind(strings.ToLower(strings.TrimSpace(rec.Type)))
	if kind == "" {
		return compliance.RuleDef{}, errors.New("missing type")
	}
	if !kind.IsValid() {
		return compliance.RuleDef{}, fmt.Errorf("unknown type %q", rec.Type)
	}

	rule := compliance.RuleDef{
		ID:          rec.ID,
		Category:    rec.Category,
		Description: rec.Description,
		Severity:    severity,
		Kind:        kind,
		Handler:     rec.Handler,
		Path:        rec.Path,
		Glob:        rec.Glob,
		Pattern:     rec.Pattern,
		Message:     rec.Message,
	}
	if rec.ProjectType != "" {
		if rule.ProjectType, err = compliance.ParseProjectType(rec.ProjectType); err != nil {
			return compliance.RuleDef{}, err
		}
	}
	if rec.Scope != "" {
		if rule.Scope, err = compliance.ParseScope(rec.Scope); err != nil {
			return compliance.RuleDef{}, err
		}
	}

	if rule.IsBuiltin() {
		if rule.Handler == "" {
			return compliance.RuleDef{}, errors.New("builtin rule requires handler")
		}
		if _, ok := l.registry.Lookup(rule.Handler); !ok {
			msg := fmt.Sprintf("unknown handler %q", rule.Handler)
			if s := l.registry.Suggest(rule.Handler); s != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", s)
			}
			return compliance.RuleDef{}, errors.New(msg)
		}
		return rule, nil
	}
	if _, err := checks.New(rule); err != nil {
		return compliance.RuleDef{}, err
	}
	return rule, nil
}

// Build turns validated rules into checks ordered by id.
func (l *Loader) Build(rules []compliance.RuleDef) ([]compliance.Check, error) {
	ordered := make([]compliance.RuleDef, len(rules))
	copy(ordered, rules)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	out := make([]compliance.Check, 0, len(ordered))
	for _, rule := range ordered {
		if rule.IsBuiltin() {
			h, ok := l.registry.Lookup(rule.Handler)
			if !ok {
				return nil, &compliance.ConfigError{RuleID: rule.ID, Handler: rule.Handler, Message: fmt.Sprintf("unknown handler %q", rule.Handler)}
			}
			out = append(out, handlers.NewCheck(rule, h))
			continue
		}
		c, err := checks.New(rule)
		if err != nil {
			return nil, &compliance.ConfigError{RuleID: rule.ID, Message: err.Error()}
		}
		out = append(out, c)
	}
	return out, nil
}
