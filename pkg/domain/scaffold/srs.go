// Package scaffold turns a software requirements document into the set of
// lifecycle artifacts each of its domains needs.
package scaffold

import (
	"regexp"
	"strings"
)

var (
	domainHeading      = regexp.MustCompile(`^###\s+(\d+(?:\.\d+)*)\.?\s+(.+?)\s*$`)
	requirementHeading = regexp.MustCompile(`^####\s+((?:FR|NFR)-\d+)\b[\s:.-]*(.*?)\s*$`)
	sectionHeading     = regexp.MustCompile(`^#{1,3}\s`)
	attributeRow       = regexp.MustCompile(`^\|\s*([^|]+?)\s*\|\s*(.*?)\s*\|?\s*$`)
	slugCleaner        = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParsedRequirement is one FR-/NFR- block of a requirements document.
type ParsedRequirement struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	Description string            `json:"description,omitempty"`
}

// ParsedDomain is a numbered section of a requirements document.
type ParsedDomain struct {
	Section      string              `json:"section"`
	Title        string              `json:"title"`
	Slug         string              `json:"slug"`
	Requirements []ParsedRequirement `json:"requirements"`
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugCleaner.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// ParseSRS extracts domains and their requirements. Domains without any
// requirement block are dropped.
func ParseSRS(text string) []ParsedDomain {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		domains []ParsedDomain
		current *ParsedDomain
		req     *ParsedRequirement
		prose   []string
	)

	flushReq := func() {
		if req == nil || current == nil {
			req = nil
			return
		}
		if req.Description == "" {
			req.Description = strings.Join(prose, " ")
		}
		if req.Priority == "" {
			req.Priority = req.Attributes["priority"]
		}
		if req.Title == "" {
			req.Title = req.ID
		}
		current.Requirements = append(current.Requirements, *req)
		req, prose = nil, nil
	}
	flushDomain := func() {
		flushReq()
		if current != nil && len(current.Requirements) > 0 {
			domains = append(domains, *current)
		}
		current = nil
	}

	inFence := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := domainHeading.FindStringSubmatch(line); m != nil {
			flushDomain()
			current = &ParsedDomain{Section: m[1], Title: m[2], Slug: Slugify(m[2])}
			continue
		}
		// Any other section heading, numbered or not, ends the domain.
		if sectionHeading.MatchString(line) {
			flushDomain()
			continue
		}
		if m := requirementHeading.FindStringSubmatch(line); m != nil {
			flushReq()
			if current != nil {
				req = &ParsedRequirement{ID: m[1], Title: m[2], Attributes: map[string]string{}}
			}
			continue
		}
		if strings.HasPrefix(line, "####") {
			flushReq()
			continue
		}
		if req == nil {
			continue
		}

		if strings.HasPrefix(line, "|") {
			m := attributeRow.FindStringSubmatch(line)
			if m == nil || strings.Trim(m[1], "-: ") == "" {
				continue
			}
			key := strings.ToLower(strings.Trim(m[1], "* "))
			if key == "attribute" || key == "field" {
				continue
			}
			val := strings.TrimSpace(strings.TrimSuffix(m[2], "|"))
			req.Attributes[key] = val
			switch key {
			case "priority":
				req.Priority = val
			case "description":
				req.Description = val
			}
			continue
		}
		if line != "" {
			prose = append(prose, line)
		}
	}
	flushDomain()
	return domains
}

// RequirementCount totals the requirements across domains.
func RequirementCount(domains []ParsedDomain) int {
	n := 0
	for _, d := range domains {
		n += len(d.Requirements)
	}
	return n
}
