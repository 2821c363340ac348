package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

var (
	versionHeading  = regexp.MustCompile(`^\[?([^\]\s]+)\]?(?:\s*-\s*(\S+))?`)
	semverPattern   = regexp.MustCompile(`^v?\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.-]+)?$`)
	isoDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	urlPattern      = regexp.MustCompile(`https?://\S+`)
	ownerPattern    = regexp.MustCompile(`^@[A-Za-z0-9][A-Za-z0-9_.-]*(/[A-Za-z0-9][A-Za-z0-9_.-]*)?$`)
	licenseMarkers  = []string{
		"SPDX-License-Identifier",
		"MIT License",
		"Permission is hereby granted, free of charge",
		"Apache License",
		"GNU GENERAL PUBLIC LICENSE",
		"GNU LESSER GENERAL PUBLIC LICENSE",
		"GNU AFFERO GENERAL PUBLIC LICENSE",
		"Mozilla Public License",
		"BSD 2-Clause",
		"BSD 3-Clause",
		"Redistribution and use in source and binary forms",
		"ISC License",
		"This is free and unencumbered software released into the public domain",
		"Eclipse Public License",
		"Creative Commons",
	}
	readmeSectionGroups = []struct {
		label    string
		keywords []string
		ossOnly  bool
	}{
		{"installation", []string{"install", "getting started", "quick start", "quickstart", "setup"}, false},
		{"usage", []string{"usage", "example", "how to use"}, false},
		{"license", []string{"license", "licence"}, true},
		{"contributing", []string{"contribut"}, true},
	}
)

func structureHandlers() []Handler {
	return []Handler{
		handler{"readme_title", "structure", "README starts with a level-1 title", readmeTitle},
		handler{"readme_sections", "structure", "README documents installation and usage", readmeSections},
		handler{"changelog_format", "structure", "CHANGELOG follows the Keep a Changelog layout", changelogFormat},
		handler{"license_recognized", "legal", "LICENSE contains a recognised license text", licenseRecognized},
		handler{"security_contact", "security", "SECURITY policy names a reporting contact", securityContact},
		handler{"codeowners_valid", "ownership", "CODEOWNERS entries name valid owners", codeownersValid},
	}
}

func findReadme(ctx *compliance.ScanContext) (*mdFile, compliance.CheckResult, bool) {
	rel, ok := ctx.FindRootFile("README")
	if !ok {
		return nil, compliance.Skip("no README at project root"), false
	}
	md, ok := loadMarkdown(ctx, rel)
	if !ok {
		return nil, compliance.Skip("cannot read " + rel), false
	}
	return md, compliance.CheckResult{}, true
}

func readmeTitle(ctx *compliance.ScanContext) compliance.CheckResult {
	md, skip, ok := findReadme(ctx)
	if !ok {
		return skip
	}
	if len(md.Headings) == 0 {
		return compliance.Fail(compliance.Violation{File: md.Path, Message: md.Path + " has no headings"})
	}
	first := md.Headings[0]
	if first.Level != 1 || first.Text == "" {
		return compliance.Fail(compliance.Violation{
			File:    md.Path,
			Message: fmt.Sprintf("%s:%d: first heading should be a level-1 title, got level %d", md.Path, first.Line, first.Level),
		})
	}
	return compliance.Pass()
}

func readmeSections(ctx *compliance.ScanContext) compliance.CheckResult {
	md, skip, ok := findReadme(ctx)
	if !ok {
		return skip
	}

	var titles []string
	for _, h := range md.Headings {
		if h.Level >= 2 {
			titles = append(titles, strings.ToLower(h.Text))
		}
	}

	var violations []compliance.Violation
	for _, g := range readmeSectionGroups {
		if g.ossOnly && ctx.ProjectType != compliance.ProjectOpenSource {
			continue
		}
		if !anyContains(titles, g.keywords) {
			violations = append(violations, compliance.Violation{
				File:    md.Path,
				Message: fmt.Sprintf("%s is missing a %s section", md.Path, g.label),
			})
		}
	}
	return compliance.Fail(violations...)
}

func anyContains(haystack, needles []string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}

func changelogFormat(ctx *compliance.ScanContext) compliance.CheckResult {
	rel, ok := ctx.FindRootFile("CHANGELOG", "CHANGES", "HISTORY")
	if !ok {
		return compliance.Skip("no CHANGELOG at project root")
	}
	md, ok := loadMarkdown(ctx, rel)
	if !ok {
		return compliance.Skip("cannot read " + rel)
	}

	var violations []compliance.Violation
	add := func(line int, format string, args ...any) {
		violations = append(violations, compliance.Violation{
			File:    rel,
			Message: fmt.Sprintf("%s:%d: ", rel, line) + fmt.Sprintf(format, args...),
		})
	}

	hasTitle := false
	releases := 0
	for _, h := range md.Headings {
		switch h.Level {
		case 1:
			hasTitle = hasTitle || strings.Contains(strings.ToLower(h.Text), "change")
		case 2:
			releases++
			m := versionHeading.FindStringSubmatch(h.Text)
			if m == nil {
				add(h.Line, "release heading %q has no version", h.Text)
				continue
			}
			if !strings.EqualFold(m[1], "unreleased") && !semverPattern.MatchString(m[1]) {
				add(h.Line, "release heading %q is not a semantic version", h.Text)
			}
			if m[2] != "" && !isoDatePattern.MatchString(m[2]) {
				add(h.Line, "release date %q is not YYYY-MM-DD", m[2])
			}
		}
	}
	if !hasTitle {
		add(1, "missing \"# Changelog\" title")
	}
	if releases == 0 {
		add(1, "no release sections (## [x.y.z] - YYYY-MM-DD)")
	}
	return compliance.Fail(violations...)
}

func licenseRecognized(ctx *compliance.ScanContext) compliance.CheckResult {
	rel, ok := ctx.FindRootFile("LICENSE", "LICENCE", "COPYING")
	if !ok {
		if ctx.ProjectType == compliance.ProjectOpenSource {
			return compliance.Fail(compliance.Violation{Message: "open source project has no LICENSE file"})
		}
		return compliance.Skip("internal project without LICENSE")
	}
	data, err := ctx.ReadFile(rel)
	if err != nil {
		return compliance.Skip("cannot read " + rel)
	}
	text := string(data)
	for _, marker := range licenseMarkers {
		if strings.Contains(text, marker) {
			return compliance.Pass()
		}
	}
	return compliance.Fail(compliance.Violation{File: rel, Message: rel + " does not contain a recognised license text"})
}

// firstExisting returns the first candidate present on disk. Candidates may
// live in hidden directories the scanner skips.
func firstExisting(ctx *compliance.ScanContext, candidates ...string) (string, bool) {
	for _, c := range candidates {
		if ctx.FileExists(c) {
			return c, true
		}
	}
	return "", false
}

func securityContact(ctx *compliance.ScanContext) compliance.CheckResult {
	rel, ok := firstExisting(ctx, "SECURITY.md", ".github/SECURITY.md", "docs/SECURITY.md")
	if !ok {
		if ctx.ProjectType == compliance.ProjectOpenSource {
			return compliance.Fail(compliance.Violation{Message: "open source project has no SECURITY.md"})
		}
		return compliance.Skip("internal project without SECURITY.md")
	}
	data, err := ctx.ReadFile(rel)
	if err != nil {
		return compliance.Skip("cannot read " + rel)
	}
	if emailPattern.Match(data) || urlPattern.Match(data) {
		return compliance.Pass()
	}
	return compliance.Fail(compliance.Violation{File: rel, Message: rel + " does not name an email address or URL for reporting"})
}

func codeownersValid(ctx *compliance.ScanContext) compliance.CheckResult {
	rel, ok := firstExisting(ctx, "CODEOWNERS", ".github/CODEOWNERS", "docs/CODEOWNERS")
	if !ok {
		return compliance.Skip("no CODEOWNERS file")
	}
	data, err := ctx.ReadFile(rel)
	if err != nil {
		return compliance.Skip("cannot read " + rel)
	}

	var violations []compliance.Violation
	entries := 0
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if j := strings.Index(line, " #"); j >= 0 {
			line = strings.TrimSpace(line[:j])
		}
		fields := strings.Fields(line)
		entries++
		if len(fields) < 2 {
			violations = append(violations, compliance.Violation{
				File:    rel,
				Message: fmt.Sprintf("%s:%d: pattern %s has no owner", rel, i+1, fields[0]),
			})
			continue
		}
		for _, owner := range fields[1:] {
			if !ownerPattern.MatchString(owner) && !emailPattern.MatchString(owner) {
				violations = append(violations, compliance.Violation{
					File:    rel,
					Message: fmt.Sprintf("%s:%d: invalid owner %q", rel, i+1, owner),
				})
			}
		}
	}
	if entries == 0 {
		return compliance.Fail(compliance.Violation{File: rel, Message: rel + " has no ownership entries"})
	}
	return compliance.Fail(violations...)
}
