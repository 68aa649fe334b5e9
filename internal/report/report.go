// Package report renders verification outcomes: a markdown artifact per
// company and a rolling xlsx audit log.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

// Renderer writes per-company markdown reports.
type Renderer struct {
	dir string

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewRenderer creates a renderer writing into dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, nowFunc: time.Now}
}

// Render writes the report for a result and returns the artifact path.
func (r *Renderer) Render(name string, result model.AnalysisResult) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", eris.Wrap(err, "report: create directory")
	}

	now := r.nowFunc().UTC()
	path := filepath.Join(r.dir, fmt.Sprintf("%s_%s.md", slugify(name), now.Format("20060102_150405")))

	var b strings.Builder
	fmt.Fprintf(&b, "# Verification Report: %s\n\n", name)
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Trust score | %.1f |\n", result.TrustScore)
	fmt.Fprintf(&b, "| Trust tier | %s |\n", result.TrustTier)
	fmt.Fprintf(&b, "| Status | %s |\n", result.Status)
	fmt.Fprintf(&b, "| Provisional | %t |\n\n", result.Provisional)

	if result.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", result.Summary)
	}

	if len(result.RedFlags) > 0 {
		b.WriteString("## Red flags\n\n")
		for _, f := range result.RedFlags {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Signals\n\n")
	fmt.Fprintf(&b, "- Registry found: %t\n", result.Signals.RegistryFound)
	fmt.Fprintf(&b, "- Email domain match: %t\n", result.Signals.EmailDomainMatch)
	fmt.Fprintf(&b, "- HR association: %s\n", signalLine(result.Signals.HRVerified))
	fmt.Fprintf(&b, "- LinkedIn presence: %s\n", signalLine(result.Signals.LinkedInVerified))
	fmt.Fprintf(&b, "- Website ownership: %s\n", signalLine(result.Signals.WebsiteVerified))
	fmt.Fprintf(&b, "- Address association: %s\n", signalLine(result.Signals.AddressVerified))

	if len(result.Signals.RegistryBreakdown) > 0 {
		b.WriteString("\n### Registry breakdown\n\n")
		domains := make([]string, 0, len(result.Signals.RegistryBreakdown))
		for d := range result.Signals.RegistryBreakdown {
			domains = append(domains, d)
		}
		sort.Strings(domains)
		for _, d := range domains {
			rec := result.Signals.RegistryBreakdown[d]
			if rec.Found {
				fmt.Fprintf(&b, "- %s: found (%s)\n", d, rec.Method)
			} else {
				fmt.Fprintf(&b, "- %s: not found\n", d)
			}
		}
	}

	if result.Note != "" {
		fmt.Fprintf(&b, "\n---\n%s\n", result.Note)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", eris.Wrap(err, "report: write file")
	}
	return path, nil
}

func signalLine(s model.Signal) string {
	if !s.Verified {
		return "not verified"
	}
	if s.Source != "" {
		return fmt.Sprintf("verified (score %d, %s)", s.Score, s.Source)
	}
	return fmt.Sprintf("verified (score %d)", s.Score)
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	if s == "" {
		s = "company"
	}
	return s
}
