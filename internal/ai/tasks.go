package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

// RiskContext carries the evidence bundle handed to the risk assessment
// prompt.
type RiskContext struct {
	Request    model.VerificationRequest
	Signals    model.SignalSet
	Enrichment []map[string]any
	Reputation []model.SearchHit
}

// Assessment is the structured output of a risk assessment. TrustScore is
// nil when the model declined to produce a usable number.
type Assessment struct {
	TrustScore     *float64
	Classification string
	Analysis       string
	Flags          []string
}

// Assessor is the risk assessment surface the pipeline depends on.
type Assessor interface {
	AssessRisk(ctx context.Context, rc RiskContext) (Assessment, error)
}

// Tasks exposes the engine's prompt-based operations on top of an Adapter.
type Tasks struct {
	adapter *Adapter
}

// NewTasks wraps an adapter.
func NewTasks(adapter *Adapter) *Tasks {
	return &Tasks{adapter: adapter}
}

// requireFields checks that each required key is present and non-empty in
// data. Missing keys are listed under an "error" entry; partial data is
// kept so callers can still use what arrived.
func requireFields(data map[string]any, required ...string) map[string]any {
	var missing []string
	for _, f := range required {
		v, ok := data[f]
		if !ok || v == nil {
			missing = append(missing, f)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		data["error"] = "missing fields: " + strings.Join(missing, ", ")
	}
	return data
}

// AssessRisk asks the model for a holistic legitimacy judgment over the
// collected signals.
func (t *Tasks) AssessRisk(ctx context.Context, rc RiskContext) (Assessment, error) {
	signalsJSON, _ := json.MarshalIndent(rc.Signals, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, `You are a corporate fraud analyst. Assess whether the company below is a legitimate business based only on the evidence provided.

Company: %s
Country: %s
`, rc.Request.Name, rc.Request.Country)
	if rc.Request.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", rc.Request.Industry)
	}
	if rc.Request.HRName != "" {
		fmt.Fprintf(&b, "HR contact: %s <%s>\n", rc.Request.HRName, rc.Request.HREmail)
	}
	if rc.Request.RegisteredAddress != "" {
		fmt.Fprintf(&b, "Registered address: %s\n", rc.Request.RegisteredAddress)
	}
	fmt.Fprintf(&b, "\nVerification signals:\n%s\n", signalsJSON)

	if len(rc.Enrichment) > 0 {
		enrichJSON, _ := json.Marshal(rc.Enrichment)
		fmt.Fprintf(&b, "\nBusiness dataset records:\n%s\n", enrichJSON)
	}
	if len(rc.Reputation) > 0 {
		b.WriteString("\nPublic reputation results:\n")
		for _, h := range rc.Reputation {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", h.Title, h.Snippet, h.Link)
		}
	}

	b.WriteString(`
Respond with only a JSON object:
{
  "trust_score": <number 0-100>,
  "classification": "<High Trust|Review Needed|Low Trust>",
  "analysis": "<two or three sentence summary>",
  "flags": ["<specific red flag>", ...]
}`)

	res := t.adapter.Generate(ctx, b.String())
	if res.Err != nil {
		return Assessment{}, res.Err
	}
	data := requireFields(res.Data, "trust_score", "classification", "analysis", "flags")

	out := Assessment{
		Classification: stringField(data, "classification"),
		Analysis:       stringField(data, "analysis"),
		Flags:          stringSlice(data, "flags"),
	}
	if score, ok := numberField(data, "trust_score"); ok && score >= 0 && score <= 100 {
		out.TrustScore = &score
	}
	return out, nil
}

// ExtractRegistration pulls company registration details out of free text,
// typically a pasted registry page or certificate.
func (t *Tasks) ExtractRegistration(ctx context.Context, text string) (map[string]any, error) {
	prompt := fmt.Sprintf(`Extract the company registration details from the document below.

Document:
%s

Respond with only a JSON object:
{"company_name": "...", "registry_id": "...", "country": "...", "registered_address": "..."}
Use an empty string for anything not present.`, text)

	res := t.adapter.Generate(ctx, prompt)
	if res.Err != nil {
		return nil, res.Err
	}
	return requireFields(res.Data, "company_name", "registry_id", "country"), nil
}

// ExtractOfferLetter pulls the company and HR contact details out of an
// internship offer letter.
func (t *Tasks) ExtractOfferLetter(ctx context.Context, text string) (map[string]any, error) {
	prompt := fmt.Sprintf(`Extract the hiring details from the offer letter below.

Offer letter:
%s

Respond with only a JSON object:
{"company_name": "...", "hr_name": "...", "hr_email": "...", "role": "...", "stipend": "...", "start_date": "..."}
Use an empty string for anything not present.`, text)

	res := t.adapter.Generate(ctx, prompt)
	if res.Err != nil {
		return nil, res.Err
	}
	return requireFields(res.Data, "company_name", "hr_name", "hr_email", "role"), nil
}

// ClassifyInternshipRelevance judges whether an internship role matches a
// program's academic requirements.
func (t *Tasks) ClassifyInternshipRelevance(ctx context.Context, role, description string) (map[string]any, error) {
	prompt := fmt.Sprintf(`Judge whether the internship below is relevant to a computer science degree program.

Role: %s
Description: %s

Respond with only a JSON object:
{"relevant": <true|false>, "score": <number 0-100>, "reason": "..."}`, role, description)

	res := t.adapter.Generate(ctx, prompt)
	if res.Err != nil {
		return nil, res.Err
	}
	return requireFields(res.Data, "relevant", "score"), nil
}

// RankGuideMatches ranks faculty guides for a student's internship domain.
func (t *Tasks) RankGuideMatches(ctx context.Context, student string, faculty []string) (map[string]any, error) {
	prompt := fmt.Sprintf(`Rank the faculty members below by fit as an internship guide for this student.

Student profile: %s
Faculty: %s

Respond with only a JSON object:
{"ranked_matches": [{"name": "...", "score": <number 0-100>, "reason": "..."}, ...]}`,
		student, strings.Join(faculty, "; "))

	res := t.adapter.Generate(ctx, prompt)
	if res.Err != nil {
		return nil, res.Err
	}
	return requireFields(res.Data, "ranked_matches"), nil
}

func stringField(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func numberField(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func stringSlice(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
