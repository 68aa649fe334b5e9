// Package model defines the data types shared across the verification engine.
package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// VerificationRequest is the immutable input to a verification run.
// Name and Country are required; every other field is optional and gates
// which checks run.
type VerificationRequest struct {
	Name              string   `json:"name" yaml:"name"`
	Country           string   `json:"country" yaml:"country"`
	RegistryID        string   `json:"registry_id,omitempty" yaml:"registry_id"`
	HRName            string   `json:"hr_name,omitempty" yaml:"hr_name"`
	HREmail           string   `json:"hr_email,omitempty" yaml:"hr_email"`
	RegisteredAddress string   `json:"registered_address,omitempty" yaml:"registered_address"`
	LinkedInURL       string   `json:"linkedin_url,omitempty" yaml:"linkedin_url"`
	WebsiteURLs       []string `json:"website_urls,omitempty" yaml:"website_urls"`
	Industry          string   `json:"industry,omitempty" yaml:"industry"`
	UserID            string   `json:"user_id,omitempty" yaml:"user_id"`
}

// Validate checks the required fields.
func (r VerificationRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return eris.New("verification request: company name is required")
	}
	if strings.TrimSpace(r.Country) == "" {
		return eris.New("verification request: country is required")
	}
	return nil
}

// PrimaryWebsite returns the first website URL, or "".
func (r VerificationRequest) PrimaryWebsite() string {
	if len(r.WebsiteURLs) == 0 {
		return ""
	}
	return r.WebsiteURLs[0]
}

// SearchHit is a single ranked search-engine result.
type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// VerificationMethod names how a provider confirmed a match.
type VerificationMethod string

const (
	MethodStrictID   VerificationMethod = "strict_id"
	MethodNameMatch  VerificationMethod = "name_match"
	MethodLinkedIn   VerificationMethod = "linkedin"
	MethodWebsite    VerificationMethod = "website"
	MethodCleanName  VerificationMethod = "clean_name"
	MethodEnrichment VerificationMethod = "enrichment"
)

// ConfidenceRecord is the outcome of one provider query against one domain.
type ConfidenceRecord struct {
	Domain  string             `json:"domain"`
	Found   bool               `json:"found"`
	Method  VerificationMethod `json:"method,omitempty"`
	Hits    []SearchHit        `json:"hits,omitempty"`
	Records []map[string]any   `json:"records,omitempty"`
}

// Signal is one independently-verified claim plus its evidence.
type Signal struct {
	Verified bool   `json:"verified"`
	Score    int    `json:"score,omitempty"`
	Source   string `json:"source,omitempty"`
}

// SignalSet accumulates the per-claim evidence for a single request. It is
// owned by one request's execution and never shared across requests.
type SignalSet struct {
	RegistryFound     bool                        `json:"registry_found"`
	RegistryBreakdown map[string]ConfidenceRecord `json:"registry_breakdown,omitempty"`
	HRVerified        Signal                      `json:"hr_verified"`
	AddressVerified   Signal                      `json:"address_verified"`
	LinkedInVerified  Signal                      `json:"linkedin_verified"`
	WebsiteVerified   Signal                      `json:"website_verified"`
	EmailDomainMatch  bool                        `json:"email_domain_match"`
}

// TrustTier is the ordered categorical classification of a trust score.
type TrustTier string

const (
	TierLow    TrustTier = "Low Trust"
	TierReview TrustTier = "Review Needed"
	TierHigh   TrustTier = "High Trust"
)

// VerificationStatus is the binary verdict attached to a result.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "Pending"
	StatusVerified VerificationStatus = "Verified"
)

// AnalysisResult is the engine's output. A provisional result is returned
// at the end of the mandatory phase; the finalized result supersedes it
// once the background phase completes.
type AnalysisResult struct {
	TrustScore  float64            `json:"trust_score"`
	TrustTier   TrustTier          `json:"trust_tier"`
	Status      VerificationStatus `json:"verification_status"`
	Summary     string             `json:"summary"`
	RedFlags    []string           `json:"red_flags"`
	Signals     SignalSet          `json:"signals"`
	Provisional bool               `json:"provisional"`
	Note        string             `json:"note,omitempty"`
	ReportPath  string             `json:"report_path,omitempty"`
}

// CompanyRecord is the persisted verification outcome, keyed by
// case-insensitive company name plus owning user.
type CompanyRecord struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	UserID            string             `json:"user_id"`
	Status            VerificationStatus `json:"verification_status"`
	TrustScore        float64            `json:"trust_score"`
	TrustTier         TrustTier          `json:"trust_tier"`
	ReportPath        string             `json:"report_path,omitempty"`
	Approved          bool               `json:"approved"`
	HRName            string             `json:"hr_name,omitempty"`
	HREmail           string             `json:"hr_email,omitempty"`
	WebsiteURL        string             `json:"website_url,omitempty"`
	LinkedInURL       string             `json:"linkedin_url,omitempty"`
	RegistryID        string             `json:"registry_id,omitempty"`
	RegisteredAddress string             `json:"registered_address,omitempty"`
	Country           string             `json:"country,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
