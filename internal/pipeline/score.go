package pipeline

import (
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/config"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

// ruleScore computes the deterministic baseline from the mandatory signals.
func ruleScore(cfg config.ScoringConfig, signals model.SignalSet) float64 {
	score := 0.0
	if signals.RegistryFound {
		score += float64(cfg.RegistryWeight)
	}
	if signals.EmailDomainMatch {
		score += float64(cfg.EmailWeight)
	}
	if signals.HRVerified.Verified {
		score += float64(cfg.HRWeight)
	}
	return clampScore(score)
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// tierFor derives the categorical tier from a numeric score.
func tierFor(cfg config.ScoringConfig, score float64) model.TrustTier {
	switch {
	case score >= cfg.VerifiedThreshold:
		return model.TierHigh
	case score >= cfg.ReviewThreshold:
		return model.TierReview
	default:
		return model.TierLow
	}
}

// statusFor derives the binary verdict from a numeric score.
func statusFor(cfg config.ScoringConfig, score float64) model.VerificationStatus {
	if score >= cfg.VerifiedThreshold {
		return model.StatusVerified
	}
	return model.StatusPending
}

// classificationTier maps a model-produced classification string to a
// tier, if it names one of the known tiers.
func classificationTier(s string) (model.TrustTier, bool) {
	switch model.TrustTier(s) {
	case model.TierHigh, model.TierReview, model.TierLow:
		return model.TrustTier(s), true
	default:
		return "", false
	}
}
