package pipeline

import (
	"github.com/sells-group/scout-cli/internal/model"
)

// Fusion weights. Each factor only ever adds, so a better input can never
// lower the score.
const (
	intentHighBonus     = 30
	intentMediumBonus   = 15
	sentimentTopBonus   = 20
	sentimentPosBonus   = 10
	abilityHighBonus    = 25
	abilityMediumBonus  = 15
	productFitHighBonus = 15
	productFitMidBonus  = 8
	contactInfoBonus    = 10
)

// FusionPass combines passes 2-4 into the ScoutScore, its confidence, and
// a lead-quality tier. It is the only pass that merges prior passes into
// a single number.
func FusionPass(record *model.NormalizedProspect, classify *ClassifyResult, behavior *BehaviorResult, deep *DeepScanResult) (*FusionResult, error) {
	score := 0

	switch classify.BuyingIntent {
	case IntentHigh:
		score += intentHighBonus
	case IntentMedium:
		score += intentMediumBonus
	}

	switch behavior.Sentiment {
	case model.SentimentVeryPositive:
		score += sentimentTopBonus
	case model.SentimentPositive:
		score += sentimentPosBonus
	}

	switch deep.SalesFit.BuyingAbility {
	case "high":
		score += abilityHighBonus
	case "medium":
		score += abilityMediumBonus
	}

	switch {
	case deep.SalesFit.ProductFit >= 75:
		score += productFitHighBonus
	case deep.SalesFit.ProductFit >= 50:
		score += productFitMidBonus
	}

	if record.HasContactInfo() || classify.ExtractedEmail != "" || classify.ExtractedPhone != "" {
		score += contactInfoBonus
	}

	if score > 100 {
		score = 100
	}

	confidence := (deep.SalesFit.Confidence + deep.Investigation.Confidence + deep.Personality.Confidence) / 3

	return &FusionResult{
		ScoutScoreV10:   score,
		ConfidenceScore: confidence,
		LeadQuality:     leadQuality(score),
	}, nil
}

func leadQuality(score int) model.LeadStage {
	switch {
	case score >= 70:
		return model.StageHot
	case score >= 50:
		return model.StageWarm
	case score >= 30:
		return model.StageQualified
	default:
		return model.StageCold
	}
}
