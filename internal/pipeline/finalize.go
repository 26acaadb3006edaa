package pipeline

import "github.com/rotisserie/eris"

// FinalPass assembles the denormalized final profile from the accumulated
// pass context. It reads only prior pass outputs and the job's record;
// given the same context it always produces the same profile.
func FinalPass(c *Context) (*FinalProfile, error) {
	if c.Clean == nil || c.Classify == nil || c.Behavior == nil || c.DeepScan == nil || c.Fusion == nil || c.Risk == nil {
		return nil, eris.New("final pass: incomplete pass context")
	}
	if !c.Risk.ShouldProceed {
		return nil, eris.New("final pass: invoked on a blocked job")
	}

	return &FinalProfile{
		ScoutScoreV10:   c.Fusion.ScoutScoreV10,
		ConfidenceScore: c.Fusion.ConfidenceScore,
		LeadQuality:     c.Fusion.LeadQuality,
		BuyingIntent:    c.Classify.BuyingIntent,
		Sentiment:       c.Behavior.Sentiment,
		EmotionScore:    c.Behavior.EmotionScore,
		Personality:     c.DeepScan.Personality.Type,
		BuyingAbility:   c.DeepScan.SalesFit.BuyingAbility,
		ProductFit:      c.DeepScan.SalesFit.ProductFit,
		UrgencyLevel:    c.Behavior.UrgencyLevel,
		KeywordTags:     c.Classify.KeywordTags,
		HiddenSignals:   c.Behavior.HiddenSignals,
		PainPoints:      c.DeepScan.Investigation.PainPoints,
		Industries:      c.Classify.DetectedIndustries,
		Language:        c.Clean.Language,
		SpamFlag:        c.Clean.SpamFlag,
		WordCount:       c.Clean.WordCount,
		RiskLevel:       c.Risk.RiskLevel,
	}, nil
}
