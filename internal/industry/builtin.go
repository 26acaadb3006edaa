package industry

// builtinModels returns the default industry registry. General is first
// so it anchors the tie-break order and owns the fallback objection
// responses; the rest are ordered by how often they appear in ingested
// data.
func builtinModels() []*Model {
	return []*Model{
		{
			Name:     GeneralIndustry,
			Keywords: nil,
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "price_sensitive", Keywords: []string{"magkano", "how much", "price", "presyo", "mahal"}},
				{Kind: RuleKeyword, Tag: "ready_buyer", Keywords: []string{"where to pay", "paano mag order", "sign me up", "order na"}},
				{Kind: RuleSentiment, Tag: "happy_prospect", Value: "very_positive"},
				{Kind: RuleBehavior, Tag: "needs_proof", Value: "proof_seeking"},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent:   0.35,
				FactorSentiment:      0.25,
				FactorBuyingCapacity: 0.40,
			},
			ObjectionResponses: map[string]string{
				"price":      "Acknowledge the budget concern and break the cost into a per-day figure before comparing it to what they already spend.",
				"trust":      "Share verifiable proof: receipts, named testimonials, and an offer to video call before any payment.",
				"time":       "Offer the smallest possible first step that fits their schedule instead of the full commitment.",
				"hesitation": "Ask one open question to surface the real concern rather than pushing the close.",
				"competitor": "Compare outcomes, not features, and concede what the alternative genuinely does well.",
			},
		},
		{
			Name:     "NetworkMarketing",
			Keywords: []string{"networking", "mlm", "downline", "upline", "binary", "direct selling", "recruit", "negosyo", "raket", "sideline", "extra income"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "income_seeker", Keywords: []string{"extra income", "raket", "sideline", "dagdag kita"}},
				{Kind: RuleKeyword, Tag: "burned_before", Keywords: []string{"nascam", "scam before", "pyramid", "nabudol"}},
				{Kind: RuleRegex, Tag: "team_builder", Pattern: `(?i)\b(team|downline|recruit(ing|ment)?)\b`},
				{Kind: RuleBehavior, Tag: "skeptic", Value: "trust"},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent:        0.25,
				FactorSentiment:           0.20,
				FactorBuyingCapacity:      0.25,
				FactorObjectionDifficulty: 0.30,
			},
			ObjectionResponses: map[string]string{
				"trust": "Lead with the product result, not the opportunity, and show your own usage before any income talk.",
				"price": "Position the starter package against a month of small daily purchases they already make.",
			},
		},
		{
			Name:     "RealEstate",
			Keywords: []string{"condo", "lot", "property", "real estate", "pre-selling", "house and lot", "rfo", "broker", "downpayment", "amortization"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "investor", Keywords: []string{"rental", "roi", "passive income", "airbnb"}},
				{Kind: RuleKeyword, Tag: "end_user", Keywords: []string{"family", "lipat", "move in", "first home"}},
				{Kind: RuleRegex, Tag: "financing_question", Pattern: `(?i)\b(pag-?ibig|bank financ|in-?house|loan)\b`},
				{Kind: RuleSentiment, Tag: "warm_viewer", Value: "positive"},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent:      0.30,
				FactorBuyingCapacity:    0.45,
				FactorPainPointCoverage: 0.25,
			},
			ObjectionResponses: map[string]string{
				"price": "Reframe monthly amortization against their current rent and show the equity difference over five years.",
				"time":  "Offer a no-commitment tripping schedule on a weekend they pick.",
			},
		},
		{
			Name:     "Insurance",
			Keywords: []string{"insurance", "vul", "premium", "policy", "coverage", "life insurance", "health card", "hmo", "protection", "beneficiary"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "breadwinner", Keywords: []string{"family", "anak", "breadwinner", "kids"}},
				{Kind: RuleKeyword, Tag: "health_concern", Keywords: []string{"hospital", "medical", "sakit", "checkup"}},
				{Kind: RuleBehavior, Tag: "price_shopper", Value: "price_inquiry"},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent:        0.25,
				FactorSentiment:           0.15,
				FactorBuyingCapacity:      0.35,
				FactorObjectionDifficulty: 0.25,
			},
			ObjectionResponses: map[string]string{
				"price":      "Quote the entry-level premium first and scale up only after the need analysis.",
				"hesitation": "Run a simple needs calculation together so the number comes from them, not from you.",
			},
		},
		{
			Name:     "Ecommerce",
			Keywords: []string{"shopee", "lazada", "tiktok shop", "online store", "shop", "seller", "cod", "checkout", "add to cart", "free shipping"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "cod_buyer", Keywords: []string{"cod", "cash on delivery"}},
				{Kind: RuleKeyword, Tag: "bulk_buyer", Keywords: []string{"reseller", "wholesale", "bulk"}},
				{Kind: RuleRegex, Tag: "shipping_question", Pattern: `(?i)\b(ship(ping)?|deliver(y)?|padala)\b`},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent: 0.55,
				FactorSentiment:    0.45,
			},
			ObjectionResponses: map[string]string{
				"price": "Bundle the item with a low-cost add-on instead of discounting the unit price.",
				"trust": "Point to shop ratings and offer cash on delivery so nothing is paid up front.",
			},
		},
		{
			Name:     "Coaching",
			Keywords: []string{"coaching", "mentor", "masterclass", "webinar", "course", "training", "workshop", "bootcamp", "seminar"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "career_shifter", Keywords: []string{"career", "resign", "shift", "freelance"}},
				{Kind: RuleBehavior, Tag: "proof_seeker", Value: "proof_seeking"},
				{Kind: RuleSentiment, Tag: "motivated", Value: "very_positive"},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent:      0.35,
				FactorSentiment:         0.30,
				FactorPainPointCoverage: 0.35,
			},
			ObjectionResponses: map[string]string{
				"price": "Anchor against the cost of staying stuck for another year, then offer the installment plan.",
				"time":  "Show the self-paced track and the minimum weekly hours it actually needs.",
			},
		},
		{
			Name:     "Fitness",
			Keywords: []string{"gym", "workout", "fitness", "coach", "weight loss", "muscle", "payat", "diet plan", "home workout", "trainer"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "weight_goal", Keywords: []string{"weight loss", "pumayat", "slim", "tone"}},
				{Kind: RuleKeyword, Tag: "event_driven", Keywords: []string{"wedding", "summer", "reunion"}},
				{Kind: RuleRegex, Tag: "timeline_urgent", Pattern: `(?i)\b(asap|next (week|month)|before\s+\w+)\b`},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent:      0.40,
				FactorSentiment:         0.25,
				FactorPainPointCoverage: 0.35,
			},
			ObjectionResponses: map[string]string{
				"time":       "Offer the 20-minute home program before pitching gym sessions.",
				"hesitation": "Propose a one-week trial with a concrete, measurable first goal.",
			},
		},
		{
			Name:     "BeautyWellness",
			Keywords: []string{"skincare", "glutathione", "whitening", "serum", "collagen", "beauty", "wellness", "supplement", "rejuv", "facial"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "skin_concern", Keywords: []string{"acne", "pimples", "dark spots", "glow"}},
				{Kind: RuleKeyword, Tag: "repeat_buyer", Keywords: []string{"reorder", "restock", "ulit"}},
				{Kind: RuleBehavior, Tag: "results_first", Value: "proof_seeking"},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent: 0.40,
				FactorSentiment:    0.35,
				FactorBuyingCapacity: 0.25,
			},
			ObjectionResponses: map[string]string{
				"price": "Lead with the trial size so the first purchase is a small decision.",
				"trust": "Send before-and-after photos from named, contactable customers.",
			},
		},
		{
			Name:     "TravelLifestyle",
			Keywords: []string{"travel", "tour", "package", "booking", "flight", "hotel", "itinerary", "visa", "staycation", "byahe"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "group_travel", Keywords: []string{"barkada", "group", "family trip"}},
				{Kind: RuleRegex, Tag: "date_specific", Pattern: `(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|sembreak|holy week)\b`},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent:   0.50,
				FactorBuyingCapacity: 0.50,
			},
			ObjectionResponses: map[string]string{
				"price": "Offer the book-now-pay-later slot with a small reservation fee.",
			},
		},
		{
			Name:     "Finance",
			Keywords: []string{"loan", "lending", "investment", "stocks", "crypto", "forex", "savings", "puhunan", "capital", "interest rate"},
			TagRules: []TagRule{
				{Kind: RuleKeyword, Tag: "needs_capital", Keywords: []string{"puhunan", "capital", "loan", "utang"}},
				{Kind: RuleKeyword, Tag: "growth_seeker", Keywords: []string{"invest", "passive", "earn"}},
				{Kind: RuleBehavior, Tag: "cautious", Value: "trust"},
			},
			ScoreWeights: map[string]float64{
				FactorBuyingIntent:        0.25,
				FactorBuyingCapacity:      0.40,
				FactorObjectionDifficulty: 0.35,
			},
			ObjectionResponses: map[string]string{
				"trust": "Show the registration and regulatory paperwork before discussing returns.",
				"price": "Start with the minimum placement and a clear, dated exit option.",
			},
		},
	}
}
