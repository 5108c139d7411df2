package scoring

// Explanations carries a short note per ICP feature describing how the
// value was derived. It feeds the qualification breakdown.
type Explanations map[Feature]string

// Input bundles everything the extractor reads for one lead.
// Only Lead is required; the rest may be nil.
type Input struct {
	Lead       Lead
	Criteria   []Criterion
	Enrichment *Enrichment
	Behavioral *Behavioral
	Tracking   *Tracking
}

// Extractor converts raw lead context into a FeatureVector.
// It is stateless and safe for concurrent use.
type Extractor struct{}

// NewExtractor creates a feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the feature vector for one lead. It never fails: absent or
// malformed inputs fall back to documented neutral defaults.
func (e *Extractor) Extract(lead Lead, criteria []Criterion, enrichment *Enrichment, behavioral *Behavioral, tracking *Tracking) FeatureVector {
	v, _ := e.ExtractExplained(Input{
		Lead:       lead,
		Criteria:   criteria,
		Enrichment: enrichment,
		Behavioral: behavioral,
		Tracking:   tracking,
	})
	return v
}

// ExtractExplained is Extract plus a note for every ICP-alignment feature.
func (e *Extractor) ExtractExplained(in Input) (FeatureVector, Explanations) {
	v := NeutralVector()
	notes := make(Explanations, len(ICPFeatures))

	lead := in.Lead
	icp := map[Feature]match{
		CompanySizeMatch: matchCategorical(lead.CompanySize, findCriterion(in.Criteria, CriterionCompanySize)),
		IndustryMatch:    matchCategorical(lead.Industry, findCriterion(in.Criteria, CriterionIndustry)),
		BudgetMatch:      matchBudget(lead.BudgetRange, findCriterion(in.Criteria, CriterionBudget)),
		TimelineMatch:    matchTimeline(lead.Timeline, findCriterion(in.Criteria, CriterionTimeline)),
		JobTitleMatch:    matchJobTitle(lead.JobTitle, findCriterion(in.Criteria, CriterionJobTitle)),
	}
	for f, m := range icp {
		v.Set(f, m.value)
		notes[f] = m.note
	}

	if en := in.Enrichment; en != nil {
		v.Set(BuyingIntentScore, optionalScore(en.Intent.BuyingIntentScore))
		v.Set(AuthorityLevel, optionalScore(en.Authority.AuthorityLevel))
		v.Set(CompanyHealthScore, healthScore(en.Company.HealthScore))
		v.Set(UrgencyIndicators, optionalScore(en.Intent.UrgencyScore))
	}

	if b := in.Behavioral; b != nil {
		v.Set(EngagementScore, optionalScore(b.EngagementScore))
		v.Set(RecencyScore, optionalScore(b.RecencyScore))
		v.Set(FrequencyScore, optionalScore(b.FrequencyScore))
	}
	v.Set(BehavioralIntentScore, behavioralIntent(in.Behavioral))
	v.Set(ChannelQualityScore, channelQuality(in.Tracking))

	v.Set(DataCompleteness, dataCompleteness(lead))
	v.Set(ContactQuality, contactQuality(lead))

	return v, notes
}
