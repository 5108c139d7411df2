package scoring

// Lead carries the raw form fields the extractor reads.
// Empty strings mean the field was not provided.
type Lead struct {
	Email          string `json:"email" yaml:"email"`
	FirstName      string `json:"first_name" yaml:"first_name"`
	LastName       string `json:"last_name" yaml:"last_name"`
	Phone          string `json:"phone" yaml:"phone"`
	JobTitle       string `json:"job_title" yaml:"job_title"`
	CompanyName    string `json:"company_name" yaml:"company_name"`
	CompanyWebsite string `json:"company_website" yaml:"company_website"`
	CompanySize    string `json:"company_size" yaml:"company_size"`
	Industry       string `json:"industry" yaml:"industry"`
	BudgetRange    string `json:"budget_range" yaml:"budget_range"`
	Timeline       string `json:"timeline" yaml:"timeline"`
	Challenge      string `json:"challenge" yaml:"challenge"`
}

// CriterionType classifies an ICP criterion.
type CriterionType string

const (
	CriterionCompanySize CriterionType = "company_size"
	CriterionIndustry    CriterionType = "industry"
	CriterionJobTitle    CriterionType = "job_title"
	CriterionBudget      CriterionType = "budget"
	CriterionTimeline    CriterionType = "timeline"
	CriterionCustom      CriterionType = "custom"
)

// Valid reports whether t is one of the known criterion types.
func (t CriterionType) Valid() bool {
	switch t {
	case CriterionCompanySize, CriterionIndustry, CriterionJobTitle, CriterionBudget, CriterionTimeline, CriterionCustom:
		return true
	}
	return false
}

// Feature returns the ICP feature a criterion type feeds, if any.
func (t CriterionType) Feature() (Feature, bool) {
	switch t {
	case CriterionCompanySize:
		return CompanySizeMatch, true
	case CriterionIndustry:
		return IndustryMatch, true
	case CriterionJobTitle:
		return JobTitleMatch, true
	case CriterionBudget:
		return BudgetMatch, true
	case CriterionTimeline:
		return TimelineMatch, true
	}
	return "", false
}

// Criterion is one organization-scoped ICP rule. Weight is on a percentage
// scale; active criteria are expected to sum to roughly 100.
type Criterion struct {
	Name        string        `json:"name" yaml:"name"`
	Type        CriterionType `json:"type" yaml:"type"`
	Weight      float64       `json:"weight" yaml:"weight"`
	IdealValues []string      `json:"ideal_values" yaml:"ideal_values"`
	IsRequired  bool          `json:"is_required" yaml:"is_required"`
}

// Enrichment is the optional output of the AI enrichment pipeline.
// Nil pointers mean the value was not produced.
type Enrichment struct {
	Company   CompanySignals   `json:"company"`
	Intent    IntentSignals    `json:"intent"`
	Authority AuthoritySignals `json:"authority"`
}

// CompanySignals holds company-level enrichment. HealthScore is on a 1-10 scale.
type CompanySignals struct {
	HealthScore *float64 `json:"health_score,omitempty"`
}

// IntentSignals holds intent enrichment. BuyingIntentScore is 1-100, UrgencyScore 0-1.
type IntentSignals struct {
	BuyingIntentScore *float64 `json:"buying_intent_score,omitempty"`
	UrgencyScore      *float64 `json:"urgency_score,omitempty"`
}

// AuthoritySignals holds decision-authority enrichment on a 0-1 scale.
type AuthoritySignals struct {
	AuthorityLevel *float64 `json:"authority_level,omitempty"`
}

// Behavioral is an aggregate of on-site analytics for a lead.
// Scores may be on a 0-1 or 0-100 scale; counts are raw event counts.
type Behavioral struct {
	EngagementScore *float64 `json:"engagement_score,omitempty"`
	IntentScore     *float64 `json:"intent_score,omitempty"`
	RecencyScore    *float64 `json:"recency_score,omitempty"`
	FrequencyScore  *float64 `json:"frequency_score,omitempty"`

	PricingPageViews int `json:"pricing_page_views"`
	DemoPageViews    int `json:"demo_page_views"`
	CaseStudyViews   int `json:"case_study_views"`
	CTAClicks        int `json:"cta_clicks"`
	FormsCompleted   int `json:"forms_completed"`
}

// Tracking is the ad-click and UTM metadata captured with a submission.
type Tracking struct {
	UTMSource string `json:"utm_source"`
	UTMMedium string `json:"utm_medium"`
	GCLID     string `json:"gclid"`
	FBCLID    string `json:"fbclid"`
	TTCLID    string `json:"ttclid"`
}

// Float returns a pointer to v, for building optional inputs.
func Float(v float64) *float64 {
	return &v
}
