// Package scoring holds the pure lead-scoring core: the feature schema, the
// feature extractor, weight tables and the weighted scorer.
// Nothing in this package performs I/O or logs; callers own persistence.
package scoring

import "math"

// Feature names a single normalized signal in a FeatureVector.
// The string values are the persisted JSON keys.
type Feature string

const (
	// ICP alignment
	CompanySizeMatch Feature = "company_size_match"
	IndustryMatch    Feature = "industry_match"
	BudgetMatch      Feature = "budget_match"
	TimelineMatch    Feature = "timeline_match"
	JobTitleMatch    Feature = "job_title_match"

	// AI enrichment
	BuyingIntentScore  Feature = "buying_intent_score"
	AuthorityLevel     Feature = "authority_level"
	CompanyHealthScore Feature = "company_health_score"
	UrgencyIndicators  Feature = "urgency_indicators"

	// Behavioral (extended schema)
	EngagementScore       Feature = "engagement_score"
	BehavioralIntentScore Feature = "behavioral_intent_score"
	RecencyScore          Feature = "recency_score"
	FrequencyScore        Feature = "frequency_score"
	ChannelQualityScore   Feature = "channel_quality_score"

	// Data quality
	DataCompleteness Feature = "data_completeness"
	ContactQuality   Feature = "contact_quality"
)

// NeutralValue is used for every feature whose input is missing.
const NeutralValue = 0.5

var (
	ICPFeatures        = []Feature{CompanySizeMatch, IndustryMatch, BudgetMatch, TimelineMatch, JobTitleMatch}
	EnrichmentFeatures = []Feature{BuyingIntentScore, AuthorityLevel, CompanyHealthScore, UrgencyIndicators}
	BehavioralFeatures = []Feature{EngagementScore, BehavioralIntentScore, RecencyScore, FrequencyScore, ChannelQualityScore}
	QualityFeatures    = []Feature{DataCompleteness, ContactQuality}
)

// AllFeatures is the full 16-field schema in canonical order.
var AllFeatures = concatFeatures(ICPFeatures, EnrichmentFeatures, BehavioralFeatures, QualityFeatures)

// Schema selects which feature groups take part in weighting and training.
// Vectors always carry every field; a basic schema just leaves the
// behavioral group unweighted.
type Schema struct {
	Extended bool
}

// ExtendedSchema includes the behavioral group.
var ExtendedSchema = Schema{Extended: true}

// BasicSchema covers ICP, enrichment and data-quality features only.
var BasicSchema = Schema{Extended: false}

// Features returns the weighted features for the schema in canonical order.
func (s Schema) Features() []Feature {
	if s.Extended {
		return AllFeatures
	}
	return concatFeatures(ICPFeatures, EnrichmentFeatures, QualityFeatures)
}

// FeatureVector is the normalized encoding of one lead at one point in time.
// Every field lies in [0,1].
type FeatureVector struct {
	CompanySizeMatch float64 `json:"company_size_match"`
	IndustryMatch    float64 `json:"industry_match"`
	BudgetMatch      float64 `json:"budget_match"`
	TimelineMatch    float64 `json:"timeline_match"`
	JobTitleMatch    float64 `json:"job_title_match"`

	BuyingIntentScore  float64 `json:"buying_intent_score"`
	AuthorityLevel     float64 `json:"authority_level"`
	CompanyHealthScore float64 `json:"company_health_score"`
	UrgencyIndicators  float64 `json:"urgency_indicators"`

	EngagementScore       float64 `json:"engagement_score"`
	BehavioralIntentScore float64 `json:"behavioral_intent_score"`
	RecencyScore          float64 `json:"recency_score"`
	FrequencyScore        float64 `json:"frequency_score"`
	ChannelQualityScore   float64 `json:"channel_quality_score"`

	DataCompleteness float64 `json:"data_completeness"`
	ContactQuality   float64 `json:"contact_quality"`
}

// NeutralVector returns a vector with every field at NeutralValue.
func NeutralVector() FeatureVector {
	var v FeatureVector
	for _, f := range AllFeatures {
		v.Set(f, NeutralValue)
	}
	return v
}

// Get returns the value of f, or NeutralValue for an unknown feature.
func (v FeatureVector) Get(f Feature) float64 {
	if p := v.field(f); p != nil {
		return *p
	}
	return NeutralValue
}

// Set assigns value to f after clamping it to [0,1]. Unknown features are ignored.
func (v *FeatureVector) Set(f Feature, value float64) {
	if p := v.field(f); p != nil {
		*p = clampUnit(value)
	}
}

// Map returns the vector keyed by feature name.
func (v FeatureVector) Map() map[Feature]float64 {
	out := make(map[Feature]float64, len(AllFeatures))
	for _, f := range AllFeatures {
		out[f] = v.Get(f)
	}
	return out
}

// Valid reports whether every field is finite and within [0,1].
func (v FeatureVector) Valid() bool {
	for _, f := range AllFeatures {
		value := v.Get(f)
		if math.IsNaN(value) || value < 0 || value > 1 {
			return false
		}
	}
	return true
}

func (v *FeatureVector) field(f Feature) *float64 {
	switch f {
	case CompanySizeMatch:
		return &v.CompanySizeMatch
	case IndustryMatch:
		return &v.IndustryMatch
	case BudgetMatch:
		return &v.BudgetMatch
	case TimelineMatch:
		return &v.TimelineMatch
	case JobTitleMatch:
		return &v.JobTitleMatch
	case BuyingIntentScore:
		return &v.BuyingIntentScore
	case AuthorityLevel:
		return &v.AuthorityLevel
	case CompanyHealthScore:
		return &v.CompanyHealthScore
	case UrgencyIndicators:
		return &v.UrgencyIndicators
	case EngagementScore:
		return &v.EngagementScore
	case BehavioralIntentScore:
		return &v.BehavioralIntentScore
	case RecencyScore:
		return &v.RecencyScore
	case FrequencyScore:
		return &v.FrequencyScore
	case ChannelQualityScore:
		return &v.ChannelQualityScore
	case DataCompleteness:
		return &v.DataCompleteness
	case ContactQuality:
		return &v.ContactQuality
	default:
		return nil
	}
}

func concatFeatures(groups ...[]Feature) []Feature {
	out := make([]Feature, 0, 16)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// clampUnit bounds value to [0,1]; NaN collapses to neutral.
func clampUnit(value float64) float64 {
	if math.IsNaN(value) {
		return NeutralValue
	}
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
