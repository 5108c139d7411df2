package scoring

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func hotICP() []Criterion {
	return []Criterion{
		{Name: "Company Size", Type: CriterionCompanySize, Weight: 30, IdealValues: []string{"500+ employees", "1000+ employees"}},
		{Name: "Industry", Type: CriterionIndustry, Weight: 25, IdealValues: []string{"Technology / SaaS"}},
		{Name: "Budget", Type: CriterionBudget, Weight: 25, IdealValues: []string{"$100,000+"}},
		{Name: "Timeline", Type: CriterionTimeline, Weight: 10},
		{Name: "Decision Maker", Type: CriterionJobTitle, Weight: 10, IdealValues: []string{"VP of Sales", "CEO"}},
	}
}

func TestExtract_HotLeadICPFeaturesAligned(t *testing.T) {
	lead := Lead{
		Email:       "maria@acme.io",
		CompanySize: "500+ employees",
		Industry:    "Technology / SaaS",
		BudgetRange: "$150,000",
		Timeline:    "Immediately",
		JobTitle:    "VP of Sales",
	}

	v := NewExtractor().Extract(lead, hotICP(), nil, nil, nil)

	for _, f := range ICPFeatures {
		if v.Get(f) < 0.85 {
			t.Fatalf("expected %s >= 0.85, got %f", f, v.Get(f))
		}
	}
	if !v.Valid() {
		t.Fatalf("expected valid vector, got %+v", v)
	}
}

func TestExtract_EmptyLeadIsNeutral(t *testing.T) {
	v := NewExtractor().Extract(Lead{Email: "jane@acme.io"}, hotICP(), nil, nil, nil)

	for _, f := range ICPFeatures {
		if v.Get(f) < 0.4 || v.Get(f) > 0.6 {
			t.Fatalf("expected %s in [0.4,0.6], got %f", f, v.Get(f))
		}
	}
	for _, f := range EnrichmentFeatures {
		if v.Get(f) != NeutralValue {
			t.Fatalf("expected %s neutral without enrichment, got %f", f, v.Get(f))
		}
	}
	if v.ChannelQualityScore != channelUnknown {
		t.Fatalf("expected unknown channel without tracking, got %f", v.ChannelQualityScore)
	}
}

func TestExtract_ZeroValueLeadNeverZeroes(t *testing.T) {
	v := NewExtractor().Extract(Lead{}, nil, nil, nil, nil)

	for _, f := range AllFeatures {
		if f == DataCompleteness {
			continue
		}
		if v.Get(f) < 0.4 {
			t.Fatalf("expected %s >= 0.4 for empty input, got %f", f, v.Get(f))
		}
	}
	if v.DataCompleteness != 0 {
		t.Fatalf("expected zero completeness for empty lead, got %f", v.DataCompleteness)
	}
}

func TestMatchCategorical_Tiers(t *testing.T) {
	criterion := &Criterion{Type: CriterionIndustry, IdealValues: []string{"Technology / SaaS", "Fintech"}}

	cases := []struct {
		value    string
		criteria *Criterion
		want     float64
	}{
		{"technology / saas", criterion, scoreExact},
		{"B2B Fintech Platform", criterion, scorePartial},
		{"Retail", criterion, scoreNoMatch},
		{"Retail", nil, scoreNoPreference},
		{"Retail", &Criterion{Type: CriterionIndustry}, scoreNoPreference},
		{"   ", criterion, NeutralValue},
	}
	for _, tc := range cases {
		got := matchCategorical(tc.value, tc.criteria)
		if got.value != tc.want {
			t.Fatalf("matchCategorical(%q): expected %f, got %f", tc.value, tc.want, got.value)
		}
	}
}

func TestFindCriterion_ByAlias(t *testing.T) {
	criteria := []Criterion{
		{Name: "Headcount", Type: CriterionCustom, IdealValues: []string{"200-500"}},
		{Name: "Target Vertical", Type: CriterionCustom, IdealValues: []string{"Healthcare"}},
	}

	if c := findCriterion(criteria, CriterionCompanySize); c == nil || c.Name != "Headcount" {
		t.Fatalf("expected headcount criterion for company size, got %+v", c)
	}
	if c := findCriterion(criteria, CriterionIndustry); c == nil || c.Name != "Target Vertical" {
		t.Fatalf("expected vertical criterion for industry, got %+v", c)
	}
	if c := findCriterion(criteria, CriterionBudget); c != nil {
		t.Fatalf("expected no budget criterion, got %+v", c)
	}
}

func TestMatchBudget_EqualToIdeal(t *testing.T) {
	got := matchBudget("$100,000", &Criterion{Type: CriterionBudget, IdealValues: []string{"$100,000"}})
	if got.value < 0.95 {
		t.Fatalf("expected >= 0.95, got %f", got.value)
	}
}

func TestMatchBudget_TenTimesIdealFallsThrough(t *testing.T) {
	got := matchBudget("$1,000,000", &Criterion{Type: CriterionBudget, IdealValues: []string{"$100,000"}})
	if got.value != scoreNoMatch {
		t.Fatalf("expected categorical no-match %f, got %f (%s)", scoreNoMatch, got.value, got.note)
	}
}

func TestMatchBudget_Band(t *testing.T) {
	criterion := &Criterion{Type: CriterionBudget, IdealValues: []string{"$100k"}}

	got := matchBudget("$150k", criterion)
	if !approx(got.value, 0.75) {
		t.Fatalf("expected 0.75 at ratio 1.5, got %f", got.value)
	}
	got = matchBudget("$200k", criterion)
	if !approx(got.value, budgetBandFloor) {
		t.Fatalf("expected floor %f at ratio 2.0, got %f", budgetBandFloor, got.value)
	}
}

func TestMatchBudget_OpenEndedFloor(t *testing.T) {
	criterion := &Criterion{Type: CriterionBudget, IdealValues: []string{"$100,000+"}}

	if got := matchBudget("$150,000", criterion); got.value != scoreExact {
		t.Fatalf("expected exact above open-ended floor, got %f", got.value)
	}
}

func TestMatchBudget_KeywordTiers(t *testing.T) {
	cases := map[string]float64{
		"Enterprise":    0.9,
		"Growth stage":  0.7,
		"Startup money": 0.4,
		"":              scoreMissingWeak,
	}
	for value, want := range cases {
		if got := matchBudget(value, nil); got.value != want {
			t.Fatalf("matchBudget(%q): expected %f, got %f", value, want, got.value)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"$100,000":                100000,
		"10k":                     10000,
		"$1.5m":                   1500000,
		"$50k - $100k":            75000,
		"25,000 yearly":           25000,
		"$50k to $100k":           75000,
		"2 seats, $20,000":        20000,
		"team of 40, 15k budget":  15000,
		"3 offices and 120 staff": 120,
	}
	for text, want := range cases {
		got, ok := parseAmount(text)
		if !ok || !approx(got, want) {
			t.Fatalf("parseAmount(%q): expected %f, got %f (ok=%v)", text, want, got, ok)
		}
	}
	if _, ok := parseAmount("no idea"); ok {
		t.Fatalf("expected no amount in free text")
	}
}

func TestMatchTimeline_Tiers(t *testing.T) {
	cases := map[string]float64{
		"ASAP":                     1.0,
		"Within a month":           0.85,
		"Next quarter":             0.65,
		"6-12 months":              0.35,
		"Just evaluating":          0.35,
		"":                         scoreMissingWeak,
		"When budget unknown":      scoreNoPreference,
		"not now, maybe next year": 0.35,
		"Not right now":            0.35,
		"No rush":                  0.35,
		"We need it right now":     1.0,
		"Now":                      scoreNoPreference,
	}
	for value, want := range cases {
		if got := matchTimeline(value, nil); got.value != want {
			t.Fatalf("matchTimeline(%q): expected %f, got %f", value, want, got.value)
		}
	}
}

func TestMatchJobTitle_Seniority(t *testing.T) {
	cases := map[string]float64{
		"Chief Technology Officer": 1.0,
		"Co-Founder":               1.0,
		"Senior Vice President":    0.9,
		"Head of Growth":           0.9,
		"Director of Engineering":  0.8,
		"Engineering Manager":      0.65,
		"Marketing Analyst":        0.35,
		"":                         scoreMissingWeak,
	}
	for title, want := range cases {
		if got := matchJobTitle(title, nil); got.value != want {
			t.Fatalf("matchJobTitle(%q): expected %f, got %f", title, want, got.value)
		}
	}
}

func TestMatchJobTitle_ChiefIgnoresCriterion(t *testing.T) {
	criterion := &Criterion{Type: CriterionJobTitle, IdealValues: []string{"Procurement Specialist"}}
	v := NewExtractor().Extract(Lead{JobTitle: "Chief Technology Officer"}, []Criterion{*criterion}, nil, nil, nil)
	if v.JobTitleMatch != 1.0 {
		t.Fatalf("expected 1.0, got %f", v.JobTitleMatch)
	}
}

func TestEnrichmentNormalization(t *testing.T) {
	en := &Enrichment{
		Company:   CompanySignals{HealthScore: Float(8)},
		Intent:    IntentSignals{BuyingIntentScore: Float(72), UrgencyScore: Float(0.9)},
		Authority: AuthoritySignals{AuthorityLevel: Float(1.7)},
	}

	v := NewExtractor().Extract(Lead{}, nil, en, nil, nil)

	if !approx(v.CompanyHealthScore, 0.8) {
		t.Fatalf("expected health 0.8, got %f", v.CompanyHealthScore)
	}
	if !approx(v.BuyingIntentScore, 0.72) {
		t.Fatalf("expected buying intent 0.72, got %f", v.BuyingIntentScore)
	}
	if !approx(v.UrgencyIndicators, 0.9) {
		t.Fatalf("expected urgency 0.9, got %f", v.UrgencyIndicators)
	}
	if !approx(v.AuthorityLevel, 0.017) {
		t.Fatalf("expected authority read as percentage 0.017, got %f", v.AuthorityLevel)
	}
}

func TestBehavioralIntent_Composite(t *testing.T) {
	b := &Behavioral{PricingPageViews: 3, DemoPageViews: 1, FormsCompleted: 1}
	if got := behavioralIntent(b); !approx(got, 0.8) {
		t.Fatalf("expected 0.8, got %f", got)
	}

	saturated := &Behavioral{PricingPageViews: 10, DemoPageViews: 10, CaseStudyViews: 10, CTAClicks: 10, FormsCompleted: 3}
	if got := behavioralIntent(saturated); got != 1 {
		t.Fatalf("expected clamp to 1, got %f", got)
	}

	aggregated := &Behavioral{IntentScore: Float(64), PricingPageViews: 10}
	if got := behavioralIntent(aggregated); !approx(got, 0.64) {
		t.Fatalf("expected aggregated 0.64 to win, got %f", got)
	}
}

func TestChannelQuality(t *testing.T) {
	cases := []struct {
		name     string
		tracking *Tracking
		want     float64
	}{
		{"nil", nil, channelUnknown},
		{"gclid", &Tracking{GCLID: "abc", UTMMedium: "email"}, 0.8},
		{"fbclid", &Tracking{FBCLID: "abc"}, 0.7},
		{"ttclid", &Tracking{TTCLID: "abc"}, 0.65},
		{"paid google", &Tracking{UTMSource: "google", UTMMedium: "cpc"}, 0.8},
		{"paid linkedin", &Tracking{UTMSource: "linkedin", UTMMedium: "ppc"}, 0.7},
		{"organic", &Tracking{UTMSource: "google", UTMMedium: "organic"}, 0.65},
		{"referral", &Tracking{UTMSource: "partner-site", UTMMedium: "referral"}, 0.6},
		{"email", &Tracking{UTMSource: "newsletter"}, 0.7},
		{"social", &Tracking{UTMSource: "linkedin", UTMMedium: "social"}, 0.55},
		{"direct", &Tracking{}, 0.55},
		{"unknown", &Tracking{UTMSource: "podcast", UTMMedium: "audio"}, channelUnknown},
	}
	for _, tc := range cases {
		if got := channelQuality(tc.tracking); got != tc.want {
			t.Fatalf("%s: expected %f, got %f", tc.name, tc.want, got)
		}
	}
}

func TestDataQuality(t *testing.T) {
	if got := dataCompleteness(Lead{Email: "a@b.co"}); !approx(got, 0.15) {
		t.Fatalf("expected completeness 0.15, got %f", got)
	}

	full := Lead{
		Email: "a@b.co", FirstName: "A", LastName: "B", Phone: "+15555550100",
		JobTitle: "CEO", CompanyName: "B", CompanyWebsite: "b.co", CompanySize: "10",
		Industry: "SaaS", BudgetRange: "10k", Timeline: "ASAP", Challenge: "growth",
	}
	if got := dataCompleteness(full); !approx(got, 1.0) {
		t.Fatalf("expected full completeness, got %f", got)
	}

	if got := contactQuality(Lead{Email: "ceo@acme.io"}); !approx(got, 0.75) {
		t.Fatalf("expected business email 0.75, got %f", got)
	}
	if got := contactQuality(Lead{Email: "someone@gmail.com", Phone: "123"}); !approx(got, 0.75) {
		t.Fatalf("expected personal email + phone 0.75, got %f", got)
	}
	if got := contactQuality(full); !approx(got, 1.0) {
		t.Fatalf("expected contact quality capped at 1, got %f", got)
	}
}
