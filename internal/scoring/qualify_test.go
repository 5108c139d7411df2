package scoring

import (
	"strings"
	"testing"
)

func qualifyLead(lead Lead, criteria []Criterion, model *ActiveModel) Qualification {
	v, notes := NewExtractor().ExtractExplained(Input{Lead: lead, Criteria: criteria})
	return Qualify(QualifyInput{
		Features:     v,
		Explanations: notes,
		Lead:         lead,
		Criteria:     criteria,
		Model:        model,
		Schema:       ExtendedSchema,
	})
}

func TestQualify_HotLead(t *testing.T) {
	lead := Lead{
		Email:       "maria@acme.io",
		CompanySize: "500+ employees",
		Industry:    "Technology / SaaS",
		BudgetRange: "$150,000",
		Timeline:    "Immediately",
		JobTitle:    "VP of Sales",
	}

	result := qualifyLead(lead, hotICP(), nil)

	if result.Score < 80 {
		t.Fatalf("expected score >= 80, got %d", result.Score)
	}
	if result.Label != LabelHot {
		t.Fatalf("expected hot, got %s", result.Label)
	}
	if result.RecommendedAction != ActionHot {
		t.Fatalf("expected hot action, got %q", result.RecommendedAction)
	}
	if result.ModelVersion != 0 {
		t.Fatalf("expected no model version, got %d", result.ModelVersion)
	}
	row, ok := result.Breakdown["Company Size"]
	if !ok || row.Score != 100 {
		t.Fatalf("expected company size breakdown 100, got %+v", row)
	}
	if row.Note == "" {
		t.Fatalf("expected breakdown note")
	}
}

func TestQualify_EmptyLeadNeverHot(t *testing.T) {
	result := qualifyLead(Lead{Email: "jane@acme.io"}, hotICP(), nil)

	if result.Score < 40 || result.Score > 60 {
		t.Fatalf("expected score in [40,60], got %d", result.Score)
	}
	if result.Label == LabelHot {
		t.Fatalf("empty lead must never be hot")
	}
	if result.ModelScore < 40 || result.ModelScore > 60 {
		t.Fatalf("expected default-weight model score in [40,60], got %d", result.ModelScore)
	}
}

func TestQualify_ActiveModelDrivesHeadline(t *testing.T) {
	model := &ActiveModel{Version: 3, Weights: Weights{ContactQuality: 1}}

	result := qualifyLead(Lead{Email: "jane@acme.io"}, hotICP(), model)

	if result.ModelVersion != 3 {
		t.Fatalf("expected model version 3, got %d", result.ModelVersion)
	}
	if result.Score != result.ModelScore || result.Score != 75 {
		t.Fatalf("expected headline to use model score 75, got score=%d model=%d", result.Score, result.ModelScore)
	}
}

func TestQualify_RequiredCriterionMissed(t *testing.T) {
	criteria := []Criterion{
		{Name: "Industry", Type: CriterionIndustry, Weight: 50, IdealValues: []string{"Healthcare"}, IsRequired: true},
		{Name: "Seniority", Type: CriterionJobTitle, Weight: 50},
	}

	result := qualifyLead(Lead{Industry: "Retail", JobTitle: "CEO"}, criteria, nil)

	if !strings.HasPrefix(result.RecommendedAction, actionReview) {
		t.Fatalf("expected manual review action, got %q", result.RecommendedAction)
	}
	if !strings.Contains(result.RecommendedAction, "Industry") {
		t.Fatalf("expected missed criterion named, got %q", result.RecommendedAction)
	}
}

func TestQualify_CustomCriterionUsesFreeText(t *testing.T) {
	criteria := []Criterion{
		{Name: "Uses Salesforce", Type: CriterionCustom, Weight: 100, IdealValues: []string{"salesforce"}},
	}

	result := qualifyLead(Lead{Challenge: "Our Salesforce pipeline is a mess"}, criteria, nil)

	row := result.Breakdown["Uses Salesforce"]
	if row.Score != 80 {
		t.Fatalf("expected partial free-text match 80, got %+v", row)
	}
	if result.FitScore != 80 {
		t.Fatalf("expected fit score 80, got %d", result.FitScore)
	}
}

func TestQualify_NoCriteriaBreakdownByFeature(t *testing.T) {
	result := qualifyLead(Lead{JobTitle: "Chief Executive Officer"}, nil, nil)

	if len(result.Breakdown) != len(ICPFeatures) {
		t.Fatalf("expected %d breakdown rows, got %d", len(ICPFeatures), len(result.Breakdown))
	}
	if result.Breakdown[string(JobTitleMatch)].Score != 100 {
		t.Fatalf("expected job title row 100, got %+v", result.Breakdown[string(JobTitleMatch)])
	}
}
