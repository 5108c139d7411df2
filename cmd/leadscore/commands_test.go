package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadscore_backend/internal/archive"
	"leadscore_backend/internal/learning"
	"leadscore_backend/internal/scoring"
)

const testCriteria = `criteria:
  - name: Company size
    type: company_size
    weight: 40
    ideal_values: ["51-200"]
  - name: Industry
    type: industry
    weight: 30
    ideal_values: ["SaaS"]
  - name: Decision maker
    type: job_title
    weight: 30
`

const testLead = `{
  "lead": {
    "email": "dana@acme.io",
    "first_name": "Dana",
    "last_name": "Reyes",
    "job_title": "VP Engineering",
    "company_name": "Acme",
    "company_size": "51-200",
    "industry": "SaaS"
  },
  "tracking": {"gclid": "abc123"}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	defer rootCmd.SetOut(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreOffline(t *testing.T) {
	dir := t.TempDir()
	leadPath := writeFile(t, dir, "lead.json", testLead)
	criteriaPath := writeFile(t, dir, "icp.yaml", testCriteria)

	out, err := runRoot(t, "score", "--lead", leadPath, "--criteria", criteriaPath, "--snapshot", "")
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	var q scoring.Qualification
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if q.ModelVersion != 0 {
		t.Errorf("model_version = %d, want 0", q.ModelVersion)
	}
	if q.Score != q.FitScore {
		t.Errorf("score = %d, want fit score %d without a model", q.Score, q.FitScore)
	}
	if q.Features.ChannelQualityScore != 0.8 {
		t.Errorf("channel_quality_score = %v, want 0.8", q.Features.ChannelQualityScore)
	}
	if q.Features.CompanySizeMatch != 1 {
		t.Errorf("company_size_match = %v, want 1", q.Features.CompanySizeMatch)
	}
}

func TestScoreWithSnapshot(t *testing.T) {
	dir := t.TempDir()
	leadPath := writeFile(t, dir, "lead.json", testLead)
	criteriaPath := writeFile(t, dir, "icp.yaml", testCriteria)

	snap := archive.Snapshot{
		ArchivedAt: time.Now().UTC(),
		Model: learning.Model{
			ID:      uuid.New(),
			Version: 4,
			Weights: scoring.DefaultWeights(scoring.ExtendedSchema),
		},
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	snapshotPath := writeFile(t, dir, "v4.json", string(data))

	out, err := runRoot(t, "score", "--lead", leadPath, "--criteria", criteriaPath, "--snapshot", snapshotPath)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var q scoring.Qualification
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if q.ModelVersion != 4 {
		t.Errorf("model_version = %d, want 4", q.ModelVersion)
	}
	if q.Score != q.ModelScore {
		t.Errorf("score = %d, want model score %d", q.Score, q.ModelScore)
	}
}

func TestScoreRequiresInputs(t *testing.T) {
	_, err := runRoot(t, "score", "--lead", "", "--criteria", "")
	if err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("expected required-flag error, got %v", err)
	}
}

func TestOperatorCommandsValidateFlagsFirst(t *testing.T) {
	cases := map[string][]string{
		"train without org":      {"train", "--org", ""},
		"train with bad org":     {"train", "--org", "acme"},
		"list without org":       {"models", "list", "--org", ""},
		"activate bad version":   {"models", "activate", "--org", uuid.NewString(), "--version", "0"},
		"seed without file":      {"icp", "seed", "--org", uuid.NewString(), "--file", ""},
		"seed with missing file": {"icp", "seed", "--org", uuid.NewString(), "--file", "/nonexistent/icp.yaml"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := runRoot(t, args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
