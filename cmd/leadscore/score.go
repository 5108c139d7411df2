package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"leadscore_backend/internal/archive"
	"leadscore_backend/internal/icp"
	"leadscore_backend/internal/scoring"
)

// leadFile is the offline input of the score command.
type leadFile struct {
	Lead       scoring.Lead        `json:"lead"`
	Tracking   *scoring.Tracking   `json:"tracking,omitempty"`
	Behavioral *scoring.Behavioral `json:"behavioral,omitempty"`
	Enrichment *scoring.Enrichment `json:"enrichment,omitempty"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a lead offline without a database",
	Long: `Score a lead offline without a database.

Examples:
  leadscore score --lead lead.json --criteria icp.yaml
  leadscore score --lead lead.json --criteria icp.yaml --snapshot v3.json
  leadscore score --lead lead.json --criteria icp.yaml --extended=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		leadPath, _ := cmd.Flags().GetString("lead")
		criteriaPath, _ := cmd.Flags().GetString("criteria")
		snapshotPath, _ := cmd.Flags().GetString("snapshot")
		extended, _ := cmd.Flags().GetBool("extended")

		if leadPath == "" || criteriaPath == "" {
			return fmt.Errorf("--lead and --criteria are required")
		}

		in, err := readLeadFile(leadPath)
		if err != nil {
			return err
		}
		criteria, warnings, err := icp.LoadFile(criteriaPath)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			printWarning("%s", w)
		}

		var model *scoring.ActiveModel
		if snapshotPath != "" {
			model, err = readSnapshot(snapshotPath)
			if err != nil {
				return err
			}
		}

		result := scoreOffline(in, criteria, model, scoring.Schema{Extended: extended})
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	scoreCmd.Flags().String("lead", "", "JSON file with lead, tracking, behavioral and enrichment")
	scoreCmd.Flags().String("criteria", "", "YAML file with ICP criteria")
	scoreCmd.Flags().String("snapshot", "", "archived model snapshot to score with")
	scoreCmd.Flags().Bool("extended", true, "include behavioral features")
}

func scoreOffline(in leadFile, criteria []scoring.Criterion, model *scoring.ActiveModel, schema scoring.Schema) scoring.Qualification {
	features, explanations := scoring.NewExtractor().ExtractExplained(scoring.Input{
		Lead:       in.Lead,
		Criteria:   criteria,
		Enrichment: in.Enrichment,
		Behavioral: in.Behavioral,
		Tracking:   in.Tracking,
	})
	return scoring.Qualify(scoring.QualifyInput{
		Features:     features,
		Explanations: explanations,
		Lead:         in.Lead,
		Criteria:     criteria,
		Model:        model,
		Schema:       schema,
	})
}

func readLeadFile(path string) (leadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return leadFile{}, fmt.Errorf("reading lead file: %w", err)
	}
	var in leadFile
	if err := json.Unmarshal(data, &in); err != nil {
		return leadFile{}, fmt.Errorf("parsing lead file: %w", err)
	}
	return in, nil
}

func readSnapshot(path string) (*scoring.ActiveModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap archive.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if err := snap.Model.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot weights: %w", err)
	}
	return snap.Model.Active(), nil
}
