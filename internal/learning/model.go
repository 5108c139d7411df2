// Package learning trains organization-specific scoring weights from
// recorded lead outcomes and manages the versioned model store.
package learning

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"leadscore_backend/internal/scoring"
)

var (
	// ErrInsufficientData means the organization has too few labelled examples.
	ErrInsufficientData = errors.New("insufficient training data")
	// ErrNoActiveModel means the organization has never published a model.
	ErrNoActiveModel = errors.New("no active scoring model")
	// ErrModelVersionNotFound is returned when activating an unknown version.
	ErrModelVersionNotFound = errors.New("scoring model version not found")
)

// OutcomeType is the recorded result of pursuing a lead.
type OutcomeType string

const (
	OutcomeConverted    OutcomeType = "converted"
	OutcomeRejected     OutcomeType = "rejected"
	OutcomeNoResponse   OutcomeType = "no_response"
	OutcomeQualifiedOut OutcomeType = "qualified_out"
	OutcomeInProgress   OutcomeType = "in_progress"
)

// Valid reports whether t is a known outcome type.
func (t OutcomeType) Valid() bool {
	switch t {
	case OutcomeConverted, OutcomeRejected, OutcomeNoResponse, OutcomeQualifiedOut, OutcomeInProgress:
		return true
	}
	return false
}

// Target is the score the model should have given a lead with this outcome.
func (t OutcomeType) Target() float64 {
	switch t {
	case OutcomeConverted:
		return 85
	case OutcomeRejected:
		return 30
	case OutcomeNoResponse:
		return 40
	default:
		return 50
	}
}

// Positive reports whether the outcome counts as a conversion.
func (t OutcomeType) Positive() bool {
	return t == OutcomeConverted
}

// Negative reports whether the outcome counts against the lead in
// feature importance.
func (t OutcomeType) Negative() bool {
	return t == OutcomeRejected || t == OutcomeNoResponse
}

// Example is one labelled training row: the last features scored for a lead
// before its outcome was recorded.
type Example struct {
	LeadID   uuid.UUID
	Features scoring.FeatureVector
	Outcome  OutcomeType
}

// Metrics are the validation results stored with a model.
type Metrics struct {
	Accuracy          float64         `json:"accuracy"`
	Precision         float64         `json:"precision"`
	Recall            float64         `json:"recall"`
	F1                float64         `json:"f1"`
	AUC               float64         `json:"auc"`
	TrainSize         int             `json:"train_size"`
	TestSize          int             `json:"test_size"`
	FeatureImportance scoring.Weights `json:"feature_importance,omitempty"`
}

// Draft is a trained weight set that has not been published yet.
type Draft struct {
	Weights        scoring.Weights
	Metrics        Metrics
	TrainedOnCount int
}

// Model is a published weight set.
type Model struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Version        int             `json:"model_version"`
	Weights        scoring.Weights `json:"feature_weights"`
	Metrics        Metrics         `json:"performance_metrics"`
	TrainedOnCount int             `json:"trained_on_count"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Active converts the model into the form the scorer consumes.
func (m Model) Active() *scoring.ActiveModel {
	return &scoring.ActiveModel{Version: m.Version, Weights: m.Weights}
}
