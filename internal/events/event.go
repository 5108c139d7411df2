// Package events declares the scoring domain events. Every event belongs to
// one organization.
package events

import (
	"github.com/google/uuid"
)

// =============================================================================
// Qualification Events
// =============================================================================

// LeadQualified is published after a lead is scored and the history row is written.
type LeadQualified struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	LeadID         uuid.UUID `json:"leadId"`
	Score          int       `json:"score"`
	Label          string    `json:"label"`
	ModelVersion   int       `json:"modelVersion"`
}

func (e LeadQualified) EventName() string       { return "scoring.lead.qualified" }
func (e LeadQualified) Organization() uuid.UUID { return e.OrganizationID }

// =============================================================================
// Outcome Events
// =============================================================================

// OutcomeRecorded is published when a sales rep closes out a lead.
type OutcomeRecorded struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	LeadID         uuid.UUID `json:"leadId"`
	OutcomeID      uuid.UUID `json:"outcomeId"`
	OutcomeType    string    `json:"outcomeType"`
}

func (e OutcomeRecorded) EventName() string       { return "scoring.outcome.recorded" }
func (e OutcomeRecorded) Organization() uuid.UUID { return e.OrganizationID }

// =============================================================================
// Model Events
// =============================================================================

// ModelPublished is published after a new model version became active.
type ModelPublished struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	ModelID        uuid.UUID `json:"modelId"`
	ModelVersion   int       `json:"modelVersion"`
	TrainedOnCount int       `json:"trainedOnCount"`
	Accuracy       float64   `json:"accuracy"`
}

func (e ModelPublished) EventName() string       { return "scoring.model.published" }
func (e ModelPublished) Organization() uuid.UUID { return e.OrganizationID }

// ModelRejected is published when a trained model fails the regression gate.
type ModelRejected struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	Accuracy       float64   `json:"accuracy"`
	Reason         string    `json:"reason"`
}

func (e ModelRejected) EventName() string       { return "scoring.model.rejected" }
func (e ModelRejected) Organization() uuid.UUID { return e.OrganizationID }

// ModelActivated is published when an operator rolls back to an earlier version.
type ModelActivated struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	ModelVersion   int       `json:"modelVersion"`
}

func (e ModelActivated) EventName() string       { return "scoring.model.activated" }
func (e ModelActivated) Organization() uuid.UUID { return e.OrganizationID }
