package qualification

import (
	"time"

	"github.com/google/uuid"

	"leadscore_backend/internal/scoring"
)

// SubmitLeadRequest is a form submission from the intake endpoint.
type SubmitLeadRequest struct {
	Email          string `json:"email" validate:"required,email,max=254"`
	FirstName      string `json:"first_name" validate:"max=100"`
	LastName       string `json:"last_name" validate:"max=100"`
	Phone          string `json:"phone" validate:"max=40"`
	JobTitle       string `json:"job_title" validate:"max=200"`
	CompanyName    string `json:"company_name" validate:"max=200"`
	CompanyWebsite string `json:"company_website" validate:"omitempty,max=500"`
	CompanySize    string `json:"company_size" validate:"max=100"`
	Industry       string `json:"industry" validate:"max=200"`
	BudgetRange    string `json:"budget_range" validate:"max=100"`
	Timeline       string `json:"timeline" validate:"max=100"`
	Challenge      string `json:"challenge" validate:"max=5000"`

	UTMSource string `json:"utm_source" validate:"max=200"`
	UTMMedium string `json:"utm_medium" validate:"max=200"`
	GCLID     string `json:"gclid" validate:"max=500"`
	FBCLID    string `json:"fbclid" validate:"max=500"`
	TTCLID    string `json:"ttclid" validate:"max=500"`
}

// Result is the qualification response for one lead.
type Result struct {
	LeadID uuid.UUID `json:"lead_id"`
	scoring.Qualification
	ScoredAt time.Time `json:"scored_at"`
}

// HistoryResponse lists a lead's scoring events, newest first.
type HistoryResponse struct {
	Items []HistoryEntry `json:"items"`
}
