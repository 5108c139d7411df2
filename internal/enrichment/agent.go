// Package enrichment produces AI-derived company, intent and authority
// signals for a lead and caches them per lead.
package enrichment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"leadscore_backend/internal/scoring"
)

const agentAppName = "lead-enrichment"

// Profile is the subset of a lead the agent may see. Names, emails and
// phone numbers never leave the service.
type Profile struct {
	JobTitle       string
	CompanyName    string
	CompanyWebsite string
	CompanyDomain  string
	CompanySize    string
	Industry       string
	BudgetRange    string
	Timeline       string
	Challenge      string
}

// ProfileFromLead strips personal data from a lead. The email is reduced to
// its domain, and only when it is a business domain.
func ProfileFromLead(lead scoring.Lead) Profile {
	p := Profile{
		JobTitle:       strings.TrimSpace(lead.JobTitle),
		CompanyName:    strings.TrimSpace(lead.CompanyName),
		CompanyWebsite: strings.TrimSpace(lead.CompanyWebsite),
		CompanySize:    strings.TrimSpace(lead.CompanySize),
		Industry:       strings.TrimSpace(lead.Industry),
		BudgetRange:    strings.TrimSpace(lead.BudgetRange),
		Timeline:       strings.TrimSpace(lead.Timeline),
		Challenge:      strings.TrimSpace(lead.Challenge),
	}
	if at := strings.LastIndex(lead.Email, "@"); at >= 0 && !scoring.IsPersonalEmail(lead.Email) {
		p.CompanyDomain = strings.ToLower(strings.TrimSpace(lead.Email[at+1:]))
	}
	return p
}

// Empty reports whether the profile carries nothing worth enriching.
func (p Profile) Empty() bool {
	return p.JobTitle == "" && p.CompanyName == "" && p.CompanyWebsite == "" &&
		p.CompanyDomain == "" && p.Industry == "" && p.Challenge == ""
}

// Agent asks an LLM to estimate enrichment signals for a lead profile.
type Agent struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	appName        string
}

// NewAgent creates an enrichment agent without tools over the given model.
// The model is expected to answer with a single JSON object.
func NewAgent(llm model.LLM) (*Agent, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "LeadEnrichment",
		Model:       llm,
		Description: "Estimates company health, buying intent, urgency and decision authority for B2B leads.",
		Instruction: systemPrompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        agentAppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment runner: %w", err)
	}

	return &Agent{
		agent:          adkAgent,
		runner:         r,
		sessionService: sessionService,
		appName:        agentAppName,
	}, nil
}

// Enrich runs one single-turn session for the lead and parses the answer.
func (a *Agent) Enrich(ctx context.Context, leadID uuid.UUID, profile Profile) (*scoring.Enrichment, error) {
	sessionID := uuid.New().String()
	userID := "lead-" + leadID.String()

	_, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("enrichment: create session: %w", err)
	}
	defer func() {
		_ = a.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   a.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: buildPrompt(profile)}},
	}

	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var outputText strings.Builder
	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return nil, fmt.Errorf("enrichment: run failed: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			outputText.WriteString(part.Text)
		}
	}

	return ParseAnswer(outputText.String())
}

func buildPrompt(p Profile) string {
	return fmt.Sprintf(`Lead profile:
- Job title: %s
- Company: %s
- Website: %s
- Email domain: %s
- Company size: %s
- Industry: %s
- Budget: %s
- Timeline: %s
- Challenge: %s

Task:
Estimate the following signals for this lead and answer with one JSON object:
{
  "company": {"health_score": number 1-10},
  "intent": {"buying_intent_score": number 1-100, "urgency_score": number 0-1},
  "authority": {"authority_level": number 0-1}
}
Rules:
- Output only the JSON object, no extra commentary.
- Use null for any signal you cannot estimate from the profile.
- Base estimates only on the provided fields; empty fields mean unknown.
`, orDash(p.JobTitle), orDash(p.CompanyName), orDash(p.CompanyWebsite), orDash(p.CompanyDomain),
		orDash(p.CompanySize), orDash(p.Industry), orDash(p.BudgetRange), orDash(p.Timeline), orDash(p.Challenge))
}

func systemPrompt() string {
	return "You are a B2B sales research analyst. You estimate lead quality signals conservatively and answer strictly in JSON."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
