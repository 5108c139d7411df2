package enrichment

import (
	"errors"
	"testing"
)

func TestParseAnswer_CodeFence(t *testing.T) {
	answer := "```json\n{\"company\":{\"health_score\":7},\"intent\":{\"buying_intent_score\":80,\"urgency_score\":0.6},\"authority\":{\"authority_level\":0.9}}\n```"

	e, err := ParseAnswer(answer)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *e.Company.HealthScore != 7 || *e.Intent.BuyingIntentScore != 80 {
		t.Fatalf("unexpected values: %+v", e)
	}
	if *e.Intent.UrgencyScore != 0.6 || *e.Authority.AuthorityLevel != 0.9 {
		t.Fatalf("unexpected values: %+v", e)
	}
}

func TestParseAnswer_ClampsAndKeepsNulls(t *testing.T) {
	e, err := ParseAnswer(`Here you go: {"company":{"health_score":15},"intent":{"buying_intent_score":null,"urgency_score":-1}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *e.Company.HealthScore != 10 {
		t.Fatalf("expected health clamped to 10, got %f", *e.Company.HealthScore)
	}
	if e.Intent.BuyingIntentScore != nil {
		t.Fatalf("expected null buying intent to stay nil")
	}
	if *e.Intent.UrgencyScore != 0 {
		t.Fatalf("expected urgency clamped to 0, got %f", *e.Intent.UrgencyScore)
	}
	if e.Authority.AuthorityLevel != nil {
		t.Fatalf("expected missing authority to stay nil")
	}
}

func TestParseAnswer_Empty(t *testing.T) {
	for _, answer := range []string{"", "no idea", `{"company":{}}`} {
		if _, err := ParseAnswer(answer); !errors.Is(err, ErrEmptyAnswer) {
			t.Fatalf("answer %q: expected ErrEmptyAnswer, got %v", answer, err)
		}
	}
	if _, err := ParseAnswer(`{"company": [}`); err == nil || errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
