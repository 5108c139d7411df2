package scoring

import "strings"

// normalizeScore maps a 0-1 or 0-100 score onto [0,1]: values above 1 are
// read as percentages.
func normalizeScore(value float64) float64 {
	if value > 1 {
		value /= 100
	}
	return clampUnit(value)
}

func optionalScore(value *float64) float64 {
	if value == nil {
		return NeutralValue
	}
	return normalizeScore(*value)
}

// healthScore reads the 1-10 company health scale; anything above 10 is
// treated as already being on the 0-100 scale.
func healthScore(value *float64) float64 {
	if value == nil {
		return NeutralValue
	}
	if *value <= 10 {
		return clampUnit(*value / 10)
	}
	return normalizeScore(*value)
}

// Composite behavioral intent: base plus capped per-signal contributions.
const (
	intentBase          = 0.3
	intentPricingStep   = 0.15
	intentPricingCap    = 0.3
	intentDemoStep      = 0.1
	intentDemoCap       = 0.2
	intentCaseStudyStep = 0.05
	intentCaseStudyCap  = 0.1
	intentCTAStep       = 0.05
	intentCTACap        = 0.1
	intentFormBonus     = 0.1
)

func behavioralIntent(b *Behavioral) float64 {
	if b == nil {
		return NeutralValue
	}
	if b.IntentScore != nil {
		return normalizeScore(*b.IntentScore)
	}

	score := intentBase
	score += cappedContribution(b.PricingPageViews, intentPricingStep, intentPricingCap)
	score += cappedContribution(b.DemoPageViews, intentDemoStep, intentDemoCap)
	score += cappedContribution(b.CaseStudyViews, intentCaseStudyStep, intentCaseStudyCap)
	score += cappedContribution(b.CTAClicks, intentCTAStep, intentCTACap)
	if b.FormsCompleted > 0 {
		score += intentFormBonus
	}
	return clampUnit(score)
}

func cappedContribution(count int, step, limit float64) float64 {
	if count <= 0 {
		return 0
	}
	contribution := float64(count) * step
	if contribution > limit {
		return limit
	}
	return contribution
}

// Channel quality by acquisition source. Click ids win over UTM tags.
const (
	channelGoogleAds   = 0.8
	channelFacebookAds = 0.7
	channelTikTokAds   = 0.65
	channelPaidSearch  = 0.8
	channelPaidOther   = 0.7
	channelOrganic     = 0.65
	channelReferral    = 0.6
	channelEmail       = 0.7
	channelSocial      = 0.55
	channelDirect      = 0.55
	channelUnknown     = 0.5
)

var (
	paidMediums     = []string{"cpc", "ppc", "paid", "paidsearch", "paid_search", "sem"}
	searchEngines   = []string{"google", "bing"}
	socialSources   = []string{"facebook", "instagram", "linkedin", "twitter", "x.com", "tiktok", "youtube", "reddit", "social"}
	emailSources    = []string{"email", "newsletter", "mailchimp", "hubspot", "sendgrid"}
	organicMarkers  = []string{"organic", "seo"}
	referralMarkers = []string{"referral", "partner", "affiliate"}
)

func channelQuality(t *Tracking) float64 {
	if t == nil {
		return channelUnknown
	}
	switch {
	case strings.TrimSpace(t.GCLID) != "":
		return channelGoogleAds
	case strings.TrimSpace(t.FBCLID) != "":
		return channelFacebookAds
	case strings.TrimSpace(t.TTCLID) != "":
		return channelTikTokAds
	}

	medium := normalizeText(t.UTMMedium)
	source := normalizeText(t.UTMSource)

	switch {
	case medium == "" && source == "":
		return channelDirect
	case equalsAny(medium, paidMediums):
		if containsAny(source, searchEngines) {
			return channelPaidSearch
		}
		return channelPaidOther
	case containsAny(medium, organicMarkers):
		return channelOrganic
	case containsAny(medium, referralMarkers):
		return channelReferral
	case containsAny(medium, emailSources) || containsAny(source, emailSources):
		return channelEmail
	case containsAny(medium, socialSources) || containsAny(source, socialSources):
		return channelSocial
	case source == "direct" || source == "(direct)":
		return channelDirect
	case medium == "" && containsAny(source, searchEngines):
		return channelOrganic
	default:
		return channelUnknown
	}
}

func equalsAny(value string, candidates []string) bool {
	for _, c := range candidates {
		if value == c {
			return true
		}
	}
	return false
}

// Field weights for data completeness; they sum to 1.0.
var completenessWeights = []struct {
	value  func(Lead) string
	weight float64
}{
	{func(l Lead) string { return l.Email }, 0.15},
	{func(l Lead) string { return l.FirstName }, 0.10},
	{func(l Lead) string { return l.LastName }, 0.10},
	{func(l Lead) string { return l.Phone }, 0.10},
	{func(l Lead) string { return l.JobTitle }, 0.15},
	{func(l Lead) string { return l.CompanyName }, 0.15},
	{func(l Lead) string { return l.CompanyWebsite }, 0.05},
	{func(l Lead) string { return l.CompanySize }, 0.05},
	{func(l Lead) string { return l.Industry }, 0.05},
	{func(l Lead) string { return l.BudgetRange }, 0.05},
	{func(l Lead) string { return l.Timeline }, 0.03},
	{func(l Lead) string { return l.Challenge }, 0.02},
}

func dataCompleteness(lead Lead) float64 {
	total := 0.0
	for _, field := range completenessWeights {
		if strings.TrimSpace(field.value(lead)) != "" {
			total += field.weight
		}
	}
	if total > 1 {
		return 1
	}
	return total
}

var personalEmailDomains = map[string]bool{
	"gmail.com": true, "googlemail.com": true, "yahoo.com": true, "hotmail.com": true,
	"outlook.com": true, "live.com": true, "aol.com": true, "icloud.com": true,
	"me.com": true, "msn.com": true, "protonmail.com": true, "proton.me": true,
	"gmx.com": true, "gmx.net": true, "mail.com": true, "yandex.com": true,
}

const (
	contactBase          = 0.5
	contactBusinessEmail = 0.25
	contactPersonalEmail = 0.10
	contactPhone         = 0.15
	contactWebsite       = 0.10
)

func contactQuality(lead Lead) float64 {
	score := contactBase
	if domain, ok := emailDomain(lead.Email); ok {
		if personalEmailDomains[domain] {
			score += contactPersonalEmail
		} else {
			score += contactBusinessEmail
		}
	}
	if strings.TrimSpace(lead.Phone) != "" {
		score += contactPhone
	}
	if strings.TrimSpace(lead.CompanyWebsite) != "" {
		score += contactWebsite
	}
	if score > 1 {
		return 1
	}
	return score
}

func emailDomain(email string) (string, bool) {
	e := strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(e, "@")
	if at <= 0 || at == len(e)-1 {
		return "", false
	}
	domain := e[at+1:]
	if !strings.Contains(domain, ".") {
		return "", false
	}
	return domain, true
}

// IsPersonalEmail reports whether the address uses a consumer mailbox provider.
func IsPersonalEmail(email string) bool {
	domain, ok := emailDomain(email)
	return ok && personalEmailDomains[domain]
}
