package scoring

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// match is a feature value together with a short human explanation.
type match struct {
	value float64
	note  string
}

const (
	scoreExact        = 1.0
	scorePartial      = 0.8
	scoreNoMatch      = 0.3
	scoreNoPreference = 0.6

	// Fields that matter more when missing than a neutral 0.5 default.
	scoreMissingWeak = 0.4

	budgetBandLow   = 0.5
	budgetBandHigh  = 2.0
	budgetBandFloor = 0.6
)

var criterionAliases = map[CriterionType][]string{
	CriterionCompanySize: {"company size", "company_size", "employees", "headcount", "team size", "size"},
	CriterionIndustry:    {"industry", "sector", "vertical", "market"},
	CriterionJobTitle:    {"job title", "job_title", "title", "role", "position", "seniority"},
	CriterionBudget:      {"budget", "investment", "spend", "deal size"},
	CriterionTimeline:    {"timeline", "timeframe", "time frame", "urgency", "purchase window"},
}

// findCriterion locates the criterion feeding a given type: an exact type
// match wins, otherwise the first criterion whose name mentions an alias.
func findCriterion(criteria []Criterion, t CriterionType) *Criterion {
	for i := range criteria {
		if criteria[i].Type == t {
			return &criteria[i]
		}
	}
	for i := range criteria {
		name := normalizeText(criteria[i].Name)
		if name == "" {
			continue
		}
		for _, alias := range criterionAliases[t] {
			if strings.Contains(name, alias) {
				return &criteria[i]
			}
		}
	}
	return nil
}

// matchCategorical compares a raw lead value against a criterion's ideal values.
func matchCategorical(value string, criterion *Criterion) match {
	v := normalizeText(value)
	if v == "" {
		return match{NeutralValue, "Not provided"}
	}
	if criterion == nil || len(nonEmpty(criterion.IdealValues)) == 0 {
		return match{scoreNoPreference, "No preference configured"}
	}

	partial := ""
	for _, ideal := range criterion.IdealValues {
		iv := normalizeText(ideal)
		if iv == "" {
			continue
		}
		if iv == v {
			return match{scoreExact, "Exact match: " + strings.TrimSpace(ideal)}
		}
		if partial == "" && (strings.Contains(v, iv) || strings.Contains(iv, v)) {
			partial = strings.TrimSpace(ideal)
		}
	}
	if partial != "" {
		return match{scorePartial, "Partial match: " + partial}
	}
	return match{scoreNoMatch, "Does not match ideal values"}
}

// Budget keyword tiers used when no numeric comparison is possible.
var budgetTiers = []struct {
	keywords []string
	score    float64
	note     string
}{
	{[]string{"enterprise", "100k+"}, 0.9, "Enterprise budget"},
	{[]string{"10k", "growth"}, 0.7, "Growth budget"},
	{[]string{"startup", "small"}, 0.4, "Small budget"},
}

func matchBudget(value string, criterion *Criterion) match {
	v := normalizeText(value)
	if v == "" {
		return match{scoreMissingWeak, "Not provided"}
	}

	if criterion != nil {
		if amount, ok := parseAmount(v); ok {
			if m, ok := bestBudgetRatio(amount, criterion.IdealValues); ok {
				return m
			}
		}
	}

	for _, tier := range budgetTiers {
		if containsAny(v, tier.keywords) {
			return match{tier.score, tier.note}
		}
	}
	return matchCategorical(value, criterion)
}

// bestBudgetRatio scores the lead amount against every numeric ideal value and
// keeps the best in-band result. Open-ended ideals ("$100,000+") accept any
// amount at or above their floor.
func bestBudgetRatio(amount float64, ideals []string) (match, bool) {
	best := match{}
	found := false
	for _, ideal := range ideals {
		iv := normalizeText(ideal)
		target, ok := parseAmount(iv)
		if !ok || target <= 0 {
			continue
		}
		if isOpenEnded(iv) && amount >= target {
			return match{scoreExact, "Meets budget floor " + strings.TrimSpace(ideal)}, true
		}
		ratio := amount / target
		if ratio < budgetBandLow || ratio > budgetBandHigh {
			continue
		}
		score := 1 - absFloat(1-ratio)*0.5
		if score < budgetBandFloor {
			score = budgetBandFloor
		}
		if !found || score > best.value {
			best = match{score, "Within budget band of " + strings.TrimSpace(ideal)}
			found = true
		}
	}
	return best, found
}

var amountPattern = regexp.MustCompile(`([$€£])?\s*(\d[\d,]*(?:\.\d+)?)\s*([km]\b)?`)

// rangeJoiners separate the two ends of an amount range.
var rangeJoiners = []string{"-", "–", "to"}

type amountMatch struct {
	value  float64
	marked bool
	start  int
	end    int
}

// parseAmount extracts a monetary amount from free text. "k" and "m"
// suffixes multiply and a range such as "$50k - $100k" yields its midpoint.
// Otherwise the largest currency-marked amount wins, then the largest number.
func parseAmount(text string) (float64, bool) {
	lower := strings.ToLower(text)
	var found []amountMatch
	for _, idx := range amountPattern.FindAllStringSubmatchIndex(lower, -1) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(lower[idx[4]:idx[5]], ",", ""), 64)
		if err != nil {
			continue
		}
		var suffix string
		if idx[6] >= 0 {
			suffix = lower[idx[6]:idx[7]]
		}
		switch suffix {
		case "k":
			n *= 1_000
		case "m":
			n *= 1_000_000
		}
		found = append(found, amountMatch{value: n, marked: idx[2] >= 0 || suffix != "", start: idx[0], end: idx[1]})
	}
	if len(found) == 0 {
		return 0, false
	}

	for i := 0; i+1 < len(found); i++ {
		between := strings.TrimSpace(lower[found[i].end:found[i+1].start])
		if slices.Contains(rangeJoiners, between) {
			return (found[i].value + found[i+1].value) / 2, true
		}
	}

	best, haveMarked := 0.0, false
	for _, a := range found {
		switch {
		case a.marked && (!haveMarked || a.value > best):
			best, haveMarked = a.value, true
		case !haveMarked && a.value > best:
			best = a.value
		}
	}
	return best, true
}

func isOpenEnded(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasSuffix(t, "+") || strings.Contains(t, "or more") || strings.Contains(t, "and above")
}

// Timeline urgency tiers, checked in order.
var timelineTiers = []struct {
	phrases []string
	score   float64
	note    string
}{
	{[]string{"not now", "not right now", "not yet", "no rush", "not urgent", "not a priority"}, 0.35, "Purchase deferred"},
	{[]string{"immediately", "immediate", "asap", "urgent", "urgently", "right away", "right now", "this week", "today"}, 1.0, "Immediate need"},
	{[]string{"this month", "within a month", "1 month", "one month", "30 days", "next few weeks", "2 weeks", "few weeks"}, 0.85, "Buying this month"},
	{[]string{"quarter", "1-3 months", "2-3 months", "3 months", "90 days", "next 3 months"}, 0.65, "Buying this quarter"},
	{[]string{"6 months", "6+ months", "6-12 months", "12 months", "next year", "evaluating", "exploring", "researching", "just looking", "no timeline", "long term"}, 0.35, "Long or undefined horizon"},
}

func matchTimeline(value string, criterion *Criterion) match {
	v := normalizeText(value)
	if v == "" {
		return match{scoreMissingWeak, "Not provided"}
	}
	for _, tier := range timelineTiers {
		if containsAnyWord(v, tier.phrases) {
			return match{tier.score, tier.note}
		}
	}
	return matchCategorical(value, criterion)
}

// Seniority ladder for job titles, checked top down.
var seniorityTiers = []struct {
	phrases []string
	score   float64
	note    string
}{
	{[]string{"chief", "ceo", "cto", "cfo", "coo", "cmo", "cio", "cro", "cpo", "ciso", "founder", "co-founder", "cofounder", "president", "owner"}, 1.0, "Executive decision maker"},
	{[]string{"vp", "svp", "evp", "vice president", "head of", "head"}, 0.9, "VP or head of function"},
	{[]string{"director"}, 0.8, "Director"},
	{[]string{"manager", "lead", "senior", "sr", "principal"}, 0.65, "Manager or senior contributor"},
	{[]string{"analyst", "associate", "coordinator", "intern", "assistant", "junior", "jr"}, 0.35, "Individual contributor"},
}

func matchJobTitle(value string, criterion *Criterion) match {
	v := normalizeText(value)
	if v == "" {
		return match{scoreMissingWeak, "Not provided"}
	}
	// "vice president" must not read as "president".
	executive := strings.ReplaceAll(v, "vice president", " ")
	for i, tier := range seniorityTiers {
		text := v
		if i == 0 {
			text = executive
		}
		if containsAnyWord(text, tier.phrases) {
			return match{tier.score, tier.note}
		}
	}
	return matchCategorical(value, criterion)
}

// matchFreeText scores a custom criterion against every textual lead field.
func matchFreeText(lead Lead, criterion Criterion) match {
	fields := []string{
		lead.Industry, lead.JobTitle, lead.CompanyName, lead.CompanySize,
		lead.BudgetRange, lead.Timeline, lead.Challenge, lead.CompanyWebsite,
	}
	best := match{NeutralValue, "Not provided"}
	seen := false
	for _, field := range fields {
		if normalizeText(field) == "" {
			continue
		}
		m := matchCategorical(field, &criterion)
		if !seen || m.value > best.value {
			best = m
			seen = true
		}
		if best.value == scoreExact {
			break
		}
	}
	return best
}

func normalizeText(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// containsAny checks if s contains any of the keywords.
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

var wordPatterns = map[string]*regexp.Regexp{}

// containsAnyWord is containsAny restricted to whole-word matches, so
// "now" does not fire on "unknown".
func containsAnyWord(s string, phrases []string) bool {
	for _, phrase := range phrases {
		re, ok := wordPatterns[phrase]
		if !ok {
			continue
		}
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func init() {
	register := func(phrases []string) {
		for _, p := range phrases {
			if _, ok := wordPatterns[p]; !ok {
				wordPatterns[p] = regexp.MustCompile(`(^|[^a-z0-9])` + regexp.QuoteMeta(p) + `($|[^a-z0-9])`)
			}
		}
	}
	for _, tier := range timelineTiers {
		register(tier.phrases)
	}
	for _, tier := range seniorityTiers {
		register(tier.phrases)
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
