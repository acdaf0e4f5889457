package entities

import "regexp"

// RankingIntent describes how candidates should be ordered.
type RankingIntent string

const (
	IntentCheapest    RankingIntent = "cheapest"
	IntentBestRated   RankingIntent = "best_rated"
	IntentTopN        RankingIntent = "top_n"
	IntentAverageCost RankingIntent = "average_cost"
	IntentDefault     RankingIntent = "default"
)

// IsValid checks if the intent value is one of the defined constants.
func (i RankingIntent) IsValid() bool {
	switch i {
	case IntentCheapest, IntentBestRated, IntentTopN, IntentAverageCost, IntentDefault:
		return true
	}
	return false
}

// DraftOrigin tags which extraction strategy produced a draft. Diagnostics
// only; it never influences validation or ranking.
type DraftOrigin string

const (
	OriginPattern   DraftOrigin = "pattern"
	OriginInference DraftOrigin = "inference"
)

var postalCodePattern = regexp.MustCompile(`^\d{5}$`)

// ValidPostalCode reports whether s is a well-formed 5-digit US postal code.
func ValidPostalCode(s string) bool {
	return postalCodePattern.MatchString(s)
}

// QuerySpecDraft is the unvalidated output of an extraction strategy. Fields
// may be absent; every present field is revalidated before promotion to a
// QuerySpec, regardless of which strategy produced it.
type QuerySpecDraft struct {
	ProcedureCode string        `json:"procedure_code,omitempty"`
	ProcedureText string        `json:"procedure_text,omitempty"`
	PostalCode    string        `json:"postal_code,omitempty"`
	RadiusKm      *float64      `json:"radius_km,omitempty"`
	Intent        RankingIntent `json:"intent,omitempty"`
	Limit         *int          `json:"limit,omitempty"`
	Origin        DraftOrigin   `json:"origin,omitempty"`
}

// HasProcedureMatch reports whether the draft carries any procedure signal.
func (d *QuerySpecDraft) HasProcedureMatch() bool {
	return d.ProcedureCode != "" || d.ProcedureText != ""
}

// Empty reports whether the draft carries no usable signal at all.
func (d *QuerySpecDraft) Empty() bool {
	return !d.HasProcedureMatch() && d.PostalCode == "" &&
		d.RadiusKm == nil && d.Intent == "" && d.Limit == nil
}

// QuerySpec is a fully validated, bounded structured query. Constructed once
// per request by the intent guard and never mutated afterwards. Free text only
// ever reaches the planner through ProcedureText, which is passed to storage
// as a bound parameter.
type QuerySpec struct {
	ProcedureCode string
	ProcedureText string
	Origin        Location
	RadiusKm      float64
	Intent        RankingIntent
	Limit         int
}

// ProcedureMatch returns the text the planner should match offerings against:
// the exact code when present, else the fuzzy fragment.
func (s *QuerySpec) ProcedureMatch() (value string, exact bool) {
	if s.ProcedureCode != "" {
		return s.ProcedureCode, true
	}
	return s.ProcedureText, false
}
