package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
)

const extractionSystemPrompt = `You are a data assistant that extracts structured parameters for hospital pricing queries. Return ONLY valid JSON with this schema:
{
  "intent": string (one of: cheapest, best_rated, top_n, average_cost, default),
  "drg_code": string or null (3-digit MS-DRG code if explicitly mentioned),
  "drg_text": string or null (procedure description fragment if no code given),
  "zip_code": string or null (5-digit ZIP code),
  "radius": number or null,
  "radius_unit": string or null (one of: km, miles),
  "limit": integer or null (requested number of results, e.g. from "top 5")
}
Extract only what the question states. Never invent a ZIP code or radius. Do not answer the question.`

func buildExtractionUserPrompt(question string) string {
	return fmt.Sprintf("Question: %s", question)
}

// draftPayload is the wire shape returned by the model.
type draftPayload struct {
	Intent     string      `json:"intent"`
	DRGCode    string      `json:"drg_code"`
	DRGText    string      `json:"drg_text"`
	ZipCode    string      `json:"zip_code"`
	Radius     json.Number `json:"radius"`
	RadiusUnit string      `json:"radius_unit"`
	Limit      json.Number `json:"limit"`
}

const milesPerKm = 0.621371

// parseDraftPayload maps the model's JSON onto a QuerySpecDraft. Fields that
// fail basic shape checks are dropped here; range clamping and vocabulary
// checks happen again in the intent guard, identically for every strategy.
func parseDraftPayload(data []byte) (*entities.QuerySpecDraft, error) {
	var payload draftPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse draft payload: %w", err)
	}

	draft := &entities.QuerySpecDraft{Origin: entities.OriginInference}

	intent := entities.RankingIntent(strings.ToLower(strings.TrimSpace(payload.Intent)))
	if intent.IsValid() {
		draft.Intent = intent
	}

	draft.ProcedureCode = strings.TrimSpace(payload.DRGCode)
	draft.ProcedureText = strings.TrimSpace(payload.DRGText)

	if zip := strings.TrimSpace(payload.ZipCode); entities.ValidPostalCode(zip) {
		draft.PostalCode = zip
	}

	if payload.Radius != "" {
		if r, err := payload.Radius.Float64(); err == nil && r > 0 {
			if strings.EqualFold(strings.TrimSpace(payload.RadiusUnit), "miles") {
				r /= milesPerKm
			}
			draft.RadiusKm = &r
		}
	}

	if payload.Limit != "" {
		if n, err := payload.Limit.Int64(); err == nil && n > 0 {
			limit := int(n)
			draft.Limit = &limit
		}
	}

	return draft, nil
}
