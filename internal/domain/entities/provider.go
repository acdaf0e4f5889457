package entities

// Provider represents a hospital in the reference dataset. Rows are loaded by
// an external ETL process and never mutated by this service.
type Provider struct {
	ProviderID string   `json:"provider_id" db:"provider_id"`
	Name       string   `json:"name" db:"name"`
	City       string   `json:"city" db:"city"`
	State      string   `json:"state" db:"state"`
	ZipCode    string   `json:"zip_code" db:"zip_code"`
	Latitude   *float64 `json:"latitude" db:"latitude"`
	Longitude  *float64 `json:"longitude" db:"longitude"`
}

// ProcedureOffering represents one procedure a provider performs, with its
// discharge volume and billed/paid averages. Unique per (provider, DRG).
type ProcedureOffering struct {
	ProviderID              string  `json:"provider_id" db:"provider_id"`
	DRGDefinition           string  `json:"drg_definition" db:"ms_drg_definition"`
	TotalDischarges         int     `json:"total_discharges" db:"total_discharges"`
	AverageCoveredCharges   float64 `json:"average_covered_charges" db:"average_covered_charges"`
	AverageTotalPayments    float64 `json:"average_total_payments" db:"average_total_payments"`
	AverageMedicarePayments float64 `json:"average_medicare_payments" db:"average_medicare_payments"`
}

// Rating is a provider quality score on a 1-10 scale. At most one per provider.
type Rating struct {
	ProviderID string `json:"provider_id" db:"provider_id"`
	Score      int    `json:"rating" db:"rating"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Candidate is one provider+offering row produced by the search planner.
// DistanceKm is attached during the exact distance phase.
type Candidate struct {
	ProviderID    string  `json:"provider_id"`
	Name          string  `json:"name"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	ZipCode       string  `json:"postal_code"`
	ProcedureText string  `json:"procedure_text"`
	AverageCost   float64 `json:"average_cost"`
	Rating        *int    `json:"rating"`
	Latitude      float64 `json:"-"`
	Longitude     float64 `json:"-"`
	DistanceKm    float64 `json:"distance_km"`
}
