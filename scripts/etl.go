// Loads the CMS inpatient charge CSV into Postgres: providers with geocoded
// coordinates, their procedure offerings, and deterministic ratings. Run with
// CSV_PATH pointing at the dataset; RESET_DB=true truncates first.
package main

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/hospital-cost-navigator/internal/adapters/geocoding"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/hospital-cost-navigator/pkg/config"
)

const (
	defaultCSVPath = "data/sample_prices_ny.csv"
	migrationPath  = "scripts/migrations/001_init.sql"
	batchSize      = 500
)

var nonMoneyChars = regexp.MustCompile(`[^0-9.\-]`)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	csvPath := os.Getenv("CSV_PATH")
	if csvPath == "" {
		csvPath = defaultCSVPath
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	geocoder, err := geocoding.NewGeoNamesAdapter(cfg.Geocoding.DatasetPath, cfg.Geocoding.CountryCode)
	if err != nil {
		log.Fatalf("Failed to load geocoding dataset: %v", err)
	}
	log.Printf("Geocoding dataset loaded: %d postal codes", geocoder.Size())

	ctx := context.Background()

	if err := applyMigrations(ctx, pgClient); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before loading")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE ratings, procedure_offerings, providers
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to truncate tables: %v", err)
		}
	}

	loader := &csvLoader{
		db:       goqu.New("postgres", pgClient.DB()),
		geocoder: geocoder,
		seen:     map[string]struct{}{},
	}
	if err := loader.Load(ctx, csvPath); err != nil {
		log.Fatalf("Load failed: %v", err)
	}

	log.Printf("ETL complete: %d providers, %d offerings (%d rows skipped)",
		loader.providers, loader.offerings, loader.skipped)
}

func applyMigrations(ctx context.Context, client *postgres.Client) error {
	raw, err := os.ReadFile(migrationPath)
	if err != nil {
		return err
	}
	// lib/pq cannot prepare multiple statements at once
	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type csvLoader struct {
	db       *goqu.Database
	geocoder *geocoding.GeoNamesAdapter

	seen      map[string]struct{}
	providers int
	offerings int
	skipped   int
}

func (l *csvLoader) Load(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return err
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	var providerRows, offeringRows, ratingRows []goqu.Record
	flush := func() error {
		if err := l.flush(ctx, providerRows, offeringRows, ratingRows); err != nil {
			return err
		}
		providerRows, offeringRows, ratingRows = nil, nil, nil
		return nil
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.skipped++
			continue
		}

		providerID := field(record, "Rndrng_Prvdr_CCN")
		drgCode := field(record, "DRG_Cd")
		drgDesc := field(record, "DRG_Desc")
		if providerID == "" || (drgCode == "" && drgDesc == "") {
			l.skipped++
			continue
		}

		if _, ok := l.seen[providerID]; !ok {
			l.seen[providerID] = struct{}{}

			zip := field(record, "Rndrng_Prvdr_Zip5")
			var lat, lon interface{}
			if loc, err := l.geocoder.Resolve(ctx, zip); err == nil {
				lat, lon = loc.Latitude, loc.Longitude
			}

			providerRows = append(providerRows, goqu.Record{
				"provider_id": providerID,
				"name":        field(record, "Rndrng_Prvdr_Org_Name"),
				"city":        field(record, "Rndrng_Prvdr_City"),
				"state":       field(record, "Rndrng_Prvdr_State_Abrvtn"),
				"zip_code":    zip,
				"latitude":    lat,
				"longitude":   lon,
			})
			ratingRows = append(ratingRows, goqu.Record{
				"provider_id": providerID,
				"rating":      stableRating(providerID),
			})
			l.providers++
		}

		definition := strings.Trim(drgCode+" - "+drgDesc, " -")
		offeringRows = append(offeringRows, goqu.Record{
			"provider_id":               providerID,
			"drg_code":                  drgCode,
			"ms_drg_definition":         definition,
			"total_discharges":          parseIntOrNil(field(record, "Tot_Dschrgs")),
			"average_covered_charges":   cleanMoney(field(record, "Avg_Submtd_Cvrd_Chrg")),
			"average_total_payments":    cleanMoney(field(record, "Avg_Tot_Pymt_Amt")),
			"average_medicare_payments": cleanMoney(field(record, "Avg_Mdcr_Pymt_Amt")),
		})
		l.offerings++

		if len(offeringRows) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

func (l *csvLoader) flush(ctx context.Context, providers, offerings, ratings []goqu.Record) error {
	if len(providers) > 0 {
		insert := l.db.Insert("providers").Rows(recordsToAny(providers)...).
			OnConflict(goqu.DoNothing())
		if _, err := insert.Executor().ExecContext(ctx); err != nil {
			return err
		}
	}
	if len(ratings) > 0 {
		insert := l.db.Insert("ratings").Rows(recordsToAny(ratings)...).
			OnConflict(goqu.DoUpdate("provider_id", goqu.Record{"rating": goqu.I("excluded.rating")}))
		if _, err := insert.Executor().ExecContext(ctx); err != nil {
			return err
		}
	}
	if len(offerings) > 0 {
		insert := l.db.Insert("procedure_offerings").Rows(recordsToAny(offerings)...).
			OnConflict(goqu.DoUpdate("provider_id, ms_drg_definition", goqu.Record{
				"total_discharges":          goqu.I("excluded.total_discharges"),
				"average_covered_charges":   goqu.I("excluded.average_covered_charges"),
				"average_total_payments":    goqu.I("excluded.average_total_payments"),
				"average_medicare_payments": goqu.I("excluded.average_medicare_payments"),
			}))
		if _, err := insert.Executor().ExecContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

func recordsToAny(records []goqu.Record) []interface{} {
	out := make([]interface{}, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

// stableRating derives a deterministic 1-10 score from the provider id, as a
// stand-in until a real quality feed is wired up.
func stableRating(providerID string) int {
	h := 0
	for _, ch := range providerID {
		h = (h*131 + int(ch)) % 1000003
	}
	return (h % 10) + 1
}

func cleanMoney(s string) interface{} {
	s = nonMoneyChars.ReplaceAllString(s, "")
	if s == "" {
		return nil
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return value
}

func parseIntOrNil(s string) interface{} {
	if s == "" {
		return nil
	}
	value, err := strconv.Atoi(s)
	if err != nil || value == 0 {
		return nil
	}
	return value
}
