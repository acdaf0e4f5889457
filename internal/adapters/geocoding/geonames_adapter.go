package geocoding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
	"github.com/zatekoja/hospital-cost-navigator/internal/domain/providers"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

// GeoNames postal dataset columns (tab separated).
const (
	colCountry    = 0
	colPostalCode = 1
	colLatitude   = 9
	colLongitude  = 10
	minColumns    = 11
)

// GeoNamesAdapter resolves postal codes against an offline GeoNames postal
// dataset loaded once at startup. Lookups are pure map reads, safe for
// concurrent use.
type GeoNamesAdapter struct {
	country string
	points  map[string]entities.Location
}

var _ providers.Geocoder = (*GeoNamesAdapter)(nil)

// NewGeoNamesAdapter loads the dataset file and builds the lookup table.
func NewGeoNamesAdapter(path, country string) (*GeoNamesAdapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geocoding dataset: %w", err)
	}
	defer f.Close()

	adapter, err := NewGeoNamesAdapterFromReader(f, country)
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Int("postal_codes", len(adapter.points)).
		Msg("loaded offline geocoding dataset")
	return adapter, nil
}

// NewGeoNamesAdapterFromReader builds the table from GeoNames TSV content.
func NewGeoNamesAdapterFromReader(r io.Reader, country string) (*GeoNamesAdapter, error) {
	adapter := &GeoNamesAdapter{
		country: strings.ToUpper(country),
		points:  make(map[string]entities.Location),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < minColumns {
			continue
		}
		if adapter.country != "" && !strings.EqualFold(fields[colCountry], adapter.country) {
			continue
		}

		lat, err := strconv.ParseFloat(fields[colLatitude], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(fields[colLongitude], 64)
		if err != nil {
			continue
		}

		code := strings.TrimSpace(fields[colPostalCode])
		if code == "" {
			continue
		}
		// First entry wins; the dataset occasionally repeats a code per place name.
		if _, ok := adapter.points[code]; !ok {
			adapter.points[code] = entities.Location{Latitude: lat, Longitude: lon}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read geocoding dataset: %w", err)
	}

	if len(adapter.points) == 0 {
		return nil, fmt.Errorf("geocoding dataset contained no usable rows")
	}

	return adapter, nil
}

// Resolve returns the centroid for a postal code.
func (a *GeoNamesAdapter) Resolve(ctx context.Context, postalCode string) (*entities.Location, error) {
	code := strings.TrimSpace(postalCode)
	if !entities.ValidPostalCode(code) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("malformed postal code %q", postalCode))
	}

	point, ok := a.points[code]
	if !ok {
		return nil, apperrors.NewUnknownLocationError(code)
	}
	return &point, nil
}

// Size returns the number of postal codes in the table.
func (a *GeoNamesAdapter) Size() int {
	return len(a.points)
}
