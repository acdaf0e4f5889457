package providers

import (
	"context"

	"github.com/zatekoja/hospital-cost-navigator/internal/domain/entities"
)

// Geocoder resolves a postal code to coordinates using an offline dataset.
// Implementations must not perform network I/O; the dataset is immutable for
// the process lifetime.
type Geocoder interface {
	// Resolve returns the centroid for a postal code. Unrecognized codes
	// return an UNKNOWN_LOCATION AppError, malformed ones VALIDATION.
	Resolve(ctx context.Context, postalCode string) (*entities.Location, error)
}
