package geocoding

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zatekoja/hospital-cost-navigator/pkg/errors"
)

const sampleDataset = "US\t10001\tNew York\tNew York\tNY\tNew York\t061\t\t\t40.7484\t-73.9967\t4\n" +
	"US\t94103\tSan Francisco\tCalifornia\tCA\tSan Francisco\t075\t\t\t37.7725\t-122.4147\t4\n" +
	"US\t60601\tChicago\tIllinois\tIL\tCook\t031\t\t\t41.8858\t-87.6229\t4\n" +
	"CA\tM5V\tToronto\tOntario\tON\t\t\t\t\t43.6426\t-79.3871\t4\n" +
	"US\tbadrow\n"

func newTestAdapter(t *testing.T) *GeoNamesAdapter {
	t.Helper()
	adapter, err := NewGeoNamesAdapterFromReader(strings.NewReader(sampleDataset), "US")
	require.NoError(t, err)
	return adapter
}

func TestResolve_KnownCode(t *testing.T) {
	adapter := newTestAdapter(t)

	point, err := adapter.Resolve(context.Background(), "10001")
	require.NoError(t, err)
	assert.InDelta(t, 40.7484, point.Latitude, 0.0001)
	assert.InDelta(t, -73.9967, point.Longitude, 0.0001)
}

func TestResolve_UnknownCodeIsDistinctFromInvalid(t *testing.T) {
	adapter := newTestAdapter(t)

	// Well-formed but absent from the dataset.
	_, err := adapter.Resolve(context.Background(), "00000")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownLocation))

	// Malformed code is a validation error, not an unknown location.
	_, err = adapter.Resolve(context.Background(), "1234")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestLoader_FiltersOtherCountriesAndBadRows(t *testing.T) {
	adapter := newTestAdapter(t)

	assert.Equal(t, 3, adapter.Size())

	_, err := adapter.Resolve(context.Background(), "94103")
	assert.NoError(t, err)
}

func TestLoader_EmptyDatasetFails(t *testing.T) {
	_, err := NewGeoNamesAdapterFromReader(strings.NewReader(""), "US")
	assert.Error(t, err)
}
