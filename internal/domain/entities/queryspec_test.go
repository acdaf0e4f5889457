package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPostalCode(t *testing.T) {
	assert.True(t, ValidPostalCode("10001"))
	assert.True(t, ValidPostalCode("00501"))

	assert.False(t, ValidPostalCode("1234"))
	assert.False(t, ValidPostalCode("123456"))
	assert.False(t, ValidPostalCode("1000a"))
	assert.False(t, ValidPostalCode("10001-1234"))
	assert.False(t, ValidPostalCode(""))
}

func TestRankingIntentIsValid(t *testing.T) {
	for _, intent := range []RankingIntent{IntentCheapest, IntentBestRated, IntentTopN, IntentAverageCost, IntentDefault} {
		assert.True(t, intent.IsValid(), string(intent))
	}
	assert.False(t, RankingIntent("priciest").IsValid())
	assert.False(t, RankingIntent("").IsValid())
}

func TestProcedureMatchPrefersCode(t *testing.T) {
	spec := &QuerySpec{ProcedureCode: "470", ProcedureText: "hip replacement"}
	value, exact := spec.ProcedureMatch()
	assert.Equal(t, "470", value)
	assert.True(t, exact)

	spec = &QuerySpec{ProcedureText: "hip replacement"}
	value, exact = spec.ProcedureMatch()
	assert.Equal(t, "hip replacement", value)
	assert.False(t, exact)
}

func TestDraftEmpty(t *testing.T) {
	assert.True(t, (&QuerySpecDraft{}).Empty())
	assert.True(t, (&QuerySpecDraft{Origin: OriginPattern}).Empty())

	radius := 10.0
	assert.False(t, (&QuerySpecDraft{RadiusKm: &radius}).Empty())
	assert.False(t, (&QuerySpecDraft{ProcedureText: "hip"}).Empty())
	assert.False(t, (&QuerySpecDraft{PostalCode: "10001"}).Empty())
}
