package catalog

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func validDraft() Draft {
	return Draft{
		Name:          "Alpha Centauri",
		Type:          "Star",
		Mass:          2.188e30,
		Diameter:      1.7e6,
		Distance:      4.37,
		IsHabitable:   false,
		DiscoveryYear: 1689,
		Description:   "Closest star system to the Sun.",
	}
}

func TestValidate_ValidDraft(t *testing.T) {
	require.NoError(t, Validate(validDraft(), testNow))
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Draft)
		field   string
		message string
	}{
		{"short name", func(d *Draft) { d.Name = "Io" }, FieldName, "must be at least 3 characters"},
		{"short type", func(d *Draft) { d.Type = "X" }, FieldType, "must be at least 2 characters"},
		{"zero mass", func(d *Draft) { d.Mass = 0 }, FieldMass, "must be positive"},
		{"negative diameter", func(d *Draft) { d.Diameter = -1 }, FieldDiameter, "must be positive"},
		{"negative distance", func(d *Draft) { d.Distance = -0.1 }, FieldDistance, "must not be negative"},
		{"year too early", func(d *Draft) { d.DiscoveryYear = 1499 }, FieldDiscoveryYear, "must be 1500 or later"},
		{"year in future", func(d *Draft) { d.DiscoveryYear = 2026 }, FieldDiscoveryYear, "must not be in the future"},
		{"short description", func(d *Draft) { d.Description = "too short" }, FieldDescription, "must be at least 10 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := Validate(d, testNow)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
			require.Len(t, verr.Fields, 1)

			msg, ok := verr.Message(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestValidate_BoundaryValuesPass(t *testing.T) {
	d := validDraft()
	d.Name = "Sol"
	d.Type = "G2"
	d.Distance = 0
	d.DiscoveryYear = testNow.Year()
	d.Description = "0123456789"
	assert.NoError(t, Validate(d, testNow))

	d.DiscoveryYear = MinDiscoveryYear
	assert.NoError(t, Validate(d, testNow))
}

func TestValidate_CountsRunesNotBytes(t *testing.T) {
	d := validDraft()
	d.Name = "Луна"
	d.Type = "Ио"
	assert.NoError(t, Validate(d, testNow))
}

func TestValidate_CollectsAllViolationsInOrder(t *testing.T) {
	err := Validate(Draft{}, testNow)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{
		FieldName, FieldType, FieldMass, FieldDiameter, FieldDiscoveryYear, FieldDescription,
	}, fields)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid space object: name:"))
}

func TestParseDraft(t *testing.T) {
	values := map[string]string{
		FieldName:          "Kepler-22b",
		FieldType:          "Planet",
		FieldMass:          "2.1e25",
		FieldDiameter:      " 30000 ",
		FieldDistance:      "620",
		FieldIsHabitable:   "yes",
		FieldDiscoveryYear: "2011",
		FieldDescription:   "Exoplanet in the habitable zone.",
	}

	d, err := ParseDraft(values, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Kepler-22b", d.Name)
	assert.Equal(t, 2.1e25, d.Mass)
	assert.Equal(t, 30000.0, d.Diameter)
	assert.True(t, d.IsHabitable)
	assert.Equal(t, 2011, d.DiscoveryYear)
}

func TestParseDraft_NonNumericInput(t *testing.T) {
	values := map[string]string{
		FieldName:          "Kepler-22b",
		FieldType:          "Planet",
		FieldMass:          "heavy",
		FieldDiameter:      "30000",
		FieldDistance:      "620",
		FieldIsHabitable:   "maybe",
		FieldDiscoveryYear: "2011.5",
		FieldDescription:   "Exoplanet in the habitable zone.",
	}

	_, err := ParseDraft(values, testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	msg, ok := verr.Message(FieldMass)
	require.True(t, ok)
	assert.Equal(t, "must be a number", msg)

	msg, ok = verr.Message(FieldDiscoveryYear)
	require.True(t, ok)
	assert.Equal(t, "must be a whole number", msg)

	_, ok = verr.Message(FieldIsHabitable)
	assert.True(t, ok)
	assert.Len(t, verr.Fields, 3)
}

func TestParseDraft_NonFiniteInput(t *testing.T) {
	tests := []struct {
		field string
		raw   string
	}{
		{FieldMass, "Inf"},
		{FieldMass, "+Inf"},
		{FieldDiameter, "-inf"},
		{FieldDistance, "Infinity"},
		{FieldDistance, "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.field+"="+tt.raw, func(t *testing.T) {
			values := map[string]string{
				FieldName:          "Kepler-22b",
				FieldType:          "Planet",
				FieldMass:          "2.1e25",
				FieldDiameter:      "30000",
				FieldDistance:      "620",
				FieldDiscoveryYear: "2011",
				FieldDescription:   "Exoplanet in the habitable zone.",
			}
			values[tt.field] = tt.raw

			_, err := ParseDraft(values, testNow)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)

			msg, ok := verr.Message(tt.field)
			require.True(t, ok)
			assert.Equal(t, "must be a finite number", msg)
			assert.Len(t, verr.Fields, 1)
		})
	}
}

func TestValidate_RejectsNonFiniteNumbers(t *testing.T) {
	d := validDraft()
	d.Mass = math.Inf(1)
	d.Distance = math.NaN()

	err := Validate(d, testNow)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	msg, _ := verr.Message(FieldMass)
	assert.Equal(t, "must be a finite number", msg)
	msg, _ = verr.Message(FieldDistance)
	assert.Equal(t, "must be a finite number", msg)
}
