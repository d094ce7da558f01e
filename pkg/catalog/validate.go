package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Field names as they appear in the JSON body and in validation errors.
const (
	FieldName          = "name"
	FieldType          = "type"
	FieldMass          = "mass"
	FieldDiameter      = "diameter"
	FieldDistance      = "distance"
	FieldIsHabitable   = "isHabitable"
	FieldDiscoveryYear = "discoveryYear"
	FieldDescription   = "description"
)

// Field rule bounds.
const (
	MinNameLength        = 3
	MinTypeLength        = 2
	MinDescriptionLength = 10
	MinDiscoveryYear     = 1500
)

// FieldError is a single violated rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every violated field rule of a draft.
// Fields keep declaration order.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid space object: " + strings.Join(parts, "; ")
}

// Message returns the message attached to field, if any.
func (e *ValidationError) Message(field string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message, true
		}
	}
	return "", false
}

func (e *ValidationError) add(field, msg string) {
	if _, exists := e.Message(field); exists {
		return
	}
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Validate checks d against the field rules. now bounds the discovery year.
// It returns nil or a *ValidationError.
func Validate(d Draft, now time.Time) error {
	verr := &ValidationError{}
	validateInto(verr, d, now)
	return verr.orNil()
}

func validateInto(verr *ValidationError, d Draft, now time.Time) {
	if utf8.RuneCountInString(d.Name) < MinNameLength {
		verr.add(FieldName, fmt.Sprintf("must be at least %d characters", MinNameLength))
	}
	if utf8.RuneCountInString(d.Type) < MinTypeLength {
		verr.add(FieldType, fmt.Sprintf("must be at least %d characters", MinTypeLength))
	}
	switch {
	case !finite(d.Mass):
		verr.add(FieldMass, msgNotFinite)
	case !(d.Mass > 0):
		verr.add(FieldMass, "must be positive")
	}
	switch {
	case !finite(d.Diameter):
		verr.add(FieldDiameter, msgNotFinite)
	case !(d.Diameter > 0):
		verr.add(FieldDiameter, "must be positive")
	}
	switch {
	case !finite(d.Distance):
		verr.add(FieldDistance, msgNotFinite)
	case !(d.Distance >= 0):
		verr.add(FieldDistance, "must not be negative")
	}
	switch {
	case d.DiscoveryYear < MinDiscoveryYear:
		verr.add(FieldDiscoveryYear, fmt.Sprintf("must be %d or later", MinDiscoveryYear))
	case d.DiscoveryYear > now.Year():
		verr.add(FieldDiscoveryYear, "must not be in the future")
	}
	if utf8.RuneCountInString(d.Description) < MinDescriptionLength {
		verr.add(FieldDescription, fmt.Sprintf("must be at least %d characters", MinDescriptionLength))
	}
}

// ParseDraft builds a draft from raw text input keyed by field name and
// validates it. Values that are not numbers are reported on their field;
// the remaining rules are still checked.
func ParseDraft(values map[string]string, now time.Time) (Draft, error) {
	verr := &ValidationError{}
	d := Draft{
		Name:        values[FieldName],
		Type:        values[FieldType],
		Description: values[FieldDescription],
	}

	d.Mass = parseFloat(verr, FieldMass, values[FieldMass])
	d.Diameter = parseFloat(verr, FieldDiameter, values[FieldDiameter])
	d.Distance = parseFloat(verr, FieldDistance, values[FieldDistance])

	if raw := strings.TrimSpace(values[FieldDiscoveryYear]); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			verr.add(FieldDiscoveryYear, "must be a whole number")
		}
		d.DiscoveryYear = year
	}

	if raw := strings.TrimSpace(values[FieldIsHabitable]); raw != "" {
		habitable, ok := parseBool(raw)
		if !ok {
			verr.add(FieldIsHabitable, "must be yes or no")
		}
		d.IsHabitable = habitable
	}

	validateInto(verr, d, now)
	return d, verr.orNil()
}

func parseFloat(verr *ValidationError, field, raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		verr.add(field, "must be a number")
		return 0
	}
	if !finite(v) {
		verr.add(field, msgNotFinite)
		return 0
	}
	return v
}

// msgNotFinite rejects NaN and infinities, which have no JSON encoding.
const msgNotFinite = "must be a finite number"

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	default:
		return false, false
	}
}
