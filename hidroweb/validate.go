package hidroweb

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ValidateStationCode verifies that the given string is a well-formed station
// code. The agency assigns codes of exactly 8 ASCII digits.
func ValidateStationCode(code string) error {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != 8 {
		return &ValidationError{Field: "station code", Message: "expected exactly 8 digits"}
	}
	for _, char := range trimmed {
		if char < '0' || char > '9' {
			return &ValidationError{Field: "station code", Message: "expected exactly 8 digits"}
		}
	}
	return nil
}

// CleanValue converts a raw measurement string into a float.
// The service mixes decimal commas, empty strings and a handful of textual
// null markers into its value columns; all of those map to (0, false).
func CleanValue(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if cleaned == "" {
		return 0, false
	}
	switch strings.ToLower(cleaned) {
	case "null", "nan", "n/a", "-", "--":
		return 0, false
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// Value represents a possibly absent measurement value.
// It decodes from JSON numbers, numeric strings (including decimal commas),
// textual null markers and JSON null.
type Value struct {
	Float float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (value *Value) UnmarshalJSON(data []byte) error {
	value.Float, value.Valid = 0, false

	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		value.Float, value.Valid = number, true
		return nil
	}

	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	value.Float, value.Valid = CleanValue(*raw)
	return nil
}

// MarshalJSON implements json.Marshaler
func (value Value) MarshalJSON() ([]byte, error) {
	if !value.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(value.Float)
}
