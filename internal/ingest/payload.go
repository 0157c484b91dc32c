package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LogPayload is the JSON document the probe serves for one finished log.
type LogPayload struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Date string       `json:"date"`
	Data []RawReading `json:"data"`
}

// RawReading is one reading from a device payload. Producers are not
// consistent about field-name casing, so decoding resolves every key
// through a fixed alias table instead of relying on struct tags.
type RawReading struct {
	// Offset is the reading's relative timestamp in seconds since the
	// payload's start date.
	Offset          float64
	Nitrogen        float64
	Phosphorus      float64
	Potassium       float64
	PH              float64
	Moisture        float64
	Humidity        float64
	SoilTemperature float64
	AirTemperature  float64
}

// Canonical field names used by the alias table.
const (
	fieldOffset          = "timestamp"
	fieldNitrogen        = "nitrogen"
	fieldPhosphorus      = "phosphorus"
	fieldPotassium       = "potassium"
	fieldPH              = "ph"
	fieldMoisture        = "moisture"
	fieldHumidity        = "humidity"
	fieldSoilTemperature = "soil_temperature"
	fieldAirTemperature  = "air_temperature"
)

// fieldAliases maps every accepted spelling (lowercased) to its canonical
// field. New producer spellings are a data change here, not a code change.
var fieldAliases = map[string]string{
	"timestamp":        fieldOffset,
	"time":             fieldOffset,
	"offset":           fieldOffset,
	"nitrogen":         fieldNitrogen,
	"n":                fieldNitrogen,
	"phosphorus":       fieldPhosphorus,
	"p":                fieldPhosphorus,
	"potassium":        fieldPotassium,
	"k":                fieldPotassium,
	"ph":               fieldPH,
	"moisture":         fieldMoisture,
	"humidity":         fieldHumidity,
	"soiltemp":         fieldSoilTemperature,
	"soil_temp":        fieldSoilTemperature,
	"soil_temperature": fieldSoilTemperature,
	"airtemp":          fieldAirTemperature,
	"air_temp":         fieldAirTemperature,
	"air_temperature":  fieldAirTemperature,
}

// UnmarshalJSON decodes a reading leniently: keys are matched through the
// alias table case-insensitively, unknown keys are ignored, and values that
// are not numeric parse as zero.
func (r *RawReading) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for key, raw := range fields {
		canonical, ok := fieldAliases[strings.ToLower(key)]
		if !ok {
			continue
		}
		value := parseNumber(raw)
		switch canonical {
		case fieldOffset:
			r.Offset = value
		case fieldNitrogen:
			r.Nitrogen = value
		case fieldPhosphorus:
			r.Phosphorus = value
		case fieldPotassium:
			r.Potassium = value
		case fieldPH:
			r.PH = value
		case fieldMoisture:
			r.Moisture = value
		case fieldHumidity:
			r.Humidity = value
		case fieldSoilTemperature:
			r.SoilTemperature = value
		case fieldAirTemperature:
			r.AirTemperature = value
		}
	}
	return nil
}

// parseNumber accepts a JSON number or a numeric string. Anything else is
// zero; a reading with a garbled field still ingests.
func parseNumber(raw json.RawMessage) float64 {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return 0
}
