package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/soillog/soillog-go/internal/domain"
)

// Fixed window of the embedded dataset, epoch seconds.
const (
	fixtureStartEpoch = 1747015860
	fixtureEndEpoch   = 1747018800
)

// FixtureLocation is the location recorded for fixture sessions.
const FixtureLocation = "CSV Test Location"

// fixtureCSV is a captured one-reading-per-minute logging run used to seed
// a database with realistic data.
const fixtureCSV = `Timestamp,Moisture,Humidity,SoilTemp,AirTemp,pH,Nitrogen,Phosphorus,Potassium
1747015860,29.0,48.59,20.81,23.24,5.51,49.94,30.03,39.45
1747015920,29.19,50.07,20.55,22.74,5.53,49.64,29.66,38.51
1747015980,28.1,49.5,20.89,22.35,6.06,49.23,30.76,39.84
1747016040,28.02,49.21,20.81,23.06,7.0,48.83,31.57,40.69
1747016100,28.24,49.24,20.48,23.12,7.02,47.63,31.27,41.71
1747016160,29.61,48.93,21.07,24.24,6.65,47.21,31.0,41.46
1747016220,29.55,49.44,22.42,24.92,7.5,47.35,31.58,41.27
1747016280,30.72,50.14,23.66,23.86,6.6,46.91,31.66,40.76
1747016340,30.38,50.35,24.29,23.43,6.36,45.83,32.32,39.55
1747016400,31.09,50.44,22.89,23.82,6.82,46.51,31.18,40.04
1747016460,29.95,49.38,24.36,23.38,7.5,45.37,30.26,40.14
1747016520,31.14,47.99,25.51,24.61,7.5,46.65,31.08,41.01
1747016580,30.52,48.02,25.92,23.16,7.5,46.5,30.11,39.54
1747016640,29.56,49.07,27.18,24.05,7.5,46.42,29.06,40.2
1747016700,30.38,47.79,27.03,23.81,7.5,46.64,28.96,41.67
1747016760,29.91,46.62,26.06,24.93,6.11,47.35,27.97,40.24
1747016820,30.64,45.52,25.83,23.49,5.5,46.34,26.81,39.19
1747016880,31.92,46.87,27.13,24.44,6.64,45.15,28.13,39.34
1747016940,31.21,46.02,26.26,23.05,5.67,44.8,29.47,38.53
1747017000,32.26,46.07,26.6,24.37,6.01,44.76,29.11,38.25
1747017060,32.06,45.49,25.78,25.37,5.81,44.32,30.11,39.6
1747017120,33.02,45.17,26.75,25.55,7.18,43.7,30.9,39.34
1747017180,33.49,45.7,26.06,25.44,7.48,44.02,32.12,40.63
1747017240,32.71,44.36,26.16,25.17,7.5,45.24,31.52,40.11
1747017300,33.88,45.78,26.51,25.77,7.5,44.52,31.63,41.21
1747017360,33.11,45.98,26.8,25.45,7.5,43.9,31.53,40.39
1747017420,33.36,44.86,26.58,26.05,7.4,42.71,32.55,39.59
1747017480,33.6,44.37,25.18,26.73,7.5,44.11,33.7,40.38
1747017540,34.53,43.63,26.58,25.91,7.5,44.23,33.36,39.11
1747017600,35.32,42.85,27.42,25.16,7.5,42.85,32.42,40.22
1747017660,35.32,43.82,28.83,24.94,7.27,43.64,33.38,40.4
1747017720,34.09,42.47,27.54,25.73,6.17,42.84,34.19,40.28
1747017780,34.62,43.87,27.8,26.36,5.88,42.97,34.51,41.54
1747017840,35.19,42.4,27.17,25.46,6.18,42.36,34.14,41.56
1747017900,35.4,42.87,28.09,24.15,6.44,41.95,32.8,41.31
1747017960,35.9,41.6,29.51,25.5,5.55,43.22,32.07,42.56
1747018020,36.8,41.54,30.86,25.49,5.5,43.74,32.03,43.75
1747018080,36.56,41.12,30.14,26.04,6.14,44.08,32.99,43.95
1747018140,35.91,40.13,29.98,26.85,6.38,42.96,32.79,44.18
1747018200,34.66,40.6,29.39,25.51,5.5,42.34,34.21,44.74
1747018260,35.45,41.14,29.95,24.12,5.6,42.64,33.12,45.7
1747018320,34.55,41.39,30.37,24.01,5.79,43.86,33.63,45.06
1747018380,35.43,42.16,31.1,25.07,5.5,43.32,34.28,46.42
1747018440,35.27,41.85,32.02,25.01,6.19,43.74,34.92,47.18
1747018500,35.31,41.57,30.77,23.55,5.5,43.66,34.91,47.98
1747018560,34.25,41.12,30.18,22.47,6.61,44.24,33.49,47.53
1747018620,33.65,41.79,29.35,23.19,7.5,44.13,32.42,46.17
1747018680,33.89,41.77,30.66,23.41,7.5,45.18,31.16,46.29
1747018740,34.92,41.68,29.77,22.62,7.11,44.71,31.3,44.88
1747018800,34.94,41.89,30.53,21.15,7.45,45.13,30.48,45.26`

// ImportFixture parses the embedded CSV dataset and imports it as one
// session. Unlike the device path, parsing here is strict: any malformed
// row aborts the import and the transaction rolls back entirely.
func (ing *Ingestor) ImportFixture(ctx context.Context) (int64, error) {
	reader := csv.NewReader(strings.NewReader(fixtureCSV))
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to parse fixture csv: %w", err)
	}
	if len(records) < 2 {
		return 0, fmt.Errorf("fixture csv has no data rows")
	}

	// Columns: Timestamp,Moisture,Humidity,SoilTemp,AirTemp,pH,Nitrogen,Phosphorus,Potassium
	readings := make([]domain.SensorReading, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 9 {
			return 0, fmt.Errorf("fixture row %d: expected 9 columns, got %d", i+1, len(record))
		}
		values := make([]float64, 8)
		for j, raw := range record[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return 0, fmt.Errorf("fixture row %d: bad value %q: %w", i+1, raw, err)
			}
			values[j] = v
		}
		readings = append(readings, domain.SensorReading{
			Moisture:        values[0],
			Humidity:        values[1],
			SoilTemperature: values[2],
			AirTemperature:  values[3],
			PH:              values[4],
			Nitrogen:        values[5],
			Phosphorus:      values[6],
			Potassium:       values[7],
		})
	}

	deviceID, err := ing.ensureDevice(ctx)
	if err != nil {
		return 0, err
	}

	session := domain.Session{
		Start:    time.Unix(fixtureStartEpoch, 0).UTC().Format(domain.TimestampLayout),
		End:      time.Unix(fixtureEndEpoch, 0).UTC().Format(domain.TimestampLayout),
		Location: FixtureLocation,
		DeviceID: deviceID,
	}

	id, err := ing.store.ImportSession(ctx, session, readings)
	if err != nil {
		return 0, fmt.Errorf("failed to import fixture: %w", err)
	}

	slog.Info("fixture_imported", "session_id", id, "readings", len(readings))
	ing.notify()
	return id, nil
}
