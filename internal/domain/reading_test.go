package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNPKRatioEqualParts(t *testing.T) {
	r := SensorReading{Nitrogen: 10, Phosphorus: 10, Potassium: 10}

	ratio := r.NPKRatio()
	assert.Equal(t, 33.3, ratio.N)
	assert.Equal(t, 33.3, ratio.P)
	assert.Equal(t, 33.3, ratio.K)
}

func TestNPKRatioZeroSum(t *testing.T) {
	r := SensorReading{}

	ratio := r.NPKRatio()
	assert.Equal(t, NPKRatio{}, ratio)
}

func TestNPKRatioRounding(t *testing.T) {
	r := SensorReading{Nitrogen: 1, Phosphorus: 1, Potassium: 1}

	ratio := r.NPKRatio()
	assert.Equal(t, 33.3, ratio.N)

	r = SensorReading{Nitrogen: 50, Phosphorus: 25, Potassium: 25}
	ratio = r.NPKRatio()
	assert.Equal(t, 50.0, ratio.N)
	assert.Equal(t, 25.0, ratio.P)
	assert.Equal(t, 25.0, ratio.K)
}

func TestSoilHealthClassification(t *testing.T) {
	tests := []struct {
		name     string
		reading  SensorReading
		ph       PHStatus
		moisture MoistureLevel
		overall  HealthRating
	}{
		{
			name: "optimal everything",
			reading: SensorReading{
				Nitrogen: 33, Phosphorus: 33, Potassium: 34,
				PH: 6.5, Moisture: 30, SoilTemperature: 20,
			},
			ph:       PHNeutral,
			moisture: MoistureModerate,
			overall:  HealthExcellent,
		},
		{
			name: "acidic and dry",
			reading: SensorReading{
				Nitrogen: 80, Phosphorus: 5, Potassium: 5,
				PH: 4.5, Moisture: 10, SoilTemperature: 5,
			},
			ph:       PHAcidic,
			moisture: MoistureDry,
			overall:  HealthPoor,
		},
		{
			name: "alkaline and wet",
			reading: SensorReading{
				Nitrogen: 30, Phosphorus: 28, Potassium: 32,
				PH: 8.0, Moisture: 44, SoilTemperature: 21,
			},
			ph:       PHAlkaline,
			moisture: MoistureWet,
			overall:  HealthGood,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := tt.reading.SoilHealthStatus()
			assert.Equal(t, tt.ph, health.PHStatus)
			assert.Equal(t, tt.moisture, health.MoistureLevel)
			assert.Equal(t, tt.overall, health.Overall)
		})
	}
}

func TestSoilHealthScoreBands(t *testing.T) {
	// Each band at its optimum contributes 25 points.
	optimal := SensorReading{
		Nitrogen: 33, Phosphorus: 33, Potassium: 34,
		PH: 6.5, Moisture: 30, SoilTemperature: 20,
	}
	assert.Equal(t, 100, optimal.SoilHealthStatus().Score)

	// All-zero NPK gives the unbalanced minimum, not a division error.
	zeroNPK := SensorReading{PH: 6.5, Moisture: 30, SoilTemperature: 20}
	health := zeroNPK.SoilHealthStatus()
	assert.Equal(t, 80, health.Score)
	assert.Equal(t, HealthGood, health.Overall)
}

func TestRecommendationsInRange(t *testing.T) {
	r := SensorReading{
		Nitrogen: 40, Phosphorus: 30, Potassium: 40,
		PH: 6.5, Moisture: 30, SoilTemperature: 20,
	}
	assert.Empty(t, r.Recommendations())
}

func TestRecommendationsFixedOrder(t *testing.T) {
	r := SensorReading{
		Nitrogen: 10, Phosphorus: 10, Potassium: 10,
		PH: 5.0, Moisture: 10, SoilTemperature: 5,
	}

	recs := r.Recommendations()
	assert.Len(t, recs, 6)
	assert.Contains(t, recs[0], "raise soil pH")
	assert.Contains(t, recs[1], "Nitrogen is low")
	assert.Contains(t, recs[2], "Phosphorus is low")
	assert.Contains(t, recs[3], "Potassium is low")
	assert.Contains(t, recs[4], "Soil is dry")
	assert.Contains(t, recs[5], "temperature is low")
}

func TestRecommendationsHighSide(t *testing.T) {
	r := SensorReading{
		Nitrogen: 40, Phosphorus: 30, Potassium: 40,
		PH: 8.0, Moisture: 50, SoilTemperature: 35,
	}

	recs := r.Recommendations()
	assert.Len(t, recs, 3)
	assert.Contains(t, recs[0], "lower soil pH")
	assert.Contains(t, recs[1], "Soil is wet")
	assert.Contains(t, recs[2], "temperature is high")
}
