package domain

import "math"

// SensorReading is one measurement tuple belonging to a session. Readings
// carry no timestamp of their own; the ascending data_id encodes temporal
// order.
type SensorReading struct {
	ID              int64   `json:"data_id" db:"data_id"`
	SessionID       int64   `json:"session_id" db:"session_id"`
	Nitrogen        float64 `json:"nitrogen" db:"nitrogen"`
	Phosphorus      float64 `json:"phosphorus" db:"phosphorus"`
	Potassium       float64 `json:"potassium" db:"potassium"`
	PH              float64 `json:"pH" db:"pH"`
	Moisture        float64 `json:"moisture" db:"moisture"`
	Humidity        float64 `json:"humidity" db:"humidity"`
	SoilTemperature float64 `json:"soil_temperature" db:"soil_temperature"`
	AirTemperature  float64 `json:"air_temperature" db:"air_temperature"`
}

// NPKRatio is the relative percentage composition of nitrogen, phosphorus
// and potassium in a reading, rounded to one decimal.
type NPKRatio struct {
	N float64 `json:"n"`
	P float64 `json:"p"`
	K float64 `json:"k"`
}

// PHStatus classifies soil acidity.
type PHStatus string

const (
	PHAcidic   PHStatus = "acidic"
	PHNeutral  PHStatus = "neutral"
	PHAlkaline PHStatus = "alkaline"
)

// MoistureLevel classifies soil moisture.
type MoistureLevel string

const (
	MoistureDry      MoistureLevel = "dry"
	MoistureModerate MoistureLevel = "moderate"
	MoistureWet      MoistureLevel = "wet"
)

// HealthRating maps the composite 0-100 score to a coarse rating.
type HealthRating string

const (
	HealthPoor      HealthRating = "poor"
	HealthFair      HealthRating = "fair"
	HealthGood      HealthRating = "good"
	HealthExcellent HealthRating = "excellent"
)

// Classification thresholds.
const (
	PHAcidicBelow    = 6.0
	PHAlkalineAbove  = 7.5
	MoistureDryBelow = 20.0
	MoistureWetAbove = 40.0
)

// SoilHealth is the derived health assessment for a single reading.
type SoilHealth struct {
	PHStatus      PHStatus      `json:"ph_status"`
	MoistureLevel MoistureLevel `json:"moisture_level"`
	Score         int           `json:"score"`
	Overall       HealthRating  `json:"overall"`
}

// NPKRatio returns each of N/P/K as a percentage of their sum. A reading
// whose N+P+K sums to zero yields an all-zero ratio.
func (r *SensorReading) NPKRatio() NPKRatio {
	total := r.Nitrogen + r.Phosphorus + r.Potassium
	if total == 0 {
		return NPKRatio{}
	}
	return NPKRatio{
		N: round1(r.Nitrogen / total * 100),
		P: round1(r.Phosphorus / total * 100),
		K: round1(r.Potassium / total * 100),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// SoilHealthStatus classifies pH and moisture and computes a composite
// 0-100 health score from four bands (pH, NPK balance, moisture, soil
// temperature), each contributing up to 25 points.
func (r *SensorReading) SoilHealthStatus() SoilHealth {
	var health SoilHealth

	switch {
	case r.PH < PHAcidicBelow:
		health.PHStatus = PHAcidic
	case r.PH > PHAlkalineAbove:
		health.PHStatus = PHAlkaline
	default:
		health.PHStatus = PHNeutral
	}

	switch {
	case r.Moisture < MoistureDryBelow:
		health.MoistureLevel = MoistureDry
	case r.Moisture > MoistureWetAbove:
		health.MoistureLevel = MoistureWet
	default:
		health.MoistureLevel = MoistureModerate
	}

	score := 0

	// pH band, optimal 6.0-7.0
	switch {
	case r.PH >= 6.0 && r.PH <= 7.0:
		score += 25
	case r.PH >= 5.5 && r.PH <= 7.5:
		score += 15
	default:
		score += 5
	}

	// NPK balance band, min/max of the ratio triplet
	npk := r.NPKRatio()
	balance := 0.0
	if maxRatio := math.Max(npk.N, math.Max(npk.P, npk.K)); maxRatio > 0 {
		balance = math.Min(npk.N, math.Min(npk.P, npk.K)) / maxRatio
	}
	switch {
	case balance > 0.7:
		score += 25
	case balance > 0.4:
		score += 15
	default:
		score += 5
	}

	// Moisture band, optimal 25-35%
	switch {
	case r.Moisture >= 25 && r.Moisture <= 35:
		score += 25
	case r.Moisture >= 15 && r.Moisture <= 45:
		score += 15
	default:
		score += 5
	}

	// Soil temperature band, optimal 18-24 C
	switch {
	case r.SoilTemperature >= 18 && r.SoilTemperature <= 24:
		score += 25
	case r.SoilTemperature >= 10 && r.SoilTemperature <= 30:
		score += 15
	default:
		score += 5
	}

	health.Score = score
	switch {
	case score >= 85:
		health.Overall = HealthExcellent
	case score >= 65:
		health.Overall = HealthGood
	case score >= 40:
		health.Overall = HealthFair
	default:
		health.Overall = HealthPoor
	}
	return health
}

// Recommendations returns one remediation sentence per out-of-range value,
// in a fixed field order: pH, nitrogen, phosphorus, potassium, moisture,
// soil temperature.
func (r *SensorReading) Recommendations() []string {
	var recs []string

	if r.PH < PHAcidicBelow {
		recs = append(recs, "Consider adding lime or wood ash to raise soil pH.")
	} else if r.PH > PHAlkalineAbove {
		recs = append(recs, "Consider adding sulfur, peat moss, or organic matter to lower soil pH.")
	}

	if r.Nitrogen < 30 {
		recs = append(recs, "Nitrogen is low. Consider adding compost, blood meal, or nitrogen-rich fertilizer.")
	}
	if r.Phosphorus < 20 {
		recs = append(recs, "Phosphorus is low. Consider adding bone meal, rock phosphate, or phosphorus-rich fertilizer.")
	}
	if r.Potassium < 30 {
		recs = append(recs, "Potassium is low. Consider adding wood ash, banana peels, or potassium-rich fertilizer.")
	}

	if r.Moisture < MoistureDryBelow {
		recs = append(recs, "Soil is dry. Increase watering frequency and consider adding organic matter to improve water retention.")
	} else if r.Moisture > MoistureWetAbove {
		recs = append(recs, "Soil is wet. Reduce watering and consider improving drainage.")
	}

	if r.SoilTemperature < 10 {
		recs = append(recs, "Soil temperature is low. Consider using mulch or row covers to warm the soil.")
	} else if r.SoilTemperature > 30 {
		recs = append(recs, "Soil temperature is high. Consider adding mulch to regulate soil temperature.")
	}

	return recs
}
