// Package storage provides storage abstractions for soil logging sessions.
package storage

import (
	"context"

	"github.com/soillog/soillog-go/internal/domain"
)

// Store is the interface for the embedded session database.
type Store interface {
	// Devices
	InsertDevice(ctx context.Context, name string) (int64, error)
	GetDevices(ctx context.Context) ([]domain.Device, error)

	// Sessions. InsertSession with an empty name assigns the generated
	// label "Log <id>" after the row is created.
	InsertSession(ctx context.Context, start, end, location string, deviceID int64, name string) (int64, error)
	UpdateSession(ctx context.Context, id int64, update SessionUpdate) (int64, error)
	GetAllSessions(ctx context.Context) ([]domain.Session, error)
	GetSessionsByTimeframe(ctx context.Context, start, end string) ([]domain.Session, error)
	DeleteSession(ctx context.Context, id int64) (DeleteResult, error)
	DeleteSessions(ctx context.Context, ids []int64) (DeleteResult, error)

	// Sensor readings
	InsertSensorReading(ctx context.Context, reading domain.SensorReading) error
	GetAllSensorReadings(ctx context.Context) ([]domain.SensorReading, error)
	GetSessionReadings(ctx context.Context, sessionID int64) (SessionReadings, error)

	// Aggregation. Returns nil (no error) when the session does not exist.
	GetCompleteSession(ctx context.Context, sessionID int64) (*CompleteSession, error)

	// ImportSession inserts a session and all of its readings in one
	// transaction, preserving reading order. Returns the new session id.
	ImportSession(ctx context.Context, session domain.Session, readings []domain.SensorReading) (int64, error)

	// Maintenance
	ClearTable(ctx context.Context, table Table) error
	DropAllTables(ctx context.Context) error

	// Lifecycle
	Close() error
}

// Table names the application tables for maintenance operations.
type Table string

const (
	TableDevice     Table = "Device"
	TableSession    Table = "Session"
	TableSensorData Table = "Processed_Sensor_Data"
)

// SessionUpdate is an explicit field-update set for partial session updates.
// Only non-nil fields are written.
type SessionUpdate struct {
	Name     *string
	Start    *string
	End      *string
	Location *string
	DeviceID *int64
}

// Empty reports whether the update carries no fields.
func (u SessionUpdate) Empty() bool {
	return u.Name == nil && u.Start == nil && u.End == nil && u.Location == nil && u.DeviceID == nil
}

// DeleteResult reports how many rows a cascading delete removed.
type DeleteResult struct {
	SessionsDeleted int64 `json:"sessions_deleted"`
	ReadingsDeleted int64 `json:"readings_deleted"`
}

// SessionReadings bundles a session with its ordered readings. Session is
// nil and Readings empty when the session id does not exist.
type SessionReadings struct {
	Session  *domain.Session        `json:"session"`
	Readings []domain.SensorReading `json:"readings"`
}

// Averages holds the per-field arithmetic means over a session's readings.
type Averages struct {
	Nitrogen        float64 `json:"nitrogen"`
	Phosphorus      float64 `json:"phosphorus"`
	Potassium       float64 `json:"potassium"`
	PH              float64 `json:"pH"`
	Moisture        float64 `json:"moisture"`
	Humidity        float64 `json:"humidity"`
	SoilTemperature float64 `json:"soil_temperature"`
	AirTemperature  float64 `json:"air_temperature"`
}

// SessionStats summarizes a session's reading set. All averages are zero
// when ReadingsCount is zero.
type SessionStats struct {
	ReadingsCount int      `json:"readingsCount"`
	Averages      Averages `json:"averages"`
}

// CompleteSession is a session joined with its device, summary statistics
// and the raw ordered reading list.
type CompleteSession struct {
	Session  domain.Session         `json:"session"`
	Device   domain.Device          `json:"device"`
	Stats    SessionStats           `json:"stats"`
	Readings []domain.SensorReading `json:"sensorData"`
}

// SchemaInitError reports that schema creation failed. Startup treats it as
// non-fatal: the caller logs a warning and proceeds with the open handle.
// An already-initialized schema is a clean no-op, never a SchemaInitError.
type SchemaInitError struct {
	Err error
}

func (e *SchemaInitError) Error() string {
	return "schema init failed: " + e.Err.Error()
}

func (e *SchemaInitError) Unwrap() error {
	return e.Err
}
