// Package sqlite provides a SQLite implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/soillog/soillog-go/internal/domain"
	"github.com/soillog/soillog-go/internal/storage"

	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sqlx.DB
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore() (*Store, error) {
	return newStore(":memory:")
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

// newStore opens the database and ensures the schema exists. On schema
// creation failure the open handle is returned together with a
// *storage.SchemaInitError so the caller can choose to proceed.
func newStore(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection only: the schema is single-writer and a pooled
	// second connection would see a distinct ":memory:" database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		slog.Error("schema_init_failed", "dsn", dsn, "error", err)
		return store, err
	}
	return store, nil
}

// ensureSchema creates the application tables exactly once. A database that
// already holds any of them is left untouched.
func (s *Store) ensureSchema(ctx context.Context) error {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('Device', 'Session', 'Processed_Sensor_Data')
	`)
	if err != nil {
		return &storage.SchemaInitError{Err: fmt.Errorf("failed to probe schema: %w", err)}
	}
	if count > 0 {
		slog.Debug("schema_already_initialized", "table_count", count)
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &storage.SchemaInitError{Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return &storage.SchemaInitError{Err: fmt.Errorf("failed to create tables: %w", err)}
	}
	if err := tx.Commit(); err != nil {
		return &storage.SchemaInitError{Err: err}
	}

	slog.Info("schema_created")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Device methods

func (s *Store) InsertDevice(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO Device (device_name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert device: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get device id: %w", err)
	}
	slog.Info("device_created", "device_id", id, "device_name", name)
	return id, nil
}

func (s *Store) GetDevices(ctx context.Context) ([]domain.Device, error) {
	var devices []domain.Device
	err := s.db.SelectContext(ctx, &devices, `
		SELECT device_id, device_name FROM Device ORDER BY device_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// Session methods

const insertNamedSessionSQL = `
	INSERT INTO Session (session_name, timestamp_start, timestamp_end, location, device_id)
	VALUES (?, ?, ?, ?, ?)
`

const insertUnnamedSessionSQL = `
	INSERT INTO Session (timestamp_start, timestamp_end, location, device_id)
	VALUES (?, ?, ?, ?)
`

// insertSessionOn runs the session insert on a transaction or the bare
// connection. An empty name takes the two-step path: the generated label
// depends on the generated key.
func insertSessionOn(ctx context.Context, q sqlx.ExtContext, sess domain.Session) (int64, error) {
	if sess.Name != "" {
		res, err := q.ExecContext(ctx, insertNamedSessionSQL,
			sess.Name, sess.Start, sess.End, sess.Location, sess.DeviceID)
		if err != nil {
			return 0, fmt.Errorf("failed to insert session: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get session id: %w", err)
		}
		return id, nil
	}

	res, err := q.ExecContext(ctx, insertUnnamedSessionSQL,
		sess.Start, sess.End, sess.Location, sess.DeviceID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session id: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE Session SET session_name = ? WHERE session_id = ?`,
		fmt.Sprintf("Log %d", id), id); err != nil {
		return 0, fmt.Errorf("failed to assign default session name: %w", err)
	}
	return id, nil
}

func (s *Store) InsertSession(ctx context.Context, start, end, location string, deviceID int64, name string) (int64, error) {
	sess := domain.Session{Name: name, Start: start, End: end, Location: location, DeviceID: deviceID}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertSessionOn(ctx, tx, sess)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session insert: %w", err)
	}

	slog.Info("session_created", "session_id", id, "device_id", deviceID)
	return id, nil
}

// UpdateSession applies a partial update built from the non-nil fields of
// the update set. An empty update executes no query and reports zero
// changes. Returns the number of changed rows.
func (s *Store) UpdateSession(ctx context.Context, id int64, update storage.SessionUpdate) (int64, error) {
	if update.Empty() {
		slog.Debug("session_update_empty", "session_id", id)
		return 0, nil
	}

	var clauses []string
	var args []any
	if update.Name != nil {
		clauses = append(clauses, "session_name = ?")
		args = append(args, *update.Name)
	}
	if update.Start != nil {
		clauses = append(clauses, "timestamp_start = ?")
		args = append(args, *update.Start)
	}
	if update.End != nil {
		clauses = append(clauses, "timestamp_end = ?")
		args = append(args, *update.End)
	}
	if update.Location != nil {
		clauses = append(clauses, "location = ?")
		args = append(args, *update.Location)
	}
	if update.DeviceID != nil {
		clauses = append(clauses, "device_id = ?")
		args = append(args, *update.DeviceID)
	}
	args = append(args, id)

	query := "UPDATE Session SET " + strings.Join(clauses, ", ") + " WHERE session_id = ?"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("session_update_failed", "session_id", id, "error", err)
		return 0, fmt.Errorf("failed to update session %d: %w", id, err)
	}
	changes, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	slog.Info("session_updated", "session_id", id, "changes", changes)
	return changes, nil
}

const selectSessionColumns = `
	SELECT session_id, session_name, timestamp_start, timestamp_end, location, device_id
	FROM Session
`

func (s *Store) GetAllSessions(ctx context.Context) ([]domain.Session, error) {
	var sessions []domain.Session
	err := s.db.SelectContext(ctx, &sessions, selectSessionColumns+` ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// GetSessionsByTimeframe returns sessions fully contained in the inclusive
// [start, end] range, ordered by start time.
func (s *Store) GetSessionsByTimeframe(ctx context.Context, start, end string) ([]domain.Session, error) {
	var sessions []domain.Session
	err := s.db.SelectContext(ctx, &sessions, selectSessionColumns+`
		WHERE timestamp_start >= ? AND timestamp_end <= ?
		ORDER BY timestamp_start
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions by timeframe: %w", err)
	}
	return sessions, nil
}

// Sensor reading methods

const insertReadingSQL = `
	INSERT INTO Processed_Sensor_Data (
		session_id, nitrogen, phosphorus, potassium, pH,
		moisture, humidity, soil_temperature, air_temperature
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectReadingColumns = `
	SELECT data_id, session_id, nitrogen, phosphorus, potassium, pH,
	       moisture, humidity, soil_temperature, air_temperature
	FROM Processed_Sensor_Data
`

func (s *Store) InsertSensorReading(ctx context.Context, r domain.SensorReading) error {
	_, err := s.db.ExecContext(ctx, insertReadingSQL,
		r.SessionID, r.Nitrogen, r.Phosphorus, r.Potassium, r.PH,
		r.Moisture, r.Humidity, r.SoilTemperature, r.AirTemperature)
	if err != nil {
		return fmt.Errorf("failed to insert sensor reading: %w", err)
	}
	return nil
}

func (s *Store) GetAllSensorReadings(ctx context.Context) ([]domain.SensorReading, error) {
	var readings []domain.SensorReading
	err := s.db.SelectContext(ctx, &readings, selectReadingColumns+` ORDER BY data_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensor readings: %w", err)
	}
	return readings, nil
}

// GetSessionReadings returns the session together with its ordered readings.
// An unknown session id yields an empty result, not an error.
func (s *Store) GetSessionReadings(ctx context.Context, sessionID int64) (storage.SessionReadings, error) {
	var sess domain.Session
	err := s.db.GetContext(ctx, &sess, selectSessionColumns+` WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Info("session_not_found", "session_id", sessionID)
		return storage.SessionReadings{Readings: []domain.SensorReading{}}, nil
	}
	if err != nil {
		return storage.SessionReadings{}, fmt.Errorf("failed to query session %d: %w", sessionID, err)
	}

	readings, err := s.sessionReadings(ctx, sessionID)
	if err != nil {
		return storage.SessionReadings{}, err
	}
	return storage.SessionReadings{Session: &sess, Readings: readings}, nil
}

func (s *Store) sessionReadings(ctx context.Context, sessionID int64) ([]domain.SensorReading, error) {
	readings := []domain.SensorReading{}
	err := s.db.SelectContext(ctx, &readings, selectReadingColumns+`
		WHERE session_id = ? ORDER BY data_id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings for session %d: %w", sessionID, err)
	}
	return readings, nil
}

// Aggregation

// GetCompleteSession joins the session with its device and computes the
// per-field arithmetic means over the ordered reading set in a single pass.
// Returns nil when the session does not exist.
func (s *Store) GetCompleteSession(ctx context.Context, sessionID int64) (*storage.CompleteSession, error) {
	var row struct {
		domain.Session
		DeviceName string `db:"device_name"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT s.session_id, s.session_name, s.timestamp_start, s.timestamp_end,
		       s.location, s.device_id, d.device_name
		FROM Session s
		JOIN Device d ON s.device_id = d.device_id
		WHERE s.session_id = ?
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Info("session_not_found", "session_id", sessionID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session %d: %w", sessionID, err)
	}

	readings, err := s.sessionReadings(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stats := storage.SessionStats{ReadingsCount: len(readings)}
	if n := len(readings); n > 0 {
		var sum storage.Averages
		for _, r := range readings {
			sum.Nitrogen += r.Nitrogen
			sum.Phosphorus += r.Phosphorus
			sum.Potassium += r.Potassium
			sum.PH += r.PH
			sum.Moisture += r.Moisture
			sum.Humidity += r.Humidity
			sum.SoilTemperature += r.SoilTemperature
			sum.AirTemperature += r.AirTemperature
		}
		count := float64(n)
		stats.Averages = storage.Averages{
			Nitrogen:        sum.Nitrogen / count,
			Phosphorus:      sum.Phosphorus / count,
			Potassium:       sum.Potassium / count,
			PH:              sum.PH / count,
			Moisture:        sum.Moisture / count,
			Humidity:        sum.Humidity / count,
			SoilTemperature: sum.SoilTemperature / count,
			AirTemperature:  sum.AirTemperature / count,
		}
	}

	return &storage.CompleteSession{
		Session:  row.Session,
		Device:   domain.Device{ID: row.Session.DeviceID, Name: row.DeviceName},
		Stats:    stats,
		Readings: readings,
	}, nil
}

// Deletes

// DeleteSession removes a session and all of its readings in one
// transaction, children first.
func (s *Store) DeleteSession(ctx context.Context, id int64) (storage.DeleteResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := deleteSessionOn(ctx, tx, id)
	if err != nil {
		slog.Error("session_delete_failed", "session_id", id, "error", err)
		return storage.DeleteResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return storage.DeleteResult{}, fmt.Errorf("failed to commit delete: %w", err)
	}

	slog.Info("session_deleted", "session_id", id,
		"sessions_deleted", result.SessionsDeleted, "readings_deleted", result.ReadingsDeleted)
	return result, nil
}

// DeleteSessions removes a batch of sessions in a single transaction.
// Any per-id failure rolls back the entire batch.
func (s *Store) DeleteSessions(ctx context.Context, ids []int64) (storage.DeleteResult, error) {
	if len(ids) == 0 {
		return storage.DeleteResult{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total storage.DeleteResult
	for _, id := range ids {
		result, err := deleteSessionOn(ctx, tx, id)
		if err != nil {
			slog.Error("batch_delete_failed", "session_id", id, "error", err)
			return storage.DeleteResult{}, err
		}
		total.SessionsDeleted += result.SessionsDeleted
		total.ReadingsDeleted += result.ReadingsDeleted
	}
	if err := tx.Commit(); err != nil {
		return storage.DeleteResult{}, fmt.Errorf("failed to commit batch delete: %w", err)
	}

	slog.Info("sessions_deleted", "count", len(ids),
		"sessions_deleted", total.SessionsDeleted, "readings_deleted", total.ReadingsDeleted)
	return total, nil
}

func deleteSessionOn(ctx context.Context, tx *sqlx.Tx, id int64) (storage.DeleteResult, error) {
	readingsRes, err := tx.ExecContext(ctx,
		`DELETE FROM Processed_Sensor_Data WHERE session_id = ?`, id)
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("failed to delete readings for session %d: %w", id, err)
	}
	readingsDeleted, err := readingsRes.RowsAffected()
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	sessionRes, err := tx.ExecContext(ctx, `DELETE FROM Session WHERE session_id = ?`, id)
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("failed to delete session %d: %w", id, err)
	}
	sessionsDeleted, err := sessionRes.RowsAffected()
	if err != nil {
		return storage.DeleteResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return storage.DeleteResult{
		SessionsDeleted: sessionsDeleted,
		ReadingsDeleted: readingsDeleted,
	}, nil
}

// Import

// ImportSession inserts the session and all readings in one transaction,
// preserving input order. Readings are bound to the generated session id.
func (s *Store) ImportSession(ctx context.Context, session domain.Session, readings []domain.SensorReading) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertSessionOn(ctx, tx, session)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PreparexContext(ctx, insertReadingSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare reading insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.ExecContext(ctx,
			id, r.Nitrogen, r.Phosphorus, r.Potassium, r.PH,
			r.Moisture, r.Humidity, r.SoilTemperature, r.AirTemperature); err != nil {
			return 0, fmt.Errorf("failed to insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	slog.Info("session_imported", "session_id", id, "readings", len(readings))
	return id, nil
}

// Maintenance

// ClearTable removes all rows from the named table and resets its
// auto-increment counter.
func (s *Store) ClearTable(ctx context.Context, table storage.Table) error {
	switch table {
	case storage.TableDevice, storage.TableSession, storage.TableSensorData:
	default:
		return fmt.Errorf("unknown table: %q", table)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+string(table)); err != nil {
		return fmt.Errorf("failed to clear table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = ?`, string(table)); err != nil {
		return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	slog.Info("table_cleared", "table", string(table))
	return nil
}

// DropAllTables drops the application schema, children first, with foreign
// key enforcement suspended for the duration.
func (s *Store) DropAllTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return fmt.Errorf("failed to disable foreign keys: %w", err)
	}
	defer s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON`)

	for _, table := range []string{"Processed_Sensor_Data", "Session", "Device"} {
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	slog.Info("tables_dropped")
	return nil
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)
