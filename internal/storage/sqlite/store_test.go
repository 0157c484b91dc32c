package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soillog/soillog-go/internal/domain"
	"github.com/soillog/soillog-go/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedDevice(t *testing.T, store *Store) int64 {
	t.Helper()
	id, err := store.InsertDevice(context.Background(), "Test Probe")
	require.NoError(t, err)
	return id
}

func seedSession(t *testing.T, store *Store, deviceID int64, name string) int64 {
	t.Helper()
	id, err := store.InsertSession(context.Background(),
		"2025-05-12T02:11:00Z", "2025-05-12T03:00:00Z", "Field A", deviceID, name)
	require.NoError(t, err)
	return id
}

func seedReading(t *testing.T, store *Store, sessionID int64, nitrogen float64) {
	t.Helper()
	err := store.InsertSensorReading(context.Background(), domain.SensorReading{
		SessionID: sessionID,
		Nitrogen:  nitrogen, Phosphorus: 20, Potassium: 30,
		PH: 6.5, Moisture: 28, Humidity: 45,
		SoilTemperature: 21, AirTemperature: 23,
	})
	require.NoError(t, err)
}

func TestNewMemoryStore(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store)
}

func TestSchemaIdempotent(t *testing.T) {
	path := t.TempDir() + "/test.db"

	store, err := NewFileStore(path)
	require.NoError(t, err)
	deviceID := seedDevice(t, store)
	require.NoError(t, store.Close())

	// Reopening must not recreate or raise; existing rows survive.
	store2, err := NewFileStore(path)
	require.NoError(t, err)
	defer store2.Close()

	devices, err := store2.GetDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, deviceID, devices[0].ID)
}

// Device tests

func TestInsertAndGetDevices(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id1, err := store.InsertDevice(ctx, "Probe 1")
	require.NoError(t, err)
	id2, err := store.InsertDevice(ctx, "Probe 2")
	require.NoError(t, err)

	devices, err := store.GetDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, id1, devices[0].ID)
	assert.Equal(t, "Probe 1", devices[0].Name)
	assert.Equal(t, id2, devices[1].ID)
}

// Session tests

func TestInsertSessionDefaultName(t *testing.T) {
	store := newTestStore(t)
	deviceID := seedDevice(t, store)

	id := seedSession(t, store, deviceID, "")

	sessions, err := store.GetAllSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, fmt.Sprintf("Log %d", id), sessions[0].Name)
}

func TestInsertSessionNamed(t *testing.T) {
	store := newTestStore(t)
	deviceID := seedDevice(t, store)

	seedSession(t, store, deviceID, "Morning run")

	sessions, err := store.GetAllSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Morning run", sessions[0].Name)
	assert.Equal(t, "Field A", sessions[0].Location)
	assert.Equal(t, deviceID, sessions[0].DeviceID)
}

func TestUpdateSessionRenameOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)
	id := seedSession(t, store, deviceID, "Before")

	name := "After"
	changes, err := store.UpdateSession(ctx, id, storage.SessionUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changes)

	sessions, err := store.GetAllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	// Only session_name changed.
	assert.Equal(t, "After", sessions[0].Name)
	assert.Equal(t, "2025-05-12T02:11:00Z", sessions[0].Start)
	assert.Equal(t, "2025-05-12T03:00:00Z", sessions[0].End)
	assert.Equal(t, "Field A", sessions[0].Location)
	assert.Equal(t, deviceID, sessions[0].DeviceID)
}

func TestUpdateSessionEmptyUpdate(t *testing.T) {
	store := newTestStore(t)
	deviceID := seedDevice(t, store)
	id := seedSession(t, store, deviceID, "Kept")

	changes, err := store.UpdateSession(context.Background(), id, storage.SessionUpdate{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), changes)
}

func TestUpdateSessionUnknownID(t *testing.T) {
	store := newTestStore(t)

	name := "Nobody"
	changes, err := store.UpdateSession(context.Background(), 999, storage.SessionUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(0), changes)
}

func TestGetSessionsByTimeframe(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)

	insert := func(start, end string) {
		_, err := store.InsertSession(ctx, start, end, "", deviceID, "")
		require.NoError(t, err)
	}
	insert("2025-05-12T10:00:00Z", "2025-05-12T11:00:00Z")
	insert("2025-05-12T08:00:00Z", "2025-05-12T09:00:00Z")
	insert("2025-05-13T08:00:00Z", "2025-05-13T09:00:00Z") // outside

	sessions, err := store.GetSessionsByTimeframe(ctx,
		"2025-05-12T08:00:00Z", "2025-05-12T11:00:00Z")
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Inclusive bounds, ordered by start time.
	assert.Equal(t, "2025-05-12T08:00:00Z", sessions[0].Start)
	assert.Equal(t, "2025-05-12T10:00:00Z", sessions[1].Start)
}

// Reading tests

func TestGetSessionReadingsOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)
	id := seedSession(t, store, deviceID, "")

	seedReading(t, store, id, 10)
	seedReading(t, store, id, 20)
	seedReading(t, store, id, 30)

	result, err := store.GetSessionReadings(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, result.Session)
	require.Len(t, result.Readings, 3)

	// Insertion order preserved via ascending data_id.
	assert.Equal(t, 10.0, result.Readings[0].Nitrogen)
	assert.Equal(t, 20.0, result.Readings[1].Nitrogen)
	assert.Equal(t, 30.0, result.Readings[2].Nitrogen)
	assert.Less(t, result.Readings[0].ID, result.Readings[1].ID)
	assert.Less(t, result.Readings[1].ID, result.Readings[2].ID)
}

func TestGetSessionReadingsUnknownID(t *testing.T) {
	store := newTestStore(t)

	result, err := store.GetSessionReadings(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, result.Session)
	assert.Empty(t, result.Readings)
}

func TestGetAllSensorReadings(t *testing.T) {
	store := newTestStore(t)
	deviceID := seedDevice(t, store)
	id := seedSession(t, store, deviceID, "")
	seedReading(t, store, id, 10)
	seedReading(t, store, id, 20)

	readings, err := store.GetAllSensorReadings(context.Background())
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

// Aggregation tests

func TestGetCompleteSessionAverages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)
	id := seedSession(t, store, deviceID, "Averaged")

	require.NoError(t, store.InsertSensorReading(ctx, domain.SensorReading{
		SessionID: id,
		Nitrogen:  10, Phosphorus: 20, Potassium: 30,
		PH: 6.0, Moisture: 20, Humidity: 40,
		SoilTemperature: 18, AirTemperature: 22,
	}))
	require.NoError(t, store.InsertSensorReading(ctx, domain.SensorReading{
		SessionID: id,
		Nitrogen:  20, Phosphorus: 40, Potassium: 50,
		PH: 7.0, Moisture: 30, Humidity: 50,
		SoilTemperature: 22, AirTemperature: 24,
	}))

	complete, err := store.GetCompleteSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, complete)

	assert.Equal(t, "Averaged", complete.Session.Name)
	assert.Equal(t, "Test Probe", complete.Device.Name)
	assert.Equal(t, deviceID, complete.Device.ID)
	assert.Equal(t, 2, complete.Stats.ReadingsCount)
	assert.Len(t, complete.Readings, 2)

	avg := complete.Stats.Averages
	assert.InDelta(t, 15.0, avg.Nitrogen, 1e-9)
	assert.InDelta(t, 30.0, avg.Phosphorus, 1e-9)
	assert.InDelta(t, 40.0, avg.Potassium, 1e-9)
	assert.InDelta(t, 6.5, avg.PH, 1e-9)
	assert.InDelta(t, 25.0, avg.Moisture, 1e-9)
	assert.InDelta(t, 45.0, avg.Humidity, 1e-9)
	assert.InDelta(t, 20.0, avg.SoilTemperature, 1e-9)
	assert.InDelta(t, 23.0, avg.AirTemperature, 1e-9)
}

func TestGetCompleteSessionNoReadings(t *testing.T) {
	store := newTestStore(t)
	deviceID := seedDevice(t, store)
	id := seedSession(t, store, deviceID, "")

	complete, err := store.GetCompleteSession(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, complete)

	assert.Equal(t, 0, complete.Stats.ReadingsCount)
	assert.Equal(t, storage.Averages{}, complete.Stats.Averages)
	assert.Empty(t, complete.Readings)
}

func TestGetCompleteSessionUnknownID(t *testing.T) {
	store := newTestStore(t)

	complete, err := store.GetCompleteSession(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, complete)
}

// Delete tests

func TestDeleteSessionCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)
	target := seedSession(t, store, deviceID, "doomed")
	other := seedSession(t, store, deviceID, "survivor")

	seedReading(t, store, target, 1)
	seedReading(t, store, target, 2)
	seedReading(t, store, target, 3)
	seedReading(t, store, other, 4)

	result, err := store.DeleteSession(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.SessionsDeleted)
	assert.Equal(t, int64(3), result.ReadingsDeleted)

	gone, err := store.GetSessionReadings(ctx, target)
	require.NoError(t, err)
	assert.Nil(t, gone.Session)

	kept, err := store.GetSessionReadings(ctx, other)
	require.NoError(t, err)
	require.NotNil(t, kept.Session)
	assert.Len(t, kept.Readings, 1)
}

func TestDeleteSessionsBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)
	a := seedSession(t, store, deviceID, "")
	b := seedSession(t, store, deviceID, "")
	seedReading(t, store, a, 1)
	seedReading(t, store, b, 2)
	seedReading(t, store, b, 3)

	result, err := store.DeleteSessions(ctx, []int64{a, b})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.SessionsDeleted)
	assert.Equal(t, int64(3), result.ReadingsDeleted)

	sessions, err := store.GetAllSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDeleteSessionsEmptyBatch(t *testing.T) {
	store := newTestStore(t)

	result, err := store.DeleteSessions(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, storage.DeleteResult{}, result)
}

func TestDeleteSessionsAllOrNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)
	a := seedSession(t, store, deviceID, "")
	b := seedSession(t, store, deviceID, "")
	seedReading(t, store, a, 1)
	seedReading(t, store, b, 2)

	// Force the second delete to fail mid-batch.
	_, err := store.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TRIGGER block_delete BEFORE DELETE ON Session
		WHEN OLD.session_id = %d
		BEGIN
			SELECT RAISE(ABORT, 'delete blocked');
		END
	`, b))
	require.NoError(t, err)

	_, err = store.DeleteSessions(ctx, []int64{a, b})
	require.Error(t, err)

	// The whole batch rolled back: both sessions and all readings remain.
	sessions, err := store.GetAllSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	readings, err := store.GetAllSensorReadings(ctx)
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

// Import tests

func TestImportSessionTransactional(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)

	readings := []domain.SensorReading{
		{Nitrogen: 1}, {Nitrogen: 2}, {Nitrogen: 3},
	}
	id, err := store.ImportSession(ctx, domain.Session{
		Start:    "2025-05-12T02:11:00Z",
		End:      "2025-05-12T03:00:00Z",
		Location: "N/A",
		DeviceID: deviceID,
	}, readings)
	require.NoError(t, err)

	result, err := store.GetSessionReadings(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, result.Session)

	// Default label applied inside the import transaction.
	assert.Equal(t, fmt.Sprintf("Log %d", id), result.Session.Name)

	require.Len(t, result.Readings, 3)
	for i, r := range result.Readings {
		assert.Equal(t, float64(i+1), r.Nitrogen)
		assert.Equal(t, id, r.SessionID)
	}
}

func TestImportSessionRollsBackOnFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)

	// Force the third reading insert to fail mid-import.
	_, err := store.db.ExecContext(ctx, `
		CREATE TRIGGER block_insert BEFORE INSERT ON Processed_Sensor_Data
		WHEN NEW.nitrogen = 3
		BEGIN
			SELECT RAISE(ABORT, 'insert blocked');
		END
	`)
	require.NoError(t, err)

	_, err = store.ImportSession(ctx, domain.Session{
		Start:    "2025-05-12T02:11:00Z",
		End:      "2025-05-12T03:00:00Z",
		DeviceID: deviceID,
	}, []domain.SensorReading{
		{Nitrogen: 1}, {Nitrogen: 2}, {Nitrogen: 3},
	})
	require.Error(t, err)

	// The whole import rolled back: no session and no readings survive.
	sessions, err := store.GetAllSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	readings, err := store.GetAllSensorReadings(ctx)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

// Maintenance tests

func TestClearTableResetsAutoIncrement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	deviceID := seedDevice(t, store)
	id := seedSession(t, store, deviceID, "")
	seedReading(t, store, id, 1)

	require.NoError(t, store.ClearTable(ctx, storage.TableSensorData))
	require.NoError(t, store.ClearTable(ctx, storage.TableSession))

	// The next session gets id 1 again.
	newID := seedSession(t, store, deviceID, "")
	assert.Equal(t, int64(1), newID)
}

func TestClearTableUnknownTable(t *testing.T) {
	store := newTestStore(t)

	err := store.ClearTable(context.Background(), storage.Table("sqlite_master"))
	require.Error(t, err)
}

func TestDropAllTables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedDevice(t, store)

	require.NoError(t, store.DropAllTables(ctx))

	var count int
	err := store.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('Device', 'Session', 'Processed_Sensor_Data')
	`)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
