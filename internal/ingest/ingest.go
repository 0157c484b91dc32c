// Package ingest converts external log payloads into persisted sessions.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soillog/soillog-go/internal/domain"
	"github.com/soillog/soillog-go/internal/refresh"
	"github.com/soillog/soillog-go/internal/storage"
)

// Defaults for sessions ingested from a device payload. The probe does not
// report a location, and the app pairs with a single device.
const (
	DefaultLocation   = "N/A"
	DefaultDeviceName = "SAGE Soil Probe"
)

// Ingestor writes device payloads and fixtures into a store.
type Ingestor struct {
	store storage.Store
	bus   *refresh.Bus // optional, notified after each successful import
}

// New creates an Ingestor over the given store.
func New(store storage.Store) *Ingestor {
	return &Ingestor{store: store}
}

// WithBus attaches a refresh bus that is published after every successful
// import.
func (ing *Ingestor) WithBus(bus *refresh.Bus) *Ingestor {
	ing.bus = bus
	return ing
}

// Ingest converts a device payload into one session plus its readings,
// inside a single transaction. The session end time is derived from the
// largest relative timestamp in the payload. A nil payload is a deliberate
// no-op, not an error. Returns the new session id, or 0 for a no-op.
func (ing *Ingestor) Ingest(ctx context.Context, payload *LogPayload) (int64, error) {
	if payload == nil {
		slog.Info("ingest_no_data")
		return 0, nil
	}

	start, err := time.Parse(domain.TimestampLayout, payload.Date)
	if err != nil {
		return 0, fmt.Errorf("failed to parse payload date %q: %w", payload.Date, err)
	}

	var largest float64
	for _, r := range payload.Data {
		if r.Offset > largest {
			largest = r.Offset
		}
	}
	end := start.Add(time.Duration(largest * float64(time.Second)))

	deviceID, err := ing.ensureDevice(ctx)
	if err != nil {
		return 0, err
	}

	session := domain.Session{
		Name:     payload.Name,
		Start:    start.UTC().Format(domain.TimestampLayout),
		End:      end.UTC().Format(domain.TimestampLayout),
		Location: DefaultLocation,
		DeviceID: deviceID,
	}

	readings := make([]domain.SensorReading, 0, len(payload.Data))
	for _, r := range payload.Data {
		readings = append(readings, domain.SensorReading{
			Nitrogen:        r.Nitrogen,
			Phosphorus:      r.Phosphorus,
			Potassium:       r.Potassium,
			PH:              r.PH,
			Moisture:        r.Moisture,
			Humidity:        r.Humidity,
			SoilTemperature: r.SoilTemperature,
			AirTemperature:  r.AirTemperature,
		})
	}

	id, err := ing.store.ImportSession(ctx, session, readings)
	if err != nil {
		return 0, fmt.Errorf("failed to import payload %q: %w", payload.Name, err)
	}

	slog.Info("ingest_complete", "session_id", id, "session_name", session.Name,
		"readings", len(readings), "end", session.End)
	ing.notify()
	return id, nil
}

// ensureDevice returns the id of the first registered device, creating the
// default device when none exists yet. Sessions hold a foreign key to
// Device, so an empty Device table would reject every import.
func (ing *Ingestor) ensureDevice(ctx context.Context) (int64, error) {
	devices, err := ing.store.GetDevices(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) > 0 {
		return devices[0].ID, nil
	}
	id, err := ing.store.InsertDevice(ctx, DefaultDeviceName)
	if err != nil {
		return 0, fmt.Errorf("failed to register default device: %w", err)
	}
	return id, nil
}

func (ing *Ingestor) notify() {
	if ing.bus != nil {
		ing.bus.Publish()
	}
}
