package domain

// Device is a physical soil probe that sessions are recorded with.
// Devices are created once per association and never deleted in normal
// operation; sessions hold a weak back-reference to them.
type Device struct {
	ID   int64  `json:"device_id" db:"device_id"`
	Name string `json:"device_name" db:"device_name"`
}
