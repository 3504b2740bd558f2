package continuity

import "github.com/google/uuid"

// IDGenerator mints ids for new alerts and scan runs.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues UUIDv7 ids. Time-ordered ids keep alert listings
// roughly chronological even under id-based tiebreak sorting.
type UUIDGenerator struct{}

// NewID returns a new UUIDv7 string.
func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
