package domain

import "context"

// KeyKind selects which identifier column a store lookup or replace is keyed on.
type KeyKind int

const (
	KeyPrimary  KeyKind = iota // system-assigned ID
	KeyBusiness                // client-assigned HotelID
)

func (k KeyKind) String() string {
	if k == KeyBusiness {
		return "business"
	}
	return "primary"
}

type HotelStore interface {
	// Write paths
	Insert(ctx context.Context, h Hotel) error
	// Replace overwrites the row matched by (kind, key), owner-scoped when
	// owner != "", but only if the stored version still equals h.Version.
	// Business keys may be shared between rows, so KeyBusiness writes are
	// additionally pinned to h.ID, the row picked at resolve time. Returns
	// ErrNotFound when no row matches and ErrConflict when the row exists
	// with a different version.
	Replace(ctx context.Context, kind KeyKind, key, owner string, h Hotel) error

	// Read paths
	FindByKey(ctx context.Context, kind KeyKind, key, owner string) (Hotel, error)
	List(ctx context.Context, owner string, limit int) ([]Hotel, error)
}

// MediaHost accepts binary image data and returns a retrievable URL.
type MediaHost interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Event describes a listing change for downstream consumers.
type Event struct {
	Kind    string `json:"kind"` // created|updated|repriced
	HotelID string `json:"hotel_id"`
	OwnerID string `json:"owner_id"`
	Version int64  `json:"version"`
}

// EventPublisher delivery is best-effort; callers must not fail on publish errors.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}
