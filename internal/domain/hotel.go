package domain

import "time"

type Hotel struct {
	ID            string // system-assigned UUID, immutable
	HotelID       string // client-assigned business key, uniqueness not enforced
	OwnerID       string
	Name          string
	City          string
	Country       string
	Description   string
	Type          string
	PricePerNight float64
	Facilities    []string
	Images        []string // media-host URLs, append-only
	Version       int64    // guards conditional replace
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Patch carries a partial update; nil fields keep the existing value.
type Patch struct {
	Name          *string
	City          *string
	Country       *string
	Description   *string
	Type          *string
	PricePerNight *float64
	Facilities    []string
}

// Apply overlays the non-nil patch fields onto h.
func (p Patch) Apply(h *Hotel) {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.City != nil {
		h.City = *p.City
	}
	if p.Country != nil {
		h.Country = *p.Country
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Type != nil {
		h.Type = *p.Type
	}
	if p.PricePerNight != nil {
		h.PricePerNight = *p.PricePerNight
	}
	if p.Facilities != nil {
		h.Facilities = p.Facilities
	}
}

// ImageFile is one uploaded image as received from the client.
type ImageFile struct {
	Data        []byte
	ContentType string
}
