package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a postal address embedded in organizations and events.
type Location struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// Contact holds organization contact details.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Organization represents an event-hosting organization. Owners is the set of
// user IDs with administrative control; it never drops below one after creation.
type Organization struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Owners      []uuid.UUID `json:"owners"`
	Description string      `json:"description,omitempty"`
	Website     string      `json:"website,omitempty"`
	ImageID     *uuid.UUID  `json:"image_id,omitempty"`
	Location    Location    `json:"location"`
	Contact     Contact     `json:"contact"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HasOwner reports whether userID is in the owner set.
func (o *Organization) HasOwner(userID uuid.UUID) bool {
	for _, id := range o.Owners {
		if id == userID {
			return true
		}
	}
	return false
}
