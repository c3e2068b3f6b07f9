package professional

import "time"

// Directory entry types.
const (
	TypeVeterinarian = "Veterinário"
	TypeAgronomist   = "Agrônomo"
	TypeTechnician   = "Técnico Agrícola"
)

// Professional is one contactable directory entry.
type Professional struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	State       string    `json:"state"`
	City        string    `json:"city"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Specialties string    `json:"specialties,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest is the payload for creating a directory entry.
type CreateRequest struct {
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type" validate:"required"`
	State       string `json:"state" validate:"required,len=2"`
	City        string `json:"city" validate:"required"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Specialties string `json:"specialties,omitempty"`
}

// UpdateRequest is the payload for updating a directory entry. Empty fields
// keep their stored values.
type UpdateRequest struct {
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	State       string `json:"state,omitempty" validate:"omitempty,len=2"`
	City        string `json:"city,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Specialties string `json:"specialties,omitempty"`
}

// NearbyEntry is the geo lookup response shape.
type NearbyEntry struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Distance    string `json:"distance"`
	Contact     string `json:"contact"`
	Specialties string `json:"specialties,omitempty"`
}
