package models

import (
	"time"

	"github.com/google/uuid"
)

// Plugin is the registry entry the engine versions against.
// CurrentVersionID is the authoritative current pointer; the
// is_current flag on version rows mirrors it for queries.
// Maps to: plugins table
type Plugin struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	Slug string    `db:"slug" json:"slug"`

	CurrentVersionID *uuid.UUID `db:"current_version_id" json:"current_version_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
