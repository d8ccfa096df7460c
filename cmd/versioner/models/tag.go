package models

import (
	"time"

	"github.com/google/uuid"
)

// TagType categorizes a tag
type TagType string

const (
	TagRelease   TagType = "release"
	TagMilestone TagType = "milestone"
	TagCustom    TagType = "custom"
)

// Tag is a named pointer to a version. Names are unique per plugin
// (case-sensitive); re-tagging a name requires an explicit untag first.
// Maps to: plugin_tags table
type Tag struct {
	ID       uuid.UUID `db:"id" json:"id"`
	PluginID uuid.UUID `db:"plugin_id" json:"plugin_id"`

	VersionID uuid.UUID `db:"version_id" json:"version_id"`

	TagName     string  `db:"tag_name" json:"tag_name"`
	TagType     TagType `db:"tag_type" json:"tag_type"`
	Description string  `db:"description" json:"description"`
	Author      string  `db:"author" json:"author"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
