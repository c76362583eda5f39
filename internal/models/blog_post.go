package models

import (
	"time"

	"github.com/google/uuid"
)

// BlogPost represents an editable blog entry. ContentHash stores the
// fingerprint of the title and body at the time of the last AI metadata
// analysis; a nil hash means the post has never been analyzed.
type BlogPost struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	Tags        []string  `db:"tags" json:"tags"`
	Excerpt     string    `db:"excerpt" json:"excerpt"`
	ContentHash *string   `db:"content_hash" json:"contentHash,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
