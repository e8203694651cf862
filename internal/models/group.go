package models

import "time"

// TopicGroup is the language-agnostic identity of a piece of content. Tags
// and alignments hang off the group and are shared by every language variant.
type TopicGroup struct {
	ID              string `db:"id" json:"id"`
	DefaultLanguage string `db:"default_language" json:"defaultLanguage"`
	Summary         string `db:"summary" json:"summary,omitempty"`
	ArchivedAt      *int64 `db:"archived_at" json:"archivedAt,omitempty"`
	Metadata        JSON   `db:"metadata" json:"metadata,omitempty"`
	CreatedBy       string `db:"created_by" json:"createdBy"`
	UpdatedBy       string `db:"updated_by" json:"updatedBy"`
	CreatedAt       int64  `db:"created_at" json:"createdAt"`
	UpdatedAt       int64  `db:"updated_at" json:"updatedAt"`
}

// TableName returns the table name for TopicGroup.
func (TopicGroup) TableName() string {
	return "topic_groups"
}

// Archived reports whether the group has been archived.
func (g *TopicGroup) Archived() bool {
	return g.ArchivedAt != nil
}

// Touch records an update by actorID.
func (g *TopicGroup) Touch(actorID string) {
	g.UpdatedBy = actorID
	g.UpdatedAt = time.Now().UnixMilli()
}
