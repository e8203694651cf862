package models

import "time"

// DefaultTagType is applied to tags given as bare strings.
const DefaultTagType = "classification"

// Tag is a reusable label from the shared catalog, unique on (name, type).
type Tag struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Type        string `db:"type" json:"type"`
	Description string `db:"description" json:"description,omitempty"`
	Metadata    JSON   `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   int64  `db:"created_at" json:"createdAt"`
	UpdatedAt   int64  `db:"updated_at" json:"updatedAt"`
}

// TableName returns the table name for Tag.
func (Tag) TableName() string {
	return "tags"
}

// Key returns the natural key of the tag.
func (t *Tag) Key() TagKey {
	return TagKey{Type: t.Type, Name: t.Name}
}

// UpdatedAtTime returns the UpdatedAt as time.Time.
func (t *Tag) UpdatedAtTime() time.Time {
	return time.UnixMilli(t.UpdatedAt)
}

// TagKey is the natural key of a catalog tag.
type TagKey struct {
	Type string
	Name string
}

// TopicGroupTag binds a catalog tag to a topic group.
type TopicGroupTag struct {
	GroupID    string `db:"group_id" json:"groupId"`
	TagID      string `db:"tag_id" json:"tagId"`
	AssignedBy string `db:"assigned_by" json:"assignedBy"`
	AssignedAt int64  `db:"assigned_at" json:"assignedAt"`
}

// TableName returns the table name for TopicGroupTag.
func (TopicGroupTag) TableName() string {
	return "topic_group_tags"
}
