package models

import (
	"encoding/json"
	"time"
)

// TopicVersion is one snapshot of a group's content in one language.
type TopicVersion struct {
	ID              string  `db:"id" json:"id"`
	GroupID         string  `db:"group_id" json:"groupId"`
	Language        string  `db:"language" json:"language"`
	Title           string  `db:"title" json:"title"`
	Summary         string  `db:"summary" json:"summary,omitempty"`
	Content         Content `db:"content" json:"-"`
	Accessibility   JSON    `db:"accessibility" json:"accessibility,omitempty"`
	Metadata        JSON    `db:"metadata" json:"metadata,omitempty"`
	Notes           string  `db:"notes" json:"notes,omitempty"`
	Status          Status  `db:"status" json:"status"`
	Version         int     `db:"version" json:"version"`
	IsLatest        bool    `db:"is_latest" json:"isLatest"`
	SupersedesID    *string `db:"supersedes_id" json:"supersedesId,omitempty"`
	CreatedBy       string  `db:"created_by" json:"createdBy"`
	UpdatedBy       string  `db:"updated_by" json:"updatedBy"`
	SubmittedBy     *string `db:"submitted_by" json:"submittedBy,omitempty"`
	SubmittedAt     *int64  `db:"submitted_at" json:"submittedAt,omitempty"`
	ReviewedBy      *string `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt      *int64  `db:"reviewed_at" json:"reviewedAt,omitempty"`
	PublishedBy     *string `db:"published_by" json:"publishedBy,omitempty"`
	PublishedAt     *int64  `db:"published_at" json:"publishedAt,omitempty"`
	StatusChangedAt int64   `db:"status_changed_at" json:"statusChangedAt"`
	CreatedAt       int64   `db:"created_at" json:"createdAt"`
	UpdatedAt       int64   `db:"updated_at" json:"updatedAt"`
}

// TableName returns the table name for TopicVersion.
func (TopicVersion) TableName() string {
	return "topic_versions"
}

// MarshalJSON adds the contentFormat discriminator and the content body.
// The body is omitted when it was elided from a listing.
func (t TopicVersion) MarshalJSON() ([]byte, error) {
	type alias TopicVersion
	out := struct {
		alias
		ContentFormat ContentFormat   `json:"contentFormat"`
		Content       json.RawMessage `json:"content,omitempty"`
	}{alias: alias(t), ContentFormat: t.Content.Format}
	if !t.Content.IsZero() {
		body, err := t.Content.MarshalJSON()
		if err != nil {
			return nil, err
		}
		out.Content = body
	}
	return json.Marshal(out)
}

// Touch records an update by actorID.
func (t *TopicVersion) Touch(actorID string) {
	t.UpdatedBy = actorID
	t.UpdatedAt = time.Now().UnixMilli()
}

// SetStatus moves the version to status and stamps the change time.
func (t *TopicVersion) SetStatus(status Status, actorID string) {
	t.Status = status
	t.Touch(actorID)
	t.StatusChangedAt = t.UpdatedAt
}

// PublishedAtTime returns the PublishedAt as time.Time, or the zero time.
func (t *TopicVersion) PublishedAtTime() time.Time {
	if t.PublishedAt == nil {
		return time.Time{}
	}
	return time.UnixMilli(*t.PublishedAt)
}

// TopicAggregate is a version together with the group-level data shared by
// all of the group's variants.
type TopicAggregate struct {
	Topic      *TopicVersion          `json:"topic"`
	Group      *TopicGroup            `json:"group"`
	Tags       []*Tag                 `json:"tags"`
	Alignments []*CurriculumAlignment `json:"alignments"`
}
