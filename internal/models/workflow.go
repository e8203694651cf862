package models

import (
	"fmt"
	"strings"
	"time"
)

// WorkflowEvent records one status transition. Rows are never updated.
type WorkflowEvent struct {
	ID             string   `db:"id" json:"id"`
	TopicVersionID string   `db:"topic_version_id" json:"topicVersionId"`
	ActorID        string   `db:"actor_id" json:"actorId"`
	FromStatus     *Status  `db:"from_status" json:"fromStatus"`
	ToStatus       Status   `db:"to_status" json:"toStatus"`
	Decision       Decision `db:"decision" json:"decision,omitempty"`
	Comment        string   `db:"comment" json:"comment,omitempty"`
	Metadata       JSON     `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      int64    `db:"created_at" json:"createdAt"`
}

// TableName returns the table name for WorkflowEvent.
func (WorkflowEvent) TableName() string {
	return "workflow_events"
}

// Time returns the CreatedAt as time.Time.
func (e *WorkflowEvent) Time() time.Time {
	return time.UnixMilli(e.CreatedAt)
}

// ReviewRecord is the reviewer-facing record of one review decision.
type ReviewRecord struct {
	ID             string   `db:"id" json:"id"`
	TopicVersionID string   `db:"topic_version_id" json:"topicVersionId"`
	ActorID        string   `db:"actor_id" json:"actorId"`
	Decision       Decision `db:"decision" json:"decision"`
	Comment        string   `db:"comment" json:"comment,omitempty"`
	Metadata       JSON     `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      int64    `db:"created_at" json:"createdAt"`
}

// TableName returns the table name for ReviewRecord.
func (ReviewRecord) TableName() string {
	return "review_records"
}

// CommentType classifies a comment on a topic version.
type CommentType string

const (
	CommentGeneral   CommentType = "GENERAL"
	CommentEditorial CommentType = "EDITORIAL"
	CommentReview    CommentType = "REVIEW"
)

// ParseCommentType normalizes a comment type; empty input means GENERAL.
func ParseCommentType(s string) (CommentType, error) {
	switch t := CommentType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "":
		return CommentGeneral, nil
	case CommentGeneral, CommentEditorial, CommentReview:
		return t, nil
	default:
		return "", fmt.Errorf("unknown comment type %q", s)
	}
}

// Comment is a note in a topic version's discussion thread.
type Comment struct {
	ID             string      `db:"id" json:"id"`
	TopicVersionID string      `db:"topic_version_id" json:"topicVersionId"`
	ActorID        string      `db:"actor_id" json:"actorId"`
	Type           CommentType `db:"type" json:"type"`
	Body           string      `db:"body" json:"body"`
	CreatedAt      int64       `db:"created_at" json:"createdAt"`
}

// TableName returns the table name for Comment.
func (Comment) TableName() string {
	return "topic_comments"
}
