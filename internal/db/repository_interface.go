// Package db provides repository interfaces for topic engine data models.
package db

import (
	"context"

	"github.com/kimhsiao/topicflow/backend/internal/models"
)

// GroupRepository defines operations for topic group persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.TopicGroup) error
	GetGroup(ctx context.Context, id string) (*models.TopicGroup, error)
	UpdateGroup(ctx context.Context, group *models.TopicGroup) error
}

// TopicRepository defines operations for topic version persistence.
type TopicRepository interface {
	CreateTopic(ctx context.Context, topic *models.TopicVersion) error
	GetTopic(ctx context.Context, id string) (*models.TopicVersion, error)

	// GetLatestTopic returns nil without error when the pair has no latest version.
	GetLatestTopic(ctx context.Context, groupID, language string) (*models.TopicVersion, error)

	UpdateTopic(ctx context.Context, topic *models.TopicVersion) error

	// ClearLatest flips is_latest off for id only if it is currently set,
	// reporting whether the flip happened.
	ClearLatest(ctx context.Context, id, actorID string) (bool, error)

	ListTopicHistory(ctx context.Context, groupID, language string) ([]*models.TopicVersion, error)
	ListGroupLatest(ctx context.Context, groupID string) ([]*models.TopicVersion, error)
	ListTopics(ctx context.Context, query *TopicQuery) ([]*models.TopicVersion, int, error)
}

// TagRepository defines operations on the shared tag catalog and group bindings.
type TagRepository interface {
	// UpsertTag inserts or updates a tag by (name, type). A nil description
	// or empty metadata leaves the stored value unchanged.
	UpsertTag(ctx context.Context, name, tagType string, description *string, metadata models.JSON) (*models.Tag, error)
	ListTags(ctx context.Context, tagType string) ([]*models.Tag, error)
	ListGroupTags(ctx context.Context, groupID string) ([]*models.Tag, error)
	ListGroupTagIDs(ctx context.Context, groupID string) ([]string, error)
	BindTag(ctx context.Context, binding *models.TopicGroupTag) error
	UnbindTag(ctx context.Context, groupID, tagID string) error
}

// AlignmentRepository defines operations for curriculum alignment persistence.
type AlignmentRepository interface {
	ListAlignments(ctx context.Context, groupID string) ([]*models.CurriculumAlignment, error)
	CreateAlignment(ctx context.Context, alignment *models.CurriculumAlignment) error
	UpdateAlignment(ctx context.Context, alignment *models.CurriculumAlignment) error
	DeleteAlignment(ctx context.Context, groupID, id string) error
}

// WorkflowRepository defines operations for the append-only workflow logs.
type WorkflowRepository interface {
	CreateWorkflowEvent(ctx context.Context, event *models.WorkflowEvent) error
	ListWorkflowEvents(ctx context.Context, topicID string) ([]*models.WorkflowEvent, error)
	CreateReviewRecord(ctx context.Context, record *models.ReviewRecord) error
	ListReviewRecords(ctx context.Context, topicID string) ([]*models.ReviewRecord, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, topicID string) ([]*models.Comment, error)
}

// Store combines every repository with a transaction boundary.
type Store interface {
	GroupRepository
	TopicRepository
	TagRepository
	AlignmentRepository
	WorkflowRepository

	// WithTx runs fn in one atomic unit of work.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Ensure *Repository implements the interfaces at compile time.
var (
	_ GroupRepository     = (*Repository)(nil)
	_ TopicRepository     = (*Repository)(nil)
	_ TagRepository       = (*Repository)(nil)
	_ AlignmentRepository = (*Repository)(nil)
	_ WorkflowRepository  = (*Repository)(nil)
	_ Store               = (*Repository)(nil)
)
