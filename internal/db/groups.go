package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/models"
	"github.com/kimhsiao/topicflow/backend/internal/uuid"
)

// =====================================================
// TopicGroup Operations
// =====================================================

// CreateGroup creates a new topic group. ID and timestamps are assigned here.
func (r *Repository) CreateGroup(ctx context.Context, group *models.TopicGroup) error {
	now := time.Now().UnixMilli()
	group.ID = uuid.New()
	group.CreatedAt = now
	group.UpdatedAt = now
	if group.UpdatedBy == "" {
		group.UpdatedBy = group.CreatedBy
	}

	query := `
	INSERT INTO topic_groups (id, default_language, summary, archived_at, metadata,
		created_by, updated_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query, group.ID, group.DefaultLanguage, group.Summary,
		nullInt(group.ArchivedAt), group.Metadata, group.CreatedBy, group.UpdatedBy,
		group.CreatedAt, group.UpdatedAt)
	return wrapDB("failed to create topic group", err)
}

// GetGroup retrieves a topic group by ID.
func (r *Repository) GetGroup(ctx context.Context, id string) (*models.TopicGroup, error) {
	query := `
	SELECT id, default_language, summary, archived_at, metadata,
		   created_by, updated_by, created_at, updated_at
	FROM topic_groups WHERE id = ?
	`
	var group models.TopicGroup
	var archivedAt sql.NullInt64
	err := r.queryRow(ctx, query, id).Scan(
		&group.ID, &group.DefaultLanguage, &group.Summary, &archivedAt, &group.Metadata,
		&group.CreatedBy, &group.UpdatedBy, &group.CreatedAt, &group.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("topic group", id)
	}
	if err != nil {
		return nil, wrapDB("failed to load topic group", err)
	}
	group.ArchivedAt = intPtr(archivedAt)
	return &group, nil
}

// UpdateGroup writes the mutable fields of a topic group.
func (r *Repository) UpdateGroup(ctx context.Context, group *models.TopicGroup) error {
	query := `
	UPDATE topic_groups
	SET default_language = ?, summary = ?, archived_at = ?, metadata = ?,
		updated_by = ?, updated_at = ?
	WHERE id = ?
	`
	n, err := r.exec(ctx, "failed to update topic group", query, group.DefaultLanguage,
		group.Summary, nullInt(group.ArchivedAt), group.Metadata, group.UpdatedBy,
		group.UpdatedAt, group.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("topic group", group.ID)
	}
	return nil
}
