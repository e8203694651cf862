package db

import (
	"context"
	"time"

	"github.com/kimhsiao/topicflow/backend/internal/models"
	"github.com/kimhsiao/topicflow/backend/internal/uuid"
)

// =====================================================
// Tag Catalog Operations
// =====================================================

const tagColumns = "t.id, t.name, t.type, t.description, t.metadata, t.created_at, t.updated_at"

func scanTag(row rowScanner) (*models.Tag, error) {
	var tag models.Tag
	err := row.Scan(&tag.ID, &tag.Name, &tag.Type, &tag.Description, &tag.Metadata,
		&tag.CreatedAt, &tag.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *Repository) queryTags(ctx context.Context, query string, args ...interface{}) ([]*models.Tag, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDB("failed to query tags", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, wrapDB("failed to scan tag", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB("failed to iterate tags", err)
	}
	return tags, nil
}

// UpsertTag inserts a tag or, when (name, type) exists, updates its
// description and metadata in place. The single statement relies on the
// unique key so concurrent first use of a name cannot create duplicates.
func (r *Repository) UpsertTag(ctx context.Context, name, tagType string, description *string, metadata models.JSON) (*models.Tag, error) {
	query := `
	INSERT INTO tags AS t (id, name, type, description, metadata, created_at, updated_at)
	VALUES (?1, ?2, ?3, COALESCE(?4, ''), ?5, ?6, ?6)
	ON CONFLICT (name, type) DO UPDATE SET
		description = COALESCE(?4, t.description),
		metadata = COALESCE(?5, t.metadata),
		updated_at = CASE
			WHEN COALESCE(?4, t.description) IS NOT t.description
			  OR COALESCE(?5, t.metadata) IS NOT t.metadata
			THEN ?6 ELSE t.updated_at END
	RETURNING id, name, type, description, metadata, created_at, updated_at`

	tag, err := scanTag(r.q.QueryRowContext(ctx, query, uuid.New(), name, tagType,
		nullString(description), metadata, time.Now().UnixMilli()))
	if err != nil {
		return nil, wrapDB("failed to upsert tag", err)
	}
	return tag, nil
}

// ListTags returns the catalog ordered by type and name, optionally
// restricted to one type.
func (r *Repository) ListTags(ctx context.Context, tagType string) ([]*models.Tag, error) {
	if tagType != "" {
		return r.queryTags(ctx, "SELECT "+tagColumns+" FROM tags t WHERE t.type = ? ORDER BY t.type, t.name", tagType)
	}
	return r.queryTags(ctx, "SELECT "+tagColumns+" FROM tags t ORDER BY t.type, t.name")
}

// ListGroupTags returns the tags bound to a group.
func (r *Repository) ListGroupTags(ctx context.Context, groupID string) ([]*models.Tag, error) {
	query := "SELECT " + tagColumns + `
	FROM tags t JOIN topic_group_tags gt ON gt.tag_id = t.id
	WHERE gt.group_id = ? ORDER BY t.type, t.name`
	return r.queryTags(ctx, query, groupID)
}

// ListGroupTagIDs returns the ids of the tags bound to a group.
func (r *Repository) ListGroupTagIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT tag_id FROM topic_group_tags WHERE group_id = ? ORDER BY assigned_at, tag_id", groupID)
	if err != nil {
		return nil, wrapDB("failed to query tag bindings", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDB("failed to scan tag binding", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB("failed to iterate tag bindings", err)
	}
	return ids, nil
}

// BindTag attaches a tag to a group. Binding an already bound tag is a no-op.
func (r *Repository) BindTag(ctx context.Context, binding *models.TopicGroupTag) error {
	if binding.AssignedAt == 0 {
		binding.AssignedAt = time.Now().UnixMilli()
	}
	query := `
	INSERT INTO topic_group_tags (group_id, tag_id, assigned_by, assigned_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (group_id, tag_id) DO NOTHING
	`
	_, err := r.q.ExecContext(ctx, query, binding.GroupID, binding.TagID, binding.AssignedBy, binding.AssignedAt)
	return wrapDB("failed to bind tag", err)
}

// UnbindTag removes a tag from a group. The catalog row is kept.
func (r *Repository) UnbindTag(ctx context.Context, groupID, tagID string) error {
	_, err := r.exec(ctx, "failed to unbind tag",
		"DELETE FROM topic_group_tags WHERE group_id = ? AND tag_id = ?", groupID, tagID)
	return err
}
