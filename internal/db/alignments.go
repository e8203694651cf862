package db

import (
	"context"
	"time"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/models"
	"github.com/kimhsiao/topicflow/backend/internal/uuid"
)

// =====================================================
// CurriculumAlignment Operations
// =====================================================

// ListAlignments returns the alignments owned by a group in creation order.
func (r *Repository) ListAlignments(ctx context.Context, groupID string) ([]*models.CurriculumAlignment, error) {
	query := `
	SELECT id, group_id, framework, subject, standard_code, grade_level, description,
		   metadata, created_by, updated_by, created_at, updated_at
	FROM curriculum_alignments WHERE group_id = ?
	ORDER BY created_at, rowid
	`
	rows, err := r.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, wrapDB("failed to query alignments", err)
	}
	defer rows.Close()

	var alignments []*models.CurriculumAlignment
	for rows.Next() {
		var a models.CurriculumAlignment
		err := rows.Scan(&a.ID, &a.GroupID, &a.Framework, &a.Subject, &a.StandardCode,
			&a.GradeLevel, &a.Description, &a.Metadata, &a.CreatedBy, &a.UpdatedBy,
			&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, wrapDB("failed to scan alignment", err)
		}
		alignments = append(alignments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB("failed to iterate alignments", err)
	}
	return alignments, nil
}

// CreateAlignment creates a new alignment for its group.
func (r *Repository) CreateAlignment(ctx context.Context, a *models.CurriculumAlignment) error {
	now := time.Now().UnixMilli()
	a.ID = uuid.New()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.UpdatedBy == "" {
		a.UpdatedBy = a.CreatedBy
	}

	query := `
	INSERT INTO curriculum_alignments (id, group_id, framework, subject, standard_code,
		grade_level, description, metadata, created_by, updated_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query, a.ID, a.GroupID, a.Framework, a.Subject,
		a.StandardCode, a.GradeLevel, a.Description, a.Metadata, a.CreatedBy, a.UpdatedBy,
		a.CreatedAt, a.UpdatedAt)
	return wrapDB("failed to create alignment", err)
}

// UpdateAlignment rewrites an alignment in place. The alignment must belong
// to a.GroupID.
func (r *Repository) UpdateAlignment(ctx context.Context, a *models.CurriculumAlignment) error {
	a.UpdatedAt = time.Now().UnixMilli()
	query := `
	UPDATE curriculum_alignments
	SET framework = ?, subject = ?, standard_code = ?, grade_level = ?, description = ?,
		metadata = ?, updated_by = ?, updated_at = ?
	WHERE id = ? AND group_id = ?
	`
	n, err := r.exec(ctx, "failed to update alignment", query, a.Framework, a.Subject,
		a.StandardCode, a.GradeLevel, a.Description, a.Metadata, a.UpdatedBy, a.UpdatedAt,
		a.ID, a.GroupID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("curriculum alignment", a.ID)
	}
	return nil
}

// DeleteAlignment removes an alignment owned by groupID.
func (r *Repository) DeleteAlignment(ctx context.Context, groupID, id string) error {
	n, err := r.exec(ctx, "failed to delete alignment",
		"DELETE FROM curriculum_alignments WHERE id = ? AND group_id = ?", id, groupID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("curriculum alignment", id)
	}
	return nil
}
