package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/kimhsiao/topicflow/backend/internal/models"
	"github.com/kimhsiao/topicflow/backend/internal/uuid"
)

// =====================================================
// WorkflowEvent Operations
// =====================================================

// CreateWorkflowEvent appends a transition record.
func (r *Repository) CreateWorkflowEvent(ctx context.Context, e *models.WorkflowEvent) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UnixMilli()

	var from, decision interface{}
	if e.FromStatus != nil {
		from = string(*e.FromStatus)
	}
	if e.Decision != "" {
		decision = string(e.Decision)
	}

	query := `
	INSERT INTO workflow_events (id, topic_version_id, actor_id, from_status, to_status,
		decision, comment, metadata, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query, e.ID, e.TopicVersionID, e.ActorID, from,
		string(e.ToStatus), decision, e.Comment, e.Metadata, e.CreatedAt)
	return wrapDB("failed to create workflow event", err)
}

// ListWorkflowEvents returns the transitions of one version, oldest first.
func (r *Repository) ListWorkflowEvents(ctx context.Context, topicID string) ([]*models.WorkflowEvent, error) {
	query := `
	SELECT id, topic_version_id, actor_id, from_status, to_status, decision, comment,
		   metadata, created_at
	FROM workflow_events WHERE topic_version_id = ?
	ORDER BY created_at, rowid
	`
	rows, err := r.q.QueryContext(ctx, query, topicID)
	if err != nil {
		return nil, wrapDB("failed to query workflow events", err)
	}
	defer rows.Close()

	var events []*models.WorkflowEvent
	for rows.Next() {
		var e models.WorkflowEvent
		var from, decision sql.NullString
		var to string
		err := rows.Scan(&e.ID, &e.TopicVersionID, &e.ActorID, &from, &to, &decision,
			&e.Comment, &e.Metadata, &e.CreatedAt)
		if err != nil {
			return nil, wrapDB("failed to scan workflow event", err)
		}
		if from.Valid {
			status := models.Status(from.String)
			e.FromStatus = &status
		}
		e.ToStatus = models.Status(to)
		e.Decision = models.Decision(decision.String)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB("failed to iterate workflow events", err)
	}
	return events, nil
}

// =====================================================
// ReviewRecord Operations
// =====================================================

// CreateReviewRecord appends a review decision.
func (r *Repository) CreateReviewRecord(ctx context.Context, rec *models.ReviewRecord) error {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now().UnixMilli()

	query := `
	INSERT INTO review_records (id, topic_version_id, actor_id, decision, comment, metadata, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query, rec.ID, rec.TopicVersionID, rec.ActorID,
		string(rec.Decision), rec.Comment, rec.Metadata, rec.CreatedAt)
	return wrapDB("failed to create review record", err)
}

// ListReviewRecords returns the review decisions of one version, oldest first.
func (r *Repository) ListReviewRecords(ctx context.Context, topicID string) ([]*models.ReviewRecord, error) {
	query := `
	SELECT id, topic_version_id, actor_id, decision, comment, metadata, created_at
	FROM review_records WHERE topic_version_id = ?
	ORDER BY created_at, rowid
	`
	rows, err := r.q.QueryContext(ctx, query, topicID)
	if err != nil {
		return nil, wrapDB("failed to query review records", err)
	}
	defer rows.Close()

	var records []*models.ReviewRecord
	for rows.Next() {
		var rec models.ReviewRecord
		var decision string
		err := rows.Scan(&rec.ID, &rec.TopicVersionID, &rec.ActorID, &decision,
			&rec.Comment, &rec.Metadata, &rec.CreatedAt)
		if err != nil {
			return nil, wrapDB("failed to scan review record", err)
		}
		rec.Decision = models.Decision(decision)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB("failed to iterate review records", err)
	}
	return records, nil
}

// =====================================================
// Comment Operations
// =====================================================

// CreateComment appends a comment to a version's thread.
func (r *Repository) CreateComment(ctx context.Context, c *models.Comment) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UnixMilli()

	query := `
	INSERT INTO topic_comments (id, topic_version_id, actor_id, type, body, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query, c.ID, c.TopicVersionID, c.ActorID, string(c.Type),
		c.Body, c.CreatedAt)
	return wrapDB("failed to create comment", err)
}

// ListComments returns a version's comment thread, oldest first.
func (r *Repository) ListComments(ctx context.Context, topicID string) ([]*models.Comment, error) {
	query := `
	SELECT id, topic_version_id, actor_id, type, body, created_at
	FROM topic_comments WHERE topic_version_id = ?
	ORDER BY created_at, rowid
	`
	rows, err := r.q.QueryContext(ctx, query, topicID)
	if err != nil {
		return nil, wrapDB("failed to query comments", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		var commentType string
		if err := rows.Scan(&c.ID, &c.TopicVersionID, &c.ActorID, &commentType, &c.Body, &c.CreatedAt); err != nil {
			return nil, wrapDB("failed to scan comment", err)
		}
		c.Type = models.CommentType(commentType)
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB("failed to iterate comments", err)
	}
	return comments, nil
}
