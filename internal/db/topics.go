package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/models"
	"github.com/kimhsiao/topicflow/backend/internal/uuid"
)

// =====================================================
// TopicVersion Operations
// =====================================================

var topicColumns = []string{
	"tv.id", "tv.group_id", "tv.language", "tv.title", "tv.summary",
	"tv.content_format", "tv.content", "tv.accessibility", "tv.metadata", "tv.notes",
	"tv.status", "tv.version", "tv.is_latest", "tv.supersedes_id",
	"tv.created_by", "tv.updated_by", "tv.submitted_by", "tv.submitted_at",
	"tv.reviewed_by", "tv.reviewed_at", "tv.published_by", "tv.published_at",
	"tv.status_changed_at", "tv.created_at", "tv.updated_at",
}

// selectTopicColumns renders the column list. Without content the body
// column is replaced by an empty string so listings stay small.
func selectTopicColumns(withContent bool) string {
	if withContent {
		return strings.Join(topicColumns, ", ")
	}
	cols := make([]string, len(topicColumns))
	copy(cols, topicColumns)
	cols[6] = "'' AS content"
	return strings.Join(cols, ", ")
}

func scanTopic(row rowScanner) (*models.TopicVersion, error) {
	var t models.TopicVersion
	var format, content, status string
	var isLatest int
	var supersedes, submittedBy, reviewedBy, publishedBy sql.NullString
	var submittedAt, reviewedAt, publishedAt sql.NullInt64

	err := row.Scan(
		&t.ID, &t.GroupID, &t.Language, &t.Title, &t.Summary,
		&format, &content, &t.Accessibility, &t.Metadata, &t.Notes,
		&status, &t.Version, &isLatest, &supersedes,
		&t.CreatedBy, &t.UpdatedBy, &submittedBy, &submittedAt,
		&reviewedBy, &reviewedAt, &publishedBy, &publishedAt,
		&t.StatusChangedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Content = models.StoredContent(format, content)
	t.Status = models.Status(status)
	t.IsLatest = isLatest == 1
	t.SupersedesID = stringPtr(supersedes)
	t.SubmittedBy = stringPtr(submittedBy)
	t.SubmittedAt = intPtr(submittedAt)
	t.ReviewedBy = stringPtr(reviewedBy)
	t.ReviewedAt = intPtr(reviewedAt)
	t.PublishedBy = stringPtr(publishedBy)
	t.PublishedAt = intPtr(publishedAt)
	return &t, nil
}

func (r *Repository) queryTopics(ctx context.Context, query string, args ...interface{}) ([]*models.TopicVersion, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDB("failed to query topics", err)
	}
	defer rows.Close()

	var topics []*models.TopicVersion
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, wrapDB("failed to scan topic", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB("failed to iterate topics", err)
	}
	return topics, nil
}

// CreateTopic inserts a topic version. ID and timestamps are assigned here
// unless already set.
func (r *Repository) CreateTopic(ctx context.Context, t *models.TopicVersion) error {
	now := time.Now().UnixMilli()
	if t.ID == "" {
		t.ID = uuid.New()
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	t.StatusChangedAt = now
	if t.UpdatedBy == "" {
		t.UpdatedBy = t.CreatedBy
	}
	if t.Content.Format == "" {
		t.Content.Format = models.FormatJSON
	}

	query := `
	INSERT INTO topic_versions (id, group_id, language, title, summary, content_format, content,
		accessibility, metadata, notes, status, version, is_latest, supersedes_id,
		created_by, updated_by, submitted_by, submitted_at, reviewed_by, reviewed_at,
		published_by, published_at, status_changed_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.q.ExecContext(ctx, query, t.ID, t.GroupID, t.Language, t.Title, t.Summary,
		string(t.Content.Format), t.Content.Raw(), t.Accessibility, t.Metadata, t.Notes,
		string(t.Status), t.Version, boolInt(t.IsLatest), nullString(t.SupersedesID),
		t.CreatedBy, t.UpdatedBy, nullString(t.SubmittedBy), nullInt(t.SubmittedAt),
		nullString(t.ReviewedBy), nullInt(t.ReviewedAt), nullString(t.PublishedBy),
		nullInt(t.PublishedAt), t.StatusChangedAt, t.CreatedAt, t.UpdatedAt)
	return wrapDB("failed to create topic", err)
}

// GetTopic retrieves a topic version by ID.
func (r *Repository) GetTopic(ctx context.Context, id string) (*models.TopicVersion, error) {
	query := "SELECT " + selectTopicColumns(true) + " FROM topic_versions tv WHERE tv.id = ?"
	t, err := scanTopic(r.queryRow(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("topic", id)
	}
	if err != nil {
		return nil, wrapDB("failed to load topic", err)
	}
	return t, nil
}

// GetLatestTopic returns the latest version for (groupID, language), or nil.
func (r *Repository) GetLatestTopic(ctx context.Context, groupID, language string) (*models.TopicVersion, error) {
	query := "SELECT " + selectTopicColumns(true) +
		" FROM topic_versions tv WHERE tv.group_id = ? AND tv.language = ? AND tv.is_latest = 1"
	t, err := scanTopic(r.queryRow(ctx, query, groupID, language))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapDB("failed to load latest topic", err)
	}
	return t, nil
}

// UpdateTopic writes every mutable column of a topic version. Identity,
// chain position and the latest flag are not touched.
func (r *Repository) UpdateTopic(ctx context.Context, t *models.TopicVersion) error {
	query := `
	UPDATE topic_versions
	SET title = ?, summary = ?, content_format = ?, content = ?, accessibility = ?,
		metadata = ?, notes = ?, status = ?, updated_by = ?, submitted_by = ?,
		submitted_at = ?, reviewed_by = ?, reviewed_at = ?, published_by = ?,
		published_at = ?, status_changed_at = ?, updated_at = ?
	WHERE id = ?
	`
	n, err := r.exec(ctx, "failed to update topic", query, t.Title, t.Summary,
		string(t.Content.Format), t.Content.Raw(), t.Accessibility, t.Metadata, t.Notes,
		string(t.Status), t.UpdatedBy, nullString(t.SubmittedBy), nullInt(t.SubmittedAt),
		nullString(t.ReviewedBy), nullInt(t.ReviewedAt), nullString(t.PublishedBy),
		nullInt(t.PublishedAt), t.StatusChangedAt, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("topic", t.ID)
	}
	return nil
}

// ClearLatest flips is_latest off for id only if it is still set.
func (r *Repository) ClearLatest(ctx context.Context, id, actorID string) (bool, error) {
	query := `UPDATE topic_versions SET is_latest = 0, updated_by = ?, updated_at = ? WHERE id = ? AND is_latest = 1`
	n, err := r.exec(ctx, "failed to clear latest flag", query, actorID, time.Now().UnixMilli(), id)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListTopicHistory returns every version of (groupID, language), newest first.
func (r *Repository) ListTopicHistory(ctx context.Context, groupID, language string) ([]*models.TopicVersion, error) {
	query := "SELECT " + selectTopicColumns(true) +
		" FROM topic_versions tv WHERE tv.group_id = ? AND tv.language = ? ORDER BY tv.version DESC"
	return r.queryTopics(ctx, query, groupID, language)
}

// ListGroupLatest returns the latest version of every language in a group.
func (r *Repository) ListGroupLatest(ctx context.Context, groupID string) ([]*models.TopicVersion, error) {
	query := "SELECT " + selectTopicColumns(false) +
		" FROM topic_versions tv WHERE tv.group_id = ? AND tv.is_latest = 1 ORDER BY tv.language"
	return r.queryTopics(ctx, query, groupID)
}

// TopicQuery selects a page of topic versions.
type TopicQuery struct {
	Filters        *FilterBuilder
	Page           int
	PageSize       int
	IncludeContent bool
}

// ListTopics returns one page of matching versions, most recently updated
// first, along with the total number of matches.
func (r *Repository) ListTopics(ctx context.Context, q *TopicQuery) ([]*models.TopicVersion, int, error) {
	if q.Page < 1 || q.PageSize < 1 {
		return nil, 0, apperr.Invalid("page and page size must be positive")
	}
	filters := q.Filters
	if filters == nil {
		filters = NewFilterBuilder()
	}

	from := " FROM topic_versions tv JOIN topic_groups g ON g.id = tv.group_id"
	where, args := filters.Build()
	if where != "" {
		where = " WHERE " + where
	}

	var total int
	if err := r.q.QueryRowContext(ctx, "SELECT COUNT(*)"+from+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapDB("failed to count topics", err)
	}

	query := fmt.Sprintf("SELECT %s%s%s ORDER BY tv.updated_at DESC, tv.id LIMIT ? OFFSET ?",
		selectTopicColumns(q.IncludeContent), from, where)
	pageArgs := append(append([]interface{}{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	topics, err := r.queryTopics(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return topics, total, nil
}
