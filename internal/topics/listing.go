package topics

import (
	"context"
	"strings"

	"github.com/kimhsiao/topicflow/backend/internal/db"
	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/models"
)

// ListParams are the listTopics filters. Zero values mean "no filter",
// except IsLatest, which hides superseded versions unless set to false.
type ListParams struct {
	Status         string
	Language       string
	Tag            string
	Search         string
	GroupID        string
	Archived       *bool
	IsLatest       *bool
	Page           int
	PageSize       int
	IncludeContent bool
}

// ListResult is one page of topics.
type ListResult struct {
	Items    []*models.TopicVersion `json:"items"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

// GroupView is a group with its associations and the latest version of
// each language variant.
type GroupView struct {
	*models.TopicGroup
	Tags       []*models.Tag                 `json:"tags"`
	Alignments []*models.CurriculumAlignment `json:"alignments"`
	Topics     []*models.TopicVersion        `json:"topics"`
}

// query validates p and turns it into a repository query.
func (e *Engine) query(p *ListParams) (*db.TopicQuery, error) {
	if p == nil {
		p = &ListParams{}
	}
	q := &db.TopicQuery{Page: p.Page, PageSize: p.PageSize, IncludeContent: p.IncludeContent}

	switch {
	case q.Page == 0:
		q.Page = 1
	case q.Page < 0:
		return nil, apperr.Invalid("page must be at least 1")
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = e.config.DefaultPageSize
	case q.PageSize < 0 || q.PageSize > e.config.MaxPageSize:
		return nil, apperr.Invalid("pageSize must be between 1 and %d", e.config.MaxPageSize)
	}

	filters := db.NewFilterBuilder()
	if p.Status != "" {
		status, err := models.ParseStatus(p.Status)
		if err != nil {
			return nil, apperr.Invalid("%v", err)
		}
		filters.Status(string(status))
	}
	if p.Language != "" {
		lang, err := NormalizeLanguage(p.Language)
		if err != nil {
			return nil, err
		}
		filters.Language(lang)
	}
	filters.Group(strings.TrimSpace(p.GroupID)).
		Tag(p.Tag).
		Search(p.Search)
	if p.Archived != nil {
		filters.Archived(*p.Archived)
	}
	if p.IsLatest == nil || *p.IsLatest {
		filters.LatestOnly()
	}
	q.Filters = filters
	return q, nil
}

// ListTopics returns a page of versions, most recently updated first.
// Content is elided unless IncludeContent is set.
func (e *Engine) ListTopics(ctx context.Context, p *ListParams) (*ListResult, error) {
	q, err := e.query(p)
	if err != nil {
		return nil, err
	}
	items, total, err := e.store.ListTopics(ctx, q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.TopicVersion{}
	}
	return &ListResult{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// GetTopic returns a version with its group, tags and alignments.
func (e *Engine) GetTopic(ctx context.Context, id string) (*models.TopicAggregate, error) {
	topic, err := e.store.GetTopic(ctx, id)
	if err != nil {
		return nil, err
	}
	return aggregate(ctx, e.store, topic, nil)
}

// GetTopicHistory returns every version sharing id's group and language,
// newest first.
func (e *Engine) GetTopicHistory(ctx context.Context, id string) ([]*models.TopicVersion, error) {
	topic, err := e.store.GetTopic(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.store.ListTopicHistory(ctx, topic.GroupID, topic.Language)
}

// GetGroup returns a group with its associations and latest variants.
func (e *Engine) GetGroup(ctx context.Context, id string) (*GroupView, error) {
	group, err := e.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	agg, err := aggregate(ctx, e.store, &models.TopicVersion{GroupID: id}, group)
	if err != nil {
		return nil, err
	}
	latest, err := e.store.ListGroupLatest(ctx, id)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		latest = []*models.TopicVersion{}
	}
	return &GroupView{TopicGroup: group, Tags: agg.Tags, Alignments: agg.Alignments, Topics: latest}, nil
}

// ListWorkflowEvents returns a version's transitions, oldest first.
func (e *Engine) ListWorkflowEvents(ctx context.Context, id string) ([]*models.WorkflowEvent, error) {
	if _, err := e.store.GetTopic(ctx, id); err != nil {
		return nil, err
	}
	events, err := e.store.ListWorkflowEvents(ctx, id)
	if events == nil && err == nil {
		events = []*models.WorkflowEvent{}
	}
	return events, err
}

// ListReviews returns a version's review decisions, oldest first.
func (e *Engine) ListReviews(ctx context.Context, id string) ([]*models.ReviewRecord, error) {
	if _, err := e.store.GetTopic(ctx, id); err != nil {
		return nil, err
	}
	records, err := e.store.ListReviewRecords(ctx, id)
	if records == nil && err == nil {
		records = []*models.ReviewRecord{}
	}
	return records, err
}

// ListComments returns a version's comment thread, oldest first.
func (e *Engine) ListComments(ctx context.Context, id string) ([]*models.Comment, error) {
	if _, err := e.store.GetTopic(ctx, id); err != nil {
		return nil, err
	}
	comments, err := e.store.ListComments(ctx, id)
	if comments == nil && err == nil {
		comments = []*models.Comment{}
	}
	return comments, err
}

// ListTags browses the catalog, optionally restricted to one type.
func (e *Engine) ListTags(ctx context.Context, tagType string) ([]*models.Tag, error) {
	tags, err := e.store.ListTags(ctx, strings.ToLower(strings.TrimSpace(tagType)))
	if tags == nil && err == nil {
		tags = []*models.Tag{}
	}
	return tags, err
}
