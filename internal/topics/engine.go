// Package topics implements the topic workflow engine: versioned,
// multi-language educational content moving from draft through review to
// publication, with tags and curriculum alignments shared per group.
//
// Every mutating operation runs in one transaction. Workflow events, review
// records and association changes commit or roll back together with the
// status change they belong to.
package topics

import (
	"context"
	"strings"
	"time"

	"github.com/kimhsiao/topicflow/backend/internal/db"
	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/logging"
	"github.com/kimhsiao/topicflow/backend/internal/models"
	"github.com/kimhsiao/topicflow/backend/internal/telemetry"
)

// Config holds engine settings.
type Config struct {
	// Language used when a create payload names none.
	DefaultLanguage string

	DefaultPageSize int
	MaxPageSize     int

	Logger  *logging.Logger
	Metrics *telemetry.Metrics
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLanguage: "en",
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

// Engine orchestrates topic versions and their workflow.
type Engine struct {
	store   db.Store
	config  *Config
	log     *logging.Logger
	metrics *telemetry.Metrics
}

// NewEngine creates an Engine over store. A nil config uses DefaultConfig.
func NewEngine(store db.Store, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = "en"
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}
	if config.DefaultPageSize <= 0 || config.DefaultPageSize > config.MaxPageSize {
		config.DefaultPageSize = min(20, config.MaxPageSize)
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Get()
	}
	return &Engine{
		store:   store,
		config:  config,
		log:     logger.With(map[string]interface{}{"component": "topics"}),
		metrics: config.Metrics,
	}
}

// unit is the state of one running operation.
type unit struct {
	db.Store
	actorID    string
	events     []*models.WorkflowEvent
	tagUpserts int
}

// transition appends the workflow event describing a status change of topic.
func (u *unit) transition(ctx context.Context, topic *models.TopicVersion, from *models.Status, decision models.Decision, comment string, metadata models.JSON) error {
	event := &models.WorkflowEvent{
		TopicVersionID: topic.ID,
		ActorID:        u.actorID,
		FromStatus:     from,
		ToStatus:       topic.Status,
		Decision:       decision,
		Comment:        comment,
		Metadata:       metadata,
	}
	if err := u.CreateWorkflowEvent(ctx, event); err != nil {
		return err
	}
	u.events = append(u.events, event)
	return nil
}

func (u *unit) syncTags(ctx context.Context, groupID string, desired []TagInput) error {
	n, err := syncTags(ctx, u.Store, groupID, u.actorID, desired)
	u.tagUpserts += n
	return err
}

// run executes fn in one transaction and reports the outcome.
func (e *Engine) run(ctx context.Context, op, actorID string, fn func(u *unit) error) error {
	start := time.Now()
	if strings.TrimSpace(actorID) == "" {
		err := apperr.Invalid("actor id is required")
		e.finish(op, start, nil, err)
		return err
	}

	u := &unit{actorID: actorID}
	err := e.store.WithTx(ctx, func(s db.Store) error {
		u.Store = s
		u.events = u.events[:0]
		u.tagUpserts = 0
		return fn(u)
	})
	e.finish(op, start, u, err)
	return err
}

func (e *Engine) finish(op string, start time.Time, u *unit, err error) {
	e.metrics.ObserveOperation(op, start, err)

	if err != nil {
		ctx := map[string]interface{}{"operation": op}
		var appErr *apperr.AppError
		if apperr.As(err, &appErr) {
			for k, v := range appErr.Details {
				ctx[k] = v
			}
		}
		switch apperr.CodeOf(err) {
		case apperr.ErrInvalid, apperr.ErrNotFound, apperr.ErrInvalidState, apperr.ErrConflict, apperr.ErrPermission:
			e.log.Warn("topic operation rejected", ctx, map[string]interface{}{"error": err.Error()})
		default:
			e.log.Error("topic operation failed", err, ctx)
		}
		return
	}

	e.metrics.RecordTagUpserts(u.tagUpserts)
	for _, ev := range u.events {
		from := ""
		if ev.FromStatus != nil {
			from = string(*ev.FromStatus)
		}
		e.metrics.RecordTransition(from, string(ev.ToStatus))
		fields := map[string]interface{}{
			"operation":   op,
			"topic_id":    ev.TopicVersionID,
			"actor_id":    ev.ActorID,
			"from_status": from,
			"to_status":   string(ev.ToStatus),
		}
		if ev.Decision != "" {
			fields["decision"] = string(ev.Decision)
		}
		e.log.Info("topic status changed", fields)
	}
}

// aggregate loads the group-level data that accompanies a version.
func aggregate(ctx context.Context, s db.Store, topic *models.TopicVersion, group *models.TopicGroup) (*models.TopicAggregate, error) {
	var err error
	if group == nil {
		if group, err = s.GetGroup(ctx, topic.GroupID); err != nil {
			return nil, err
		}
	}
	tags, err := s.ListGroupTags(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	alignments, err := s.ListAlignments(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []*models.Tag{}
	}
	if alignments == nil {
		alignments = []*models.CurriculumAlignment{}
	}
	return &models.TopicAggregate{Topic: topic, Group: group, Tags: tags, Alignments: alignments}, nil
}

// applyGroupChanges updates group-level summary and metadata, if given.
func applyGroupChanges(ctx context.Context, s db.Store, group *models.TopicGroup, c *topicChanges, actorID string) error {
	if c.groupSummary == nil && c.groupMetadata == nil {
		return nil
	}
	if c.groupSummary != nil {
		group.Summary = *c.groupSummary
	}
	if c.groupMetadata != nil {
		group.Metadata = c.groupMetadata
	}
	group.Touch(actorID)
	return s.UpdateGroup(ctx, group)
}

// syncAssociations applies the tag and alignment lists of a payload.
func (u *unit) syncAssociations(ctx context.Context, groupID string, c *topicChanges) error {
	if c.tags != nil {
		if err := u.syncTags(ctx, groupID, *c.tags); err != nil {
			return err
		}
	}
	if c.alignments != nil {
		if err := syncAlignments(ctx, u.Store, groupID, u.actorID, *c.alignments); err != nil {
			return err
		}
	}
	return nil
}

// Create adds a DRAFT version. Without a group id a new group is created
// and the version starts the chain at 1. With a group id, an existing latest
// version for the same language is superseded: its latest flag is cleared
// and the new draft takes the next version number.
func (e *Engine) Create(ctx context.Context, actorID string, in *TopicInput) (*models.TopicAggregate, error) {
	c, err := in.validate(true)
	if err != nil {
		e.finish("create", time.Now(), nil, err)
		return nil, err
	}
	if c.language == "" {
		c.language = e.config.DefaultLanguage
	}

	var result *models.TopicAggregate
	err = e.run(ctx, "create", actorID, func(u *unit) error {
		var group *models.TopicGroup
		var latest *models.TopicVersion
		var err error

		if c.groupID != "" {
			if group, err = u.GetGroup(ctx, c.groupID); err != nil {
				return err
			}
			if err := applyGroupChanges(ctx, u, group, c, actorID); err != nil {
				return err
			}
			if latest, err = u.GetLatestTopic(ctx, group.ID, c.language); err != nil {
				return err
			}
		} else {
			group = &models.TopicGroup{DefaultLanguage: c.language, CreatedBy: actorID, Metadata: c.groupMetadata}
			if c.groupSummary != nil {
				group.Summary = *c.groupSummary
			}
			if err := u.CreateGroup(ctx, group); err != nil {
				return err
			}
		}

		topic := &models.TopicVersion{
			GroupID:       group.ID,
			Language:      c.language,
			Title:         *c.title,
			Content:       *c.content,
			Accessibility: c.accessibility,
			Metadata:      c.metadata,
			Status:        models.StatusDraft,
			Version:       1,
			IsLatest:      true,
			CreatedBy:     actorID,
		}
		if c.summary != nil {
			topic.Summary = *c.summary
		}
		if c.notes != nil {
			topic.Notes = strings.TrimSpace(*c.notes)
		}

		var from *models.Status
		if latest != nil {
			cleared, err := u.ClearLatest(ctx, latest.ID, actorID)
			if err != nil {
				return err
			}
			if !cleared {
				return apperr.Conflict(latest.ID, "a newer draft already exists")
			}
			prev := latest.Status
			from = &prev
			topic.Version = latest.Version + 1
			topic.SupersedesID = &latest.ID
		}

		if err := u.CreateTopic(ctx, topic); err != nil {
			return err
		}
		if err := u.syncAssociations(ctx, group.ID, c); err != nil {
			return err
		}
		if err := u.transition(ctx, topic, from, "", topic.Notes, nil); err != nil {
			return err
		}

		result, err = aggregate(ctx, u, topic, group)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update edits a version in an editable status. Plain edits emit no
// workflow event.
func (e *Engine) Update(ctx context.Context, id, actorID string, in *TopicInput) (*models.TopicAggregate, error) {
	c, err := in.validate(false)
	if err != nil {
		e.finish("update", time.Now(), nil, err)
		return nil, err
	}

	var result *models.TopicAggregate
	err = e.run(ctx, "update", actorID, func(u *unit) error {
		topic, err := u.GetTopic(ctx, id)
		if err != nil {
			return err
		}
		if !topic.Status.Editable() {
			return apperr.InvalidState(topic.ID, string(topic.Status), "update", "only draft topics can be modified")
		}
		if c.language != "" && c.language != topic.Language {
			return apperr.Invalid("language of an existing topic cannot be changed")
		}
		if c.groupID != "" && c.groupID != topic.GroupID {
			return apperr.Invalid("topic %s does not belong to group %s", topic.ID, c.groupID)
		}

		if c.title != nil {
			topic.Title = *c.title
		}
		if c.summary != nil {
			topic.Summary = *c.summary
		}
		if c.content != nil {
			topic.Content = *c.content
		}
		if c.accessibility != nil {
			topic.Accessibility = c.accessibility
		}
		if c.metadata != nil {
			topic.Metadata = c.metadata
		}
		if c.notes != nil {
			topic.Notes = strings.TrimSpace(*c.notes)
		}
		topic.Touch(actorID)
		if err := u.UpdateTopic(ctx, topic); err != nil {
			return err
		}

		group, err := u.GetGroup(ctx, topic.GroupID)
		if err != nil {
			return err
		}
		if err := applyGroupChanges(ctx, u, group, c, actorID); err != nil {
			return err
		}
		if err := u.syncAssociations(ctx, group.ID, c); err != nil {
			return err
		}

		result, err = aggregate(ctx, u, topic, group)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitForReview moves a DRAFT or CHANGES_REQUESTED version to IN_REVIEW.
func (e *Engine) SubmitForReview(ctx context.Context, id, actorID, comment string) (*models.TopicAggregate, error) {
	var result *models.TopicAggregate
	err := e.run(ctx, "submit", actorID, func(u *unit) error {
		topic, err := u.GetTopic(ctx, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(topic.Status, models.StatusInReview) {
			return apperr.InvalidState(topic.ID, string(topic.Status), "submit", "only draft topics can be submitted for review")
		}

		from := topic.Status
		topic.SetStatus(models.StatusInReview, actorID)
		topic.SubmittedBy = &actorID
		topic.SubmittedAt = &topic.StatusChangedAt
		if err := u.UpdateTopic(ctx, topic); err != nil {
			return err
		}
		if err := u.transition(ctx, topic, &from, "", strings.TrimSpace(comment), nil); err != nil {
			return err
		}

		result, err = aggregate(ctx, u, topic, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordReviewDecision applies a reviewer's decision to an IN_REVIEW
// version. Changes requested are recorded in the version's notes.
func (e *Engine) RecordReviewDecision(ctx context.Context, id, actorID string, in *ReviewInput) (*models.TopicAggregate, error) {
	c, err := in.validate()
	if err != nil {
		e.finish("review", time.Now(), nil, err)
		return nil, err
	}

	var result *models.TopicAggregate
	err = e.run(ctx, "review", actorID, func(u *unit) error {
		topic, err := u.GetTopic(ctx, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(topic.Status, c.decision.Status()) {
			return apperr.InvalidState(topic.ID, string(topic.Status), "review", "only topics in review can receive a review decision")
		}

		if c.title != nil {
			topic.Title = *c.title
		}
		if c.summary != nil {
			topic.Summary = *c.summary
		}
		if c.topicMetadata != nil {
			topic.Metadata = c.topicMetadata
		}
		if c.accessibility != nil {
			topic.Accessibility = c.accessibility
		}

		from := topic.Status
		topic.SetStatus(c.decision.Status(), actorID)
		topic.ReviewedBy = &actorID
		topic.ReviewedAt = &topic.StatusChangedAt
		if c.decision == models.DecisionChangesRequested {
			topic.Notes = c.comment
		}
		if err := u.UpdateTopic(ctx, topic); err != nil {
			return err
		}

		if c.tags != nil {
			if err := u.syncTags(ctx, topic.GroupID, *c.tags); err != nil {
				return err
			}
		}

		record := &models.ReviewRecord{
			TopicVersionID: topic.ID,
			ActorID:        actorID,
			Decision:       c.decision,
			Comment:        c.comment,
			Metadata:       c.metadata,
		}
		if err := u.CreateReviewRecord(ctx, record); err != nil {
			return err
		}
		if err := u.transition(ctx, topic, &from, c.decision, c.comment, c.metadata); err != nil {
			return err
		}

		result, err = aggregate(ctx, u, topic, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Publish moves an APPROVED version to PUBLISHED. The latest flag is not
// touched.
func (e *Engine) Publish(ctx context.Context, id, actorID, comment string) (*models.TopicAggregate, error) {
	var result *models.TopicAggregate
	err := e.run(ctx, "publish", actorID, func(u *unit) error {
		topic, err := u.GetTopic(ctx, id)
		if err != nil {
			return err
		}
		if !models.CanTransition(topic.Status, models.StatusPublished) {
			return apperr.InvalidState(topic.ID, string(topic.Status), "publish", "only approved topics can be published")
		}

		from := topic.Status
		topic.SetStatus(models.StatusPublished, actorID)
		topic.PublishedBy = &actorID
		topic.PublishedAt = &topic.StatusChangedAt
		if err := u.UpdateTopic(ctx, topic); err != nil {
			return err
		}
		if err := u.transition(ctx, topic, &from, "", strings.TrimSpace(comment), nil); err != nil {
			return err
		}

		result, err = aggregate(ctx, u, topic, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateRevision opens a new DRAFT on top of a PUBLISHED version that is
// still the latest for its group and language. The source keeps its status
// and loses its latest flag.
func (e *Engine) CreateRevision(ctx context.Context, id, actorID, notes string) (*models.TopicAggregate, error) {
	var result *models.TopicAggregate
	err := e.run(ctx, "revise", actorID, func(u *unit) error {
		source, err := u.GetTopic(ctx, id)
		if err != nil {
			return err
		}
		if source.Status != models.StatusPublished {
			return apperr.InvalidState(source.ID, string(source.Status), "revise", "only published topics can be revised")
		}

		latest, err := u.GetLatestTopic(ctx, source.GroupID, source.Language)
		if err != nil {
			return err
		}
		if latest == nil || latest.ID != source.ID {
			return apperr.Conflict(source.ID, "a newer draft already exists")
		}
		cleared, err := u.ClearLatest(ctx, source.ID, actorID)
		if err != nil {
			return err
		}
		if !cleared {
			return apperr.Conflict(source.ID, "a newer draft already exists")
		}

		revision := &models.TopicVersion{
			GroupID:       source.GroupID,
			Language:      source.Language,
			Title:         source.Title,
			Summary:       source.Summary,
			Content:       source.Content,
			Accessibility: source.Accessibility,
			Metadata:      source.Metadata,
			Notes:         strings.TrimSpace(notes),
			Status:        models.StatusDraft,
			Version:       source.Version + 1,
			IsLatest:      true,
			SupersedesID:  &source.ID,
			CreatedBy:     actorID,
		}
		if err := u.CreateTopic(ctx, revision); err != nil {
			return err
		}
		from := models.StatusPublished
		if err := u.transition(ctx, revision, &from, "", revision.Notes, nil); err != nil {
			return err
		}

		result, err = aggregate(ctx, u, revision, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddComment appends a comment to a version's thread. Any status accepts
// comments.
func (e *Engine) AddComment(ctx context.Context, topicID, actorID string, in *CommentInput) (*models.Comment, error) {
	body, commentType, err := in.validate()
	if err != nil {
		e.finish("comment", time.Now(), nil, err)
		return nil, err
	}

	var comment *models.Comment
	err = e.run(ctx, "comment", actorID, func(u *unit) error {
		if _, err := u.GetTopic(ctx, topicID); err != nil {
			return err
		}
		comment = &models.Comment{TopicVersionID: topicID, ActorID: actorID, Type: commentType, Body: body}
		return u.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ArchiveGroup marks a group archived. Version statuses are unchanged.
func (e *Engine) ArchiveGroup(ctx context.Context, groupID, actorID string) (*models.TopicGroup, error) {
	return e.setArchived(ctx, "archive", groupID, actorID, true)
}

// RestoreGroup clears a group's archived mark.
func (e *Engine) RestoreGroup(ctx context.Context, groupID, actorID string) (*models.TopicGroup, error) {
	return e.setArchived(ctx, "restore", groupID, actorID, false)
}

func (e *Engine) setArchived(ctx context.Context, op, groupID, actorID string, archived bool) (*models.TopicGroup, error) {
	var group *models.TopicGroup
	err := e.run(ctx, op, actorID, func(u *unit) error {
		var err error
		if group, err = u.GetGroup(ctx, groupID); err != nil {
			return err
		}
		if group.Archived() == archived {
			return nil
		}
		group.Touch(actorID)
		if archived {
			at := group.UpdatedAt
			group.ArchivedAt = &at
		} else {
			group.ArchivedAt = nil
		}
		return u.UpdateGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}
