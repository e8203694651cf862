package topics

import (
	"context"

	"github.com/kimhsiao/topicflow/backend/internal/db"
	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/models"
	"github.com/kimhsiao/topicflow/backend/internal/reconcile"
)

// syncTags makes the group's bindings equal to desired. Every desired tag
// is upserted into the shared catalog first, so description and metadata
// changes apply globally. Tags are never deleted from the catalog.
func syncTags(ctx context.Context, s db.Store, groupID, actorID string, desired []TagInput) (int, error) {
	ids := make([]string, 0, len(desired))
	for _, in := range desired {
		tag, err := s.UpsertTag(ctx, in.Name, in.Type, in.Description, in.Metadata)
		if err != nil {
			return 0, err
		}
		ids = append(ids, tag.ID)
	}

	existing, err := s.ListGroupTagIDs(ctx, groupID)
	if err != nil {
		return 0, err
	}

	plan := reconcile.Reconcile(existing, ids)
	for _, tagID := range plan.ToRemove {
		if err := s.UnbindTag(ctx, groupID, tagID); err != nil {
			return 0, err
		}
	}
	for _, tagID := range plan.ToAdd {
		binding := &models.TopicGroupTag{GroupID: groupID, TagID: tagID, AssignedBy: actorID}
		if err := s.BindTag(ctx, binding); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// syncAlignments replaces the group's alignments with desired: entries with
// an id update that alignment, entries without one are created, and stored
// alignments missing from desired are deleted.
func syncAlignments(ctx context.Context, s db.Store, groupID, actorID string, desired []AlignmentInput) error {
	existing, err := s.ListAlignments(ctx, groupID)
	if err != nil {
		return err
	}
	byID := make(map[string]*models.CurriculumAlignment, len(existing))
	existingIDs := make([]string, 0, len(existing))
	for _, a := range existing {
		byID[a.ID] = a
		existingIDs = append(existingIDs, a.ID)
	}

	var desiredIDs []string
	for _, in := range desired {
		if in.ID == "" {
			continue
		}
		if _, ok := byID[in.ID]; !ok {
			return apperr.NotFound("curriculum alignment", in.ID).With("groupId", groupID)
		}
		desiredIDs = append(desiredIDs, in.ID)
	}

	plan := reconcile.Reconcile(existingIDs, desiredIDs)
	for _, id := range plan.ToRemove {
		if err := s.DeleteAlignment(ctx, groupID, id); err != nil {
			return err
		}
	}

	for _, in := range desired {
		if in.ID != "" {
			a := byID[in.ID]
			a.Framework = in.Framework
			a.Subject = in.Subject
			a.StandardCode = in.StandardCode
			a.GradeLevel = in.GradeLevel
			a.Description = in.Description
			a.Metadata = in.Metadata
			a.UpdatedBy = actorID
			if err := s.UpdateAlignment(ctx, a); err != nil {
				return err
			}
			continue
		}
		a := &models.CurriculumAlignment{
			GroupID:      groupID,
			Framework:    in.Framework,
			Subject:      in.Subject,
			StandardCode: in.StandardCode,
			GradeLevel:   in.GradeLevel,
			Description:  in.Description,
			Metadata:     in.Metadata,
			CreatedBy:    actorID,
		}
		if err := s.CreateAlignment(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
