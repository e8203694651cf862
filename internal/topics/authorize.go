package topics

import (
	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
)

// Operation names an engine operation for capability checks.
type Operation string

const (
	OpRead        Operation = "topic:read"
	OpCreate      Operation = "topic:create"
	OpUpdate      Operation = "topic:update"
	OpSubmit      Operation = "topic:submit"
	OpReview      Operation = "topic:review"
	OpPublish     Operation = "topic:publish"
	OpRevise      Operation = "topic:revise"
	OpComment     Operation = "topic:comment"
	OpArchive     Operation = "group:archive"
	OpRestore     Operation = "group:restore"
	OpBrowseTags  Operation = "tag:list"
	OpReadGroup   Operation = "group:read"
	OpListTopics  Operation = "topic:list"
	OpReadHistory Operation = "topic:history"
)

// CapabilityFunc decides whether actorID may perform op on resourceID.
// The engine never calls it; the transport boundary does, before invoking
// an engine operation. resourceID is empty for collection operations.
type CapabilityFunc func(actorID string, op Operation, resourceID string) bool

// AllowAll grants every operation.
func AllowAll(string, Operation, string) bool { return true }

// Check returns a PERMISSION_DENIED error when f refuses the operation.
// A nil CapabilityFunc allows everything.
func (f CapabilityFunc) Check(actorID string, op Operation, resourceID string) error {
	if f == nil || f(actorID, op, resourceID) {
		return nil
	}
	err := apperr.Newf(apperr.ErrPermission, "actor %s may not perform %s", actorID, op)
	if resourceID != "" {
		err = err.With("id", resourceID)
	}
	return err
}
