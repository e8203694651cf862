package models

import (
	"fmt"
	"strings"
)

// Status is the workflow status of a topic version.
type Status string

const (
	StatusDraft            Status = "DRAFT"
	StatusInReview         Status = "IN_REVIEW"
	StatusChangesRequested Status = "CHANGES_REQUESTED"
	StatusApproved         Status = "APPROVED"
	StatusPublished        Status = "PUBLISHED"

	// StatusArchived is part of the stored vocabulary; no operation sets it.
	StatusArchived Status = "ARCHIVED"
)

var knownStatuses = map[Status]bool{
	StatusDraft:            true,
	StatusInReview:         true,
	StatusChangesRequested: true,
	StatusApproved:         true,
	StatusPublished:        true,
	StatusArchived:         true,
}

// ParseStatus normalizes a case-insensitive status name.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !knownStatuses[status] {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

// Editable reports whether content may change in this status.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusChangesRequested
}

func (s Status) String() string {
	return string(s)
}

// transitions lists the status changes the engine performs on a single
// version. PUBLISHED -> DRAFT happens on a new version via revision and is
// not listed.
var transitions = map[Status][]Status{
	StatusDraft:            {StatusInReview},
	StatusChangesRequested: {StatusInReview},
	StatusInReview:         {StatusApproved, StatusChangesRequested},
	StatusApproved:         {StatusPublished},
}

// CanTransition reports whether a version may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Decision is the outcome of a review.
type Decision string

const (
	DecisionApproved         Decision = "APPROVED"
	DecisionChangesRequested Decision = "CHANGES_REQUESTED"
)

var decisionSpellings = map[string]Decision{
	"approve":           DecisionApproved,
	"approved":          DecisionApproved,
	"changes_requested": DecisionChangesRequested,
	"request_changes":   DecisionChangesRequested,
}

// ParseDecision accepts both spellings of each outcome, case-insensitively.
func ParseDecision(s string) (Decision, error) {
	if d, ok := decisionSpellings[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unrecognized review decision %q", s)
}

// Status returns the status a version moves to on this decision.
func (d Decision) Status() Status {
	if d == DecisionApproved {
		return StatusApproved
	}
	return StatusChangesRequested
}
