package topics

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/models"
	"github.com/kimhsiao/topicflow/backend/internal/parser"
)

// Field limits, counted in characters.
const (
	MaxTitleLength   = 240
	MaxSummaryLength = 560
)

// TopicInput is the create and update payload. Pointer and slice-pointer
// fields distinguish "absent" from "set to empty": on update an absent
// field is left alone, while an empty tags list removes every binding.
type TopicInput struct {
	Title         *string           `json:"title"`
	Summary       *string           `json:"summary"`
	Language      string            `json:"language"`
	ContentFormat string            `json:"contentFormat"`
	Content       json.RawMessage   `json:"content"`
	Accessibility models.JSON       `json:"accessibility"`
	Metadata      models.JSON       `json:"metadata"`
	Tags          *[]TagInput       `json:"tags"`
	Alignments    *[]AlignmentInput `json:"alignments"`
	Notes         *string           `json:"notes"`
	ChangeNotes   *string           `json:"changeNotes"`
	GroupID       string            `json:"groupId"`
	BaseTopicID   string            `json:"baseTopicId"`
	Group         *GroupInput       `json:"group"`
}

// GroupInput carries group-level fields shared by every language variant.
type GroupInput struct {
	Summary  *string     `json:"summary"`
	Metadata models.JSON `json:"metadata"`
}

// TagInput describes a desired tag. It decodes from either a bare string
// or an object.
type TagInput struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description *string     `json:"description"`
	Metadata    models.JSON `json:"metadata"`
}

// UnmarshalJSON accepts "name" as shorthand for {"name": "name"}.
func (t *TagInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		*t = TagInput{Name: name}
		return nil
	}
	type plain TagInput
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*t = TagInput(p)
	return nil
}

// Key returns the deduplication key of the tag after normalization.
func (t TagInput) Key() models.TagKey {
	return models.TagKey{Type: t.Type, Name: t.Name}
}

// AlignmentInput describes a desired curriculum alignment. An empty ID
// creates a new alignment.
type AlignmentInput struct {
	ID           string      `json:"id"`
	Framework    string      `json:"framework"`
	Subject      string      `json:"subject"`
	StandardCode string      `json:"standardCode"`
	GradeLevel   string      `json:"gradeLevel"`
	Description  string      `json:"description"`
	Metadata     models.JSON `json:"metadata"`
}

// ReviewInput is the review decision payload.
type ReviewInput struct {
	Decision string         `json:"decision"`
	Notes    string         `json:"notes"`
	Comment  string         `json:"comment"`
	Metadata models.JSON    `json:"metadata"`
	Updates  *ReviewUpdates `json:"updates"`
	Tags     *[]TagInput    `json:"tags"`
}

// ReviewUpdates are the edits a reviewer may apply along with a decision.
// Content is not among them.
type ReviewUpdates struct {
	Title         *string         `json:"title"`
	Summary       *string         `json:"summary"`
	Metadata      models.JSON     `json:"metadata"`
	Accessibility models.JSON     `json:"accessibility"`
	Content       json.RawMessage `json:"content"`
}

// CommentInput is the addComment payload.
type CommentInput struct {
	Body string `json:"body"`
	Type string `json:"type"`
}

// NormalizeLanguage validates a BCP 47 language code and lowercases it.
// Empty input returns "" without error.
func NormalizeLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", apperr.Invalid("invalid language code %q", code)
	}
	return strings.ToLower(tag.String()), nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.Invalid("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperr.Invalid("title must be at most %d characters", MaxTitleLength)
	}
	return title, nil
}

func validateSummary(summary string) (string, error) {
	summary = strings.TrimSpace(summary)
	if utf8.RuneCountInString(summary) > MaxSummaryLength {
		return "", apperr.Invalid("summary must be at most %d characters", MaxSummaryLength)
	}
	return summary, nil
}

// normalizeObject compacts an opaque object field. Absent stays absent.
func normalizeObject(field string, doc models.JSON) (models.JSON, error) {
	if doc.IsZero() {
		return nil, nil
	}
	if !doc.IsObject() {
		return nil, apperr.Invalid("%s must be a JSON object", field)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return nil, apperr.Invalid("%s is not valid JSON", field)
	}
	return models.JSON(buf.Bytes()), nil
}

func decodeContent(format string, raw json.RawMessage) (models.Content, error) {
	f, err := models.ParseContentFormat(format)
	if err != nil {
		return models.Content{}, apperr.Invalid("%v", err)
	}
	content, err := models.DecodeContent(f, raw)
	if err != nil {
		return models.Content{}, apperr.Invalid("%v", err)
	}
	if content.Format == models.FormatHTML {
		frag, err := parser.ParseHTML(content.HTML)
		if err != nil {
			return models.Content{}, apperr.Invalid("invalid HTML content: %v", err)
		}
		if !frag.HasBody() {
			return models.Content{}, apperr.Invalid("content is required")
		}
	}
	return content, nil
}

// resolveGroupID merges the groupId and baseTopicId aliases.
func resolveGroupID(groupID, baseTopicID string) (string, error) {
	groupID = strings.TrimSpace(groupID)
	baseTopicID = strings.TrimSpace(baseTopicID)
	switch {
	case groupID == "":
		return baseTopicID, nil
	case baseTopicID == "" || baseTopicID == groupID:
		return groupID, nil
	default:
		return "", apperr.Invalid("groupId and baseTopicId disagree")
	}
}

// notes merges the notes and changeNotes aliases, preferring notes.
func (in *TopicInput) notes() *string {
	if in.Notes != nil {
		return in.Notes
	}
	return in.ChangeNotes
}

func normalizeTags(tags []TagInput) ([]TagInput, error) {
	seen := make(map[models.TagKey]bool, len(tags))
	out := make([]TagInput, 0, len(tags))
	for _, tag := range tags {
		tag.Name = strings.TrimSpace(tag.Name)
		tag.Type = strings.ToLower(strings.TrimSpace(tag.Type))
		if tag.Name == "" {
			return nil, apperr.Invalid("tag name is required")
		}
		if tag.Type == "" {
			tag.Type = models.DefaultTagType
		}
		meta, err := normalizeObject("tag metadata", tag.Metadata)
		if err != nil {
			return nil, err
		}
		tag.Metadata = meta
		if seen[tag.Key()] {
			continue
		}
		seen[tag.Key()] = true
		out = append(out, tag)
	}
	return out, nil
}

func normalizeAlignments(alignments []AlignmentInput) ([]AlignmentInput, error) {
	out := make([]AlignmentInput, 0, len(alignments))
	for i, a := range alignments {
		a.ID = strings.TrimSpace(a.ID)
		a.Framework = strings.TrimSpace(a.Framework)
		a.StandardCode = strings.TrimSpace(a.StandardCode)
		a.Subject = strings.TrimSpace(a.Subject)
		a.GradeLevel = strings.TrimSpace(a.GradeLevel)
		if a.Framework == "" || a.StandardCode == "" {
			return nil, apperr.Invalid("alignment %d: framework and standardCode are required", i)
		}
		meta, err := normalizeObject("alignment metadata", a.Metadata)
		if err != nil {
			return nil, err
		}
		a.Metadata = meta
		out = append(out, a)
	}
	return out, nil
}

// topicChanges is a validated TopicInput.
type topicChanges struct {
	title         *string
	summary       *string
	language      string
	content       *models.Content
	accessibility models.JSON
	metadata      models.JSON
	notes         *string
	groupID       string
	groupSummary  *string
	groupMetadata models.JSON
	tags          *[]TagInput
	alignments    *[]AlignmentInput
}

// validate checks the payload. On create title and content are required.
func (in *TopicInput) validate(creating bool) (*topicChanges, error) {
	if in == nil {
		return nil, apperr.Invalid("payload is required")
	}
	var c topicChanges
	var err error

	if in.Title != nil || creating {
		var title string
		if in.Title != nil {
			title = *in.Title
		}
		if title, err = validateTitle(title); err != nil {
			return nil, err
		}
		c.title = &title
	}
	if in.Summary != nil {
		summary, err := validateSummary(*in.Summary)
		if err != nil {
			return nil, err
		}
		c.summary = &summary
	}
	if c.language, err = NormalizeLanguage(in.Language); err != nil {
		return nil, err
	}
	if len(in.Content) > 0 || creating {
		content, err := decodeContent(in.ContentFormat, in.Content)
		if err != nil {
			return nil, err
		}
		c.content = &content
	} else if in.ContentFormat != "" {
		return nil, apperr.Invalid("contentFormat given without content")
	}
	if c.accessibility, err = normalizeObject("accessibility", in.Accessibility); err != nil {
		return nil, err
	}
	if c.metadata, err = normalizeObject("metadata", in.Metadata); err != nil {
		return nil, err
	}
	c.notes = in.notes()
	if c.groupID, err = resolveGroupID(in.GroupID, in.BaseTopicID); err != nil {
		return nil, err
	}
	if in.Group != nil {
		if in.Group.Summary != nil {
			summary, err := validateSummary(*in.Group.Summary)
			if err != nil {
				return nil, err
			}
			c.groupSummary = &summary
		}
		if c.groupMetadata, err = normalizeObject("group metadata", in.Group.Metadata); err != nil {
			return nil, err
		}
	}
	if in.Tags != nil {
		tags, err := normalizeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		c.tags = &tags
	}
	if in.Alignments != nil {
		alignments, err := normalizeAlignments(*in.Alignments)
		if err != nil {
			return nil, err
		}
		c.alignments = &alignments
	}
	return &c, nil
}

// reviewChanges is a validated ReviewInput.
type reviewChanges struct {
	decision      models.Decision
	comment       string
	metadata      models.JSON
	title         *string
	summary       *string
	topicMetadata models.JSON
	accessibility models.JSON
	tags          *[]TagInput
}

func (in *ReviewInput) validate() (*reviewChanges, error) {
	if in == nil {
		return nil, apperr.Invalid("payload is required")
	}
	decision, err := models.ParseDecision(in.Decision)
	if err != nil {
		return nil, apperr.Invalid("%v", err)
	}
	c := reviewChanges{decision: decision, comment: strings.TrimSpace(in.Notes)}
	if c.comment == "" {
		c.comment = strings.TrimSpace(in.Comment)
	}
	if c.metadata, err = normalizeObject("review metadata", in.Metadata); err != nil {
		return nil, err
	}
	if u := in.Updates; u != nil {
		if len(bytes.TrimSpace(u.Content)) > 0 {
			return nil, apperr.Invalid("content cannot be changed during review")
		}
		if u.Title != nil {
			title, err := validateTitle(*u.Title)
			if err != nil {
				return nil, err
			}
			c.title = &title
		}
		if u.Summary != nil {
			summary, err := validateSummary(*u.Summary)
			if err != nil {
				return nil, err
			}
			c.summary = &summary
		}
		if c.topicMetadata, err = normalizeObject("metadata", u.Metadata); err != nil {
			return nil, err
		}
		if c.accessibility, err = normalizeObject("accessibility", u.Accessibility); err != nil {
			return nil, err
		}
	}
	if in.Tags != nil {
		tags, err := normalizeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		c.tags = &tags
	}
	return &c, nil
}

func (in *CommentInput) validate() (string, models.CommentType, error) {
	if in == nil {
		return "", "", apperr.Invalid("payload is required")
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return "", "", apperr.Invalid("comment body is required")
	}
	commentType, err := models.ParseCommentType(in.Type)
	if err != nil {
		return "", "", apperr.Invalid("%v", err)
	}
	return body, commentType, nil
}
