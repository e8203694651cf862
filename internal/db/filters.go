// Package db provides topic listing filter building functionality.
package db

import (
	"strings"
)

// Filter represents a single listing filter condition over topic_versions
// (alias tv) joined to topic_groups (alias g).
type Filter interface {
	// SQL returns the SQL fragment for this filter
	SQL() string

	// Args returns the arguments for this filter
	Args() []interface{}

	// Valid checks if the filter is valid
	Valid() bool
}

// StatusFilter filters by exact workflow status.
type StatusFilter struct {
	Status string
}

func (f *StatusFilter) Valid() bool         { return f.Status != "" }
func (f *StatusFilter) SQL() string         { return "tv.status = ?" }
func (f *StatusFilter) Args() []interface{} { return []interface{}{f.Status} }

// LanguageFilter filters by normalized language code.
type LanguageFilter struct {
	Language string
}

func (f *LanguageFilter) Valid() bool         { return f.Language != "" }
func (f *LanguageFilter) SQL() string         { return "tv.language = ?" }
func (f *LanguageFilter) Args() []interface{} { return []interface{}{strings.ToLower(f.Language)} }

// GroupFilter restricts results to one topic group.
type GroupFilter struct {
	GroupID string
}

func (f *GroupFilter) Valid() bool         { return f.GroupID != "" }
func (f *GroupFilter) SQL() string         { return "tv.group_id = ?" }
func (f *GroupFilter) Args() []interface{} { return []interface{}{f.GroupID} }

// LatestFilter hides superseded versions.
type LatestFilter struct{}

func (f *LatestFilter) Valid() bool         { return true }
func (f *LatestFilter) SQL() string         { return "tv.is_latest = 1" }
func (f *LatestFilter) Args() []interface{} { return nil }

// ArchivedFilter selects versions by the archival state of their group.
type ArchivedFilter struct {
	Archived bool
}

func (f *ArchivedFilter) Valid() bool { return true }

func (f *ArchivedFilter) SQL() string {
	if f.Archived {
		return "g.archived_at IS NOT NULL"
	}
	return "g.archived_at IS NULL"
}

func (f *ArchivedFilter) Args() []interface{} { return nil }

// TagFilter matches versions whose group carries a tag, given by tag id or name.
type TagFilter struct {
	Tag string
}

func (f *TagFilter) Valid() bool {
	return strings.TrimSpace(f.Tag) != ""
}

func (f *TagFilter) SQL() string {
	return `tv.group_id IN (
		SELECT gt.group_id FROM topic_group_tags gt
		JOIN tags t ON t.id = gt.tag_id
		WHERE t.id = ? OR casefold(t.name) = ?)`
}

func (f *TagFilter) Args() []interface{} {
	tag := strings.TrimSpace(f.Tag)
	return []interface{}{tag, foldCase(tag)}
}

// SearchFilter is a case-insensitive substring match over title and summary.
type SearchFilter struct {
	Text string
}

func (f *SearchFilter) Valid() bool {
	return strings.TrimSpace(f.Text) != ""
}

func (f *SearchFilter) SQL() string {
	return `(casefold(tv.title) LIKE ? ESCAPE '\' OR casefold(tv.summary) LIKE ? ESCAPE '\')`
}

func (f *SearchFilter) Args() []interface{} {
	pattern := "%" + escapeLike(foldCase(strings.TrimSpace(f.Text))) + "%"
	return []interface{}{pattern, pattern}
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FilterBuilder builds SQL filter conditions from multiple filters.
type FilterBuilder struct {
	filters []Filter
}

// NewFilterBuilder creates a new FilterBuilder.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]Filter, 0),
	}
}

func (fb *FilterBuilder) add(filter Filter) *FilterBuilder {
	if filter.Valid() {
		fb.filters = append(fb.filters, filter)
	}
	return fb
}

// Status adds a status filter.
func (fb *FilterBuilder) Status(status string) *FilterBuilder {
	return fb.add(&StatusFilter{Status: status})
}

// Language adds a language filter.
func (fb *FilterBuilder) Language(language string) *FilterBuilder {
	return fb.add(&LanguageFilter{Language: language})
}

// Group adds a topic group filter.
func (fb *FilterBuilder) Group(groupID string) *FilterBuilder {
	return fb.add(&GroupFilter{GroupID: groupID})
}

// LatestOnly hides superseded versions.
func (fb *FilterBuilder) LatestOnly() *FilterBuilder {
	return fb.add(&LatestFilter{})
}

// Archived filters on the group's archival state.
func (fb *FilterBuilder) Archived(archived bool) *FilterBuilder {
	return fb.add(&ArchivedFilter{Archived: archived})
}

// Tag adds a tag membership filter.
func (fb *FilterBuilder) Tag(tag string) *FilterBuilder {
	return fb.add(&TagFilter{Tag: tag})
}

// Search adds a free-text filter over title and summary.
func (fb *FilterBuilder) Search(text string) *FilterBuilder {
	return fb.add(&SearchFilter{Text: text})
}

// HasFilters returns true if any filters have been added.
func (fb *FilterBuilder) HasFilters() bool {
	return len(fb.filters) > 0
}

// Build builds the SQL WHERE clause and returns the arguments.
func (fb *FilterBuilder) Build() (string, []interface{}) {
	if !fb.HasFilters() {
		return "", nil
	}

	var sqlParts []string
	var args []interface{}
	for _, filter := range fb.filters {
		sqlParts = append(sqlParts, filter.SQL())
		args = append(args, filter.Args()...)
	}
	return strings.Join(sqlParts, " AND "), args
}
