// Package models tests for data model definitions.
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================================================
// JSON Type Tests
// =====================================================

func TestJSON_Scan(t *testing.T) {
	var j JSON
	require.NoError(t, j.Scan(`{"a":1}`))
	assert.Equal(t, JSON(`{"a":1}`), j)

	require.NoError(t, j.Scan([]byte(`[1,2]`)))
	assert.Equal(t, JSON(`[1,2]`), j)

	require.NoError(t, j.Scan(nil))
	assert.True(t, j.IsZero())

	assert.Error(t, j.Scan(42))
}

func TestJSON_ValueAndMarshal(t *testing.T) {
	v, err := JSON(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = JSON(`{"x":true}`).Value()
	require.NoError(t, err)
	assert.Equal(t, `{"x":true}`, v)

	out, err := json.Marshal(struct {
		M JSON `json:"m"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"m":null}`, string(out))
}

func TestJSON_Equal(t *testing.T) {
	assert.True(t, JSON(`{"a":1,"b":2}`).Equal(JSON(`{ "b":2, "a":1 }`)))
	assert.False(t, JSON(`{"a":1}`).Equal(JSON(`{"a":2}`)))
	assert.True(t, JSON(nil).Equal(JSON("")))
	assert.False(t, JSON(nil).Equal(JSON(`{}`)))
}

// =====================================================
// Content Union Tests
// =====================================================

func TestDecodeContent(t *testing.T) {
	tests := []struct {
		name    string
		format  ContentFormat
		raw     string
		want    Content
		wantErr bool
	}{
		{"json object", FormatJSON, `{"blocks":[]}`, JSONContent(JSON(`{"blocks":[]}`)), false},
		{"inferred json", "", `{"blocks":[]}`, JSONContent(JSON(`{"blocks":[]}`)), false},
		{"inferred html", "", `"<p>Hi</p>"`, HTMLContent("<p>Hi</p>"), false},
		{"explicit html", FormatHTML, `"<p>Hi</p>"`, HTMLContent("<p>Hi</p>"), false},
		{"html must be string", FormatHTML, `{"a":1}`, Content{}, true},
		{"missing", FormatJSON, ``, Content{}, true},
		{"null", "", `null`, Content{}, true},
		{"blank html", FormatHTML, `"  "`, Content{}, true},
		{"invalid json", FormatJSON, `{"a":`, Content{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeContent(tt.format, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContent_storedRoundTrip(t *testing.T) {
	html := HTMLContent("<h1>Fractions</h1>")
	assert.Equal(t, html, StoredContent(string(html.Format), html.Raw()))

	doc := JSONContent(JSON(`{"type":"doc"}`))
	assert.Equal(t, doc, StoredContent(string(doc.Format), doc.Raw()))
}

func TestTopicVersion_MarshalJSON(t *testing.T) {
	topic := TopicVersion{
		ID:       "t-1",
		Title:    "Fractions",
		Status:   StatusDraft,
		Version:  1,
		IsLatest: true,
		Content:  HTMLContent("<p>Halves</p>"),
	}
	out, err := json.Marshal(&topic)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "HTML", decoded["contentFormat"])
	assert.Equal(t, "<p>Halves</p>", decoded["content"])
	assert.Equal(t, "DRAFT", decoded["status"])
	assert.Equal(t, true, decoded["isLatest"])

	topic.Content = Content{Format: FormatJSON}
	out, err = json.Marshal(topic)
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "JSON", decoded["contentFormat"])
	assert.NotContains(t, decoded, "content")
}

// =====================================================
// Status and Decision Tests
// =====================================================

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("in_review")
	require.NoError(t, err)
	assert.Equal(t, StatusInReview, s)

	_, err = ParseStatus("pending")
	assert.Error(t, err)
}

func TestStatus_Editable(t *testing.T) {
	assert.True(t, StatusDraft.Editable())
	assert.True(t, StatusChangesRequested.Editable())
	assert.False(t, StatusInReview.Editable())
	assert.False(t, StatusApproved.Editable())
	assert.False(t, StatusPublished.Editable())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusInReview))
	assert.True(t, CanTransition(StatusChangesRequested, StatusInReview))
	assert.True(t, CanTransition(StatusInReview, StatusApproved))
	assert.True(t, CanTransition(StatusInReview, StatusChangesRequested))
	assert.True(t, CanTransition(StatusApproved, StatusPublished))

	assert.False(t, CanTransition(StatusDraft, StatusPublished))
	assert.False(t, CanTransition(StatusPublished, StatusArchived))
	assert.False(t, CanTransition(StatusArchived, StatusDraft))
}

func TestParseDecision(t *testing.T) {
	for _, in := range []string{"approve", "APPROVED", " Approve "} {
		d, err := ParseDecision(in)
		require.NoError(t, err, in)
		assert.Equal(t, DecisionApproved, d)
		assert.Equal(t, StatusApproved, d.Status())
	}
	for _, in := range []string{"changes_requested", "REQUEST_CHANGES"} {
		d, err := ParseDecision(in)
		require.NoError(t, err, in)
		assert.Equal(t, DecisionChangesRequested, d)
		assert.Equal(t, StatusChangesRequested, d.Status())
	}
	_, err := ParseDecision("reject")
	assert.Error(t, err)
}

func TestParseCommentType(t *testing.T) {
	ct, err := ParseCommentType("")
	require.NoError(t, err)
	assert.Equal(t, CommentGeneral, ct)

	ct, err = ParseCommentType("editorial")
	require.NoError(t, err)
	assert.Equal(t, CommentEditorial, ct)

	_, err = ParseCommentType("legal")
	assert.Error(t, err)
}
