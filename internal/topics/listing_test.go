package topics

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/models"
)

func TestListTopics(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	published := f.publishNew(t)
	_, err := f.engine.CreateRevision(ctx, published.ID, author, "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		in := fractionsInput()
		in.Title = strPtr(fmt.Sprintf("Decimals %d", i))
		in.Language = "pt-BR"
		in.Tags = tagsPtr(TagInput{Name: "decimals"})
		f.create(t, in)
	}

	t.Run("latest only by default", func(t *testing.T) {
		result, err := f.engine.ListTopics(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, result.Total)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 20, result.PageSize)
		for _, item := range result.Items {
			assert.True(t, item.IsLatest)
			assert.True(t, item.Content.IsZero(), "content elided")
		}
	})

	t.Run("history included", func(t *testing.T) {
		result, err := f.engine.ListTopics(ctx, &ListParams{IsLatest: new(bool)})
		require.NoError(t, err)
		assert.Equal(t, 5, result.Total)
	})

	t.Run("status filter", func(t *testing.T) {
		notLatest := false
		result, err := f.engine.ListTopics(ctx, &ListParams{Status: "published", IsLatest: &notLatest})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, published.ID, result.Items[0].ID)
	})

	t.Run("language filter", func(t *testing.T) {
		result, err := f.engine.ListTopics(ctx, &ListParams{Language: "PT-br"})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Total)
	})

	t.Run("tag and search", func(t *testing.T) {
		result, err := f.engine.ListTopics(ctx, &ListParams{Tag: "Decimals", Search: "mals 1"})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, "Decimals 1", result.Items[0].Title)
	})

	t.Run("group filter", func(t *testing.T) {
		result, err := f.engine.ListTopics(ctx, &ListParams{GroupID: published.GroupID, IsLatest: new(bool)})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
	})

	t.Run("paging with content", func(t *testing.T) {
		result, err := f.engine.ListTopics(ctx, &ListParams{Page: 2, PageSize: 3, IncludeContent: true})
		require.NoError(t, err)
		assert.Equal(t, 4, result.Total)
		require.Len(t, result.Items, 1)
		assert.False(t, result.Items[0].Content.IsZero())
	})

	t.Run("empty page", func(t *testing.T) {
		result, err := f.engine.ListTopics(ctx, &ListParams{Page: 9})
		require.NoError(t, err)
		assert.NotNil(t, result.Items)
		assert.Empty(t, result.Items)
	})

	t.Run("invalid params", func(t *testing.T) {
		bad := []*ListParams{
			{Page: -1},
			{PageSize: 101},
			{PageSize: -5},
			{Status: "LOST"},
			{Language: "??"},
		}
		for _, p := range bad {
			_, err := f.engine.ListTopics(ctx, p)
			assert.True(t, apperr.Is(err, apperr.ErrInvalid), "params %+v: got %v", p, err)
		}
	})
}

func TestListTopics_customPageSizes(t *testing.T) {
	f := setup(t)
	engine := NewEngine(f.repo, &Config{DefaultPageSize: 5, MaxPageSize: 10})

	result, err := engine.ListTopics(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 5, result.PageSize)

	_, err = engine.ListTopics(context.Background(), &ListParams{PageSize: 11})
	assert.True(t, apperr.Is(err, apperr.ErrInvalid))
}

func TestListTopics_unicodeCaseInsensitive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := fractionsInput()
	in.Title = strPtr("Étude des fractions")
	in.Language = "fr"
	in.Tags = tagsPtr(TagInput{Name: "Éducation"})
	created := f.create(t, in)

	for _, search := range []string{"étude", "ÉTUDE", "Étude"} {
		result, err := f.engine.ListTopics(ctx, &ListParams{Search: search})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total, "search %q", search)
		assert.Equal(t, created.ID, result.Items[0].ID)
	}

	for _, tag := range []string{"éducation", "ÉDUCATION"} {
		result, err := f.engine.ListTopics(ctx, &ListParams{Tag: tag})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total, "tag %q", tag)
		assert.Equal(t, created.ID, result.Items[0].ID)
	}
}

func TestGetGroup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := fractionsInput()
	in.Group = &GroupInput{Summary: strPtr("Fractions unit")}
	in.Alignments = alignmentsPtr(AlignmentInput{Framework: "CCSS", StandardCode: "3.NF.A.1"})
	topic := f.create(t, in)

	view, err := f.engine.GetGroup(ctx, topic.GroupID)
	require.NoError(t, err)
	assert.Equal(t, "Fractions unit", view.Summary)
	assert.Len(t, view.Alignments, 1)
	assert.Empty(t, view.Tags)
	require.Len(t, view.Topics, 1)
	assert.Equal(t, topic.ID, view.Topics[0].ID)

	_, err = f.engine.GetGroup(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestListTags(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := fractionsInput()
	in.Tags = tagsPtr(TagInput{Name: "fractions"}, TagInput{Name: "maths", Type: "subject"})
	f.create(t, in)

	all, err := f.engine.ListTags(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	subjects, err := f.engine.ListTags(ctx, " Subject ")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "maths", subjects[0].Name)

	none, err := f.engine.ListTags(ctx, "grade")
	require.NoError(t, err)
	assert.Equal(t, []*models.Tag{}, none)
}
