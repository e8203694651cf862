package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/topics"
)

// parseListParams reads listTopics filters from the query string.
// baseTopicId is accepted as an alias of groupId.
func parseListParams(q url.Values) (*topics.ListParams, error) {
	p := &topics.ListParams{
		Status:   q.Get("status"),
		Language: q.Get("language"),
		Tag:      q.Get("tag"),
		Search:   q.Get("search"),
		GroupID:  q.Get("groupId"),
	}
	if p.GroupID == "" {
		p.GroupID = q.Get("baseTopicId")
	}

	var err error
	if p.Page, err = intParam(q, "page"); err != nil {
		return nil, err
	}
	if p.PageSize, err = intParam(q, "pageSize"); err != nil {
		return nil, err
	}
	if p.Archived, err = boolParam(q, "archived"); err != nil {
		return nil, err
	}
	if p.IsLatest, err = boolParam(q, "isLatest"); err != nil {
		return nil, err
	}
	includeContent, err := boolParam(q, "includeContent")
	if err != nil {
		return nil, err
	}
	p.IncludeContent = includeContent != nil && *includeContent
	return p, nil
}

// intParam reads a positive integer. An absent parameter yields 0 so the
// engine applies its default; an explicit 0 is rejected.
func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalid("%s must be an integer", name).With("field", name)
	}
	if n < 1 {
		return 0, apperr.Invalid("%s must be at least 1", name).With("field", name)
	}
	return n, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Invalid("%s must be a boolean", name).With("field", name)
	}
	return &b, nil
}

// listTopics handles GET /api/topics
func (a *API) listTopics(r *request) (int, interface{}, error) {
	params, err := parseListParams(r.URL.Query())
	if err != nil {
		return 0, nil, err
	}
	result, err := a.engine.ListTopics(r.Context(), params)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, result, nil
}

// createTopic handles POST /api/topics
func (a *API) createTopic(r *request) (int, interface{}, error) {
	var in topics.TopicInput
	if err := decodeBody(r, &in); err != nil {
		return 0, nil, err
	}
	agg, err := a.engine.Create(r.Context(), r.actorID, &in)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, agg, nil
}

// getTopic handles GET /api/topics/:id
func (a *API) getTopic(r *request) (int, interface{}, error) {
	agg, err := a.engine.GetTopic(r.Context(), r.id())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, agg, nil
}

// updateTopic handles PUT /api/topics/:id
func (a *API) updateTopic(r *request) (int, interface{}, error) {
	var in topics.TopicInput
	if err := decodeBody(r, &in); err != nil {
		return 0, nil, err
	}
	agg, err := a.engine.Update(r.Context(), r.id(), r.actorID, &in)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, agg, nil
}

func (a *API) topicHistory(r *request) (int, interface{}, error) {
	history, err := a.engine.GetTopicHistory(r.Context(), r.id())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]interface{}{"items": history}, nil
}

// transitionBody is the optional payload of submit, publish and revisions.
type transitionBody struct {
	Comment string `json:"comment"`
	Notes   string `json:"notes"`
}

// submitTopic handles POST /api/topics/:id/submit
func (a *API) submitTopic(r *request) (int, interface{}, error) {
	var body transitionBody
	if err := decodeBody(r, &body); err != nil {
		return 0, nil, err
	}
	agg, err := a.engine.SubmitForReview(r.Context(), r.id(), r.actorID, body.Comment)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, agg, nil
}

// reviewTopic handles POST /api/topics/:id/review
func (a *API) reviewTopic(r *request) (int, interface{}, error) {
	var in topics.ReviewInput
	if err := decodeBody(r, &in); err != nil {
		return 0, nil, err
	}
	agg, err := a.engine.RecordReviewDecision(r.Context(), r.id(), r.actorID, &in)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, agg, nil
}

// publishTopic handles POST /api/topics/:id/publish
func (a *API) publishTopic(r *request) (int, interface{}, error) {
	var body transitionBody
	if err := decodeBody(r, &body); err != nil {
		return 0, nil, err
	}
	agg, err := a.engine.Publish(r.Context(), r.id(), r.actorID, body.Comment)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, agg, nil
}

// reviseTopic handles POST /api/topics/:id/revisions
func (a *API) reviseTopic(r *request) (int, interface{}, error) {
	var body transitionBody
	if err := decodeBody(r, &body); err != nil {
		return 0, nil, err
	}
	notes := body.Notes
	if notes == "" {
		notes = body.Comment
	}
	agg, err := a.engine.CreateRevision(r.Context(), r.id(), r.actorID, notes)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, agg, nil
}

func (a *API) topicEvents(r *request) (int, interface{}, error) {
	events, err := a.engine.ListWorkflowEvents(r.Context(), r.id())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]interface{}{"items": events}, nil
}

func (a *API) topicReviews(r *request) (int, interface{}, error) {
	reviews, err := a.engine.ListReviews(r.Context(), r.id())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]interface{}{"items": reviews}, nil
}

func (a *API) topicComments(r *request) (int, interface{}, error) {
	comments, err := a.engine.ListComments(r.Context(), r.id())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]interface{}{"items": comments}, nil
}

// addComment handles POST /api/topics/:id/comments
func (a *API) addComment(r *request) (int, interface{}, error) {
	var in topics.CommentInput
	if err := decodeBody(r, &in); err != nil {
		return 0, nil, err
	}
	comment, err := a.engine.AddComment(r.Context(), r.id(), r.actorID, &in)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, comment, nil
}
