package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimhsiao/topicflow/backend/internal/db"
	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/logging"
	"github.com/kimhsiao/topicflow/backend/internal/telemetry"
	"github.com/kimhsiao/topicflow/backend/internal/topics"
)

const (
	author   = "author-1"
	reviewer = "reviewer-1"
)

type testServer struct {
	router   *httprouter.Router
	database *db.DB
}

func setupServer(t *testing.T, can topics.CapabilityFunc) *testServer {
	t.Helper()
	database, err := db.OpenAndMigrate(":memory:")
	require.NoError(t, err)
	repo := db.NewRepository(database.DB)
	t.Cleanup(func() {
		repo.Close()
		database.Close()
	})

	metrics := telemetry.New()
	engine := topics.NewEngine(repo, &topics.Config{Logger: logging.Nop(), Metrics: metrics})
	api := NewAPI(engine, Options{
		Can:     can,
		Health:  func(ctx context.Context) error { return database.PingContext(ctx) },
		Metrics: metrics.Handler(),
		Logger:  logging.Nop(),
	})
	return &testServer{router: api.Router(), database: database}
}

func (s *testServer) do(t *testing.T, method, path, actor string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type topicResponse struct {
	Topic struct {
		ID       string `json:"id"`
		GroupID  string `json:"groupId"`
		Status   string `json:"status"`
		Version  int    `json:"version"`
		IsLatest bool   `json:"isLatest"`
		Title    string `json:"title"`
	} `json:"topic"`
	Tags []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"tags"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createTopic(t *testing.T) topicResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/topics", author, map[string]interface{}{
		"title":    "Fractions",
		"summary":  "Parts of a whole",
		"language": "en",
		"content":  map[string]interface{}{"blocks": []interface{}{}},
		"tags":     []interface{}{"math", map[string]string{"name": "Grade 4", "type": "level"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[topicResponse](t, rec)
}

func TestHealthCheck(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","service":"topicd"}`, rec.Body.String())

	s.database.Close()
	rec = s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t, nil)
	s.createTopic(t)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "topicflow_workflow_transitions_total")
}

func TestMissingActor(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/topics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, apperr.ErrPermission, resp.Error.Code)
}

func TestCapabilityDenied(t *testing.T) {
	can := func(actorID string, op topics.Operation, _ string) bool {
		return op != topics.OpPublish || actorID == reviewer
	}
	s := setupServer(t, can)
	created := s.createTopic(t)
	id := created.Topic.ID

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/topics/"+id+"/submit", author, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/topics/"+id+"/review", reviewer,
		map[string]string{"decision": "approved"}).Code)

	rec := s.do(t, http.MethodPost, "/api/topics/"+id+"/publish", author, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, apperr.ErrPermission, resp.Error.Code)
	assert.Equal(t, id, resp.Error.Details["id"])

	rec = s.do(t, http.MethodPost, "/api/topics/"+id+"/publish", reviewer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkflowOverHTTP(t *testing.T) {
	s := setupServer(t, nil)
	created := s.createTopic(t)
	id := created.Topic.ID

	assert.Equal(t, "DRAFT", created.Topic.Status)
	assert.Equal(t, 1, created.Topic.Version)
	assert.True(t, created.Topic.IsLatest)
	assert.Len(t, created.Tags, 2)

	rec := s.do(t, http.MethodPut, "/api/topics/"+id, author, map[string]string{"title": "Fractions and decimals"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Fractions and decimals", decode[topicResponse](t, rec).Topic.Title)

	rec = s.do(t, http.MethodPost, "/api/topics/"+id+"/submit", author, map[string]string{"comment": "ready"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "IN_REVIEW", decode[topicResponse](t, rec).Topic.Status)

	rec = s.do(t, http.MethodPost, "/api/topics/"+id+"/review", reviewer, map[string]string{"decision": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "APPROVED", decode[topicResponse](t, rec).Topic.Status)

	rec = s.do(t, http.MethodPost, "/api/topics/"+id+"/publish", reviewer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PUBLISHED", decode[topicResponse](t, rec).Topic.Status)

	rec = s.do(t, http.MethodPost, "/api/topics/"+id+"/revisions", author, map[string]string{"notes": "second pass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	revision := decode[topicResponse](t, rec)
	assert.Equal(t, 2, revision.Topic.Version)
	assert.Equal(t, "DRAFT", revision.Topic.Status)
	assert.Equal(t, created.Topic.GroupID, revision.Topic.GroupID)

	rec = s.do(t, http.MethodGet, "/api/topics/"+id+"/history", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Items []struct {
			Version int `json:"version"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, history.Items, 2)
	assert.Equal(t, 2, history.Items[0].Version)

	rec = s.do(t, http.MethodGet, "/api/topics/"+id+"/events", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[struct {
		Items []struct {
			ToStatus string `json:"toStatus"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, events.Items, 4)
	assert.Equal(t, "PUBLISHED", events.Items[3].ToStatus)

	rec = s.do(t, http.MethodGet, "/api/topics/"+id+"/reviews", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"decision":"APPROVED"`)
}

func TestUpdateOutsideDraftIsInvalidState(t *testing.T) {
	s := setupServer(t, nil)
	id := s.createTopic(t).Topic.ID
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/topics/"+id+"/submit", author, nil).Code)

	rec := s.do(t, http.MethodPut, "/api/topics/"+id, author, map[string]string{"title": "Too late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, apperr.ErrInvalidState, resp.Error.Code)
	assert.Equal(t, "IN_REVIEW", resp.Error.Details["status"])
	assert.Equal(t, id, resp.Error.Details["id"])
}

func TestErrorMapping(t *testing.T) {
	s := setupServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   apperr.ErrorCode
	}{
		{"unknown topic", http.MethodGet, "/api/topics/missing", nil, http.StatusNotFound, apperr.ErrNotFound},
		{"unknown group", http.MethodGet, "/api/groups/missing", nil, http.StatusNotFound, apperr.ErrNotFound},
		{"malformed body", http.MethodPost, "/api/topics", "{not json", http.StatusBadRequest, apperr.ErrInvalid},
		{"missing title", http.MethodPost, "/api/topics", map[string]string{"summary": "x"}, http.StatusBadRequest, apperr.ErrInvalid},
		{"bad page", http.MethodGet, "/api/topics?page=abc", nil, http.StatusBadRequest, apperr.ErrInvalid},
		{"negative page", http.MethodGet, "/api/topics?page=-1", nil, http.StatusBadRequest, apperr.ErrInvalid},
		{"zero page", http.MethodGet, "/api/topics?page=0", nil, http.StatusBadRequest, apperr.ErrInvalid},
		{"zero page size", http.MethodGet, "/api/topics?pageSize=0", nil, http.StatusBadRequest, apperr.ErrInvalid},
		{"oversized page", http.MethodGet, "/api/topics?pageSize=1000", nil, http.StatusBadRequest, apperr.ErrInvalid},
		{"bad status", http.MethodGet, "/api/topics?status=LOST", nil, http.StatusBadRequest, apperr.ErrInvalid},
		{"bad boolean", http.MethodGet, "/api/topics?archived=maybe", nil, http.StatusBadRequest, apperr.ErrInvalid},
		{"empty comment", http.MethodPost, "/api/topics/missing/comments", map[string]string{"body": ""}, http.StatusBadRequest, apperr.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, author, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[errorResponse](t, rec).Error.Code)
		})
	}
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	s := setupServer(t, nil)
	s.database.Close()

	rec := s.do(t, http.MethodGet, "/api/topics/anything", author, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, apperr.ErrInternal, resp.Error.Code)
	assert.Equal(t, "internal error", resp.Error.Message)
}

func TestListTopicsOverHTTP(t *testing.T) {
	s := setupServer(t, nil)
	s.createTopic(t)
	s.createTopic(t)

	rec := s.do(t, http.MethodGet, "/api/topics?pageSize=1&tag=math", author, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[struct {
		Items    []map[string]interface{} `json:"items"`
		Total    int                      `json:"total"`
		Page     int                      `json:"page"`
		PageSize int                      `json:"pageSize"`
	}](t, rec)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.PageSize)
	require.Len(t, result.Items, 1)
	assert.NotContains(t, result.Items[0], "content")

	rec = s.do(t, http.MethodGet, "/api/topics?includeContent=true", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":`)
}

func TestCommentsOverHTTP(t *testing.T) {
	s := setupServer(t, nil)
	id := s.createTopic(t).Topic.ID

	rec := s.do(t, http.MethodPost, "/api/topics/"+id+"/comments", reviewer, map[string]string{"body": "Check the diagram"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/topics/"+id+"/comments", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decode[struct {
		Items []struct {
			Body    string `json:"body"`
			ActorID string `json:"actorId"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, comments.Items, 1)
	assert.Equal(t, "Check the diagram", comments.Items[0].Body)
	assert.Equal(t, reviewer, comments.Items[0].ActorID)
}

func TestGroupsAndTagsOverHTTP(t *testing.T) {
	s := setupServer(t, nil)
	created := s.createTopic(t)
	groupID := created.Topic.GroupID

	rec := s.do(t, http.MethodGet, "/api/groups/"+groupID, author, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"topics":`)

	rec = s.do(t, http.MethodPost, "/api/groups/"+groupID+"/archive", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"archivedAt":`)

	type total struct {
		Total int `json:"total"`
	}
	rec = s.do(t, http.MethodGet, "/api/topics?archived=false", author, nil)
	assert.Equal(t, 0, decode[total](t, rec).Total)
	rec = s.do(t, http.MethodGet, "/api/topics?archived=true", author, nil)
	assert.Equal(t, 1, decode[total](t, rec).Total)

	rec = s.do(t, http.MethodPost, "/api/groups/"+groupID+"/restore", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"archivedAt":`)

	rec = s.do(t, http.MethodGet, "/api/tags?type=level", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decode[struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}](t, rec)
	require.Len(t, tags.Items, 1)
	assert.Equal(t, "Grade 4", tags.Items[0].Name)
}

func TestParseListParams(t *testing.T) {
	q := url.Values{}
	q.Set("status", "DRAFT")
	q.Set("baseTopicId", "g-1")
	q.Set("page", "2")
	q.Set("pageSize", "5")
	q.Set("isLatest", "false")
	q.Set("includeContent", "1")

	p, err := parseListParams(q)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", p.Status)
	assert.Equal(t, "g-1", p.GroupID)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 5, p.PageSize)
	require.NotNil(t, p.IsLatest)
	assert.False(t, *p.IsLatest)
	assert.Nil(t, p.Archived)
	assert.True(t, p.IncludeContent)

	q.Set("groupId", "g-2")
	p, err = parseListParams(q)
	require.NoError(t, err)
	assert.Equal(t, "g-2", p.GroupID)

	_, err = parseListParams(url.Values{"pageSize": {"ten"}})
	assert.True(t, apperr.Is(err, apperr.ErrInvalid))

	p, err = parseListParams(url.Values{})
	require.NoError(t, err)
	assert.Zero(t, p.Page, "absent page is left to the engine default")
	assert.Zero(t, p.PageSize)

	for _, name := range []string{"page", "pageSize"} {
		_, err = parseListParams(url.Values{name: {"0"}})
		assert.True(t, apperr.Is(err, apperr.ErrInvalid), name)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(apperr.ErrInvalid))
	assert.Equal(t, http.StatusNotFound, statusFor(apperr.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(apperr.ErrInvalidState))
	assert.Equal(t, http.StatusConflict, statusFor(apperr.ErrConflict))
	assert.Equal(t, http.StatusForbidden, statusFor(apperr.ErrPermission))
	assert.Equal(t, http.StatusInternalServerError, statusFor(apperr.ErrDatabase))
	assert.Equal(t, http.StatusInternalServerError, statusFor(apperr.CodeOf(errors.New("boom"))))
}

func TestUppercaseIDResolves(t *testing.T) {
	s := setupServer(t, nil)
	id := s.createTopic(t).Topic.ID

	rec := s.do(t, http.MethodGet, "/api/topics/"+strings.ToUpper(id), author, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, decode[topicResponse](t, rec).Topic.ID)
}

func TestCapabilitySeesCanonicalID(t *testing.T) {
	var created string
	var seen []string
	can := func(actorID string, op topics.Operation, resourceID string) bool {
		if resourceID != "" {
			seen = append(seen, resourceID)
		}
		return created == "" || resourceID == created
	}
	s := setupServer(t, can)
	created = s.createTopic(t).Topic.ID

	rec := s.do(t, http.MethodGet, "/api/topics/"+strings.ToUpper(created), author, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{created}, seen)
}
