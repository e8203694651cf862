// Package handlers provides the REST API over the topic engine.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	apperr "github.com/kimhsiao/topicflow/backend/internal/errors"
	"github.com/kimhsiao/topicflow/backend/internal/logging"
	"github.com/kimhsiao/topicflow/backend/internal/topics"
	"github.com/kimhsiao/topicflow/backend/internal/uuid"
)

// ActorHeader carries the id of the calling actor on every /api request.
const ActorHeader = "X-Actor-ID"

// maxBodyBytes bounds request payloads.
const maxBodyBytes = 4 << 20

// Options configures an API. Zero values are usable.
type Options struct {
	// Can gates every engine call. Nil allows everything.
	Can topics.CapabilityFunc

	// Health reports storage readiness for GET /api/health.
	Health func(ctx context.Context) error

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	Logger *logging.Logger
}

// API exposes the topic engine over HTTP.
type API struct {
	engine  *topics.Engine
	can     topics.CapabilityFunc
	health  func(ctx context.Context) error
	metrics http.Handler
	log     *logging.Logger
}

// NewAPI creates an API over engine.
func NewAPI(engine *topics.Engine, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Get()
	}
	return &API{
		engine:  engine,
		can:     opts.Can,
		health:  opts.Health,
		metrics: opts.Metrics,
		log:     logger.With(map[string]interface{}{"component": "http"}),
	}
}

// request is what a route handler sees after the middleware has
// authenticated and authorized the caller.
type request struct {
	*http.Request
	actorID string
	params  httprouter.Params
}

// id returns the canonical :id route parameter.
func (r *request) id() string {
	return canonicalID(r.params)
}

// canonicalID returns the :id route parameter, canonicalized when it is a
// UUID. Anything else is passed through and fails the lookup.
func canonicalID(params httprouter.Params) string {
	id := params.ByName("id")
	if canonical, err := uuid.Normalize(id); err == nil {
		return canonical
	}
	return id
}

// handlerFunc returns the response status and body, or an error that the
// middleware maps to an error response.
type handlerFunc func(r *request) (int, interface{}, error)

// middleware requires an actor, applies the capability check for op and
// renders the handler's result. Resource-scoped operations pass the
// canonical :id to the capability check, the same id the handler resolves.
func (a *API) middleware(op topics.Operation, f handlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		start := time.Now()
		actorID := r.Header.Get(ActorHeader)
		if actorID == "" {
			a.writeError(w, r, http.StatusUnauthorized, apperr.New(apperr.ErrPermission, "missing "+ActorHeader+" header"))
			return
		}

		if err := a.can.Check(actorID, op, canonicalID(params)); err != nil {
			a.fail(w, r, err)
			return
		}

		status, body, err := f(&request{Request: r, actorID: actorID, params: params})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeJSON(w, status, body)

		a.log.Debug("request served", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   status,
			"actor":    actorID,
			"duration": time.Since(start).String(),
		})
	}
}

// statusFor maps an error code to an HTTP status.
func statusFor(code apperr.ErrorCode) int {
	switch code {
	case apperr.ErrInvalid:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrInvalidState, apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.writeError(w, r, statusFor(apperr.CodeOf(err)), err)
}

type errorBody struct {
	Code    apperr.ErrorCode  `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// writeError renders {"error": {...}}. Internal failures are logged and their
// message replaced so storage errors never reach the caller.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := errorBody{Code: apperr.ErrInternal, Message: "internal error"}

	var appErr *apperr.AppError
	if apperr.As(err, &appErr) && status < http.StatusInternalServerError {
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Details = appErr.Details
	}
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}

	writeJSON(w, status, map[string]interface{}{"error": body})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	json.NewEncoder(w).Encode(body)
}

// decodeBody reads a JSON payload into dst. An empty body leaves dst untouched.
func decodeBody(r *request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Invalid("invalid request body: %v", err)
	}
	return nil
}

// Router builds the route table.
func (a *API) Router() *httprouter.Router {
	router := httprouter.New()
	router.HandleMethodNotAllowed = true

	router.GET("/api/health", a.healthCheck)
	if a.metrics != nil {
		router.Handler(http.MethodGet, "/metrics", a.metrics)
	}

	router.GET("/api/topics", a.middleware(topics.OpListTopics, a.listTopics))
	router.POST("/api/topics", a.middleware(topics.OpCreate, a.createTopic))
	router.GET("/api/topics/:id", a.middleware(topics.OpRead, a.getTopic))
	router.PUT("/api/topics/:id", a.middleware(topics.OpUpdate, a.updateTopic))
	router.GET("/api/topics/:id/history", a.middleware(topics.OpReadHistory, a.topicHistory))
	router.POST("/api/topics/:id/submit", a.middleware(topics.OpSubmit, a.submitTopic))
	router.POST("/api/topics/:id/review", a.middleware(topics.OpReview, a.reviewTopic))
	router.POST("/api/topics/:id/publish", a.middleware(topics.OpPublish, a.publishTopic))
	router.POST("/api/topics/:id/revisions", a.middleware(topics.OpRevise, a.reviseTopic))
	router.GET("/api/topics/:id/events", a.middleware(topics.OpReadHistory, a.topicEvents))
	router.GET("/api/topics/:id/reviews", a.middleware(topics.OpReadHistory, a.topicReviews))
	router.GET("/api/topics/:id/comments", a.middleware(topics.OpRead, a.topicComments))
	router.POST("/api/topics/:id/comments", a.middleware(topics.OpComment, a.addComment))

	router.GET("/api/groups/:id", a.middleware(topics.OpReadGroup, a.getGroup))
	router.POST("/api/groups/:id/archive", a.middleware(topics.OpArchive, a.archiveGroup))
	router.POST("/api/groups/:id/restore", a.middleware(topics.OpRestore, a.restoreGroup))

	router.GET("/api/tags", a.middleware(topics.OpBrowseTags, a.listTags))

	return router
}

// healthCheck handles GET /api/health
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			a.log.Warn("health check failed", map[string]interface{}{"error": err.Error()})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "service": "topicd"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "topicd"})
}
