package handlers

import (
	"net/http"
	"strings"
)

// getGroup handles GET /api/groups/:id
func (a *API) getGroup(r *request) (int, interface{}, error) {
	view, err := a.engine.GetGroup(r.Context(), r.id())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, view, nil
}

// archiveGroup handles POST /api/groups/:id/archive
func (a *API) archiveGroup(r *request) (int, interface{}, error) {
	group, err := a.engine.ArchiveGroup(r.Context(), r.id(), r.actorID)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, group, nil
}

// restoreGroup handles POST /api/groups/:id/restore
func (a *API) restoreGroup(r *request) (int, interface{}, error) {
	group, err := a.engine.RestoreGroup(r.Context(), r.id(), r.actorID)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, group, nil
}

// listTags handles GET /api/tags
func (a *API) listTags(r *request) (int, interface{}, error) {
	tags, err := a.engine.ListTags(r.Context(), strings.TrimSpace(r.URL.Query().Get("type")))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, map[string]interface{}{"items": tags}, nil
}
