package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/devfolio/internal/service"
)

// SnippetHandler manages CRUD operations for code snippets.
//
// It mirrors ProjectHandler route for route. The one addition is the
// ?language= filter on the list endpoint.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// HandleList returns public snippets, optionally narrowed to one author
// and/or one language.
//
// HTTP: GET /api/snippets?userId=7&language=go&limit=20&offset=0
//
// RESPONSE FORMAT:
//
//	[
//	  {"id":3,"userId":7,"title":"hello","code":"fmt.Println(1)","language":"go",...},
//	  ...
//	]
//
// An empty result is [] and never null.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ownerID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	language := strings.TrimSpace(r.URL.Query().Get("language"))

	snippets, err := h.snippets.List(r.Context(), viewer(r), ownerID, language, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGetByID: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	sn, err := h.snippets.GetByID(r.Context(), viewer(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// HandleCreate saves a new snippet owned by the caller.
//
// HTTP: POST /api/snippets
// REQUEST BODY: {"title": "hello", "code": "print('hi')", "language": "python"}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.SnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	sn, err := h.snippets.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sn)
}

// HandleUpdate: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.SnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	sn, err := h.snippets.Update(r.Context(), userID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// HandleDelete removes one of the caller's snippets.
//
// HTTP: DELETE /api/snippets/{id} → 204 No Content
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.snippets.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("snippet deleted", slog.Int64("id", id), slog.Int64("userId", userID))
	w.WriteHeader(http.StatusNoContent)
}
