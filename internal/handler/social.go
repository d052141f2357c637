package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/devfolio/internal/service"
)

// SocialHandler exposes stars and follows. Every route sits behind
// auth.RequireAuth; the acting user always comes from the session, never
// from the request body.
type SocialHandler struct {
	social *service.SocialService
	logger *slog.Logger
}

func NewSocialHandler(social *service.SocialService, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{social: social, logger: logger}
}

// StarredResponse answers GET .../star.
type StarredResponse struct {
	Starred bool `json:"starred"`
}

// FollowingResponse answers GET /api/users/{id}/follow.
type FollowingResponse struct {
	Following bool `json:"following"`
}

// socialAction is the shape shared by every service method here:
// (ctx, actingUserID, targetID) → (bool, error).
type socialAction func(ctx context.Context, userID, targetID int64) (bool, error)

// run resolves the acting user and the {id} path parameter, calls action
// and hands the boolean to respond.
func (h *SocialHandler) run(w http.ResponseWriter, r *http.Request, action socialAction, respond func(bool) any) {
	userID, err := actingUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	targetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := action(r.Context(), userID, targetID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, respond(ok))
}

func success(ok bool) any   { return SuccessResponse{Success: ok} }
func starred(ok bool) any   { return StarredResponse{Starred: ok} }
func following(ok bool) any { return FollowingResponse{Following: ok} }

// HandleStarProject: POST /api/projects/{id}/star
//
// {"success": false} means the project was already starred; it is not an
// error, so double clicks stay harmless.
func (h *SocialHandler) HandleStarProject(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.StarProject, success)
}

// HandleUnstarProject: DELETE /api/projects/{id}/star
func (h *SocialHandler) HandleUnstarProject(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.UnstarProject, success)
}

// HandleIsProjectStarred: GET /api/projects/{id}/star
func (h *SocialHandler) HandleIsProjectStarred(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.IsProjectStarred, starred)
}

// HandleStarSnippet: POST /api/snippets/{id}/star
func (h *SocialHandler) HandleStarSnippet(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.StarSnippet, success)
}

// HandleUnstarSnippet: DELETE /api/snippets/{id}/star
func (h *SocialHandler) HandleUnstarSnippet(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.UnstarSnippet, success)
}

// HandleIsSnippetStarred: GET /api/snippets/{id}/star
func (h *SocialHandler) HandleIsSnippetStarred(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.IsSnippetStarred, starred)
}

// HandleFollow: POST /api/users/{id}/follow
//
// Following yourself answers 422 (self_reference).
func (h *SocialHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.FollowUser, success)
}

// HandleUnfollow: DELETE /api/users/{id}/follow
func (h *SocialHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.UnfollowUser, success)
}

// HandleIsFollowing: GET /api/users/{id}/follow
func (h *SocialHandler) HandleIsFollowing(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.social.IsFollowing, following)
}
