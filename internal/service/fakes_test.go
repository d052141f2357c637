package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/model"
	"github.com/sakif/devfolio/internal/repository"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================
//
// fakeStore implements every repository interface the services use, the
// same way *sqlite.DB does, so one value can be handed to all of them.
// It follows the ledger contract (bool = state changed, counters move
// only on a change) without any SQL. A mutex makes it safe for the
// concurrent profile lookup.
//
// failWith injects an error for the named method ("AddStar", ...).

type starKey struct {
	target model.StarTarget
	userID int64
	id     int64
}

type followKey struct{ from, to int64 }

type fakeStore struct {
	mu sync.Mutex

	users         map[int64]*model.User
	profiles      map[int64]*model.Profile
	projects      map[int64]*model.Project
	snippets      map[int64]*model.Snippet
	stars         map[starKey]bool
	follows       map[followKey]bool
	notifications []model.Notification

	nextID   int64
	failWith map[string]error
	calls    map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[int64]*model.User{},
		profiles: map[int64]*model.Profile{},
		projects: map[int64]*model.Project{},
		snippets: map[int64]*model.Snippet{},
		stars:    map[starKey]bool{},
		follows:  map[followKey]bool{},
		failWith: map[string]error{},
		calls:    map[string]int{},
		nextID:   1000,
	}
}

// enter records the call and returns the injected error, if any.
// Callers must hold mu.
func (f *fakeStore) enter(method string) error {
	f.calls[method]++
	return f.failWith[method]
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// addUser seeds a user with a fixed id.
func (f *fakeStore) addUser(id int64, name string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{ID: id, OpenID: "github:" + name, Name: name, Role: model.RoleUser}
	f.users[id] = u
	return u
}

// addProject seeds a project with a fixed id.
func (f *fakeStore) addProject(id, ownerID int64, vis model.Visibility) *model.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &model.Project{ID: id, UserID: ownerID, Title: "project", Visibility: vis}
	f.projects[id] = p
	return p
}

func (f *fakeStore) addSnippet(id, ownerID int64, vis model.Visibility) *model.Snippet {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &model.Snippet{ID: id, UserID: ownerID, Title: "snippet", Code: "x", Language: "go", Visibility: vis}
	f.snippets[id] = s
	return s
}

func (f *fakeStore) notificationsFor(recipientID int64) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeStore) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// --- users ---

func (f *fakeStore) UpsertByOpenID(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertByOpenID"); err != nil {
		return err
	}
	now := time.Now()
	for _, u := range f.users {
		if u.OpenID == user.OpenID {
			u.Name, u.Email, u.LoginMethod, u.Role = user.Name, user.Email, user.LoginMethod, user.Role
			u.UpdatedAt, u.LastSignedIn = now, now
			*user = *u
			return nil
		}
	}
	stored := *user
	stored.ID = f.id()
	stored.CreatedAt, stored.UpdatedAt, stored.LastSignedIn = now, now, now
	f.users[stored.ID] = &stored
	*user = stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

// --- profiles ---

func (f *fakeStore) GetProfile(_ context.Context, userID int64) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	out := *p
	return &out, nil
}

func (f *fakeStore) UpsertProfile(_ context.Context, profile *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpsertProfile"); err != nil {
		return err
	}
	if _, ok := f.users[profile.UserID]; !ok {
		return apperror.NotFound("user", profile.UserID)
	}
	existing := f.profile(profile.UserID)
	stored := *profile
	stored.FollowerCount, stored.FollowingCount = existing.FollowerCount, existing.FollowingCount
	f.profiles[profile.UserID] = &stored
	*profile = stored
	return nil
}

// profile returns the row for userID, creating it. Callers hold mu.
func (f *fakeStore) profile(userID int64) *model.Profile {
	p, ok := f.profiles[userID]
	if !ok {
		p = &model.Profile{UserID: userID}
		f.profiles[userID] = p
	}
	return p
}

// --- projects ---

func (f *fakeStore) CreateProject(_ context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateProject"); err != nil {
		return err
	}
	if _, ok := f.users[p.UserID]; !ok {
		return apperror.NotFound("user", p.UserID)
	}
	p.ID = f.id()
	stored := *p
	f.projects[p.ID] = &stored
	return nil
}

func (f *fakeStore) GetProjectByID(_ context.Context, id int64) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetProjectByID"); err != nil {
		return nil, err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	out := *p
	return &out, nil
}

func (f *fakeStore) ListProjects(_ context.Context, filter repository.ContentFilter) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListProjects"); err != nil {
		return nil, err
	}
	out := []model.Project{}
	for _, p := range f.projects {
		if filter.UserID != 0 && p.UserID != filter.UserID {
			continue
		}
		if !filter.IncludePrivate && p.Visibility == model.VisibilityPrivate {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, filter.ListOptions), nil
}

func (f *fakeStore) UpdateProject(_ context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateProject"); err != nil {
		return err
	}
	existing, ok := f.projects[p.ID]
	if !ok {
		return apperror.NotFound("project", p.ID)
	}
	stored := *p
	stored.StarCount, stored.ViewCount = existing.StarCount, existing.ViewCount
	f.projects[p.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteProject(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteProject"); err != nil {
		return err
	}
	if _, ok := f.projects[id]; !ok {
		return apperror.NotFound("project", id)
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeStore) IncrementProjectViews(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("IncrementProjectViews"); err != nil {
		return err
	}
	p, ok := f.projects[id]
	if !ok {
		return apperror.NotFound("project", id)
	}
	p.ViewCount++
	return nil
}

// --- snippets ---

func (f *fakeStore) CreateSnippet(_ context.Context, s *model.Snippet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateSnippet"); err != nil {
		return err
	}
	s.ID = f.id()
	stored := *s
	f.snippets[s.ID] = &stored
	return nil
}

func (f *fakeStore) GetSnippetByID(_ context.Context, id int64) (*model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetSnippetByID"); err != nil {
		return nil, err
	}
	s, ok := f.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) ListSnippets(_ context.Context, filter repository.ContentFilter) ([]model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListSnippets"); err != nil {
		return nil, err
	}
	out := []model.Snippet{}
	for _, s := range f.snippets {
		if filter.UserID != 0 && s.UserID != filter.UserID {
			continue
		}
		if filter.Language != "" && s.Language != filter.Language {
			continue
		}
		if !filter.IncludePrivate && s.Visibility == model.VisibilityPrivate {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, filter.ListOptions), nil
}

func (f *fakeStore) UpdateSnippet(_ context.Context, s *model.Snippet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateSnippet"); err != nil {
		return err
	}
	existing, ok := f.snippets[s.ID]
	if !ok {
		return apperror.NotFound("snippet", s.ID)
	}
	stored := *s
	stored.StarCount, stored.ViewCount = existing.StarCount, existing.ViewCount
	f.snippets[s.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteSnippet(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteSnippet"); err != nil {
		return err
	}
	if _, ok := f.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(f.snippets, id)
	return nil
}

func (f *fakeStore) IncrementSnippetViews(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("IncrementSnippetViews"); err != nil {
		return err
	}
	s, ok := f.snippets[id]
	if !ok {
		return apperror.NotFound("snippet", id)
	}
	s.ViewCount++
	return nil
}

// --- stars ---

// starCounter returns a pointer to the target's star_count. Callers hold mu.
func (f *fakeStore) starCounter(target model.StarTarget, id int64) *int64 {
	switch target {
	case model.StarTargetProject:
		if p, ok := f.projects[id]; ok {
			return &p.StarCount
		}
	case model.StarTargetSnippet:
		if s, ok := f.snippets[id]; ok {
			return &s.StarCount
		}
	}
	return nil
}

func (f *fakeStore) AddStar(_ context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddStar"); err != nil {
		return false, err
	}
	counter := f.starCounter(target, targetID)
	if counter == nil {
		return false, apperror.NotFound(string(target), targetID)
	}
	k := starKey{target, userID, targetID}
	if f.stars[k] {
		return false, nil
	}
	f.stars[k] = true
	*counter++
	return true, nil
}

func (f *fakeStore) RemoveStar(_ context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RemoveStar"); err != nil {
		return false, err
	}
	k := starKey{target, userID, targetID}
	if !f.stars[k] {
		return false, nil
	}
	delete(f.stars, k)
	if counter := f.starCounter(target, targetID); counter != nil && *counter > 0 {
		*counter--
	}
	return true, nil
}

func (f *fakeStore) HasStar(_ context.Context, target model.StarTarget, userID, targetID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("HasStar"); err != nil {
		return false, err
	}
	return f.stars[starKey{target, userID, targetID}], nil
}

// --- follows ---

func (f *fakeStore) AddFollow(_ context.Context, followerID, followingID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddFollow"); err != nil {
		return false, err
	}
	if followerID == followingID {
		return false, apperror.SelfReference("cannot follow yourself")
	}
	k := followKey{followerID, followingID}
	if f.follows[k] {
		return false, nil
	}
	f.follows[k] = true
	f.profile(followingID).FollowerCount++
	f.profile(followerID).FollowingCount++
	return true, nil
}

func (f *fakeStore) RemoveFollow(_ context.Context, followerID, followingID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RemoveFollow"); err != nil {
		return false, err
	}
	k := followKey{followerID, followingID}
	if !f.follows[k] {
		return false, nil
	}
	delete(f.follows, k)
	if p := f.profile(followingID); p.FollowerCount > 0 {
		p.FollowerCount--
	}
	if p := f.profile(followerID); p.FollowingCount > 0 {
		p.FollowingCount--
	}
	return true, nil
}

func (f *fakeStore) IsFollowing(_ context.Context, followerID, followingID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("IsFollowing"); err != nil {
		return false, err
	}
	return f.follows[followKey{followerID, followingID}], nil
}

// --- notifications ---

func (f *fakeStore) CreateNotification(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateNotification"); err != nil {
		return err
	}
	n.ID = f.id()
	n.CreatedAt = time.Now()
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeStore) ListNotifications(_ context.Context, recipientID int64, limit int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListNotifications"); err != nil {
		return nil, err
	}
	out := []model.Notification{}
	for i := len(f.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if f.notifications[i].RecipientID == recipientID {
			out = append(out, f.notifications[i])
		}
	}
	return out, nil
}

func (f *fakeStore) MarkNotificationRead(_ context.Context, recipientID, notificationID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("MarkNotificationRead"); err != nil {
		return false, err
	}
	for i := range f.notifications {
		n := &f.notifications[i]
		if n.ID == notificationID && n.RecipientID == recipientID {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountUnread(_ context.Context, recipientID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountUnread"); err != nil {
		return 0, err
	}
	var n int64
	for _, x := range f.notifications {
		if x.RecipientID == recipientID && !x.Read {
			n++
		}
	}
	return n, nil
}

func page[T any](items []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

// =========================================================================
// NOTIFIERS
// =========================================================================

// failingNotifier rejects every notification.
type failingNotifier struct {
	err   error
	calls int
}

func (n *failingNotifier) Notify(context.Context, NotifyInput) (*model.Notification, error) {
	n.calls++
	return nil, n.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSocial wires a SocialService whose every dependency is store and whose
// notifications land in store as well.
func newSocial(store *fakeStore) *SocialService {
	return newSocialWithNotifier(store, NewNotificationService(store, quietLogger()))
}

func newSocialWithNotifier(store *fakeStore, notifier Notifier) *SocialService {
	return NewSocialService(SocialDeps{
		Stars:    store,
		Follows:  store,
		Projects: store,
		Snippets: store,
		Users:    store,
		Notifier: notifier,
	}, quietLogger())
}
