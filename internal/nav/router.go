package nav

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"electoral-app/internal/models"
)

var (
	// ErrUnknownPage is returned for a page name that does not exist
	ErrUnknownPage = errors.New("unknown page")
	// ErrPageHidden is returned for a page the current role cannot see
	ErrPageHidden = errors.New("page not available for role")
)

// PageLoader fetches the data a page shows when it is entered
type PageLoader func(ctx context.Context) error

// Router tracks the visible screen and the active page. It does no I/O itself:
// data loads run through the registered loaders.
type Router struct {
	mu      sync.RWMutex
	screen  Screen
	page    Page
	role    models.Role
	loaders map[Page]PageLoader
}

// NewRouter creates a router on the loading screen
func NewRouter() *Router {
	return &Router{
		screen:  ScreenLoading,
		page:    PageProfile,
		loaders: make(map[Page]PageLoader),
	}
}

// OnEnter registers the loader run every time page is entered
func (r *Router) OnEnter(page Page, loader PageLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[page] = loader
}

// Screen returns the visible screen
func (r *Router) Screen() Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.screen
}

// Current returns the active page of the main app
func (r *Router) Current() Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.page
}

// Visibility returns the navigation items visible in the current state
func (r *Router) Visibility() Visibility {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.screen != ScreenMain {
		return Visibility{}
	}
	return VisibleNavigation(r.role)
}

// ShowLoading switches to the loading screen
func (r *Router) ShowLoading() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = ScreenLoading
}

// ShowAuthScreen switches to the auth screen
func (r *Router) ShowAuthScreen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = ScreenAuth
	r.page = PageProfile
	r.role = ""
}

// ShowMainApp switches to the main app for role. It always lands on the profile page.
func (r *Router) ShowMainApp(role models.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = ScreenMain
	r.page = PageProfile
	r.role = role
}

// NavigateTo activates page and runs its loader. The page stays active even
// when the loader fails; the loader error is returned to the caller.
func (r *Router) NavigateTo(ctx context.Context, page Page) error {
	if _, ok := ParsePage(string(page)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}

	r.mu.Lock()
	if r.screen != ScreenMain {
		r.mu.Unlock()
		return fmt.Errorf("%w: not signed in", ErrPageHidden)
	}
	if !VisibleNavigation(r.role).Shows(page) {
		role := r.role
		r.mu.Unlock()
		return fmt.Errorf("%w: %s for %s", ErrPageHidden, page, role)
	}
	r.page = page
	loader := r.loaders[page]
	r.mu.Unlock()

	log.Printf("🧭 Page %s", page)
	if loader == nil {
		return nil
	}
	return loader(ctx)
}

// OnAuthenticated implements session.Listener
func (r *Router) OnAuthenticated(user *models.User) {
	r.ShowMainApp(user.Role)
}

// OnSignedOut implements session.Listener
func (r *Router) OnSignedOut() {
	r.ShowAuthScreen()
}
