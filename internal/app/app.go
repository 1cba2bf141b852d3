// Package app wires the session, router, gateway and renderers into one
// explicitly constructed object graph and exposes the UI handlers.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"electoral-app/internal/api/client"
	"electoral-app/internal/auth"
	"electoral-app/internal/common"
	"electoral-app/internal/config"
	"electoral-app/internal/form"
	"electoral-app/internal/models"
	"electoral-app/internal/nav"
	"electoral-app/internal/session"
	"electoral-app/internal/storage/block"
	"electoral-app/internal/view"
)

// Notifier shows handler outcomes to the user
type Notifier interface {
	// Alert shows a modal message
	Alert(msg string)
	// Inline shows an error next to the auth form
	Inline(msg string)
	ClearInline()
}

// Deps are the collaborators New builds from config when left nil
type Deps struct {
	Store    auth.TokenStore
	Notifier Notifier
	Exports  block.Storage
	Now      func() time.Time
}

// App is the client: one session, one router, one data cache
type App struct {
	cfg      *config.Config
	session  *session.Controller
	router   *nav.Router
	notifier Notifier
	now      func() time.Time

	exportsOnce sync.Once
	exports     block.Storage
	exportsErr  error

	mu       sync.RWMutex
	users    []*models.User
	messages []*models.EmergencyMessage
	stats    *models.AdminStats
	auth     view.AuthState

	authForm      *form.Guard
	recoveryForm  *form.Guard
	emergencyForm *form.Guard
	electoralForm *form.Guard
	adminForm     *form.Guard
	photoForm     *form.Guard
	exportAction  *form.Guard
}

// New builds the object graph
func New(cfg *config.Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	store := deps.Store
	if store == nil {
		fileStore, err := auth.NewFileTokenStore(cfg.Session.TokenDir, cfg.Session.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create token store: %w", err)
		}
		store = fileStore
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	a := &App{
		cfg: cfg,
		session: session.NewController(store, &client.ClientConfig{
			BaseURL:   cfg.API.BaseURL,
			Timeout:   cfg.API.Timeout,
			UserAgent: cfg.API.UserAgent,
			Verbose:   cfg.Logging.Verbose,
		}),
		router:        nav.NewRouter(),
		notifier:      notifier,
		now:           now,
		exports:       deps.Exports,
		authForm:      form.NewGuard("auth"),
		recoveryForm:  form.NewGuard("recovery"),
		emergencyForm: form.NewGuard("emergency"),
		electoralForm: form.NewGuard("electoral-access"),
		adminForm:     form.NewGuard("admin-access"),
		photoForm:     form.NewGuard("profile-photo"),
		exportAction:  form.NewGuard("export"),
	}
	if a.exports != nil {
		a.exportsOnce.Do(func() {})
	}

	a.session.AddListener(a.router)
	a.session.AddListener(a)
	a.router.OnEnter(nav.PageMessages, a.LoadEmergencyMessages)
	a.router.OnEnter(nav.PageAdmin, a.LoadAdminData)

	return a, nil
}

// Session returns the session controller
func (a *App) Session() *session.Controller {
	return a.session
}

// Router returns the view router
func (a *App) Router() *nav.Router {
	return a.router
}

// Config returns the configuration the app was built with
func (a *App) Config() *config.Config {
	return a.cfg
}

// Restore brings the session back from the stored token at startup
func (a *App) Restore(ctx context.Context) (*models.User, error) {
	a.router.ShowLoading()
	user, err := a.session.Restore(ctx)
	if err != nil {
		msg := common.UserMessage(err, "Sesión cerrada")
		a.mu.Lock()
		a.auth.Error = msg
		a.mu.Unlock()
		switch {
		case client.IsNetworkError(err):
			log.Printf("📡 API unreachable at %s", a.cfg.API.BaseURL)
		case common.StatusOf(err) == http.StatusUnauthorized:
			log.Printf("🔑 Stored token was rejected")
		}
		log.Printf("🔒 %s", msg)
		return nil, err
	}
	return user, nil
}

// OnAuthenticated implements session.Listener
func (a *App) OnAuthenticated(user *models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.auth = view.AuthState{}
}

// OnSignedOut implements session.Listener. Cached data belongs to the
// previous user and is dropped.
func (a *App) OnSignedOut() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users = nil
	a.messages = nil
	a.stats = nil
	a.auth = view.AuthState{}
}

// Messages returns the cached emergency feed
func (a *App) Messages() []*models.EmergencyMessage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.messages
}

// Users returns the cached user list
func (a *App) Users() []*models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.users
}

// Stats returns the cached admin stats
func (a *App) Stats() *models.AdminStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// AuthState returns what the auth screen currently shows
func (a *App) AuthState() view.AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.auth
}

// exportStorage creates the export sink on first use
func (a *App) exportStorage(ctx context.Context) (block.Storage, error) {
	a.exportsOnce.Do(func() {
		a.exports, a.exportsErr = block.NewFactory().Create(ctx, block.Config{
			Type:    a.cfg.Export.Backend,
			BaseDir: a.cfg.Export.BaseDir,
			Bucket:  a.cfg.Export.Bucket,
			Region:  a.cfg.Export.Region,
			Prefix:  a.cfg.Export.Prefix,
		})
	})
	return a.exports, a.exportsErr
}

// LogNotifier writes notifications to the log
type LogNotifier struct{}

// Alert implements Notifier
func (LogNotifier) Alert(msg string) { log.Printf("🔔 %s", msg) }

// Inline implements Notifier
func (LogNotifier) Inline(msg string) { log.Printf("⚠️  %s", msg) }

// ClearInline implements Notifier
func (LogNotifier) ClearInline() {}
