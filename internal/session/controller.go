// Package session owns the authentication token and the current user.
package session

import (
	"context"
	"log"
	"strings"
	"sync"

	"electoral-app/internal/api/client"
	"electoral-app/internal/auth"
	"electoral-app/internal/common"
	"electoral-app/internal/models"
)

// Session is a snapshot of the authentication state.
// User != nil implies Token != "".
type Session struct {
	Token string
	User  *models.User
}

// Authenticated reports whether a user is signed in
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Listener is notified of session transitions
type Listener interface {
	OnAuthenticated(user *models.User)
	OnSignedOut()
}

// Controller holds the session. The token is only read or written inside
// Controller methods.
type Controller struct {
	mu    sync.RWMutex
	token string
	user  *models.User

	store     auth.TokenStore
	api       *client.Client
	listeners []Listener
}

// NewController creates a controller whose gateway authenticates with the
// controller's own token
func NewController(store auth.TokenStore, config *client.ClientConfig) *Controller {
	c := &Controller{store: store}
	c.api = client.NewClient(config, c)
	return c
}

// API returns the gateway bound to this session
func (c *Controller) API() *client.Client {
	return c.api
}

// AddListener registers l for session transitions
func (c *Controller) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Token implements client.TokenSource
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User returns the cached current user, nil when signed out
func (c *Controller) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Authenticated reports whether a user is signed in
func (c *Controller) Authenticated() bool {
	return c.User() != nil
}

// Snapshot returns the current session state
func (c *Controller) Snapshot() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Session{Token: c.token, User: c.user}
}

// Login posts credentials. On failure the session is left unchanged.
func (c *Controller) Login(ctx context.Context, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, common.NewError(common.ErrValidation, "usuario y contraseña son obligatorios")
	}

	resp, err := c.api.Login(ctx, username, password)
	if err != nil {
		log.Printf("❌ Login failed for %s: %v", username, err)
		return nil, common.Reclassify(err, common.ErrAuth)
	}
	return c.establish(resp)
}

// Register creates an account and signs in with it
func (c *Controller) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if req == nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, common.NewError(common.ErrValidation, "usuario y contraseña son obligatorios")
	}

	resp, err := c.api.Register(ctx, req)
	if err != nil {
		log.Printf("❌ Registration failed for %s: %v", req.Username, err)
		return nil, common.Reclassify(err, common.ErrAuth)
	}
	return c.establish(resp)
}

// RecoverPassword triggers the server-side recovery flow. It never signs in.
func (c *Controller) RecoverPassword(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", common.NewError(common.ErrValidation, "el email es obligatorio")
	}
	return c.api.RecoverPassword(ctx, email)
}

func (c *Controller) establish(resp *models.AuthResponse) (*models.User, error) {
	if resp.AccessToken == "" || resp.User == nil {
		return nil, common.NewError(common.ErrAuth, "respuesta de autenticación incompleta")
	}
	if err := c.store.Save(resp.AccessToken); err != nil {
		log.Printf("⚠️  Failed to persist token: %v", err)
	}

	warnUnknownRole(resp.User)
	c.mu.Lock()
	c.token = resp.AccessToken
	c.user = resp.User
	c.mu.Unlock()

	log.Printf("🔐 Signed in as %s (%s)", resp.User.Username, resp.User.Role)
	c.notifyAuthenticated(resp.User)
	return resp.User, nil
}

// CheckAuth refreshes the current user from the token. Any failure signs the
// user out; the returned error keeps its cause so a network failure can be
// told apart from a rejected token. A result that arrives after the token
// changed belongs to a session that no longer exists and is dropped.
func (c *Controller) CheckAuth(ctx context.Context) (*models.User, error) {
	token := c.Token()
	if token == "" {
		c.Logout()
		return nil, common.NewError(common.ErrNotAuthenticated, "no hay sesión activa")
	}

	user, err := c.api.Me(ctx)

	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		log.Printf("⚠️  Discarding auth check for a replaced session")
		return nil, common.NewError(common.ErrNotAuthenticated, "la sesión cambió durante la verificación")
	}
	if err != nil {
		c.mu.Unlock()
		log.Printf("❌ Auth check failed: %v", err)
		c.Logout()
		return nil, common.Reclassify(err, common.ErrAuth)
	}
	c.user = user
	c.mu.Unlock()

	warnUnknownRole(user)
	c.notifyAuthenticated(user)
	return user, nil
}

// warnUnknownRole logs roles this client does not know; they navigate as plain users
func warnUnknownRole(user *models.User) {
	if !user.Role.Valid() {
		log.Printf("⚠️  Unknown role %q for %s, showing the user navigation", user.Role, user.Username)
	}
}

// Restore loads the stored token at startup and validates it. Without a stored
// token the signed-out state is announced and (nil, nil) is returned.
func (c *Controller) Restore(ctx context.Context) (*models.User, error) {
	token, err := c.store.Load()
	if err != nil {
		log.Printf("⚠️  Failed to load stored token: %v", err)
	}
	if token == "" {
		c.notifySignedOut()
		return nil, nil
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return c.CheckAuth(ctx)
}

// Logout clears the token and the user unconditionally
func (c *Controller) Logout() {
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		log.Printf("⚠️  Failed to clear stored token: %v", err)
	}
	c.notifySignedOut()
}

// RequestElectoralAccess asks to become the delegate of section. On success the
// user is refreshed to pick up the new role.
func (c *Controller) RequestElectoralAccess(ctx context.Context, section int, code string) (*models.User, error) {
	if !c.Authenticated() {
		return nil, common.NewError(common.ErrNotAuthenticated, "no hay sesión activa")
	}
	if section <= 0 {
		return nil, common.NewError(common.ErrValidation, "la sección electoral debe ser un número positivo")
	}
	if strings.TrimSpace(code) == "" {
		return nil, common.NewError(common.ErrValidation, "el código es obligatorio")
	}

	if err := c.api.RequestElectoralAccess(ctx, section, code); err != nil {
		return nil, common.Reclassify(err, common.ErrAccess)
	}
	log.Printf("🗳️  Electoral access granted for section %d", section)
	return c.CheckAuth(ctx)
}

// RequestAdminAccess asks to become admin
func (c *Controller) RequestAdminAccess(ctx context.Context, code string) (*models.User, error) {
	if !c.Authenticated() {
		return nil, common.NewError(common.ErrNotAuthenticated, "no hay sesión activa")
	}
	if strings.TrimSpace(code) == "" {
		return nil, common.NewError(common.ErrValidation, "el código es obligatorio")
	}

	if err := c.api.RequestAdminAccess(ctx, code); err != nil {
		return nil, common.Reclassify(err, common.ErrAccess)
	}
	log.Printf("👑 Admin access granted")
	return c.CheckAuth(ctx)
}

// UploadProfilePhoto replaces the profile photo and refreshes the user
func (c *Controller) UploadProfilePhoto(ctx context.Context, photo *models.Photo) (*models.User, error) {
	if !c.Authenticated() {
		return nil, common.NewError(common.ErrNotAuthenticated, "no hay sesión activa")
	}
	if photo == nil {
		return nil, common.NewError(common.ErrValidation, "seleccioná una foto")
	}

	if _, err := c.api.UploadProfilePhoto(ctx, photo); err != nil {
		return nil, err
	}
	return c.CheckAuth(ctx)
}

func (c *Controller) snapshotListeners() []Listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Listener(nil), c.listeners...)
}

func (c *Controller) notifyAuthenticated(user *models.User) {
	for _, l := range c.snapshotListeners() {
		l.OnAuthenticated(user)
	}
}

func (c *Controller) notifySignedOut() {
	for _, l := range c.snapshotListeners() {
		l.OnSignedOut()
	}
}
