// Package testutil provides an in-process fake of the campaign backend for tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"electoral-app/internal/auth"
	"electoral-app/internal/models"
)

// Request is one request the fake received
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	JSON          map[string]interface{}
	Fields        map[string]string
	Files         map[string]string // form field -> file name
}

type override struct {
	status int
	body   interface{}
	raw    []byte
}

// FakeAPI mimics the backend's HTTP contract under /api
type FakeAPI struct {
	Server *httptest.Server

	mu        sync.Mutex
	requests  []Request
	users     map[models.ID]*models.User
	passwords map[string]string
	tokens    map[string]models.ID
	messages  []*models.EmergencyMessage
	stats     models.AdminStats
	overrides map[string]override
	nextID    int
	secret    []byte

	ElectoralCode string
	AdminCode     string
	PDF           []byte
}

// NewFakeAPI starts a fake backend and stops it when the test ends
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeAPI{
		users:         make(map[models.ID]*models.User),
		passwords:     make(map[string]string),
		tokens:        make(map[string]models.ID),
		overrides:     make(map[string]override),
		nextID:        100,
		secret:        []byte("fake-api-secret"),
		ElectoralCode: "section-code",
		AdminCode:     "admin-code",
		PDF:           []byte("%PDF-1.4 fake report"),
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL returns the API root, as configured in the client
func (f *FakeAPI) BaseURL() string {
	return f.Server.URL + "/api"
}

// AddUser registers a user with a password and returns a valid token for it
func (f *FakeAPI) AddUser(u *models.User, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	f.passwords[u.Username] = password
	return f.mintLocked(u)
}

// SetToken binds a fixed token value to an existing user
func (f *FakeAPI) SetToken(token string, id models.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = id
}

// SetMessages replaces the emergency feed
func (f *FakeAPI) SetMessages(msgs ...*models.EmergencyMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = msgs
}

// Messages returns the current emergency feed
func (f *FakeAPI) Messages() []*models.EmergencyMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.EmergencyMessage(nil), f.messages...)
}

// User returns the stored user
func (f *FakeAPI) User(id models.ID) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

// SetStats sets the admin dashboard counters
func (f *FakeAPI) SetStats(stats models.AdminStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = stats
}

// Override makes method+path answer with status and a JSON body
func (f *FakeAPI) Override(method, path string, status int, body interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[method+" "+path] = override{status: status, body: body}
}

// OverrideRaw makes method+path answer with status and a raw body
func (f *FakeAPI) OverrideRaw(method, path string, status int, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[method+" "+path] = override{status: status, raw: []byte(raw)}
}

// Requests returns every request received so far
func (f *FakeAPI) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// RequestsTo returns the requests matching method and path
func (f *FakeAPI) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Reset forgets recorded requests
func (f *FakeAPI) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
}

func (f *FakeAPI) mintLocked(u *models.User) string {
	claims := &auth.Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			ID:        strconv.Itoa(f.nextID),
		},
	}
	f.nextID++
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		panic(fmt.Sprintf("mint token: %v", err))
	}
	f.tokens[token] = u.ID
	return token
}

func (f *FakeAPI) routes() *gin.Engine {
	r := gin.New()
	r.Use(f.record, f.overridden)

	api := r.Group("/api")
	api.POST("/auth/login", f.login)
	api.POST("/auth/register", f.register)
	api.POST("/auth/password-recovery", f.recover)

	authed := api.Group("", f.requireUser)
	authed.GET("/auth/me", f.me)
	authed.POST("/auth/electoral-access", f.electoralAccess)
	authed.POST("/auth/admin-access", f.adminAccess)
	authed.POST("/emergency/send", f.sendEmergency)
	authed.GET("/emergency/messages", f.listMessages)
	authed.DELETE("/emergency/:id", f.deleteMessage)
	authed.POST("/users/upload-photo", f.uploadPhoto)
	authed.GET("/export/reports-pdf", f.exportPDF)

	admin := authed.Group("", f.requireAdmin)
	admin.GET("/admin/stats", f.adminStats)
	admin.GET("/admin/users", f.adminUsers)
	admin.DELETE("/admin/users/:id", f.deleteUser)

	return r
}

// Middleware

func (f *FakeAPI) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	rec := Request{
		Method:        c.Request.Method,
		Path:          strings.TrimPrefix(c.Request.URL.Path, "/api"),
		Authorization: c.GetHeader("Authorization"),
		ContentType:   c.ContentType(),
	}

	switch {
	case rec.ContentType == "application/json" && len(body) > 0:
		_ = json.Unmarshal(body, &rec.JSON)
	case rec.ContentType == "multipart/form-data":
		rec.Fields, rec.Files = parseMultipart(c.GetHeader("Content-Type"), body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	c.Next()
}

func parseMultipart(contentType string, body []byte) (map[string]string, map[string]string) {
	fields := make(map[string]string)
	files := make(map[string]string)
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fields, files
	}
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}
		data, _ := io.ReadAll(part)
		if part.FileName() != "" {
			files[part.FormName()] = part.FileName()
		} else {
			fields[part.FormName()] = string(data)
		}
	}
	return fields, files
}

func (f *FakeAPI) overridden(c *gin.Context) {
	key := c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, "/api")
	f.mu.Lock()
	o, ok := f.overrides[key]
	f.mu.Unlock()
	if !ok {
		c.Next()
		return
	}
	if o.raw != nil {
		c.Data(o.status, "text/plain", o.raw)
	} else {
		c.JSON(o.status, o.body)
	}
	c.Abort()
}

func (f *FakeAPI) requireUser(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	f.mu.Lock()
	id, ok := f.tokens[token]
	user := f.users[id]
	f.mu.Unlock()
	if !ok || user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Token inválido"})
		return
	}
	c.Set("user", user)
	c.Next()
}

func (f *FakeAPI) requireAdmin(c *gin.Context) {
	if currentUser(c).Role != models.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Acceso denegado"})
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

// Handlers

func (f *FakeAPI) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"msg": "field required"}}})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[req.Username]; !ok || pw != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Credenciales incorrectas"})
		return
	}
	for _, u := range f.users {
		if u.Username == req.Username {
			c.JSON(http.StatusOK, models.AuthResponse{AccessToken: f.mintLocked(u), User: u})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"detail": "Credenciales incorrectas"})
}

func (f *FakeAPI) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Datos inválidos"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.passwords[req.Username]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "El usuario ya existe"})
		return
	}
	u := &models.User{
		ID:        models.ID(strconv.Itoa(f.nextID)),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      models.RoleUser,
	}
	f.nextID++
	f.users[u.ID] = u
	f.passwords[u.Username] = req.Password
	c.JSON(http.StatusOK, models.AuthResponse{AccessToken: f.mintLocked(u), User: u})
}

func (f *FakeAPI) recover(c *gin.Context) {
	var req models.RecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email requerido"})
		return
	}
	c.JSON(http.StatusOK, models.RecoveryResponse{Message: "Se enviaron instrucciones a " + req.Email})
}

func (f *FakeAPI) me(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, currentUser(c))
}

func (f *FakeAPI) electoralAccess(c *gin.Context) {
	var req models.ElectoralAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Datos inválidos"})
		return
	}
	if req.Code != f.ElectoralCode {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Código inválido"})
		return
	}
	f.mu.Lock()
	u := currentUser(c)
	u.Role = models.RoleElectoralSection
	section := req.Section
	u.ElectoralSection = &section
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (f *FakeAPI) adminAccess(c *gin.Context) {
	var req models.AdminAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Datos inválidos"})
		return
	}
	if req.Code != f.AdminCode {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Código inválido"})
		return
	}
	f.mu.Lock()
	currentUser(c).Role = models.RoleAdmin
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (f *FakeAPI) sendEmergency(c *gin.Context) {
	u := currentUser(c)
	msg := &models.EmergencyMessage{
		UserID:    u.ID,
		UserName:  u.FullName(),
		Timestamp: models.Timestamp{Time: time.Now().UTC()},
	}

	if c.ContentType() == "multipart/form-data" {
		msg.Message = c.PostForm("message")
		if fh, err := c.FormFile("photo"); err == nil {
			msg.Photo = "/uploads/" + fh.Filename
		}
	} else {
		var req models.EmergencyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Datos inválidos"})
			return
		}
		msg.Message = req.Message
	}

	f.mu.Lock()
	msg.ID = models.ID(strconv.Itoa(f.nextID))
	f.nextID++
	f.messages = append([]*models.EmergencyMessage{msg}, f.messages...)
	f.mu.Unlock()
	c.JSON(http.StatusOK, msg)
}

func (f *FakeAPI) listMessages(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages
	if msgs == nil {
		msgs = []*models.EmergencyMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (f *FakeAPI) deleteMessage(c *gin.Context) {
	u := currentUser(c)
	id := models.ID(c.Param("id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.messages {
		if m.ID != id {
			continue
		}
		if u.Role != models.RoleAdmin && m.UserID != u.ID {
			c.JSON(http.StatusForbidden, gin.H{"detail": "No autorizado"})
			return
		}
		f.messages = append(f.messages[:i], f.messages[i+1:]...)
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Mensaje no encontrado"})
}

func (f *FakeAPI) uploadPhoto(c *gin.Context) {
	fh, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Foto requerida"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := currentUser(c)
	u.ProfilePhoto = "/uploads/" + fh.Filename
	c.JSON(http.StatusOK, u)
}

func (f *FakeAPI) exportPDF(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="reportes.pdf"`)
	c.Data(http.StatusOK, "application/pdf", f.PDF)
}

func (f *FakeAPI) adminStats(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, f.stats)
}

func (f *FakeAPI) adminUsers(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	sortUsers(users)
	c.JSON(http.StatusOK, users)
}

func (f *FakeAPI) deleteUser(c *gin.Context) {
	id := models.ID(c.Param("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Usuario no encontrado"})
		return
	}
	delete(f.users, id)
	delete(f.passwords, u.Username)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func sortUsers(users []*models.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
}
