// Package web serves the client as a local single-user web UI. Pages are the
// app's view trees rendered as HTML; view actions are bound to the routes in
// actionRoutes.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"electoral-app/internal/app"
	"electoral-app/internal/common"
	"electoral-app/internal/media"
	"electoral-app/internal/models"
	"electoral-app/internal/nav"
	"electoral-app/internal/view"
)

//go:embed static
var staticFiles embed.FS

// Server is the web front end of one App
type Server struct {
	app         *app.App
	flash       *Flash
	engine      *gin.Engine
	photoOrigin string
}

// NewServer creates the web UI. flash must be the notifier a was built with.
func NewServer(a *app.App, flash *Flash) (*Server, error) {
	origin, err := apiOrigin(a.Config().API.BaseURL)
	if err != nil {
		return nil, err
	}

	s := &Server{app: a, flash: flash, photoOrigin: origin}
	s.engine, err = s.setupRoutes()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// apiOrigin is scheme://host of the API; uploaded photos are served from there
func apiOrigin(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid API base URL %q", baseURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.app.Config().Logging.Verbose {
		r.Use(gin.Logger())
	}
	r.MaxMultipartMemory = media.MaxPhotoSize + 1<<20

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	r.StaticFS("/static", http.FS(static))

	r.GET("/health", s.healthCheck)
	r.GET("/api/view", s.viewJSON)
	r.GET("/", s.index)
	r.GET("/page/:page", s.page)
	r.GET("/print", s.printPhoto)
	r.GET("/uploads/*file", s.uploads)

	// State-changing routes only accept requests from the UI's own pages
	act := r.Group("/", sameOrigin(s.origins()))
	act.POST("/auth", s.submitAuth)
	act.POST("/auth/toggle", s.toggleAuth)
	act.POST("/auth/recovery/show", s.showRecovery)
	act.POST("/auth/recovery/hide", s.showLogin)
	act.POST("/auth/recover", s.submitRecovery)
	act.POST("/logout", s.logout)

	act.POST("/emergency", s.sendEmergency)
	act.POST("/messages/:id/delete", s.deleteMessage)

	act.POST("/access/electoral", s.electoralAccess)
	act.POST("/access/admin", s.adminAccess)
	act.POST("/profile/photo", s.uploadPhoto)

	act.POST("/admin/users/reload", s.reloadUsers)
	act.POST("/admin/users/:id/delete", s.deleteUser)
	act.GET("/admin/export", s.exportPDF)

	return r, nil
}

// origins are the browser origins allowed to drive the UI
func (s *Server) origins() []string {
	web := s.app.Config().Web
	if len(web.AllowedOrigins) > 0 {
		return web.AllowedOrigins
	}
	origins := []string{"http://" + web.Addr()}
	if web.Host == "127.0.0.1" || web.Host == "localhost" {
		origins = append(origins,
			fmt.Sprintf("http://localhost:%d", web.Port),
			fmt.Sprintf("http://127.0.0.1:%d", web.Port))
	}
	return common.RemoveDuplicates(origins)
}

// sameOrigin rejects requests a browser sent on behalf of another site.
// Requests without Origin and Sec-Fetch-Site come from non-browser clients.
func sameOrigin(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		site := c.GetHeader("Sec-Fetch-Site")
		ok := allowed[origin]
		if origin == "" {
			ok = site == "" || site == "same-origin" || site == "none"
		}
		if !ok {
			log.Printf("🚫 Rejected cross-site %s %s (origin %q, site %q)", c.Request.Method, c.Request.URL.Path, origin, site)
			c.String(http.StatusForbidden, "origen no permitido")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Handler returns the UI wrapped in the CORS policy
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.engine)
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	addr := s.app.Config().Web.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("🌐 Web UI listening on http://%s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("🛑 Shutting down web UI")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web UI failed: %w", err)
	}
}

// Rendering

func (s *Server) document(title string, content *view.Node) *view.Node {
	flash := s.flash.Take()
	return view.El("html", "",
		view.El("head", "",
			(&view.Node{Tag: "meta"}).WithAttr("charset", "utf-8"),
			(&view.Node{Tag: "meta"}).WithAttr("name", "viewport").WithAttr("content", "width=device-width, initial-scale=1"),
			view.Txt("title", "", title),
			(&view.Node{Tag: "link"}).WithAttr("rel", "stylesheet").WithAttr("href", "/static/app.css"),
		),
		view.El("body", "",
			view.Txt("div", "flash", flash).WithID("flash").Hide(flash == ""),
			content,
			script(),
		),
	).WithAttr("lang", "es")
}

func script() *view.Node {
	return (&view.Node{Tag: "script"}).WithAttr("src", "/static/app.js")
}

func writeDocument(c *gin.Context, status int, doc *view.Node) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if _, err := io.WriteString(c.Writer, "<!DOCTYPE html>\n"); err != nil {
		return
	}
	if err := view.HTML(c.Writer, doc, bind); err != nil {
		log.Printf("❌ Writing page failed: %v", err)
	}
}

func (s *Server) render(c *gin.Context, status int) {
	writeDocument(c, status, s.document("App Electoral", s.app.View()))
}

// back returns to the current screen after an action. Outcomes were already
// reported through the flash notifier.
func (s *Server) back(c *gin.Context, action string, err error) {
	if err != nil {
		log.Printf("❌ %s failed: %v", action, err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Pages

func (s *Server) index(c *gin.Context) {
	s.render(c, http.StatusOK)
}

func (s *Server) page(c *gin.Context) {
	err := s.app.Navigate(c.Request.Context(), c.Param("page"))
	switch {
	case errors.Is(err, nav.ErrUnknownPage):
		s.flash.Alert("Página inexistente")
		s.render(c, http.StatusNotFound)
	case errors.Is(err, nav.ErrPageHidden):
		s.flash.Alert("Página no disponible")
		s.render(c, http.StatusForbidden)
	default:
		if err != nil {
			log.Printf("❌ Loading page %s failed: %v", c.Param("page"), err)
		}
		s.render(c, http.StatusOK)
	}
}

func (s *Server) printPhoto(c *gin.Context) {
	src := c.Query("src")
	if src == "" {
		c.String(http.StatusBadRequest, "falta la foto")
		return
	}
	if !safePhotoURL(src) {
		c.String(http.StatusBadRequest, "dirección de foto inválida")
		return
	}

	doc := view.RenderPrintPhoto(src)
	for _, child := range doc.Children {
		if child.Tag == "body" {
			child.Append(script())
		}
	}
	writeDocument(c, http.StatusOK, doc)
}

// uploads sends photo paths relative to the API host to that host
func (s *Server) uploads(c *gin.Context) {
	target := s.photoOrigin + "/uploads" + c.Param("file")
	if c.Request.URL.RawQuery != "" {
		target += "?" + c.Request.URL.RawQuery
	}
	c.Redirect(http.StatusFound, target)
}

// healthCheck reports the UI healthy while the export sink is usable
func (s *Server) healthCheck(c *gin.Context) {
	status, code, exports := "healthy", http.StatusOK, "ok"
	if err := s.app.ExportsHealth(c.Request.Context()); err != nil {
		log.Printf("⚠️  Export storage unhealthy: %v", err)
		status, code, exports = "degraded", http.StatusServiceUnavailable, err.Error()
	}

	c.JSON(code, gin.H{
		"status":        status,
		"exports":       exports,
		"service":       "electoral-web",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"version":       "1.0.0",
		"api":           s.app.Config().API.BaseURL,
		"authenticated": s.app.Session().Snapshot().Authenticated(),
	})
}

func (s *Server) viewJSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"screen": s.app.Router().Screen(),
		"page":   s.app.Router().Current(),
		"view":   s.app.View(),
	})
}

// Auth

func (s *Server) submitAuth(c *gin.Context) {
	err := s.app.SubmitAuth(c.Request.Context(), app.AuthInput{
		Username:  c.PostForm("username"),
		Password:  c.PostForm("password"),
		Email:     c.PostForm("email"),
		FirstName: c.PostForm("first_name"),
		LastName:  c.PostForm("last_name"),
		Phone:     c.PostForm("phone"),
	})
	s.back(c, "auth", err)
}

func (s *Server) toggleAuth(c *gin.Context) {
	s.app.ToggleAuthMode()
	s.back(c, "toggle auth", nil)
}

func (s *Server) showRecovery(c *gin.Context) {
	s.app.ShowRecovery()
	s.back(c, "show recovery", nil)
}

func (s *Server) showLogin(c *gin.Context) {
	s.app.ShowLogin()
	s.back(c, "show login", nil)
}

func (s *Server) submitRecovery(c *gin.Context) {
	_, err := s.app.SubmitRecovery(c.Request.Context(), c.PostForm("email"))
	s.back(c, "password recovery", err)
}

func (s *Server) logout(c *gin.Context) {
	s.app.Logout()
	s.back(c, "logout", nil)
}

// Emergency

// formPhoto reads an optional photo field. A missing file is not an error.
func formPhoto(c *gin.Context, field string) (*models.Photo, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return media.PhotoFromReader(fh.Filename, f)
}

func (s *Server) sendEmergency(c *gin.Context) {
	photo, err := formPhoto(c, "photo")
	if err != nil {
		s.flash.Alert(common.UserMessage(err, "Error enviando mensaje de emergencia"))
		s.back(c, "emergency photo", err)
		return
	}
	err = s.app.SubmitEmergency(c.Request.Context(), c.PostForm("message"), photo)
	s.back(c, "emergency", err)
}

func (s *Server) deleteMessage(c *gin.Context) {
	err := s.app.DeleteEmergencyMessage(c.Request.Context(), models.ID(c.Param("id")))
	s.back(c, "delete message", err)
}

// Access and profile

func (s *Server) electoralAccess(c *gin.Context) {
	section, err := app.ParseSection(c.PostForm("section"))
	if err != nil {
		s.flash.Alert(common.UserMessage(err, "Código de sección incorrecto"))
		s.back(c, "electoral access", err)
		return
	}
	err = s.app.SubmitElectoralAccess(c.Request.Context(), section, strings.TrimSpace(c.PostForm("code")))
	s.back(c, "electoral access", err)
}

func (s *Server) adminAccess(c *gin.Context) {
	err := s.app.SubmitAdminAccess(c.Request.Context(), strings.TrimSpace(c.PostForm("code")))
	s.back(c, "admin access", err)
}

func (s *Server) uploadPhoto(c *gin.Context) {
	photo, err := formPhoto(c, "photo")
	if err == nil && photo == nil {
		s.flash.Alert("Seleccioná una foto")
		s.back(c, "profile photo", nil)
		return
	}
	if err != nil {
		s.flash.Alert(common.UserMessage(err, "Error subiendo foto de perfil"))
		s.back(c, "profile photo", err)
		return
	}
	err = s.app.UploadProfilePhoto(c.Request.Context(), photo)
	s.back(c, "profile photo", err)
}

// Admin

func (s *Server) reloadUsers(c *gin.Context) {
	err := s.app.LoadUsers(c.Request.Context())
	s.back(c, "reload users", err)
}

func (s *Server) deleteUser(c *gin.Context) {
	err := s.app.DeleteUser(c.Request.Context(), models.ID(c.Param("id")))
	s.back(c, "delete user", err)
}

// exportPDF saves the report to the export sink and also hands it to the browser
func (s *Server) exportPDF(c *gin.Context) {
	export, err := s.app.ExportPDF(c.Request.Context())
	if err != nil {
		s.back(c, "export", err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Name}))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
