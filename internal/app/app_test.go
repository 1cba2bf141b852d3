package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"electoral-app/internal/common"
	"electoral-app/internal/config"
	"electoral-app/internal/models"
	"electoral-app/internal/nav"
	"electoral-app/internal/testutil"
	"electoral-app/internal/view"
)

type recordingNotifier struct {
	mu      sync.Mutex
	alerts  []string
	inline  []string
	cleared int
}

func (n *recordingNotifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, msg)
}

func (n *recordingNotifier) Inline(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inline = append(n.inline, msg)
}

func (n *recordingNotifier) ClearInline() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cleared++
}

func (n *recordingNotifier) lastAlert() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.alerts) == 0 {
		return ""
	}
	return n.alerts[len(n.alerts)-1]
}

// AppTestSuite drives the app against the fake backend
type AppTestSuite struct {
	suite.Suite
	api      *testutil.FakeAPI
	cfg      *config.Config
	notifier *recordingNotifier
	app      *App
	ctx      context.Context

	anaToken   string
	adminToken string
}

// SetupTest runs before each test
func (suite *AppTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.api = testutil.NewFakeAPI(suite.T())
	suite.anaToken = suite.api.AddUser(&models.User{
		ID: "1", Username: "ana", Email: "ana@example.com", FirstName: "Ana", LastName: "Pérez", Role: models.RoleUser,
	}, "x")
	suite.adminToken = suite.api.AddUser(&models.User{
		ID: "99", Username: "root", Email: "root@example.com", FirstName: "Root", LastName: "Admin", Role: models.RoleAdmin,
	}, "secret")

	dir := suite.T().TempDir()
	suite.cfg = &config.Config{
		API:     config.APIConfig{BaseURL: suite.api.BaseURL(), UserAgent: "test"},
		Session: config.SessionConfig{TokenDir: filepath.Join(dir, "session"), StorageKey: config.StorageKey},
		Export:  config.ExportConfig{Backend: "local", BaseDir: filepath.Join(dir, "exports")},
	}
	suite.app = suite.newApp()
}

func (suite *AppTestSuite) newApp() *App {
	suite.notifier = &recordingNotifier{}
	a, err := New(suite.cfg, Deps{
		Notifier: suite.notifier,
		Now:      func() time.Time { return time.Date(2025, 10, 26, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(suite.T(), err)
	return a
}

func (suite *AppTestSuite) tokenFile() string {
	return filepath.Join(suite.cfg.Session.TokenDir, config.StorageKey)
}

func (suite *AppTestSuite) signIn(username, password string) {
	require.NoError(suite.T(), suite.app.SubmitAuth(suite.ctx, AuthInput{Username: username, Password: password}))
}

func (suite *AppTestSuite) TestLoginScenario() {
	suite.api.Override(http.MethodPost, "/auth/login", http.StatusOK, map[string]interface{}{
		"access_token": "t1",
		"user":         map[string]interface{}{"id": "1", "username": "ana", "role": "user"},
	})

	suite.signIn("ana", "x")

	assert.Equal(suite.T(), "t1", suite.app.Session().Token())
	data, err := os.ReadFile(suite.tokenFile())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "t1", string(data))

	assert.Equal(suite.T(), nav.ScreenMain, suite.app.Router().Screen())
	assert.Equal(suite.T(), nav.PageProfile, suite.app.Router().Current())

	tree := suite.app.View()
	assert.NotNil(suite.T(), tree.Find("profile-page"))
	assert.True(suite.T(), tree.Find("nav-messages").Hidden)
	assert.True(suite.T(), tree.Find("nav-admin").Hidden)
	assert.False(suite.T(), tree.Find("nav-emergency").Hidden)
	assert.Equal(suite.T(), 1, suite.notifier.cleared)
}

func (suite *AppTestSuite) TestLoginFailureShowsInlineDetail() {
	err := suite.app.SubmitAuth(suite.ctx, AuthInput{Username: "ana", Password: "bad"})
	require.Error(suite.T(), err)

	assert.Equal(suite.T(), []string{"Error de login: Credenciales incorrectas"}, suite.notifier.inline)
	assert.Equal(suite.T(), nav.ScreenLoading, suite.app.Router().Screen(), "a failed login does not change screens")
	assert.Equal(suite.T(), "Error de login: Credenciales incorrectas", suite.app.AuthView().Find("error-message").Text)
	assert.Empty(suite.T(), suite.app.Session().Token())
}

func (suite *AppTestSuite) TestRegisterMode() {
	suite.app.ToggleAuthMode()
	assert.True(suite.T(), suite.app.AuthState().Register)

	err := suite.app.SubmitAuth(suite.ctx, AuthInput{Username: "ana", Password: "pw"})
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Error de registro: El usuario ya existe", suite.notifier.inline[0])

	require.NoError(suite.T(), suite.app.SubmitAuth(suite.ctx, AuthInput{
		Username: "bob", Password: "pw", Email: "bob@example.com", FirstName: "Bob", LastName: "Paz", Phone: "555",
	}))
	assert.Equal(suite.T(), "bob", suite.app.Session().User().Username)
	assert.Equal(suite.T(), nav.PageProfile, suite.app.Router().Current())
}

func (suite *AppTestSuite) TestRecovery() {
	suite.app.ShowRecovery()
	assert.True(suite.T(), suite.app.AuthView().Find("login-form").Hidden)

	msg, err := suite.app.SubmitRecovery(suite.ctx, "ana@example.com")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), msg, suite.notifier.lastAlert())
	assert.False(suite.T(), suite.app.AuthState().Recovery)
	assert.False(suite.T(), suite.app.Session().Authenticated())
}

func (suite *AppTestSuite) TestLogoutFromAnyState() {
	suite.signIn("root", "secret")
	require.NoError(suite.T(), suite.app.Navigate(suite.ctx, "admin"))
	require.NotEmpty(suite.T(), suite.app.Users())

	suite.app.Logout()

	assert.Empty(suite.T(), suite.app.Session().Token())
	assert.Nil(suite.T(), suite.app.Session().User())
	assert.Equal(suite.T(), nav.ScreenAuth, suite.app.Router().Screen())
	assert.Nil(suite.T(), suite.app.Users())
	assert.NotNil(suite.T(), suite.app.View().Find("auth-screen"))
	_, err := os.Stat(suite.tokenFile())
	assert.True(suite.T(), os.IsNotExist(err))
}

func (suite *AppTestSuite) TestRestoreAfterRestart() {
	suite.signIn("ana", "x")

	suite.app = suite.newApp()
	user, err := suite.app.Restore(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "ana", user.Username)
	assert.Equal(suite.T(), nav.ScreenMain, suite.app.Router().Screen())
	assert.Equal(suite.T(), nav.PageProfile, suite.app.Router().Current())
}

func (suite *AppTestSuite) TestRestoreWithInvalidTokenIsIdempotent() {
	for i := 0; i < 2; i++ {
		require.NoError(suite.T(), os.MkdirAll(suite.cfg.Session.TokenDir, 0o700))
		require.NoError(suite.T(), os.WriteFile(suite.tokenFile(), []byte("stale"), 0o600))

		_, err := suite.app.Restore(suite.ctx)
		require.Error(suite.T(), err)
		assert.True(suite.T(), common.IsErrorCode(err, common.ErrAuth))
		assert.Empty(suite.T(), suite.app.Session().Token())
		assert.Nil(suite.T(), suite.app.Session().User())
		assert.Equal(suite.T(), nav.ScreenAuth, suite.app.Router().Screen())
		assert.Equal(suite.T(), "Sesión cerrada: Token inválido", suite.app.AuthState().Error)
	}
}

func (suite *AppTestSuite) TestRestoreWithoutTokenShowsAuth() {
	user, err := suite.app.Restore(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), user)
	assert.Equal(suite.T(), nav.ScreenAuth, suite.app.Router().Screen())
	assert.Empty(suite.T(), suite.api.Requests())
}

func (suite *AppTestSuite) TestAdminNavigationFetchesThreeTimes() {
	suite.api.SetStats(models.AdminStats{TotalUsers: 2, SectionStats: []models.SectionStat{{Section: 1, Users: 2}}})
	suite.api.SetMessages(&models.EmergencyMessage{ID: "5", UserID: "1", UserName: "Ana Pérez", Message: "urna rota"})
	suite.signIn("root", "secret")
	suite.api.Reset()

	require.NoError(suite.T(), suite.app.Navigate(suite.ctx, "admin"))

	var paths []string
	for _, r := range suite.api.Requests() {
		paths = append(paths, r.Method+" "+r.Path)
	}
	assert.Equal(suite.T(), []string{
		"GET /admin/stats",
		"GET /admin/users",
		"GET /emergency/messages",
	}, paths)

	tree := suite.app.View()
	assert.Equal(suite.T(), "2", tree.Find("total-users").Text)
	assert.Len(suite.T(), tree.Find("users-list").Children, 2)
	assert.Len(suite.T(), tree.Find("admin-messages-list").Children, 1)
	assert.False(suite.T(), tree.Find("nav-admin").Hidden)
}

func (suite *AppTestSuite) TestHiddenPagesAreUnreachable() {
	suite.signIn("ana", "x")
	suite.api.Reset()

	assert.ErrorIs(suite.T(), suite.app.Navigate(suite.ctx, "admin"), nav.ErrPageHidden)
	assert.ErrorIs(suite.T(), suite.app.Navigate(suite.ctx, "messages"), nav.ErrPageHidden)
	assert.ErrorIs(suite.T(), suite.app.Navigate(suite.ctx, "nowhere"), nav.ErrUnknownPage)
	assert.Empty(suite.T(), suite.api.Requests())
}

func (suite *AppTestSuite) TestEmergencyWithPhotoIsOnePost() {
	suite.signIn("ana", "x")
	require.NoError(suite.T(), suite.app.Navigate(suite.ctx, "emergency"))

	photo := &models.Photo{Name: "mesa.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}}
	require.NoError(suite.T(), suite.app.SubmitEmergency(suite.ctx, "falta boletas", photo))

	reqs := suite.api.RequestsTo(http.MethodPost, "/emergency/send")
	require.Len(suite.T(), reqs, 1)
	assert.Equal(suite.T(), "falta boletas", reqs[0].Fields["message"])
	assert.Equal(suite.T(), "mesa.jpg", reqs[0].Files["photo"])
	assert.Equal(suite.T(), "Mensaje de emergencia enviado", suite.notifier.lastAlert())
	assert.Equal(suite.T(), nav.PageProfile, suite.app.Router().Current())
}

func (suite *AppTestSuite) TestEmergencyValidation() {
	suite.signIn("ana", "x")
	err := suite.app.SubmitEmergency(suite.ctx, "   ", nil)
	assert.True(suite.T(), common.IsErrorCode(err, common.ErrValidation))
	assert.Equal(suite.T(), "el mensaje es obligatorio", suite.notifier.lastAlert())
	assert.Empty(suite.T(), suite.api.RequestsTo(http.MethodPost, "/emergency/send"))
}

func (suite *AppTestSuite) TestBusyFormRejectsSecondSubmission() {
	suite.signIn("ana", "x")
	require.NoError(suite.T(), suite.app.emergencyForm.TryAcquire())

	err := suite.app.SubmitEmergency(suite.ctx, "duplicado", nil)
	assert.True(suite.T(), common.IsErrorCode(err, common.ErrBusy))
	assert.Empty(suite.T(), suite.api.RequestsTo(http.MethodPost, "/emergency/send"))

	button := func() *view.Node {
		var found *view.Node
		suite.app.PageView(nav.PageEmergency).Walk(func(n *view.Node) {
			if n.Tag == "button" && n.Attrs["type"] == "submit" {
				found = n
			}
		})
		require.NotNil(suite.T(), found)
		return found
	}
	assert.Equal(suite.T(), "disabled", button().Attrs["disabled"])

	suite.app.emergencyForm.Release()
	assert.NotContains(suite.T(), button().Attrs, "disabled")
	require.NoError(suite.T(), suite.app.SubmitEmergency(suite.ctx, "ahora sí", nil))
}

func (suite *AppTestSuite) TestDeleteMessageThreadsServerDetail() {
	suite.api.SetMessages(&models.EmergencyMessage{ID: "5", UserID: "99", UserName: "Root", Message: "ajeno"})
	suite.signIn("ana", "x")

	err := suite.app.DeleteEmergencyMessage(suite.ctx, "5")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Error eliminando mensaje: No autorizado", suite.notifier.lastAlert())
}

func (suite *AppTestSuite) TestDeleteMessageReloadsFeed() {
	suite.api.SetMessages(
		&models.EmergencyMessage{ID: "5", UserID: "1", UserName: "Ana", Message: "propio"},
		&models.EmergencyMessage{ID: "6", UserID: "99", UserName: "Root", Message: "ajeno"},
	)
	suite.signIn("ana", "x")

	require.NoError(suite.T(), suite.app.DeleteEmergencyMessage(suite.ctx, "5"))
	assert.Equal(suite.T(), "Mensaje eliminado", suite.notifier.lastAlert())
	require.Len(suite.T(), suite.app.Messages(), 1)
	assert.Equal(suite.T(), models.ID("6"), suite.app.Messages()[0].ID)
}

func (suite *AppTestSuite) TestElectoralAccessFlow() {
	suite.signIn("ana", "x")

	err := suite.app.SubmitElectoralAccess(suite.ctx, 2, "wrong")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Código de sección incorrecto: Código inválido", suite.notifier.lastAlert())

	require.NoError(suite.T(), suite.app.SubmitElectoralAccess(suite.ctx, 2, suite.api.ElectoralCode))
	assert.Equal(suite.T(), "Acceso a sección electoral otorgado", suite.notifier.lastAlert())
	assert.Equal(suite.T(), models.RoleElectoralSection, suite.app.Session().User().Role)

	tree := suite.app.View()
	assert.False(suite.T(), tree.Find("nav-messages").Hidden)
	assert.True(suite.T(), tree.Find("user-actions").Hidden)
	assert.Equal(suite.T(), "Sección Electoral: 2", tree.Find("user-section").Text)

	suite.api.Reset()
	require.NoError(suite.T(), suite.app.Navigate(suite.ctx, "messages"))
	assert.Len(suite.T(), suite.api.RequestsTo(http.MethodGet, "/emergency/messages"), 1)
}

func (suite *AppTestSuite) TestAdminAccessFlow() {
	suite.signIn("ana", "x")

	require.Error(suite.T(), suite.app.SubmitAdminAccess(suite.ctx, "nope"))
	assert.Equal(suite.T(), "Código de administrador incorrecto: Código inválido", suite.notifier.lastAlert())

	require.NoError(suite.T(), suite.app.SubmitAdminAccess(suite.ctx, suite.api.AdminCode))
	assert.Equal(suite.T(), models.RoleAdmin, suite.app.Session().User().Role)
	assert.False(suite.T(), suite.app.View().Find("nav-admin").Hidden)
}

func (suite *AppTestSuite) TestDeleteUser() {
	suite.signIn("root", "secret")

	require.NoError(suite.T(), suite.app.DeleteUser(suite.ctx, "1"))
	assert.Equal(suite.T(), "Usuario eliminado", suite.notifier.lastAlert())
	require.Len(suite.T(), suite.app.Users(), 1)
	assert.Equal(suite.T(), "root", suite.app.Users()[0].Username)

	require.Error(suite.T(), suite.app.DeleteUser(suite.ctx, "1"))
	assert.Equal(suite.T(), "Error eliminando usuario: Usuario no encontrado", suite.notifier.lastAlert())
}

func (suite *AppTestSuite) TestExportPDFWritesDatedReport() {
	suite.signIn("root", "secret")

	export, err := suite.app.ExportPDF(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "reportes_2025-10-26.pdf", export.Name)
	assert.Equal(suite.T(), "application/pdf", export.ContentType)

	data, err := os.ReadFile(filepath.Join(suite.cfg.Export.BaseDir, "reportes_2025-10-26.pdf"))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.api.PDF, data)
	assert.Contains(suite.T(), suite.notifier.lastAlert(), "reportes_2025-10-26.pdf")
}

func (suite *AppTestSuite) TestExportPDFFailure() {
	suite.signIn("root", "secret")
	suite.api.Override(http.MethodGet, "/export/reports-pdf", http.StatusInternalServerError, map[string]string{"detail": "generador caído"})

	_, err := suite.app.ExportPDF(suite.ctx)
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Error exportando PDF: generador caído", suite.notifier.lastAlert())
	_, statErr := os.Stat(filepath.Join(suite.cfg.Export.BaseDir, "reportes_2025-10-26.pdf"))
	assert.True(suite.T(), os.IsNotExist(statErr))
}

func (suite *AppTestSuite) TestSavedExports() {
	suite.signIn("root", "secret")
	require.NoError(suite.T(), os.MkdirAll(suite.cfg.Export.BaseDir, 0o755))
	older := filepath.Join(suite.cfg.Export.BaseDir, "reportes_2025-10-20.pdf")
	require.NoError(suite.T(), os.WriteFile(older, []byte("old"), 0o644))
	require.NoError(suite.T(), os.Chtimes(older, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour)))
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.cfg.Export.BaseDir, "notas.txt"), []byte("x"), 0o644))

	_, err := suite.app.ExportPDF(suite.ctx)
	require.NoError(suite.T(), err)

	exports, err := suite.app.ListExports(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), exports, 2, "only reports are listed")
	assert.Equal(suite.T(), "reportes_2025-10-26.pdf", exports[0].Name)
	assert.Equal(suite.T(), int64(len(suite.api.PDF)), exports[0].Size)
	assert.Equal(suite.T(), "reportes_2025-10-20.pdf", exports[1].Name)

	r, err := suite.app.OpenExport(suite.ctx, "reportes_2025-10-20.pdf")
	require.NoError(suite.T(), err)
	data, err := io.ReadAll(r)
	r.Close()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "old", string(data))

	require.NoError(suite.T(), suite.app.DeleteExport(suite.ctx, "reportes_2025-10-20.pdf"))
	_, err = os.Stat(older)
	assert.True(suite.T(), os.IsNotExist(err))

	err = suite.app.DeleteExport(suite.ctx, "reportes_2025-10-20.pdf")
	assert.True(suite.T(), common.IsErrorCode(err, common.ErrValidation))
	assert.Equal(suite.T(), "no existe el reporte reportes_2025-10-20.pdf", common.UserMessage(err, "Error"))

	for _, bad := range []string{"notas.txt", "../reportes_x.pdf", "reportes_../../etc/passwd"} {
		_, err := suite.app.OpenExport(suite.ctx, bad)
		assert.True(suite.T(), common.IsErrorCode(err, common.ErrValidation), bad)
	}
	_, err = os.Stat(filepath.Join(suite.cfg.Export.BaseDir, "notas.txt"))
	assert.NoError(suite.T(), err)
}

func (suite *AppTestSuite) TestExportsHealth() {
	assert.NoError(suite.T(), suite.app.ExportsHealth(suite.ctx))

	blocker := filepath.Join(suite.T().TempDir(), "file")
	require.NoError(suite.T(), os.WriteFile(blocker, nil, 0o644))
	suite.cfg.Export.BaseDir = filepath.Join(blocker, "exports")
	suite.app = suite.newApp()
	assert.Error(suite.T(), suite.app.ExportsHealth(suite.ctx))
}

func (suite *AppTestSuite) TestUploadProfilePhoto() {
	suite.signIn("ana", "x")

	photo := &models.Photo{Name: "yo.png", ContentType: "image/png", Data: []byte("\x89PNG")}
	require.NoError(suite.T(), suite.app.UploadProfilePhoto(suite.ctx, photo))
	assert.Equal(suite.T(), "Foto de perfil actualizada correctamente", suite.notifier.lastAlert())
	assert.Equal(suite.T(), "/uploads/yo.png", suite.app.View().Find("user-avatar").Children[0].Attrs["src"])
}

func TestAppTestSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func TestParseSection(t *testing.T) {
	n, err := ParseSection(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	for _, bad := range []string{"", "0", "-2", "siete"} {
		_, err := ParseSection(bad)
		assert.True(t, common.IsErrorCode(err, common.ErrValidation), bad)
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, Deps{})
	assert.Error(t, err)
}
