package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electoral-app/internal/common"
	"electoral-app/internal/models"
	"electoral-app/internal/testutil"
)

type cliResult struct {
	out string
	err error
}

func setupCLI(t *testing.T) *testutil.FakeAPI {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	api.AddUser(&models.User{ID: "1", Username: "ana", FirstName: "Ana", LastName: "Pérez", Email: "ana@example.com", Role: models.RoleUser}, "x")
	api.AddUser(&models.User{ID: "99", Username: "root", FirstName: "Root", LastName: "Admin", Role: models.RoleAdmin}, "secret")

	t.Setenv("ELECTORAL_API_URL", api.BaseURL())
	t.Setenv("ELECTORAL_TOKEN_DIR", filepath.Join(t.TempDir(), "session"))
	t.Setenv("ELECTORAL_EXPORT_BACKEND", "local")
	t.Setenv("ELECTORAL_EXPORT_DIR", filepath.Join(t.TempDir(), "exports"))
	return api
}

func run(stdin string, args ...string) cliResult {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return cliResult{out: out.String(), err: err}
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	setupCLI(t)

	res := run("", "login", "-u", "ana", "-p", "x")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Ana Pérez")
	assert.Contains(t, res.out, "» electoral-access")

	res = run("", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Usuario: ana")
	assert.Contains(t, res.out, "Rol: user")
	assert.Contains(t, res.out, "Vence")

	res = run("", "nav")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "✓ Emergencia (emergency)")
	assert.Contains(t, res.out, "✗ Admin (admin)")

	require.NoError(t, run("", "logout").err)
	assert.ErrorIs(t, run("", "whoami").err, errNoSession)
	assert.ErrorIs(t, run("", "profile").err, errNoSession)
}

func TestCLI_LoginPromptsForPassword(t *testing.T) {
	setupCLI(t)

	res := run("x\n", "login", "-u", "ana")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Contraseña: ")
	assert.Contains(t, res.out, "@ana")
}

func TestCLI_LoginFailure(t *testing.T) {
	setupCLI(t)

	res := run("", "login", "-u", "ana", "-p", "nope")
	require.Error(t, res.err)
	assert.Contains(t, res.out, "Error de login: Credenciales incorrectas")
}

func TestCLI_EmergencyWithPhoto(t *testing.T) {
	api := setupCLI(t)
	require.NoError(t, run("", "login", "-u", "ana", "-p", "x").err)

	photo := filepath.Join(t.TempDir(), "mesa.png")
	require.NoError(t, os.WriteFile(photo, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))

	res := run("", "emergency", "send", "-m", "faltan boletas", "--photo", photo)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Mensaje de emergencia enviado")

	reqs := api.RequestsTo(http.MethodPost, "/emergency/send")
	require.Len(t, reqs, 1)
	assert.Equal(t, "mesa.png", reqs[0].Files["photo"])
}

func TestCLI_MessagesHiddenForPlainUsers(t *testing.T) {
	setupCLI(t)
	require.NoError(t, run("", "login", "-u", "ana", "-p", "x").err)

	res := run("", "messages", "list")
	assert.Error(t, res.err)
}

func TestCLI_AdminDashboardAndExport(t *testing.T) {
	api := setupCLI(t)
	api.SetStats(models.AdminStats{TotalUsers: 2, PendingEmergencies: 1, SectionStats: []models.SectionStat{{Section: 4, Users: 2}}})
	require.NoError(t, run("", "login", "-u", "root", "-p", "secret").err)

	res := run("", "admin", "stats")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Sección 4")

	res = run("", "admin", "users")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "@ana")
	assert.Contains(t, res.out, "[delete-user 1]")

	res = run("", "admin", "export")
	require.NoError(t, res.err)
	name := "reportes_" + time.Now().Format("2006-01-02") + ".pdf"
	assert.Contains(t, res.out, name)

	data, err := os.ReadFile(filepath.Join(os.Getenv("ELECTORAL_EXPORT_DIR"), name))
	require.NoError(t, err)
	assert.Equal(t, api.PDF, data)
}

func TestCLI_AccessElectoral(t *testing.T) {
	api := setupCLI(t)
	require.NoError(t, run("", "login", "-u", "ana", "-p", "x").err)

	res := run("", "access", "electoral", "--section", "0", "--code", "x")
	require.Error(t, res.err)
	assert.Empty(t, api.RequestsTo(http.MethodPost, "/auth/electoral-access"))

	res = run("", "access", "electoral", "--section", "5", "--code", api.ElectoralCode)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Acceso a sección electoral otorgado")

	res = run("", "profile")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Sección Electoral: 5")
}

func TestCLI_SavedExports(t *testing.T) {
	api := setupCLI(t)
	require.NoError(t, run("", "login", "-u", "root", "-p", "secret").err)
	require.NoError(t, run("", "admin", "export").err)
	name := "reportes_" + time.Now().Format("2006-01-02") + ".pdf"

	res := run("", "admin", "exports", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, name)

	dest := filepath.Join(t.TempDir(), "copia.pdf")
	res = run("", "admin", "exports", "get", name, "-o", dest)
	require.NoError(t, res.err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, api.PDF, data)

	res = run("", "admin", "exports", "get", "../secreto.txt")
	require.Error(t, res.err)
	assert.Equal(t, 2, exitCode(res.err))

	res = run("", "admin", "exports", "delete", name)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "eliminado")

	res = run("", "admin", "exports", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No hay reportes exportados")

	res = run("", "admin", "exports", "delete", name)
	require.Error(t, res.err)
	assert.True(t, common.IsErrorCode(res.err, common.ErrValidation))
}

func TestCLI_APIFlagOverridesInvalidEnv(t *testing.T) {
	api := setupCLI(t)
	t.Setenv("ELECTORAL_API_URL", "not a url")

	res := run("", "login", "-u", "ana", "-p", "x")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid configuration")

	res = run("", "--api", api.BaseURL()+"/", "login", "-u", "ana", "-p", "x")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "@ana")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errNoSession, 3},
		{common.NewError(common.ErrValidation, "x"), 2},
		{common.NewError(common.ErrBusy, "x"), 2},
		{fmt.Errorf("wrapped: %w", common.NewError(common.ErrAuth, "x")), 3},
		{common.NewError(common.ErrAccess, "x"), 3},
		{common.NewAPIError(500, "boom"), 1},
		{errors.New("disk full"), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}
