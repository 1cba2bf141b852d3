package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"electoral-app/internal/common"
	"electoral-app/internal/form"
	"electoral-app/internal/models"
	"electoral-app/internal/nav"
	"electoral-app/internal/storage/block"
)

// AuthInput is the auth form. Registration uses every field, login only
// Username and Password.
type AuthInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// Export is a saved reports PDF
type Export struct {
	Name        string
	Location    string
	ContentType string
	Data        []byte
}

// guarded runs fn under g. A busy form is reported but not logged as a failure.
func (a *App) guarded(g *form.Guard, fn func() error) error {
	err := g.Run(fn)
	if common.IsErrorCode(err, common.ErrBusy) {
		log.Printf("⏳ Form %s is already submitting", g.Name())
	}
	return err
}

// Auth handlers

// SubmitAuth logs in or registers depending on the auth mode. Errors are
// shown inline next to the form.
func (a *App) SubmitAuth(ctx context.Context, in AuthInput) error {
	register := a.AuthState().Register
	fallback := "Error de login"
	if register {
		fallback = "Error de registro"
	}

	err := a.guarded(a.authForm, func() error {
		if register {
			_, err := a.session.Register(ctx, &models.RegisterRequest{
				Username:  strings.TrimSpace(in.Username),
				Password:  in.Password,
				Email:     strings.TrimSpace(in.Email),
				FirstName: strings.TrimSpace(in.FirstName),
				LastName:  strings.TrimSpace(in.LastName),
				Phone:     strings.TrimSpace(in.Phone),
			})
			return err
		}
		_, err := a.session.Login(ctx, strings.TrimSpace(in.Username), in.Password)
		return err
	})
	if err != nil {
		msg := common.UserMessage(err, fallback)
		a.mu.Lock()
		a.auth.Error = msg
		a.mu.Unlock()
		a.notifier.Inline(msg)
		return err
	}

	a.notifier.ClearInline()
	return nil
}

// ToggleAuthMode switches between login and registration
func (a *App) ToggleAuthMode() {
	a.mu.Lock()
	a.auth.Register = !a.auth.Register
	a.auth.Error = ""
	a.mu.Unlock()
	a.notifier.ClearInline()
}

// ShowRecovery switches the auth screen to the password recovery form
func (a *App) ShowRecovery() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.auth.Recovery = true
}

// ShowLogin switches the auth screen back to the login form
func (a *App) ShowLogin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.auth.Recovery = false
}

// SubmitRecovery requests a password recovery email
func (a *App) SubmitRecovery(ctx context.Context, email string) (string, error) {
	var message string
	err := a.guarded(a.recoveryForm, func() error {
		var err error
		message, err = a.session.RecoverPassword(ctx, strings.TrimSpace(email))
		return err
	})
	if err != nil {
		a.notifier.Alert(common.UserMessage(err, "Error en recuperación"))
		return "", err
	}

	a.notifier.Alert(message)
	a.ShowLogin()
	return message, nil
}

// Logout signs out unconditionally
func (a *App) Logout() {
	a.session.Logout()
}

// Access handlers

// ParseSection reads a section number typed by the user
func ParseSection(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, common.NewError(common.ErrValidation, "la sección electoral debe ser un número positivo")
	}
	return n, nil
}

// SubmitElectoralAccess requests the electoral-section role
func (a *App) SubmitElectoralAccess(ctx context.Context, section int, code string) error {
	err := a.guarded(a.electoralForm, func() error {
		_, err := a.session.RequestElectoralAccess(ctx, section, code)
		return err
	})
	if err != nil {
		a.notifier.Alert(common.UserMessage(err, accessFallback(err, "Código de sección incorrecto")))
		return err
	}
	a.notifier.Alert("Acceso a sección electoral otorgado")
	return nil
}

// SubmitAdminAccess requests the admin role
func (a *App) SubmitAdminAccess(ctx context.Context, code string) error {
	err := a.guarded(a.adminForm, func() error {
		_, err := a.session.RequestAdminAccess(ctx, code)
		return err
	})
	if err != nil {
		a.notifier.Alert(common.UserMessage(err, accessFallback(err, "Código de administrador incorrecto")))
		return err
	}
	a.notifier.Alert("Acceso de administrador otorgado")
	return nil
}

// accessFallback tells a rejected code apart from the refresh that follows a granted one
func accessFallback(err error, rejected string) string {
	if common.IsErrorCode(err, common.ErrAccess) {
		return rejected
	}
	return "Error actualizando la sesión"
}

// Emergency handlers

// SubmitEmergency sends an emergency message. With a photo, message and photo
// travel in a single multipart request.
func (a *App) SubmitEmergency(ctx context.Context, message string, photo *models.Photo) error {
	err := a.guarded(a.emergencyForm, func() error {
		if !a.session.Authenticated() {
			return common.NewError(common.ErrNotAuthenticated, "no hay sesión activa")
		}
		if strings.TrimSpace(message) == "" {
			return common.NewError(common.ErrValidation, "el mensaje es obligatorio")
		}
		created, err := a.session.API().SendEmergency(ctx, message, photo)
		if err != nil {
			return err
		}
		if photo != nil {
			log.Printf("🚨 Emergency %s sent with photo %s (%s)", created.ID, photo.Name, humanize.IBytes(uint64(photo.Size())))
		} else {
			log.Printf("🚨 Emergency %s sent", created.ID)
		}
		return nil
	})
	if err != nil {
		a.notifier.Alert(common.UserMessage(err, "Error enviando mensaje de emergencia"))
		return err
	}

	a.notifier.Alert("Mensaje de emergencia enviado")
	if err := a.router.NavigateTo(ctx, nav.PageProfile); err != nil {
		log.Printf("❌ Failed to return to profile: %v", err)
	}
	return nil
}

// LoadEmergencyMessages refreshes the cached feed. Failures are only logged.
func (a *App) LoadEmergencyMessages(ctx context.Context) error {
	messages, err := a.session.API().ListEmergencyMessages(ctx)
	if err != nil {
		log.Printf("❌ Error loading emergency messages: %v", err)
		return err
	}

	a.mu.Lock()
	a.messages = messages
	a.mu.Unlock()
	log.Printf("📨 Loaded %d emergency messages", len(messages))
	return nil
}

// DeleteEmergencyMessage deletes a message and reloads the feed. Confirmation
// is the front end's job.
func (a *App) DeleteEmergencyMessage(ctx context.Context, id models.ID) error {
	if err := a.session.API().DeleteEmergencyMessage(ctx, id); err != nil {
		a.notifier.Alert(common.UserMessage(err, "Error eliminando mensaje"))
		return err
	}

	a.notifier.Alert("Mensaje eliminado")
	a.LoadEmergencyMessages(ctx)
	return nil
}

// Admin handlers

// LoadAdminData refreshes stats, users and messages, in that order. It does
// nothing for non-admins. A stats failure aborts the load; user and message
// failures are collected.
func (a *App) LoadAdminData(ctx context.Context) error {
	user := a.session.User()
	if user == nil || user.Role != models.RoleAdmin {
		return nil
	}

	stats, err := a.session.API().AdminStats(ctx)
	if err != nil {
		log.Printf("❌ Error loading admin data: %v", err)
		return err
	}
	a.mu.Lock()
	a.stats = stats
	a.mu.Unlock()

	return errors.Join(a.LoadUsers(ctx), a.LoadEmergencyMessages(ctx))
}

// LoadUsers refreshes the cached user list
func (a *App) LoadUsers(ctx context.Context) error {
	users, err := a.session.API().AdminUsers(ctx)
	if err != nil {
		log.Printf("❌ Error loading users: %v", err)
		return err
	}

	a.mu.Lock()
	a.users = users
	a.mu.Unlock()
	return nil
}

// DeleteUser removes a user account and reloads the list
func (a *App) DeleteUser(ctx context.Context, id models.ID) error {
	if err := a.session.API().DeleteUser(ctx, id); err != nil {
		a.notifier.Alert(common.UserMessage(err, "Error eliminando usuario"))
		return err
	}

	a.notifier.Alert("Usuario eliminado")
	a.LoadUsers(ctx)
	return nil
}

// ExportPDF downloads the reports PDF and saves it to the export sink as
// reportes_<date>.pdf
func (a *App) ExportPDF(ctx context.Context) (*Export, error) {
	var export *Export
	err := a.guarded(a.exportAction, func() error {
		d, err := a.session.API().ExportReportsPDF(ctx)
		if err != nil {
			return err
		}

		st, err := a.exportStorage(ctx)
		if err != nil {
			return common.NewErrorWithCause(common.ErrInternal, "export storage unavailable", err)
		}
		name := block.ReportName(a.now())
		meta, err := block.Save(ctx, st, name, d.Data)
		if err != nil {
			return common.NewErrorWithCause(common.ErrInternal, "failed to save report", err)
		}

		contentType := d.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		export = &Export{Name: name, Location: st.Location(name), ContentType: contentType, Data: d.Data}
		log.Printf("📄 Exported %s (%s) to %s", name, humanize.Bytes(uint64(meta.Size)), export.Location)
		return nil
	})
	if err != nil {
		a.notifier.Alert(common.UserMessage(err, "Error exportando PDF"))
		return nil, err
	}

	a.notifier.Alert(fmt.Sprintf("Reporte exportado: %s", export.Location))
	return export, nil
}

// SavedExport is a report kept in the export sink
type SavedExport struct {
	Name     string
	Location string
	Size     int64
	ModTime  time.Time
}

// ListExports returns the saved reports, newest first
func (a *App) ListExports(ctx context.Context) ([]SavedExport, error) {
	st, err := a.exportStorage(ctx)
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "export storage unavailable", err)
	}
	objects, err := st.List(ctx, block.ReportPrefix)
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "failed to list reports", err)
	}

	exports := make([]SavedExport, 0, len(objects))
	for _, obj := range objects {
		exports = append(exports, SavedExport{
			Name:     obj.Path,
			Location: st.Location(obj.Path),
			Size:     obj.Size,
			ModTime:  time.Unix(obj.ModTime, 0),
		})
	}
	sort.Slice(exports, func(i, j int) bool {
		if !exports[i].ModTime.Equal(exports[j].ModTime) {
			return exports[i].ModTime.After(exports[j].ModTime)
		}
		return exports[i].Name > exports[j].Name
	})
	return exports, nil
}

// OpenExport returns the content of a saved report
func (a *App) OpenExport(ctx context.Context, name string) (io.ReadCloser, error) {
	st, err := a.reportStorage(ctx, name)
	if err != nil {
		return nil, err
	}
	r, err := st.Reader(ctx, name)
	if err != nil {
		return nil, exportError(name, err)
	}
	return r, nil
}

// DeleteExport removes a saved report
func (a *App) DeleteExport(ctx context.Context, name string) error {
	st, err := a.reportStorage(ctx, name)
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, name); err != nil {
		return exportError(name, err)
	}
	log.Printf("🗑️  Deleted report %s", name)
	return nil
}

// ExportsHealth checks that the export sink is usable
func (a *App) ExportsHealth(ctx context.Context) error {
	st, err := a.exportStorage(ctx)
	if err != nil {
		return err
	}
	return st.Health(ctx)
}

// reportStorage returns the export sink after checking name is a report
func (a *App) reportStorage(ctx context.Context, name string) (block.Storage, error) {
	if !strings.HasPrefix(name, block.ReportPrefix) {
		return nil, common.NewError(common.ErrValidation, fmt.Sprintf("nombre de reporte inválido: %s", name))
	}
	st, err := a.exportStorage(ctx)
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "export storage unavailable", err)
	}
	return st, nil
}

func exportError(name string, err error) error {
	switch {
	case block.IsNotFound(err):
		return common.NewErrorWithCause(common.ErrValidation, fmt.Sprintf("no existe el reporte %s", name), err)
	case block.IsInvalidPath(err):
		return common.NewErrorWithCause(common.ErrValidation, fmt.Sprintf("nombre de reporte inválido: %s", name), err)
	default:
		return common.NewErrorWithCause(common.ErrInternal, "export storage failed", err)
	}
}

// Profile handlers

// UploadProfilePhoto replaces the profile photo
func (a *App) UploadProfilePhoto(ctx context.Context, photo *models.Photo) error {
	err := a.guarded(a.photoForm, func() error {
		_, err := a.session.UploadProfilePhoto(ctx, photo)
		return err
	})
	if err != nil {
		a.notifier.Alert(common.UserMessage(err, "Error subiendo foto de perfil"))
		return err
	}
	a.notifier.Alert("Foto de perfil actualizada correctamente")
	return nil
}

// Navigation

// Navigate switches to the named page and loads its data
func (a *App) Navigate(ctx context.Context, page string) error {
	p, ok := nav.ParsePage(page)
	if !ok {
		return fmt.Errorf("%w: %q", nav.ErrUnknownPage, page)
	}
	return a.router.NavigateTo(ctx, p)
}
