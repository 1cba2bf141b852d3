package view

import (
	"fmt"
	"strconv"
	"time"

	"electoral-app/internal/models"
	"electoral-app/internal/nav"
)

const (
	confirmDeleteMessage = "¿Estás seguro de eliminar este mensaje?"
	confirmDeleteUser    = "¿Estás seguro de eliminar este usuario?"
)

// RenderEmergencyFeed renders one card per message in server order. The delete
// control is only present when viewer is an admin or the message author.
func RenderEmergencyFeed(messages []*models.EmergencyMessage, viewer *models.User) *Node {
	list := El("div", "reports-list").WithID("messages-list")
	for _, msg := range messages {
		list.Append(messageCard(msg, msg.CanDelete(viewer)))
	}
	if len(messages) == 0 {
		list.Append(Txt("p", "empty-state", "No hay mensajes de emergencia"))
	}
	return list
}

// RenderAdminFeed renders the dashboard copy of the feed, where every message can be deleted
func RenderAdminFeed(messages []*models.EmergencyMessage) *Node {
	list := El("div", "reports-list").WithID("admin-messages-list")
	for _, msg := range messages {
		list.Append(messageCard(msg, true))
	}
	if len(messages) == 0 {
		list.Append(Txt("p", "empty-state", "No hay mensajes de emergencia"))
	}
	return list
}

func messageCard(msg *models.EmergencyMessage, canDelete bool) *Node {
	date := Txt("span", "report-date", FormatDate(msg.Timestamp))
	if !msg.Timestamp.IsZero() {
		date.WithAttr("datetime", msg.Timestamp.UTC().Format(time.RFC3339))
	}

	header := El("div", "report-header",
		Txt("span", "report-type", "Emergencia"),
		date,
	)
	if canDelete {
		header.Append(Txt("button", "delete-btn-small", "×").
			On(ActionDeleteMessage, string(msg.ID)).
			Confirmed(confirmDeleteMessage))
	}

	content := El("div", "report-content",
		El("p", "", Txt("strong", "", msg.UserName)),
		Txt("p", "", msg.Message),
	)
	if msg.HasPhoto() {
		content.Append(El("div", "photo-container",
			(&Node{Tag: "img", Class: "report-photo"}).
				WithAttr("src", msg.Photo).
				WithAttr("alt", "Emergencia").
				On(ActionOpenPhoto, msg.Photo),
			Txt("button", "print-photo-btn", "🖨️ Imprimir").On(ActionPrintPhoto, msg.Photo),
		))
	}

	return El("div", "report-item", header, content).WithID("message-" + string(msg.ID))
}

// RenderUserList renders one row per user with a delete control
func RenderUserList(users []*models.User) *Node {
	list := El("div", "admin-list").WithID("users-list")
	for _, u := range users {
		desc := fmt.Sprintf("%s • %s", u.Handle(), u.Email)
		if u.HasSection() {
			desc += fmt.Sprintf(" • Sección %d", *u.ElectoralSection)
		}
		list.Append(El("div", "admin-list-item",
			El("div", "user-info",
				Txt("div", "user-name", u.FullName()),
				Txt("div", "user-description", desc),
			),
			Txt("button", "delete-btn", "Eliminar").
				On(ActionDeleteUser, string(u.ID)).
				Confirmed(confirmDeleteUser),
		).WithID("user-" + string(u.ID)))
	}
	return list
}

// RenderAdminStats renders the summary counters and one card per section
func RenderAdminStats(stats *models.AdminStats) *Node {
	if stats == nil {
		stats = &models.AdminStats{}
	}

	counters := El("div", "stats-grid",
		statCard("total-users", "Usuarios", stats.TotalUsers),
		statCard("pending-emergencies", "Emergencias", stats.PendingEmergencies),
		statCard("total-reports", "Reportes", stats.TotalReports),
	)

	sections := El("div", "sections-grid").WithID("sections-grid")
	for _, s := range stats.SectionStats {
		sections.Append(El("div", "section-stat-card",
			Txt("h4", "", fmt.Sprintf("Sección %d", s.Section)),
			Txt("p", "", fmt.Sprintf("%d usuarios", s.Users)),
		))
	}

	return El("div", "admin-stats", counters, sections).WithID("admin-stats")
}

func statCard(id, label string, value int) *Node {
	return El("div", "stat-card",
		Txt("div", "stat-value", strconv.Itoa(value)).WithID(id),
		Txt("div", "stat-label", label),
	)
}

// RenderAdminDashboard composes the admin page
func RenderAdminDashboard(stats *models.AdminStats, users []*models.User, messages []*models.EmergencyMessage) *Node {
	return El("div", "page-content",
		Txt("h2", "", "Panel de Administración"),
		RenderAdminStats(stats),
		El("div", "admin-actions",
			Txt("button", "btn-secondary", "📄 Exportar PDF").On(ActionExportPDF, ""),
			Txt("button", "btn-secondary", "🔄 Actualizar usuarios").On(ActionLoadUsers, ""),
		),
		Txt("h3", "", "Usuarios"),
		RenderUserList(users),
		Txt("h3", "", "Mensajes de emergencia"),
		RenderAdminFeed(messages),
	).WithID("admin-page")
}

// RenderMessagesPage composes the messages page
func RenderMessagesPage(messages []*models.EmergencyMessage, viewer *models.User) *Node {
	return El("div", "page-content",
		Txt("h2", "", "Mensajes de emergencia"),
		RenderEmergencyFeed(messages, viewer),
	).WithID("messages-page")
}

// RenderProfile renders the current user's profile. The elevation forms are
// only offered to plain users.
func RenderProfile(user *models.User) *Node {
	avatar := El("div", "user-avatar").WithID("user-avatar")
	if user.ProfilePhoto != "" {
		avatar.Append((&Node{Tag: "img", Class: "avatar-photo"}).
			WithAttr("src", user.ProfilePhoto).
			WithAttr("alt", user.FullName()))
	} else {
		avatar.Text = user.Initials()
	}

	photoForm := form("photo-form", ActionUploadPhoto,
		input("photo", "file", "", true).WithAttr("accept", "image/*").WithAttr("capture", "environment"),
		submit("📷 Cambiar foto"),
	).WithAttr("enctype", "multipart/form-data")

	section := Txt("p", "user-section", "").WithID("user-section")
	if user.HasSection() {
		section.Text = fmt.Sprintf("Sección Electoral: %d", *user.ElectoralSection)
	} else {
		section.Hide(true)
	}

	actions := El("div", "user-actions",
		Txt("h3", "", "Solicitar acceso"),
		form("electoral-access-form", ActionElectoralAccess,
			input("section", "number", "Número de sección", true).WithAttr("min", "1"),
			input("code", "password", "Código de sección", true),
			submit("Acceder a sección electoral"),
		),
		form("admin-access-form", ActionAdminAccess,
			input("code", "password", "Código de administrador", true),
			submit("Acceder como administrador"),
		),
	).WithID("user-actions").Hide(user.Role != models.RoleUser)

	return El("div", "page-content",
		El("div", "profile-card",
			avatar,
			photoForm,
			Txt("h2", "user-name", user.FullName()).WithID("user-display-name"),
			Txt("p", "user-username", user.Handle()).WithID("user-username"),
			Txt("p", "user-email", user.Email).WithID("user-email"),
			section,
		),
		actions,
	).WithID("profile-page")
}

// RenderEmergencyForm renders the emergency report form
func RenderEmergencyForm() *Node {
	return El("div", "page-content",
		Txt("h2", "", "🚨 Reportar emergencia"),
		form("emergency-form", ActionSendEmergency,
			(&Node{Tag: "textarea"}).
				WithAttr("name", "message").
				WithAttr("placeholder", "Describí la situación").
				WithAttr("required", "required"),
			input("photo", "file", "", false).WithAttr("accept", "image/*").WithAttr("capture", "environment"),
			submit("Enviar emergencia"),
		).WithAttr("enctype", "multipart/form-data"),
	).WithID("emergency-page")
}

// RenderNavigation renders the nav bar for role, highlighting active.
// Items the role cannot see are present but hidden.
func RenderNavigation(role models.Role, active nav.Page) *Node {
	visible := nav.VisibleNavigation(role)
	bar := El("nav", "bottom-nav").WithID("nav").WithAttr("data-role", string(role))
	for _, page := range nav.Pages {
		class := "nav-item"
		if page == active {
			class += " active"
		}
		bar.Append(Txt("button", class, navIcons[page]+" "+page.Label()).
			WithID("nav-"+string(page)).
			On(ActionNavigate, string(page)).
			Hide(!visible.Shows(page)))
	}
	return bar.Append(Txt("button", "nav-item logout", "Salir").WithID("nav-logout").On(ActionLogout, ""))
}

var navIcons = map[nav.Page]string{
	nav.PageProfile:   "👤",
	nav.PageEmergency: "🚨",
	nav.PageMessages:  "📨",
	nav.PageAdmin:     "👑",
}

// AuthState is what the auth screen shows
type AuthState struct {
	Register bool
	Recovery bool
	Error    string
}

// RenderAuth renders the login/register screen or the recovery form
func RenderAuth(state AuthState) *Node {
	title, submitLabel, toggleLabel := "Iniciar Sesión", "Iniciar Sesión", "¿No tienes cuenta? Regístrate"
	if state.Register {
		title, submitLabel, toggleLabel = "Registrarse", "Registrarse", "¿Ya tienes cuenta? Inicia sesión"
	}

	errorBanner := Txt("div", "error-message", state.Error).WithID("error-message").Hide(state.Error == "")

	registerFields := El("div", "register-fields",
		input("email", "email", "Email", false),
		input("first_name", "text", "Nombre", false),
		input("last_name", "text", "Apellido", false),
		input("phone", "tel", "Teléfono", false),
	).WithID("register-fields").Hide(!state.Register)

	login := El("div", "auth-form",
		Txt("h2", "", title).WithID("auth-title"),
		errorBanner,
		form("auth-form-element", ActionSubmitAuth,
			input("username", "text", "Usuario", true),
			input("password", "password", "Contraseña", true),
			registerFields,
			submit(submitLabel).WithID("auth-submit-btn"),
		),
		Txt("button", "link-btn", toggleLabel).WithID("toggle-auth").On(ActionToggleAuth, ""),
		El("div", "",
			Txt("button", "link-btn", "¿Olvidaste tu contraseña?").WithID("show-recovery").On(ActionShowRecovery, ""),
		).WithID("recovery-link-container").Hide(state.Register),
	).WithID("login-form").Hide(state.Recovery)

	recovery := El("div", "auth-form",
		Txt("h2", "", "Recuperar contraseña"),
		form("recovery-form-element", ActionSubmitRecovery,
			input("email", "email", "Email", true),
			submit("Enviar instrucciones"),
		),
		Txt("button", "link-btn", "Volver").WithID("back-to-login").On(ActionShowLogin, ""),
	).WithID("recovery-form").Hide(!state.Recovery)

	return El("div", "auth-screen", login, recovery).WithID("auth-screen")
}

// RenderLoading renders the startup screen
func RenderLoading() *Node {
	return El("div", "loading-screen", Txt("p", "", "Cargando...")).WithID("loading-screen")
}

// RenderPrintPhoto renders a printable page holding one photo
func RenderPrintPhoto(url string) *Node {
	return El("html", "",
		El("head", "", Txt("title", "", "Imprimir Foto")),
		El("body", "",
			(&Node{Tag: "img"}).WithAttr("src", url).WithAttr("alt", "Foto"),
		).WithAttr("data-autoprint", "true"),
	)
}
