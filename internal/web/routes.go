package web

import (
	"net/http"
	"net/url"
	"strings"

	"electoral-app/internal/view"
)

type route struct {
	method string
	href   func(arg string) string
}

func fixed(path string) func(string) string {
	return func(string) string { return path }
}

// actionRoutes maps every view action to the route that handles it
var actionRoutes = map[string]route{
	view.ActionNavigate:        {http.MethodGet, func(arg string) string { return "/page/" + url.PathEscape(arg) }},
	view.ActionLogout:          {http.MethodPost, fixed("/logout")},
	view.ActionSubmitAuth:      {http.MethodPost, fixed("/auth")},
	view.ActionToggleAuth:      {http.MethodPost, fixed("/auth/toggle")},
	view.ActionShowRecovery:    {http.MethodPost, fixed("/auth/recovery/show")},
	view.ActionShowLogin:       {http.MethodPost, fixed("/auth/recovery/hide")},
	view.ActionSubmitRecovery:  {http.MethodPost, fixed("/auth/recover")},
	view.ActionSendEmergency:   {http.MethodPost, fixed("/emergency")},
	view.ActionDeleteMessage:   {http.MethodPost, func(arg string) string { return "/messages/" + url.PathEscape(arg) + "/delete" }},
	view.ActionDeleteUser:      {http.MethodPost, func(arg string) string { return "/admin/users/" + url.PathEscape(arg) + "/delete" }},
	view.ActionLoadUsers:       {http.MethodPost, fixed("/admin/users/reload")},
	view.ActionExportPDF:       {http.MethodGet, fixed("/admin/export")},
	view.ActionOpenPhoto:       {http.MethodGet, func(arg string) string { return arg }},
	view.ActionPrintPhoto:      {http.MethodGet, func(arg string) string { return "/print?src=" + url.QueryEscape(arg) }},
	view.ActionUploadPhoto:     {http.MethodPost, fixed("/profile/photo")},
	view.ActionElectoralAccess: {http.MethodPost, fixed("/access/electoral")},
	view.ActionAdminAccess:     {http.MethodPost, fixed("/access/admin")},
}

// photoActions carry a server-supplied URL as their argument
var photoActions = map[string]bool{
	view.ActionOpenPhoto:  true,
	view.ActionPrintPhoto: true,
}

// safePhotoURL accepts host-relative paths and http(s) URLs only
func safePhotoURL(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\") {
		u, err := url.Parse(raw)
		return err == nil && u.Scheme == "" && u.Host == ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// bind is the view.Binder of the web UI. Photo actions with an unsafe URL
// stay unbound.
func bind(a *view.Action) (view.Binding, bool) {
	r, ok := actionRoutes[a.Name]
	if !ok {
		return view.Binding{}, false
	}
	if photoActions[a.Name] && !safePhotoURL(a.Arg) {
		return view.Binding{}, false
	}
	return view.Binding{Method: r.method, Href: r.href(a.Arg)}, true
}
