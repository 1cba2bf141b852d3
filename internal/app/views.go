package app

import (
	"electoral-app/internal/form"
	"electoral-app/internal/nav"
	"electoral-app/internal/view"
)

// View returns the tree of the visible screen
func (a *App) View() *view.Node {
	switch a.router.Screen() {
	case nav.ScreenAuth:
		return a.AuthView()
	case nav.ScreenMain:
		if v := a.MainView(); v != nil {
			return v
		}
		return a.AuthView()
	default:
		return view.RenderLoading()
	}
}

// AuthView returns the auth screen
func (a *App) AuthView() *view.Node {
	return disableWhileBusy(view.RenderAuth(a.AuthState()), a.authForm)
}

// MainView returns the main app: header, navigation and the active page.
// It is nil when nobody is signed in.
func (a *App) MainView() *view.Node {
	user := a.session.User()
	if user == nil {
		return nil
	}
	page := a.router.Current()

	return view.El("div", "main-app",
		view.El("header", "app-header",
			view.Txt("h1", "", "App Electoral"),
			view.Txt("span", "header-user", user.FullName()),
		),
		a.PageView(page),
		view.RenderNavigation(user.Role, page),
	).WithID("main-app")
}

// PageView returns the tree of one page for the signed-in user
func (a *App) PageView(page nav.Page) *view.Node {
	user := a.session.User()
	if user == nil {
		return nil
	}

	switch page {
	case nav.PageEmergency:
		return disableWhileBusy(view.RenderEmergencyForm(), a.emergencyForm)
	case nav.PageMessages:
		return view.RenderMessagesPage(a.Messages(), user)
	case nav.PageAdmin:
		return view.RenderAdminDashboard(a.Stats(), a.Users(), a.Messages())
	default:
		return view.RenderProfile(user)
	}
}

// disableWhileBusy disables the submit buttons of tree while g is in flight
func disableWhileBusy(tree *view.Node, g *form.Guard) *view.Node {
	if !g.Busy() {
		return tree
	}
	tree.Walk(func(n *view.Node) {
		if n.Tag == "button" && n.Attrs["type"] == "submit" {
			n.WithAttr("disabled", "disabled")
		}
	})
	return tree
}
