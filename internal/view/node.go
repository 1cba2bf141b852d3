// Package view builds the view trees the front ends display.
//
// Renderers are pure functions of their input snapshot and return a fresh tree
// that fully replaces the previous one. Interactive elements carry an Action
// value; front ends bind actions to their own handlers.
package view

// Action names bound by the front ends
const (
	ActionNavigate        = "navigate"
	ActionLogout          = "logout"
	ActionSubmitAuth      = "submit-auth"
	ActionToggleAuth      = "toggle-auth"
	ActionShowRecovery    = "show-recovery"
	ActionShowLogin       = "show-login"
	ActionSubmitRecovery  = "submit-recovery"
	ActionSendEmergency   = "send-emergency"
	ActionDeleteMessage   = "delete-message"
	ActionDeleteUser      = "delete-user"
	ActionLoadUsers       = "load-users"
	ActionExportPDF       = "export-pdf"
	ActionOpenPhoto       = "open-photo"
	ActionPrintPhoto      = "print-photo"
	ActionUploadPhoto     = "upload-photo"
	ActionElectoralAccess = "electoral-access"
	ActionAdminAccess     = "admin-access"
)

// Action is an event binding expressed as data
type Action struct {
	Name    string `json:"name"`
	Arg     string `json:"arg,omitempty"`
	Confirm string `json:"confirm,omitempty"`
}

// Node is one element of a view tree
type Node struct {
	Tag      string            `json:"tag"`
	ID       string            `json:"id,omitempty"`
	Class    string            `json:"class,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*Node           `json:"children,omitempty"`
	Action   *Action           `json:"action,omitempty"`
	Hidden   bool              `json:"hidden,omitempty"`
}

// El creates an element with children
func El(tag, class string, children ...*Node) *Node {
	return &Node{Tag: tag, Class: class, Children: children}
}

// Txt creates an element holding text
func Txt(tag, class, text string) *Node {
	return &Node{Tag: tag, Class: class, Text: text}
}

// WithID sets the element id
func (n *Node) WithID(id string) *Node {
	n.ID = id
	return n
}

// WithAttr sets one attribute
func (n *Node) WithAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

// On binds an action to the element
func (n *Node) On(name, arg string) *Node {
	n.Action = &Action{Name: name, Arg: arg}
	return n
}

// Confirmed asks the front end to confirm before running the element's action
func (n *Node) Confirmed(prompt string) *Node {
	if n.Action != nil {
		n.Action.Confirm = prompt
	}
	return n
}

// Hide marks the element hidden
func (n *Node) Hide(hidden bool) *Node {
	n.Hidden = hidden
	return n
}

// Append adds children, skipping nil ones
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Find returns the first node with the given id in a depth-first walk
func (n *Node) Find(id string) *Node {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk calls fn for n and every descendant
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Actions returns every action in the tree, in document order
func (n *Node) Actions() []*Action {
	var actions []*Action
	n.Walk(func(node *Node) {
		if node.Action != nil {
			actions = append(actions, node.Action)
		}
	})
	return actions
}

// input creates a form field
func input(name, kind, placeholder string, required bool) *Node {
	n := &Node{Tag: "input"}
	n.WithAttr("name", name).WithAttr("type", kind)
	if placeholder != "" {
		n.WithAttr("placeholder", placeholder)
	}
	if required {
		n.WithAttr("required", "required")
	}
	return n
}

// form creates a form bound to action
func form(id, action string, children ...*Node) *Node {
	return El("form", "", children...).WithID(id).On(action, "")
}

func submit(label string) *Node {
	return Txt("button", "btn-primary", label).WithAttr("type", "submit")
}
