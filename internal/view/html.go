package view

import (
	"html"
	"io"
	"sort"
	"strings"
)

// Binding is where a front end routes an action
type Binding struct {
	Method string
	Href   string
}

// Binder resolves an action to a route. ok is false for actions the front end
// does not handle; those elements are rendered inert.
type Binder func(a *Action) (b Binding, ok bool)

var voidElements = map[string]bool{"input": true, "img": true, "br": true, "meta": true, "link": true}

// HTML writes n as escaped HTML. Forms are pointed at their bound route;
// other bound elements become links (GET) or single-button forms (POST).
func HTML(w io.Writer, n *Node, bind Binder) error {
	_, err := io.WriteString(w, HTMLString(n, bind))
	return err
}

// HTMLString renders n to a string
func HTMLString(n *Node, bind Binder) string {
	var b strings.Builder
	writeHTML(&b, n, bind)
	return b.String()
}

func writeHTML(b *strings.Builder, n *Node, bind Binder) {
	if n == nil {
		return
	}

	var binding Binding
	bound := false
	if n.Action != nil && bind != nil {
		binding, bound = bind(n.Action)
	}

	attrs := make(map[string]string, len(n.Attrs)+4)
	for k, v := range n.Attrs {
		attrs[k] = v
	}
	if n.ID != "" {
		attrs["id"] = n.ID
	}
	if n.Class != "" {
		attrs["class"] = n.Class
	}
	if n.Hidden {
		attrs["hidden"] = "hidden"
	}
	if n.Action != nil && n.Action.Confirm != "" {
		attrs["data-confirm"] = n.Action.Confirm
	}

	switch {
	case bound && n.Tag == "form":
		attrs["method"] = strings.ToLower(binding.Method)
		attrs["action"] = binding.Href
		writeElement(b, n, "form", attrs, bind)
	case bound && binding.Method == "GET":
		writeElement(b, n, "a", mergeAttrs(attrs, "href", binding.Href), bind)
	case bound:
		formAttrs := map[string]string{"method": "post", "action": binding.Href, "class": "inline-action"}
		if c, ok := attrs["data-confirm"]; ok {
			formAttrs["data-confirm"] = c
			delete(attrs, "data-confirm")
		}
		if n.Hidden {
			formAttrs["hidden"] = "hidden"
		}
		openTag(b, "form", formAttrs)
		attrs["type"] = "submit"
		writeElement(b, n, "button", attrs, bind)
		b.WriteString("</form>")
	default:
		writeElement(b, n, n.Tag, attrs, bind)
	}
}

func writeElement(b *strings.Builder, n *Node, tag string, attrs map[string]string, bind Binder) {
	if tag == "a" && n.Tag == "img" {
		// a bound image becomes a link around the image
		img := make(map[string]string)
		for k, v := range attrs {
			if k != "href" {
				img[k] = v
			}
		}
		openTag(b, "a", map[string]string{"href": attrs["href"], "target": "_blank"})
		openTag(b, "img", img)
		b.WriteString("</a>")
		return
	}

	openTag(b, tag, attrs)
	if voidElements[tag] {
		return
	}
	b.WriteString(html.EscapeString(n.Text))
	for _, c := range n.Children {
		writeHTML(b, c, bind)
	}
	b.WriteString("</" + tag + ">")
}

func openTag(b *strings.Builder, tag string, attrs map[string]string) {
	b.WriteString("<" + tag)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + `="` + html.EscapeString(attrs[k]) + `"`)
	}
	b.WriteString(">")
}

func mergeAttrs(attrs map[string]string, key, value string) map[string]string {
	attrs[key] = value
	return attrs
}
