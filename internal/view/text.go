package view

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Text writes n as indented plain text for terminals. Hidden elements and form
// fields are skipped; bound actions are shown after their label.
func Text(w io.Writer, n *Node) error {
	_, err := io.WriteString(w, TextString(n))
	return err
}

// TextString renders n to a string
func TextString(n *Node) string {
	var b strings.Builder
	writeText(&b, n, 0)
	return b.String()
}

func writeText(b *strings.Builder, n *Node, depth int) {
	if n == nil || n.Hidden {
		return
	}

	var line string
	switch n.Tag {
	case "input", "textarea", "select", "head", "title":
		return
	case "form":
		if n.Action != nil {
			b.WriteString(strings.Repeat("  ", depth) + "» " + n.Action.Name + "\n")
		}
		return
	case "img":
		line = "[foto] " + n.Attrs["src"]
	default:
		line = n.Text
	}

	if line != "" {
		if dt, ok := n.Attrs["datetime"]; ok {
			if t, err := time.Parse(time.RFC3339, dt); err == nil {
				line += " (" + humanize.Time(t) + ")"
			}
		}
		if n.Action != nil && n.Action.Name != ActionOpenPhoto {
			line += fmt.Sprintf("  [%s]", strings.TrimSpace(n.Action.Name+" "+n.Action.Arg))
		}
		b.WriteString(strings.Repeat("  ", depth) + line + "\n")
		depth++
	}

	for _, c := range n.Children {
		writeText(b, c, depth)
	}
}
