package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

// printRaw renders the model's markdown reply for a terminal. Rendering
// failures fall back to the plain text.
func printRaw(w io.Writer, text string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		if out, err := r.Render(text); err == nil {
			_, _ = fmt.Fprint(w, out)
			return
		}
	}
	_, _ = fmt.Fprintln(w, text)
}
