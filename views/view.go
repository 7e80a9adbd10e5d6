package views

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
)

// Render writes component as an HTML page. Output is buffered so a failed
// render can still be answered with an error status.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
