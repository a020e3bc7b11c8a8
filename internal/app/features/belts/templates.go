// internal/app/features/belts/templates.go
package belts

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "belts",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
