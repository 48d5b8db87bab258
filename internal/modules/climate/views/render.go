package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var viewsFS embed.FS

var indexTmpl *template.Template

// loadTemplatesFromFS parses the index template from dir in fsys. Tests use
// it to simulate broken template sets.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "index.html")
	if err != nil {
		return err
	}
	indexTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup; if it
// returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Route is one entry of the route listing.
type Route struct {
	Path        string
	Description string
}

type IndexData struct {
	Title  string
	Routes []Route
}

// APIRoutes are the climate routes listed on the index page, in the order
// they are documented.
var APIRoutes = []Route{
	{Path: "/api/v1.0/precipitation", Description: "precipitation by date for the most recent year of data"},
	{Path: "/api/v1.0/stations", Description: "stations ordered by number of observations"},
	{Path: "/api/v1.0/tobs", Description: "temperature observations of the most active station for the most recent year"},
	{Path: "/api/v1.0/<start>", Description: "min, avg and max temperature from start (YYYY-MM-DD)"},
	{Path: "/api/v1.0/<start>/<end>", Description: "min, avg and max temperature from start to end inclusive"},
}

func RenderIndex(w io.Writer, data IndexData) error {
	if indexTmpl == nil {
		return errors.New("index template not loaded: call views.LoadTemplates during startup")
	}
	return indexTmpl.ExecuteTemplate(w, "index.html", data)
}
