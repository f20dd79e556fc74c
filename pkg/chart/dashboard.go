package chart

import (
	"html/template"
	"io"
)

// Link is one dashboard entry.
type Link struct {
	Name string
	Href string
}

// Dashboard describes the index page.
type Dashboard struct {
	Title  string
	Period string
	Rows   int
	Views  []Link
	Tests  []Link
	Other  []Link
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Rows}} records, {{.Period}}</p>
<h2>Segmentation</h2>
<ul>{{range .Views}}<li><a href="{{.Href}}">{{.Name}}</a></li>{{end}}</ul>
<h2>Hypothesis tests</h2>
<ul>{{range .Tests}}<li><a href="{{.Href}}">{{.Name}}</a></li>{{end}}</ul>
<h2>More</h2>
<ul>{{range .Other}}<li><a href="{{.Href}}">{{.Name}}</a></li>{{end}}</ul>
</body>
</html>
`))

// RenderDashboard writes the index page.
func RenderDashboard(w io.Writer, d Dashboard) error {
	return dashboardTmpl.Execute(w, d)
}
