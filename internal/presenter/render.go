package presenter

import (
	htmltemplate "html/template"
	"io"
	texttemplate "text/template"
)

// Page is everything a front end needs to draw the widget.
type Page struct {
	Theme   string `json:"theme"`
	City    string `json:"city"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Panel   *Panel `json:"panel,omitempty"`
}

// Mode is "day" or "night" for the page theme.
func (p Page) Mode() string {
	if p.Theme == ThemeDay {
		return "day"
	}
	return "night"
}

const textLayout = `{{if .Loading}}Loading...
{{else if .Panel}}{{with .Panel}}Todays Weather in {{.Address}} ({{$.Mode}})
Temperature: {{.Temperature}}
Feels Like: {{.FeelsLike}}
Condition: {{.Condition}}{{with .Icon}} {{.Glyph}}{{end}}
Weather Description: {{.Description}}
Sunrise: {{.Sunrise}}
Sunset: {{.Sunset}}
{{range .Cards}}
  {{printf "%-9s" .Weekday}}  {{printf "%8s" .Temperature}}  {{.Condition}}{{with .Icon}} {{.Glyph}}{{end}}{{end}}
{{end}}{{else}}Enter a city to see the weather.
{{end}}{{with .Error}}! {{.}}
{{end}}`

const htmlLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .Panel}}{{.Panel.Address}} · {{end}}skycast</title>
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.1/css/all.min.css">
<style>
.day-background{background:linear-gradient(#87ceeb,#fdfbfb)}
.night-background{background:linear-gradient(#0f2027,#2c5364);color:#eee}
.cards{display:flex;gap:12px;flex-wrap:wrap}
.card{background:rgba(255,255,255,.7);color:#222;padding:12px;border-radius:8px;min-width:120px}
</style>
</head>
<body class="{{.Theme}}">
<main class="card">
<form method="get" action="/">
<input type="text" name="city" placeholder="Search for a city..." aria-label="Search" value="{{.City}}">
<button type="submit">Search</button>
</form>
{{with .Error}}<p role="alert">{{.}}</p>{{end}}
{{if .Loading}}<div>Loading...</div>{{else}}{{with .Panel}}
<h3>Todays Weather in {{.Address}}</h3>
<p>Temperature: {{.Temperature}}</p>
<p>Feels Like: {{.FeelsLike}}</p>
<p>Condition: {{.Condition}} {{with .Icon}}<i class="fa-solid fa-{{.Name}}" style="color: {{$.Panel.Color}}"></i>{{end}}</p>
<p>Weather Description: {{.Description}}</p>
<p>Sunrise: {{.Sunrise}}</p>
<p>Sunset: {{.Sunset}}</p>
<div class="cards">
{{range .Cards}}<div class="card">
<h5>{{.Weekday}}</h5>
<p>Temperature: {{.Temperature}}</p>
<p>Condition: {{.Condition}} {{if .Icon}}<i class="fa-solid fa-{{.Icon.Name}}" style="color: {{.Color}}"></i>{{end}}</p>
</div>
{{end}}</div>
{{end}}{{end}}
</main>
</body>
</html>
`

var (
	textTmpl = texttemplate.Must(texttemplate.New("widget").Parse(textLayout))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("widget").Parse(htmlLayout))
)

// RenderText writes the terminal rendering of page.
func RenderText(w io.Writer, page Page) error {
	return textTmpl.Execute(w, page)
}

// RenderHTML writes the single-page HTML rendering of page.
func RenderHTML(w io.Writer, page Page) error {
	return htmlTmpl.Execute(w, page)
}
