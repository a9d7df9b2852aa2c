package view

import (
	"bytes"
	"html/template"
)

// NotFoundPageData provides the dynamic fields for the not-found template.
type NotFoundPageData struct {
	Slug string
}

var notFoundPageTmpl = template.Must(template.New("notfound_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Link not found</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e8e9ee;
			--muted: #9aa0ab;
		}
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: var(--bg);
			color: var(--text);
			font-family: system-ui, -apple-system, "Segoe UI", sans-serif;
		}
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 16px;
			padding: 40px 48px;
			max-width: 420px;
			text-align: center;
		}
		h1 { font-size: 22px; margin: 0 0 12px; }
		p { color: var(--muted); margin: 0; }
		code {
			background: rgba(255, 255, 255, 0.08);
			border-radius: 6px;
			padding: 2px 8px;
		}
	</style>
</head>
<body>
	<div class="card">
		<h1>This link does not exist</h1>
		<p><code>{{.Slug}}</code> was never registered or has expired.</p>
	</div>
</body>
</html>
`))

// RenderNotFoundPage renders the HTML shown to browsers for a missing or
// expired slug.
func RenderNotFoundPage(data NotFoundPageData) (string, error) {
	var buf bytes.Buffer
	if err := notFoundPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
