// Package transcript renders chat transcripts to standalone HTML, with
// model replies treated as markdown (code fences get syntax highlighting).
package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// Turn is one entry of a transcript.
type Turn struct {
	Role string // "user" or "assistant"
	Text string // markdown for assistant turns, plain text for user turns
}

type pageData struct {
	Title string
	Turns []renderedTurn
}

type renderedTurn struct {
	Role string
	HTML template.HTML
}

// Export writes the transcript as a self-contained HTML page.
func Export(w io.Writer, title string, turns []Turn) error {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithHardWraps(),
		),
	)

	data := pageData{Title: title}
	for _, turn := range turns {
		var buf bytes.Buffer
		if err := md.Convert([]byte(turn.Text), &buf); err != nil {
			return fmt.Errorf("rendering %s turn: %w", turn.Role, err)
		}
		data.Turns = append(data.Turns, renderedTurn{
			Role: turn.Role,
			HTML: template.HTML(buf.String()),
		})
	}

	tmpl, err := template.New("transcript").Parse(pageTemplate)
	if err != nil {
		return fmt.Errorf("parsing transcript template: %w", err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.turn { margin: 1rem 0; padding: 0.75rem 1rem; border-radius: 8px; }
.turn.user { background: #eef2ff; }
.turn.assistant { background: #f6f8fa; }
.role { font-size: 0.8rem; font-weight: 600; text-transform: uppercase; color: #555; margin-bottom: 0.25rem; }
pre { overflow-x: auto; padding: 0.5rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Turns}}
<div class="turn {{.Role}}">
<div class="role">{{.Role}}</div>
{{.HTML}}
</div>
{{end}}
</body>
</html>
`
