// Package render turns audit document prose into styled, self-contained HTML,
// resolving capture placeholders into persisted asset URLs.
package render

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
)

// capturePattern matches capture placeholders like [[capture:homepage-hero]].
var capturePattern = regexp.MustCompile(`\[\[capture:([A-Za-z0-9_-]+)\]\]`)

// noCaptureID marks a category the synthesis model found no capture for.
const noCaptureID = "none"

// Page is the data handed to the HTML layout.
type Page struct {
	Title   string
	AuditID string
	Website string
	Body    template.HTML
}

// Renderer converts document prose into HTML pages.
type Renderer struct {
	layout *template.Template
}

// New creates a renderer with the built-in layout.
func New() *Renderer {
	return &Renderer{layout: template.Must(template.New("page").Parse(pageLayout))}
}

// Render produces a full HTML page for one document. assetURLs maps shot ids
// to capture asset URLs; placeholders that cannot be resolved degrade to a
// neutral note and never surface as raw tokens.
func (r *Renderer) Render(title, auditID, website, prose string, assetURLs map[string]string) (string, error) {
	var out strings.Builder
	err := r.layout.Execute(&out, Page{
		Title:   title,
		AuditID: auditID,
		Website: website,
		Body:    proseToHTML(prose, assetURLs),
	})
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return out.String(), nil
}

// proseToHTML converts the model's markdown-shaped prose into HTML. It
// understands the structure the synthesis prompt mandates: "## " headings,
// "- " bullets, numbered steps and plain paragraphs, with capture
// placeholders anywhere in between.
func proseToHTML(prose string, assetURLs map[string]string) template.HTML {
	var b strings.Builder
	inList := false

	closeList := func() {
		if inList {
			b.WriteString("</ul>\n")
			inList = false
		}
	}

	for _, line := range strings.Split(prose, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			closeList()
			continue
		}

		switch {
		case strings.HasPrefix(line, "## "):
			closeList()
			fmt.Fprintf(&b, "<h2>%s</h2>\n",
				renderInline(strings.TrimPrefix(line, "## "), assetURLs, false))
		case strings.HasPrefix(line, "- "):
			if !inList {
				b.WriteString("<ul>\n")
				inList = true
			}
			fmt.Fprintf(&b, "<li>%s</li>\n",
				renderInline(strings.TrimPrefix(line, "- "), assetURLs, false))
		default:
			closeList()
			fmt.Fprintf(&b, "<p>%s</p>\n", renderInline(line, assetURLs, true))
		}
	}
	closeList()

	return template.HTML(b.String())
}

// renderInline escapes one line of prose and substitutes capture placeholders.
// inParagraph marks that the line will be wrapped in <p> tags, so a resolved
// figure must break out of the paragraph; headings and list items take the
// bare figure instead.
func renderInline(line string, assetURLs map[string]string, inParagraph bool) string {
	escaped := template.HTMLEscapeString(line)

	return capturePattern.ReplaceAllStringFunc(escaped, func(match string) string {
		id := capturePattern.FindStringSubmatch(match)[1]
		if id == noCaptureID {
			return ""
		}
		url, ok := assetURLs[id]
		if !ok || url == "" {
			return `<span class="capture-missing">[visual reference unavailable]</span>`
		}
		figure := fmt.Sprintf(
			`<figure class="capture"><img src="%s" alt="%s" loading="lazy"></figure>`,
			template.HTMLEscapeString(url), template.HTMLEscapeString(id))
		if inParagraph {
			return "</p>" + figure + "<p>"
		}
		return figure
	})
}

const pageLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} — {{.AuditID}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; color: #1a202c;
         max-width: 760px; margin: 0 auto; padding: 2rem 1.25rem; line-height: 1.6; }
  header { border-bottom: 2px solid #2b6cb0; margin-bottom: 2rem; padding-bottom: 1rem; }
  header h1 { margin: 0 0 0.25rem; font-size: 1.6rem; }
  header p { margin: 0; color: #4a5568; }
  h2 { color: #2b6cb0; margin-top: 2.25rem; font-size: 1.25rem; }
  ul { padding-left: 1.25rem; }
  figure.capture { margin: 1.25rem 0; }
  figure.capture img { max-width: 100%; border: 1px solid #cbd5e0; border-radius: 4px; }
  .capture-missing { color: #718096; font-style: italic; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p>{{.Website}} &middot; {{.AuditID}}</p>
</header>
{{.Body}}
</body>
</html>
`
