package tools

import (
	"fmt"
	"html"
	"io"

	md "github.com/russross/blackfriday/v2"
)

// RenderModuleHTML writes the documented predicates of a module as
// HTML.  Doc comments are Markdown.
func RenderModuleHTML(a *Analysis, module string, out io.Writer) error {
	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(out, format+"\n", args...)
		}
	}

	f(`<div class="predicates"><table>`)
	for _, info := range a.Predicates {
		if info.Module != module {
			continue
		}
		id := html.EscapeString(info.Indicator)
		f(`<tr class="predicate"><td><span id="%s" class="predicateName">%s</span></td><td>`, id, id)
		if info.Doc != "" {
			f(`<div class="predicateDoc doc">%s</div>`, md.Run([]byte(info.Doc)))
		}
		f(`<table>`)
		f(`<tr><td>clauses</td><td>%d</td></tr>`, info.Clauses)
		if info.File != "" {
			f(`<tr><td>source</td><td><code>%s:%d</code></td></tr>`, html.EscapeString(info.File), info.Line)
		}
		if info.Dynamic {
			f(`<tr><td>dynamic</td><td>yes</td></tr>`)
		}
		if info.Persistent {
			f(`<tr><td>persistent</td><td>yes</td></tr>`)
		}
		if 0 < len(info.Calls) {
			f(`<tr><td>calls</td><td>`)
			for _, c := range info.Calls {
				c = html.EscapeString(c)
				f(`<a href="#%s"><code>%s</code></a>`, c, c)
			}
			f(`</td></tr>`)
		}
		f(`</table>`)
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return err
}

// RenderModulePage writes a complete HTML page for the module.
func RenderModulePage(a *Analysis, module string, out io.Writer, cssFiles []string) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/module-html.css"}
	}

	title := html.EscapeString(module)
	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", html.EscapeString(cssFile))
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderModuleHTML(a, module, out); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, `
  </body>
</html>
`)
	return err
}
