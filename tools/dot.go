package tools

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// firstSentence shortens a doc comment for a label.
func firstSentence(doc string) string {
	doc = strings.Join(strings.Fields(doc), " ")
	if 40 < len(doc) {
		if period := strings.Index(doc, ". "); 0 < period {
			doc = doc[0 : period+1]
		}
	}
	return doc
}

func htmlEscape(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}

// Dot makes a Graphviz dot file for the call graph in the analysis.
//
// The optional highlight names a predicate (as it appears in the
// analysis) to draw in red along with the calls it makes.
func Dot(a *Analysis, w io.Writer, highlight string) error {
	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("digraph G {\n")
	printf(`  graph [ordering=out,rankdir=LR,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	ids := make(map[string]string)
	id := func(name string) string {
		if s, have := ids[name]; have {
			return s
		}
		s := fmt.Sprintf("p%d", len(ids))
		ids[name] = s
		return s
	}

	orphans := make(map[string]bool, len(a.Orphans))
	for _, o := range a.Orphans {
		orphans[o] = true
	}

	for _, info := range a.Predicates {
		name := key(info.pred)
		label := htmlEscape(name)
		if info.Doc != "" {
			label += "<BR/><FONT POINT-SIZE='8'>" + htmlEscape(firstSentence(info.Doc)) + "</FONT>"
		}
		fillcolor := "#99ddc8"
		switch {
		case info.Persistent:
			fillcolor = "#2d93ad"
		case info.Dynamic:
			fillcolor = "#52aa5e"
		}
		color := "black"
		style := "filled"
		if name == highlight {
			color = "red"
			fillcolor = "#f98b8b"
		}
		if info.Exported {
			style += ",bold"
		}
		if orphans[name] {
			style += ",dashed"
		}
		printf("  %s [style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			id(name), style, color, fillcolor, label)
	}

	for _, u := range a.Undefined {
		printf("  %s [shape=\"note\", style=\"filled,dashed\", color=\"red\", fillcolor=\"white\", label=<%s> ]\n",
			id(u), htmlEscape(u))
	}

	for _, e := range a.Edges {
		color := "black"
		if e.From == highlight {
			color = "red"
		}
		printf("  %s -> %s [ color=\"%s\" ]\n", id(e.From), id(e.To), color)
	}

	printf("}\n")
	return err
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(a *Analysis, basename string, highlight string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(a, dotfile, highlight); err != nil {
		dotfile.Close()
		return pngname, err
	}
	if err := dotfile.Close(); err != nil {
		return pngname, err
	}
	if err := exec.Command("dot", "-Tpng", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}
