package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Comcast/sweep/core"
	"github.com/Comcast/sweep/tools"

	"github.com/spf13/cobra"
)

var (
	format    string
	highlight string
	outFile   string
	module    string
	cssFiles  []string
)

var graphCmd = &cobra.Command{
	Use:   "graph FILE...",
	Short: "Render the call graph of Prolog files",
	Long: `graph loads the files and writes their call graph as Graphviz dot,
Mermaid, or a YAML analysis.  With --format png, --out is the base
name for the .dot and .png files, and Graphviz's dot must be
installed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := analyze(args)
		if err != nil {
			return err
		}

		if format == "png" {
			base := outFile
			if base == "" {
				base = "graph"
			}
			name, err := tools.PNG(a, base, highlight)
			if err == nil {
				fmt.Println(name)
			}
			return err
		}

		return output(func(w io.Writer) error {
			switch format {
			case "dot":
				return tools.Dot(a, w, highlight)
			case "mermaid":
				return tools.Mermaid(a, w, &tools.MermaidOpts{
					ShowClauses:   true,
					DynamicFill:   "#ffe4b5",
					UndefinedFill: "#f88",
				})
			case "yaml":
				bs, err := a.YAML()
				if err != nil {
					return err
				}
				_, err = w.Write(bs)
				return err
			}
			return fmt.Errorf("unknown format %q", format)
		})
	},
}

var docCmd = &cobra.Command{
	Use:   "doc FILE...",
	Short: "Render a module's predicate documentation as HTML",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := analyze(args)
		if err != nil {
			return err
		}
		return output(func(w io.Writer) error {
			return tools.RenderModulePage(a, module, w, cssFiles)
		})
	},
}

func init() {
	gf := graphCmd.Flags()
	gf.StringVarP(&format, "format", "f", "dot", "dot, mermaid, yaml or png")
	gf.StringVar(&highlight, "highlight", "", "predicate whose edges are emphasized")
	gf.StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	df := docCmd.Flags()
	df.StringVarP(&module, "module", "m", "user", "module to document")
	df.StringSliceVar(&cssFiles, "css", nil, "stylesheets to link")
	df.StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
}

// analyze loads the files into a fresh engine and analyzes its
// database.
func analyze(files []string) (*tools.Analysis, error) {
	e := core.NewEngine(core.WithLogger(logger.Named("engine")))
	argv := append([]string{"sweep", "-q"}, cfg.Consult...)
	if err := e.Initialise(append(argv, files...)); err != nil {
		return nil, err
	}
	defer e.Cleanup()
	return tools.Analyze(e.Database())
}

func output(f func(w io.Writer) error) error {
	if outFile == "" {
		return f(os.Stdout)
	}
	out, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err = f(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
