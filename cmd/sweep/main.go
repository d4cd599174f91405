// Command sweep loads Prolog programs and queries them from a host
// scripting language.
package main

import (
	"fmt"
	"os"

	"github.com/Comcast/sweep/config"
	"github.com/Comcast/sweep/crew"
	"github.com/Comcast/sweep/interpreters"
	"github.com/Comcast/sweep/storage/bolt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile     string
	verbose     bool
	interpreter string
	storeFile   string
	consult     []string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Query Prolog from a host scripting language",
	Long: `sweep embeds a Prolog engine behind a small bridge that host
interpreters (a Lisp and JavaScript) call to open queries and step
through their solutions.

Run "sweep repl" for an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := config.Default()
		if cfgFile != "" {
			var err error
			if c, err = config.Read(cfgFile); err != nil {
				return err
			}
		}
		flags := cmd.Flags()
		if flags.Changed("interpreter") {
			c.Interpreter = interpreter
		}
		if flags.Changed("store") {
			c.Store = storeFile
		}
		c.Consult = append(c.Consult, consult...)
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		var err error
		if logger, err = c.Logger(verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML configuration file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVarP(&interpreter, "interpreter", "i", "lisp", "host interpreter: lisp or js")
	pf.StringVar(&storeFile, "store", "", "bolt file for persistent predicates")
	pf.StringSliceVarP(&consult, "consult", "c", nil, "Prolog files to load")

	rootCmd.AddCommand(replCmd, runCmd, queryCmd, serveCmd, graphCmd, docCmd, configCmd)
}

// newCrew builds a crew from the configuration.  The returned
// function releases the store.
func newCrew() (*crew.Crew, func() error, error) {
	opts := []crew.Option{crew.WithLogger(logger)}
	release := func() error { return nil }

	if cfg.Store != "" {
		st, err := bolt.NewStorage(cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		st.Logger = logger.Named("store")
		if err = st.Open(); err != nil {
			return nil, nil, fmt.Errorf("store %s: %w", cfg.Store, err)
		}
		opts = append(opts, crew.WithStorage(st))
		release = st.Close
	}

	c, err := crew.NewCrew(cfg.Crew(), interpreters.Standard(), opts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return c, release, nil
}

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}
