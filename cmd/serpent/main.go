// Command serpent tokenizes, parses, fingerprints and outlines Python
// sources, and serves them to editors over LSP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/serpent/config"

	_ "github.com/tliron/commonlog/simple"
)

var cliLog = commonlog.GetLogger("serpent.cli")

// app holds the settings shared by every subcommand.
type app struct {
	cfg       *config.Config
	configDir string
	verbosity int
	logFile   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "serpent",
		Short:         "A Python front end and object runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configDir, "config", "C", "", "directory to search for serpent.toml (default: current directory)")
	flags.CountVarP(&a.verbosity, "verbose", "v", "increase log verbosity")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newTokensCmd(a))
	rootCmd.AddCommand(newParseCmd(a))
	rootCmd.AddCommand(newHashCmd(a))
	rootCmd.AddCommand(newOutlineCmd(a))
	rootCmd.AddCommand(newIndexCmd(a))
	rootCmd.AddCommand(newDupsCmd(a))
	rootCmd.AddCommand(newLSPCmd(a))

	return rootCmd
}

// setup loads serpent.toml and configures logging. Flags override the file.
func (a *app) setup(cmd *cobra.Command) error {
	start := a.configDir
	if start == "" {
		start = "."
	}
	cfg, err := config.FindAndLoad(start)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = config.Default(start)
	}
	a.cfg = cfg

	verbosity := cfg.Log.Verbosity
	if cmd.Flags().Changed("verbose") {
		verbosity = a.verbosity
	}
	var path *string
	if a.logFile != "" {
		path = &a.logFile
	} else if p := cfg.LogPath(); p != "" {
		path = &p
	}
	commonlog.Configure(verbosity, path)

	cliLog.Debugf("configuration from %s", cfg.Dir)
	return nil
}

// fail reports err on the command's error stream and returns it so cobra
// exits non-zero.
func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err)
	return err
}
