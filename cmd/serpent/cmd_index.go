package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/serpent/compiler"
	"github.com/chazu/serpent/index"
)

func newIndexCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Record definition fingerprints for the configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.cfg.SourceFiles()
			if err != nil {
				return fail(cmd, err)
			}
			ix, err := index.Open(a.indexPath(dbPath))
			if err != nil {
				return fail(cmd, err)
			}
			defer ix.Close()

			var changed, failed int
			for _, path := range files {
				tree, err := a.parseFile(cmd, path, compiler.ModeModule, false)
				if err == errReported {
					failed++
					continue
				} else if err != nil {
					return fail(cmd, err)
				}
				ok, err := ix.Update(path, tree)
				if err != nil {
					return fail(cmd, err)
				}
				if ok {
					changed++
				}
			}
			pruned, err := ix.Prune(files)
			if err != nil {
				return fail(cmd, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d files, %d updated, %d removed", len(files), changed, pruned)
			if failed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %d with syntax errors", failed)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "index database (default from serpent.toml)")

	return cmd
}

func newDupsCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "dups",
		Short: "List structurally identical classes and functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := index.Open(a.indexPath(dbPath))
			if err != nil {
				return fail(cmd, err)
			}
			defer ix.Close()

			groups, err := ix.Duplicates()
			if err != nil {
				return fail(cmd, err)
			}
			for i, g := range groups {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", g[0].Digest[:12])
				for _, d := range g {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s:%d %s %s\n", d.File, d.Line, d.Kind, d.Qualified)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "index database (default from serpent.toml)")

	return cmd
}

func (a *app) indexPath(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.IndexPath()
}
