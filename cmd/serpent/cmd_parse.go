package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/serpent/compiler"
	"github.com/chazu/serpent/compiler/hash"
)

func newParseCmd(a *app) *cobra.Command {
	var mode string
	var outputFormat string
	var permissive bool

	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse Python sources and dump the parse tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := compiler.ParseMode(mode)
			if err != nil {
				return fail(cmd, err)
			}
			switch outputFormat {
			case "tree", "cbor":
			default:
				return fail(cmd, fmt.Errorf("unknown format: %s", outputFormat))
			}
			if !cmd.Flags().Changed("permissive") {
				permissive = a.cfg.Permissive()
			}

			var failed error
			for _, path := range args {
				tree, err := a.parseFile(cmd, path, m, permissive)
				if err == errReported {
					failed = err
					if !permissive {
						continue
					}
				} else if err != nil {
					return fail(cmd, err)
				}

				switch outputFormat {
				case "tree":
					if len(args) > 1 {
						fmt.Fprintf(cmd.OutOrStdout(), "%s: ", displayName(path))
					}
					fmt.Fprintln(cmd.OutOrStdout(), tree.String())
				case "cbor":
					h, err := hash.Normalize(tree)
					if err != nil {
						return fail(cmd, fmt.Errorf("normalize %s: %w", displayName(path), err))
					}
					data, err := hash.Serialize(h)
					if err != nil {
						return fail(cmd, fmt.Errorf("encode %s: %w", displayName(path), err))
					}
					if _, err := cmd.OutOrStdout().Write(data); err != nil {
						return err
					}
				}
			}
			return failed
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "module", "entry grammar (module, single, eval)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format (tree, cbor)")
	cmd.Flags().BoolVar(&permissive, "permissive", false, "record syntax errors and keep parsing")

	return cmd
}
