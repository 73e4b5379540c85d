package main

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/serpent/compiler"
)

func newTokensCmd(a *app) *cobra.Command {
	var mode string
	var hidden bool

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream the parser sees, with INDENT and DEDENT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := compiler.ParseMode(mode)
			if err != nil {
				return fail(cmd, err)
			}
			data, err := readSource(cmd, args[0])
			if err != nil {
				return fail(cmd, err)
			}
			text, err := compiler.DecodeSource(bytes.NewReader(data), a.cfg.Parser.Encoding)
			if err != nil {
				return fail(cmd, err)
			}

			lx := compiler.NewLexer(text)
			lx.SetTabSize(a.cfg.Parser.TabSize)
			raw, err := lx.Tokenize()
			if err != nil {
				return fail(cmd, err)
			}
			src := compiler.NewTokenSource(raw, displayName(args[0]), m == compiler.ModeSingle, a.cfg.Parser.MaxIndents)
			tokens, err := src.All()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range tokens {
				if t.Hidden && !hidden {
					continue
				}
				fmt.Fprintf(w, "%d:%d\t%s\t%q\n", t.Pos.Line, t.Pos.Column, t.Type, t.Literal)
			}
			w.Flush()
			if err != nil {
				return fail(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "module", "entry grammar (module, single, eval)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "include comments and blank-line newlines")

	return cmd
}
