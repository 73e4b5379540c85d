package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/serpent/compiler"
)

func newOutlineCmd(a *app) *cobra.Command {
	var permissive bool

	cmd := &cobra.Command{
		Use:   "outline <file>",
		Short: "List the classes, functions and module variables of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.parseFile(cmd, args[0], compiler.ModeModule, permissive)
			if err == errReported && !permissive {
				return err
			} else if err != nil && err != errReported {
				return fail(cmd, err)
			}
			writeOutline(cmd.OutOrStdout(), compiler.Outline(tree), 0)
			return nil
		},
	}

	cmd.Flags().BoolVar(&permissive, "permissive", true, "outline broken sources from the recovered tree")

	return cmd
}

func writeOutline(w io.Writer, entries []*compiler.OutlineEntry, depth int) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s%-8s %s  %d:%d\n", strings.Repeat("  ", depth), e.Kind, e.Name, e.Line, e.Column)
		writeOutline(w, e.Children, depth+1)
	}
}
