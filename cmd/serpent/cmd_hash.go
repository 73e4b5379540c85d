package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/serpent/compiler"
	"github.com/chazu/serpent/compiler/hash"
)

func newHashCmd(a *app) *cobra.Command {
	var defs bool

	cmd := &cobra.Command{
		Use:   "hash [file]...",
		Short: "Fingerprint parse trees, ignoring comments and layout",
		Long: `Print the SHA-256 fingerprint of each file's parse tree. With no
arguments the sources listed by serpent.toml are hashed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				var err error
				if files, err = a.cfg.SourceFiles(); err != nil {
					return fail(cmd, err)
				}
			}

			var failed error
			for _, path := range files {
				tree, err := a.parseFile(cmd, path, compiler.ModeModule, false)
				if err == errReported {
					failed = err
					continue
				}
				if err != nil {
					return fail(cmd, err)
				}

				sum, err := hash.HashTree(tree)
				if err != nil {
					return fail(cmd, fmt.Errorf("hash %s: %w", displayName(path), err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", hex.EncodeToString(sum[:]), displayName(path))

				if !defs {
					continue
				}
				for _, e := range compiler.Flatten(compiler.Outline(tree)) {
					if e.Kind == compiler.OutlineVariable {
						continue
					}
					sum, err := hash.HashNode(tree, e.Node)
					if err != nil {
						return fail(cmd, fmt.Errorf("hash %s in %s: %w", e.Qualified, displayName(path), err))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s:%s\n", hex.EncodeToString(sum[:]), displayName(path), e.Qualified)
				}
			}
			return failed
		},
	}

	cmd.Flags().BoolVar(&defs, "defs", false, "also fingerprint every class and function")

	return cmd
}
