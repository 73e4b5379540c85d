package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/serpent/server"
)

func newLSPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.NewLSP(a.cfg).Run()
		},
	}
}
