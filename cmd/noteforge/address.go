package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/noteforge/internal/transfer"
)

func newAddressCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "address <document-id>",
		Short: "Print the render address of a converted document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load()
			if err != nil {
				return err
			}

			client := transfer.New(&cfg.Remote, logger)
			fmt.Fprintln(c.stdout, client.ResolveRenderAddress(args[0]))
			return nil
		},
	}
}
