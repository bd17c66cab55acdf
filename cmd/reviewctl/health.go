package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errOffline = errors.New("backend is offline")

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			status := client.CheckHealth(cmd.Context())
			raw, err := status.MarshalJSON()
			if err != nil {
				return fmt.Errorf("format status: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			if status.IsOffline() {
				return errOffline
			}
			return nil
		},
	}
}
