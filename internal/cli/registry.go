package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func NewRegistryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect or edit a registry ticket",
	}
	cmd.AddCommand(newRegistryListCommand(opts))
	cmd.AddCommand(newRegistryGetCommand(opts))
	cmd.AddCommand(newRegistryDeleteCommand(opts))
	return cmd
}

func newRegistryListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <record-type>",
		Short: "Print every reachable entry of a registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := opts.open(opts)
			if err != nil {
				return err
			}
			entries, err := stores.Registry.GetAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts, entries, func(w io.Writer) error {
				for _, key := range entries.Keys() {
					if _, err := fmt.Fprintln(w, key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newRegistryGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <record-type> <key>",
		Short: "Print one registry entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := opts.open(opts)
			if err != nil {
				return err
			}
			record, err := stores.Registry.GetOne(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%s: no entry for key %q", args[0], args[1])
			}
			return write(cmd.OutOrStdout(), opts, record, nil)
		},
	}
}

func newRegistryDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-type> <key>",
		Short: "Remove a registry entry and its index line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := opts.open(opts)
			if err != nil {
				return err
			}
			if err := stores.Registry.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", args[0], args[1])
			return err
		},
	}
}
