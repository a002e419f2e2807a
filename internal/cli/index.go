package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gamewiki/issuestore/internal/codec"
)

type indexDump struct {
	Header  string            `json:"header"`
	Entries map[string]string `json:"entries"`
	Order   []string          `json:"order"`
}

func NewIndexCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Work with registry index bodies offline",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "decode",
		Short: "Decode a registry ticket body read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			m := codec.DecodeIndexMap(string(body))

			dump := indexDump{Header: m.Header, Entries: map[string]string{}, Order: m.Keys()}
			for _, key := range dump.Order {
				dump.Entries[key], _ = m.Lookup(key)
			}
			return write(cmd.OutOrStdout(), opts, dump, func(w io.Writer) error {
				for _, key := range dump.Order {
					if _, err := fmt.Fprintf(w, "%s\t%s\n", key, dump.Entries[key]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})
	return cmd
}
