package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gamewiki/issuestore/internal/domain"
)

func NewCollectionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Read or prune a user's collection ticket",
	}
	cmd.AddCommand(newCollectionGetCommand(opts))
	cmd.AddCommand(newCollectionDeleteCommand(opts))
	return cmd
}

func parseOwner(userID, username string) (domain.Owner, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || id <= 0 {
		return domain.Owner{}, fmt.Errorf("invalid user id %q", userID)
	}
	return domain.Owner{UserID: id, Username: username}, nil
}

func newCollectionGetCommand(opts *RootOptions) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "get <record-type> <user-id>",
		Short: "Print every record in a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[1], username)
			if err != nil {
				return err
			}
			stores, err := opts.open(opts)
			if err != nil {
				return err
			}

			records, err := stores.Collections.Get(cmd.Context(), args[0], owner)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts, records, func(w io.Writer) error {
				for _, r := range records {
					if _, err := fmt.Fprintf(w, "%s\t%s\n", r.ID(), r.String("updatedAt")); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login used to find legacy tickets by title")
	return cmd
}

func newCollectionDeleteCommand(opts *RootOptions) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "delete <record-type> <user-id> <record-id>",
		Short: "Remove one record from a collection",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[1], username)
			if err != nil {
				return err
			}
			stores, err := opts.open(opts)
			if err != nil {
				return err
			}

			records, err := stores.Collections.Delete(cmd.Context(), args[0], owner, args[2])
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts, records, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "deleted %s, %d record(s) left\n", args[2], len(records))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login used to find legacy tickets by title")
	return cmd
}
