// Package cli implements issuestorectl, the operator tool for inspecting
// and repairing the ticket store.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamewiki/issuestore/client"
	"github.com/gamewiki/issuestore/internal/config"
	"github.com/gamewiki/issuestore/internal/infra/cache"
	"github.com/gamewiki/issuestore/internal/infra/gateway"
	"github.com/gamewiki/issuestore/internal/infra/lock"
	"github.com/gamewiki/issuestore/internal/infra/repository"
	"github.com/gamewiki/issuestore/internal/telemetry"
	"github.com/gamewiki/issuestore/internal/usecase"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool

	// open builds the stores the commands operate on.
	open func(opts *RootOptions) (*Stores, error)
}

var ValidFormats = []string{"text", "json"}

// Stores groups the repositories a command may touch.
type Stores struct {
	Collections usecase.CollectionRepository
	Registry    usecase.RegistryRepository
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{open: openStores})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issuestorectl",
		Short: "Inspect and repair the issue-backed record store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			slog.SetDefault(telemetry.NewLogger(cmd.ErrOrStderr(), level))
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", envOr("ISSUESTORE_CONFIG", "config.yaml"), "path to config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging on stderr")

	cmd.AddCommand(NewCollectionCommand(opts))
	cmd.AddCommand(NewRegistryCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openStores wires the same stack the server uses, minus caching across
// invocations. A local lock is enough for a single CLI process.
func openStores(opts *RootOptions) (*Stores, error) {
	conf, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	githubClient, err := client.New(client.Config{
		BaseURL:           conf.GitHub.BaseURL,
		Token:             conf.GitHub.Token,
		UserAgent:         conf.GitHub.UserAgent,
		RequestsPerSecond: conf.GitHub.RequestsPerSecond,
		Logger:            slog.Default(),
	})
	if err != nil {
		return nil, err
	}

	ticketGateway := gateway.NewGitHubGateway(githubClient, conf.GitHub.Owner, conf.GitHub.Repo, cache.NewMemory(time.Minute))
	locker := lock.NewLocal()
	return &Stores{
		Collections: repository.NewCollectionRepository(ticketGateway, conf.Store.Collections, locker),
		Registry:    repository.NewRegistryRepository(ticketGateway, locker),
	}, nil
}

// write renders v as indented JSON, or through text when the text format
// was requested and a renderer is given.
func write(w io.Writer, opts *RootOptions, v any, text func(io.Writer) error) error {
	if opts.Format == "text" && text != nil {
		return text(w)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
