// Package cli holds the tinylink command tree.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tinylink/internal/config"
	"github.com/MrSnakeDoc/tinylink/internal/logger"
	"github.com/MrSnakeDoc/tinylink/internal/store"
)

// options is shared by every subcommand. Config is loaded lazily so that
// `version` works without a valid configuration.
type options struct {
	configPath string

	cfg *config.Config
	log logger.Logger
}

func (o *options) load() (*config.Config, logger.Logger, error) {
	if o.cfg != nil {
		return o.cfg, o.log, nil
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	o.cfg = cfg
	o.log = logger.New(cfg.LogLevel, cfg.PrettyLog)
	return o.cfg, o.log, nil
}

// openStore loads config and opens the configured backend. Callers close it.
func (o *options) openStore(ctx context.Context) (store.Backend, *config.Config, logger.Logger, error) {
	cfg, log, err := o.load()
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return b, cfg, log, nil
}

// NewRootCmd builds the command tree. Running it without a subcommand serves HTTP.
func NewRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "tinylink",
		Short: "A small URL shortener",
		Long: `tinylink maps short codes to target URLs, redirects visitors and
counts clicks. Run without a subcommand to start the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, o)
		},
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "path to a YAML config file (default $TINYLINK_CONFIG_FILE)")

	root.AddCommand(
		newServeCmd(o),
		newCreateCmd(o),
		newStatsCmd(o),
		newListCmd(o),
		newDeleteCmd(o),
		newMigrateCmd(o),
		newSeedCmd(o),
		newVersionCmd(),
	)
	return root
}

func shortURL(baseURL, code string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), code)
}
