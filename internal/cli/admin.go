package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/seed"
	"github.com/MrSnakeDoc/tinylink/internal/utils"
	"github.com/MrSnakeDoc/tinylink/internal/version"
)

func newMigrateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the store schema, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Opening a SQL backend migrates it.
			b, cfg, log, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer utils.CloseLogged(b, log, "link store")

			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s)\n", cfg.StoreDriver)
			return nil
		},
	}
}

func newSeedCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Apply a seed file once",
		Long: `Create every link declared in a YAML seed file that does not exist yet.
Existing codes pointing elsewhere are reported as drifted and left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, log, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer utils.CloseLogged(b, log, "link store")

			s := seed.NewSeeder(domain.NewAllocator(b), b, log)
			rep, err := s.ApplyFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d, unchanged %d, drifted %d\n", rep.Created, rep.Unchanged, len(rep.Drifted))
			if len(rep.Drifted) > 0 {
				fmt.Fprintf(out, "drifted: %s\n", strings.Join(rep.Drifted, ", "))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
