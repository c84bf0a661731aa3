package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/utils"
)

const (
	timeFormat   = "2006-01-02 15:04:05"
	maxTargetLen = 60
)

func newCreateCmd(o *options) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "create <url>",
		Short: "Create a short link",
		Example: `  tinylink create https://example.com/docs
  tinylink create https://example.com/docs --code docs01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, cfg, log, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer utils.CloseLogged(b, log, "link store")

			link, err := domain.NewAllocator(b).Allocate(cmd.Context(), args[0], code)
			if err != nil {
				return fmt.Errorf("create link: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Code:      %s\n", link.Code)
			fmt.Fprintf(out, "Short URL: %s\n", shortURL(cfg.BaseURL, link.Code))
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "custom code (6-8 letters or digits)")
	return cmd
}

func newStatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <code>",
		Short: "Show click statistics for a code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, cfg, log, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer utils.CloseLogged(b, log, "link store")

			link, err := b.FindByCode(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("short code %q not found", args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Code:          %s\n", link.Code)
			fmt.Fprintf(out, "Short URL:     %s\n", shortURL(cfg.BaseURL, link.Code))
			fmt.Fprintf(out, "Target:        %s\n", link.TargetURL)
			fmt.Fprintf(out, "Total clicks:  %d\n", link.TotalClicks)
			fmt.Fprintf(out, "Last clicked:  %s\n", lastClicked(link.LastClickedAt))
			fmt.Fprintf(out, "Created:       %s\n", link.CreatedAt.Local().Format(timeFormat))
			return nil
		},
	}
}

func newListCmd(o *options) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List links, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, _, log, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer utils.CloseLogged(b, log, "link store")

			links, err := b.ListAll(cmd.Context(), search)
			if err != nil {
				return err
			}
			if len(links) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No links found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tCLICKS\tLAST CLICKED\tCREATED\tTARGET")
			for _, l := range links {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
					l.Code, l.TotalClicks, lastClicked(l.LastClickedAt),
					l.CreatedAt.Local().Format(timeFormat), truncate(l.TargetURL, maxTargetLen))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only links whose code or target contains this text")
	return cmd
}

func newDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, log, err := o.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer utils.CloseLogged(b, log, "link store")

			deleted, err := b.DeleteByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("short code %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func lastClicked(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.Local().Format(timeFormat)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
