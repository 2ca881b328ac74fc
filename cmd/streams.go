package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/embed"
	"sanctuary-live/internal/metadata"
)

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List the streams the team has put up",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(false)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		streams, err := a.client.ActiveStreams(ctx)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), domain.UserMessage(err))
			return err
		}
		if len(streams) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No streams right now. Check back later.")
			return nil
		}

		var probe *metadata.Probe
		if a.cfg.MetadataProbe {
			probe = metadata.NewProbe(nil, a.log)
		}

		for _, s := range streams {
			badge := " "
			if s.IsLive {
				badge = "●"
			}
			title := s.Title
			if title == "" && probe != nil {
				// Streams hosted off-platform sometimes carry no title;
				// the page's OpenGraph tags usually do.
				if page, err := probe.Fetch(ctx, s.StreamURL); err == nil && page.Title != "" {
					title = page.Title
				}
			}
			if title == "" {
				title = "(untitled)"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %-12s %-40s %s\n", badge, s.Type.Style().Label, s.ID, title, embed.Resolve(s))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streamsCmd)
}
