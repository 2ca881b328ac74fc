package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/tui"
	"sanctuary-live/internal/viewer"
)

var watchCmd = &cobra.Command{
	Use:   "watch [stream-id]",
	Short: "Open the interactive watch screen",
	Long: `Opens the watch screen for a stream. With no argument the first live
stream is picked, falling back to the first listed one.

Posting and reacting need an identity; run "sanctuary-live guest" or
"sanctuary-live register" first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(true)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		v := viewer.New(a.authedClient(), a.session, a.cfg.PollInterval, a.log)
		defer v.Close()

		streams, err := v.LoadStreams(ctx)
		if err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err))
		}
		if len(streams) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No streams right now. Check back later.")
			return nil
		}

		streamID := pickStream(streams, args)
		if streamID == "" {
			return fmt.Errorf("stream %q is not in the current list", args[0])
		}
		if err := v.Select(ctx, streamID); err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err))
		}

		return tui.NewWatchScreen(v, a.log).Run(ctx)
	},
}

// pickStream resolves the argument to a listed stream id, preferring the
// first live stream when no argument is given
func pickStream(streams []domain.Stream, args []string) string {
	if len(args) == 1 {
		for _, s := range streams {
			if s.ID == args[0] {
				return s.ID
			}
		}
		return ""
	}
	for _, s := range streams {
		if s.IsLive {
			return s.ID
		}
	}
	return streams[0].ID
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
