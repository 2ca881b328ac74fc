package cmd

import (
	"github.com/spf13/cobra"

	"sanctuary-live/internal/chat"
	"sanctuary-live/internal/store/sqlite"
	"sanctuary-live/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat directly with the stream admins",
	Long: `Opens the direct chat with the team behind the stream. The first
message starts a conversation; its id is kept locally so replies show
up across restarts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(true)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		store := sqlite.NewChatSessionRepository(a.db)
		session, err := chat.NewSession(ctx, a.authedClient(), store, a.cfg.PollInterval, a.log)
		if err != nil {
			return err
		}
		defer session.Close()

		// An established viewer identity doubles as the chat contact.
		if identity := a.session.Current(); identity.CanPost() {
			session.SetContact(chat.Contact{Name: identity.Name, Email: identity.Email})
		}

		return tui.NewChatScreen(session, a.log).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
