package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sanctuary-live/internal/domain"
)

var guestCmd = &cobra.Command{
	Use:   "guest",
	Short: "Join as a guest with just a name and email",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(false)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		identity, err := a.session.EnterAsGuest(ctx, name, email)
		if err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Welcome %s! You can now post and react.\n", identity.Name)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a member account with the church backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(false)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		form := domain.RegistrationForm{}
		form.Name, _ = cmd.Flags().GetString("name")
		form.Email, _ = cmd.Flags().GetString("email")
		form.Phone, _ = cmd.Flags().GetString("phone")
		form.Location, _ = cmd.Flags().GetString("location")
		form.Password, _ = cmd.Flags().GetString("password")

		identity, err := a.session.RegisterMember(ctx, form)
		if err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Welcome %s! Your membership is set up on this device.\n", identity.Name)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity used for posting",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(false)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		identity := a.session.Current()
		switch identity.Kind {
		case domain.IdentityAnonymous:
			fmt.Fprintln(cmd.OutOrStdout(), "Anonymous. You can watch, but posting needs a name and email.")
		case domain.IdentityGuest:
			fmt.Fprintf(cmd.OutOrStdout(), "Guest: %s <%s>\n", identity.Name, identity.Email)
		case domain.IdentityMember:
			fmt.Fprintf(cmd.OutOrStdout(), "Member: %s <%s>\n", identity.Name, identity.Email)
		}
		return nil
	},
}

func init() {
	guestCmd.Flags().StringP("name", "n", "", "Your name as it appears next to messages")
	guestCmd.Flags().StringP("email", "e", "", "Your email address")
	guestCmd.MarkFlagRequired("name")
	guestCmd.MarkFlagRequired("email")

	registerCmd.Flags().StringP("name", "n", "", "Your full name")
	registerCmd.Flags().StringP("email", "e", "", "Your email address")
	registerCmd.Flags().String("phone", "", "Phone number (optional)")
	registerCmd.Flags().String("location", "", "Where you join from (optional)")
	registerCmd.Flags().String("password", "", "Account password")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(guestCmd, registerCmd, whoamiCmd)
}
