// Package cmd wires the CLI commands to the backend client and local state
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sanctuary-live/internal/api"
	"sanctuary-live/internal/config"
	"sanctuary-live/internal/logger"
	"sanctuary-live/internal/session"
	"sanctuary-live/internal/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "sanctuary-live",
	Short: "Watch and interact with your church's live streams from the terminal",
	Long: `sanctuary-live is a terminal client for a church live-stream backend.
It lists the streams the team has put up, opens an interactive watch
screen with comments, live chat and prayer requests, and carries a
direct chat with the stream admins.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "Base URL of the church backend API")
	rootCmd.PersistentFlags().String("state", "", "Path of the local state database")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Duration("poll-interval", 0, "How often message threads refresh")

	viper.BindPFlag("api_base_url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("state_path", rootCmd.PersistentFlags().Lookup("state"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("poll_interval", rootCmd.PersistentFlags().Lookup("poll-interval"))
}

// app bundles everything a command needs
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *sqlite.DB
	client  *api.Client
	session *session.Manager
}

// openApp loads configuration, opens the state database, and restores the
// viewer's identity
func openApp(ctx context.Context) (*app, error) {
	// Flags override file and environment values. Bridging through the
	// environment keeps config.Load the single source of truth.
	for flag, env := range map[string]string{
		"api_base_url":  "SANCTUARY_API_BASE_URL",
		"state_path":    "SANCTUARY_STATE_PATH",
		"log_level":     "SANCTUARY_LOG_LEVEL",
		"poll_interval": "SANCTUARY_POLL_INTERVAL",
	} {
		if v := viper.GetString(flag); v != "" && v != "0s" {
			os.Setenv(env, v)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	cfg.LogConfiguration(log)

	db, err := sqlite.NewDB(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := sqlite.Migrate(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	client := api.New(cfg.APIBaseURL, log)

	mgr, err := session.NewManager(ctx, sqlite.NewIdentityRepository(db), client, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db, client: client, session: mgr}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close state database", map[string]interface{}{"error": err.Error()})
	}
}

// authedClient returns a client that sends the member's bearer token, or the
// plain client for guests and anonymous viewers
func (a *app) authedClient() *api.Client {
	identity := a.session.Current()
	if identity.Token != "" {
		return a.client.WithToken(identity.Token)
	}
	return a.client
}

// commandContext gives interactive commands a generous deadline-free context
// and one-shot commands a bounded one
func commandContext(interactive bool) (context.Context, context.CancelFunc) {
	if interactive {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), 30*time.Second)
}
