package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quizroom/internal/config"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("QUIZROOM_CONFIG")
	if envConfig == "" {
		envConfig = config.DefaultPath()
	}

	rt := &runtime{in: newPrompter(os.Stdin), out: os.Stdout}
	cmd := &cobra.Command{
		Use:           "quizroom",
		Short:         "Terminal client for live quiz rooms",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init(configPath)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(
		newOpenCmd(rt),
		newLoginCmd(rt),
		newSignupCmd(rt),
		newGuestCmd(rt),
		newLogoutCmd(rt),
		newWhoamiCmd(rt),
		newRoomCmd(rt),
		newManageCmd(rt),
		newPlayCmd(rt),
		newLeaderboardCmd(rt),
		newLibraryCmd(rt),
		NewMigrateCmd(rt),
	)
	return cmd
}
