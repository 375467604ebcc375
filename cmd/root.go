package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagEnvFile  string
	flagDryRun   bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "proactive-ai-bot",
	Short: "Scheduled Telegram briefings",
	Long: `proactive-ai-bot sends one Korean briefing per invocation: morning weather,
commute weather, tech news, today's schedule, the evening wrap-up and the night
project reminder. Run it from a scheduler, or start "poll" to answer chat
commands.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the profile file")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "path to a .env file (default .env)")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "print the message instead of sending it")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	for _, c := range kindCommands() {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("proactive-ai-bot %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
