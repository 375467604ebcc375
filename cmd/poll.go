package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aucus/proactive-ai-bot/internal/bot"
	"github.com/aucus/proactive-ai-bot/internal/logger"
	"github.com/spf13/cobra"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Answer chat commands until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
		if missing := a.cfg.MissingRequired(); len(missing) > 0 {
			a.log.Warn().Strs("missing", missing).Msg("health check failed")
		}

		b := bot.New(bot.Options{
			Client:             a.telegram,
			Pipeline:           a.pipeline,
			CalendarConfigured: a.calendar.Configured,
			Settings:           a.settings,
			ChatID:             a.cfg.TelegramChatID,
			Logger:             logger.Component(a.log, "bot"),
		})
		return b.Run(ctx)
	},
}
