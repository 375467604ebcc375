package cmd

import (
	"time"

	"github.com/aucus/proactive-ai-bot/internal/briefing"
	"github.com/spf13/cobra"
)

var kindShort = map[briefing.Kind]string{
	briefing.KindWeather:  "Send the morning weather briefing",
	briefing.KindCommute:  "Send home and office weather before the commute",
	briefing.KindNews:     "Send the tech news briefing",
	briefing.KindSchedule: "Send today's schedule",
	briefing.KindEvening:  "Send the evening wrap-up",
	briefing.KindNight:    "Send the project reminder",
	briefing.KindHealth:   "Send the health report",
}

func kindCommands() []*cobra.Command {
	var cmds []*cobra.Command
	for _, kind := range briefing.Kinds() {
		kind := kind
		c := &cobra.Command{
			Use:   string(kind),
			Short: kindShort[kind],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runKind(cmd, kind)
			},
		}
		if kind == briefing.KindNight {
			c.Aliases = []string{"project"}
		}
		cmds = append(cmds, c)
	}
	return cmds
}

// runKind delivers one briefing. It fails only when delivery failed.
func runKind(cmd *cobra.Command, kind briefing.Kind) error {
	start := time.Now()
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	log := a.log.With().Str("kind", string(kind)).Logger()
	if missing := a.cfg.MissingRequired(); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("health check failed")
	}
	if kind != briefing.KindHealth && !a.current.Notifications.Enabled(string(kind)) {
		log.Info().Msg("notification disabled in settings, skipping")
		return nil
	}

	b, err := a.pipeline.Run(ctx, kind)
	log.Info().
		Bool("success", err == nil).
		Bool("enriched", b.Enriched).
		Bool("stale", b.Stale).
		Dur("duration", time.Since(start)).
		Msg("execution")
	if kind == briefing.KindHealth && !a.cfg.Healthy() {
		log.Error().Strs("missing", a.cfg.MissingRequired()).Msg("required secrets missing")
	}
	return err
}
