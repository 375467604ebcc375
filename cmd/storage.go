package cmd

import (
	"fmt"
	"time"

	"github.com/aucus/proactive-ai-bot/internal/config"
	"github.com/aucus/proactive-ai-bot/internal/state"
	"github.com/spf13/cobra"
)

// stores holds the backends for the two state blobs. Each blob lives in its
// own gist when one is configured; otherwise both share Redis or the local
// sqlite file.
type stores struct {
	seen     state.Store
	settings state.Store
	local    *state.SQLiteStore
	closers  []func() error
}

func openStores(cfg *config.Config, timeout time.Duration) (*stores, error) {
	s := &stores{}
	var shared state.Store
	sharedStore := func() (state.Store, error) {
		if shared != nil {
			return shared, nil
		}
		if cfg.RedisURL != "" {
			r, err := state.NewRedisStore(cfg.RedisURL)
			if err != nil {
				return nil, err
			}
			s.closers = append(s.closers, r.Close)
			shared = r
			return shared, nil
		}
		db, err := state.OpenSQLite(config.StatePath())
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		s.local = db
		shared = db
		return shared, nil
	}
	pick := func(gistID string) (state.Store, error) {
		if cfg.GistToken != "" && gistID != "" {
			return state.NewGistStore(state.GistOptions{Token: cfg.GistToken, GistID: gistID, Timeout: timeout}), nil
		}
		return sharedStore()
	}

	var err error
	if s.seen, err = pick(cfg.StateGistID); err != nil {
		s.Close()
		return nil, fmt.Errorf("opening seen store: %w", err)
	}
	if s.settings, err = pick(cfg.SettingsGistID); err != nil {
		s.Close()
		return nil, fmt.Errorf("opening settings store: %w", err)
	}
	return s, nil
}

func (s *stores) Close() {
	for _, c := range s.closers {
		c()
	}
	s.closers = nil
}

var flagPruneOlderThan string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and maintain the delivered-news store",
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Forget delivered news URLs",
	Long: `Drop delivered news URLs older than the retention window so they may be
sent again. Every news run already prunes to 7d; --older-than narrows it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoadOptions{ProfilePath: flagConfig, EnvFile: flagEnvFile})
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		st, err := openStores(cfg, cfg.HTTPTimeout())
		if err != nil {
			return err
		}
		defer st.Close()

		retention, err := pruneRetention(flagPruneOlderThan)
		if err != nil {
			return err
		}

		deleted, err := state.NewSeenStore(st.seen, config.KST, nil).Prune(cmd.Context(), retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d URL(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show state store statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoadOptions{ProfilePath: flagConfig, EnvFile: flagEnvFile})
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		st, err := openStores(cfg, cfg.HTTPTimeout())
		if err != nil {
			return err
		}
		defer st.Close()

		seen, err := state.NewSeenStore(st.seen, config.KST, nil).Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading seen urls: %w", err)
		}

		fmt.Printf("Seen store: %s\n", st.seen.Name())
		fmt.Printf("Settings store: %s\n", st.settings.Name())
		fmt.Printf("Delivered URLs (last %s): %d\n", formatDuration(state.SeenRetention), len(seen))
		if urls := seen.URLs(); len(urls) > 0 {
			fmt.Printf("Oldest: %s\n", seen[urls[0]].Format(time.RFC3339))
		}
		if st.local != nil {
			count, size, err := st.local.Stats()
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}
			fmt.Printf("Blobs: %d\n", count)
			fmt.Printf("Size: %s\n", formatBytes(size))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 3d, 72h)")
	stateCmd.AddCommand(pruneCmd)
	stateCmd.AddCommand(statsCmd)
}

// pruneRetention resolves --older-than, defaulting to the seen retention.
func pruneRetention(flag string) (time.Duration, error) {
	if flag == "" {
		return state.SeenRetention, nil
	}
	d, err := parseSince(flag)
	if err != nil {
		return 0, fmt.Errorf("invalid --older-than value: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid --older-than value %q: must be positive", flag)
	}
	return d, nil
}

// parseSince accepts time.ParseDuration input plus a whole-day "Nd" form.
func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	h := d.Hours()
	days := int(h / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(h))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
