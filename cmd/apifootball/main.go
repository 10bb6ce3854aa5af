// Command apifootball browses API-Football data within the daily quota.
//
// Usage:
//
//	apifootball usage
//	apifootball sync
//	apifootball players --league 135 --pages 2
//	apifootball players --filter martinez
//	apifootball search dybala
//	apifootball warm
//	apifootball serve --listen-addr :8080
//
// Configuration comes from flags, APIFOOTBALL_* environment variables, a .env
// file and an optional YAML file (--config), in that order of precedence.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/apifootball-client/internal/config"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands.
type cli struct {
	viper      *viper.Viper
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{viper: config.NewViper()}

	root := &cobra.Command{
		Use:           "apifootball",
		Short:         "Quota-aware API-Football client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.viper, c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg

			logCfg := cfg.Logging()
			logCfg.Output = cmd.ErrOrStderr()
			logging.Setup(logCfg)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "Path to a YAML config file")
	flags.String("api-key", "", "API-Football key (x-apisports-key)")
	flags.String("base-url", "", "Provider base URL")
	flags.Int("season", 0, "Season used for team and player lists")
	flags.Int("daily-limit", 0, "Calls allowed per day")
	flags.Int("requests-per-minute", 0, "Upstream pacing, 0 disables it")
	flags.String("storage", "", "Storage backend: sqlite, redis or memory")
	flags.String("sqlite-path", "", "SQLite database file")
	flags.String("redis-addr", "", "Redis address")
	flags.Int("redis-db", 0, "Redis database number")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.Bool("log-pretty", false, "Human-readable log output")
	_ = c.viper.BindPFlags(flags)

	root.AddCommand(
		c.usageCmd(),
		c.syncCmd(),
		c.resetCmd(),
		c.clearCacheCmd(),
		c.nationsCmd(),
		c.leaguesCmd(),
		c.teamsCmd(),
		c.nationalTeamsCmd(),
		c.playersCmd(),
		c.searchCmd(),
		c.warmCmd(),
		c.serveCmd(),
	)
	return root
}

// withApp builds the components for one command run and releases them
// afterwards.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
