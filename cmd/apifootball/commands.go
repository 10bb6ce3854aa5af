package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Sternrassler/apifootball-client/pkg/pagination"
	"github.com/spf13/cobra"
)

func (c *cli) usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show today's quota usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				return printJSON(cmd.OutOrStdout(), a.client.Usage(ctx))
			})
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local counter with the provider's usage figure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				usage, err := a.client.SyncUsage(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), usage)
			})
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the local quota counter to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.client.ResetUsage(ctx); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a.client.Usage(ctx))
			})
		},
	}
}

func (c *cli) clearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Remove every cached player list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				removed, err := a.cache.ClearPlayers(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"removed": removed})
			})
		},
	}
}

func (c *cli) nationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nations",
		Short: "List nations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				nations, err := a.catalog.Nations(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), nations)
			})
		},
	}
}

func (c *cli) leaguesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leagues <nation>",
		Short: "List the leagues of a nation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				leagues, err := a.catalog.Leagues(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), leagues)
			})
		},
	}
}

func (c *cli) teamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams <league-id>",
		Short: "List the teams of a league",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leagueID, err := strconv.Atoi(args[0])
			if err != nil || leagueID <= 0 {
				return fmt.Errorf("league id must be a positive integer (got %q)", args[0])
			}
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				teams, err := a.catalog.Teams(ctx, leagueID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), teams)
			})
		},
	}
}

func (c *cli) nationalTeamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "national-teams",
		Short: "List the main national sides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				teams, err := a.catalog.NationalTeams(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), teams)
			})
		},
	}
}

func (c *cli) playersCmd() *cobra.Command {
	var (
		teamID, leagueID, pages int
		filter                  string
	)
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Browse players of a team, a league or the top leagues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamID > 0 && leagueID > 0 {
				return errors.New("--team and --league are mutually exclusive")
			}
			scope := pagination.GlobalScope()
			switch {
			case teamID > 0:
				scope = pagination.TeamScope(teamID)
			case leagueID > 0:
				scope = pagination.LeagueScope(leagueID)
			}

			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				orch := pagination.New(a.client, a.cache, a.paginationConfig())
				orch.SetScope(ctx, scope)
				for loaded := 1; loaded < pages && orch.LoadMore(ctx); loaded++ {
				}

				view := orch.View(filter)
				if err := printJSON(cmd.OutOrStdout(), view.Players); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d shown, %d loaded, state %s, more available: %t\n",
					view.Scope, len(view.Players), view.Total, view.State, view.HasMoreRemote)
				if view.Err != nil && view.Total == 0 {
					return view.Err
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&teamID, "team", 0, "Team id")
	cmd.Flags().IntVar(&leagueID, "league", 0, "League id")
	cmd.Flags().IntVar(&pages, "pages", 1, "Pages (or global segments) to load")
	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive name filter")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search nations, teams and players",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.search.Search(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func (c *cli) warmCmd() *cobra.Command {
	warm := pagination.DefaultWarmConfig()
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Fetch the top-league segments into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				w := pagination.NewWarmer(a.client, a.cache, a.paginationConfig(), warm)
				report, err := w.WarmGlobal(ctx)
				if printErr := printJSON(cmd.OutOrStdout(), report); printErr != nil {
					return printErr
				}
				return err
			})
		},
	}
	cmd.Flags().IntVar(&warm.MaxConcurrency, "concurrency", warm.MaxConcurrency, "Segments resolved in parallel")
	cmd.Flags().DurationVar(&warm.Timeout, "timeout", warm.Timeout, "Timeout per segment")
	return cmd
}
