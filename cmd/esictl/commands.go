package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/esi/esi-bot/internal/buildinfo"
	"github.com/esi/esi-bot/internal/config"
	"github.com/esi/esi-bot/internal/esi"
	"github.com/esi/esi-bot/internal/logger"
	"github.com/esi/esi-bot/internal/storage"
)

// toolkit is the slice of the server's dependency graph the CLI needs.
type toolkit struct {
	host  string
	db    *storage.DB
	specs *esi.SpecCache
}

// openToolkit loads config, opens the snapshot database and restores the
// cached specs for the selected host, or for every configured host when all
// is set.
func openToolkit(ctx context.Context, china, all bool) (*toolkit, error) {
	cfg, err := config.LoadForMode(config.CLIMode)
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(cfg.LogLevel, os.Stderr)

	hosts := esi.Hosts{Tranquility: cfg.ESIHost, China: cfg.ESIChinaHost}
	host := hosts.For(china)
	if host == "" {
		return nil, errors.New("no ESI host configured")
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	client := esi.NewClient(esi.ClientConfig{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.HTTPMaxRetries,
		Workers:    cfg.HTTPWorkers,
		UserAgent:  buildinfo.UserAgent(),
		ChinaHost:  cfg.ESIChinaHost,
	}, log, nil)
	registered := []string{host}
	if all {
		registered = hosts.All()
	}
	specs := esi.NewSpecCache(client, esi.SpecCacheConfig{StaleAfter: cfg.SpecStaleAfter}, db, log, nil, registered...)
	if _, err := specs.Restore(ctx); err != nil {
		log.WithError(err).Warn("Failed to restore spec snapshots")
	}

	return &toolkit{host: host, db: db, specs: specs}, nil
}

func (t *toolkit) Close() error {
	return t.db.Close()
}

func (t *toolkit) refresh(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, config.SpecRefreshTimeout)
	defer cancel()
	return t.specs.Refresh(ctx, t.host)
}

func buildVersionsCmd(china *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the spec versions the host announces and what is cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersions(cmd, *china)
		},
	}
}

func buildRefreshCmd(china *bool) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refetch stale specs and store them in the snapshot database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all {
				return runRefreshAll(cmd)
			}
			return runRefresh(cmd, *china)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Refresh every configured host (overrides --china)")
	return cmd
}

func buildResolveCmd(china *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [path]",
		Short: "Check a path against the cached spec and print the request URL",
		Long: `Check a path against the cached spec and print the request URL.

The first segment selects the spec version when the host knows it,
otherwise "latest" is used:

  esictl resolve dev/universe/types/34/
  esictl resolve "markets/10000002/orders/?type_id=34"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, *china, args[0])
		},
	}
}

func runVersions(cmd *cobra.Command, china bool) error {
	tk, err := openToolkit(cmd.Context(), china, false)
	if err != nil {
		return err
	}
	defer func() { _ = tk.Close() }()

	tk.refresh(cmd.Context())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tPATHS\tFETCHED")
	for _, v := range tk.specs.Versions(tk.host) {
		entry, _ := tk.specs.Entry(tk.host, v)
		if entry.Empty() {
			_, _ = fmt.Fprintf(w, "%s\t-\tnot loaded\n", v)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", v, len(entry.Doc.Paths), entry.FetchedAt.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

func runRefresh(cmd *cobra.Command, china bool) error {
	tk, err := openToolkit(cmd.Context(), china, false)
	if err != nil {
		return err
	}
	defer func() { _ = tk.Close() }()

	printRefreshed(cmd, tk.host, tk.refresh(cmd.Context()))
	return nil
}

func runRefreshAll(cmd *cobra.Command) error {
	tk, err := openToolkit(cmd.Context(), false, true)
	if err != nil {
		return err
	}
	defer func() { _ = tk.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), config.SpecRefreshTimeout)
	defer cancel()
	updated := tk.specs.RefreshAll(ctx)
	for _, host := range tk.specs.Hosts() {
		printRefreshed(cmd, host, updated[host])
	}
	return nil
}

func printRefreshed(cmd *cobra.Command, host string, updated []string) {
	out := cmd.OutOrStdout()
	if len(updated) == 0 {
		_, _ = fmt.Fprintf(out, "ESI specs for %s are up to date\n", host)
		return
	}
	_, _ = fmt.Fprintf(out, "Refreshed %s: %s\n", host, strings.Join(updated, ", "))
}

func runResolve(cmd *cobra.Command, china bool, path string) error {
	tk, err := openToolkit(cmd.Context(), china, false)
	if err != nil {
		return err
	}
	defer func() { _ = tk.Close() }()

	tk.refresh(cmd.Context())

	req, err := esi.NewResolver(tk.specs).Resolve(strings.TrimPrefix(path, "/"), esi.DefaultVersion, tk.host)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "GET %s\n", req.URL())
	_, _ = fmt.Fprintf(out, "matched %s %s\n", req.Version, req.Template)
	return nil
}
