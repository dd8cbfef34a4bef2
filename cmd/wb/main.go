package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"workboard/internal/analytics"
	"workboard/internal/config"
	"workboard/internal/dates"
	"workboard/internal/db"
	"workboard/internal/engine"
	"workboard/internal/migrate"
	"workboard/internal/repo"
	"workboard/internal/server"
	"workboard/internal/view"
)

var rootCmd = &cobra.Command{
	Use:   "wb",
	Short: "Workboard CLI",
	Long: `Workboard tracks unit requests and tasks through their lifecycle and reports
SLA figures over them.
- Workspace: the .workboard directory holding the SQLite database.
- Items: requests (multi-assignee, filed against a unit) and tasks (single target).
- Statuses: free-text labels normalized to canonical keys; unknown labels fall back to open.
- Reports: KPIs plus a daily opened/closed series for a date window.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("WORKBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(itemCmd())
	rootCmd.AddCommand(unitCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func itemCmd() *cobra.Command {
	item := &cobra.Command{
		Use:   "item",
		Short: "Manage work items",
		Long:  "Work items are requests (multi-assignee) and tasks (single target). Statuses are free text normalized to canonical keys; entering in_progress stamps started_at once, entering testing or done re-stamps closed_at.",
	}
	item.AddCommand(itemCreateCmd())
	item.AddCommand(itemListCmd())
	item.AddCommand(itemShowCmd())
	item.AddCommand(itemStatusCmd())
	return item
}

func itemCreateCmd() *cobra.Command {
	var opts engine.CreateOptions
	var assignees, tags []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			opts.AssigneeIDs = assignees
			opts.Tags = tags
			if opts.CreatorID == "" {
				opts.CreatorID = opts.ActorID
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.CreateWorkItem(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", "request", "item kind (request or task)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "priority (defaults per kind)")
	cmd.Flags().StringVar(&opts.Unit, "unit", "", "unit the item is filed against")
	cmd.Flags().StringVar(&opts.CreatorID, "creator-id", "", "creator id (defaults to actor-id)")
	cmd.Flags().StringVar(&opts.CreatorName, "creator-name", "", "creator display name")
	cmd.Flags().StringVar(&opts.StartAt, "start", "", "planned start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.DueAt, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&assignees, "assignee", []string{}, "assignee id (repeatable)")
	cmd.Flags().StringArrayVar(&tags, "tag", []string{}, "tag (repeatable)")
	cmd.Flags().BoolVar(&opts.Visibility, "visible", false, "visible outside the owning unit")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("unit")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func itemListCmd() *cobra.Command {
	var f repo.ItemFilters
	var search, priority, statusFilter, sortMode string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListWorkItems(ctx, f)
				if err != nil {
					return err
				}
				items = view.Apply(items, view.Filter{
					Search:   search,
					Status:   statusFilter,
					Priority: priority,
				}, view.SortMode(sortMode))
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Kind", "Title", "Priority", "Status", "Unit", "Due", "Assignees"})
				for _, it := range items {
					tw.AppendRow(table.Row{
						it.ID, it.Kind, it.Title, it.Priority, it.Status,
						it.Unit, it.DueAt, strings.Join(it.Assignees, ","),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Unit, "unit", "", "filter by unit")
	cmd.Flags().StringVar(&f.OwnerID, "owner", "", "filter by assignee id")
	cmd.Flags().StringVar(&f.Kind, "kind", "", "filter by kind")
	cmd.Flags().StringVar(&statusFilter, "status", "", "filter by canonical status")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&search, "search", "", "substring over id, title, names")
	cmd.Flags().StringVar(&sortMode, "sort", string(view.SortNewest), "one of newest, oldest, priority_status_date, status_priority_date")
	return cmd
}

func itemShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.Repo.GetWorkItem(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	return cmd
}

func itemStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Apply a status change",
		Long:  "The status label is free text: built-in and configured aliases map it to a canonical key, unrecognized labels fall back to open.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.ApplyStatus(ctx, args[0], args[1], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	return cmd
}

func unitCmd() *cobra.Command {
	unit := &cobra.Command{Use: "unit", Short: "Per-unit views"}
	unit.AddCommand(unitStatusCmd())
	return unit
}

func unitStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <unit>",
		Short: "Show item counts by status for a unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				counts, err := e.Repo.CountItemsByStatus(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(counts)
				}
				fmt.Printf("Unit: %s\n", args[0])
				for st, c := range counts {
					fmt.Printf("  %s: %d\n", st, c)
				}
				return nil
			})
		},
	}
	return cmd
}

func reportCmd() *cobra.Command {
	rep := &cobra.Command{Use: "report", Short: "SLA reports"}
	rep.AddCommand(reportSummaryCmd())
	return rep
}

func reportSummaryCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "KPIs and daily series for a reporting window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dates.Valid(from) || !dates.Valid(to) {
				return fmt.Errorf("--from and --to must be YYYY-MM-DD")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListWorkItems(ctx, repo.ItemFilters{})
				if err != nil {
					return err
				}
				today := e.Now().Format(dates.Layout)
				rep := analytics.Compute(items, from, to, today)
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				printReport(rep)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "window end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func printReport(rep analytics.Report) {
	fmt.Printf("Window: %s .. %s\n", rep.From, rep.To)
	fmt.Printf("Total: %d  Active: %d  Overdue: %d  Done: %d\n",
		rep.KPIs.Total, rep.KPIs.Active, rep.KPIs.OverdueOpen, rep.KPIs.Done)
	if rep.KPIs.OnTimeRate != nil {
		fmt.Printf("On-time rate: %.1f%% (%d on time, %d late)\n",
			*rep.KPIs.OnTimeRate*100, rep.KPIs.OnTimeDone, rep.KPIs.LateDone)
	} else {
		fmt.Println("On-time rate: n/a")
	}
	if rep.KPIs.AvgResolutionDays != nil {
		fmt.Printf("Avg resolution: %.1f days\n", *rep.KPIs.AvgResolutionDays)
	} else {
		fmt.Println("Avg resolution: n/a")
	}
	if rep.KPIs.DoneButNoClosed > 0 {
		fmt.Printf("Done without close stamp: %d\n", rep.KPIs.DoneButNoClosed)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Day", "Opened", "Closed", "Late"})
	for _, b := range rep.Series {
		tw.AppendRow(table.Row{b.Day, b.Opened, b.Closed, b.LateClosed})
	}
	tw.Render()
	fmt.Println("Distribution:")
	for _, d := range rep.Distribution {
		fmt.Printf("  %s: %d\n", d.Status, d.Count)
	}
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented workboard.yml template",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.DefaultTemplate), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Event log"}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var itemID string
	var after int64
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.EventsAfter(ctx, n, after, itemID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&itemID, "item", "", "item id filter")
	cmd.Flags().Int64Var(&after, "after", 0, "only events after this id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowActorHeader bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:        cfg.Server.JWTSecret,
				AllowActorHeader: allowActorHeader,
			}
			if s := os.Getenv("WORKBOARD_JWT_SECRET"); s != "" {
				authCfg.JWTSecret = s
			}
			if authCfg.JWTSecret == "" && !allowActorHeader {
				return fmt.Errorf("WORKBOARD_JWT_SECRET is required for bearer auth (or pass --allow-actor-header for local use)")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Workboard API on http://%s%s (OpenAPI at /openapi.json)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&allowActorHeader, "allow-actor-header", false, "accept X-Actor-Id without a token")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
