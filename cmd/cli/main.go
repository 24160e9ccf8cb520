package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"randomnet/adapters/db/postgres/migrations"
	"randomnet/app"
	"randomnet/domain/dataset"
	domain "randomnet/domain/replicate"
	"randomnet/internal"
	"randomnet/internal/config"
	"randomnet/internal/container"
	"randomnet/internal/replicate"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "randomnet",
		Short:        "Null distributions of network statistics over random bipartite graphs",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newReplicatesCmd(),
		newStatisticsCmd(),
		newMigrateCmd(),
		newWorkerCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env: %v", err)
	}
	return config.Load()
}

type replicatesFlags struct {
	statistic string

	datasetPath  string
	top          string
	bottom       string
	attribute    string
	minFrequency int

	topN, bottomN, edgeN, cardinality int

	replicates int
	processes  int
	timeout    time.Duration
	seed       int64
	mode       string
	asJSON     bool
}

func newReplicatesCmd() *cobra.Command {
	var f replicatesFlags

	cmd := &cobra.Command{
		Use:   "replicates",
		Short: "Draw a null distribution and score the observed statistic",
		Long: `Draw a null distribution of a network statistic over random bipartite graphs.

The graph size comes either from a dataset (observed statistic included) or from
explicit cardinalities. Pool defaults come from REPLICATES, PROCESSES,
REPLICATE_TIMEOUT, WORKER_MODE and WORKER_SEED.

Example: randomnet replicates --dataset games.csv --top permalink --bottom author --statistic clustering
Example: randomnet replicates --top-n 5 --bottom-n 8 --edge-n 12 --statistic density --replicates 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplicates(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.statistic, "statistic", string(domain.StatDensity), "Statistic to compute (see 'randomnet statistics')")
	flags.StringVar(&f.datasetPath, "dataset", "", "CSV or XLSX edge list")
	flags.StringVar(&f.top, "top", "", "Top column of the dataset")
	flags.StringVar(&f.bottom, "bottom", "", "Bottom column of the dataset; the projection is onto these values")
	flags.StringVar(&f.attribute, "attribute", "", "Attribute column for attribute assortativity (default: top column)")
	flags.IntVar(&f.minFrequency, "min-frequency", dataset.DefaultMinFrequency, "Drop bottom values seen fewer times (0 or 1 keeps all)")
	flags.IntVar(&f.topN, "top-n", 0, "Top node count when no dataset is given")
	flags.IntVar(&f.bottomN, "bottom-n", 0, "Bottom node count when no dataset is given")
	flags.IntVar(&f.edgeN, "edge-n", 0, "Edge count when no dataset is given")
	flags.IntVar(&f.cardinality, "attribute-cardinality", 0, "Label count for attribute assortativity when no dataset is given")
	flags.IntVar(&f.replicates, "replicates", 0, "Replicate count (default: REPLICATES)")
	flags.IntVar(&f.processes, "processes", 0, "Worker count (default: PROCESSES)")
	flags.DurationVar(&f.timeout, "timeout", 0, "Per-result and per-join timeout (default: REPLICATE_TIMEOUT)")
	flags.Int64Var(&f.seed, "seed", 0, "Base seed (default: WORKER_SEED, 0 is time based)")
	flags.StringVar(&f.mode, "mode", "", "Worker mode: process or goroutine (default: WORKER_MODE)")
	flags.BoolVar(&f.asJSON, "json", false, "Print the full result as JSON")

	return cmd
}

func runReplicates(cmd *cobra.Command, f replicatesFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if f.mode != "" {
		cfg.Engine.WorkerMode = f.mode
	}

	kind, err := domain.ParseStatisticKind(f.statistic)
	if err != nil {
		return err
	}

	c, err := container.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	opts := c.Options()
	if f.replicates > 0 {
		opts.Replicates = f.replicates
	}
	if f.processes > 0 {
		opts.Processes = f.processes
	}
	if f.timeout > 0 {
		opts.Timeout = f.timeout
	}
	if f.seed != 0 {
		opts.Seed = f.seed
	}

	req := app.NullRequest{Statistic: kind, Options: opts}
	if f.datasetPath != "" {
		req.Dataset = &app.DatasetSpec{
			Path:         f.datasetPath,
			Top:          f.top,
			Bottom:       f.bottom,
			Attribute:    f.attribute,
			MinFrequency: f.minFrequency,
		}
	} else {
		req.Request = &domain.Request{TopN: f.topN, BottomN: f.bottomN, EdgeN: f.edgeN, AttributeCardinality: f.cardinality}
	}

	result, err := c.Service.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(out, result)
	return nil
}

func printResult(out io.Writer, r *app.NullResult) {
	s := r.Summary
	fmt.Fprintf(out, "Run:        %s\n", r.Run.ID)
	fmt.Fprintf(out, "Statistic:  %s\n", r.Run.Statistic)
	fmt.Fprintf(out, "Graph:      top_n=%d bottom_n=%d edge_n=%d",
		r.Run.Request.TopN, r.Run.Request.BottomN, r.Run.Request.EdgeN)
	if k := r.Run.Request.AttributeCardinality; k > 0 {
		fmt.Fprintf(out, " attribute_cardinality=%d", k)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Replicates: %d (%d NaN) from %d workers in %s\n",
		s.Count, s.NaNCount, r.Run.Processes, r.Runtime.Round(time.Millisecond))
	fmt.Fprintf(out, "Null:       mean=%.6g sd=%.6g min=%.6g median=%.6g max=%.6g\n",
		s.Mean, s.StdDev, s.Min, s.Median, s.Max)
	fmt.Fprintf(out, "Quantiles:  p5=%.6g p95=%.6g p99=%.6g\n", s.P5, s.P95, s.P99)
	if sig := r.Significance; sig != nil {
		fmt.Fprintf(out, "Observed:   %.6g\n", sig.Observed)
		fmt.Fprintf(out, "p-value:    %.6g (empirical, upper tail)\n", sig.PValue)
		fmt.Fprintf(out, "z-score:    %.4g (normal p=%.4g)\n", sig.ZScore, sig.NormalP)
	}
}

func newStatisticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statistics",
		Short: "List the supported statistics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, k := range domain.AllStatistics() {
				line := string(k)
				if k.NeedsAttributes() {
					line += " (needs an attribute)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Apply or inspect the run database schema (uses DATABASE_URL)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "status", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("DATABASE_URL is not set")
			}
			db, err := sqlx.ConnectContext(cmd.Context(), "postgres", cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			m := migrations.NewMigrator(db.DB, cmd.OutOrStdout())
			switch action {
			case "up":
				return m.Up(cmd.Context())
			case "status":
				return m.Status(cmd.Context())
			case "down":
				return m.Down(cmd.Context())
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}
		},
	}
	return cmd
}

// newWorkerCmd is the entry point of process workers. Interrupts are left to
// the dispatcher, which stops workers by closing their stdin.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:    container.WorkerCommand,
		Short:  "Run as a replicate worker process",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signal.Ignore(os.Interrupt)
			level := internal.ParseLogLevel(os.Getenv("LOG_LEVEL"))
			logger := internal.NewWriterLogger(level, os.Stderr, "[worker] ")
			return replicate.ServeFromEnv(context.Background(), logger)
		},
	}
}
