// Command matchbench is the replay/scoring harness for the matching
// engine, the generalization of the reference's main.go: it feeds a
// batch of synthetic (or Postgres-stored) orders through engine.Engine
// and reports per-operation latency mean/standard-deviation and
// throughput.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lightsgoout/matchcore/engine"
	"github.com/lightsgoout/matchcore/internal/feed"
	"github.com/lightsgoout/matchcore/internal/metrics"
	"github.com/lightsgoout/matchcore/internal/stats"
	"github.com/lightsgoout/matchcore/internal/store"
	"github.com/lightsgoout/matchcore/internal/telemetry"
)

func main() {
	app := &cli.App{
		Name:  "matchbench",
		Usage: "replay synthetic order flow through the matching engine and report latency",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dsn", EnvVars: []string{"MATCHBENCH_DSN"}, Usage: "Postgres DSN; if empty, orders are generated in-process instead of round-tripping through the DB"},
			&cli.StringFlag{Name: "symbol", Value: "SYM", EnvVars: []string{"MATCHBENCH_SYMBOL"}},
			&cli.IntFlag{Name: "rounds", Value: 10, EnvVars: []string{"MATCHBENCH_ROUNDS"}},
			&cli.IntFlag{Name: "orders", Value: 100000, EnvVars: []string{"MATCHBENCH_ORDERS"}},
			&cli.IntFlag{Name: "batch-size", Value: 10, EnvVars: []string{"MATCHBENCH_BATCH_SIZE"}},
			&cli.Float64Flag{Name: "cancel-chance", Value: 0.05, EnvVars: []string{"MATCHBENCH_CANCEL_CHANCE"}},
			&cli.Int64Flag{Name: "seed", Value: 42, EnvVars: []string{"MATCHBENCH_SEED"}},
			&cli.StringFlag{Name: "metrics-addr", Usage: "if set, serve Prometheus metrics on this address instead of exiting after the run"},
			&cli.BoolFlag{Name: "dev-log", Usage: "use development (console) logging instead of JSON"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := telemetry.Must(c.Bool("dev-log"))
	defer logger.Sync() //nolint:errcheck

	reg := prometheus.NewRegistry()
	collectors := metrics.New(reg)

	if addr := c.String("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving metrics", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	symbol := c.String("symbol")
	rounds := c.Int("rounds")
	ordersToGenerate := c.Int("orders")
	batchSize := c.Int("batch-size")
	seed := c.Int64("seed")
	cancelChance := c.Float64("cancel-chance")

	var db *sql.DB
	var st *store.Store
	if dsn := c.String("dsn"); dsn != "" {
		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("opening db: %w", err)
		}
		defer db.Close()
		st = store.New(db, logger)
	}

	engineLatencies := make([]time.Duration, 0, rounds*(ordersToGenerate/batchSize))
	fetchLatencies := make([]time.Duration, 0, rounds)
	persistLatencies := make([]time.Duration, 0, rounds)
	totalLatencies := make([]time.Duration, 0, rounds)

	ctx := context.Background()
	e := engine.NewEngine()

	for round := 0; round < rounds; round++ {
		runID := feed.RunID()
		logger.Info("round starting", zap.Int("round", round+1), zap.String("run_id", runID))

		totalBegin := time.Now()

		var executions []engine.Execution
		e.Init(func(ex engine.Execution) {
			executions = append(executions, ex)
			// The engine fires this handler twice per trade (bid report,
			// then ask report); count the trade and its shares once, on
			// the ask-side report, rather than once per report.
			if ex.Side == engine.Ask {
				collectors.TradesExecuted.Inc()
				collectors.SharesTraded.Add(float64(ex.Size))
			}
		})

		var entries []feed.Entry
		var fetchBegin, fetchEnd time.Time

		if st != nil {
			if err := st.ResetSchema(ctx); err != nil {
				return err
			}
			gen := feed.NewGenerator(symbol, seed+int64(round), cancelChance)
			if err := st.FillTestData(ctx, gen, ordersToGenerate); err != nil {
				return err
			}

			fetchBegin = time.Now()
			fetched, err := st.FetchOrders(ctx)
			fetchEnd = time.Now()
			fetchLatencies = append(fetchLatencies, fetchEnd.Sub(fetchBegin))
			if err != nil {
				return err
			}
			entries = make([]feed.Entry, len(fetched))
			for i, o := range fetched {
				entries[i] = feed.Entry{Order: o}
			}
		} else {
			gen := feed.NewGenerator(symbol, seed+int64(round), cancelChance)
			fetchBegin = time.Now()
			entries = gen.Generate(ordersToGenerate)
			fetchEnd = time.Now()
			fetchLatencies = append(fetchLatencies, fetchEnd.Sub(fetchBegin))
		}

		issuedIDs := make([]engine.OrderID, len(entries))
		for i := batchSize; i < len(entries); i += batchSize {
			begin := time.Now()
			feedBatch(e, entries[i-batchSize:i], i-batchSize, issuedIDs, collectors)
			engineLatencies = append(engineLatencies, time.Since(begin))
		}

		persistBegin := time.Now()
		if st != nil {
			if err := st.PersistExecutions(ctx, runID, executions); err != nil {
				return err
			}
		}
		persistLatencies = append(persistLatencies, time.Since(persistBegin))

		totalLatencies = append(totalLatencies, time.Since(totalBegin))
		e.Destroy()
	}

	report(logger, engineLatencies, fetchLatencies, persistLatencies, totalLatencies, ordersToGenerate)

	if addr := c.String("metrics-addr"); addr != "" {
		logger.Info("run complete, metrics server remains up", zap.String("addr", addr))
		select {}
	}
	return nil
}

func feedBatch(e *engine.Engine, batch []feed.Entry, offset int, issuedIDs []engine.OrderID, collectors *metrics.Collectors) {
	for j, entry := range batch {
		idx := offset + j
		if entry.IsCancel {
			if entry.CancelID >= 0 && entry.CancelID < idx {
				e.Cancel(issuedIDs[entry.CancelID])
				collectors.OrdersCancelled.Inc()
			}
			continue
		}

		begin := time.Now()
		id := e.Limit(entry.Order)
		collectors.LimitLatency.Observe(time.Since(begin).Seconds())
		collectors.OrdersSubmitted.Inc()
		issuedIDs[idx] = id
	}
}

func report(logger *zap.Logger, engineLat, fetchLat, persistLat, totalLat []time.Duration, ordersToGenerate int) {
	eng := stats.Summarize(engineLat)
	fetch := stats.Summarize(fetchLat)
	persist := stats.Summarize(persistLat)
	total := stats.Summarize(totalLat)

	logger.Info("engine latency", zap.Float64("mean_seconds", eng.MeanSeconds), zap.Float64("sd_seconds", eng.StdDevSeconds))
	logger.Info("fetch latency", zap.Float64("mean_seconds", fetch.MeanSeconds), zap.Float64("sd_seconds", fetch.StdDevSeconds))
	logger.Info("persist latency", zap.Float64("mean_seconds", persist.MeanSeconds), zap.Float64("sd_seconds", persist.StdDevSeconds))

	if total.MeanSeconds > 0 {
		logger.Info("throughput", zap.Float64("orders_per_second", float64(ordersToGenerate)/total.MeanSeconds))
	}
}
