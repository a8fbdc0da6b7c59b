package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/mrfscan/internal/codes"
	"github.com/gyeh/mrfscan/internal/config"
	"github.com/gyeh/mrfscan/internal/db"
	"github.com/gyeh/mrfscan/internal/discovery"
	"github.com/gyeh/mrfscan/internal/exitcode"
	"github.com/gyeh/mrfscan/internal/fetch"
	"github.com/gyeh/mrfscan/internal/logging"
	"github.com/gyeh/mrfscan/internal/modifiers"
	"github.com/gyeh/mrfscan/internal/normalize"
	"github.com/gyeh/mrfscan/internal/pipeline"
	"github.com/gyeh/mrfscan/internal/sink"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover hospitals and extract their MRFs",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&cfg.ParquetPath, "parquet", "", "Write records to this Parquet file instead of Postgres")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Extract and count records without writing to any sink")
	f.IntVar(&cfg.Workers, "workers", 0, "Concurrent hospital pipelines (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.LoadFromFile(configPath); err != nil {
		log.Error().Err(err).Msg("config load failed")
		os.Exit(exitcode.ConfigError)
	}
	if err := cfg.ValidateDiscovery(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateSink(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	norm, err := buildNormalizer(&cfg)
	if err != nil {
		log.Error().Err(err).Msg("static table load failed")
		os.Exit(exitcode.ConfigError)
	}

	runID := uuid.New()
	out, cleanup, err := buildSink(ctx, &cfg, runID, log)
	if err != nil {
		log.Error().Err(err).Msg("sink setup failed")
		os.Exit(exitcode.SinkError)
	}
	defer cleanup()

	client := buildClient(&cfg, log)
	p := &pipeline.Pipeline{
		Discovery:  discovery.New(client, &cfg, log),
		Client:     client,
		Normalizer: norm,
		Sink:       out,
		Log:        log,
		Workers:    cfg.Workers,
		RunID:      runID,
	}

	summary, err := p.Run(ctx, cfg.Cities)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitcode.DiscoveryError)
	}
	if err := out.Close(); err != nil {
		log.Error().Err(err).Msg("sink close failed")
		os.Exit(exitcode.SinkError)
	}

	fmt.Printf("Run %s: %d hospitals, %d extracted, %d skipped, %d failed, %d records (%.1fs)\n",
		summary.RunID, summary.HospitalsDiscovered, summary.HospitalsExtracted,
		summary.HospitalsSkipped, summary.HospitalsFailed, summary.RecordsEmitted,
		summary.DurationTotal.Seconds())

	if summary.HospitalsFailed > 0 {
		os.Exit(exitcode.PartialFailure)
	}
	return nil
}

// buildNormalizer loads the two static tables. Any failure here is
// fatal to the run: with no tables no record can be classified.
func buildNormalizer(cfg *config.Config) (*normalize.Normalizer, error) {
	table, err := codes.NewTable(cfg.CodeTypeNormalization)
	if err != nil {
		return nil, err
	}
	dict := modifiers.NewDictionary(cfg.Modifiers)
	return normalize.New(table, dict, cfg.CodeTypes)
}

func buildClient(cfg *config.Config, log zerolog.Logger) *fetch.Client {
	gate := fetch.NewGate(cfg.RequestDelay())
	retry := fetch.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxAttempts
	return fetch.NewClient(gate, retry, cfg.HTTPTimeout(), cfg.StallTimeout(), log)
}

// buildSink picks the configured sink. cleanup releases whatever the
// sink sits on (the pgx pool in the Postgres case).
func buildSink(ctx context.Context, cfg *config.Config, runID uuid.UUID, log zerolog.Logger) (sink.Sink, func(), error) {
	switch {
	case cfg.DryRun:
		return sink.NewMemory(), func() {}, nil
	case cfg.ParquetPath != "":
		p, err := sink.NewParquet(cfg.ParquetPath)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil
	default:
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return sink.NewPostgres(pool, runID, log), pool.Close, nil
	}
}
