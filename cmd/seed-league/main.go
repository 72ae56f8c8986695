// Command seed-league generates a reproducible demo league, writes it to a
// YAML file or a SQLite database, and can drive a running server through
// it one batch at a time.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/okian/diamond/internal/adapters/repository/sqlite"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/league"
	"github.com/okian/diamond/pkg/logger"
)

// Default configuration constants.
const (
	defaultBatches     = 10
	defaultTimeout     = 30 * time.Second
	defaultDriveBudget = 30 * time.Minute
)

// options mirrors the command line.
type options struct {
	Teams    int
	Days     int
	Pitchers int
	Seed     uint64
	Start    string
	Out      string
	DB       string
	URL      string
	Batches  int
	Timeout  time.Duration
	Verbose  bool
}

var errNothingToDo = errors.New("nothing to do: set -out, -db or -url")

func main() {
	var (
		opts    options
		logFile string
		help    bool
	)
	flag.IntVar(&opts.Teams, "teams", league.DefaultTeams, "Number of teams")
	flag.IntVar(&opts.Days, "days", league.DefaultDays, "Number of scheduled days")
	flag.IntVar(&opts.Pitchers, "pitchers", league.DefaultPitchers, "Pitching staff size per team")
	flag.Uint64Var(&opts.Seed, "seed", league.DefaultSeed, "Master seed of the generator")
	flag.StringVar(&opts.Start, "start", "", "First game day, RFC3339")
	flag.StringVar(&opts.Out, "out", "", "Write the league as YAML to this file")
	flag.StringVar(&opts.DB, "db", "", "Seed this sqlite database")
	flag.StringVar(&opts.URL, "url", "", "Base URL of a running server to drive")
	flag.IntVar(&opts.Batches, "batches", defaultBatches, "Number of batches to run when driving")
	flag.DurationVar(&opts.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flag.StringVar(&logFile, "log", "", "Also write log records to this file")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Log every batch report")
	flag.BoolVar(&help, "help", false, "Show help")
	flag.Parse()

	if help {
		league.ShowHelp(os.Stdout)
		return
	}

	// Setup logging
	if err := league.SetupLogging(logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDriveBudget)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		logger.Get().Error(ctx, "seed-league failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	log := logger.Get().Named("seed-league")
	if opts.Out == "" && opts.DB == "" && opts.URL == "" {
		return errNothingToDo
	}

	genOpts := []league.Option{
		league.WithTeams(opts.Teams),
		league.WithDays(opts.Days),
		league.WithPitchers(opts.Pitchers),
		league.WithSeed(opts.Seed),
	}
	if opts.Start != "" {
		start, err := time.Parse(time.RFC3339, opts.Start)
		if err != nil {
			return fmt.Errorf("%w: start: %w", league.ErrInvalidConfig, err)
		}
		genOpts = append(genOpts, league.WithStart(start))
	}

	if opts.Out != "" || opts.DB != "" {
		lg, err := league.Generate(genOpts...)
		if err != nil {
			return err
		}
		first, last := league.Span(lg)
		log.Info(ctx, "league generated",
			logger.Int("teams", len(lg.Teams)),
			logger.Int("games", len(lg.Games)),
			logger.Time("first", first),
			logger.Time("last", last))

		if opts.Out != "" {
			if err := league.SaveFile(opts.Out, lg); err != nil {
				return err
			}
			log.Info(ctx, "league written", logger.String("path", opts.Out))
		}
		if opts.DB != "" {
			if err := seedDB(ctx, opts.DB, lg); err != nil {
				return err
			}
			log.Info(ctx, "database seeded", logger.String("path", opts.DB))
		}
	}

	if opts.URL == "" {
		return nil
	}
	stats, err := league.Drive(ctx, league.DriveConfig{
		BaseURL: opts.URL,
		Batches: opts.Batches,
		Timeout: opts.Timeout,
		Verbose: opts.Verbose,
	})
	if err != nil {
		return err
	}
	log.Info(ctx, "league run complete",
		logger.Int("batches", stats.Batches),
		logger.Int("advanced", stats.Advanced),
		logger.Int("simulated", stats.Simulated),
		logger.Int("failed", stats.Failed),
		logger.Time("endDate", stats.EndDate),
		logger.Duration("duration", stats.Duration))
	return nil
}

func seedDB(ctx context.Context, path string, lg model.League) (err error) {
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); err == nil {
			err = cerr
		}
	}()
	return store.Seed(ctx, lg)
}
