package league

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/diamond/pkg/logger"
)

// SetupLogging sends log records to stdout and, when logFile is set, to
// that file as well.
func SetupLogging(logFile string) error {
	if logFile == "" {
		return logger.Init()
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the seed-league tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Diamond League Seeder
=====================

Generates a reproducible demo league, stores it, and optionally drives a
running server through it one batch at a time.

Usage:
  go run ./cmd/seed-league [options]

Options:
  -teams int
        Number of teams (default 8)
  -days int
        Number of scheduled days (default 30)
  -pitchers int
        Pitching staff size per team (default 8)
  -seed uint
        Master seed of the generator (default 1)
  -start string
        First game day, RFC3339 (default 2030-04-01T19:05:00Z)
  -out string
        Write the league as YAML to this file
  -db string
        Seed this sqlite database
  -url string
        Base URL of a running server to drive (empty: do not drive)
  -batches int
        Number of batches to run when driving (default 10)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Also write log records to this file
  -verbose
        Log every batch report
  -help
        Show this help message

Examples:
  # Write a 12 team league to a file
  go run ./cmd/seed-league -teams 12 -days 60 -out league.yaml

  # Seed a database for the server
  go run ./cmd/seed-league -db diamond.db -seed 42

  # Drive a running server through 20 days
  go run ./cmd/seed-league -url http://localhost:9080 -batches 20 -verbose
`)
}
