package league

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/types"
	"github.com/okian/diamond/pkg/logger"
)

// DriveConfig holds the settings of a driven run against a live server.
type DriveConfig struct {
	BaseURL string        // Base URL of the service
	Batches int           // Number of POST /batch calls to make
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every batch report
}

// DriveStats summarizes a driven run.
type DriveStats struct {
	Batches   int
	Advanced  int
	Simulated int
	Failed    int
	Skipped   int
	StartDate time.Time
	EndDate   time.Time
	StartTime time.Time
	Duration  time.Duration
}

// ErrStatus is returned for an unexpected HTTP status.
var ErrStatus = errors.New("unexpected status")

// httpClient wraps http.Client with JSON helpers.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// do sends a request and decodes a JSON body into out when status matches.
func (c *httpClient) do(ctx context.Context, method, path string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrStatus, method, path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Drive runs batches against a server and checks that the results add up:
// the clock only moves forward and only on complete batches, and the
// standings account for every resolved game.
func Drive(ctx context.Context, cfg DriveConfig) (DriveStats, error) {
	log := logger.Get().Named("league-driver")
	stats := DriveStats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting league run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("batches", cfg.Batches),
		logger.Duration("timeout", cfg.Timeout))

	// Step 1: Check service health
	if err := client.do(ctx, http.MethodGet, "/healthz", http.StatusOK, nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Read the clock
	var u model.Universe
	if err := client.do(ctx, http.MethodGet, "/universe", http.StatusOK, &u); err != nil {
		return stats, err
	}
	stats.StartDate = u.CurrentDateTime

	// Step 3: Run batches
	clock := u.CurrentDateTime
	for i := 0; i < cfg.Batches; i++ {
		var report types.BatchReport
		if err := client.do(ctx, http.MethodPost, "/batch", http.StatusOK, &report); err != nil {
			return stats, fmt.Errorf("batch %d: %w", i+1, err)
		}
		if err := checkReport(clock, report); err != nil {
			return stats, fmt.Errorf("batch %d: %w", i+1, err)
		}

		stats.Batches++
		stats.Simulated += report.Simulated
		stats.Failed += report.Failed
		stats.Skipped += report.Skipped
		if report.Advanced {
			stats.Advanced++
			clock = report.NextDate
		}

		if cfg.Verbose {
			log.Info(ctx, "batch done",
				logger.String("runId", report.RunID),
				logger.Time("date", report.Date),
				logger.Int("simulated", report.Simulated),
				logger.Int("failed", report.Failed),
				logger.Int("skipped", report.Skipped),
				logger.Bool("advanced", report.Advanced))
		}
		for _, f := range report.Failures {
			log.Warn(ctx, "game failed", logger.GameID(f.IDGame),
				logger.String("invariant", f.Invariant), logger.String("error", f.Error))
		}
		if report.Due == 0 && report.Pending == 0 {
			log.Info(ctx, "season complete", logger.Int("batches", stats.Batches))
			break
		}
	}

	// Step 4: Verify the final state
	if err := client.do(ctx, http.MethodGet, "/universe", http.StatusOK, &u); err != nil {
		return stats, err
	}
	stats.EndDate = u.CurrentDateTime
	if !u.CurrentDateTime.Equal(clock) {
		return stats, fmt.Errorf("%w: clock at %s, reports say %s", ErrVerification, u.CurrentDateTime, clock)
	}
	if err := verifyStandings(ctx, client); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func checkReport(clock time.Time, r types.BatchReport) error {
	switch {
	case !r.Date.Equal(clock):
		return fmt.Errorf("%w: batch ran at %s, clock was %s", ErrVerification, r.Date, clock)
	case r.Advanced && r.Failed > 0:
		return fmt.Errorf("%w: clock advanced past %d failed games", ErrVerification, r.Failed)
	case r.Advanced && !r.NextDate.After(r.Date):
		return fmt.Errorf("%w: clock moved from %s to %s", ErrVerification, r.Date, r.NextDate)
	case len(r.Failures) != r.Failed:
		return fmt.Errorf("%w: %d failures listed for %d failed games", ErrVerification, len(r.Failures), r.Failed)
	}
	return nil
}

// verifyStandings checks that wins and losses balance and that the standings
// cover every resolved game.
func verifyStandings(ctx context.Context, client *httpClient) error {
	var standings []model.Standing
	if err := client.do(ctx, http.MethodGet, "/standings", http.StatusOK, &standings); err != nil {
		return err
	}
	var s types.Stats
	if err := client.do(ctx, http.MethodGet, "/stats", http.StatusOK, &s); err != nil {
		return err
	}

	var wins, losses, ties int
	for i, st := range standings {
		wins += st.Wins
		losses += st.Losses
		ties += st.Ties
		if st.Rank != i+1 {
			return fmt.Errorf("%w: standing %d has rank %d", ErrVerification, i, st.Rank)
		}
	}
	if wins != losses {
		return fmt.Errorf("%w: %d wins against %d losses", ErrVerification, wins, losses)
	}
	if games := wins + ties/2; games != s.Resolved {
		return fmt.Errorf("%w: standings cover %d games, %d resolved", ErrVerification, games, s.Resolved)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, s DriveStats) {
	log.Info(ctx, "league run complete",
		logger.Int("batches", s.Batches),
		logger.Int("advanced", s.Advanced),
		logger.Int("simulated", s.Simulated),
		logger.Int("failed", s.Failed),
		logger.Int("skipped", s.Skipped),
		logger.Time("from", s.StartDate),
		logger.Time("to", s.EndDate),
		logger.Duration("duration", s.Duration))
}
