// Package service provides the batch scheduler that advances the universe
// and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	workerpool "github.com/okian/diamond/internal/adapters/mq/worker"
	"github.com/okian/diamond/internal/adapters/repository"
	"github.com/okian/diamond/internal/domain/dedupe"
	"github.com/okian/diamond/internal/domain/fatigue"
	"github.com/okian/diamond/internal/domain/game"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
	"github.com/okian/diamond/internal/domain/types"
	"github.com/okian/diamond/pkg/logger"
	"github.com/okian/diamond/pkg/metrics"
)

const defaultQueueSize = 1024

// Batch results recorded in metrics.
const (
	batchComplete = "complete"
	batchPartial  = "partial"
	batchRejected = "rejected"
	batchError    = "error"
)

// Service schedules game simulations one batch at a time.
type Service struct {
	mu sync.RWMutex
	// batch is held for the whole of RunBatch.
	batch sync.Mutex

	// Core components
	store     repository.Store
	simulator workerpool.Simulator
	merger    fatigue.Merger
	claims    dedupe.Deduper[int64]
	pool      *workerpool.Pool

	// Configuration
	maxConcurrency int
	queueSize      int
	seed           int64
	autoAdvance    time.Duration
	gameOpts       []game.Option

	// State
	started  bool
	stopCh   chan struct{}
	loopDone chan struct{}

	batches   atomic.Int64
	simulated atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	lastRunID atomic.Pointer[string]

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxConcurrency: runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		claims:         dedupe.NewInMemoryDeduper[int64](),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	if s.merger == nil {
		s.merger = fatigue.NewMerger()
	}
	if s.simulator == nil {
		s.simulator = game.NewEngine(s.gameOpts...)
	}
	return s
}

// Start creates the worker pool and, when configured, the auto-advance loop.
// ctx bounds the lifetime of both.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}

	s.logger.Info(ctx, "starting scheduler...")
	s.stopCh = make(chan struct{})

	s.pool = workerpool.NewPool(s.maxConcurrency, s.simulator,
		workerpool.WithQueueCapacity(s.queueSize),
		workerpool.WithPoolLogger(s.logger.Named("pool")),
	)
	s.pool.Start(ctx)

	if s.autoAdvance > 0 {
		s.loopDone = make(chan struct{})
		go s.advanceLoop(ctx, s.autoAdvance, s.stopCh, s.loopDone)
	}

	s.started = true
	metrics.UpdatePendingGames(s.store.Count(ctx))
	s.logger.Info(ctx, "scheduler started",
		logger.Int("workers", s.maxConcurrency),
		logger.Int("queueSize", s.queueSize),
		logger.Int64("seed", s.seed),
		logger.Duration("autoAdvance", s.autoAdvance),
	)

	return nil
}

// Stop gracefully shuts down the service. A running batch finishes first.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "stopping scheduler...")

	// Signal the auto-advance loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}
	loopDone, pool := s.loopDone, s.pool
	s.mu.Unlock()

	if loopDone != nil {
		<-loopDone
	}

	s.batch.Lock()
	defer s.batch.Unlock()
	if err := pool.Shutdown(context.Background()); err != nil {
		s.logger.Error(context.Background(), "error stopping worker pool", logger.Error(err))
	}
	s.logger.Info(context.Background(), "scheduler stopped")
}

// advanceLoop runs a batch on every tick until the service stops.
func (s *Service) advanceLoop(ctx context.Context, interval time.Duration, stop <-chan struct{}, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			_, err := s.RunBatch(ctx)
			switch {
			case err == nil, errors.Is(err, ErrBatchInProgress):
			case errors.Is(err, context.Canceled):
				return
			default:
				s.logger.Warn(ctx, "scheduled batch failed", logger.Error(err))
			}
		}
	}
}

// pendingGame is a submitted game waiting for its outcome.
type pendingGame struct {
	idGame int64
	reply  <-chan workerpool.Outcome
}

// RunBatch simulates every game due at the current universe time, commits
// the results and advances the clock when nothing failed.
//
// Games are simulated concurrently on the pool and joined before anything
// is written. If ctx ends before the join completes nothing is committed
// and ctx.Err() is returned. Each game's box score is then written together
// with its players' merged conditions, serially in game id order. A game
// whose commit fails counts as failed and stays due.
func (s *Service) RunBatch(ctx context.Context) (types.BatchReport, error) {
	if !s.batch.TryLock() {
		return types.BatchReport{}, ErrBatchInProgress
	}
	defer s.batch.Unlock()

	s.mu.RLock()
	started, pool := s.started, s.pool
	s.mu.RUnlock()
	if !started {
		return types.BatchReport{}, ErrNotStarted
	}

	begin := time.Now()
	report := types.BatchReport{RunID: uuid.NewString()}
	log := s.logger.With(logger.String("run_id", report.RunID))

	result := batchError
	defer func() {
		metrics.RecordBatch(result)
		metrics.RecordBatchDuration(float64(time.Since(begin).Microseconds()) / 1000)
	}()

	// Step 1: Read the clock and the games due now
	u, err := s.store.Universe(ctx)
	if err != nil {
		return report, fmt.Errorf("read universe: %w", err)
	}
	report.Date = u.CurrentDateTime
	report.NextDate = u.CurrentDateTime

	due, err := s.store.DueGames(ctx, report.Date)
	if err != nil {
		return report, fmt.Errorf("query due games: %w", err)
	}
	report.Due = len(due)

	packages := make([]model.GamePackage, 0, len(due))
	for _, g := range due {
		pkg, err := s.store.GamePackage(ctx, g)
		if err != nil {
			return report, fmt.Errorf("assemble game %d: %w", g.IDGame, err)
		}
		packages = append(packages, pkg)
	}

	// Step 2: Nobody may play twice in one batch
	if err := checkRosters(packages); err != nil {
		result = batchRejected
		log.Warn(ctx, "batch rejected", logger.Error(err))
		return report, err
	}

	// Step 3: Claim every game for the duration of the batch
	claimed := make([]model.GamePackage, 0, len(packages))
	for _, pkg := range packages {
		if s.claims.SeenAndRecord(ctx, pkg.IDGame) {
			report.Skipped++
			metrics.RecordGameSkipped("in_flight")
			log.Info(ctx, "game already in flight", logger.GameID(pkg.IDGame))
			continue
		}
		claimed = append(claimed, pkg)
	}
	inFlight := report.Skipped

	// Step 4 and 5: Dispatch, then join every outcome
	outcomes, abandoned, err := s.simulate(ctx, pool, claimed)
	if err != nil {
		s.releaseAbandoned(claimed, abandoned)
		log.Warn(ctx, "batch abandoned before commit", logger.Error(err))
		return report, err
	}
	defer func() {
		for _, pkg := range claimed {
			s.claims.Unrecord(context.Background(), pkg.IDGame)
		}
	}()

	// Step 6: Commit. A late cancellation must not leave half a batch.
	commitCtx := context.WithoutCancel(ctx)
	for _, out := range outcomes {
		if out.Err != nil {
			report.Failed++
			report.Failures = append(report.Failures, failure(out.IDGame, out.Err))
			continue
		}
		err := s.commit(commitCtx, out.IDGame, out.Result)
		switch {
		case errors.Is(err, repository.ErrAlreadyResolved):
			report.Skipped++
			metrics.RecordGameSkipped("resolved")
			continue
		case err != nil:
			report.Failed++
			report.Failures = append(report.Failures, failure(out.IDGame, err))
			metrics.RecordErrorByComponent("scheduler", "commit")
			log.Warn(ctx, "commit failed", logger.GameID(out.IDGame), logger.Error(err))
			continue
		}
		report.Simulated++
		metrics.RecordGameSimulated()
		recordPitches(out.Result.BoxScore)
	}

	// Step 7: Move the clock only past a complete batch. A game skipped as
	// in flight is still unresolved and would be left behind.
	if report.Failed == 0 && inFlight == 0 {
		if err := s.advance(commitCtx, &report); err != nil {
			return report, err
		}
	}

	// Step 8: Report
	report.Pending = s.store.Count(commitCtx)
	report.Duration = time.Since(begin)
	metrics.UpdatePendingGames(report.Pending)

	s.batches.Add(1)
	s.simulated.Add(int64(report.Simulated))
	s.failed.Add(int64(report.Failed))
	s.skipped.Add(int64(report.Skipped))
	s.lastRunID.Store(&report.RunID)

	result = batchComplete
	if !report.Complete() {
		result = batchPartial
	}
	log.Info(ctx, "batch finished",
		logger.Time("date", report.Date),
		logger.Int("due", report.Due),
		logger.Int("simulated", report.Simulated),
		logger.Int("failed", report.Failed),
		logger.Int("skipped", report.Skipped),
		logger.Bool("advanced", report.Advanced),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

// simulate submits every package and waits for all of them. When the queue
// is full it waits on the oldest outstanding game before retrying. Outcomes
// come back in submission order. If ctx ends first, the games still running
// on a worker are returned so their claims can outlive the batch.
func (s *Service) simulate(ctx context.Context, pool *workerpool.Pool, packages []model.GamePackage) ([]workerpool.Outcome, []pendingGame, error) {
	outcomes := make([]workerpool.Outcome, 0, len(packages))
	waiting := make([]pendingGame, 0, len(packages))

	for _, pkg := range packages {
		seed := random.DeriveSeed(s.seed, pkg.IDGame)
		for {
			reply, err := pool.Submit(ctx, pkg, seed)
			if errors.Is(err, workerpool.ErrQueueFull) && len(waiting) > 0 {
				out, err := await(ctx, waiting[0])
				if err != nil {
					return nil, waiting, err
				}
				outcomes = append(outcomes, out)
				waiting = waiting[1:]
				continue
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, waiting, ctxErr
				}
				outcomes = append(outcomes, workerpool.Outcome{IDGame: pkg.IDGame, Err: err})
				break
			}
			waiting = append(waiting, pendingGame{idGame: pkg.IDGame, reply: reply})
			break
		}
	}

	for i, p := range waiting {
		out, err := await(ctx, p)
		if err != nil {
			return nil, waiting[i:], err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil, nil
}

// releaseAbandoned frees the claims of a batch that gave up before the join.
// Games still on a worker keep their claim until the worker answers.
func (s *Service) releaseAbandoned(claimed []model.GamePackage, running []pendingGame) {
	busy := make(map[int64]bool, len(running))
	for _, p := range running {
		busy[p.idGame] = true
	}
	for _, pkg := range claimed {
		if !busy[pkg.IDGame] {
			s.claims.Unrecord(context.Background(), pkg.IDGame)
		}
	}
	if len(running) == 0 {
		return
	}
	go func() {
		for _, p := range running {
			<-p.reply
			s.claims.Unrecord(context.Background(), p.idGame)
		}
	}()
}

func await(ctx context.Context, p pendingGame) (workerpool.Outcome, error) {
	select {
	case out := <-p.reply:
		return out, nil
	case <-ctx.Done():
		return workerpool.Outcome{}, ctx.Err()
	}
}

// commit folds a game's deltas into its players' conditions and stores them
// together with the box score. Rosters are disjoint within a batch, so each
// game can be committed on its own.
func (s *Service) commit(ctx context.Context, idGame int64, res *model.GameResult) error {
	var conds map[int64]model.Condition
	if len(res.Deltas) > 0 {
		ids := make([]int64, 0, len(res.Deltas))
		for _, d := range res.Deltas {
			ids = append(ids, d.IDPerson)
		}
		var err error
		conds, err = s.store.Conditions(ctx, ids)
		if err != nil {
			return fmt.Errorf("load conditions: %w", err)
		}
		for _, d := range res.Deltas {
			conds[d.IDPerson] = s.merger.Merge(conds[d.IDPerson], d)
		}
	}
	if err := s.store.CommitGame(ctx, idGame, res.BoxScore, conds); err != nil {
		return err
	}
	metrics.RecordDeltasMerged(len(res.Deltas))
	return nil
}

// advance moves the clock to the next scheduled game, or one day ahead when
// nothing is scheduled, and lets every player recover for the days passed.
func (s *Service) advance(ctx context.Context, report *types.BatchReport) error {
	next, ok, err := s.store.NextGameDate(ctx, report.Date)
	if err != nil {
		return fmt.Errorf("find next game date: %w", err)
	}
	if !ok {
		next = report.Date.AddDate(0, 0, 1)
	}

	if days := daysBetween(report.Date, next); days > 0 {
		conds, err := s.store.Conditions(ctx, nil)
		if err != nil {
			return fmt.Errorf("load conditions: %w", err)
		}
		for id, c := range conds {
			conds[id] = s.merger.Recover(c, days)
		}
		if err := s.store.SaveConditions(ctx, conds); err != nil {
			return fmt.Errorf("save conditions: %w", err)
		}
	}

	if err := s.store.AdvanceUniverse(ctx, next); err != nil {
		return fmt.Errorf("advance universe: %w", err)
	}
	report.NextDate = next
	report.Advanced = true
	metrics.UpdateUniverseDate(next.Unix())
	return nil
}

// daysBetween counts calendar days in UTC.
func daysBetween(from, to time.Time) int {
	const day = 24 * time.Hour
	a := from.UTC().Truncate(day)
	b := to.UTC().Truncate(day)
	return int(b.Sub(a) / day)
}

// checkRosters reports the first team or player due in two games.
func checkRosters(packages []model.GamePackage) error {
	teams := make(map[int64]int64)
	players := make(map[int64]int64)
	for _, pkg := range packages {
		for _, t := range []model.Team{pkg.Home, pkg.Away} {
			if other, ok := teams[t.IDTeam]; ok {
				return fmt.Errorf("%w: team %d in games %d and %d", ErrRosterConflict, t.IDTeam, other, pkg.IDGame)
			}
			teams[t.IDTeam] = pkg.IDGame
			for _, id := range t.PlayerIDs() {
				if other, ok := players[id]; ok {
					return fmt.Errorf("%w: player %d in games %d and %d", ErrRosterConflict, id, other, pkg.IDGame)
				}
				players[id] = pkg.IDGame
			}
		}
	}
	return nil
}

func failure(idGame int64, err error) types.GameFailure {
	f := types.GameFailure{IDGame: idGame, Error: err.Error()}
	var simErr *game.SimulationError
	switch {
	case errors.As(err, &simErr):
		f.Invariant = simErr.Invariant
		metrics.RecordGameFailed(simErr.Invariant)
	case errors.Is(err, workerpool.ErrWorkerFault):
		metrics.RecordGameFailed("worker_fault")
	default:
		metrics.RecordGameFailed("")
	}
	return f
}

func recordPitches(box model.BoxScore) {
	for _, side := range []model.TeamBox{box.Home, box.Away} {
		for _, p := range side.Pitching {
			for pt, n := range p.PitchesByType {
				metrics.RecordPitches(string(pt), n)
			}
		}
	}
}

// Universe returns the current world clock.
func (s *Service) Universe(ctx context.Context) (model.Universe, error) {
	return s.store.Universe(ctx)
}

// BoxScore returns a resolved game's box score.
func (s *Service) BoxScore(ctx context.Context, idGame int64) (model.BoxScore, error) {
	return s.store.BoxScore(ctx, idGame)
}

// Standings returns every team's record, best first.
func (s *Service) Standings(ctx context.Context) ([]model.Standing, error) {
	return s.store.Standings(ctx)
}

// Standing returns one team's record.
func (s *Service) Standing(ctx context.Context, idTeam int64) (model.Standing, error) {
	standings, err := s.store.Standings(ctx)
	if err != nil {
		return model.Standing{}, err
	}
	for _, st := range standings {
		if st.IDTeam == idTeam {
			return st, nil
		}
	}
	return model.Standing{}, fmt.Errorf("team %d: %w", idTeam, repository.ErrNotFound)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	s.mu.RLock()
	started, pool := s.started, s.pool
	s.mu.RUnlock()

	stats := types.Stats{
		Workers:        s.maxConcurrency,
		Batches:        s.batches.Load(),
		GamesSimulated: s.simulated.Load(),
		GamesFailed:    s.failed.Load(),
		GamesSkipped:   s.skipped.Load(),
	}
	if id := s.lastRunID.Load(); id != nil {
		stats.LastRunID = *id
	}
	if started {
		stats.QueueDepth = pool.Pending(ctx)
	}

	u, err := s.store.Universe(ctx)
	if err != nil {
		return stats, err
	}
	stats.CurrentDate = u.CurrentDateTime

	sum, err := s.store.Summary(ctx)
	if err != nil {
		return stats, err
	}
	stats.Games = sum.Games
	stats.Resolved = sum.Resolved
	stats.Pending = sum.Pending
	stats.Teams = sum.Teams
	stats.Players = sum.Players

	metrics.UpdatePendingGames(sum.Pending)
	metrics.UpdateQueueSize(stats.QueueDepth)
	return stats, nil
}
