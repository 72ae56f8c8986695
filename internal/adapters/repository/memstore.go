package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/pkg/metrics"
)

// MemStore is an in-memory Store guarded by one RWMutex. Standings reads
// are served from an atomically published snapshot.
type MemStore struct {
	mu         sync.RWMutex
	universe   model.Universe
	games      map[int64]*model.Game
	parks      map[int64]model.Park
	teams      map[int64]model.Team
	conditions map[int64]model.Condition

	snapshot atomic.Pointer[Snapshot]
}

var (
	_ Store  = (*MemStore)(nil)
	_ Seeder = (*MemStore)(nil)
)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	s := &MemStore{
		games:      make(map[int64]*model.Game),
		parks:      make(map[int64]model.Park),
		teams:      make(map[int64]model.Team),
		conditions: make(map[int64]model.Condition),
	}
	s.snapshot.Store(newSnapshot(nil))
	return s
}

// Seed loads a league, replacing whatever the store held.
func (s *MemStore) Seed(ctx context.Context, league model.League) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateLeague(league); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.universe = league.Universe
	s.games = make(map[int64]*model.Game, len(league.Games))
	s.parks = make(map[int64]model.Park, len(league.Parks))
	s.teams = make(map[int64]model.Team, len(league.Teams))
	s.conditions = make(map[int64]model.Condition)

	for _, p := range league.Parks {
		p.WallSegments = append([]model.WallSegment(nil), p.WallSegments...)
		s.parks[p.IDPark] = p
	}
	for _, t := range league.Teams {
		s.teams[t.IDTeam] = t.Clone()
		for _, group := range [][]model.Player{t.Lineup, t.Pitchers} {
			for _, p := range group {
				if p.Condition != (model.Condition{}) {
					s.conditions[p.IDPerson] = p.Condition
				}
			}
		}
	}
	for _, g := range league.Games {
		g.Umpires = append([]model.Umpire(nil), g.Umpires...)
		s.games[g.IDGame] = &g
	}
	s.publishSnapshot()
	return nil
}

func (s *MemStore) Universe(ctx context.Context) (model.Universe, error) {
	if err := ctx.Err(); err != nil {
		return model.Universe{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.universe, nil
}

func (s *MemStore) DueGames(ctx context.Context, at time.Time) ([]model.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []model.Game
	for _, g := range s.games {
		if g.BoxScore == nil && g.DateTime.Equal(at) {
			due = append(due, copyGame(*g))
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].IDGame < due[j].IDGame })
	return due, nil
}

func (s *MemStore) GamePackage(ctx context.Context, game model.Game) (model.GamePackage, error) {
	if err := ctx.Err(); err != nil {
		return model.GamePackage{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	park, ok := s.parks[game.IDPark]
	if !ok {
		return model.GamePackage{}, fmt.Errorf("park %d: %w", game.IDPark, ErrNotFound)
	}
	home, ok := s.teams[game.IDTeamHome]
	if !ok {
		return model.GamePackage{}, fmt.Errorf("team %d: %w", game.IDTeamHome, ErrNotFound)
	}
	away, ok := s.teams[game.IDTeamAway]
	if !ok {
		return model.GamePackage{}, fmt.Errorf("team %d: %w", game.IDTeamAway, ErrNotFound)
	}
	return Assemble(game, park, home, away, s.conditions), nil
}

func (s *MemStore) SaveBoxScore(ctx context.Context, idGame int64, box model.BoxScore) error {
	return s.CommitGame(ctx, idGame, box, nil)
}

func (s *MemStore) CommitGame(ctx context.Context, idGame int64, box model.BoxScore, conds map[int64]model.Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[idGame]
	if !ok {
		return fmt.Errorf("game %d: %w", idGame, ErrNotFound)
	}
	if g.BoxScore != nil {
		return fmt.Errorf("game %d: %w", idGame, ErrAlreadyResolved)
	}
	g.BoxScore = &box
	for id, c := range conds {
		s.conditions[id] = c
	}
	s.publishSnapshot()
	return nil
}

func (s *MemStore) BoxScore(ctx context.Context, idGame int64) (model.BoxScore, error) {
	if err := ctx.Err(); err != nil {
		return model.BoxScore{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[idGame]
	if !ok || g.BoxScore == nil {
		return model.BoxScore{}, fmt.Errorf("game %d: %w", idGame, ErrNotFound)
	}
	return *g.BoxScore, nil
}

func (s *MemStore) Conditions(ctx context.Context, ids []int64) (map[int64]model.Condition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ids == nil {
		out := make(map[int64]model.Condition)
		for _, t := range s.teams {
			for _, id := range t.PlayerIDs() {
				out[id] = s.conditions[id]
			}
		}
		return out, nil
	}
	out := make(map[int64]model.Condition, len(ids))
	for _, id := range ids {
		out[id] = s.conditions[id]
	}
	return out, nil
}

func (s *MemStore) SaveConditions(ctx context.Context, conds map[int64]model.Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range conds {
		s.conditions[id] = c
	}
	return nil
}

func (s *MemStore) NextGameDate(ctx context.Context, after time.Time) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var next time.Time
	found := false
	for _, g := range s.games {
		if g.BoxScore != nil || !g.DateTime.After(after) {
			continue
		}
		if !found || g.DateTime.Before(next) {
			next, found = g.DateTime, true
		}
	}
	return next, found, nil
}

func (s *MemStore) AdvanceUniverse(ctx context.Context, to time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if to.Before(s.universe.CurrentDateTime) {
		return fmt.Errorf("%w: %s before %s", ErrClockBackwards, to, s.universe.CurrentDateTime)
	}
	s.universe.CurrentDateTime = to
	return nil
}

func (s *MemStore) Standings(ctx context.Context) ([]model.Standing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.Standing(nil), s.snapshot.Load().Standings...), nil
}

func (s *MemStore) Summary(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Games: len(s.games), Teams: len(s.teams)}
	for _, g := range s.games {
		if g.BoxScore != nil {
			sum.Resolved++
		}
	}
	sum.Pending = sum.Games - sum.Resolved
	for _, t := range s.teams {
		sum.Players += len(t.Lineup) + len(t.Pitchers)
	}
	return sum, nil
}

func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, g := range s.games {
		if g.BoxScore == nil {
			n++
		}
	}
	return n
}

// publishSnapshot must be called with s.mu held.
func (s *MemStore) publishSnapshot() {
	teams := make([]model.Team, 0, len(s.teams))
	for _, t := range s.teams {
		teams = append(teams, t)
	}
	var boxes []model.BoxScore
	for _, g := range s.games {
		if g.BoxScore != nil {
			boxes = append(boxes, *g.BoxScore)
		}
	}
	s.snapshot.Store(newSnapshot(ComputeStandings(teams, boxes)))
}

func copyGame(g model.Game) model.Game {
	g.Umpires = append([]model.Umpire(nil), g.Umpires...)
	g.BoxScore = nil
	return g
}
