package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/diamond/internal/adapters/mq/worker"
	"github.com/okian/diamond/internal/adapters/repository"
	service "github.com/okian/diamond/internal/app"
	"github.com/okian/diamond/internal/domain/dedupe"
	"github.com/okian/diamond/internal/domain/fatigue"
	"github.com/okian/diamond/internal/domain/game"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
	"github.com/okian/diamond/internal/league"
	"github.com/okian/diamond/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newLeague(teams, days int) model.League {
	lg, err := league.Generate(league.WithTeams(teams), league.WithDays(days), league.WithPitchers(5))
	if err != nil {
		panic(err)
	}
	return lg
}

// startService seeds a MemStore with lg and starts a service on it.
func startService(ctx context.Context, lg model.League, opts ...service.Option) (*service.Service, *repository.MemStore) {
	store := repository.NewMemStore()
	So(store.Seed(ctx, lg), ShouldBeNil)
	base := []service.Option{service.WithStore(store), service.WithMaxConcurrency(4), service.WithSeed(7)}
	svc := service.New(append(base, opts...)...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc, store
}

var engine = game.NewEngine()

// failOn fails the listed games with an invariant violation.
func failOn(ids ...int64) worker.SimulatorFunc {
	bad := map[int64]bool{}
	for _, id := range ids {
		bad[id] = true
	}
	return func(pkg model.GamePackage, src random.Source) (model.GameResult, error) {
		if bad[pkg.IDGame] {
			return model.GameResult{}, &game.SimulationError{IDGame: pkg.IDGame, Invariant: game.InvariantOutsRange}
		}
		return engine.Simulate(pkg, src)
	}
}

// recoveryMerger marks every recovered player so tests can see who rested.
type recoveryMerger struct {
	fatigue.Merger
	days atomic.Int64
}

func (m *recoveryMerger) Recover(c model.Condition, days int) model.Condition {
	m.days.Store(int64(days))
	c.Fatigue = 77
	return c
}

// flakyStore fails every commit while broken is set.
type flakyStore struct {
	*repository.MemStore
	broken atomic.Bool
}

func (s *flakyStore) CommitGame(ctx context.Context, idGame int64, box model.BoxScore, conds map[int64]model.Condition) error {
	if s.broken.Load() {
		return errors.New("disk full")
	}
	return s.MemStore.CommitGame(ctx, idGame, box, conds)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it refuses batches until started", func() {
			So(svc, ShouldNotBeNil)
			_, err := svc.RunBatch(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithMaxConcurrency(2), service.WithQueueSize(8))
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When stopping it twice", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then batches are refused again", func() {
				_, err := svc.RunBatch(ctx)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_RunBatch(t *testing.T) {
	Convey("Given a service over a three day season", t, func() {
		ctx := context.Background()
		lg := newLeague(4, 3)
		start := lg.Universe.CurrentDateTime
		merger := fatigue.NewMerger(fatigue.WithRecoveryPerDay(0))
		svc, store := startService(ctx, lg, service.WithMerger(merger))
		defer svc.Stop()

		Convey("When running the first batch", func() {
			report, err := svc.RunBatch(ctx)
			So(err, ShouldBeNil)

			Convey("Then both games of the day are committed", func() {
				So(report.RunID, ShouldNotBeBlank)
				So(report.Date, ShouldEqual, start)
				So(report.Due, ShouldEqual, 2)
				So(report.Simulated, ShouldEqual, 2)
				So(report.Failed, ShouldEqual, 0)
				So(report.Failures, ShouldBeEmpty)
				So(report.Pending, ShouldEqual, 4)

				for _, g := range lg.Games[:2] {
					box, err := svc.BoxScore(ctx, g.IDGame)
					So(err, ShouldBeNil)
					So(box.IDGame, ShouldEqual, g.IDGame)
					So(box.Home.IDTeam, ShouldEqual, g.IDTeamHome)
				}
			})

			Convey("Then the clock moves to the next game day", func() {
				So(report.Advanced, ShouldBeTrue)
				So(report.NextDate, ShouldEqual, start.AddDate(0, 0, 1))
				u, err := svc.Universe(ctx)
				So(err, ShouldBeNil)
				So(u.CurrentDateTime, ShouldEqual, report.NextDate)
			})

			Convey("Then the home starter carries fatigue", func() {
				g := lg.Games[0]
				var starter int64
				for _, team := range lg.Teams {
					if team.IDTeam == g.IDTeamHome {
						starter = team.Pitchers[0].IDPerson
					}
				}
				conds, err := store.Conditions(ctx, []int64{starter})
				So(err, ShouldBeNil)
				So(conds[starter].Fatigue, ShouldBeGreaterThan, 0.0)
			})

			Convey("Then the standings and stats count the games", func() {
				standings, err := svc.Standings(ctx)
				So(err, ShouldBeNil)
				played := 0
				for _, st := range standings {
					played += st.Wins + st.Losses + st.Ties
				}
				So(played, ShouldEqual, 4)

				first, err := svc.Standing(ctx, standings[0].IDTeam)
				So(err, ShouldBeNil)
				So(first, ShouldResemble, standings[0])
				_, err = svc.Standing(ctx, 999)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.Batches, ShouldEqual, 1)
				So(stats.GamesSimulated, ShouldEqual, 2)
				So(stats.Resolved, ShouldEqual, 2)
				So(stats.Pending, ShouldEqual, 4)
				So(stats.Teams, ShouldEqual, 4)
				So(stats.LastRunID, ShouldEqual, report.RunID)
				So(stats.CurrentDate, ShouldEqual, report.NextDate)
			})
		})

		Convey("When running past the end of the schedule", func() {
			var reports []int
			for i := 0; i < 4; i++ {
				report, err := svc.RunBatch(ctx)
				So(err, ShouldBeNil)
				So(report.Advanced, ShouldBeTrue)
				reports = append(reports, report.Simulated)
			}

			Convey("Then every game is resolved and empty days still advance", func() {
				So(reports, ShouldResemble, []int{2, 2, 2, 0})
				So(store.Count(ctx), ShouldEqual, 0)
				u, _ := svc.Universe(ctx)
				So(u.CurrentDateTime, ShouldEqual, start.AddDate(0, 0, 4))
			})
		})
	})

	Convey("Given five games due and three of them failing", t, func() {
		ctx := context.Background()
		lg := newLeague(10, 2)
		start := lg.Universe.CurrentDateTime
		var healed atomic.Bool
		broken := failOn(1, 3, 5)
		sim := worker.SimulatorFunc(func(pkg model.GamePackage, src random.Source) (model.GameResult, error) {
			if healed.Load() {
				return engine.Simulate(pkg, src)
			}
			return broken(pkg, src)
		})
		svc, store := startService(ctx, lg, service.WithSimulator(sim))
		defer svc.Stop()

		report, err := svc.RunBatch(ctx)
		So(err, ShouldBeNil)

		Convey("Then the two good games are committed", func() {
			So(report.Due, ShouldEqual, 5)
			So(report.Simulated, ShouldEqual, 2)
			So(report.Failed, ShouldEqual, 3)
			So(report.Complete(), ShouldBeFalse)
			_, err := store.BoxScore(ctx, 2)
			So(err, ShouldBeNil)
			_, err = store.BoxScore(ctx, 4)
			So(err, ShouldBeNil)
			_, err = store.BoxScore(ctx, 1)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then each failure names its game and invariant", func() {
			So(len(report.Failures), ShouldEqual, 3)
			for i, id := range []int64{1, 3, 5} {
				So(report.Failures[i].IDGame, ShouldEqual, id)
				So(report.Failures[i].Invariant, ShouldEqual, game.InvariantOutsRange)
				So(report.Failures[i].Error, ShouldNotBeBlank)
			}
		})

		Convey("Then the clock stays put", func() {
			So(report.Advanced, ShouldBeFalse)
			So(report.NextDate, ShouldEqual, start)
			u, _ := svc.Universe(ctx)
			So(u.CurrentDateTime, ShouldEqual, start)
		})

		Convey("When the batch is retried after the fault clears", func() {
			healed.Store(true)
			retry, err := svc.RunBatch(ctx)
			So(err, ShouldBeNil)

			Convey("Then only the failed games run and the clock advances", func() {
				So(retry.Due, ShouldEqual, 3)
				So(retry.Simulated, ShouldEqual, 3)
				So(retry.Advanced, ShouldBeTrue)
				So(retry.NextDate, ShouldEqual, start.AddDate(0, 0, 1))
			})
		})
	})

	Convey("Given a simulator that panics on one game", t, func() {
		ctx := context.Background()
		lg := newLeague(4, 1)
		sim := worker.SimulatorFunc(func(pkg model.GamePackage, src random.Source) (model.GameResult, error) {
			if pkg.IDGame == 2 {
				var lineup []model.Player
				_ = lineup[3]
			}
			return engine.Simulate(pkg, src)
		})
		svc, _ := startService(ctx, lg, service.WithSimulator(sim))
		defer svc.Stop()

		report, err := svc.RunBatch(ctx)

		Convey("Then the fault fails only that game", func() {
			So(err, ShouldBeNil)
			So(report.Simulated, ShouldEqual, 1)
			So(report.Failed, ShouldEqual, 1)
			So(report.Failures[0].IDGame, ShouldEqual, 2)
			So(report.Failures[0].Invariant, ShouldBeBlank)
			So(report.Failures[0].Error, ShouldContainSubstring, "worker fault")
			So(report.Advanced, ShouldBeFalse)
		})
	})

	Convey("Given a store that cannot commit", t, func() {
		ctx := context.Background()
		lg := newLeague(4, 2)
		start := lg.Universe.CurrentDateTime
		store := &flakyStore{MemStore: repository.NewMemStore()}
		So(store.Seed(ctx, lg), ShouldBeNil)
		store.broken.Store(true)
		svc := service.New(
			service.WithStore(store),
			service.WithMerger(fatigue.NewMerger(fatigue.WithRecoveryPerDay(0))),
			service.WithSeed(7),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		report, err := svc.RunBatch(ctx)
		So(err, ShouldBeNil)

		Convey("Then no box score or condition is left behind", func() {
			So(report.Simulated, ShouldEqual, 0)
			So(report.Failed, ShouldEqual, 2)
			So(report.Failures[0].Error, ShouldContainSubstring, "disk full")
			So(store.Count(ctx), ShouldEqual, 4)
			conds, err := store.Conditions(ctx, nil)
			So(err, ShouldBeNil)
			for _, c := range conds {
				So(c, ShouldResemble, model.Condition{})
			}
			u, _ := svc.Universe(ctx)
			So(u.CurrentDateTime, ShouldEqual, start)
		})

		Convey("When the store recovers", func() {
			store.broken.Store(false)
			retry, err := svc.RunBatch(ctx)
			So(err, ShouldBeNil)

			Convey("Then the games commit with their fatigue", func() {
				So(retry.Simulated, ShouldEqual, 2)
				So(retry.Advanced, ShouldBeTrue)
				tired := 0
				conds, err := store.Conditions(ctx, nil)
				So(err, ShouldBeNil)
				for _, c := range conds {
					if c.Fatigue > 0 {
						tired++
					}
				}
				So(tired, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given two due games sharing a team", t, func() {
		ctx := context.Background()
		lg := newLeague(4, 2)
		lg.Games[1].IDTeamAway = lg.Games[0].IDTeamHome
		svc, store := startService(ctx, lg)
		defer svc.Stop()

		_, err := svc.RunBatch(ctx)

		Convey("Then the batch is rejected before anything runs", func() {
			So(errors.Is(err, service.ErrRosterConflict), ShouldBeTrue)
			So(store.Count(ctx), ShouldEqual, 4)
			u, _ := svc.Universe(ctx)
			So(u.CurrentDateTime, ShouldEqual, lg.Universe.CurrentDateTime)
		})
	})

	Convey("Given a game resolved by someone else mid-batch", t, func() {
		ctx := context.Background()
		lg := newLeague(4, 2)
		store := repository.NewMemStore()
		So(store.Seed(ctx, lg), ShouldBeNil)
		sim := worker.SimulatorFunc(func(pkg model.GamePackage, src random.Source) (model.GameResult, error) {
			if pkg.IDGame == 1 {
				_ = store.SaveBoxScore(context.Background(), 1, model.BoxScore{IDGame: 1})
			}
			return engine.Simulate(pkg, src)
		})
		svc := service.New(service.WithStore(store), service.WithSimulator(sim), service.WithMaxConcurrency(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		report, err := svc.RunBatch(ctx)

		Convey("Then it is skipped and the first write stands", func() {
			So(err, ShouldBeNil)
			So(report.Skipped, ShouldEqual, 1)
			So(report.Simulated, ShouldEqual, 1)
			So(report.Advanced, ShouldBeTrue)
			box, _ := store.BoxScore(ctx, 1)
			So(box.Home.IDTeam, ShouldEqual, 0)
		})
	})

	Convey("Given a game another scheduler has claimed", t, func() {
		ctx := context.Background()
		lg := newLeague(4, 2)
		claims := dedupe.NewInMemoryDeduper[int64]()
		claims.SeenAndRecord(ctx, 2)
		svc, store := startService(ctx, lg, service.WithDeduper(claims))
		defer svc.Stop()

		report, err := svc.RunBatch(ctx)

		Convey("Then it is skipped and the clock waits for it", func() {
			So(err, ShouldBeNil)
			So(report.Skipped, ShouldEqual, 1)
			So(report.Simulated, ShouldEqual, 1)
			So(report.Advanced, ShouldBeFalse)
			_, err := store.BoxScore(ctx, 2)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then the claims taken by the batch are released", func() {
			So(claims.Size(), ShouldEqual, 1)
		})
	})

	Convey("Given a merger that marks rest days", t, func() {
		ctx := context.Background()
		lg := newLeague(4, 2)
		lg.Games[2].DateTime = lg.Games[2].DateTime.AddDate(0, 0, 2)
		lg.Games[3].DateTime = lg.Games[3].DateTime.AddDate(0, 0, 2)
		merger := &recoveryMerger{Merger: fatigue.NewMerger()}
		svc, store := startService(ctx, lg, service.WithMerger(merger))
		defer svc.Stop()

		report, err := svc.RunBatch(ctx)
		So(err, ShouldBeNil)

		Convey("Then every player recovers for each day skipped", func() {
			So(report.NextDate, ShouldEqual, lg.Universe.CurrentDateTime.AddDate(0, 0, 3))
			So(merger.days.Load(), ShouldEqual, 3)
			conds, err := store.Conditions(ctx, nil)
			So(err, ShouldBeNil)
			for _, c := range conds {
				So(c.Fatigue, ShouldEqual, 77.0)
			}
		})
	})
}

func TestService_Cancellation(t *testing.T) {
	Convey("Given a batch whose games never finish on their own", t, func() {
		lg := newLeague(4, 2)
		release := make(chan struct{})
		entered := make(chan struct{}, 8)
		var (
			mu        sync.Mutex
			active    = map[int64]int{}
			maxActive int
		)
		sim := worker.SimulatorFunc(func(pkg model.GamePackage, src random.Source) (model.GameResult, error) {
			mu.Lock()
			active[pkg.IDGame]++
			maxActive = max(maxActive, active[pkg.IDGame])
			mu.Unlock()
			defer func() {
				mu.Lock()
				active[pkg.IDGame]--
				mu.Unlock()
			}()
			entered <- struct{}{}
			<-release
			return engine.Simulate(pkg, src)
		})
		svc, store := startService(context.Background(), lg, service.WithSimulator(sim))
		defer svc.Stop()
		var once sync.Once
		defer once.Do(func() { close(release) })

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := svc.RunBatch(ctx)
			done <- err
		}()
		<-entered

		Convey("When another batch is requested meanwhile", func() {
			_, err := svc.RunBatch(context.Background())

			Convey("Then it is refused", func() {
				So(errors.Is(err, service.ErrBatchInProgress), ShouldBeTrue)
			})
			cancel()
			<-done
		})

		Convey("When the caller cancels before the join", func() {
			cancel()
			var err error
			select {
			case err = <-done:
			case <-time.After(2 * time.Second):
				err = errors.New("timed out")
			}
			once.Do(func() { close(release) })

			Convey("Then nothing is committed", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(store.Count(context.Background()), ShouldEqual, 4)
				u, _ := svc.Universe(context.Background())
				So(u.CurrentDateTime, ShouldEqual, lg.Universe.CurrentDateTime)
			})
		})

		Convey("When the caller cancels and a new batch follows at once", func() {
			<-entered
			cancel()
			So(errors.Is(<-done, context.Canceled), ShouldBeTrue)

			next, err := svc.RunBatch(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the games still on a worker stay claimed", func() {
				So(next.Skipped, ShouldEqual, 2)
				So(next.Simulated, ShouldEqual, 0)
				So(next.Advanced, ShouldBeFalse)
			})

			Convey("Then they run again only after the workers answer", func() {
				once.Do(func() { close(release) })
				deadline := time.Now().Add(2 * time.Second)
				for store.Count(context.Background()) > 2 && time.Now().Before(deadline) {
					_, err := svc.RunBatch(context.Background())
					So(err, ShouldBeNil)
					time.Sleep(10 * time.Millisecond)
				}
				So(store.Count(context.Background()), ShouldEqual, 2)
				mu.Lock()
				defer mu.Unlock()
				So(maxActive, ShouldEqual, 1)
			})
		})
	})
}

func TestService_Determinism(t *testing.T) {
	Convey("Given two services with the same seed over the same league", t, func() {
		ctx := context.Background()
		a, _ := startService(ctx, newLeague(4, 1))
		defer a.Stop()
		b, _ := startService(ctx, newLeague(4, 1), service.WithMaxConcurrency(1))
		defer b.Stop()

		_, err := a.RunBatch(ctx)
		So(err, ShouldBeNil)
		_, err = b.RunBatch(ctx)
		So(err, ShouldBeNil)

		Convey("Then worker count does not change any box score", func() {
			for _, id := range []int64{1, 2} {
				boxA, err := a.BoxScore(ctx, id)
				So(err, ShouldBeNil)
				boxB, err := b.BoxScore(ctx, id)
				So(err, ShouldBeNil)
				So(boxA, ShouldResemble, boxB)
			}
		})
	})
}

func TestService_AutoAdvance(t *testing.T) {
	Convey("Given a service that advances on a timer", t, func() {
		ctx := context.Background()
		lg := newLeague(4, 3)
		svc, store := startService(ctx, lg, service.WithAutoAdvance(10*time.Millisecond))

		deadline := time.Now().Add(5 * time.Second)
		for store.Count(ctx) > 0 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		svc.Stop()

		Convey("Then the season plays out without manual batches", func() {
			So(store.Count(ctx), ShouldEqual, 0)
			stats, err := svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(stats.GamesSimulated, ShouldEqual, 6)
		})
	})
}
