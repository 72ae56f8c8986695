// Package sqlite persists the universe in a single SQLite file.
//
// Rosters and parks are stored as JSON documents, box scores as JSON blobs
// on the game row. A box score is written with
// UPDATE ... WHERE box_score IS NULL so a second write never lands.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/diamond/internal/adapters/repository"
	"github.com/okian/diamond/internal/adapters/repository/sqlite/migrations"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/pkg/metrics"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed universe persistence.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ repository.Store  = (*Store)(nil)
	_ repository.Seeder = (*Store)(nil)
)

// Open opens a store at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer keeps the write-once update serial
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func encodeTime(t time.Time) int64 { return t.UTC().UnixNano() }

func decodeTime(n int64) time.Time { return time.Unix(0, n).UTC() }

// Seed replaces the store's contents with league.
func (s *Store) Seed(ctx context.Context, league model.League) error {
	if err := repository.ValidateLeague(league); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"games", "players", "teams", "parks", "universe"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO universe (id, current_date_time) VALUES (1, ?)",
		encodeTime(league.Universe.CurrentDateTime),
	); err != nil {
		return fmt.Errorf("insert universe: %w", err)
	}
	for _, p := range league.Parks {
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode park %d: %w", p.IDPark, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO parks (id_park, doc) VALUES (?, ?)", p.IDPark, string(doc)); err != nil {
			return fmt.Errorf("insert park %d: %w", p.IDPark, err)
		}
	}
	for _, t := range league.Teams {
		doc, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode team %d: %w", t.IDTeam, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO teams (id_team, name, doc) VALUES (?, ?, ?)", t.IDTeam, t.Name, string(doc)); err != nil {
			return fmt.Errorf("insert team %d: %w", t.IDTeam, err)
		}
		for _, group := range [][]model.Player{t.Lineup, t.Pitchers} {
			for _, p := range group {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO players (id_person, id_team, fatigue, injury_days) VALUES (?, ?, ?, ?)",
					p.IDPerson, t.IDTeam, p.Condition.Fatigue, p.Condition.InjuryDays,
				); err != nil {
					return fmt.Errorf("insert player %d: %w", p.IDPerson, err)
				}
			}
		}
	}
	for _, g := range league.Games {
		umpires, err := json.Marshal(g.Umpires)
		if err != nil {
			return fmt.Errorf("encode umpires for game %d: %w", g.IDGame, err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO games (id_game, id_game_group, id_team_home, id_team_away, id_park, date_time, umpires)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
			g.IDGame, g.IDGameGroup, g.IDTeamHome, g.IDTeamAway, g.IDPark, encodeTime(g.DateTime), string(umpires),
		); err != nil {
			return fmt.Errorf("insert game %d: %w", g.IDGame, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func (s *Store) Universe(ctx context.Context) (model.Universe, error) {
	var n int64
	err := s.sqlDB.QueryRowContext(ctx, "SELECT current_date_time FROM universe WHERE id = 1").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Universe{}, nil
	}
	if err != nil {
		return model.Universe{}, fmt.Errorf("read universe: %w", err)
	}
	return model.Universe{CurrentDateTime: decodeTime(n)}, nil
}

func (s *Store) DueGames(ctx context.Context, at time.Time) ([]model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id_game, id_game_group, id_team_home, id_team_away, id_park, date_time, umpires
FROM games
WHERE box_score IS NULL AND date_time = ?
ORDER BY id_game
`, encodeTime(at))
	if err != nil {
		return nil, fmt.Errorf("query due games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var (
			g       model.Game
			when    int64
			umpires string
		)
		if err := rows.Scan(&g.IDGame, &g.IDGameGroup, &g.IDTeamHome, &g.IDTeamAway, &g.IDPark, &when, &umpires); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.DateTime = decodeTime(when)
		if err := json.Unmarshal([]byte(umpires), &g.Umpires); err != nil {
			return nil, fmt.Errorf("decode umpires for game %d: %w", g.IDGame, err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due games: %w", err)
	}
	return games, nil
}

func (s *Store) GamePackage(ctx context.Context, game model.Game) (model.GamePackage, error) {
	var park model.Park
	if err := s.loadDoc(ctx, "SELECT doc FROM parks WHERE id_park = ?", game.IDPark, &park); err != nil {
		return model.GamePackage{}, fmt.Errorf("park %d: %w", game.IDPark, err)
	}
	var home, away model.Team
	if err := s.loadDoc(ctx, "SELECT doc FROM teams WHERE id_team = ?", game.IDTeamHome, &home); err != nil {
		return model.GamePackage{}, fmt.Errorf("team %d: %w", game.IDTeamHome, err)
	}
	if err := s.loadDoc(ctx, "SELECT doc FROM teams WHERE id_team = ?", game.IDTeamAway, &away); err != nil {
		return model.GamePackage{}, fmt.Errorf("team %d: %w", game.IDTeamAway, err)
	}
	conds, err := s.Conditions(ctx, append(home.PlayerIDs(), away.PlayerIDs()...))
	if err != nil {
		return model.GamePackage{}, err
	}
	return repository.Assemble(game, park, home, away, conds), nil
}

func (s *Store) loadDoc(ctx context.Context, query string, id int64, dst any) error {
	var doc string
	err := s.sqlDB.QueryRowContext(ctx, query, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(doc), dst)
}

func (s *Store) SaveBoxScore(ctx context.Context, idGame int64, box model.BoxScore) error {
	return s.CommitGame(ctx, idGame, box, nil)
}

// CommitGame runs the box score write and the condition updates in one
// transaction. Unknown players are ignored as in SaveConditions.
func (s *Store) CommitGame(ctx context.Context, idGame int64, box model.BoxScore, conds map[int64]model.Condition) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	doc, err := json.Marshal(box)
	if err != nil {
		return fmt.Errorf("encode box score for game %d: %w", idGame, err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit game %d: %w", idGame, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE games SET box_score = ? WHERE id_game = ? AND box_score IS NULL",
		string(doc), idGame,
	)
	if err != nil {
		return fmt.Errorf("save box score for game %d: %w", idGame, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save box score for game %d: %w", idGame, err)
	}
	if n != 1 {
		var found int
		err = tx.QueryRowContext(ctx, "SELECT 1 FROM games WHERE id_game = ?", idGame).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("game %d: %w", idGame, repository.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check game %d: %w", idGame, err)
		}
		return fmt.Errorf("game %d: %w", idGame, repository.ErrAlreadyResolved)
	}

	if err := updateConditions(ctx, tx, conds); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit game %d: %w", idGame, err)
	}
	return nil
}

func (s *Store) BoxScore(ctx context.Context, idGame int64) (model.BoxScore, error) {
	var doc sql.NullString
	err := s.sqlDB.QueryRowContext(ctx, "SELECT box_score FROM games WHERE id_game = ?", idGame).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !doc.Valid) {
		return model.BoxScore{}, fmt.Errorf("game %d: %w", idGame, repository.ErrNotFound)
	}
	if err != nil {
		return model.BoxScore{}, fmt.Errorf("read box score for game %d: %w", idGame, err)
	}
	var box model.BoxScore
	if err := json.Unmarshal([]byte(doc.String), &box); err != nil {
		return model.BoxScore{}, fmt.Errorf("decode box score for game %d: %w", idGame, err)
	}
	return box, nil
}

func (s *Store) Conditions(ctx context.Context, ids []int64) (map[int64]model.Condition, error) {
	query := "SELECT id_person, fatigue, injury_days FROM players"
	args := make([]any, 0, len(ids))
	if ids != nil {
		if len(ids) == 0 {
			return map[int64]model.Condition{}, nil
		}
		query += " WHERE id_person IN (?" + strings.Repeat(", ?", len(ids)-1) + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conditions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]model.Condition, len(ids))
	for _, id := range ids {
		out[id] = model.Condition{}
	}
	for rows.Next() {
		var (
			id int64
			c  model.Condition
		)
		if err := rows.Scan(&id, &c.Fatigue, &c.InjuryDays); err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		out[id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conditions: %w", err)
	}
	return out, nil
}

// SaveConditions ignores players the store does not know.
func (s *Store) SaveConditions(ctx context.Context, conds map[int64]model.Condition) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save conditions: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateConditions(ctx, tx, conds); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save conditions: %w", err)
	}
	return nil
}

func updateConditions(ctx context.Context, tx *sql.Tx, conds map[int64]model.Condition) error {
	if len(conds) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, "UPDATE players SET fatigue = ?, injury_days = ? WHERE id_person = ?")
	if err != nil {
		return fmt.Errorf("prepare save conditions: %w", err)
	}
	defer stmt.Close()

	for id, c := range conds {
		if _, err := stmt.ExecContext(ctx, c.Fatigue, c.InjuryDays, id); err != nil {
			return fmt.Errorf("save condition for player %d: %w", id, err)
		}
	}
	return nil
}

func (s *Store) NextGameDate(ctx context.Context, after time.Time) (time.Time, bool, error) {
	var next sql.NullInt64
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT MIN(date_time) FROM games WHERE box_score IS NULL AND date_time > ?",
		encodeTime(after),
	).Scan(&next)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query next game date: %w", err)
	}
	if !next.Valid {
		return time.Time{}, false, nil
	}
	return decodeTime(next.Int64), true, nil
}

func (s *Store) AdvanceUniverse(ctx context.Context, to time.Time) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin advance: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	err = tx.QueryRowContext(ctx, "SELECT current_date_time FROM universe WHERE id = 1").Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, "INSERT INTO universe (id, current_date_time) VALUES (1, ?)", encodeTime(to))
	case err != nil:
	case encodeTime(to) < current:
		return fmt.Errorf("%w: %s before %s", repository.ErrClockBackwards, to, decodeTime(current))
	default:
		_, err = tx.ExecContext(ctx, "UPDATE universe SET current_date_time = ? WHERE id = 1", encodeTime(to))
	}
	if err != nil {
		return fmt.Errorf("advance universe: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit advance: %w", err)
	}
	return nil
}

func (s *Store) Standings(ctx context.Context) ([]model.Standing, error) {
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT id_team, name FROM teams ORDER BY id_team")
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	var teams []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.IDTeam, &t.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}

	rows, err = s.sqlDB.QueryContext(ctx, "SELECT box_score FROM games WHERE box_score IS NOT NULL ORDER BY id_game")
	if err != nil {
		return nil, fmt.Errorf("query box scores: %w", err)
	}
	defer rows.Close()
	var boxes []model.BoxScore
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan box score: %w", err)
		}
		var b model.BoxScore
		if err := json.Unmarshal([]byte(doc), &b); err != nil {
			return nil, fmt.Errorf("decode box score: %w", err)
		}
		boxes = append(boxes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate box scores: %w", err)
	}
	return repository.ComputeStandings(teams, boxes), nil
}

func (s *Store) Summary(ctx context.Context) (repository.Summary, error) {
	var sum repository.Summary
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM games),
	(SELECT COUNT(*) FROM games WHERE box_score IS NOT NULL),
	(SELECT COUNT(*) FROM teams),
	(SELECT COUNT(*) FROM players)
`).Scan(&sum.Games, &sum.Resolved, &sum.Teams, &sum.Players)
	if err != nil {
		return repository.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	sum.Pending = sum.Games - sum.Resolved
	return sum, nil
}

// Count returns zero when the database cannot be read.
func (s *Store) Count(ctx context.Context) int {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM games WHERE box_score IS NULL").Scan(&n); err != nil {
		return 0
	}
	return n
}
