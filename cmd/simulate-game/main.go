// Command simulate-game plays one game package and prints the result as
// JSON. The package comes from a YAML file or is assembled from a league
// file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/okian/diamond/internal/adapters/repository"
	"github.com/okian/diamond/internal/domain/game"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
	"github.com/okian/diamond/internal/league"
	"github.com/okian/diamond/pkg/logger"
	"gopkg.in/yaml.v3"
)

// errUsage is returned for missing or conflicting flags.
var errUsage = errors.New("usage")

func main() {
	if err := logger.InitWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Get().Error(context.Background(), "simulation failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("simulate-game", flag.ContinueOnError)
	var (
		in         = fs.String("in", "", "YAML game package to play (- for stdin)")
		leagueFile = fs.String("league", "", "YAML league to assemble the package from")
		idGame     = fs.Int64("game", 0, "Game id to assemble from -league")
		seed       = fs.Uint64("seed", 1, "Random seed of the game")
		innings    = fs.Int("innings", 0, "Regulation innings (0: engine default)")
		maxInnings = fs.Int("max-innings", game.DefaultMaxInnings, "Inning cap before a tie is declared")
		indent     = fs.Bool("indent", true, "Indent the JSON output")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		pkg model.GamePackage
		err error
	)
	switch {
	case *in != "" && *leagueFile != "":
		return fmt.Errorf("%w: -in and -league are exclusive", errUsage)
	case *in != "":
		pkg, err = readPackage(*in, stdin)
	case *leagueFile != "":
		pkg, err = assemblePackage(ctx, *leagueFile, *idGame)
	default:
		return fmt.Errorf("%w: one of -in or -league is required", errUsage)
	}
	if err != nil {
		return err
	}

	opts := []game.Option{game.WithMaxInnings(*maxInnings)}
	if *innings > 0 {
		opts = append(opts, game.WithInnings(*innings))
	}
	result, err := game.Simulate(pkg, random.NewSource(*seed), opts...)
	if err != nil {
		return err
	}

	logger.Get().Info(ctx, "game simulated",
		logger.GameID(result.IDGame),
		logger.Int("innings", result.BoxScore.Innings),
		logger.Int("homeRuns", result.BoxScore.Home.Runs),
		logger.Int("awayRuns", result.BoxScore.Away.Runs))

	enc := json.NewEncoder(stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func readPackage(path string, stdin io.Reader) (model.GamePackage, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return model.GamePackage{}, err
		}
		defer f.Close()
		r = f
	}
	var pkg model.GamePackage
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pkg); err != nil {
		return model.GamePackage{}, fmt.Errorf("decode game package: %w", err)
	}
	return pkg, nil
}

// assemblePackage loads a league into a scratch store and builds the
// package of one of its games the way the scheduler would.
func assemblePackage(ctx context.Context, path string, idGame int64) (model.GamePackage, error) {
	lg, err := league.LoadFile(path)
	if err != nil {
		return model.GamePackage{}, err
	}
	store := repository.NewMemStore()
	if err := store.Seed(ctx, lg); err != nil {
		return model.GamePackage{}, err
	}
	for _, g := range lg.Games {
		if g.IDGame == idGame {
			return store.GamePackage(ctx, g)
		}
	}
	return model.GamePackage{}, fmt.Errorf("game %d: %w", idGame, repository.ErrNotFound)
}
