// main.go
//
// Entry point for the bowlards server and tools.
// Commands:
//   - serve (default): run the HTTP API.
//   - migrate: apply embedded schema migrations and exit.
//   - purge: delete saved games past their retention period.
//   - score: print a scoresheet for a sequence of pin counts.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/robalobadob/bowlards/internal/auth"
	"github.com/robalobadob/bowlards/internal/config"
	"github.com/robalobadob/bowlards/internal/game"
	"github.com/robalobadob/bowlards/internal/httpserver"
	"github.com/robalobadob/bowlards/internal/store"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("bowlards exited")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bowlards",
		Usage: "ten-pin bowling score keeping",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to an optional YAML config file",
				EnvVars: []string{"BOWLARDS_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP API", Action: serve},
			{Name: "migrate", Usage: "apply database migrations", Action: migrate},
			{Name: "purge", Usage: "delete games past their retention period", Action: purge},
			{
				Name:      "score",
				Usage:     "print the scoresheet for a sequence of rolls",
				ArgsUsage: "<pins>...",
				Action: func(c *cli.Context) error {
					return scoreRolls(c.App.Writer, c.Args().Slice())
				},
			},
		},
	}
}

// loadConfig reads config and sets up the global logger.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	saved, err := store.OpenSQLite(cfg.DatabasePath, cfg.GameRetention)
	if err != nil {
		return err
	}
	defer saved.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := httpserver.New(httpserver.Deps{
		Config:   cfg,
		Sessions: store.NewMemoryStore(),
		Saved:    saved,
		Users:    auth.NewDirectory(saved.DB(), cfg.JWTSecret, cfg.TokenTTL()),
		Registry: reg,
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go purgeLoop(ctx, saved, srv, 10*time.Minute)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("db", cfg.DatabasePath).Msg("starting bowlards")
	return srv.Start(":" + cfg.Port)
}

// purgeLoop deletes expired games and sweeps idle server state every
// interval until ctx is done.
func purgeLoop(ctx context.Context, s *store.SQLite, srv *httpserver.Server, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n, err := s.PurgeExpired(ctx, now); err != nil {
				log.Warn().Err(err).Msg("purge expired games")
			} else if n > 0 {
				log.Info().Int64("deleted", n).Msg("purged expired games")
			}
			srv.Sweep(now)
		}
	}
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := store.OpenSQLite(cfg.DatabasePath, cfg.GameRetention)
	if err != nil {
		return err
	}
	log.Info().Str("db", cfg.DatabasePath).Msg("migrations applied")
	return s.Close()
}

func purge(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := store.OpenSQLite(cfg.DatabasePath, cfg.GameRetention)
	if err != nil {
		return err
	}
	defer s.Close()
	n, err := s.PurgeExpired(c.Context, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %d expired games\n", n)
	return nil
}

// scoreRolls replays args as pin counts and writes the scoresheet to w.
func scoreRolls(w io.Writer, args []string) error {
	if len(args) == 0 {
		return cli.Exit("score: at least one roll is required", 1)
	}
	pins := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return cli.Exit(fmt.Sprintf("score: %q is not a pin count", a), 1)
		}
		pins[i] = n
	}
	g, err := game.Replay("", pins...)
	if err != nil {
		return cli.Exit("score: "+err.Error(), 1)
	}
	writeScoresheet(w, g)
	return nil
}

// writeScoresheet prints one row of marks and one row of cumulative scores.
func writeScoresheet(w io.Writer, g game.Game) {
	var marks, scores strings.Builder
	for _, f := range g.Frames {
		fmt.Fprintf(&marks, "|%-5s", f.Marks())
		score := ""
		if f.Score != nil {
			score = strconv.Itoa(*f.Score)
		}
		fmt.Fprintf(&scores, "|%5s", score)
	}
	fmt.Fprintln(w, marks.String()+"|")
	fmt.Fprintln(w, scores.String()+"|")
	if g.TotalScore != nil {
		fmt.Fprintf(w, "total: %d\n", *g.TotalScore)
	}
}
