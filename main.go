package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sedipro/sufragio/admin"
	"github.com/sedipro/sufragio/cliparse"
	"github.com/sedipro/sufragio/db"
	"github.com/sedipro/sufragio/importer"
	"github.com/sedipro/sufragio/metrics"
	"github.com/sedipro/sufragio/middleware"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/ratelimit"
	"github.com/sedipro/sufragio/router"
	"github.com/sedipro/sufragio/store"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "sufragio",
		Usage: "backend de elecciones internas por áreas y presidencia",
		Commands: []*cli.Command{
			{
				Name:            "serve",
				Usage:           "run the voting API server",
				SkipFlagParsing: true,
				Action:          serve,
			},
			{
				Name:            "seed",
				Usage:           "create the election config, sample candidates and voters",
				SkipFlagParsing: true,
				Action:          seed,
			},
			{
				Name:            "import",
				Usage:           "import the voter registry from an Excel or CSV file",
				ArgsUsage:       "[flags] FILE",
				SkipFlagParsing: true,
				Action:          importVoters,
			},
			{
				Name:            "results",
				Usage:           "print the current results of every position",
				SkipFlagParsing: true,
				Action:          results,
			},
		},
		// Bare invocation serves with the environment configuration
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("sufragio exited", "error", err)
		os.Exit(1)
	}
}

// connect parses args as configuration flags and opens the store with its
// schema in place.
func connect(ctx context.Context, args []string) (cliparse.Config, *sql.DB, error) {
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		return cfg, nil, fmt.Errorf("error parsing flags: %w", err)
	}

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL, cfg.GetConnectTimeout())
	if err != nil {
		return cfg, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := db.CreateSchema(ctx, conn); err != nil {
		conn.Close()
		return cfg, nil, fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("database schema ready", "type", cfg.DatabaseType)

	return cfg, conn, nil
}

func serve(c *cli.Context) error {
	cfg, conn, err := connect(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	server := http.Server{
		Handler:           middleware.CORS(router.NewRouter(conn, cfg, m)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitor := &ratelimit.Janitor{
		Store:    store.New(conn),
		Interval: cfg.GetJanitorInterval(),
		Logger:   slog.Default(),
	}
	go janitor.Run(ctx)

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdown)
	}()

	slog.Info("listening", "port", cfg.Port)
	err = server.ListenAndServe()
	slog.Info("server closed", "submissions", m.String())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func importVoters(c *cli.Context) error {
	// The file is the last argument, flags come before it
	args := c.Args().Slice()
	if len(args) == 0 || strings.HasPrefix(args[len(args)-1], "-") {
		return cli.Exit("specify the Excel or CSV file to import", 2)
	}
	path := args[len(args)-1]

	cfg, conn, err := connect(c.Context, args[:len(args)-1])
	if err != nil {
		return err
	}
	defer conn.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Context, cfg.GetQueryTimeout())
	defer cancel()

	svc := &admin.Service{Store: store.New(conn), Logger: slog.Default()}
	voters, err := svc.ImportVoters(ctx, f)
	if err != nil {
		return err
	}

	fmt.Printf("%s voters imported: %s\n", humanize.Comma(int64(len(voters))), importer.Summary(voters))
	return nil
}

func results(c *cli.Context) error {
	cfg, conn, err := connect(c.Context, c.Args().Slice())
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(c.Context, cfg.GetQueryTimeout())
	defer cancel()

	svc := &admin.Service{Store: store.New(conn), Logger: slog.Default()}
	res, err := svc.Results(ctx)
	if err != nil {
		return err
	}

	p := res.Participation
	fmt.Printf("Padrón: %s registrados, %s habilitados\n", humanize.Comma(int64(p.TotalRegistered)), humanize.Comma(int64(p.Enabled)))
	fmt.Printf("Votaron: %s en áreas, %s en presidencia\n\n", humanize.Comma(int64(p.VotedAreas)), humanize.Comma(int64(p.VotedPresidency)))

	for _, pos := range models.AllPositions {
		pr := res.Positions[pos]
		names := make(map[string]string, len(pr.Candidates))
		for _, cand := range pr.Candidates {
			names[cand.ID] = cand.Name
		}

		fmt.Printf("%s (%s)\n", pr.Label, pos)
		printRound("1ra vuelta", pr.Round1.Total, pr.Round1.Valid, pr.Round1.Blank, pr.Round1.Null, pr.Round1.IsVoid, pr.Round1.Winner, pr.Round1.NeedsRunoff, names)
		if pr.Round2 != nil {
			printRound("2da vuelta", pr.Round2.Total, pr.Round2.Valid, pr.Round2.Blank, pr.Round2.Null, pr.Round2.IsVoid, pr.Round2.Winner, false, names)
			if pr.Round2.TiebreakMessage != nil {
				fmt.Printf("  %s\n", *pr.Round2.TiebreakMessage)
			}
		}
		if pr.QuorumVoid != nil && *pr.QuorumVoid {
			fmt.Printf("  quórum no alcanzado: %d de %d (mínimo %d)\n",
				pr.QuorumDetail.VotesCast, pr.QuorumDetail.TotalRegistered, pr.QuorumDetail.Threshold)
		}
		fmt.Println()
	}
	return nil
}

func printRound(label string, total, valid, blank, null int, void bool, winner *string, runoff bool, names map[string]string) {
	fmt.Printf("  %s: %s votos (%s válidos, %s blancos, %s nulos)\n", label,
		humanize.Comma(int64(total)), humanize.Comma(int64(valid)), humanize.Comma(int64(blank)), humanize.Comma(int64(null)))

	switch {
	case total == 0:
		fmt.Println("    sin votos")
	case void:
		fmt.Println("    vuelta nula")
	case winner != nil:
		fmt.Printf("    ganador: %s\n", names[*winner])
	case runoff:
		fmt.Println("    requiere segunda vuelta")
	}
}
