package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"clubsite/internal/config"
	"clubsite/internal/models"
	"clubsite/internal/repository"
	"clubsite/internal/security"
	"clubsite/internal/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	app := &cli.App{
		Name:  "clubdata",
		Usage: "Manage the club's members, news and events from the command line.",
		Commands: []*cli.Command{
			exportCommand(),
			syncCommand(),
			publishCommand(),
			hashPasswordCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("clubdata: %v", err)
	}
}

// openClub loads the local collections from the configured store
func openClub(ctx context.Context, cfg *config.Config) (*service.ClubService, func() error, error) {
	store, closeStore, err := repository.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var fetcher service.CollectionFetcher
	if cfg.DataBaseURL != "" {
		fetcher = service.NewDataFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.DataBaseURL, cfg.Debug)
	}
	club := service.NewClubService(store, fetcher, service.NewMailtoNotifier(nil), cfg.Debug)
	if err := club.Initialize(ctx); err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to load local data: %w", err)
	}
	return club, closeStore, nil
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write one collection to a JSON file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Required: true, Usage: "members, news or events"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path (default: <collection>.json)"},
		},
		Action: func(c *cli.Context) error {
			name, err := models.ParseCollectionName(c.String("collection"))
			if err != nil {
				return err
			}
			output := c.String("output")
			if output == "" {
				output = name.FileName()
			}

			club, closeStore, err := openClub(c.Context, config.Load())
			if err != nil {
				return err
			}
			defer closeStore()

			switch name {
			case models.CollectionMembers:
				err = service.ExportToFile(output, club.Members())
			case models.CollectionNews:
				err = service.ExportToFile(output, club.News())
			case models.CollectionEvents:
				err = service.ExportToFile(output, club.Events())
			}
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Printf("Exported %s to %s\n", name, output)
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Replace local data with the published data files.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Confirm that unpublished local changes may be overwritten."},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return fmt.Errorf("sync overwrites unpublished local changes, re-run with --yes to confirm")
			}
			cfg := config.Load()
			club, closeStore, err := openClub(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(c.Context, cfg.HTTPTimeout)
			defer cancel()
			report, err := club.RefreshFromNetwork(ctx, service.RefreshManual)
			if err != nil {
				return err
			}
			for _, result := range report.Results {
				switch {
				case result.Err != nil:
					fmt.Printf("%-8s failed: %v\n", result.Collection, result.Err)
				case result.Updated:
					fmt.Printf("%-8s %d records\n", result.Collection, result.Count)
				default:
					fmt.Printf("%-8s unchanged\n", result.Collection)
				}
			}
			return nil
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Commit the local data files to the site repository.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Confirm the publish."},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return fmt.Errorf("publishing updates the public site, re-run with --yes to confirm")
			}
			cfg := config.Load()
			publisher := service.NewPublishService(cfg.Publish, service.NewRepositoryConnector(cfg.HTTPTimeout), cfg.Debug)
			if err := publisher.CheckConfig(); err != nil {
				return err
			}

			club, closeStore, err := openClub(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(c.Context, 2*cfg.HTTPTimeout)
			defer cancel()
			result, err := publisher.Publish(ctx, club.Snapshot())
			if err != nil {
				return err
			}
			fmt.Printf("%s (commit %s)\n", result.Message, result.CommitSHA)
			return nil
		},
	}
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print the bcrypt hash to use as ADMIN_PASSWORD_HASH.",
		ArgsUsage: "<password>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one password argument")
			}
			start := time.Now()
			hash, err := security.HashPassword(c.Args().First())
			if err != nil {
				return err
			}
			log.Printf("Hashed in %s", time.Since(start).Round(time.Millisecond))
			fmt.Println(hash)
			return nil
		},
	}
}
