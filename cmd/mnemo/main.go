package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/mnemohq/mnemo/internal/config"
	"github.com/mnemohq/mnemo/internal/fsrs"
	"github.com/mnemohq/mnemo/internal/storage"
	"github.com/mnemohq/mnemo/internal/syncer"
	"github.com/mnemohq/mnemo/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("mnemo", pflag.ExitOnError)
	configFile := flags.String("config", "", "Path to a YAML config file")
	flags.String("db", "mnemo.db", "Path to the SQLite database file")
	flags.String("listen", "localhost:8484", "HTTP listen address")
	flags.String("repos_dir", "repos", "Directory for git source checkouts")
	flags.Float64("request_retention", 0.9, "Target recall probability at review time")
	flags.Int("maximum_interval", 36500, "Cap on days until a card is next due")
	addSource := flags.String("add-source", "", "Register a card source (local path or git URL) and exit")
	syncOnly := flags.Bool("sync-only", false, "Sync all sources and exit instead of serving")
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("failed to parse flags", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if *addSource != "" {
		sourceType := syncer.SourceType(*addSource)
		id, err := db.InsertSource(*addSource, sourceType)
		if err != nil {
			slog.Error("failed to add source", "path", *addSource, "error", err)
			os.Exit(1)
		}
		slog.Info("source added", "id", id, "path", *addSource, "type", sourceType)
		return
	}

	sync := syncer.New(db, cfg.ReposDir)
	if err := sync.Run(context.Background()); err != nil {
		slog.Error("sync failed", "error", err)
		os.Exit(1)
	}
	if *syncOnly {
		return
	}

	scheduler, err := fsrs.NewScheduler(cfg.Parameters())
	if err != nil {
		slog.Error("invalid scheduling parameters", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(db, scheduler, sync)
	slog.Info("serving", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
