package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/toxin-don/rails-security-pr-digest/internal/configuration"
	"github.com/toxin-don/rails-security-pr-digest/internal/journal"
	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
	"github.com/toxin-don/rails-security-pr-digest/internal/rules"
	"github.com/toxin-don/rails-security-pr-digest/internal/scan"
	"github.com/toxin-don/rails-security-pr-digest/internal/score"
)

// prepareLogger configures the global slog logger. Takes a string log
// level (e.g., "debug", "info", "warn", "error") and installs a
// JSON-formatted handler on os.Stdout. An unrecognized level falls back
// to Info.
func prepareLogger(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

// Configuration, rule or filter errors at startup are fatal: the
// application exits with code 1 before any scanning occurs.
func main() {
	configPath := flag.String("config", "/etc/pr-digest/config.yaml", "configuration file")
	flag.Parse()
	config, err := configuration.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}
	prepareLogger(config.Logger.Level)

	content, err := os.ReadFile(config.Analysis.Rules)
	if err != nil {
		slog.Error("Unable to read rule file", "error", err)
		os.Exit(1)
	}
	ruleSet, err := rules.Load(content)
	if err != nil {
		slog.Error("Unable to load rules", "error", err)
		os.Exit(1)
	}
	filter, err := score.NewFilter(config.Analysis.Filter)
	if err != nil {
		slog.Error("Unable to compile candidate filter", "error", err)
		os.Exit(1)
	}

	var jrnl journal.Journal = journal.Nop{}
	if config.Journal.File != "" {
		jrnl = journal.NewJsonJournal(config.Journal.File, config.Journal.Size, config.Journal.Amount)
	}
	defer jrnl.Close()

	client := pull.NewClient(config.Github.Token, config.Github.Owner, config.Github.Repo)

	if config.Schedule == "" {
		scanner := scan.NewScanner(client, ruleSet, filter, jrnl, nil, config.Digest.Output, config.Digest.Html)
		if err := scanner.Run(context.Background()); err != nil {
			slog.Error("Scan failed", "error", err)
			os.Exit(1)
		}
		return
	}

	appCtx, appCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	history := pull.NewHistory(config.Analysis.HistoryLength, config.Analysis.HistoryTtl)
	go history.Serve()

	scanner := scan.NewScanner(client, ruleSet, filter, jrnl, history, config.Digest.Output, config.Digest.Html)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(config.Schedule, func() {
		if err := scanner.Run(appCtx); err != nil {
			slog.Error("Scan failed", "error", err)
		}
	})
	if err != nil {
		slog.Error("Unable to schedule scan", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	slog.Info("Scanner scheduled", "schedule", config.Schedule, "repo", client.Repo())

	<-appCtx.Done()

	<-scheduler.Stop().Done()
	history.Stop()
	slog.Info("Scanner stopped")
}
