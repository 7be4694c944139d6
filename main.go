package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gitlapse/gitlapse/analyze"
	"github.com/gitlapse/gitlapse/cache"
	"github.com/gitlapse/gitlapse/config"
	"github.com/gitlapse/gitlapse/github"
	"github.com/gitlapse/gitlapse/ratelimit"
	"github.com/gitlapse/gitlapse/report"
	"github.com/gitlapse/gitlapse/retry"
)

func main() {
	cfg, err := config.NewLoader("").Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newClient(cfg)
	if err != nil {
		logger.WithError(err).Fatal("github client setup failed")
	}

	guard := ratelimit.NewGuard(client.Quota, cfg.RateLimitBuffer, cfg.RateLimitGrace, logger)
	exec := retry.NewExecutor(cfg.RetryAttempts, cfg.RetryDelay, guard, logger)
	store := cache.New(cfg.CacheDir, cfg.CacheDays, logger)

	fetcher, err := github.NewFetcher(client, guard, exec, store, github.Options{
		Username:       cfg.GithubUsername,
		UseCache:       cfg.CacheEnabled,
		MaxRepos:       cfg.MaxRepositories,
		CommitsPerRepo: cfg.CommitsPerRepo,
		ProbeCacheSize: cfg.ProbeCacheSize,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("fetcher setup failed")
	}

	ds, stats, err := fetcher.FetchAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted, exiting")
			os.Exit(1)
		}
		logger.WithError(err).Fatal("fetch failed")
	}
	for _, ex := range stats.Excluded {
		logger.WithFields(logrus.Fields{
			"repo":   ex.Repo,
			"reason": ex.Reason,
		}).Debug("repository excluded")
	}
	if ds.Empty() {
		logger.Warn("no commit data available, nothing to analyze")
		return
	}

	// The analyzers are pure functions over the dataset, so they run
	// concurrently.
	var (
		temporal     analyze.TemporalStats
		languages    analyze.LanguageStats
		linguistic   analyze.LinguisticStats
		productivity analyze.ProductivityStats
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { temporal = analyze.Temporal(ds); return nil })
	g.Go(func() error { languages = analyze.Languages(ds); return nil })
	g.Go(func() error { linguistic = analyze.Linguistic(ds); return nil })
	g.Go(func() error { productivity = analyze.Productivity(ds); return nil })
	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("analysis failed")
	}

	doc := report.Build(cfg.GithubUsername, stats.FromCache, ds, temporal, languages, linguistic, productivity)
	path, err := report.Write(cfg.OutputDir, doc, logger)
	if err != nil {
		logger.WithError(err).Fatal("report export failed")
	}

	logger.WithFields(logrus.Fields{
		"commits":      doc.Summary.TotalCommits,
		"repositories": doc.Summary.TotalRepositories,
		"language":     languages.PrimaryLanguage,
		"personality":  temporal.Personality,
		"report":       path,
	}).Info("analysis complete")
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func newClient(cfg config.Config) (*github.Client, error) {
	if cfg.GithubToken != "" {
		return github.NewTokenClient(cfg.GithubToken, float64(cfg.RequestsPerSecond)), nil
	}
	return github.NewAppClient([]byte(cfg.GithubPrivateKey), cfg.GithubClientID, cfg.GithubInstallationID, float64(cfg.RequestsPerSecond))
}
