// Copyright (c) 2024, 0x0BSoD. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/ansaNewsBot/internal/api"
	"github.com/0x0BSoD/ansaNewsBot/internal/bot"
	"github.com/0x0BSoD/ansaNewsBot/internal/botkit"
	"github.com/0x0BSoD/ansaNewsBot/internal/config"
	"github.com/0x0BSoD/ansaNewsBot/internal/enricher"
	"github.com/0x0BSoD/ansaNewsBot/internal/fetcher"
	"github.com/0x0BSoD/ansaNewsBot/internal/notifier"
	"github.com/0x0BSoD/ansaNewsBot/internal/reporter"
	"github.com/0x0BSoD/ansaNewsBot/internal/scheduler"
	"github.com/0x0BSoD/ansaNewsBot/internal/source"
	"github.com/0x0BSoD/ansaNewsBot/internal/storage"
	"github.com/0x0BSoD/ansaNewsBot/internal/summary"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load config", "err", err)
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "err", err)
			return
		}
		logger.Info("database closed")
	}()

	var (
		categoryStorage    = storage.NewCategoryStorage(db)
		destinationStorage = storage.NewDestinationStorage(db)
		deliveryStorage    = storage.NewDeliveryStorage(db)
		httpClient         = &http.Client{}
	)

	if err := prepareCategories(ctx, cfg, categoryStorage, httpClient, logger); err != nil {
		logger.Error("failed to prepare categories", "err", err)
		return err
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Error("failed to create bot api", "err", err)
		return err
	}
	logger.Info("authorized on telegram", "account", botAPI.Self.UserName)

	summarizer, err := summary.New(cfg)
	if err != nil {
		logger.Error("failed to create summarizer", "err", err)
		return err
	}
	if summarizer != nil {
		logger.Info("captions are shortened by a language model", "summarizer", cfg.Summarizer, "model", cfg.AIModel)
	}

	var (
		alerts = reporter.New(botAPI, cfg.TelegramAdminChatID, logger.With("component", "reporter"))
		feeds  = fetcher.New(
			categoryStorage,
			source.NewRSSFetcher(httpClient),
			fetcher.NewDetector(
				enricher.New(httpClient, cfg.DefaultImageURL, logger.With("component", "enricher")),
				logger.With("component", "detector"),
			),
			alerts,
			logger.With("component", "fetcher"),
		)
		dispatcher = notifier.New(
			destinationStorage,
			deliveryStorage,
			notifier.NewTelegramSender(botAPI),
			notifier.NewCaptioner(summarizer, logger.With("component", "captioner")),
			alerts,
			cfg.PacingInterval,
			logger.With("component", "notifier"),
		)
		poller = scheduler.New(feeds, dispatcher, cfg.IdleInterval, logger.With("component", "scheduler"))
	)

	newsBot := botkit.New(botAPI, logger.With("component", "botkit"))
	registrar := bot.NewRegistrar(destinationStorage, logger.With("component", "registrar"))
	for cmd, view := range bot.Views(categoryStorage, destinationStorage, registrar) {
		newsBot.RegisterCmdView(cmd.String(), view)
	}
	newsBot.RegisterTextView(bot.ViewRegister(registrar))

	router := api.NewServer(
		api.NewHandler(categoryStorage, destinationStorage, logger.With("component", "api")),
		logger.With("component", "api"),
	)

	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		failure  error
	)
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("component failed", "component", name, "err", err)
				failOnce.Do(func() { failure = err })
				cancel()
				return
			}
			logger.Info("component stopped", "component", name)
		}()
	}

	start("scheduler", poller.Start)
	start("http", func(ctx context.Context) error { return api.Serve(ctx, cfg.HTTPAddr, router) })
	start("botkit", newsBot.Run)

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()

	return failure
}

// prepareCategories seeds the categories from the feed index on the first start. On later
// starts it raises the watermarks to now so that the backlog is not delivered.
func prepareCategories(
	ctx context.Context,
	cfg config.Config,
	categories *storage.CategoryStorage,
	client *http.Client,
	logger *slog.Logger,
) error {
	count, err := categories.Count(ctx)
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	if count == 0 {
		seed, err := source.ScrapeIndex(ctx, client, cfg.FeedIndexURL, now)
		if err != nil {
			return err
		}
		if err := categories.Add(ctx, seed); err != nil {
			return err
		}
		logger.Info("categories seeded", "count", len(seed), "index", cfg.FeedIndexURL)
		return nil
	}

	if cfg.ResetWatermarksOnStart {
		if err := categories.RaiseWatermarks(ctx, now); err != nil {
			return err
		}
		logger.Info("watermarks raised to now", "categories", count)
	}

	return nil
}

