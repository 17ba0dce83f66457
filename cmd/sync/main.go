// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Binary sync runs the mirror synchronization engine: it keeps the local
// CurseForge and Modrinth catalogs converging toward upstream on a set of
// periodic jobs.
package main

import (
	"context"
	"flag"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/config"
	"github.com/mcmod-info-mirror/mcim-sync/internal/httpx"
	"github.com/mcmod-info-mirror/mcim-sync/internal/jobs"
	"github.com/mcmod-info-mirror/mcim-sync/internal/ratex"
	"github.com/mcmod-info-mirror/mcim-sync/internal/scheduler"
	"github.com/mcmod-info-mirror/mcim-sync/internal/store"
	"github.com/mcmod-info-mirror/mcim-sync/internal/telegram"
	"github.com/mcmod-info-mirror/mcim-sync/internal/urlx"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
	cfreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/curseforge"
	mrreg "github.com/mcmod-info-mirror/mcim-sync/pkg/registry/modrinth"
)

var configPath = flag.String("config", "config.yml", "path to the configuration file")

const (
	requestTimeout  = 5 * time.Second
	retryDelay      = time.Second
	shutdownGrace   = 30 * time.Second
	startupDeadline = 10 * time.Second
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startupCtx, startupCancel := context.WithTimeout(ctx, startupDeadline)
	defer startupCancel()
	mongo, err := store.DialMongo(startupCtx, cfg.MongoDB)
	if err != nil {
		log.Fatalf("connecting to mongodb: %v", err)
	}
	if err := mongo.Ping(startupCtx); err != nil {
		log.Fatalf("mongodb unreachable: %v", err)
	}
	defer mongo.Close(context.Background())

	queues := store.DialRedis(cfg.Redis)
	if err := queues.Ping(startupCtx); err != nil {
		log.Fatalf("redis unreachable: %v", err)
	}
	defer queues.Close()

	limits := make(map[string]ratex.HostConfig, len(cfg.DomainRateLimits))
	for host, rl := range cfg.DomainRateLimits {
		limits[host] = ratex.HostConfig{
			Capacity:      rl.Capacity,
			RefillRate:    rl.RefillRate,
			InitialTokens: rl.InitialTokens,
		}
	}
	limiter := ratex.NewLimiter(limits)

	base := &http.Client{Timeout: requestTimeout}
	if cfg.Proxies != "" {
		proxyURL, err := url.Parse(cfg.Proxies)
		if err != nil {
			log.Fatalf("parsing proxy url: %v", err)
		}
		base.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	client := httpx.BasicClient(&httpx.WithUserAgent{BasicClient: base, UserAgent: httpx.UserAgent})
	client = &httpx.RateLimitedClient{BasicClient: client, Limiter: limiter}
	client = &httpx.RetryClient{BasicClient: client, Delay: retryDelay}

	curseforgeClient := httpx.BasicClient(&httpx.WithHeaders{
		BasicClient: client,
		Headers:     http.Header{cfreg.APIKeyHeader: []string{cfg.CurseforgeAPIKey}},
	})

	engine := &jobs.Engine{
		Config:     cfg,
		Store:      mongo,
		Queues:     queues,
		Curseforge: cfreg.HTTPRegistry{Client: curseforgeClient, BaseURL: urlx.MustParse(cfg.CurseforgeAPI)},
		Modrinth:   mrreg.HTTPRegistry{Client: client, BaseURL: urlx.MustParse(cfg.ModrinthAPI)},
		Notifier:   notifier(cfg, client),
	}

	sched := scheduler.New()
	if err := engine.Register(ctx, sched); err != nil {
		log.Fatalf("scheduling jobs: %v", err)
	}
	sched.Start()
	log.Info("sync engine started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	cancel()
	sched.Stop(shutdownGrace)
}

func notifier(cfg *config.Config, client httpx.BasicClient) mirror.Notifier {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		return mirror.NopNotifier{}
	}
	return &telegram.Bot{
		Client:  client,
		BaseURL: cfg.Telegram.BotAPI,
		Token:   cfg.Telegram.BotToken,
		ChatID:  cfg.Telegram.ChatID,
	}
}
