package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vkmod/vkmod/automod"
	"github.com/vkmod/vkmod/automod/consumer"
	"github.com/vkmod/vkmod/automod/seenstore"
	"github.com/vkmod/vkmod/internal/config"
	"github.com/vkmod/vkmod/vkapi"
	"github.com/vkmod/vkmod/vkapi/longpoll"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

var (
	// redeliveries after a session reset arrive within seconds; an hour is plenty
	seenCacheSize = 50_000
	seenCacheTTL  = time.Hour
)

type Server struct {
	logger   *slog.Logger
	engine   *automod.Engine
	consumer *consumer.LongPollConsumer
}

func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := vkapi.NewClient(cfg.AccessToken)
	client.Host = cfg.APIHost
	client.Version = cfg.APIVersion
	client.Client.Transport = otelhttp.NewTransport(client.Client.Transport)
	ua := fmt.Sprintf("vkmod/%s", versioninfo.Short())
	client.UserAgent = &ua

	var sink automod.ActionSink
	if cfg.ReadOnly {
		logger.Warn("readonly mode: messages will not be deleted")
		sink = &automod.LogSink{Logger: logger}
	} else {
		sink = &vkapi.MessageDeleter{
			Client:  client,
			GroupID: cfg.GroupID,
			Logger:  logger.With("component", "deleter"),
		}
	}

	engine, err := automod.NewEngine(automod.Config{
		Logger:                logger.With("component", "engine"),
		BannedPatterns:        cfg.BannedPatterns,
		BannedRepostGroups:    cfg.BannedRepostGroups,
		EnableStickerCooldown: cfg.StickerCooldown.Enabled,
		StickerCooldown:       cfg.StickerCooldown.Window,
		Sink:                  sink,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to construct engine: %w", err)
	}
	logger.Info("moderation rules configured",
		"rules", engine.Rules.Names(),
		"patterns", len(engine.Patterns),
		"bannedRepostGroups", len(cfg.BannedRepostGroups),
	)

	src := longpoll.NewSource(client, cfg.GroupID, logger.With("component", "longpoll"))
	src.Wait = cfg.LongPoll.Wait

	lc := &consumer.LongPollConsumer{
		Logger: logger.With("component", "consumer"),
		Engine: engine,
		Source: src,
		Seen:   seenstore.NewMemSeenStore(seenCacheSize, seenCacheTTL),
	}

	return &Server{
		logger:   logger,
		engine:   engine,
		consumer: lc,
	}, nil
}

// Runs the consumer, and the metrics endpoint if listen is non-empty, until the context is cancelled or either one fails.
func (s *Server) Run(ctx context.Context, listen string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.consumer.Run(ctx)
		if err == nil && ctx.Err() != nil {
			s.logger.Info("shutting down")
		}
		return err
	})

	if listen != "" {
		metricsSrv := &http.Server{Addr: listen, Handler: metricsHandler()}
		g.Go(func() error {
			s.logger.Info("metrics endpoint listening", "addr", listen)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics endpoint: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
