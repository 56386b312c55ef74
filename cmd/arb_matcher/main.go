package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hetulpatel/arbmatch/internal/cache"
	"github.com/hetulpatel/arbmatch/internal/chroma"
	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/config"
	"github.com/hetulpatel/arbmatch/internal/embed"
	"github.com/hetulpatel/arbmatch/internal/embedstore"
	kafkautil "github.com/hetulpatel/arbmatch/internal/kafka"
	"github.com/hetulpatel/arbmatch/internal/kalshi"
	"github.com/hetulpatel/arbmatch/internal/llm"
	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/matcher"
	"github.com/hetulpatel/arbmatch/internal/matches"
	"github.com/hetulpatel/arbmatch/internal/pipeline"
	"github.com/hetulpatel/arbmatch/internal/polymarket"
	"github.com/hetulpatel/arbmatch/internal/queue"
	"github.com/hetulpatel/arbmatch/internal/status"
	sqlstore "github.com/hetulpatel/arbmatch/internal/storage/sqlite"
	"github.com/hetulpatel/arbmatch/internal/validator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("[arb-matcher] %v", err)
	}
	logging.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logging.Fatalf("[arb-matcher] invalid config: %v", err)
	}
	if err := cfg.RequireModels(); err != nil {
		logging.Fatalf("[arb-matcher] %v", err)
	}

	if err := run(ctx, cfg); err != nil {
		logging.Fatalf("[arb-matcher] %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	redisClient := setupRedis(ctx, cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	embedClient, err := embed.New(embed.Config{
		APIKey:  cfg.NebiusAPIKey,
		BaseURL: cfg.NebiusBaseURL,
		Model:   cfg.EmbedModel,
	})
	if err != nil {
		return err
	}
	var embedder embedstore.Embedder = embedClient
	if redisClient != nil {
		if ec, err := cache.NewRedisEmbeddingCache(redisClient, cfg.EmbedCacheTTL, ""); err == nil {
			embedder = embed.NewCached(embedClient, ec, embedClient.Model())
		}
	}

	storeCfg := embedstore.Config{
		Embedder:     embedder,
		Path:         cfg.SnapshotPath,
		SaveInterval: cfg.SaveInterval,
	}
	if cfg.ChromaURL != "" {
		mirror, err := chroma.NewMirror(ctx, chroma.NewClient(cfg.ChromaURL, cfg.HTTPTimeout), cfg.ChromaCollection)
		if err != nil {
			logging.Warnf("[arb-matcher] chroma mirror disabled: %v", err)
		} else {
			storeCfg.Mirror = mirror
		}
	}
	store, err := embedstore.New(storeCfg)
	if err != nil {
		return err
	}

	verifiers, err := buildVerifiers(cfg, redisClient)
	if err != nil {
		return err
	}

	matchLog := matches.NewLog(cfg.MatchesPath)
	m, err := matcher.New(matcher.Config{
		TopN:      cfg.TopN,
		Threshold: cfg.SimilarityThreshold,
		ScanVenue: cfg.Venue(),
		Verifiers: verifiers,
		Log:       matchLog,
		Workers:   cfg.MatchWorkers,
		Logger:    matcher.NewLogger(matcher.ParseLogMode(cfg.MatchLogMode)),
	})
	if err != nil {
		return err
	}

	kalshiCollector := kalshi.NewClient(kalshi.Config{
		BaseURL:     cfg.KalshiBaseURL,
		Sessions:    cfg.KalshiSessions,
		PageLimit:   cfg.KalshiPageLimit,
		Timeout:     cfg.HTTPTimeout,
		MaxAttempts: cfg.HTTPMaxAttempts,
		Backoff:     cfg.RateLimitBackoff,
	})
	polyCollector := polymarket.NewClient(polymarket.Config{
		BaseURL:     cfg.PolymarketBaseURL,
		Sessions:    cfg.PolymarketSessions,
		PageLimit:   cfg.PolymarketPageLimit,
		Timeout:     cfg.HTTPTimeout,
		MaxAttempts: cfg.HTTPMaxAttempts,
		Backoff:     cfg.RateLimitBackoff,
	})

	loopCfg := pipeline.Config{
		Collectors: []collectors.Collector{kalshiCollector, polyCollector},
		Store:      store,
		Matcher:    m,
		Log:        matchLog,
		Interval:   cfg.UpdateInterval,
	}
	if cfg.SQLitePath != "" {
		db, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		if err := db.CreateTables(ctx); err != nil {
			db.Close()
			return err
		}
		loopCfg.Catalog = db
		loopCfg.Sinks = append(loopCfg.Sinks, pipeline.NamedSink{Name: "sqlite", Sink: db})
	}
	if publisher := setupPublisher(ctx, cfg); publisher != nil {
		loopCfg.Sinks = append(loopCfg.Sinks, pipeline.NamedSink{Name: "kafka", Sink: publisher})
	}

	loop, err := pipeline.New(loopCfg)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		go func() {
			router := status.NewRouter(func() any { return loop.Stats() })
			if err := status.Serve(ctx, cfg.MetricsAddr, router); err != nil {
				logging.Errorf("[status] %v", err)
			}
		}()
	}

	logging.Infof("[arb-matcher] starting: scan=%s threshold=%.2f top_n=%d interval=%s workers=%d",
		cfg.Venue(), cfg.SimilarityThreshold, cfg.TopN, cfg.UpdateInterval, cfg.MatchWorkers)
	return loop.Run(ctx)
}

func setupRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logging.Warnf("[arb-matcher] redis unavailable, caches disabled: %v", err)
		return nil
	}
	return client
}

func buildVerifiers(cfg *config.Config, redisClient *redis.Client) ([]matcher.Verifier, error) {
	var verdicts cache.VerdictCache
	if redisClient != nil {
		if vc, err := cache.NewRedisVerdictCache(redisClient, cfg.VerdictCacheTTL, ""); err == nil {
			verdicts = vc
		}
	}

	tiers := []struct {
		tier  matches.Tier
		model string
	}{
		{matches.TierCheap, cfg.CheapModel},
		{matches.TierExpensive, cfg.ExpensiveModel},
	}
	out := make([]matcher.Verifier, 0, len(tiers))
	for _, t := range tiers {
		client, err := llm.New(llm.Config{
			APIKey:    cfg.NebiusAPIKey,
			BaseURL:   cfg.NebiusBaseURL,
			Model:     t.model,
			Timeout:   cfg.ValidatorTimeout,
			MaxTokens: cfg.ValidatorMaxTokens,
		})
		if err != nil {
			return nil, err
		}
		svc, err := validator.NewService(validator.Config{
			LLM:          client,
			Tier:         t.tier,
			VerdictCache: verdicts,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}

func setupPublisher(ctx context.Context, cfg *config.Config) *queue.MatchPublisher {
	brokers := kafkautil.ParseBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	if err := kafkautil.WaitForBroker(waitCtx, brokers); err != nil {
		logging.Warnf("[arb-matcher] kafka unavailable: %v", err)
		return nil
	}
	ensureCtx, cancelEnsure := context.WithTimeout(ctx, 30*time.Second)
	if err := kafkautil.EnsureTopic(ensureCtx, brokers, cfg.MatchesKafkaTopic); err != nil {
		logging.Warnf("[arb-matcher] ensure topic warning: %v", err)
	}
	cancelEnsure()
	return queue.NewMatchPublisher(kafkautil.NewWriter(brokers, cfg.MatchesKafkaTopic))
}
