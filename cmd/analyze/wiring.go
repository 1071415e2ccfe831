package main

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/analyzer"
	"solana-credit-lab/internal/assets"
	"solana-credit-lab/internal/config"
	"solana-credit-lab/internal/history"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/narrative"
	"solana-credit-lab/internal/solana"
	"solana-credit-lab/internal/storage"
	"solana-credit-lab/internal/storage/clickhouse"
	"solana-credit-lab/internal/storage/file"
	"solana-credit-lab/internal/storage/kafka"
	"solana-credit-lab/internal/storage/memory"
	"solana-credit-lab/internal/storage/migrations"
	"solana-credit-lab/internal/storage/postgres"
)

// requestOptions returns the shared resilient client settings for target.
func requestOptions(cfg *config.Config, log *logrus.Logger, target string) []solana.RequestOption {
	return []solana.RequestOption{
		solana.WithTarget(target),
		solana.WithTimeout(cfg.HTTP.Timeout),
		solana.WithRetries(cfg.HTTP.Retries),
		solana.WithRetryDelay(cfg.HTTP.RetryDelay),
		solana.WithRateLimit(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
		solana.WithLogger(logging.Component(log, "http").WithField("target", target)),
	}
}

// withAPIKey appends api-key to a base URL query.
func withAPIKey(base, key string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("api-key", key)
	u.RawQuery = q.Encode()
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

func buildAnalyzer(cfg *config.Config, log *logrus.Logger) *analyzer.Analyzer {
	das := solana.NewHTTPClient(
		withAPIKey(cfg.Helius.RPCURL, cfg.Helius.APIKey),
		solana.NewRequestClient(requestOptions(cfg, log, "helius-das")...),
	)
	stakeRPC := solana.NewHTTPClient(
		cfg.Helius.StakeRPCURL,
		solana.NewRequestClient(requestOptions(cfg, log, "solana-rpc")...),
	)
	enhanced := solana.NewEnhancedClient(
		cfg.Helius.APIURL,
		cfg.Helius.APIKey,
		solana.NewRequestClient(requestOptions(cfg, log, "helius-enhanced")...),
	)

	threshold := decimal.NewFromFloat(cfg.Analysis.SmallThresholdSOL)

	generator := narrative.NewOpenAIClient(narrative.OpenAIOptions{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, requestOptions(cfg, log, "openai")...)

	maxSigs := cfg.Analysis.MaxSignatures
	if maxSigs == 0 {
		maxSigs = -1 // 0 in config disables the cap
	}

	batchDelay := cfg.Analysis.BatchDelay
	if batchDelay == 0 {
		batchDelay = -1
	}

	return analyzer.New(analyzer.Options{
		History: history.NewPaginator(history.PaginatorOptions{
			Client:         enhanced,
			TargetCount:    cfg.Analysis.TargetCount,
			SmallThreshold: threshold,
			PageSize:       cfg.Analysis.PageSize,
			Logger:         logging.Component(log, "paginator"),
		}),
		Profiles: assets.NewProfileBuilder(assets.BuilderOptions{
			Assets:    das,
			Stake:     assets.NewStakeFetcher(stakeRPC, logging.Component(log, "stake")),
			PageLimit: cfg.Analysis.AssetPageLimit,
			Logger:    logging.Component(log, "profiles"),
		}),
		Resolver: history.NewResolver(history.ResolverOptions{
			Client:     enhanced,
			BatchSize:  cfg.Analysis.BatchSize,
			BatchDelay: batchDelay,
			Logger:     logging.Component(log, "resolver"),
		}),
		Generator:      generator,
		MaxSignatures:  maxSigs,
		SmallThreshold: threshold,
		Logger:         logging.Component(log, "analyzer"),
	})
}

// buildSinks connects every configured backend. A backend that cannot be
// reached is logged and skipped. reports is the store that can read reports
// back (memory or postgres), nil when neither is available.
func buildSinks(ctx context.Context, cfg *config.Config, useMemory bool, log *logrus.Entry) (sinks *storage.MultiSink, reports storage.LatestReader, cleanup func()) {
	sinks = storage.NewMultiSink(log)
	var closers []func()
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if useMemory {
		store := memory.NewReportStore()
		sinks.Add("memory", store)
		return sinks, store, cleanup
	}

	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err == nil {
			err = migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				pool.Close()
			}
		}
		if err != nil {
			log.WithError(err).Error("postgres sink disabled")
		} else {
			closers = append(closers, pool.Close)
			store := postgres.NewReportStore(pool)
			sinks.Add("postgres", store)
			reports = store
		}
	}

	if dsn := cfg.Storage.ClickHouseDSN; dsn != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			log.WithError(err).Error("clickhouse sink disabled")
		} else {
			closers = append(closers, func() { _ = conn.Close() })
			sinks.Add("clickhouse", clickhouse.NewTypeDistributionStore(conn))
		}
	}

	if len(cfg.Storage.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(cfg.Storage.KafkaBrokers, cfg.Storage.KafkaTopic, log.WithField("sink", "kafka"))
		if err != nil {
			log.WithError(err).Error("kafka sink disabled")
		} else {
			closers = append(closers, func() { _ = pub.Close() })
			sinks.Add("kafka", pub)
		}
	}

	log.WithField("sinks", sinks.Len()).Info("storage configured")
	return sinks, reports, cleanup
}

// newFileSink writes the JSON report plus Markdown and CSV companions.
func newFileSink(cfg *config.Config) *file.ReportSink {
	return file.NewReportSink(cfg.Storage.OutputDir, true)
}
