package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"veridoc/internal/config"
	"veridoc/internal/domain"
	"veridoc/internal/infra/cache"
	"veridoc/internal/infra/db"
	httpinfra "veridoc/internal/infra/http"
	"veridoc/internal/infra/ledger"
	"veridoc/internal/infra/policy"
	"veridoc/internal/infra/ratelimit"
	"veridoc/internal/infra/schema"
	"veridoc/internal/usecase"
)

func runServe(_ []string) int {
	cfg := config.FromEnv()
	log := newLogger(cfg.LogLevel)

	conn, err := db.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error().Err(err).Msg("open database")
		return 1
	}
	if err := db.AutoMigrate(conn); err != nil {
		log.Error().Err(err).Msg("migrate database")
		return 1
	}
	documents := db.NewDocumentRepository(conn)
	batches := db.NewBatchRepository(conn)
	receipts := db.NewLedgerReceiptRepository(conn)

	store := buildCache(cfg, log)
	limiter := buildLimiter(cfg, log)

	ledgerSvc, err := buildLedger(cfg, receipts)
	if err != nil {
		log.Error().Err(err).Msg("configure ledger")
		return 1
	}

	validator, err := schema.NewValidator()
	if err != nil {
		log.Error().Err(err).Msg("compile issue schema")
		return 1
	}

	var disclosure usecase.DisclosurePolicy
	if cfg.PolicyBundlePath != "" {
		engine, err := policy.NewEngineFromBundlePath(context.Background(), cfg.PolicyBundlePath)
		if err != nil {
			log.Error().Err(err).Str("bundle", cfg.PolicyBundlePath).Msg("load policy bundle")
			return 1
		}
		log.Info().Str("bundle_hash", engine.BundleHash()).Msg("disclosure policy loaded")
		disclosure = engine
	}

	srv := httpinfra.NewServer(httpinfra.Deps{
		Issue: &usecase.IssueDocument{Store: documents, Ledger: ledgerSvc},
		Verify: &usecase.VerifyDocument{
			Store:            documents,
			Ledger:           ledgerSvc,
			Cache:            store,
			Policy:           disclosure,
			CacheTTL:         cfg.CacheTTL,
			PartialFieldKeys: splitCSV(cfg.PartialFieldKeys),
		},
		AnchorBatch:  &usecase.AnchorBatch{Batches: batches, Ledger: ledgerSvc},
		Proofs:       &usecase.GetProof{Batches: batches},
		Revoke:       &usecase.RevokeDocument{Store: documents, Ledger: ledgerSvc},
		LedgerStatus: &usecase.LedgerStatusQuery{Ledger: ledgerSvc, Store: documents},

		Validator: validator,

		RateLimiter:         limiter,
		RateLimitRequests:   cfg.RateLimitRequests,
		RateLimitWindow:     cfg.RateLimitWindow,
		RateLimitFailClosed: cfg.RateLimitFailClosed,

		Log: log,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("veridoc listening")
	if err := srv.Run(cfg.HTTPAddr); err != nil {
		log.Error().Err(err).Msg("server exited")
		return 1
	}
	return 0
}

// buildCache wires redis in front of the in-process cache. A redis that
// is down at boot still gets the tiered wrapper; it will be reprobed.
func buildCache(cfg config.Config, log zerolog.Logger) domain.Cache {
	local := cache.NewMemory()
	if cfg.RedisAddr == "" {
		return local
	}
	durable, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn().Err(err).Msg("redis cache unavailable, using in-process cache only")
		return local
	}
	return cache.NewTiered(durable, local)
}

func buildLimiter(cfg config.Config, log zerolog.Logger) domain.RateLimiter {
	local := ratelimit.NewMemory(ratelimit.MemoryConfig{})
	if cfg.RedisAddr == "" {
		return local
	}
	durable, err := ratelimit.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
	if err != nil {
		log.Warn().Err(err).Msg("redis limiter unavailable, using in-process limiter only")
		return local
	}
	return ratelimit.NewFallback(durable, local)
}

func buildLedger(cfg config.Config, receipts domain.LedgerReceiptRepository) (domain.LedgerService, error) {
	var provider ledger.Provider
	switch cfg.LedgerProvider {
	case "", "memory":
		provider = ledger.NewMemoryProvider()
	case "chain":
		chain, err := ledger.NewChainProvider(cfg.LedgerEndpoint, cfg.LedgerAPIKey)
		if err != nil {
			return nil, err
		}
		provider = chain
	default:
		return nil, fmt.Errorf("unknown ledger provider %q", cfg.LedgerProvider)
	}
	return ledger.NewService(provider, receipts, cfg.LedgerTimeout)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
