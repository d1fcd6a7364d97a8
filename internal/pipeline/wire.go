package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"power-market-lab/internal/config"
	"power-market-lab/internal/fetch"
	"power-market-lab/internal/logger"
	"power-market-lab/internal/reconcile"
	"power-market-lab/internal/reference"
)

// OptionsFromConfig resolves merge options and market zones from cfg.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	policy, err := reconcile.ParseNullPolicy(cfg.Market.NullPolicy)
	if err != nil {
		return Options{}, err
	}
	market, err := cfg.Market.Location()
	if err != nil {
		return Options{}, err
	}
	source, err := cfg.Market.SourceLocation()
	if err != nil {
		return Options{}, err
	}
	return Options{
		NullPolicy:          policy,
		CapabilityMarker:    cfg.Reports.CapabilityMarker,
		CapabilityLookahead: cfg.Reports.CapabilityLookahead,
		SupplyLabels:        cfg.Reports.SupplyLabels,
		MarketLocation:      market,
		SourceLocation:      source,
	}, nil
}

// FromConfig wires the fetch client, reference store and merge options.
// The returned cleanup closes the reference store connection.
func FromConfig(ctx context.Context, cfg config.Config, log *zap.Logger) (*Builder, func(), error) {
	log = logger.OrNop(log)
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, cleanup, err := reference.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open reference store: %w", err)
	}

	client := fetch.NewClient(
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithMaxRetries(cfg.Fetch.MaxRetries),
		fetch.WithRetryDelay(cfg.Fetch.RetryDelay),
		fetch.WithMaxDelay(cfg.Fetch.MaxDelay),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
		fetch.WithLogger(log.Named("fetch")),
	)

	builder := NewBuilder(client, SourcesFromConfig(cfg.Reports), reference.NewLookup(store), opts, log.Named("pipeline"))

	log.Info("pipeline ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("timezone", opts.MarketLocation.String()),
		zap.String("null_policy", opts.NullPolicy.String()))
	return builder, cleanup, nil
}
