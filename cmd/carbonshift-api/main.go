// carbonshift-api serves the CarbonShift simulation and recommendation API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/rs/zerolog"

	"github.com/carbonshift/simulator/internal/insights"
	"github.com/carbonshift/simulator/internal/pricing"
	"github.com/carbonshift/simulator/internal/recommend"
	"github.com/carbonshift/simulator/internal/refdata"
	"github.com/carbonshift/simulator/internal/server"
	"github.com/carbonshift/simulator/internal/simulation"
)

// priceListRegion is where the AWS Price List API is served from.
const priceListRegion = "us-east-1"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[carbonshift-api] %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).
		Level(cfg.logLevel()).
		With().Timestamp().Str("service", "carbonshift-api").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	store, err := refdata.Load()
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}
	logger.Info().
		Int("regions", len(store.Regions())).
		Int("instance_types", len(store.Instances())).
		Msg("reference data loaded")

	resolver, err := buildResolver(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if api, ok := resolver.(*pricing.APIResolver); ok {
		go refreshPrices(ctx, api, store, cfg.PriceCacheTTL)
	}

	simEngine := simulation.NewEngine(store, resolver, logger)
	recEngine, err := recommend.NewEngine(store, logger)
	if err != nil {
		return err
	}

	generator, err := buildInsights(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.New(store, simEngine, recEngine, generator, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("listening")
		errChan <- srv.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// refreshPrices re-fetches the full price matrix each time the cache TTL
// elapses, so steady-state lookups stay warm.
func refreshPrices(ctx context.Context, api *pricing.APIResolver, store *refdata.Store, interval time.Duration) {
	instanceTypes := make([]string, 0, len(store.Instances()))
	for _, p := range store.Instances() {
		instanceTypes = append(instanceTypes, p.InstanceType)
	}
	regionCodes := make([]string, 0, len(store.Regions()))
	for _, r := range store.Regions() {
		regionCodes = append(regionCodes, r.RegionCode)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			api.WarmCache(ctx, instanceTypes, regionCodes)
		}
	}
}

// buildResolver picks static or API-backed pricing per configuration.
func buildResolver(ctx context.Context, cfg Config, logger zerolog.Logger) (pricing.Resolver, error) {
	static := pricing.NewStaticResolver(logger)
	if !cfg.PricingAPIEnabled {
		return static, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(priceListRegion))
	if err != nil {
		logger.Warn().Err(err).Msg("aws config unavailable, using static pricing")
		return static, nil
	}
	logger.Info().Dur("cache_ttl", cfg.PriceCacheTTL).Msg("price list api enabled")
	return pricing.NewAPIResolver(awspricing.NewFromConfig(awsCfg), static, cfg.PriceCacheTTL, logger), nil
}

// buildInsights picks template or Bedrock-backed insight generation.
func buildInsights(ctx context.Context, cfg Config, logger zerolog.Logger) (insights.Generator, error) {
	if !cfg.UseBedrock {
		return insights.TemplateGenerator{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Warn().Err(err).Msg("aws config unavailable, using template insights")
		return insights.TemplateGenerator{}, nil
	}
	logger.Info().Str("model_id", cfg.BedrockModelID).Msg("bedrock insights enabled")
	return insights.NewBedrockGenerator(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID, logger), nil
}
