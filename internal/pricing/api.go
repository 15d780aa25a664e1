package pricing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/goccy/go-json"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a fetched price stays valid before the next
// lookup goes back to the Price List API.
const DefaultCacheTTL = 24 * time.Hour

const maxPriceListResults = 10

// PriceListAPI is the subset of the AWS Price List API client the resolver
// depends on. The Price List API is only served from us-east-1.
type PriceListAPI interface {
	GetProducts(ctx context.Context, params *awspricing.GetProductsInput, optFns ...func(*awspricing.Options)) (*awspricing.GetProductsOutput, error)
}

// APIResolver resolves prices from the AWS Price List API, caching each
// region:instanceType rate with a TTL. Any API failure falls back to the
// static resolver; callers never observe an error.
type APIResolver struct {
	api      PriceListAPI
	fallback *StaticResolver
	cache    *ttlcache.Cache[string, float64]
	logger   zerolog.Logger
}

// NewAPIResolver returns an APIResolver. A ttl of 0 uses DefaultCacheTTL.
func NewAPIResolver(api PriceListAPI, fallback *StaticResolver, ttl time.Duration, logger zerolog.Logger) *APIResolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &APIResolver{
		api:      api,
		fallback: fallback,
		cache: ttlcache.New[string, float64](
			ttlcache.WithTTL[string, float64](ttl),
			ttlcache.WithDisableTouchOnHit[string, float64](),
		),
		logger: logger,
	}
}

// HourlyPrice returns the cached or freshly fetched API rate, falling back
// to the static tables when the API cannot produce a usable price.
func (r *APIResolver) HourlyPrice(ctx context.Context, instanceType, regionCode string) float64 {
	key := regionCode + ":" + instanceType

	r.cache.DeleteExpired()
	if item := r.cache.Get(key); item != nil {
		return item.Value()
	}

	price, err := r.fetchInstancePrice(ctx, instanceType, regionCode)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("instance_type", instanceType).
			Str("region", regionCode).
			Msg("price list lookup failed, using static pricing")
		return r.fallback.HourlyPrice(ctx, instanceType, regionCode)
	}

	price = round4(price)
	r.cache.Set(key, price, ttlcache.DefaultTTL)
	return price
}

// MonthlyCost returns the monthly cost for the given instance fleet.
func (r *APIResolver) MonthlyCost(ctx context.Context, instanceType, regionCode string, hoursPerMonth float64, instanceCount int) float64 {
	hourly := r.HourlyPrice(ctx, instanceType, regionCode)
	return round2(hourly * hoursPerMonth * float64(instanceCount))
}

// WarmCache pre-fetches prices for the cross product of instance types and
// regions, for the daily refresh path. Returns the number of prices fetched.
func (r *APIResolver) WarmCache(ctx context.Context, instanceTypes, regionCodes []string) int {
	start := time.Now()
	fetched := 0
	for _, region := range regionCodes {
		for _, instanceType := range instanceTypes {
			price, err := r.fetchInstancePrice(ctx, instanceType, region)
			if err != nil {
				continue
			}
			r.cache.Set(region+":"+instanceType, round4(price), ttlcache.DefaultTTL)
			fetched++
		}
	}
	r.logger.Info().
		Int("fetched", fetched).
		Int("instance_types", len(instanceTypes)).
		Int("regions", len(regionCodes)).
		Dur("elapsed", time.Since(start)).
		Msg("price cache refreshed")
	return fetched
}

// priceListProduct is the slice of the Price List product document the
// resolver reads: the OnDemand term tree down to pricePerUnit.
type priceListProduct struct {
	Terms struct {
		OnDemand map[string]struct {
			PriceDimensions map[string]struct {
				PricePerUnit map[string]string `json:"pricePerUnit"`
			} `json:"priceDimensions"`
		} `json:"OnDemand"`
	} `json:"terms"`
}

func (r *APIResolver) fetchInstancePrice(ctx context.Context, instanceType, regionCode string) (float64, error) {
	termMatch := func(field, value string) pricingtypes.Filter {
		return pricingtypes.Filter{
			Type:  pricingtypes.FilterTypeTermMatch,
			Field: aws.String(field),
			Value: aws.String(value),
		}
	}

	out, err := r.api.GetProducts(ctx, &awspricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		MaxResults:  aws.Int32(maxPriceListResults),
		Filters: []pricingtypes.Filter{
			termMatch("instanceType", instanceType),
			termMatch("location", locationName(regionCode)),
			termMatch("operatingSystem", "Linux"),
			termMatch("tenancy", "Shared"),
			termMatch("preInstalledSw", "NA"),
			termMatch("capacitystatus", "Used"),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("get products: %w", err)
	}

	for _, raw := range out.PriceList {
		var product priceListProduct
		if err := json.Unmarshal([]byte(raw), &product); err != nil {
			continue
		}
		for _, term := range product.Terms.OnDemand {
			for _, dim := range term.PriceDimensions {
				usd, ok := dim.PricePerUnit["USD"]
				if !ok {
					continue
				}
				price, err := strconv.ParseFloat(usd, 64)
				if err != nil || price <= 0 {
					continue
				}
				return price, nil
			}
		}
	}
	return 0, fmt.Errorf("no on-demand price for %s in %s", instanceType, regionCode)
}
